package biz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver/biz"
)

func TestQueryComplexity(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected int
	}{
		{"no keywords", "서울의 수도는 어디인가요", 0},
		{"one keyword", "이 보고서를 요약해줘", 2},
		{"two keywords", "두 제품을 비교하고 분석해줘", 4},
		{"english keywords", "please analyze and compare the results", 4},
		{"case insensitive", "Compare these documents", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, biz.QueryComplexity(tt.query))
		})
	}
}

func TestChooseModel(t *testing.T) {
	const basic, advanced = "gpt-4o-mini", "gpt-4o"

	// Two distinct analytical keywords score 4, at or above the threshold.
	assert.Equal(t, advanced, biz.ChooseModel("두 제품을 비교하고 분석해줘", basic, advanced))

	// One keyword scores 2, below the threshold.
	assert.Equal(t, basic, biz.ChooseModel("이 보고서를 요약해줘", basic, advanced))

	assert.Equal(t, basic, biz.ChooseModel("서울의 수도는 어디인가요", basic, advanced))

	// Without an advanced model configured the basic model always wins.
	assert.Equal(t, basic, biz.ChooseModel("두 제품을 비교하고 분석해줘", basic, ""))
}
