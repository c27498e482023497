package biz

import "strings"

// analyticalKeywords are query terms that signal an analytical question.
// Each distinct hit adds two points to the complexity score.
var analyticalKeywords = []string{
	"분석", "비교", "평가", "요약", "설명", "차이", "원인", "이유", "전략", "추론",
	"왜", "어떻게",
	"analyze", "analysis", "compare", "comparison", "evaluate", "summarize",
	"explain", "difference", "why", "how", "strategy", "reasoning",
}

// complexityThreshold is the score at or above which the advanced model is
// selected.
const complexityThreshold = 3

// QueryComplexity scores how analytical a query is. Two points per distinct
// analytical keyword found in the query.
func QueryComplexity(query string) int {
	q := strings.ToLower(query)
	score := 0
	for _, kw := range analyticalKeywords {
		if strings.Contains(q, kw) {
			score += 2
		}
	}
	return score
}

// ChooseModel picks between the basic and advanced chat models based on the
// query complexity score. With no advanced model configured the basic model
// is always used.
func ChooseModel(query, basic, advanced string) string {
	if advanced == "" {
		return basic
	}
	if QueryComplexity(query) >= complexityThreshold {
		return advanced
	}
	return basic
}
