package biz_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ss0jung/rag-ai-chatbot/internal/model"
	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver/biz"
	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver/store"
	"github.com/ss0jung/rag-ai-chatbot/pkg/errors"
	llmopts "github.com/ss0jung/rag-ai-chatbot/pkg/options/llm"
	"github.com/ss0jung/rag-ai-chatbot/pkg/options/rag"
)

func TestParseAgentOutput(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		wantAnswer string
		wantSrc    []model.SourceDocument
	}{
		{
			name:       "single citation",
			output:     "답변 내용[1]\n출처:\n[1] 파일명: a.pdf, 페이지: 3",
			wantAnswer: "답변 내용[1]",
			wantSrc:    []model.SourceDocument{{ID: 1, Source: "a.pdf", Page: 3}},
		},
		{
			name:       "unreferenced source excluded",
			output:     "답변 내용[1]\n출처:\n[1] 파일명: a.pdf, 페이지: 3\n[2] 파일명: b.pdf, 페이지: 7",
			wantAnswer: "답변 내용[1]",
			wantSrc:    []model.SourceDocument{{ID: 1, Source: "a.pdf", Page: 3}},
		},
		{
			name:       "no marker",
			output:     "출처 없이 답변만 있는 경우입니다.",
			wantAnswer: "출처 없이 답변만 있는 경우입니다.",
			wantSrc:    []model.SourceDocument{},
		},
		{
			name:       "malformed line skipped",
			output:     "답변[1][2]\n출처:\n[1] 파일명: a.pdf, 페이지: 3\n[2] 파일: 잘못된 형식",
			wantAnswer: "답변[1][2]",
			wantSrc:    []model.SourceDocument{{ID: 1, Source: "a.pdf", Page: 3}},
		},
		{
			name:       "multiple citations",
			output:     "첫 주장[1] 그리고 둘째 주장[2]\n출처:\n[1] 파일명: a.pdf, 페이지: 3\n[2] 파일명: b.pdf, 페이지: 7",
			wantAnswer: "첫 주장[1] 그리고 둘째 주장[2]",
			wantSrc: []model.SourceDocument{
				{ID: 1, Source: "a.pdf", Page: 3},
				{ID: 2, Source: "b.pdf", Page: 7},
			},
		},
		{
			name:       "duplicate ids collapsed",
			output:     "주장[1]\n출처:\n[1] 파일명: a.pdf, 페이지: 3\n[1] 파일명: a.pdf, 페이지: 3",
			wantAnswer: "주장[1]",
			wantSrc:    []model.SourceDocument{{ID: 1, Source: "a.pdf", Page: 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, sources := biz.ParseAgentOutput(tt.output)
			assert.Equal(t, tt.wantAnswer, answer)
			assert.Equal(t, tt.wantSrc, sources)
		})
	}
}

func newAgentFixture(t *testing.T, chat *fakeChat) (*biz.Agent, *store.NamespaceStore) {
	t.Helper()

	namespaces := store.NewNamespaceStore(newMemBackend())
	ns, err := namespaces.Create(context.Background(), "docs")
	require.NoError(t, err)
	_, err = ns.AddChunks(context.Background(), []store.Chunk{
		{ID: "c1", DocumentID: "d1", Filename: "a.pdf", Page: 3, Content: "보안 정책은 분기마다 갱신된다."},
		{ID: "c2", DocumentID: "d1", Filename: "a.pdf", Page: 5, Content: "접근 권한은 역할 기반으로 부여된다."},
	})
	require.NoError(t, err)

	retriever := biz.NewRetriever(namespaces, &fakeEmbedder{dim: 4}, rag.NewOptions())
	opts := llmopts.NewChatOptions()
	return biz.NewAgent(chat, retriever, opts, 3), namespaces
}

func TestAgentToolCallLoop(t *testing.T) {
	chat := &fakeChat{replies: []string{
		`{"tool": "search_documents", "query": "보안 정책", "top_k": 2}`,
		"보안 정책은 분기마다 갱신됩니다[1]\n출처:\n[1] 파일명: a.pdf, 페이지: 3",
	}}
	agent, _ := newAgentFixture(t, chat)

	answer, sources, err := agent.Answer(context.Background(), "docs", "보안 정책 알려줘", 4, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "보안 정책은 분기마다 갱신됩니다[1]", answer)
	require.Len(t, sources, 1)
	assert.Equal(t, model.SourceDocument{ID: 1, Source: "a.pdf", Page: 3}, sources[0])

	require.Equal(t, 2, chat.calls)
	// The second invocation must carry the search observation.
	secondCall := chat.messages[1]
	last := secondCall[len(secondCall)-1]
	assert.Contains(t, last.Content, "검색 결과")
	assert.Contains(t, last.Content, "파일명: a.pdf, 페이지: 3")
}

func TestAgentDirectAnswerWithoutToolCall(t *testing.T) {
	chat := &fakeChat{replies: []string{"해당 문서에서는 관련 정보를 찾을 수 없습니다."}}
	agent, _ := newAgentFixture(t, chat)

	answer, sources, err := agent.Answer(context.Background(), "docs", "질문", 4, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "해당 문서에서는 관련 정보를 찾을 수 없습니다.", answer)
	assert.Empty(t, sources)
	assert.Equal(t, 1, chat.calls)
}

func TestAgentFinalTurnForcesAnswer(t *testing.T) {
	// The model keeps asking for searches; the last turn is parsed as the
	// answer instead of looping forever.
	chat := &fakeChat{replies: []string{
		`{"tool": "search_documents", "query": "q1", "top_k": 1}`,
		`{"tool": "search_documents", "query": "q2", "top_k": 1}`,
		`{"tool": "search_documents", "query": "q3", "top_k": 1}`,
	}}
	agent, _ := newAgentFixture(t, chat)

	answer, sources, err := agent.Answer(context.Background(), "docs", "질문", 4, nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, answer)
	assert.Empty(t, sources)
	assert.Equal(t, 3, chat.calls)
}

func TestAgentModelSelectionPerTurn(t *testing.T) {
	chat := &fakeChat{replies: []string{
		`{"tool": "search_documents", "query": "정책", "top_k": 2}`,
		"분석 결과입니다[1]\n출처:\n[1] 파일명: a.pdf, 페이지: 3",
	}}
	agent, _ := newAgentFixture(t, chat)

	_, _, err := agent.Answer(context.Background(), "docs", "두 정책을 비교하고 분석해줘", 4, nil, nil)
	require.NoError(t, err)

	require.Len(t, chat.options, 2)
	for _, opts := range chat.options {
		assert.Equal(t, "gpt-4o", opts.Model)
	}
}

func TestAgentUnknownNamespace(t *testing.T) {
	chat := &fakeChat{replies: []string{
		`{"tool": "search_documents", "query": "q", "top_k": 1}`,
	}}
	agent, _ := newAgentFixture(t, chat)

	_, _, err := agent.Answer(context.Background(), "missing", "질문", 4, nil, nil)
	assert.ErrorIs(t, err, errors.ErrNamespaceNotFound)
}
