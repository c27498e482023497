package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/logger"

	"github.com/ss0jung/rag-ai-chatbot/internal/model"
	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver/store"
	"github.com/ss0jung/rag-ai-chatbot/pkg/errors"
	"github.com/ss0jung/rag-ai-chatbot/pkg/llm"
	llmopts "github.com/ss0jung/rag-ai-chatbot/pkg/options/llm"
)

// NotFoundAnswer is the fixed sentence the model must emit when the context
// does not contain the answer. It is also returned directly when retrieval
// yields nothing, saving a model call.
const NotFoundAnswer = "해당 문서에서는 관련 정보를 찾을 수 없습니다."

// defaultTemperature is used when the request does not specify one.
const defaultTemperature = 0.1

const groundedRules = `You are an intelligent assistant that answers based only on the provided reference documents.
Your goal is to provide accurate, clear, and concise answers to the user's question.

Rules:
1. Use ONLY the information from the provided documents.
2. If the answer is not found in the documents, say "해당 문서에서는 관련 정보를 찾을 수 없습니다."
3. When quoting or summarizing, paraphrase naturally in Korean.
4. Be factual and neutral — do not assume or fabricate information.
5. Include key insights or summaries when multiple sources overlap.`

// Generator produces simple-mode answers grounded on retrieved context.
type Generator struct {
	chat llm.ChatProvider
	opts *llmopts.ProviderOptions
}

// NewGenerator creates a Generator over the chat provider.
func NewGenerator(chat llm.ChatProvider, opts *llmopts.ProviderOptions) *Generator {
	return &Generator{chat: chat, opts: opts}
}

// Answer builds a grounded prompt from the retrieved chunks and optional
// conversation history and returns the model's free-text answer.
func (g *Generator) Answer(ctx context.Context, query string, chunks []store.ScoredChunk, history []model.ChatMessage, temperature *float64) (string, error) {
	if len(chunks) == 0 {
		return NotFoundAnswer, nil
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: buildSystemPrompt(chunks, history)},
		{Role: llm.RoleUser, Content: query},
	}

	temp := defaultTemperature
	if temperature != nil {
		temp = *temperature
	}
	chatModel := ChooseModel(query, g.opts.Model, g.opts.AdvancedModel)

	answer, err := g.chat.Chat(ctx, messages,
		llm.WithModel(chatModel),
		llm.WithTemperature(temp),
	)
	if err != nil {
		return "", errors.ErrBackend.WithMessage("answer generation failed").WithCause(err)
	}

	logger.Infow("answer generated", "model", chatModel, "context_chunks", len(chunks), "answer_chars", len(answer))
	return strings.TrimSpace(answer), nil
}

func buildSystemPrompt(chunks []store.ScoredChunk, history []model.ChatMessage) string {
	contents := make([]string, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Content
	}
	context := strings.Join(contents, "\n\n")

	var b strings.Builder
	b.WriteString(groundedRules)
	if len(history) > 0 {
		b.WriteString("\n\n[이전 대화 내역]\n")
		b.WriteString(formatHistory(history))
	}
	b.WriteString("\n\n[참고 문서]\n")
	b.WriteString(context)
	return b.String()
}

func formatHistory(history []model.ChatMessage) string {
	lines := make([]string, len(history))
	for i, msg := range history {
		lines[i] = fmt.Sprintf("%s: %s", msg.Role, msg.Content)
	}
	return strings.Join(lines, "\n")
}
