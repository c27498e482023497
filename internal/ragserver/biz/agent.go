package biz

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kart-io/logger"

	"github.com/ss0jung/rag-ai-chatbot/internal/model"
	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver/store"
	"github.com/ss0jung/rag-ai-chatbot/pkg/errors"
	"github.com/ss0jung/rag-ai-chatbot/pkg/llm"
	llmopts "github.com/ss0jung/rag-ai-chatbot/pkg/options/llm"
)

// sourceMarker separates the answer body from the trailing source list.
const sourceMarker = "출처:"

// sourceLinePattern matches one source list entry: [n] 파일명: <file>, 페이지: <page>.
var sourceLinePattern = regexp.MustCompile(`\[(\d+)\]\s*파일명:\s*(.+?),\s*페이지:\s*(\d+)`)

const agentPromptFormat = `You are a document research assistant for the collection %q.

You have exactly one tool:
- search_documents: retrieves the chunks most relevant to a search query from the collection.

To call the tool, reply with ONLY this JSON object and nothing else:
{"tool": "search_documents", "query": "<검색어>", "top_k": %d}

Rules:
1. Always search the documents before answering.
2. Answer in Korean, using ONLY the retrieved content.
3. Put a citation marker like [1] immediately after each cited claim.
4. Reuse the same citation number when citing the same source again.
5. If the documents contain no relevant information, say "해당 문서에서는 관련 정보를 찾을 수 없습니다."
6. End your answer with a source list in exactly this format:

출처:
[1] 파일명: example.pdf, 페이지: 3`

// Agent answers queries with a single search tool and citation-grounded
// output. The model drives the loop by either emitting a tool call or a
// final answer.
type Agent struct {
	chat      llm.ChatProvider
	retriever *Retriever
	opts      *llmopts.ProviderOptions
	maxTurns  int
}

// NewAgent creates an Agent.
func NewAgent(chat llm.ChatProvider, retriever *Retriever, opts *llmopts.ProviderOptions, maxTurns int) *Agent {
	return &Agent{chat: chat, retriever: retriever, opts: opts, maxTurns: maxTurns}
}

// Answer runs the tool-calling loop for at most maxTurns model invocations
// and returns the parsed answer with its validated citations.
func (a *Agent) Answer(ctx context.Context, namespace, query string, topK int, history []model.ChatMessage, temperature *float64) (string, []model.SourceDocument, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: fmt.Sprintf(agentPromptFormat, namespace, topK)},
	}
	for _, msg := range history {
		messages = append(messages, llm.Message{Role: llm.Role(msg.Role), Content: msg.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: query})

	temp := defaultTemperature
	if temperature != nil {
		temp = *temperature
	}

	for turn := 0; turn < a.maxTurns; turn++ {
		// The complexity heuristic applies to every invocation, including
		// intermediate tool-calling turns.
		chatModel := ChooseModel(query, a.opts.Model, a.opts.AdvancedModel)

		reply, err := a.chat.Chat(ctx, messages,
			llm.WithModel(chatModel),
			llm.WithTemperature(temp),
		)
		if err != nil {
			return "", nil, errors.ErrBackend.WithMessage("agent generation failed").WithCause(err)
		}

		call, ok := parseToolCall(reply)
		if !ok || turn == a.maxTurns-1 {
			answer, sources := ParseAgentOutput(reply)
			logger.Infow("agent answer produced", "namespace", namespace, "turns", turn+1, "sources", len(sources))
			return answer, sources, nil
		}

		if call.TopK <= 0 {
			call.TopK = topK
		}
		chunks, err := a.retriever.Retrieve(ctx, namespace, call.Query, call.TopK)
		if err != nil {
			return "", nil, err
		}
		logger.Debugw("agent tool call", "namespace", namespace, "turn", turn, "query", call.Query, "hits", len(chunks))

		messages = append(messages,
			llm.Message{Role: llm.RoleAssistant, Content: reply},
			llm.Message{Role: llm.RoleUser, Content: formatSearchResults(chunks)},
		)
	}

	// Unreachable: the final turn always returns above.
	return "", nil, errors.ErrInternal.WithMessage("agent loop exhausted")
}

type toolCall struct {
	Tool  string `json:"tool"`
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// parseToolCall detects a tool invocation reply. Anything that is not a
// well-formed search_documents call is treated as a final answer.
func parseToolCall(reply string) (*toolCall, bool) {
	s := strings.TrimSpace(reply)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}

	var call toolCall
	if err := json.Unmarshal([]byte(s), &call); err != nil {
		return nil, false
	}
	if call.Tool != "search_documents" || call.Query == "" {
		return nil, false
	}
	return &call, true
}

// formatSearchResults renders retrieved chunks as a numbered observation the
// model can cite from.
func formatSearchResults(chunks []store.ScoredChunk) string {
	if len(chunks) == 0 {
		return "검색 결과가 없습니다."
	}

	var b strings.Builder
	b.WriteString("검색 결과:\n")
	for i, c := range chunks {
		fmt.Fprintf(&b, "\n[%d] 파일명: %s, 페이지: %d\n%s\n", i+1, c.Filename, c.Page, c.Content)
	}
	return b.String()
}

// ParseAgentOutput splits the raw agent reply into the answer body and its
// source list. Only sources whose citation number actually appears in the
// answer are kept; a missing marker yields the whole reply as the answer and
// malformed source lines are skipped.
func ParseAgentOutput(output string) (string, []model.SourceDocument) {
	idx := strings.LastIndex(output, sourceMarker)
	if idx < 0 {
		return strings.TrimSpace(output), []model.SourceDocument{}
	}

	answer := strings.TrimSpace(output[:idx])
	sourcesText := output[idx+len(sourceMarker):]

	sources := []model.SourceDocument{}
	seen := make(map[int]bool)
	for _, match := range sourceLinePattern.FindAllStringSubmatch(sourcesText, -1) {
		id, err := strconv.Atoi(match[1])
		if err != nil || seen[id] {
			continue
		}
		if !strings.Contains(answer, fmt.Sprintf("[%d]", id)) {
			continue
		}
		page, err := strconv.Atoi(match[3])
		if err != nil {
			continue
		}
		seen[id] = true
		sources = append(sources, model.SourceDocument{
			ID:     id,
			Source: strings.TrimSpace(match[2]),
			Page:   page,
		})
	}
	return answer, sources
}
