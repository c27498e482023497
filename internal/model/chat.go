package model

// ChatMode selects the answer generation strategy.
type ChatMode string

const (
	// ModeSimple builds a grounded prompt from retrieved context and
	// returns a free-text answer with similarity-scored sources.
	ModeSimple ChatMode = "simple"

	// ModeAgent runs the tool-calling agent that emits bracketed citation
	// markers and a parsed source list.
	ModeAgent ChatMode = "agent"
)

// ChatMessage is one turn of prior conversation history.
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant system"`
	Content string `json:"content" binding:"required"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Query          string        `json:"query" binding:"required,min=1"`
	CollectionName string        `json:"collection_name" binding:"required"`
	Mode           ChatMode      `json:"mode" binding:"omitempty,oneof=simple agent"`
	TopK           int           `json:"top_k" binding:"omitempty,gte=1,lte=20"`
	Temperature    *float64      `json:"temperature" binding:"omitempty,gte=0,lte=1"`
	History        []ChatMessage `json:"history" binding:"omitempty,dive"`
}

// SourceDocument is one entry of the answer's source list.
//
// In simple mode Content, Score and Metadata are set. In agent mode ID,
// Source and Page carry the parsed citation record.
type SourceDocument struct {
	ID       int            `json:"id,omitempty"`
	Source   string         `json:"source,omitempty"`
	Page     int            `json:"page,omitempty"`
	Content  string         `json:"content,omitempty"`
	Score    float32        `json:"score,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	Query   string           `json:"query"`
	Answer  string           `json:"answer"`
	Sources []SourceDocument `json:"sources"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	BackendConnected bool   `json:"backend_connected"`
}
