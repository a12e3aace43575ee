package provider

import (
	"context"
	"encoding/json"
)

// Message is one entry of the conversation history.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ToolCall is a structured request emitted by the model asking for a specific
// repository operation.
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolDefinition describes one tool offered to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Schema      map[string]any
}

// Usage holds the four token counters of one completed model round.
type Usage struct {
	InputTokens      int64 `json:"input_tokens"`
	OutputTokens     int64 `json:"output_tokens"`
	CacheReadTokens  int64 `json:"cache_read_tokens"`
	CacheWriteTokens int64 `json:"cache_write_tokens"`
}

// Add returns the element-wise sum of two usage records.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:      u.InputTokens + o.InputTokens,
		OutputTokens:     u.OutputTokens + o.OutputTokens,
		CacheReadTokens:  u.CacheReadTokens + o.CacheReadTokens,
		CacheWriteTokens: u.CacheWriteTokens + o.CacheWriteTokens,
	}
}

// Request is one model round: system prompt, conversation history and the
// tool schema the model may call.
type Request struct {
	System   string
	Messages []Message
	Tools    []ToolDefinition
}

// Response is the model's answer to one round.
type Response struct {
	Text      string
	ToolCalls []ToolCall
	Usage     Usage
	Model     string
}

// Conversation is the interface every model conversation capability
// implements.
type Conversation interface {
	// Send issues one model round and returns narrative text plus
	// zero-or-more tool calls.
	Send(ctx context.Context, req *Request) (*Response, error)

	// Name returns the provider name
	Name() string
}
