package client

import (
	"context"
	"encoding/json"

	"flux/internal/models"
	"flux/internal/tools"
)

// Turn is one history entry in provider-neutral form: role and content only,
// no metadata.
type Turn struct {
	Role    string
	Content string
}

// Gateway is the narrow contract the core depends on for model access.
type Gateway interface {
	// StreamTurn opens a streaming exchange for the given history and active
	// tool set. The returned response yields text deltas, tool events, and
	// exactly one terminal chunk (or an error chunk).
	StreamTurn(ctx context.Context, history []Turn, active []tools.ActiveTool) (*StreamingResponse, error)

	// GenerateStructured requests schema-constrained output for the prompt.
	// Object is non-nil only when the structured channel produced valid JSON;
	// RawText always carries whatever the model emitted.
	GenerateStructured(ctx context.Context, prompt string) (*StructuredResult, error)

	// Close releases the underlying connection.
	Close() error
}

// StructuredResult is the outcome of one structured-generation call.
type StructuredResult struct {
	Object  json.RawMessage // nil when the structured channel failed
	RawText string
}

// StreamingResponse represents a streaming response from the model.
type StreamingResponse struct {
	// Chunks receives response chunks; closed after the terminal chunk.
	Chunks <-chan ResponseChunk
}

// ResponseChunk is a single typed event in a streaming response.
type ResponseChunk struct {
	// Text contains any text delta in this chunk.
	Text string

	// ToolCalls contains tool invocations observed in this chunk.
	ToolCalls []models.ToolCall

	// ToolResults contains tool outputs observed in this chunk.
	ToolResults []models.ToolResult

	// InputTokens and OutputTokens come from usage metadata when available.
	InputTokens  int
	OutputTokens int

	// Err is set on the terminal chunk when the stream failed.
	Err error

	// Done marks the terminal chunk.
	Done bool
}

// Response is a fully accumulated streaming response.
type Response struct {
	Text         string
	ToolCalls    []models.ToolCall
	ToolResults  []models.ToolResult
	InputTokens  int
	OutputTokens int
}
