package client

import (
	"context"

	"flux/internal/models"
)

// StreamHandler provides callbacks invoked while consuming a stream.
type StreamHandler struct {
	// OnText is called for each text delta received.
	OnText func(text string)

	// OnToolCall is called for each tool invocation observed.
	OnToolCall func(tc models.ToolCall)

	// OnToolResult is called for each tool output observed.
	OnToolResult func(tr models.ToolResult)
}

// ProcessStream consumes a streaming response through a single loop with one
// cancellation point. Events already received are discarded on error or
// cancellation; the caller never sees a partial Response.
func ProcessStream(ctx context.Context, sr *StreamingResponse, handler *StreamHandler) (*Response, error) {
	resp := &Response{}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case chunk, ok := <-sr.Chunks:
			if !ok {
				return resp, nil
			}

			if chunk.Err != nil {
				return nil, chunk.Err
			}

			if chunk.Text != "" {
				resp.Text += chunk.Text
				if handler.OnText != nil {
					handler.OnText(chunk.Text)
				}
			}

			for _, tc := range chunk.ToolCalls {
				resp.ToolCalls = append(resp.ToolCalls, tc)
				if handler.OnToolCall != nil {
					handler.OnToolCall(tc)
				}
			}

			for _, tr := range chunk.ToolResults {
				resp.ToolResults = append(resp.ToolResults, tr)
				if handler.OnToolResult != nil {
					handler.OnToolResult(tr)
				}
			}

			// Usage metadata typically arrives on the final chunk.
			if chunk.InputTokens > 0 {
				resp.InputTokens = chunk.InputTokens
			}
			if chunk.OutputTokens > 0 {
				resp.OutputTokens = chunk.OutputTokens
			}

			if chunk.Done {
				return resp, nil
			}
		}
	}
}
