package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"flux/internal/config"
	"flux/internal/logging"
	"flux/internal/models"
	"flux/internal/tools"

	"google.golang.org/genai"
)

// GeminiClient wraps the Google Gemini API behind the Gateway contract.
type GeminiClient struct {
	client            *genai.Client
	model             string
	config            *genai.GenerateContentConfig
	retry             RetryConfig
	systemInstruction string
}

// NewGeminiClient creates a Gemini API client from the application config.
func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	if cfg.API.GeminiKey == "" {
		return nil, config.ErrMissingAPIKey
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  cfg.API.GeminiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	retry := RetryConfig{
		MaxRetries: cfg.API.Retry.MaxRetries,
		RetryDelay: cfg.API.Retry.RetryDelay,
		MaxDelay:   cfg.API.Retry.MaxDelay,
	}
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	return &GeminiClient{
		client: gc,
		model:  cfg.Model.Name,
		config: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(cfg.Model.Temperature),
			MaxOutputTokens: cfg.Model.MaxOutputTokens,
		},
		retry: retry,
	}, nil
}

// SetSystemInstruction sets the system-level instruction, passed via the
// API's native parameter rather than injected into the history.
func (c *GeminiClient) SetSystemInstruction(instruction string) {
	c.systemInstruction = instruction
}

// GetModel returns the model name.
func (c *GeminiClient) GetModel() string {
	return c.model
}

// Close releases the client. The genai client has no explicit close.
func (c *GeminiClient) Close() error {
	return nil
}

// toContents converts provider-neutral history to Gemini contents. Only user
// and assistant turns are sent; the system instruction travels separately.
func toContents(history []Turn) []*genai.Content {
	var contents []*genai.Content
	for _, t := range history {
		var role genai.Role
		switch t.Role {
		case models.RoleUser:
			role = genai.RoleUser
		case models.RoleAssistant:
			role = genai.RoleModel
		default:
			continue
		}
		if t.Content == "" {
			continue
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}

	if len(contents) == 0 {
		contents = []*genai.Content{genai.NewContentFromText(" ", genai.RoleUser)}
	}
	return contents
}

// StreamTurn opens a streaming exchange with the model.
func (c *GeminiClient) StreamTurn(ctx context.Context, history []Turn, active []tools.ActiveTool) (*StreamingResponse, error) {
	contents := toContents(history)

	genConfig := *c.config
	if c.systemInstruction != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(c.systemInstruction, genai.RoleUser)
	}
	for _, at := range active {
		genConfig.Tools = append(genConfig.Tools, at.Tool)
	}

	iter := c.client.Models.GenerateContentStream(ctx, c.model, contents, &genConfig)

	chunks := make(chan ResponseChunk, 10)

	go func() {
		defer close(chunks)

		// Grounding metadata repeats across chunks; emit each search query,
		// source, and retrieved URL once per stream.
		seenCalls := make(map[string]bool)
		seenResults := make(map[string]bool)

		for resp, err := range iter {
			if err != nil {
				select {
				case chunks <- ResponseChunk{Err: &TransportError{Op: "stream", Err: err}, Done: true}:
				case <-ctx.Done():
				}
				return
			}
			if resp == nil {
				return
			}

			chunk := translateResponse(resp, seenCalls, seenResults)
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				// Receiver gone; non-blocking terminal send.
				select {
				case chunks <- ResponseChunk{Err: ctx.Err(), Done: true}:
				default:
				}
				return
			}
			if chunk.Done {
				return
			}
		}
	}()

	return &StreamingResponse{Chunks: chunks}, nil
}

// translateResponse converts one Gemini stream response into a typed chunk,
// mapping executable-code parts, grounding metadata, and URL context metadata
// to domain tool events.
func translateResponse(resp *genai.GenerateContentResponse, seenCalls, seenResults map[string]bool) ResponseChunk {
	chunk := ResponseChunk{}

	if resp.UsageMetadata != nil {
		chunk.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		chunk.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	if len(resp.Candidates) == 0 {
		chunk.Done = true
		return chunk
	}

	candidate := resp.Candidates[0]

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			if part.Text != "" {
				chunk.Text += part.Text
			}
			if part.ExecutableCode != nil {
				chunk.ToolCalls = append(chunk.ToolCalls, models.ToolCall{
					Name: tools.CodeExecution,
					Args: part.ExecutableCode.Code,
				})
			}
			if part.CodeExecutionResult != nil {
				chunk.ToolResults = append(chunk.ToolResults, models.ToolResult{
					Name:    tools.CodeExecution,
					Payload: part.CodeExecutionResult.Output,
				})
			}
		}
	}

	if gm := candidate.GroundingMetadata; gm != nil {
		for _, query := range gm.WebSearchQueries {
			key := tools.GoogleSearch + "\x00" + query
			if seenCalls[key] {
				continue
			}
			seenCalls[key] = true
			chunk.ToolCalls = append(chunk.ToolCalls, models.ToolCall{
				Name: tools.GoogleSearch,
				Args: query,
			})
		}
		for _, gc := range gm.GroundingChunks {
			if gc == nil || gc.Web == nil {
				continue
			}
			payload := gc.Web.Title
			if gc.Web.URI != "" {
				if payload != "" {
					payload += " "
				}
				payload += gc.Web.URI
			}
			key := tools.GoogleSearch + "\x00" + payload
			if seenResults[key] {
				continue
			}
			seenResults[key] = true
			chunk.ToolResults = append(chunk.ToolResults, models.ToolResult{
				Name:    tools.GoogleSearch,
				Payload: payload,
			})
		}
	}

	if um := candidate.URLContextMetadata; um != nil {
		for _, u := range um.URLMetadata {
			if u == nil {
				continue
			}
			payload := fmt.Sprintf("%s (%s)", u.RetrievedURL, u.URLRetrievalStatus)
			key := tools.URLContext + "\x00" + payload
			if seenResults[key] {
				continue
			}
			seenResults[key] = true
			chunk.ToolResults = append(chunk.ToolResults, models.ToolResult{
				Name:    tools.URLContext,
				Payload: payload,
			})
		}
	}

	if candidate.FinishReason != "" {
		chunk.Done = true
	}
	return chunk
}

// GenerateStructured asks the model for schema-constrained JSON output. The
// call is retried on transient transport failures; schema-level failures are
// the caller's to recover.
func (c *GeminiClient) GenerateStructured(ctx context.Context, prompt string) (*StructuredResult, error) {
	genConfig := *c.config
	genConfig.ResponseMIMEType = "application/json"
	genConfig.ResponseSchema = ApplicationSchema()

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := CalculateBackoff(c.retry.RetryDelay, attempt-1, c.retry.MaxDelay)
			logging.Info("retrying structured generation", "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genConfig)
		if err == nil {
			raw := resp.Text()
			result := &StructuredResult{RawText: raw}
			trimmed := strings.TrimSpace(raw)
			if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
				result.Object = json.RawMessage(trimmed)
			}
			return result, nil
		}

		lastErr = err
		if !IsRetryableError(err) {
			return nil, &TransportError{Op: "generate", Err: err}
		}
		logging.Warn("structured generation failed, will retry", "attempt", attempt, "error", err)
	}

	return nil, &TransportError{
		Op:  "generate",
		Err: fmt.Errorf("max retries (%d) exceeded: %w", c.retry.MaxRetries, lastErr),
	}
}
