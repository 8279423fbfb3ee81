package client

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"flux/internal/models"
)

func streamOf(chunks ...ResponseChunk) *StreamingResponse {
	ch := make(chan ResponseChunk, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return &StreamingResponse{Chunks: ch}
}

func TestProcessStreamAccumulates(t *testing.T) {
	sr := streamOf(
		ResponseChunk{Text: "Hello "},
		ResponseChunk{Text: "world", ToolCalls: []models.ToolCall{{Name: "google_search", Args: "q"}}},
		ResponseChunk{ToolResults: []models.ToolResult{{Name: "google_search", Payload: "r"}}, InputTokens: 10, OutputTokens: 4, Done: true},
	)

	var deltas []string
	resp, err := ProcessStream(context.Background(), sr, &StreamHandler{
		OnText: func(text string) { deltas = append(deltas, text) },
	})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if resp.Text != "Hello world" {
		t.Errorf("text = %q", resp.Text)
	}
	if !reflect.DeepEqual(deltas, []string{"Hello ", "world"}) {
		t.Errorf("deltas = %v", deltas)
	}
	if len(resp.ToolCalls) != 1 || len(resp.ToolResults) != 1 {
		t.Errorf("tools = %d calls, %d results", len(resp.ToolCalls), len(resp.ToolResults))
	}
	if resp.InputTokens != 10 || resp.OutputTokens != 4 {
		t.Errorf("tokens = %d/%d", resp.InputTokens, resp.OutputTokens)
	}
}

func TestProcessStreamErrorDiscardsPartial(t *testing.T) {
	streamErr := errors.New("connection reset")
	sr := streamOf(
		ResponseChunk{Text: "partial answer"},
		ResponseChunk{Err: streamErr, Done: true},
	)

	resp, err := ProcessStream(context.Background(), sr, &StreamHandler{})
	if !errors.Is(err, streamErr) {
		t.Fatalf("got %v, want the stream error", err)
	}
	if resp != nil {
		t.Errorf("partial response leaked: %+v", resp)
	}
}

func TestProcessStreamClosedWithoutDone(t *testing.T) {
	sr := streamOf(ResponseChunk{Text: "all of it"})

	resp, err := ProcessStream(context.Background(), sr, &StreamHandler{})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if resp.Text != "all of it" {
		t.Errorf("text = %q", resp.Text)
	}
}

func TestProcessStreamCancellation(t *testing.T) {
	// An open channel that never delivers; only cancellation can end this.
	ch := make(chan ResponseChunk)
	sr := &StreamingResponse{Chunks: ch}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := ProcessStream(ctx, sr, &StreamHandler{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if resp != nil {
		t.Errorf("response on cancellation: %+v", resp)
	}
}

func TestProcessStreamNilHandlerCallbacks(t *testing.T) {
	sr := streamOf(ResponseChunk{
		Text:        "ok",
		ToolCalls:   []models.ToolCall{{Name: "code_execution"}},
		ToolResults: []models.ToolResult{{Name: "code_execution"}},
		Done:        true,
	})

	resp, err := ProcessStream(context.Background(), sr, &StreamHandler{})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if resp.Text != "ok" {
		t.Errorf("text = %q", resp.Text)
	}
}
