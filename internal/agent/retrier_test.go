package agent

import (
	"context"
	"errors"
	"testing"

	"flux/internal/client"
	"flux/internal/tools"
)

type mockGateway struct {
	results []*client.StructuredResult
	errs    []error
	calls   int
}

func (g *mockGateway) GenerateStructured(ctx context.Context, prompt string) (*client.StructuredResult, error) {
	i := g.calls
	g.calls++
	if i >= len(g.results) {
		return nil, errors.New("unexpected extra call")
	}
	if g.errs != nil && g.errs[i] != nil {
		return nil, g.errs[i]
	}
	return g.results[i], nil
}

func (g *mockGateway) StreamTurn(ctx context.Context, history []client.Turn, active []tools.ActiveTool) (*client.StreamingResponse, error) {
	return nil, errors.New("not implemented")
}

func (g *mockGateway) Close() error { return nil }

const validJSON = `{"folderName":"todo-app","description":"A todo app","files":[{"path":"index.html","content":"<html></html>"}],"setupCommands":["cd todo-app","open index.html"]}`

func TestGenerateFirstAttemptStrict(t *testing.T) {
	gw := &mockGateway{results: []*client.StructuredResult{
		{Object: []byte(validJSON), RawText: validJSON},
	}}

	desc, err := NewRetrier(gw, 2).Generate(context.Background(), "make a todo app")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if desc.FolderName != "todo-app" || len(desc.Files) != 1 {
		t.Errorf("unexpected descriptor: %+v", desc)
	}
	if gw.calls != 1 {
		t.Errorf("made %d calls, want 1", gw.calls)
	}
}

func TestGenerateFallbackSalvagesWrappedJSON(t *testing.T) {
	raw := "Here is your application:\n```json\n" + validJSON + "\n```\nEnjoy!"
	gw := &mockGateway{results: []*client.StructuredResult{
		{Object: nil, RawText: raw},
	}}

	desc, err := NewRetrier(gw, 2).Generate(context.Background(), "make a todo app")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if desc.FolderName != "todo-app" {
		t.Errorf("folder = %q", desc.FolderName)
	}
	if gw.calls != 1 {
		t.Errorf("fallback should not trigger a second model call, made %d", gw.calls)
	}
}

func TestGenerateSecondAttemptSucceeds(t *testing.T) {
	gw := &mockGateway{results: []*client.StructuredResult{
		{Object: nil, RawText: "I cannot produce JSON right now"},
		{Object: []byte(validJSON), RawText: validJSON},
	}}

	desc, err := NewRetrier(gw, 2).Generate(context.Background(), "make a todo app")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if desc.FolderName != "todo-app" {
		t.Errorf("folder = %q", desc.FolderName)
	}
	if gw.calls != 2 {
		t.Errorf("made %d calls, want 2", gw.calls)
	}
}

func TestGenerateExhaustedCarriesLastRaw(t *testing.T) {
	gw := &mockGateway{results: []*client.StructuredResult{
		{Object: nil, RawText: "garbage one"},
		{Object: nil, RawText: "garbage two"},
		{Object: []byte(validJSON), RawText: validJSON}, // must never be reached
	}}

	_, err := NewRetrier(gw, 2).Generate(context.Background(), "make a todo app")
	if err == nil {
		t.Fatal("expected exhaustion")
	}
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("got %T, want ExhaustedError", err)
	}
	if exhausted.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", exhausted.Attempts)
	}
	if exhausted.LastRaw != "garbage two" {
		t.Errorf("last raw = %q", exhausted.LastRaw)
	}
	if gw.calls != 2 {
		t.Errorf("made %d calls, want exactly 2", gw.calls)
	}
}

func TestGenerateRejectsEmptyFileList(t *testing.T) {
	empty := `{"folderName":"todo-app","description":"d","files":[]}`
	gw := &mockGateway{results: []*client.StructuredResult{
		{Object: []byte(empty), RawText: empty},
		{Object: []byte(empty), RawText: empty},
	}}

	_, err := NewRetrier(gw, 2).Generate(context.Background(), "make a todo app")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, ErrEmptyProject) {
		t.Errorf("got %v, want ErrEmptyProject in the chain", err)
	}
}

func TestGenerateTransportErrorIsTerminal(t *testing.T) {
	transportErr := &client.TransportError{Op: "generate", Err: errors.New("boom")}
	gw := &mockGateway{
		results: []*client.StructuredResult{nil, {Object: []byte(validJSON), RawText: validJSON}},
		errs:    []error{transportErr, nil},
	}

	_, err := NewRetrier(gw, 2).Generate(context.Background(), "make a todo app")
	if err == nil {
		t.Fatal("expected an error")
	}
	if gw.calls != 1 {
		t.Errorf("transport failure retried at the validation layer: %d calls", gw.calls)
	}
}

func TestNewRetrierDefaultsAttempts(t *testing.T) {
	gw := &mockGateway{}
	r := NewRetrier(gw, 0)
	if r.maxAttempts != DefaultMaxAttempts {
		t.Errorf("maxAttempts = %d, want %d", r.maxAttempts, DefaultMaxAttempts)
	}
}
