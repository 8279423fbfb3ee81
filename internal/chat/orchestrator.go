package chat

import (
	"context"
	"fmt"

	"flux/internal/client"
	"flux/internal/logging"
	"flux/internal/models"
	"flux/internal/tools"
)

// TurnState tracks where a single user turn is in its lifecycle.
type TurnState int

const (
	StateIdle TurnState = iota
	StateAwaitingFirstToken
	StateStreaming
	StateToolsResolved
	StatePersisted
	StateFailed
)

func (s TurnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingFirstToken:
		return "awaiting_first_token"
	case StateStreaming:
		return "streaming"
	case StateToolsResolved:
		return "tools_resolved"
	case StatePersisted:
		return "persisted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TurnEvents carries optional callbacks fired while a turn streams. All
// callbacks run on the orchestrator's goroutine.
type TurnEvents struct {
	OnStateChange func(s TurnState)
	OnText        func(delta string)
	OnToolCall    func(tc models.ToolCall)
	OnToolResult  func(tr models.ToolResult)
}

// TurnResult is the final outcome of one completed turn.
type TurnResult struct {
	ConversationID string
	Text           string
	ToolCalls      []models.ToolCall
	ToolResults    []models.ToolResult
	InputTokens    int
	OutputTokens   int
}

// Orchestrator drives one user turn end to end: persist the user message,
// resolve the active tool set, stream the model exchange, and persist the
// assistant reply. At most one assistant message is written per turn.
type Orchestrator struct {
	manager  *Manager
	gateway  client.Gateway
	registry *tools.Registry
}

// NewOrchestrator wires a turn orchestrator. The registry is owned by the
// caller and shared with whatever surface lets the user toggle tools.
func NewOrchestrator(manager *Manager, gateway client.Gateway, registry *tools.Registry) *Orchestrator {
	return &Orchestrator{
		manager:  manager,
		gateway:  gateway,
		registry: registry,
	}
}

// RunTurn executes one user turn against a conversation.
//
// The user message is persisted before the model is called; if that write
// fails the turn aborts without any model traffic. Message-driven tool
// activation is applied to the shared registry, and the registry is restored
// to the user's manual selection when the turn ends, however it ends. If the
// assistant reply streams successfully but cannot be persisted, the result is
// returned alongside the error so the text is not lost.
func (o *Orchestrator) RunTurn(ctx context.Context, conversationID, userMessage string, events *TurnEvents) (*TurnResult, error) {
	if events == nil {
		events = &TurnEvents{}
	}
	setState := func(s TurnState) {
		if events.OnStateChange != nil {
			events.OnStateChange(s)
		}
	}

	if _, err := o.manager.AppendMessage(conversationID, models.RoleUser, userMessage); err != nil {
		setState(StateFailed)
		return nil, fmt.Errorf("user message not persisted, aborting turn: %w", err)
	}
	if err := o.manager.RenameIfFirstTurn(conversationID, userMessage); err != nil {
		// Title derivation is cosmetic; the turn proceeds.
		logging.Warn("failed to derive conversation title", "error", err)
	}

	snapshot := o.registry.EnabledIDs()
	defer o.registry.SetEnabled(snapshot)

	tools.Activate(o.registry, userMessage)
	active := o.registry.ResolveActive(tools.RuntimeContext{
		URLs: tools.ExtractURLs(userMessage),
	})
	logging.Debug("turn tool set resolved", "conversation", conversationID, "tools", len(active))

	history, err := o.manager.History(conversationID)
	if err != nil {
		setState(StateFailed)
		return nil, err
	}

	setState(StateAwaitingFirstToken)

	stream, err := o.gateway.StreamTurn(ctx, history, active)
	if err != nil {
		setState(StateFailed)
		return nil, err
	}

	firstToken := false
	markStreaming := func() {
		if !firstToken {
			firstToken = true
			setState(StateStreaming)
		}
	}

	resp, err := client.ProcessStream(ctx, stream, &client.StreamHandler{
		OnText: func(text string) {
			markStreaming()
			if events.OnText != nil {
				events.OnText(text)
			}
		},
		OnToolCall: func(tc models.ToolCall) {
			markStreaming()
			if events.OnToolCall != nil {
				events.OnToolCall(tc)
			}
		},
		OnToolResult: func(tr models.ToolResult) {
			markStreaming()
			if events.OnToolResult != nil {
				events.OnToolResult(tr)
			}
		},
	})
	if err != nil {
		setState(StateFailed)
		return nil, err
	}

	setState(StateToolsResolved)

	result := &TurnResult{
		ConversationID: conversationID,
		Text:           resp.Text,
		ToolCalls:      resp.ToolCalls,
		ToolResults:    resp.ToolResults,
		InputTokens:    resp.InputTokens,
		OutputTokens:   resp.OutputTokens,
	}

	if _, err := o.manager.AppendMessage(conversationID, models.RoleAssistant, resp.Text); err != nil {
		setState(StateFailed)
		return result, fmt.Errorf("assistant reply not persisted: %w", err)
	}

	setState(StatePersisted)
	return result, nil
}
