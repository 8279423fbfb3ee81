package tools

import (
	"sync"

	"google.golang.org/genai"
)

// Tool IDs. These are the Gemini server-side tools the model may invoke
// mid-response; flux never executes them locally.
const (
	GoogleSearch  = "google_search"
	CodeExecution = "code_execution"
	URLContext    = "url_context"
)

// Info describes one catalog entry.
type Info struct {
	ID          string
	Name        string
	Description string
	Enabled     bool
}

// RuntimeContext carries per-turn data needed to build provider handles.
type RuntimeContext struct {
	// URLs extracted from the current user message; bound to url_context.
	URLs []string
}

// ActiveTool is a provider-ready tool handle for one turn.
type ActiveTool struct {
	ID   string
	Tool *genai.Tool
	// URLs is set only for url_context; an empty set is valid and yields a
	// tool with no bound URLs, not a disabled tool.
	URLs []string
}

type catalogEntry struct {
	id          string
	name        string
	description string
	factory     func(rt RuntimeContext) *genai.Tool
}

// catalog is declaration order; List and ResolveActive preserve it.
var catalog = []catalogEntry{
	{
		id:          GoogleSearch,
		name:        "Google Search",
		description: "Access the latest information using Google search. Useful for current events, news, and real-time information.",
		factory: func(RuntimeContext) *genai.Tool {
			return &genai.Tool{GoogleSearch: &genai.GoogleSearch{}}
		},
	},
	{
		id:          CodeExecution,
		name:        "Code Execution",
		description: "Generate and execute code to perform calculations, solve problems, or provide accurate information.",
		factory: func(RuntimeContext) *genai.Tool {
			return &genai.Tool{CodeExecution: &genai.ToolCodeExecution{}}
		},
	},
	{
		id:          URLContext,
		name:        "URL Context",
		description: "Analyze specific URLs taken directly from the prompt. Supports up to 20 URLs per request.",
		factory: func(RuntimeContext) *genai.Tool {
			return &genai.Tool{URLContext: &genai.URLContext{}}
		},
	},
}

// Registry holds the enabled/disabled state of the tool catalog for one CLI
// session. It is an explicitly owned instance passed by reference, never a
// module-level singleton, so tool state cannot leak across sessions.
type Registry struct {
	mu      sync.Mutex
	enabled map[string]bool
}

// NewRegistry returns a registry with every tool disabled.
func NewRegistry() *Registry {
	return &Registry{enabled: make(map[string]bool)}
}

// List returns catalog metadata in declaration order.
func (r *Registry) List() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]Info, 0, len(catalog))
	for _, entry := range catalog {
		infos = append(infos, Info{
			ID:          entry.id,
			Name:        entry.name,
			Description: entry.description,
			Enabled:     r.enabled[entry.id],
		})
	}
	return infos
}

// SetEnabled enables exactly the tools whose ids appear in ids and disables
// all others. Unknown ids are silently ignored; the call is idempotent.
func (r *Registry) SetEnabled(ids []string) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range catalog {
		r.enabled[entry.id] = want[entry.id]
	}
}

// Reset disables every tool unconditionally. Sessions defer this so it runs
// on normal completion, cancellation, and error alike; a missed reset would
// leak tool state into the next session.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.enabled {
		r.enabled[id] = false
	}
}

// ResolveActive builds provider handles for every enabled tool, in catalog
// order. url_context additionally receives the URLs from the runtime context.
// An empty result means no tool is enabled; callers branch on emptiness.
func (r *Registry) ResolveActive(rt RuntimeContext) []ActiveTool {
	r.mu.Lock()
	defer r.mu.Unlock()

	var active []ActiveTool
	for _, entry := range catalog {
		if !r.enabled[entry.id] {
			continue
		}
		at := ActiveTool{ID: entry.id, Tool: entry.factory(rt)}
		if entry.id == URLContext {
			at.URLs = rt.URLs
		}
		active = append(active, at)
	}
	return active
}

// EnabledNames returns the display names of enabled tools in catalog order.
func (r *Registry) EnabledNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var names []string
	for _, entry := range catalog {
		if r.enabled[entry.id] {
			names = append(names, entry.name)
		}
	}
	return names
}

// EnabledIDs returns the ids of enabled tools in catalog order.
func (r *Registry) EnabledIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for _, entry := range catalog {
		if r.enabled[entry.id] {
			ids = append(ids, entry.id)
		}
	}
	return ids
}
