package tools

import (
	"reflect"
	"testing"
)

func TestListCatalogOrder(t *testing.T) {
	r := NewRegistry()
	infos := r.List()

	wantIDs := []string{GoogleSearch, CodeExecution, URLContext}
	if len(infos) != len(wantIDs) {
		t.Fatalf("got %d tools, want %d", len(infos), len(wantIDs))
	}
	for i, info := range infos {
		if info.ID != wantIDs[i] {
			t.Errorf("position %d: got %s, want %s", i, info.ID, wantIDs[i])
		}
		if info.Enabled {
			t.Errorf("%s enabled on a fresh registry", info.ID)
		}
	}
}

func TestSetEnabledReplacesFully(t *testing.T) {
	r := NewRegistry()
	r.SetEnabled([]string{GoogleSearch, CodeExecution})
	r.SetEnabled([]string{URLContext})

	if got := r.EnabledIDs(); !reflect.DeepEqual(got, []string{URLContext}) {
		t.Errorf("got %v, want [url_context]", got)
	}
}

func TestSetEnabledIgnoresUnknown(t *testing.T) {
	r := NewRegistry()
	r.SetEnabled([]string{"no_such_tool", GoogleSearch})

	if got := r.EnabledIDs(); !reflect.DeepEqual(got, []string{GoogleSearch}) {
		t.Errorf("got %v, want [google_search]", got)
	}
}

func TestReset(t *testing.T) {
	r := NewRegistry()
	r.SetEnabled([]string{GoogleSearch, URLContext})
	r.Reset()

	if got := r.EnabledIDs(); got != nil {
		t.Errorf("expected empty after reset, got %v", got)
	}

	// Reset on an already-clean registry is a no-op, not an error.
	r.Reset()
	if got := r.EnabledIDs(); got != nil {
		t.Errorf("second reset changed state: %v", got)
	}
}

func TestResolveActiveOrderAndHandles(t *testing.T) {
	r := NewRegistry()
	r.SetEnabled([]string{URLContext, GoogleSearch})

	active := r.ResolveActive(RuntimeContext{URLs: []string{"https://example.com"}})
	if len(active) != 2 {
		t.Fatalf("got %d active tools, want 2", len(active))
	}
	if active[0].ID != GoogleSearch || active[1].ID != URLContext {
		t.Errorf("catalog order not preserved: %s, %s", active[0].ID, active[1].ID)
	}
	for _, at := range active {
		if at.Tool == nil {
			t.Errorf("%s has no provider handle", at.ID)
		}
	}
	if !reflect.DeepEqual(active[1].URLs, []string{"https://example.com"}) {
		t.Errorf("url_context did not receive urls: %v", active[1].URLs)
	}
	if active[0].URLs != nil {
		t.Errorf("google_search should not carry urls: %v", active[0].URLs)
	}
}

func TestResolveActiveEmptyURLSetStillActive(t *testing.T) {
	r := NewRegistry()
	r.SetEnabled([]string{URLContext})

	active := r.ResolveActive(RuntimeContext{})
	if len(active) != 1 {
		t.Fatalf("got %d active tools, want 1", len(active))
	}
	if active[0].ID != URLContext {
		t.Errorf("got %s, want url_context", active[0].ID)
	}
}

func TestResolveActiveNoneEnabled(t *testing.T) {
	r := NewRegistry()
	if active := r.ResolveActive(RuntimeContext{}); len(active) != 0 {
		t.Errorf("expected no active tools, got %d", len(active))
	}
}
