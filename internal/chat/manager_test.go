package chat

import (
	"database/sql"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"flux/internal/db"
	"flux/internal/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestGetOrCreateNewConversation(t *testing.T) {
	m := NewManager(openTestDB(t), "user-1")

	conv, err := m.GetOrCreate("", models.ModeChat)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if conv.Title != "New chat conversation" {
		t.Errorf("provisional title = %q", conv.Title)
	}

	again, err := m.GetOrCreate(conv.ID, models.ModeChat)
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if again.ID != conv.ID {
		t.Errorf("resumed a different conversation: %s", again.ID)
	}
}

func TestGetOrCreateUnknownIDCreatesNew(t *testing.T) {
	m := NewManager(openTestDB(t), "user-1")

	conv, err := m.GetOrCreate("does-not-exist", models.ModeChat)
	if err != nil {
		t.Fatalf("unknown id must fall through to create, got: %v", err)
	}
	if conv.ID == "does-not-exist" {
		t.Error("resumed a conversation that was never created")
	}
	if conv.Title != "New chat conversation" {
		t.Errorf("provisional title = %q", conv.Title)
	}
}

func TestGetOrCreateForeignOwnerCreatesNew(t *testing.T) {
	conn := openTestDB(t)
	owner := NewManager(conn, "user-1")
	other := NewManager(conn, "user-2")

	conv, err := owner.GetOrCreate("", models.ModeChat)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := other.GetOrCreate(conv.ID, models.ModeChat)
	if err != nil {
		t.Fatalf("foreign id must fall through to create, got: %v", err)
	}
	if got.ID == conv.ID {
		t.Error("resumed another user's conversation")
	}
	if got.UserID != "user-2" {
		t.Errorf("new conversation owned by %q, want user-2", got.UserID)
	}
}

func TestAppendMessageSerialization(t *testing.T) {
	m := NewManager(openTestDB(t), "user-1")
	conv, err := m.GetOrCreate("", models.ModeAgent)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	desc := &models.ApplicationDescriptor{
		FolderName:  "todo-app",
		Description: "A todo app",
		Files:       []models.ProjectFile{{Path: "index.html", Content: "<html></html>"}},
	}
	if _, err := m.AppendMessage(conv.ID, models.RoleAssistant, desc); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	history, err := m.History(conv.ID)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("got %d turns, want 1", len(history))
	}
	if !strings.Contains(history[0].Content, `"folderName":"todo-app"`) {
		t.Errorf("structured content not serialized canonically: %s", history[0].Content)
	}
}

func TestMessagesStructuredContentRoundTrip(t *testing.T) {
	m := NewManager(openTestDB(t), "user-1")
	conv, err := m.GetOrCreate("", models.ModeAgent)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	want := map[string]any{"a": "b", "n": float64(2), "nested": []any{"x"}}
	if _, err := m.AppendMessage(conv.ID, models.RoleAssistant, want); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	msgs, err := m.Messages(conv.ID)
	if err != nil {
		t.Fatalf("messages failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if !reflect.DeepEqual(msgs[0].Content, want) {
		t.Errorf("content did not round-trip: got %#v, want %#v", msgs[0].Content, want)
	}
}

func TestMessagesMalformedJSONStaysRaw(t *testing.T) {
	m := NewManager(openTestDB(t), "user-1")
	conv, _ := m.GetOrCreate("", models.ModeChat)

	for _, content := range []string{"plain text", "{not json", "[1, 2"} {
		if _, err := m.AppendMessage(conv.ID, models.RoleUser, content); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	msgs, err := m.Messages(conv.ID)
	if err != nil {
		t.Fatalf("messages failed: %v", err)
	}
	for i, want := range []string{"plain text", "{not json", "[1, 2"} {
		if got, ok := msgs[i].Content.(string); !ok || got != want {
			t.Errorf("message %d: got %#v, want raw string %q", i, msgs[i].Content, want)
		}
	}
}

func TestHistoryOrder(t *testing.T) {
	m := NewManager(openTestDB(t), "user-1")
	conv, _ := m.GetOrCreate("", models.ModeChat)

	turns := []struct{ role, content string }{
		{models.RoleUser, "hello"},
		{models.RoleAssistant, "hi there"},
		{models.RoleUser, "how are you"},
	}
	for _, turn := range turns {
		if _, err := m.AppendMessage(conv.ID, turn.role, turn.content); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	history, err := m.History(conv.ID)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != len(turns) {
		t.Fatalf("got %d turns, want %d", len(history), len(turns))
	}
	for i, turn := range turns {
		if history[i].Role != turn.role || history[i].Content != turn.content {
			t.Errorf("turn %d: got %s %q", i, history[i].Role, history[i].Content)
		}
	}
}

func TestRenameIfFirstTurn(t *testing.T) {
	m := NewManager(openTestDB(t), "user-1")
	conv, _ := m.GetOrCreate("", models.ModeChat)

	if _, err := m.AppendMessage(conv.ID, models.RoleUser, "what is a goroutine"); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := m.RenameIfFirstTurn(conv.ID, "what is a goroutine"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}

	got, _ := m.GetOrCreate(conv.ID, models.ModeChat)
	if got.Title != "what is a goroutine" {
		t.Errorf("title = %q", got.Title)
	}

	// A later turn must not rename.
	if _, err := m.AppendMessage(conv.ID, models.RoleAssistant, "a lightweight thread"); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if _, err := m.AppendMessage(conv.ID, models.RoleUser, "something else entirely"); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := m.RenameIfFirstTurn(conv.ID, "something else entirely"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	got, _ = m.GetOrCreate(conv.ID, models.ModeChat)
	if got.Title != "what is a goroutine" {
		t.Errorf("later turn renamed the conversation: %q", got.Title)
	}
}

func TestRenameTruncatesLongTitles(t *testing.T) {
	m := NewManager(openTestDB(t), "user-1")
	conv, _ := m.GetOrCreate("", models.ModeChat)

	long := strings.Repeat("a", 80)
	if _, err := m.AppendMessage(conv.ID, models.RoleUser, long); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := m.RenameIfFirstTurn(conv.ID, long); err != nil {
		t.Fatalf("rename failed: %v", err)
	}

	got, _ := m.GetOrCreate(conv.ID, models.ModeChat)
	want := strings.Repeat("a", 50) + "..."
	if got.Title != want {
		t.Errorf("title = %q, want %q", got.Title, want)
	}
}

func TestRenameTruncatesOnRuneBoundary(t *testing.T) {
	m := NewManager(openTestDB(t), "user-1")
	conv, _ := m.GetOrCreate("", models.ModeChat)

	long := strings.Repeat("日", 80)
	if _, err := m.AppendMessage(conv.ID, models.RoleUser, long); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := m.RenameIfFirstTurn(conv.ID, long); err != nil {
		t.Fatalf("rename failed: %v", err)
	}

	got, _ := m.GetOrCreate(conv.ID, models.ModeChat)
	want := strings.Repeat("日", 50) + "..."
	if got.Title != want {
		t.Errorf("title = %q, want %q", got.Title, want)
	}
	if !utf8.ValidString(got.Title) {
		t.Error("title is not valid UTF-8")
	}
}
