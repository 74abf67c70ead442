package extract

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"crucible/internal/redact"
)

// writeStateDB creates a state.vscdb fixture at dir/state.vscdb with the
// given cursorDiskKV rows.
func writeStateDB(t *testing.T, dir string, rows map[string]string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "state.vscdb")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE cursorDiskKV (key TEXT PRIMARY KEY, value TEXT)`); err != nil {
		t.Fatal(err)
	}
	for k, v := range rows {
		if _, err := db.Exec("INSERT INTO cursorDiskKV (key, value) VALUES (?, ?)", k, v); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

// newTestCursorExtractor returns an extractor over a fresh global dir plus
// an empty workspace dir.
func newTestCursorExtractor(t *testing.T, rows map[string]string, red redact.Redactor) *CursorExtractor {
	t.Helper()
	globalDir := filepath.Join(t.TempDir(), "globalStorage")
	writeStateDB(t, globalDir, rows)
	return NewCursorExtractor(globalDir, filepath.Join(t.TempDir(), "workspaceStorage"), red)
}

func TestCursorParseBasicSession(t *testing.T) {
	ext := newTestCursorExtractor(t, map[string]string{
		"composerData:s1": `{
			"sessionId":"s1","model":"gpt-4.1","gitBranch":"dev","createdAt":1706000000000,
			"messages":[
				{"role":"user","content":"Fix bug","timestamp":1706000000000},
				{"role":"assistant","content":"Fixed","timestamp":1706000001000}
			]
		}`,
	}, redact.NoOp)

	session, err := ext.Parse("s1")
	if err != nil {
		t.Fatal(err)
	}
	if session == nil {
		t.Fatal("session not found")
	}

	if len(session.Messages) != 2 {
		t.Fatalf("got %d messages", len(session.Messages))
	}
	if session.Model != "gpt-4.1" || session.GitBranch != "dev" {
		t.Errorf("meta = %q %q", session.Model, session.GitBranch)
	}
	if session.StartTime != "2024-01-23T08:53:20Z" {
		t.Errorf("StartTime = %q", session.StartTime)
	}
	if session.Stats.UserMessages != 1 || session.Stats.AssistantMessages != 1 {
		t.Errorf("stats = %+v", session.Stats)
	}
}

func TestCursorRoleSynonyms(t *testing.T) {
	ext := newTestCursorExtractor(t, map[string]string{
		"composerData:s1": `{"messages":[
			{"role":"human","content":"same text"},
			{"role":"user","content":"same text"},
			{"role":"bot","content":"reply"},
			{"role":"observer","content":"dropped"}
		]}`,
	}, redact.NoOp)

	session, err := ext.Parse("s1")
	if err != nil {
		t.Fatal(err)
	}

	if len(session.Messages) != 3 {
		t.Fatalf("got %d messages, want 3 (unknown role dropped)", len(session.Messages))
	}
	// human and user normalize to identical messages.
	if session.Messages[0].Role != session.Messages[1].Role ||
		session.Messages[0].Content != session.Messages[1].Content {
		t.Errorf("role synonyms differ: %+v vs %+v", session.Messages[0], session.Messages[1])
	}
	if session.Messages[2].Role != "assistant" {
		t.Errorf("bot should normalize to assistant, got %q", session.Messages[2].Role)
	}
}

func TestCursorEmptyContentDropped(t *testing.T) {
	ext := newTestCursorExtractor(t, map[string]string{
		"composerData:s1": `{"sessionId":"s1","messages":[{"role":"user","content":""}]}`,
	}, redact.NoOp)

	session, err := ext.Parse("s1")
	if err != nil {
		t.Fatal(err)
	}
	if session == nil {
		t.Fatal("found-but-empty must still be a session")
	}
	if len(session.Messages) != 0 {
		t.Errorf("messages = %+v", session.Messages)
	}
	if session.Stats.UserMessages != 0 {
		t.Errorf("UserMessages = %d, want 0", session.Stats.UserMessages)
	}
}

func TestCursorMessageFieldPriority(t *testing.T) {
	// chatHistory must lose to messages; the first candidate that yields a
	// list wins.
	ext := newTestCursorExtractor(t, map[string]string{
		"composerData:s1": `{
			"messages":[{"role":"user","content":"from messages"}],
			"chatHistory":[{"role":"user","content":"from chatHistory"}]
		}`,
	}, redact.NoOp)

	session, err := ext.Parse("s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(session.Messages) != 1 || session.Messages[0].Content != "from messages" {
		t.Errorf("messages = %+v", session.Messages)
	}
}

func TestCursorMessageFieldFallback(t *testing.T) {
	ext := newTestCursorExtractor(t, map[string]string{
		"composerData:s1": `{"history":[{"role":"user","content":"from history"}]}`,
	}, redact.NoOp)

	session, err := ext.Parse("s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(session.Messages) != 1 || session.Messages[0].Content != "from history" {
		t.Errorf("messages = %+v", session.Messages)
	}
}

func TestCursorBubbleKeyPrefix(t *testing.T) {
	ext := newTestCursorExtractor(t, map[string]string{
		"bubbleId:thread-1": `{"messages":[{"role":"user","content":"hi"}]}`,
	}, redact.NoOp)

	session, err := ext.Parse("thread-1")
	if err != nil {
		t.Fatal(err)
	}
	if session == nil || len(session.Messages) != 1 {
		t.Fatalf("session = %+v", session)
	}
}

func TestCursorUnparseableBlobIsNotFound(t *testing.T) {
	ext := newTestCursorExtractor(t, map[string]string{
		"composerData:bad": `this is not json`,
	}, redact.NoOp)

	session, err := ext.Parse("bad")
	if err != nil {
		t.Fatalf("unparseable blob must not error: %v", err)
	}
	if session != nil {
		t.Errorf("unparseable blob should report not found, got %+v", session)
	}
}

func TestCursorParseNotFound(t *testing.T) {
	ext := newTestCursorExtractor(t, nil, redact.NoOp)

	session, err := ext.Parse("missing")
	if err != nil {
		t.Fatal(err)
	}
	if session != nil {
		t.Errorf("got %+v, want nil", session)
	}
}

func TestCursorDiscoverOrdering(t *testing.T) {
	ext := newTestCursorExtractor(t, map[string]string{
		"composerData:jan":    `{"createdAt":"2024-01-20T00:00:00Z"}`,
		"composerData:absent": `{}`,
		"composerData:mar":    `{"createdAt":"2024-03-01T00:00:00Z"}`,
		"someOtherKey:x":      `{}`,
	}, redact.NoOp)

	handles, err := ext.Discover()
	if err != nil {
		t.Fatal(err)
	}

	var ids []string
	for _, h := range handles {
		ids = append(ids, h.ID)
	}
	want := []string{"mar", "jan", "absent"}
	if len(ids) != 3 {
		t.Fatalf("handles = %v (unrecognized prefixes must be ignored)", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order = %v, want %v", ids, want)
		}
	}
	if handles[0].RawKey != "composerData:mar" || handles[0].Agent != AgentCursor {
		t.Errorf("handle = %+v", handles[0])
	}
}

func TestCursorDiscoverOrderingDateOnly(t *testing.T) {
	// Some envelopes carry bare dates. They must still sort newest-first
	// instead of falling back to insertion order.
	ext := newTestCursorExtractor(t, map[string]string{
		"composerData:jan":    `{"createdAt":"2024-01-20"}`,
		"composerData:mar":    `{"createdAt":"2024-03-01"}`,
		"composerData:absent": `{}`,
	}, redact.NoOp)

	handles, err := ext.Discover()
	if err != nil {
		t.Fatal(err)
	}

	var ids []string
	for _, h := range handles {
		ids = append(ids, h.ID)
	}
	want := []string{"mar", "jan", "absent"}
	if len(ids) != len(want) {
		t.Fatalf("handles = %v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order = %v, want %v", ids, want)
		}
	}
}

func TestCursorEnvelopeTimeFieldPriority(t *testing.T) {
	// timestamp outranks createdAt and startTime when several coexist.
	ext := newTestCursorExtractor(t, map[string]string{
		"composerData:s1": `{
			"startTime":1704000000000,
			"createdAt":1705000000000,
			"timestamp":1706000000000,
			"messages":[{"role":"user","content":"hi"}]
		}`,
	}, redact.NoOp)

	session, err := ext.Parse("s1")
	if err != nil {
		t.Fatal(err)
	}
	if session.StartTime != "2024-01-23T08:53:20Z" {
		t.Errorf("StartTime = %q, want the timestamp field to win", session.StartTime)
	}
}

func TestCursorDiscoverAcrossWorkspaces(t *testing.T) {
	globalDir := filepath.Join(t.TempDir(), "globalStorage")
	writeStateDB(t, globalDir, map[string]string{
		"composerData:global-1": `{}`,
	})

	workspaceDir := filepath.Join(t.TempDir(), "workspaceStorage")
	writeStateDB(t, filepath.Join(workspaceDir, "ws-a"), map[string]string{
		"composerData:ws-1": `{}`,
	})

	ext := NewCursorExtractor(globalDir, workspaceDir, redact.NoOp)
	handles, err := ext.Discover()
	if err != nil {
		t.Fatal(err)
	}
	if len(handles) != 2 {
		t.Fatalf("got %d handles, want sessions from both stores", len(handles))
	}
}

func TestCursorDiscoverSkipsCorruptUnit(t *testing.T) {
	globalDir := filepath.Join(t.TempDir(), "globalStorage")
	if err := os.MkdirAll(globalDir, 0o755); err != nil {
		t.Fatal(err)
	}
	// Not a SQLite file at all.
	if err := os.WriteFile(filepath.Join(globalDir, "state.vscdb"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	workspaceDir := filepath.Join(t.TempDir(), "workspaceStorage")
	writeStateDB(t, filepath.Join(workspaceDir, "ws-a"), map[string]string{
		"composerData:ok": `{}`,
	})

	handles, err := NewCursorExtractor(globalDir, workspaceDir, redact.NoOp).Discover()
	if err != nil {
		t.Fatalf("corrupt unit must not fail discovery: %v", err)
	}
	if len(handles) != 1 || handles[0].ID != "ok" {
		t.Errorf("handles = %+v", handles)
	}
}

func TestCursorToolCalls(t *testing.T) {
	ext := newTestCursorExtractor(t, map[string]string{
		"composerData:s1": `{"messages":[
			{"role":"assistant","content":"running","tool_calls":[
				{"name":"Bash","input":{"command":"go test ./..."}},
				{"function":{"name":"Read","arguments":"{\"file_path\":\"x.go\"}"}}
			]}
		]}`,
	}, redact.NoOp)

	session, err := ext.Parse("s1")
	if err != nil {
		t.Fatal(err)
	}
	calls := session.Messages[0].ToolUses
	if len(calls) != 2 {
		t.Fatalf("calls = %+v", calls)
	}
	if calls[0].Tool != "Bash" || calls[0].Input != "go test ./..." {
		t.Errorf("calls[0] = %+v", calls[0])
	}
	if calls[1].Tool != "Read" {
		t.Errorf("calls[1] = %+v", calls[1])
	}
	if session.Stats.ToolUses != 2 {
		t.Errorf("ToolUses = %d", session.Stats.ToolUses)
	}
}

func TestCursorNestedMessageEnvelope(t *testing.T) {
	ext := newTestCursorExtractor(t, map[string]string{
		"composerData:s1": `{"messages":[{"role":"user","message":{"content":"nested"}}]}`,
	}, redact.NoOp)

	session, err := ext.Parse("s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(session.Messages) != 1 || session.Messages[0].Content != "nested" {
		t.Errorf("messages = %+v", session.Messages)
	}
}

func TestCursorThinkingFields(t *testing.T) {
	ext := newTestCursorExtractor(t, map[string]string{
		"composerData:s1": `{"messages":[
			{"role":"assistant","content":"done","thinking":"preferred","reasoning":"ignored"}
		]}`,
	}, redact.NoOp)

	session, err := ext.Parse("s1")
	if err != nil {
		t.Fatal(err)
	}
	if session.Messages[0].Thinking != "preferred" {
		t.Errorf("Thinking = %q, want the thinking field to win", session.Messages[0].Thinking)
	}
}
