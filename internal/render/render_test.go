package render

import (
	"path/filepath"
	"strings"
	"testing"

	"crucible/internal/index"
)

func TestWrapLine(t *testing.T) {
	lines := wrapLine("abcdefghij", 4)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != "abcd" || lines[2] != "ij" {
		t.Errorf("lines = %v", lines)
	}

	// ANSI escapes do not count toward width
	colored := colorUser + "abcd" + colorReset
	lines = wrapLine(colored, 4)
	if len(lines) != 1 {
		t.Errorf("colored line wrapped into %d lines, want 1", len(lines))
	}

	// wide runes count double
	lines = wrapLine("你好世界", 4)
	if len(lines) != 2 {
		t.Errorf("CJK line wrapped into %d lines, want 2", len(lines))
	}
}

func TestHighlightKeywords(t *testing.T) {
	out := highlightKeywords("fix the Goroutine leak", "goroutine")
	if !strings.Contains(out, colorBoldRed+"Goroutine"+colorReset) {
		t.Errorf("highlight missing: %q", out)
	}

	// FTS operators are not highlighted
	out = highlightKeywords("leak AND pool", "leak AND pool")
	if strings.Contains(out, colorBoldRed+"AND") {
		t.Errorf("operator highlighted: %q", out)
	}
}

func seedSession(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.OpenDB(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Raw().Exec(
		"INSERT INTO sessions (session_key, agent, session_id, project) VALUES (?, ?, ?, ?)",
		"claude:s1", "claude", "s1", "webapp",
	)
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}
	rows := []struct {
		seq                               int
		role, content, thinking, toolstr string
	}{
		{0, "user", "please fix the bug", "", ""},
		{1, "assistant", "done", "the bug is a nil map write", "Edit(main.go (10 chars))"},
	}
	for _, r := range rows {
		_, err := db.Raw().Exec(
			"INSERT INTO messages (session_key, seq, role, content, thinking, tools) VALUES (?, ?, ?, ?, ?, ?)",
			"claude:s1", r.seq, r.role, r.content, r.thinking, r.toolstr,
		)
		if err != nil {
			t.Fatalf("insert message: %v", err)
		}
	}
	return db
}

func TestRenderConversation(t *testing.T) {
	db := seedSession(t)

	out, hitLine, err := RenderConversation(db, "claude:s1", Options{HitSeq: -1, Context: -1})
	if err != nil {
		t.Fatalf("RenderConversation: %v", err)
	}
	if hitLine != -1 {
		t.Errorf("hitLine = %d, want -1", hitLine)
	}
	for _, want := range []string{"USER", "ASST", "please fix the bug", "Edit(main.go (10 chars))"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	// thinking hidden by default
	if strings.Contains(out, "nil map write") {
		t.Error("thinking shown without ShowThinking")
	}

	out, _, err = RenderConversation(db, "claude:s1", Options{HitSeq: -1, Context: -1, ShowThinking: true})
	if err != nil {
		t.Fatalf("RenderConversation: %v", err)
	}
	if !strings.Contains(out, "nil map write") {
		t.Error("thinking missing with ShowThinking")
	}
}

func TestRenderConversationHit(t *testing.T) {
	db := seedSession(t)

	out, hitLine, err := RenderConversation(db, "claude:s1", Options{HitSeq: 1, Context: 5, Query: "done"})
	if err != nil {
		t.Fatalf("RenderConversation: %v", err)
	}
	if hitLine < 0 {
		t.Errorf("hitLine = %d, want >= 0", hitLine)
	}
	if !strings.Contains(out, colorBoldRed+"done"+colorReset) {
		t.Error("query keyword not highlighted")
	}
}

func TestRenderConversationNotFound(t *testing.T) {
	db := seedSession(t)

	if _, _, err := RenderConversation(db, "claude:nope", Options{}); err == nil {
		t.Fatal("expected error for unknown session")
	}
}
