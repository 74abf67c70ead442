package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"crucible/internal/schema"
)

func testSession() *schema.ParsedSession {
	return &schema.ParsedSession{
		SchemaVersion: schema.SchemaVersion,
		SessionID:     "abc-123",
		Agent:         "claude",
		Project:       "webapp",
		Model:         "claude-sonnet-4",
		StartTime:     "2024-03-01T10:00:00Z",
		EndTime:       "2024-03-01T10:05:00Z",
		Messages: []schema.Message{
			{Role: "user", Content: "fix the **race** in the pool", Timestamp: "2024-03-01T10:00:00Z"},
			{Role: "assistant", Content: "done", Thinking: "the channel is unbuffered",
				ToolUses: []schema.ToolCall{{Tool: "Edit", Input: "pool.go (42 chars)"}}},
		},
		Stats: schema.SessionStats{UserMessages: 1, AssistantMessages: 1, ToolUses: 1},
	}
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr bool
	}{
		{"json", "json", false},
		{"jsonl", "jsonl", false},
		{"yaml", "yaml", false},
		{"md", "md", false},
		{"markdown", "md", false},
		{"xml", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			e, err := NewExporter(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewExporter(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if err == nil && e.Extension() != tt.wantExt {
				t.Errorf("Extension() = %q, want %q", e.Extension(), tt.wantExt)
			}
		})
	}
}

func TestJSONExporterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(testSession(), &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	var got schema.ParsedSession
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got.SessionID != "abc-123" || got.SchemaVersion != schema.SchemaVersion {
		t.Errorf("round trip lost metadata: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[1].ToolUses[0].Tool != "Edit" {
		t.Errorf("round trip lost messages: %+v", got.Messages)
	}
}

func TestJSONLExporterOneLinePerMessage(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONLExporter{}).Export(testSession(), &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for i, line := range lines {
		var m schema.Message
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Errorf("line %d is not valid JSON: %v", i, err)
		}
	}
}

func TestYAMLExporterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := (&YAMLExporter{}).Export(testSession(), &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	var got schema.ParsedSession
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if got.SessionID != "abc-123" || got.Stats.ToolUses != 1 {
		t.Errorf("round trip lost data: %+v", got)
	}
	if !strings.Contains(buf.String(), "session_id:") {
		t.Errorf("yaml keys not snake_case:\n%s", buf.String())
	}
}

func TestMarkdownExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(testSession(), &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Session abc-123",
		"**Agent:** claude",
		"**Project:** webapp",
		"**Messages:** 2",
		"**user:** (2024-03-01T10:00:00Z)",
		"\\*\\*race\\*\\*",
		"> the channel is unbuffered",
		"`Edit(pool.go (42 chars))`",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "**race**") {
		t.Error("emphasis not escaped")
	}
}

func TestEscapeMarkdownPreservesCodeBlocks(t *testing.T) {
	in := "before **bold**\n```go\na := **ptr\n```"
	out := escapeMarkdown(in)
	if !strings.Contains(out, "\\*\\*bold\\*\\*") {
		t.Errorf("bold not escaped: %s", out)
	}
	if !strings.Contains(out, "a := **ptr") {
		t.Errorf("code block mangled: %s", out)
	}
}
