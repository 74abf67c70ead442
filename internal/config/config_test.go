package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults("/home/tester")

	if cfg.ClaudeRoot != filepath.Join("/home/tester", ".claude") {
		t.Errorf("ClaudeRoot = %q", cfg.ClaudeRoot)
	}
	if !strings.Contains(cfg.CursorGlobalDir, "globalStorage") {
		t.Errorf("CursorGlobalDir = %q, want a globalStorage path", cfg.CursorGlobalDir)
	}
	if !strings.Contains(cfg.CursorWorkspaceDir, "workspaceStorage") {
		t.Errorf("CursorWorkspaceDir = %q, want a workspaceStorage path", cfg.CursorWorkspaceDir)
	}
	if cfg.DBPath == "" {
		t.Error("DBPath is empty")
	}
	if len(cfg.Redact) != 0 {
		t.Errorf("Redact should default empty, got %v", cfg.Redact)
	}
}

func TestExpandHome(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"~/logs", filepath.Join("/home/tester", "logs")},
		{"/abs/path", "/abs/path"},
		{"~", "~"},
	}
	for _, tt := range tests {
		if got := expandHome(tt.in, "/home/tester"); got != tt.want {
			t.Errorf("expandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
