package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ClaudeRoot         string   `toml:"claude_root"`
	CursorGlobalDir    string   `toml:"cursor_global_dir"`
	CursorWorkspaceDir string   `toml:"cursor_workspace_dir"`
	DBPath             string   `toml:"db_path"`
	Redact             []string `toml:"redact"`
}

// Load reads ~/.config/crucible/config.toml, filling platform defaults for
// anything the file does not set. A missing file is not an error.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := Defaults(home)

	cfgPath := filepath.Join(home, ".config", "crucible", "config.toml")
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	// expand ~ in paths
	cfg.ClaudeRoot = expandHome(cfg.ClaudeRoot, home)
	cfg.CursorGlobalDir = expandHome(cfg.CursorGlobalDir, home)
	cfg.CursorWorkspaceDir = expandHome(cfg.CursorWorkspaceDir, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)

	return cfg, nil
}

// Defaults returns the stock configuration rooted at the given home dir.
func Defaults(home string) *Config {
	cursorUser := cursorUserDir(home)
	return &Config{
		ClaudeRoot:         filepath.Join(home, ".claude"),
		CursorGlobalDir:    filepath.Join(cursorUser, "globalStorage"),
		CursorWorkspaceDir: filepath.Join(cursorUser, "workspaceStorage"),
		DBPath:             filepath.Join(home, ".config", "crucible", "crucible.db"),
	}
}

// cursorUserDir locates Cursor's User directory for the current platform.
func cursorUserDir(home string) string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Cursor", "User")
	case "windows":
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			return filepath.Join(appdata, "Cursor", "User")
		}
	}
	return filepath.Join(home, ".config", "Cursor", "User")
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
