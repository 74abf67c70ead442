// Package schema defines the unified session record shared by every
// extractor and by downstream consumers (index, search, export).
package schema

// SchemaVersion identifies the field contract of ParsedSession. Field
// additions are backward compatible; any breaking change must bump this.
const SchemaVersion = "1.0"

// SessionHandle is a lightweight pointer to one discoverable session.
// It is produced by Extractor.Discover and never mutated afterwards.
type SessionHandle struct {
	ID        string `json:"session_id" yaml:"session_id"`
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"` // RFC 3339 UTC, "" when unknown
	Locator   string `json:"source_locator" yaml:"source_locator"`      // file or database path, diagnostic only
	RawKey    string `json:"raw_key,omitempty" yaml:"raw_key,omitempty"`   // store key for embedded-store sessions
	Agent     string `json:"agent" yaml:"agent"`
}

// ToolCall records the assistant requesting a named capability. Input is a
// flattened, human-readable summary, never the raw argument object.
type ToolCall struct {
	Tool  string `json:"tool" yaml:"tool"`
	Input string `json:"input" yaml:"input"`
}

// Message is one normalized conversation turn.
type Message struct {
	Role      string     `json:"role" yaml:"role"` // "user" or "assistant"
	Content   string     `json:"content" yaml:"content"`
	Thinking  string     `json:"thinking,omitempty" yaml:"thinking,omitempty"`
	ToolUses  []ToolCall `json:"tool_uses,omitempty" yaml:"tool_uses,omitempty"`
	Timestamp string     `json:"timestamp,omitempty" yaml:"timestamp,omitempty"` // RFC 3339 UTC
}

// SessionStats holds monotonically accumulated counters for one session.
type SessionStats struct {
	UserMessages      int `json:"user_messages" yaml:"user_messages"`
	AssistantMessages int `json:"assistant_messages" yaml:"assistant_messages"`
	ToolUses          int `json:"tool_uses" yaml:"tool_uses"`
	InputTokens       int `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens      int `json:"output_tokens" yaml:"output_tokens"`
	SkippedEntries    int `json:"skipped_entries" yaml:"skipped_entries"`
}

// ParsedSession is the unified session record, produced once per Parse call
// and owned by the caller. Messages preserve source order.
type ParsedSession struct {
	SchemaVersion string       `json:"schema_version" yaml:"schema_version"`
	SessionID     string       `json:"session_id" yaml:"session_id"`
	Agent         string       `json:"agent" yaml:"agent"`
	Project       string       `json:"project,omitempty" yaml:"project,omitempty"`
	Model         string       `json:"model,omitempty" yaml:"model,omitempty"`
	GitBranch     string       `json:"git_branch,omitempty" yaml:"git_branch,omitempty"`
	Cwd           string       `json:"cwd,omitempty" yaml:"cwd,omitempty"`
	AgentVersion  string       `json:"agent_version,omitempty" yaml:"agent_version,omitempty"`
	StartTime     string       `json:"start_time,omitempty" yaml:"start_time,omitempty"` // RFC 3339 UTC
	EndTime       string       `json:"end_time,omitempty" yaml:"end_time,omitempty"`   // RFC 3339 UTC
	Messages      []Message    `json:"messages" yaml:"messages"`
	Stats         SessionStats `json:"stats" yaml:"stats"`
}
