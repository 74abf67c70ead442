package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"crucible/internal/redact"
	"crucible/internal/schema"
)

const maxToolSummary = 160

// contentSegment is one typed unit inside a list-shaped content field.
// Segments whose Type matches none of the known kinds are ignored.
type contentSegment struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Thinking  string          `json:"thinking"`
	Reasoning string          `json:"reasoning"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
}

// extracted is the canonical (content, thinking, tool_calls) triple the
// content extractor produces for one raw message.
type extracted struct {
	Content  string
	Thinking string
	ToolUses []schema.ToolCall
}

// extractContent flattens a raw content value — a plain string or a list of
// typed segments — into the canonical triple. The redaction hook is applied
// to every free-text field before it leaves this function.
//
// Text segments are joined with newlines. The first thinking/reasoning
// segment wins; later ones are ignored. Within one segment a thinking field
// takes priority over a reasoning field.
func extractContent(raw json.RawMessage, red redact.Redactor) extracted {
	if len(raw) == 0 {
		return extracted{}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return extracted{Content: red(strings.TrimSpace(s))}
	}

	var segments []contentSegment
	if err := json.Unmarshal(raw, &segments); err != nil {
		return extracted{}
	}

	var out extracted
	var textParts []string
	for _, seg := range segments {
		switch seg.Type {
		case "text":
			if seg.Text != "" {
				textParts = append(textParts, seg.Text)
			}
		case "thinking", "reasoning":
			if out.Thinking != "" {
				continue
			}
			think := seg.Thinking
			if think == "" {
				think = seg.Reasoning
			}
			if think == "" {
				think = seg.Text
			}
			if think != "" {
				out.Thinking = red(strings.TrimSpace(think))
			}
		case "tool_use", "tool_use_in_progress":
			name := seg.Name
			if name == "" {
				name = "unknown"
			}
			out.ToolUses = append(out.ToolUses, schema.ToolCall{
				Tool:  name,
				Input: red(summarizeToolInput(name, seg.Input)),
			})
		}
	}
	out.Content = red(strings.TrimSpace(strings.Join(textParts, "\n")))
	return out
}

// summarizeToolInput flattens a tool's structured arguments into a short
// human-readable line. File contents and other large payloads are reported
// by size, never inlined.
func summarizeToolInput(tool string, raw json.RawMessage) string {
	var input map[string]any
	if err := json.Unmarshal(raw, &input); err != nil || input == nil {
		return ""
	}

	str := func(key string) string {
		v, _ := input[key].(string)
		return v
	}

	switch tool {
	case "Read", "NotebookRead":
		return str("file_path")
	case "Write":
		return fmt.Sprintf("%s (%d chars)", str("file_path"), len(str("content")))
	case "Edit", "MultiEdit", "NotebookEdit":
		return fmt.Sprintf("%s (%d chars)", str("file_path"), len(str("new_string")))
	case "Bash":
		return truncate(str("command"), maxToolSummary)
	case "Grep", "Glob":
		if p := str("path"); p != "" {
			return str("pattern") + " in " + p
		}
		return str("pattern")
	case "WebFetch", "WebSearch":
		if u := str("url"); u != "" {
			return u
		}
		return truncate(str("query"), maxToolSummary)
	case "Task":
		return truncate(str("description"), maxToolSummary)
	}

	// Fallback: compact JSON, bounded.
	compact, err := json.Marshal(input)
	if err != nil {
		return ""
	}
	return truncate(string(compact), maxToolSummary)
}

// truncate cuts s to at most n bytes without splitting a multi-byte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
