package export

import (
	"fmt"
	"io"
	"strings"

	"crucible/internal/schema"
)

// MarkdownExporter writes the session as a readable Markdown transcript.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(session *schema.ParsedSession, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Session %s\n\n", session.SessionID)

	_, _ = fmt.Fprintf(w, "**Agent:** %s  \n", session.Agent)
	if session.Project != "" {
		_, _ = fmt.Fprintf(w, "**Project:** %s  \n", session.Project)
	}
	if session.Model != "" {
		_, _ = fmt.Fprintf(w, "**Model:** %s  \n", session.Model)
	}
	if session.GitBranch != "" {
		_, _ = fmt.Fprintf(w, "**Branch:** %s  \n", session.GitBranch)
	}
	if session.StartTime != "" {
		_, _ = fmt.Fprintf(w, "**Started:** %s  \n", session.StartTime)
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(session.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, msg := range session.Messages {
		timestamp := ""
		if msg.Timestamp != "" {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp)
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n", msg.Role, timestamp)

		if msg.Thinking != "" {
			_, _ = fmt.Fprintf(w, "> %s\n\n", strings.ReplaceAll(msg.Thinking, "\n", "\n> "))
		}
		if msg.Content != "" {
			_, _ = fmt.Fprintf(w, "%s\n\n", escapeMarkdown(msg.Content))
		}
		for _, tc := range msg.ToolUses {
			_, _ = fmt.Fprintf(w, "- `%s(%s)`\n", tc.Tool, tc.Input)
		}
		if len(msg.ToolUses) > 0 {
			_, _ = fmt.Fprintf(w, "\n")
		}

		if i < len(session.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes emphasis markers outside code blocks.
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

func (e *MarkdownExporter) Extension() string {
	return "md"
}
