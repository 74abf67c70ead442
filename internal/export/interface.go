// Package export serializes parsed sessions into interchange formats.
package export

import (
	"fmt"
	"io"

	"crucible/internal/schema"
)

// Exporter writes one parsed session to w in a specific format.
type Exporter interface {
	Export(session *schema.ParsedSession, w io.Writer) error
	Extension() string
}

// NewExporter returns the exporter for format.
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "json":
		return &JSONExporter{}, nil
	case "jsonl":
		return &JSONLExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, jsonl, yaml, md)", format)
	}
}
