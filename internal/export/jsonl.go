package export

import (
	"encoding/json"
	"fmt"
	"io"

	"crucible/internal/schema"
)

// JSONLExporter writes one message object per line. Session-level metadata
// is not included; the format exists for piping into line-oriented tools.
type JSONLExporter struct{}

func (e *JSONLExporter) Export(session *schema.ParsedSession, w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, msg := range session.Messages {
		if err := enc.Encode(msg); err != nil {
			return fmt.Errorf("encode message: %w", err)
		}
	}
	return nil
}

func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
