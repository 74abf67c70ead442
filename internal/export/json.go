package export

import (
	"encoding/json"
	"io"

	"crucible/internal/schema"
)

// JSONExporter writes the whole session as pretty-printed JSON.
type JSONExporter struct{}

func (e *JSONExporter) Export(session *schema.ParsedSession, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(session)
}

func (e *JSONExporter) Extension() string {
	return "json"
}
