package export

import (
	"io"

	"gopkg.in/yaml.v3"

	"crucible/internal/schema"
)

// YAMLExporter writes the whole session as YAML.
type YAMLExporter struct{}

func (e *YAMLExporter) Export(session *schema.ParsedSession, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()
	return enc.Encode(session)
}

func (e *YAMLExporter) Extension() string {
	return "yaml"
}
