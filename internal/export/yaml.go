package export

import (
	"fmt"
	"io"

	"github.com/iksnae/docs-chat/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter writes the transcript as one YAML document
type YAMLExporter struct{}

// Export writes the snapshot with its metadata block. Close flushes the
// encoder, so its error is reported too.
func (e *YAMLExporter) Export(snapshot *internal.TranscriptSnapshot, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(document(snapshot)); err != nil {
		_ = enc.Close()
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush transcript: %w", err)
	}
	return nil
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
