package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/docs-chat/internal"
)

// JSONExporter writes the transcript as one indented JSON document
type JSONExporter struct{}

// Export writes the snapshot with its metadata block
func (e *JSONExporter) Export(snapshot *internal.TranscriptSnapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(document(snapshot)); err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	return nil
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
