package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/iksnae/docs-chat/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(snapshot *internal.TranscriptSnapshot, w io.Writer) error
	Extension() string
}

// Formats lists the accepted format names
var Formats = []string{"jsonl", "md", "yaml", "json"}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, &internal.ExportError{
			Format: format,
			Err:    fmt.Errorf("unsupported format (supported: jsonl, md, yaml, json)"),
		}
	}
}

// WriteFile exports snapshot to path in format. An empty path picks
// docs-chat-<timestamp>.<ext> in the working directory. It returns the path
// written.
func WriteFile(snapshot *internal.TranscriptSnapshot, format, path string) (string, error) {
	exporter, err := NewExporter(format)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = fmt.Sprintf("docs-chat-%s.%s", time.Now().Format("20060102-150405"), exporter.Extension())
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", &internal.ExportError{Format: format, Path: path, Err: err}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := exporter.Export(snapshot, f); err != nil {
		_ = f.Close()
		return "", &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &internal.ExportError{Format: format, Path: path, Err: err}
	}
	return path, nil
}

// document returns the snapshot as written by the whole-document formats.
// The count always matches the messages, the export time is stamped when
// missing, and an empty transcript encodes as an empty list.
func document(snapshot *internal.TranscriptSnapshot) *internal.TranscriptSnapshot {
	doc := *snapshot
	if doc.Messages == nil {
		doc.Messages = []internal.Message{}
	}
	doc.Metadata.MessageCount = len(doc.Messages)
	if doc.Metadata.ExportedAt == "" {
		doc.Metadata.ExportedAt = internal.Now()
	}
	return &doc
}
