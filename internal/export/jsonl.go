package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/docs-chat/internal"
)

// JSONLExporter exports transcripts in JSONL format (one message per line)
type JSONLExporter struct{}

type jsonlLine struct {
	ID        string            `json:"id"`
	Sender    internal.Sender   `json:"sender"`
	Text      string            `json:"text"`
	Timestamp string            `json:"timestamp,omitempty"`
	Sources   []internal.Source `json:"sources,omitempty"`
	IsError   bool              `json:"is_error,omitempty"`
	ThreadRef string            `json:"thread_ref,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
}

// Export writes one JSON object per message, tagged with the session ID
func (e *JSONLExporter) Export(snapshot *internal.TranscriptSnapshot, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range snapshot.Messages {
		line := jsonlLine{
			ID:        msg.ID,
			Sender:    msg.Sender,
			Text:      msg.Text,
			Timestamp: msg.Timestamp,
			Sources:   msg.Sources,
			IsError:   msg.IsError,
			ThreadRef: msg.ThreadRef,
			SessionID: snapshot.SessionID,
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
