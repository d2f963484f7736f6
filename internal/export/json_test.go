package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/docs-chat/internal"
)

func TestJSONExporter_Export(t *testing.T) {
	tests := []struct {
		name     string
		snapshot *internal.TranscriptSnapshot
		wantErr  bool
	}{
		{
			name:     "basic transcript",
			snapshot: internal.CreateTestSnapshot("S1"),
			wantErr:  false,
		},
		{
			name:     "empty transcript",
			snapshot: internal.CreateTestSnapshotWithMessages("S2", []internal.Message{}),
			wantErr:  false,
		},
		{
			name: "transcript with every sender",
			snapshot: internal.CreateTestSnapshotWithMessages("S3", []internal.Message{
				{ID: "1", Text: "Hello", Sender: internal.SenderUser, Timestamp: "2023-01-01T00:00:00Z"},
				{ID: "2", Text: "Sorry, I encountered an error: Server error.", Sender: internal.SenderBot, IsError: true},
				{ID: "3", Text: "An agent will help you.", Sender: internal.SenderHuman, ThreadRef: "T1"},
			}),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONExporter{}

			err := exporter.Export(tt.snapshot, &buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("JSONExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				output := buf.String()
				var decoded internal.TranscriptSnapshot
				if err := json.Unmarshal([]byte(output), &decoded); err != nil {
					t.Errorf("Output is not valid JSON: %v\nOutput: %s", err, output)
					return
				}

				if decoded.SessionID != tt.snapshot.SessionID {
					t.Errorf("session_id = %q, want %q", decoded.SessionID, tt.snapshot.SessionID)
				}
				if len(decoded.Messages) != len(tt.snapshot.Messages) {
					t.Errorf("got %d messages, want %d", len(decoded.Messages), len(tt.snapshot.Messages))
				}

				if !strings.Contains(output, "  ") {
					t.Errorf("Output should be pretty-printed with indentation")
				}
			}
		})
	}
}

func TestJSONExporter_Extension(t *testing.T) {
	exporter := &JSONExporter{}
	if got := exporter.Extension(); got != "json" {
		t.Errorf("JSONExporter.Extension() = %v, want json", got)
	}
}
