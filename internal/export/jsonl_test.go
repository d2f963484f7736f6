package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/docs-chat/internal"
)

func TestJSONLExporter_Export(t *testing.T) {
	tests := []struct {
		name     string
		snapshot *internal.TranscriptSnapshot
		want     []string
		wantErr  bool
	}{
		{
			name:     "empty transcript",
			snapshot: internal.CreateTestSnapshotWithMessages("S1", []internal.Message{}),
			want:     []string{},
			wantErr:  false,
		},
		{
			name:     "transcript with messages",
			snapshot: internal.CreateTestSnapshot("S2"),
			want: []string{
				`"sender":"user"`,
				`"sender":"bot"`,
				`"session_id":"S2"`,
				`"sources":[{"source":"docs/keys"}]`,
			},
			wantErr: false,
		},
		{
			name: "error and human entries",
			snapshot: internal.CreateTestSnapshotWithMessages("S3", []internal.Message{
				{ID: "1", Text: "Sorry", Sender: internal.SenderBot, IsError: true},
				{ID: "2", Text: "Hi", Sender: internal.SenderHuman, ThreadRef: "T1", Timestamp: "2023-01-01T00:00:00Z"},
			}),
			want: []string{
				`"is_error":true`,
				`"thread_ref":"T1"`,
				`"timestamp":"2023-01-01T00:00:00Z"`,
			},
			wantErr: false,
		},
		{
			name: "no session yet",
			snapshot: internal.CreateTestSnapshotWithMessages("", []internal.Message{
				{ID: "1", Text: "Hello", Sender: internal.SenderUser},
			}),
			want: []string{
				`"text":"Hello"`,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONLExporter{}

			err := exporter.Export(tt.snapshot, &buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("JSONLExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			output := buf.String()
			if len(tt.snapshot.Messages) == 0 {
				if output != "" {
					t.Errorf("Empty transcript should produce empty output, got: %q", output)
				}
				return
			}

			lines := strings.Split(strings.TrimSpace(output), "\n")
			if len(lines) != len(tt.snapshot.Messages) {
				t.Errorf("got %d lines, want %d", len(lines), len(tt.snapshot.Messages))
			}
			for i, line := range lines {
				var obj map[string]interface{}
				if err := json.Unmarshal([]byte(line), &obj); err != nil {
					t.Errorf("Line %d is not valid JSON: %v\nLine: %s", i+1, err, line)
				}
			}

			for _, wantStr := range tt.want {
				if !strings.Contains(output, wantStr) {
					t.Errorf("Output should contain %q, got:\n%s", wantStr, output)
				}
			}
			if tt.snapshot.SessionID == "" && strings.Contains(output, "session_id") {
				t.Errorf("session_id should be omitted when empty, got:\n%s", output)
			}
		})
	}
}

func TestJSONLExporter_Extension(t *testing.T) {
	exporter := &JSONLExporter{}
	if got := exporter.Extension(); got != "jsonl" {
		t.Errorf("JSONLExporter.Extension() = %v, want jsonl", got)
	}
}
