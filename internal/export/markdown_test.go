package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/docs-chat/internal"
)

func TestMarkdownExporter_Export(t *testing.T) {
	tests := []struct {
		name     string
		snapshot *internal.TranscriptSnapshot
		want     []string
		notWant  []string
		wantErr  bool
	}{
		{
			name:     "basic transcript",
			snapshot: internal.CreateTestSnapshot("S1"),
			want: []string{
				"# Conversation S1",
				"**API:** http://localhost:5000",
				"**Messages:** 2",
				"## Messages",
				"**You:**",
				"How do I rotate an API key?",
				"**Assistant:**",
				"Open **Settings > Keys** and choose Rotate.",
				"- docs/keys",
			},
			wantErr: false,
		},
		{
			name: "message with timestamp",
			snapshot: internal.CreateTestSnapshotWithMessages("S2", []internal.Message{
				{Text: "Hello", Sender: internal.SenderUser, Timestamp: "2023-01-01T00:00:00Z"},
			}),
			want: []string{
				"**You:** (2023-01-01T00:00:00Z)",
			},
			wantErr: false,
		},
		{
			name: "user text is escaped",
			snapshot: internal.CreateTestSnapshotWithMessages("S3", []internal.Message{
				{Text: "what does **kwargs do", Sender: internal.SenderUser},
			}),
			want:    []string{"\\*\\*kwargs"},
			notWant: []string{"what does **kwargs"},
			wantErr: false,
		},
		{
			name: "error and human entries",
			snapshot: internal.CreateTestSnapshotWithMessages("S4", []internal.Message{
				{Text: "Sorry, I encountered an error: Server error.", Sender: internal.SenderBot, IsError: true},
				{Text: "An agent will help you.", Sender: internal.SenderHuman, ThreadRef: "T1"},
			}),
			want: []string{
				"**Assistant (error):**",
				"**Support:**",
				"_Thread: T1_",
			},
			wantErr: false,
		},
		{
			name:     "no session yet",
			snapshot: internal.CreateTestSnapshotWithMessages("", []internal.Message{}),
			want: []string{
				"# Conversation (no session)",
				"**Messages:** 0",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &MarkdownExporter{}

			err := exporter.Export(tt.snapshot, &buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("MarkdownExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				output := buf.String()
				for _, wantStr := range tt.want {
					if !strings.Contains(output, wantStr) {
						t.Errorf("Output should contain %q, got:\n%s", wantStr, output)
					}
				}
				for _, notWantStr := range tt.notWant {
					if strings.Contains(output, notWantStr) {
						t.Errorf("Output should not contain %q, got:\n%s", notWantStr, output)
					}
				}
			}
		})
	}
}

func TestMarkdownExporter_Extension(t *testing.T) {
	exporter := &MarkdownExporter{}
	if got := exporter.Extension(); got != "md" {
		t.Errorf("MarkdownExporter.Extension() = %v, want md", got)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		notWant []string
	}{
		{
			name:  "basic text",
			input: "Hello world",
			want:  []string{"Hello world"},
		},
		{
			name:    "markdown bold",
			input:   "This is **bold** text",
			want:    []string{"\\*\\*bold\\*\\*"},
			notWant: []string{"**bold**"},
		},
		{
			name:    "markdown underline",
			input:   "This is __underlined__ text",
			want:    []string{"\\_\\_underlined\\_\\_"},
			notWant: []string{"__underlined__"},
		},
		{
			name:  "code block preserved",
			input: "```go\npackage main\n```",
			want:  []string{"```go", "package main", "```"},
		},
		{
			name:    "mixed content",
			input:   "Regular text **bold** and ```code```",
			want:    []string{"\\*\\*bold\\*\\*", "```code```"},
			notWant: []string{"**bold**"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := escapeMarkdown(tt.input)
			for _, wantStr := range tt.want {
				if !strings.Contains(got, wantStr) {
					t.Errorf("escapeMarkdown() should contain %q, got: %s", wantStr, got)
				}
			}
			for _, notWantStr := range tt.notWant {
				if strings.Contains(got, notWantStr) {
					t.Errorf("escapeMarkdown() should not contain %q, got: %s", notWantStr, got)
				}
			}
		})
	}
}


