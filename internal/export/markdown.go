package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/docs-chat/internal"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

var senderLabels = map[internal.Sender]string{
	internal.SenderUser:  "You",
	internal.SenderBot:   "Assistant",
	internal.SenderHuman: "Support",
}

// Export writes a readable transcript. Bot answers are already Markdown and
// are written as-is; user text is escaped.
func (e *MarkdownExporter) Export(snapshot *internal.TranscriptSnapshot, w io.Writer) error {
	title := snapshot.SessionID
	if title == "" {
		title = "(no session)"
	}
	_, _ = fmt.Fprintf(w, "# Conversation %s\n\n", title)

	if snapshot.Metadata.APIURL != "" {
		_, _ = fmt.Fprintf(w, "**API:** %s  \n", snapshot.Metadata.APIURL)
	}
	if snapshot.Metadata.ExportedAt != "" {
		_, _ = fmt.Fprintf(w, "**Exported:** %s  \n", snapshot.Metadata.ExportedAt)
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(snapshot.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, msg := range snapshot.Messages {
		label, ok := senderLabels[msg.Sender]
		if !ok {
			label = string(msg.Sender)
		}
		if msg.IsError {
			label += " (error)"
		}

		timestamp := ""
		if msg.Timestamp != "" {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp)
		}

		content := msg.Text
		if msg.Sender == internal.SenderUser {
			content = escapeMarkdown(content)
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", label, timestamp, content)

		if len(msg.Sources) > 0 {
			_, _ = fmt.Fprintf(w, "Sources:\n\n")
			for _, src := range msg.Sources {
				_, _ = fmt.Fprintf(w, "- %s\n", src.Source)
			}
			_, _ = fmt.Fprintln(w)
		}
		if msg.ThreadRef != "" {
			_, _ = fmt.Fprintf(w, "_Thread: %s_\n\n", msg.ThreadRef)
		}

		if i < len(snapshot.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	// Basic escaping - preserve code blocks
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
