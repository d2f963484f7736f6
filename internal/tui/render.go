package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/docs-chat/internal"
)

// suggestedTopics are offered while the transcript is empty. Tab cycles
// them into the input.
var suggestedTopics = []string{
	"Getting Started Guide",
	"API Authentication",
	"Payment Integration",
	"Webhook Setup",
}

func newRenderer(width int) *glamour.TermRenderer {
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		internal.LogDebug("Markdown renderer unavailable: %v", err)
		return nil
	}
	return r
}

func renderTranscript(msgs []internal.Message, r *glamour.TermRenderer, width int) string {
	if len(msgs) == 0 {
		return renderEmpty()
	}

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(renderMessage(msg, r, width))
	}
	return b.String()
}

func renderEmpty() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Ask anything about the documentation."))
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("Popular topics (press Tab to use one):"))
	b.WriteString("\n")
	for _, topic := range suggestedTopics {
		b.WriteString(mutedStyle.Render("  • " + topic))
		b.WriteString("\n")
	}
	return b.String()
}

func renderMessage(msg internal.Message, r *glamour.TermRenderer, width int) string {
	var label string
	switch msg.Sender {
	case internal.SenderUser:
		label = userLabelStyle.Render("You")
	case internal.SenderHuman:
		label = humanLabelStyle.Render("Support")
	default:
		label = botLabelStyle.Render("Assistant")
	}
	if ts := internal.ParseTimestamp(msg.Timestamp); !ts.IsZero() {
		label += " " + mutedStyle.Render(ts.Local().Format("15:04"))
	}

	var body string
	switch {
	case msg.IsError:
		body = userTextStyle.Render(errorStyle.Render(msg.Text))
	case msg.Sender == internal.SenderUser:
		body = userTextStyle.Width(maxInt(width-2, 10)).Render(msg.Text)
	default:
		body = renderMarkdown(msg.Text, r)
	}

	var b strings.Builder
	b.WriteString(label)
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")

	if len(msg.Sources) > 0 {
		b.WriteString(mutedStyle.Render("  Sources:"))
		b.WriteString("\n")
		for _, src := range msg.Sources {
			b.WriteString(mutedStyle.Render("    • " + src.Source))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderMarkdown(text string, r *glamour.TermRenderer) string {
	if r == nil {
		return userTextStyle.Render(text)
	}
	out, err := r.Render(text)
	if err != nil {
		return userTextStyle.Render(text)
	}
	return strings.TrimRight(out, "\n")
}

func renderIndicator(healthy, known bool) string {
	switch {
	case !known:
		return pendingStyle.Render("○ checking")
	case healthy:
		return onlineStyle.Render("● online")
	default:
		return offlineStyle.Render("● offline")
	}
}

func renderPushState(state internal.ConnectionState) string {
	text := fmt.Sprintf("live: %s", state)
	switch state {
	case internal.StateOpen:
		return onlineStyle.Render(text)
	case internal.StateConnecting:
		return pendingStyle.Render(text)
	default:
		return mutedStyle.Render(text)
	}
}

func header(width int, left, right string) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
