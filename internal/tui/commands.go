package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/iksnae/docs-chat/internal"
	"github.com/iksnae/docs-chat/internal/export"
)

const helpText = "/clear · /export <format> [path] · /session · /dismiss · /quit"

func sendQuestion(ctx context.Context, conv *internal.Conversation, text string) tea.Cmd {
	return func() tea.Msg {
		_, err := conv.Send(ctx, text)
		return sendDoneMsg{err: err}
	}
}

func waitTranscript(t *internal.Transcript) tea.Cmd {
	return func() tea.Msg {
		<-t.Changes()
		return transcriptChangedMsg{}
	}
}

func waitPushState(push *internal.PushClient) tea.Cmd {
	if push == nil {
		return nil
	}
	return func() tea.Msg {
		return pushStateMsg{state: <-push.StateChanges()}
	}
}

func tickIndicators() tea.Cmd {
	return tea.Tick(indicatorRefresh, func(time.Time) tea.Msg {
		return indicatorTickMsg{}
	})
}

func exportTranscript(snapshot *internal.TranscriptSnapshot, format, path string) tea.Cmd {
	return func() tea.Msg {
		written, err := export.WriteFile(snapshot, format, path)
		return exportDoneMsg{path: written, err: err}
	}
}

// runCommand handles a slash command typed into the input
func (m Model) runCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	switch name {
	case "/quit", "/exit":
		return m, tea.Quit

	case "/clear":
		m.conv.Clear()
		m.notice = "Conversation cleared"
		m.refresh()

	case "/dismiss":
		m.conv.ClearError()
		m.notice = ""

	case "/session":
		if token := m.conv.Identity().Current(); token != "" {
			m.notice = "Session: " + token
		} else {
			m.notice = "No session yet"
		}

	case "/export":
		format := "md"
		path := ""
		if len(args) > 0 {
			format = args[0]
		}
		if len(args) > 1 {
			path = args[1]
		}
		if _, err := export.NewExporter(format); err != nil {
			m.notice = fmt.Sprintf("Unknown format %q (use %s)", format, strings.Join(export.Formats, ", "))
			return m, nil
		}
		m.notice = "Exporting..."
		return m, exportTranscript(m.conv.Snapshot(), format, path)

	case "/help":
		m.notice = helpText

	default:
		m.notice = fmt.Sprintf("Unknown command %s. %s", name, helpText)
	}

	return m, nil
}
