// Package tui is the interactive chat window: a transcript viewport, an
// input line, and indicators for backend health and the live channel.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/iksnae/docs-chat/internal"
)

const (
	defaultWidth  = 80
	defaultHeight = 24

	// header, status line, input
	chromeHeight = 3

	indicatorRefresh = time.Second
)

type (
	sendDoneMsg struct{ err error }

	transcriptChangedMsg struct{}

	pushStateMsg struct{ state internal.ConnectionState }

	indicatorTickMsg struct{}

	exportDoneMsg struct {
		path string
		err  error
	}
)

// Model is the bubbletea model of the chat window
type Model struct {
	ctx  context.Context
	conv *internal.Conversation

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	width, height int

	sending     bool
	notice      string
	pushState   internal.ConnectionState
	healthy     bool
	healthKnown bool
	topicIndex  int
}

// New builds the chat window for conv. ctx bounds every question sent.
func New(ctx context.Context, conv *internal.Conversation) Model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.Placeholder = "Type your question..."
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = pendingStyle

	vp := viewport.New(defaultWidth, defaultHeight-chromeHeight)
	vp.MouseWheelEnabled = true

	m := Model{
		ctx:       ctx,
		conv:      conv,
		input:     input,
		viewport:  vp,
		spinner:   sp,
		renderer:  newRenderer(defaultWidth),
		width:     defaultWidth,
		height:    defaultHeight,
		pushState: internal.StateDisconnected,
	}
	if push := conv.Push(); push != nil {
		m.pushState = push.State()
	}
	m.refresh()
	return m
}

// Init starts the listeners feeding the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		waitTranscript(m.conv.Transcript()),
		waitPushState(m.conv.Push()),
		tickIndicators(),
	)
}

// Update handles one message
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = maxInt(msg.Height-chromeHeight, 3)
		m.input.Width = maxInt(msg.Width-4, 10)
		m.renderer = newRenderer(msg.Width)
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyTab:
			if m.input.Value() == "" && m.conv.Transcript().Len() == 0 {
				m.input.SetValue(suggestedTopics[m.topicIndex%len(suggestedTopics)])
				m.input.CursorEnd()
				m.topicIndex++
				return m, nil
			}
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case sendDoneMsg:
		m.sending = false
		if errors.Is(msg.err, internal.ErrBusy) {
			m.notice = "Still waiting for the previous answer"
		}
		m.refresh()

	case transcriptChangedMsg:
		m.refresh()
		cmds = append(cmds, waitTranscript(m.conv.Transcript()))

	case pushStateMsg:
		m.pushState = msg.state
		cmds = append(cmds, waitPushState(m.conv.Push()))

	case indicatorTickMsg:
		m.healthy, m.healthKnown = m.conv.Healthy()
		cmds = append(cmds, tickIndicators())

	case exportDoneMsg:
		if msg.err != nil {
			m.notice = "Export failed: " + msg.err.Error()
		} else {
			m.notice = "Exported to " + msg.path
		}

	case spinner.TickMsg:
		if m.sending {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	if _, isKey := msg.(tea.KeyMsg); !isKey {
		// Typed keys belong to the input; the viewport only scrolls on
		// PgUp/PgDown and the mouse wheel.
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		m.input.Reset()
		return m.runCommand(strings.TrimSpace(text))
	}

	if m.sending {
		m.notice = "Still waiting for the previous answer"
		return m, nil
	}

	m.notice = ""
	if strings.TrimSpace(text) == "" {
		// Rejected locally; Send records the validation error.
		_, _ = m.conv.Send(m.ctx, text)
		return m, nil
	}

	m.input.Reset()
	m.sending = true
	return m, tea.Batch(sendQuestion(m.ctx, m.conv, text), m.spinner.Tick)
}

func (m *Model) refresh() {
	m.viewport.SetContent(renderTranscript(m.conv.Transcript().Snapshot(), m.renderer, m.width))
	m.viewport.GotoBottom()
}

// View renders the window
func (m Model) View() string {
	var b strings.Builder

	right := renderIndicator(m.healthy, m.healthKnown)
	if m.conv.Push() != nil {
		right = renderPushState(m.pushState) + "  " + right
	}
	b.WriteString(header(m.width, titleStyle.Render("Documentation Assistant"), right))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m Model) statusLine() string {
	switch {
	case m.sending:
		return m.spinner.View() + " " + mutedStyle.Render("Thinking...")
	case m.conv.LastError() != "":
		return errorStyle.Render(m.conv.LastError()) + mutedStyle.Render("  (/dismiss)")
	case m.notice != "":
		return mutedStyle.Render(m.notice)
	default:
		return mutedStyle.Render("Enter to send · /help for commands · Esc to quit")
	}
}
