// Package tui is the terminal front end: a topic/format form, a loading
// indicator, an error panel and a result panel driven by a session.Session.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mikeboe/research-assistant/pkg/formatter"
	"github.com/mikeboe/research-assistant/pkg/session"
)

// Layout constants
const (
	DefaultWidth        = 80
	DefaultResultHeight = 15
	MinResultHeight     = 5
	FormHeight          = 12 // header, inputs and hints above the panels
)

const (
	fieldTopic = iota
	fieldFormat
)

// MsgResearchDone carries the outcome of the request with sequence Seq.
type MsgResearchDone struct {
	Seq    uint64
	Result string
	Err    error
}

type Model struct {
	ctx     context.Context
	session *session.Session

	topic   textinput.Model
	format  textinput.Model
	focused int

	spinner  spinner.Model
	viewport viewport.Model

	width  int
	height int
	hint   string
}

// New builds the model. topic and format prefill the form.
func New(ctx context.Context, sess *session.Session, topic, format string) Model {
	ti := textinput.New()
	ti.Placeholder = "Enter topic..."
	ti.Prompt = "› "
	ti.CharLimit = 500
	ti.Width = DefaultWidth - 4
	ti.SetValue(topic)
	ti.Focus()

	fi := textinput.New()
	fi.Placeholder = "Enter custom format (e.g., summary, bullet points, etc.)"
	fi.Prompt = "› "
	fi.CharLimit = 200
	fi.Width = DefaultWidth - 4
	fi.SetValue(format)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StyleLoading

	return Model{
		ctx:      ctx,
		session:  sess,
		topic:    ti,
		format:   fi,
		spinner:  s,
		viewport: viewport.New(DefaultWidth, DefaultResultHeight),
		width:    DefaultWidth,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) loading() bool {
	return m.session.Phase() == session.PhaseLoading
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.topic.Width = msg.Width - 4
		m.format.Width = msg.Width - 4
		m.viewport.Width = msg.Width
		m.viewport.Height = max(MinResultHeight, msg.Height-FormHeight)
		m.refreshResult()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case MsgResearchDone:
		if m.session.Complete(msg.Seq, msg.Result, msg.Err) {
			m.refreshResult()
			m.viewport.GotoTop()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateInputs(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "enter":
		return m.submit()
	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	// The form is disabled while a request is in flight.
	if m.loading() {
		return m, nil
	}

	switch msg.String() {
	case "tab", "shift+tab":
		return m, m.toggleFocus()
	}
	return m.updateInputs(msg)
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.focused == fieldTopic {
		m.focused = fieldFormat
		m.topic.Blur()
		return m.format.Focus()
	}
	m.focused = fieldTopic
	m.format.Blur()
	return m.topic.Focus()
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	ticket, err := m.session.Begin(m.topic.Value(), m.format.Value())
	switch {
	case errors.Is(err, session.ErrTopicRequired):
		m.hint = "Enter a topic before submitting."
		return m, nil
	case errors.Is(err, session.ErrInFlight):
		return m, nil
	case err != nil:
		m.hint = err.Error()
		return m, nil
	}

	m.hint = ""
	return m, tea.Batch(m.spinner.Tick, m.runResearch(ticket))
}

// runResearch performs the request off the event loop.
func (m Model) runResearch(t session.Ticket) tea.Cmd {
	ctx, sess := m.ctx, m.session
	return func() tea.Msg {
		result, err := sess.Run(ctx, t)
		return MsgResearchDone{Seq: t.Seq, Result: result, Err: err}
	}
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.topic, cmd = m.topic.Update(msg)
	cmds = append(cmds, cmd)
	m.format, cmd = m.format.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) refreshResult() {
	result, ok := m.session.Result()
	if !ok {
		m.viewport.SetContent("")
		return
	}
	// Border and padding take four columns.
	m.viewport.SetContent(renderBlocks(formatter.Format(result), m.width-4))
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Research Assistant"))
	b.WriteString("\n")
	b.WriteString(StyleSubtle.Render("Enter a topic and an output format to get structured research results"))
	b.WriteString("\n\n")

	b.WriteString(StyleLabel.Render("Topic"))
	b.WriteString("\n")
	b.WriteString(m.topic.View())
	b.WriteString("\n")
	b.WriteString(StyleLabel.Render("Format"))
	b.WriteString("\n")
	b.WriteString(m.format.View())
	b.WriteString("\n\n")

	switch st := m.session.State().(type) {
	case session.Loading:
		b.WriteString(m.spinner.View() + StyleLoading.Render(" Researching..."))
		b.WriteString("\n")
	case session.Failure:
		b.WriteString(StyleError.Width(max(20, m.width-2)).Render(st.Message))
		b.WriteString("\n")
	case session.Success:
		panel := lipgloss.JoinVertical(lipgloss.Left,
			StyleResultTitle.Render("Research Results"),
			m.viewport.View(),
		)
		b.WriteString(StyleResult.Render(panel))
		b.WriteString("\n")
	}

	if m.hint != "" {
		b.WriteString(StyleSubtle.Render(m.hint))
		b.WriteString("\n")
	}

	help := "enter: research • tab: switch field • pgup/pgdown: scroll • esc: quit"
	if m.loading() {
		help = "researching… • esc: quit"
	}
	b.WriteString(StyleSubtle.Render(help))
	return b.String()
}

// Run starts the terminal UI and blocks until the user quits.
func Run(ctx context.Context, sess *session.Session, topic, format string) error {
	p := tea.NewProgram(New(ctx, sess, topic, format), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
