// Package tui provides the interactive chat interface for PolicyPal,
// built with Bubble Tea.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/policypal/policypal/internal/core/domain"
	"github.com/policypal/policypal/internal/core/ports/driving"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	questionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// answerMsg delivers the result of an Ask call back to the model.
type answerMsg struct {
	question string
	answer   domain.Answer
	err      error
}

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	chat     driving.ChatService
	input    textinput.Model
	viewport viewport.Model

	history    []domain.ConversationTurn
	transcript []string
	status     string
	waiting    bool
	ready      bool
}

// New creates a new chat model.
func New(chat driving.ChatService) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about an Executive Order and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	vp := viewport.New(0, 0)

	return Model{
		chat:     chat,
		input:    ti,
		viewport: vp,
		status:   "Ready. Type a question.",
	}
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ah := answerBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // header, spacer, input frame, status
		vh := msg.Height - reserved - ah
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width-2)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			return m.submit()
		}

	case answerMsg:
		return m.receive(msg), nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := headerStyle.Render("PolicyPal | Executive Orders Q&A")
	transcript := answerBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())

	status := statusStyle.Render(m.status)
	if strings.HasPrefix(m.status, "Error") {
		status = errorStyle.Render(m.status)
	}

	return header + "\n" + transcript + "\n" + input + "\n" + status
}

// submit sends the typed question to the chat service.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.waiting {
		return m, nil
	}
	question := strings.TrimSpace(m.input.Value())
	if question == "" {
		return m, nil
	}

	m.input.SetValue("")
	m.waiting = true
	m.status = "Thinking..."
	m.transcript = append(m.transcript, questionStyle.Render("You: ")+question)
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()

	return m, m.ask(question, m.history)
}

// ask runs the question against the chat service off the UI loop.
func (m Model) ask(question string, history []domain.ConversationTurn) tea.Cmd {
	chat := m.chat
	return func() tea.Msg {
		answer, err := chat.Ask(context.Background(), question, history)
		return answerMsg{question: question, answer: answer, err: err}
	}
}

// receive folds an answer back into the transcript and history.
func (m Model) receive(msg answerMsg) Model {
	m.waiting = false

	if msg.err != nil && msg.answer.Text == "" {
		m.status = "Error: " + msg.err.Error()
		m.transcript = append(m.transcript, errorStyle.Render("Answer failed: "+msg.err.Error()))
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m
	}

	if msg.err != nil {
		// Degraded answer: show the apology text and the citations that
		// were still retrieved, but keep the turn out of history.
		m.status = "Error: " + msg.err.Error()
		m.transcript = append(m.transcript, "PolicyPal: "+msg.answer.Text)
		if line := sourcesLine(msg.answer.Sources); line != "" {
			m.transcript = append(m.transcript, sourceStyle.Render(line))
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m
	}

	m.status = "Ready."
	m.transcript = append(m.transcript, "PolicyPal: "+msg.answer.Text)
	if line := sourcesLine(msg.answer.Sources); line != "" {
		m.transcript = append(m.transcript, sourceStyle.Render(line))
	}

	m.history = append(m.history,
		domain.ConversationTurn{Role: domain.RoleUser, Content: msg.question},
		domain.ConversationTurn{Role: domain.RoleAssistant, Content: msg.answer.Text, Sources: msg.answer.Sources},
	)

	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
	return m
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return "Ask a question about the ingested Executive Orders."
	}
	return strings.Join(m.transcript, "\n\n")
}

// sourcesLine formats citations for display under an answer.
func sourcesLine(sources []domain.SourceRef) string {
	if len(sources) == 0 {
		return ""
	}
	parts := make([]string, len(sources))
	for i, src := range sources {
		parts[i] = fmt.Sprintf("EO %s (%s)", src.OrderNumber, src.Title)
	}
	return "Sources: " + strings.Join(parts, ", ")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
