package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policypal/policypal/internal/core/domain"
)

type stubChat struct {
	answer      domain.Answer
	err         error
	lastMessage string
	lastHistory []domain.ConversationTurn
}

func (s *stubChat) Ask(
	_ context.Context, message string, history []domain.ConversationTurn,
) (domain.Answer, error) {
	s.lastMessage = message
	s.lastHistory = history
	return s.answer, s.err
}

func sized(m Model) Model {
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model)
}

func typeQuestion(m Model, question string) Model {
	m.input.SetValue(question)
	return m
}

func TestSubmitSendsQuestionWithHistory(t *testing.T) {
	chat := &stubChat{answer: domain.Answer{Text: "an answer"}}
	m := sized(New(chat))
	m.history = []domain.ConversationTurn{
		{Role: domain.RoleUser, Content: "earlier question"},
	}

	m = typeQuestion(m, "what is EO 14008?")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	require.NotNil(t, cmd)

	assert.True(t, m.waiting)
	assert.Empty(t, m.input.Value())
	assert.Contains(t, m.View(), "what is EO 14008?")

	// Run the command; it calls the service and yields the answer.
	msg := cmd()
	answer, ok := msg.(answerMsg)
	require.True(t, ok)
	assert.Equal(t, "what is EO 14008?", chat.lastMessage)
	require.Len(t, chat.lastHistory, 1)
	assert.Equal(t, "earlier question", chat.lastHistory[0].Content)
	assert.Equal(t, "an answer", answer.answer.Text)
}

func TestEmptyInputIsNotSubmitted(t *testing.T) {
	chat := &stubChat{}
	m := sized(New(chat))

	m = typeQuestion(m, "   ")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	assert.Nil(t, cmd)
	assert.False(t, m.waiting)
}

func TestAnswerAppendsTranscriptAndHistory(t *testing.T) {
	chat := &stubChat{}
	m := sized(New(chat))
	m.waiting = true

	updated, _ := m.Update(answerMsg{
		question: "what is EO 14008?",
		answer: domain.Answer{
			Text: "It addresses the climate crisis.",
			Sources: []domain.SourceRef{
				{OrderNumber: "14008", Title: "Tackling the Climate Crisis"},
			},
		},
	})
	m = updated.(Model)

	assert.False(t, m.waiting)
	view := m.View()
	assert.Contains(t, view, "It addresses the climate crisis.")
	assert.Contains(t, view, "EO 14008")

	require.Len(t, m.history, 2)
	assert.Equal(t, domain.RoleUser, m.history[0].Role)
	assert.Equal(t, "what is EO 14008?", m.history[0].Content)
	assert.Equal(t, domain.RoleAssistant, m.history[1].Role)
}

func TestAnswerErrorIsShownAndNotRecorded(t *testing.T) {
	chat := &stubChat{}
	m := sized(New(chat))
	m.waiting = true

	updated, _ := m.Update(answerMsg{
		question: "q",
		err:      errors.New("embedding service unavailable"),
	})
	m = updated.(Model)

	assert.False(t, m.waiting)
	assert.True(t, strings.HasPrefix(m.status, "Error"))
	assert.Contains(t, m.View(), "embedding service unavailable")
	assert.Empty(t, m.history, "failed turns do not enter history")
}

func TestSubmitWhileWaitingIsIgnored(t *testing.T) {
	chat := &stubChat{}
	m := sized(New(chat))
	m.waiting = true

	m = typeQuestion(m, "second question")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestQuitKeys(t *testing.T) {
	m := sized(New(&stubChat{}))

	for _, key := range []tea.KeyType{tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc} {
		_, cmd := m.Update(tea.KeyMsg{Type: key})
		require.NotNil(t, cmd, "key %v should quit", key)
		assert.Equal(t, tea.Quit(), cmd())
	}
}

func TestSourcesLine(t *testing.T) {
	assert.Empty(t, sourcesLine(nil))

	line := sourcesLine([]domain.SourceRef{
		{OrderNumber: "14008", Title: "Climate"},
		{OrderNumber: "14017", Title: "Travel"},
	})
	assert.Equal(t, "Sources: EO 14008 (Climate), EO 14017 (Travel)", line)
}

func TestGenerationFailureShowsDegradedAnswer(t *testing.T) {
	chat := &stubChat{}
	m := sized(New(chat))
	m.waiting = true

	updated, _ := m.Update(answerMsg{
		question: "what is EO 14008?",
		answer: domain.Answer{
			Text:    "I found relevant passages but couldn't generate an answer right now.",
			Sources: []domain.SourceRef{{OrderNumber: "14008", Title: "Climate"}},
		},
		err: fmt.Errorf("generating answer: %w", domain.ErrGenerationUnavailable),
	})
	m = updated.(Model)

	// The degraded answer and its citations are shown; the failed turn
	// stays out of history.
	view := m.View()
	assert.Contains(t, view, "couldn't generate an answer")
	assert.Contains(t, view, "EO 14008")
	assert.Empty(t, m.history)
	assert.Contains(t, m.status, "Error")
}
