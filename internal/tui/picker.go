// Package tui implements the interactive terminal picker: a text input
// prefilled with the selection, live suggestions below it and a status
// line for notices.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/filmlink/filmlink/internal/metadata"
	"github.com/filmlink/filmlink/internal/suggest"
)

const maxVisible = 10

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	detailStyle   = lipgloss.NewStyle().Faint(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

// Notices is a buffered Notifier the picker drains into its status line.
type Notices chan string

// NewNotices returns a Notices channel with room for a few messages.
func NewNotices() Notices {
	return make(Notices, 16)
}

// Notify drops the message when the buffer is full.
func (n Notices) Notify(message string) {
	select {
	case n <- message:
	default:
	}
}

type suggestionsMsg struct {
	res suggest.Suggestions
}

type noticeMsg string

type linkMsg struct {
	link string
	ok   bool
}

// Model is the Bubble Tea model of the picker.
type Model struct {
	ctx     context.Context
	session *suggest.Session
	editor  suggest.Editor
	notices Notices

	input   textinput.Model
	items   []suggest.Item
	cursor  int
	offset  int
	lastSeq uint64
	status  string
	busy    bool

	link     string
	canceled bool
}

// New builds a picker for session. The input starts with the editor's
// current selection.
func New(ctx context.Context, session *suggest.Session, editor suggest.Editor, notices Notices) Model {
	ti := textinput.New()
	ti.Placeholder = fmt.Sprintf("Search %ss...", session.Kind().Label())
	ti.Prompt = "> "
	ti.CharLimit = 200
	ti.SetValue(editor.Selection())
	ti.Focus()

	return Model{
		ctx:     ctx,
		session: session,
		editor:  editor,
		notices: notices,
		input:   ti,
		items:   []suggest.Item{},
	}
}

// Link returns the inserted link once the user chose a candidate.
func (m Model) Link() string {
	return m.link
}

// Canceled reports whether the picker was closed without a choice.
func (m Model) Canceled() bool {
	return m.canceled
}

// Items returns the suggestions currently shown.
func (m Model) Items() []suggest.Item {
	return m.items
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.search(m.input.Value()), m.waitForNotice())
}

// search submits query immediately, on the Update loop, so tickets follow
// keystroke order; only the wait runs in the command.
func (m Model) search(query string) tea.Cmd {
	ticket := m.session.Submit(query)
	return func() tea.Msg {
		return suggestionsMsg{res: m.session.Await(m.ctx, ticket)}
	}
}

func (m Model) choose(c metadata.Candidate) tea.Cmd {
	return func() tea.Msg {
		link, ok := m.session.Choose(m.ctx, c, m.editor)
		return linkMsg{link: link, ok: ok}
	}
}

func (m Model) waitForNotice() tea.Cmd {
	if m.notices == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case n := <-m.notices:
			return noticeMsg(n)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case suggestionsMsg:
		res := msg.res
		if res.Stale || res.Skip == suggest.SkipDuplicate || res.Seq < m.lastSeq {
			return m, nil
		}
		m.lastSeq = res.Seq
		m.items = m.session.RenderAll(res.Items)
		m.cursor = 0
		m.offset = 0
		return m, nil

	case noticeMsg:
		m.status = string(msg)
		return m, m.waitForNotice()

	case linkMsg:
		m.busy = false
		if !msg.ok {
			return m, nil
		}
		m.link = msg.link
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.canceled = true
		return m, tea.Quit

	case tea.KeyUp, tea.KeyCtrlP:
		if m.cursor > 0 {
			m.cursor--
		}
		m.scrollToCursor()
		return m, nil

	case tea.KeyDown, tea.KeyCtrlN:
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
		m.scrollToCursor()
		return m, nil

	case tea.KeyEnter:
		if m.busy || len(m.items) == 0 {
			return m, nil
		}
		m.busy = true
		m.status = "Resolving link..."
		return m, m.choose(m.items[m.cursor].Candidate)
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.search(m.input.Value()))
}

// scrollToCursor keeps the cursor inside the visible window.
func (m *Model) scrollToCursor() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+maxVisible {
		m.offset = m.cursor - maxVisible + 1
	}
}

// visible returns the window of items drawn by View.
func (m Model) visible() []suggest.Item {
	end := min(m.offset+maxVisible, len(m.items))
	return m.items[m.offset:end]
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Insert %s link", m.session.Kind().Label())))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if m.offset > 0 {
		b.WriteString(detailStyle.Render(fmt.Sprintf("  ... %d above", m.offset)))
		b.WriteString("\n")
	}
	window := m.visible()
	for i, item := range window {
		line := "  " + item.Display.Title
		if m.offset+i == m.cursor {
			line = selectedStyle.Render("> " + item.Display.Title)
		}
		b.WriteString(line)
		if item.Display.Description != "" {
			b.WriteString(" ")
			b.WriteString(detailStyle.Render(item.Display.Description))
		}
		b.WriteString("\n")
	}
	if below := len(m.items) - m.offset - len(window); below > 0 {
		b.WriteString(detailStyle.Render(fmt.Sprintf("  ... %d more", below)))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("\nup/down move • enter insert • esc cancel"))
	return b.String()
}
