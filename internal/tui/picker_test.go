package tui

import (
	"context"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmlink/filmlink/internal/editor"
	"github.com/filmlink/filmlink/internal/metadata"
	"github.com/filmlink/filmlink/internal/metadata/mock"
	"github.com/filmlink/filmlink/internal/suggest"
)

func newTestPicker(t *testing.T, text string) (Model, *editor.Buffer, Notices) {
	t.Helper()

	service := metadata.NewServiceWithClient(mock.NewTMDBClient(), metadata.DefaultCacheConfig(), zerolog.Nop())
	notices := NewNotices()
	session := suggest.NewSession(context.Background(), service, metadata.KindMovie, suggest.Options{
		QuietInterval: time.Millisecond,
		Notifier:      notices,
	})

	buf := editor.NewBuffer(text)
	require.True(t, buf.SelectText("dune"))

	return New(context.Background(), session, buf, notices), buf, notices
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestPicker_PrefillsSelection(t *testing.T) {
	m, _, _ := newTestPicker(t, "I watched dune.")
	assert.Equal(t, "dune", m.input.Value())
	assert.Contains(t, m.View(), "Insert movie link")
}

func TestPicker_SearchAndChoose(t *testing.T) {
	m, buf, _ := newTestPicker(t, "I watched dune.")

	msg := m.search("dune")()
	m, _ = update(t, m, msg)
	require.Len(t, m.Items(), 2)
	assert.Contains(t, m.View(), "Dune: Part Two")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor, "cursor stays on the last item")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	m, quit := update(t, m, cmd())
	require.NotNil(t, quit)
	assert.Equal(t, "[Dune: Part Two (2024)](https://www.imdb.com/title/tt15239678)", m.Link())
	assert.Equal(t, "I watched [Dune: Part Two (2024)](https://www.imdb.com/title/tt15239678).", buf.Text())
	assert.False(t, m.Canceled())
}

func TestPicker_IgnoresStaleAndOlderResults(t *testing.T) {
	m, _, _ := newTestPicker(t, "dune")

	items := []metadata.Candidate{{ID: 438631, Kind: metadata.KindMovie, Title: "Dune"}}

	m, _ = update(t, m, suggestionsMsg{res: suggest.Suggestions{Query: "dun", Seq: 3, Items: items, Stale: true}})
	assert.Empty(t, m.Items())

	m, _ = update(t, m, suggestionsMsg{res: suggest.Suggestions{Query: "dune", Seq: 5, Items: items}})
	require.Len(t, m.Items(), 1)

	m, _ = update(t, m, suggestionsMsg{res: suggest.Suggestions{Query: "du", Seq: 4, Items: []metadata.Candidate{}}})
	assert.Len(t, m.Items(), 1, "an older response must not replace newer results")

	m, _ = update(t, m, suggestionsMsg{res: suggest.Suggestions{Query: "dune", Seq: 6, Items: []metadata.Candidate{}, Skip: suggest.SkipDuplicate}})
	assert.Len(t, m.Items(), 1, "a duplicate query keeps the current list")
}

func TestPicker_SearchOrderFollowsKeystrokes(t *testing.T) {
	m, _, _ := newTestPicker(t, "dune")

	// Both searches are started before either completes; the later
	// keystroke wins even when its command finishes first.
	earlier := m.search("batm")
	later := m.search("batman")

	m, _ = update(t, m, later())

	msg, ok := earlier().(suggestionsMsg)
	require.True(t, ok)
	assert.True(t, msg.res.Stale)
	assert.Equal(t, "batm", msg.res.Query)
	m, _ = update(t, m, msg)

	require.NotEmpty(t, m.Items())
	for _, item := range m.Items() {
		assert.Contains(t, item.Candidate.Title, "Batman")
	}
	assert.Len(t, m.Items(), 3)
}

func TestPicker_CursorScrollsBeyondVisibleRows(t *testing.T) {
	m, _, _ := newTestPicker(t, "dune")

	candidates := make([]metadata.Candidate, 20)
	for i := range candidates {
		candidates[i] = metadata.Candidate{ID: i + 1, Kind: metadata.KindMovie, Title: fmt.Sprintf("Title%02d", i)}
	}
	m, _ = update(t, m, suggestionsMsg{res: suggest.Suggestions{Seq: 1, Items: candidates}})

	for range 12 {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 12, m.cursor)

	visible := m.visible()
	require.Len(t, visible, maxVisible)
	titles := make([]string, len(visible))
	for i, item := range visible {
		titles[i] = item.Candidate.Title
	}
	assert.Contains(t, titles, "Title12")
	assert.Equal(t, "Title12", titles[len(titles)-1])

	view := m.View()
	assert.Contains(t, view, "> Title12")
	assert.Contains(t, view, "3 above")
	assert.Contains(t, view, "7 more")
	assert.NotContains(t, view, "Title02")

	for range 12 {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	}
	assert.Equal(t, 0, m.cursor)
	assert.Equal(t, 0, m.offset)
	assert.Contains(t, m.View(), "> Title00")
}

func TestPicker_ResolveFailureShowsNotice(t *testing.T) {
	m, buf, notices := newTestPicker(t, "dune")

	m, _ = update(t, m, suggestionsMsg{res: suggest.Suggestions{
		Seq:   1,
		Items: []metadata.Candidate{{ID: 1, Kind: metadata.KindMovie, Title: "Ghost Movie"}},
	}})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, quit := update(t, m, cmd())
	assert.Nil(t, quit)
	assert.Empty(t, m.Link())
	assert.Equal(t, "dune", buf.Text())

	select {
	case n := <-notices:
		m, _ = update(t, m, noticeMsg(n))
	case <-time.After(time.Second):
		t.Fatal("expected a notice")
	}
	assert.Contains(t, m.View(), "Ghost Movie")
}

func TestPicker_TypingIssuesSearch(t *testing.T) {
	m, _, _ := newTestPicker(t, "dune")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Equal(t, "dunex", m.input.Value())
	assert.NotNil(t, cmd)

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Nil(t, cmd)
}

func TestPicker_EnterWithoutItemsDoesNothing(t *testing.T) {
	m, _, _ := newTestPicker(t, "dune")

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestPicker_EscCancels(t *testing.T) {
	m, _, _ := newTestPicker(t, "dune")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.NotNil(t, cmd)
	assert.True(t, m.Canceled())
}

func TestNotices_DropsWhenFull(t *testing.T) {
	n := make(Notices, 1)
	n.Notify("first")
	n.Notify("second")
	assert.Equal(t, "first", <-n)
}
