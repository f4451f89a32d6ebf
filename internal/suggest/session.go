// Package suggest implements search-as-you-type suggestions for movie and
// TV show links: the debounced search, the per-session state that replaces
// plugin-wide fields, and the SuggestionSource capability hosts render.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/filmlink/filmlink/internal/config"
	"github.com/filmlink/filmlink/internal/metadata"
)

// ErrQueryTooShort is returned by Lookup for queries below the minimum length.
var ErrQueryTooShort = errors.New("query too short")

// Notifier shows transient, user-visible notices.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

// Editor is the host document: its current selection can be read and replaced.
type Editor interface {
	Selection() string
	ReplaceSelection(text string)
}

// Suggestions is what a host receives for one query. Items is never nil.
// Stale suggestions were superseded by a newer query and must not be shown.
type Suggestions struct {
	Query string
	Seq   uint64
	Items []metadata.Candidate
	Stale bool
	// Skip is the debouncer's reason for an empty answer, if any.
	Skip SkipReason
}

// Rendered is the display form of a candidate.
type Rendered struct {
	Title       string `json:"title"`
	Year        string `json:"year,omitempty"`
	Genres      string `json:"genres,omitempty"`
	Description string `json:"description,omitempty"`
}

// Item pairs a candidate with its display form for hosts that render
// remotely.
type Item struct {
	Candidate metadata.Candidate `json:"candidate"`
	Display   Rendered           `json:"display"`
}

// Source is the SuggestionSource capability a host presenter drives.
type Source interface {
	GetSuggestions(ctx context.Context, query string) Suggestions
	Render(c metadata.Candidate) Rendered
	Choose(ctx context.Context, c metadata.Candidate, ed Editor) (string, bool)
}

// Options configures a Session.
type Options struct {
	QuietInterval  time.Duration
	MinQueryLength int
	GenreSeparator string
	LinkBaseURL    string
	Clock          clockwork.Clock
	Notifier       Notifier
	Logger         zerolog.Logger
}

// DefaultOptions returns the defaults used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		QuietInterval:  DefaultQuietInterval,
		MinQueryLength: DefaultMinQueryLength,
		GenreSeparator: ", ",
		LinkBaseURL:    DefaultLinkBaseURL,
		Logger:         zerolog.Nop(),
	}
}

// OptionsFromConfig maps the suggest configuration section onto Options.
func OptionsFromConfig(cfg config.SuggestConfig, logger zerolog.Logger) Options {
	return Options{
		QuietInterval:  cfg.QuietInterval(),
		MinQueryLength: cfg.MinQueryLength,
		GenreSeparator: cfg.GenreSeparator,
		LinkBaseURL:    cfg.LinkBaseURL,
		Logger:         logger,
	}
}

// Session holds everything one suggestion session needs: the metadata
// client, the media kind, the genre table loaded at start, and the
// debounce state. It is safe for concurrent use.
type Session struct {
	client    metadata.Client
	kind      metadata.MediaKind
	genres    metadata.GenreTable
	debouncer *Debouncer
	notifier  Notifier
	separator string
	linkBase  string
	minLen    int
	logger    zerolog.Logger
}

var _ Source = (*Session)(nil)

// NewSession starts a session for kind. The genre table is fetched once;
// if that fails the session continues with an empty table.
func NewSession(ctx context.Context, client metadata.Client, kind metadata.MediaKind, opts Options) *Session {
	defaults := DefaultOptions()
	if opts.GenreSeparator == "" {
		opts.GenreSeparator = defaults.GenreSeparator
	}
	if opts.LinkBaseURL == "" {
		opts.LinkBaseURL = defaults.LinkBaseURL
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(string) {})
	}

	s := &Session{
		client:    client,
		kind:      kind,
		notifier:  opts.Notifier,
		separator: opts.GenreSeparator,
		linkBase:  opts.LinkBaseURL,
		minLen:    DefaultMinQueryLength,
		logger:    opts.Logger.With().Str("component", "suggest").Str("kind", kind.String()).Logger(),
	}

	debounceOpts := []DebounceOption{WithClock(opts.Clock)}
	if opts.QuietInterval > 0 {
		debounceOpts = append(debounceOpts, WithQuietInterval(opts.QuietInterval))
	}
	if opts.MinQueryLength > 0 {
		s.minLen = opts.MinQueryLength
		debounceOpts = append(debounceOpts, WithMinQueryLength(opts.MinQueryLength))
	}
	s.debouncer = NewDebouncer(s.search, debounceOpts...)

	genres, err := client.GenreTable(ctx, kind)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load genre table, genres will not be shown")
		s.notifier.Notify(fmt.Sprintf("Could not load %s genres", kind.Label()))
		genres = metadata.GenreTable{}
	}
	s.genres = genres

	return s
}

// Kind returns the media kind this session searches.
func (s *Session) Kind() metadata.MediaKind {
	return s.kind
}

// Genres returns the session's read-only genre table.
func (s *Session) Genres() metadata.GenreTable {
	return s.genres
}

func (s *Session) search(ctx context.Context, query string) ([]metadata.Candidate, error) {
	return metadata.Search(ctx, s.client, s.kind, query)
}

// GetSuggestions runs a debounced search. Failures are logged and noticed
// and yield no suggestions.
func (s *Session) GetSuggestions(ctx context.Context, query string) Suggestions {
	return s.Await(ctx, s.Submit(query))
}

// Submit registers query with the debouncer without blocking. Hosts that
// resolve suggestions on separate goroutines call it where input arrives,
// so submission order matches typing order.
func (s *Session) Submit(query string) Ticket {
	return s.debouncer.Submit(query)
}

// Await resolves a ticket from Submit into suggestions.
func (s *Session) Await(ctx context.Context, t Ticket) Suggestions {
	res, err := s.debouncer.Await(ctx, t)
	out := Suggestions{
		Query: t.Query,
		Seq:   res.Seq,
		Items: res.Candidates,
		Stale: res.Stale(),
		Skip:  res.Skip,
	}
	if out.Items == nil {
		out.Items = []metadata.Candidate{}
	}

	if err != nil {
		if ctx.Err() != nil {
			// The host abandoned the query.
			out.Stale = true
			return out
		}
		s.logger.Error().Err(err).Str("query", t.Query).Msg("Search failed")
		s.notifier.Notify(fmt.Sprintf("Search for %q failed: %v", t.Query, err))
		out.Items = []metadata.Candidate{}
		return out
	}

	s.logger.Debug().
		Str("query", t.Query).
		Uint64("seq", res.Seq).
		Str("skip", res.Skip.String()).
		Int("results", len(out.Items)).
		Msg("Suggestions ready")

	return out
}

// Lookup searches immediately, without debouncing. It is meant for one-shot
// callers such as the CLI.
func (s *Session) Lookup(ctx context.Context, query string) ([]metadata.Candidate, error) {
	if utf8.RuneCountInString(query) < s.minLen {
		return nil, fmt.Errorf("%w: %q needs at least %d characters", ErrQueryTooShort, query, s.minLen)
	}
	candidates, err := s.search(ctx, query)
	if err != nil {
		return nil, err
	}
	if candidates == nil {
		candidates = []metadata.Candidate{}
	}
	return candidates, nil
}

// Render returns the display form of c with genres resolved through the
// session's genre table.
func (s *Session) Render(c metadata.Candidate) Rendered {
	r := Rendered{
		Title:  c.Title,
		Year:   c.Year(),
		Genres: s.genres.Describe(c.GenreIDs, s.separator),
	}

	switch {
	case r.Year != "" && r.Genres != "":
		r.Description = r.Year + s.separator + r.Genres
	case r.Year != "":
		r.Description = r.Year
	default:
		r.Description = r.Genres
	}
	return r
}

// RenderAll renders every candidate in order. The result is never nil.
func (s *Session) RenderAll(candidates []metadata.Candidate) []Item {
	items := make([]Item, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, Item{Candidate: c, Display: s.Render(c)})
	}
	return items
}

// Link resolves c's external id and formats the markdown link. The second
// result is false when resolution failed; the failure has been noticed.
func (s *Session) Link(ctx context.Context, c metadata.Candidate) (string, bool) {
	link, err := s.client.ResolveExternalID(ctx, c)
	if err != nil {
		s.logger.Error().Err(err).Int("id", c.ID).Str("title", c.Title).Msg("Failed to resolve external id")
		s.notifier.Notify(fmt.Sprintf("Could not resolve a link for %q", c.Title))
		return "", false
	}
	return CandidateLink(c, link, s.linkBase), true
}

// Choose replaces the editor selection with the link for c and returns
// the inserted text. Nothing is inserted when resolution fails.
func (s *Session) Choose(ctx context.Context, c metadata.Candidate, ed Editor) (string, bool) {
	text, ok := s.Link(ctx, c)
	if !ok {
		return "", false
	}
	ed.ReplaceSelection(text)
	s.logger.Info().Int("id", c.ID).Str("link", text).Msg("Inserted link")
	return text, true
}

// Reset clears the debounce state so a new picker starts fresh.
func (s *Session) Reset() {
	s.debouncer.Reset()
}
