package suggest

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"

	"github.com/filmlink/filmlink/internal/metadata"
)

const (
	DefaultQuietInterval  = 250 * time.Millisecond
	DefaultMinQueryLength = 3
)

// SearchFunc performs the network search for a query.
type SearchFunc func(ctx context.Context, query string) ([]metadata.Candidate, error)

// SkipReason explains why a submission produced no network request or
// why its response was dropped.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipTooShort
	SkipDuplicate
	SkipSuperseded
)

func (r SkipReason) String() string {
	switch r {
	case SkipTooShort:
		return "too_short"
	case SkipDuplicate:
		return "duplicate"
	case SkipSuperseded:
		return "superseded"
	default:
		return "none"
	}
}

// Result is the outcome of one debounced submission. Candidates is never nil.
type Result struct {
	Query      string
	Seq        uint64
	Candidates []metadata.Candidate
	Skip       SkipReason
}

// Stale reports whether a newer submission replaced this one.
func (r Result) Stale() bool {
	return r.Skip == SkipSuperseded
}

// Debouncer suppresses redundant searches while the user is typing.
// Each submission takes a sequence number when it is submitted; only the
// submission holding the latest number when its quiet interval elapses
// reaches the network, and only the latest submission's response is
// returned.
type Debouncer struct {
	search SearchFunc
	clock  clockwork.Clock
	quiet  time.Duration
	minLen int

	mu         sync.Mutex
	latest     uint64
	lastIssued string
	issuedSeq  uint64
	issued     bool
}

// Ticket is a submitted query. Submit hands one out in submission order;
// Await resolves it.
type Ticket struct {
	Query string
	Seq   uint64
	skip  SkipReason
}

// DebounceOption configures a Debouncer.
type DebounceOption func(*Debouncer)

// WithQuietInterval sets how long a submission waits for newer keystrokes.
func WithQuietInterval(d time.Duration) DebounceOption {
	return func(db *Debouncer) {
		if d >= 0 {
			db.quiet = d
		}
	}
}

// WithMinQueryLength sets the minimum query length in runes.
func WithMinQueryLength(n int) DebounceOption {
	return func(db *Debouncer) {
		if n >= 0 {
			db.minLen = n
		}
	}
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c clockwork.Clock) DebounceOption {
	return func(db *Debouncer) {
		if c != nil {
			db.clock = c
		}
	}
}

// NewDebouncer wraps search with debounce semantics.
func NewDebouncer(search SearchFunc, opts ...DebounceOption) *Debouncer {
	d := &Debouncer{
		search: search,
		clock:  clockwork.NewRealClock(),
		quiet:  DefaultQuietInterval,
		minLen: DefaultMinQueryLength,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Submit registers a query and returns its ticket without blocking. Hosts
// that resolve tickets concurrently must call Submit in arrival order, on
// the goroutine that receives the input.
//
// A query equal to the last issued one is a duplicate only while nothing
// was submitted after it; a duplicate keeps the issued request current.
func (d *Debouncer) Submit(query string) Ticket {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.issued && query == d.lastIssued && d.latest == d.issuedSeq &&
		utf8.RuneCountInString(query) >= d.minLen {
		return Ticket{Query: query, Seq: d.issuedSeq, skip: SkipDuplicate}
	}

	d.latest++
	t := Ticket{Query: query, Seq: d.latest}
	if utf8.RuneCountInString(query) < d.minLen {
		t.skip = SkipTooShort
	}
	return t
}

// Await blocks for the ticket's quiet interval and then for the network
// request, unless the ticket was skipped at submission. Errors from the
// search function are returned only while the ticket is still the latest;
// a superseded ticket always yields a stale Result.
func (d *Debouncer) Await(ctx context.Context, t Ticket) (Result, error) {
	res := Result{Query: t.Query, Seq: t.Seq, Candidates: []metadata.Candidate{}, Skip: t.skip}
	if t.skip != SkipNone {
		return res, nil
	}

	if d.quiet > 0 {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-d.clock.After(d.quiet):
		}
	}

	d.mu.Lock()
	if t.Seq != d.latest {
		d.mu.Unlock()
		res.Skip = SkipSuperseded
		return res, nil
	}
	d.lastIssued = t.Query
	d.issuedSeq = t.Seq
	d.issued = true
	d.mu.Unlock()

	candidates, err := d.search(ctx, t.Query)

	d.mu.Lock()
	defer d.mu.Unlock()

	if t.Seq != d.latest {
		if d.issuedSeq == t.Seq {
			d.issued = false
		}
		res.Skip = SkipSuperseded
		return res, nil
	}
	if err != nil {
		// Not counted as issued so retyping the same query retries it.
		if d.issuedSeq == t.Seq {
			d.issued = false
		}
		return res, err
	}
	if candidates != nil {
		res.Candidates = candidates
	}
	return res, nil
}

// Search submits a query and waits for its result.
func (d *Debouncer) Search(ctx context.Context, query string) (Result, error) {
	return d.Await(ctx, d.Submit(query))
}

// Latest returns the sequence number of the most recent submission.
func (d *Debouncer) Latest() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latest
}

// Reset forgets the last issued query, e.g. when a new picker opens.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.latest++
	d.lastIssued = ""
	d.issued = false
}
