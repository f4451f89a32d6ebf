package metadata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/filmlink/filmlink/internal/metadata/tmdb"
)

var ErrUnknownMediaKind = errors.New("unknown media kind")

// MediaKind distinguishes movies from TV shows.
type MediaKind string

const (
	KindMovie  MediaKind = "movie"
	KindTVShow MediaKind = "tv"
)

// ParseMediaKind accepts the user-facing spellings of a media kind.
func ParseMediaKind(s string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies", "film":
		return KindMovie, nil
	case "tv", "show", "shows", "series", "tvshow":
		return KindTVShow, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMediaKind, s)
	}
}

func (k MediaKind) String() string {
	return string(k)
}

// Label returns a human readable name for the kind.
func (k MediaKind) Label() string {
	if k == KindTVShow {
		return "TV show"
	}
	return "movie"
}

func (k MediaKind) tmdbType() tmdb.MediaType {
	if k == KindTVShow {
		return tmdb.MediaTypeTV
	}
	return tmdb.MediaTypeMovie
}

// Candidate is a single movie or TV show search result offered as a suggestion.
// Candidates are immutable once built.
type Candidate struct {
	ID       int       `json:"id"`
	Kind     MediaKind `json:"kind"`
	Title    string    `json:"title"`
	Date     string    `json:"date,omitempty"`
	GenreIDs []int     `json:"genreIds,omitempty"`
	Overview string    `json:"overview,omitempty"`
}

// CandidateFromMovie builds a Candidate from a TMDB movie search result.
func CandidateFromMovie(m tmdb.MovieResult) Candidate {
	return Candidate{
		ID:       m.ID,
		Kind:     KindMovie,
		Title:    m.Title,
		Date:     m.ReleaseDate,
		GenreIDs: append([]int(nil), m.GenreIDs...),
		Overview: m.Overview,
	}
}

// CandidateFromTVShow builds a Candidate from a TMDB TV search result.
func CandidateFromTVShow(tv tmdb.TVResult) Candidate {
	return Candidate{
		ID:       tv.ID,
		Kind:     KindTVShow,
		Title:    tv.Name,
		Date:     tv.FirstAirDate,
		GenreIDs: append([]int(nil), tv.GenreIDs...),
		Overview: tv.Overview,
	}
}

// Year returns the four digit year of the candidate's date, or "" when unknown.
func (c Candidate) Year() string {
	if len(c.Date) < 4 {
		return ""
	}
	year := c.Date[:4]
	for _, r := range year {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return year
}

// ExternalLink is the result of resolving a candidate's external identifier.
// ImdbID is nil when the metadata provider knows no IMDb id for the title.
type ExternalLink struct {
	Kind   MediaKind `json:"kind"`
	ID     int       `json:"id"`
	ImdbID *string   `json:"imdbId"`
}
