package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/filmlink/filmlink/internal/config"
	"github.com/filmlink/filmlink/internal/metadata/tmdb"
)

var ErrNotConfigured = errors.New("metadata provider is not configured")

// TMDBClient defines the TMDB operations the service relies on.
type TMDBClient interface {
	Name() string
	IsConfigured() bool
	SetToken(token string)
	Test(ctx context.Context) error
	SearchMovies(ctx context.Context, query string) ([]tmdb.MovieResult, error)
	SearchTV(ctx context.Context, query string) ([]tmdb.TVResult, error)
	GetExternalIDs(ctx context.Context, mediaType tmdb.MediaType, id int) (*tmdb.ExternalIDs, error)
	GetGenres(ctx context.Context, mediaType tmdb.MediaType) ([]tmdb.Genre, error)
}

// Service implements Client on top of TMDB and caches resolved external ids.
type Service struct {
	tmdb   TMDBClient
	cache  *ExternalIDCache
	logger zerolog.Logger
}

var _ Client = (*Service)(nil)

// NewService creates a new metadata service with a real TMDB client.
func NewService(cfg config.TMDBConfig, cacheCfg CacheConfig, logger zerolog.Logger) *Service {
	return NewServiceWithClient(tmdb.NewClient(cfg, logger), cacheCfg, logger)
}

// NewServiceWithClient creates a new metadata service with a custom TMDB client.
func NewServiceWithClient(client TMDBClient, cacheCfg CacheConfig, logger zerolog.Logger) *Service {
	return &Service{
		tmdb:   client,
		cache:  NewExternalIDCache(cacheCfg),
		logger: logger.With().Str("component", "metadata").Logger(),
	}
}

// IsConfigured returns true when the provider has a credential.
func (s *Service) IsConfigured() bool {
	return s.tmdb.IsConfigured()
}

// SetToken swaps the provider credential and drops cached lookups.
func (s *Service) SetToken(token string) {
	s.tmdb.SetToken(token)
	s.cache.Clear()
}

// Test checks that the provider is reachable with the current credential.
func (s *Service) Test(ctx context.Context) error {
	if !s.tmdb.IsConfigured() {
		return ErrNotConfigured
	}
	return s.tmdb.Test(ctx)
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.tmdb.Name()
}

// SearchMovies searches movies by title.
func (s *Service) SearchMovies(ctx context.Context, title string) ([]Candidate, error) {
	results, err := s.tmdb.SearchMovies(ctx, title)
	if err != nil {
		s.logger.Error().Err(err).Str("query", title).Msg("TMDB movie search failed")
		return nil, fmt.Errorf("movie search failed: %w", err)
	}

	candidates := make([]Candidate, len(results))
	for i, m := range results {
		candidates[i] = CandidateFromMovie(m)
	}
	return candidates, nil
}

// SearchTVShows searches TV shows by title.
func (s *Service) SearchTVShows(ctx context.Context, title string) ([]Candidate, error) {
	results, err := s.tmdb.SearchTV(ctx, title)
	if err != nil {
		s.logger.Error().Err(err).Str("query", title).Msg("TMDB TV search failed")
		return nil, fmt.Errorf("TV search failed: %w", err)
	}

	candidates := make([]Candidate, len(results))
	for i, tv := range results {
		candidates[i] = CandidateFromTVShow(tv)
	}
	return candidates, nil
}

// ResolveExternalID resolves the IMDb id of a candidate. Successful
// lookups, including "no IMDb id", are cached; failures are not.
func (s *Service) ResolveExternalID(ctx context.Context, c Candidate) (ExternalLink, error) {
	if link, ok := s.cache.Get(c.Kind, c.ID); ok {
		s.logger.Debug().Str("kind", c.Kind.String()).Int("id", c.ID).Msg("External id cache hit")
		return link, nil
	}

	ids, err := s.tmdb.GetExternalIDs(ctx, c.Kind.tmdbType(), c.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("kind", c.Kind.String()).Int("id", c.ID).Msg("External id lookup failed")
		return ExternalLink{}, fmt.Errorf("external id lookup failed: %w", err)
	}

	link := ExternalLink{Kind: c.Kind, ID: c.ID}
	if ids.ImdbID != nil && *ids.ImdbID != "" {
		imdb := *ids.ImdbID
		link.ImdbID = &imdb
	}

	s.cache.Set(link)
	return link, nil
}

// GenreTable fetches the genre lookup for kind. The table is built in full
// before it is returned, so a failed fetch never yields a partial table.
func (s *Service) GenreTable(ctx context.Context, kind MediaKind) (GenreTable, error) {
	genres, err := s.tmdb.GetGenres(ctx, kind.tmdbType())
	if err != nil {
		s.logger.Error().Err(err).Str("kind", kind.String()).Msg("Genre list fetch failed")
		return nil, fmt.Errorf("genre list fetch failed: %w", err)
	}
	return NewGenreTable(genres), nil
}

// ClearCache drops all cached external ids.
func (s *Service) ClearCache() {
	s.cache.Clear()
}
