package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/filmlink/filmlink/internal/config"
)

var (
	ErrTokenMissing     = errors.New("TMDB API token is not configured")
	ErrNotFound         = errors.New("TMDB resource not found")
	ErrAPIError         = errors.New("TMDB API error")
	ErrUnauthorized     = fmt.Errorf("%w: invalid API token", ErrAPIError)
	ErrRateLimited      = errors.New("TMDB API rate limited")
	ErrInvalidMediaType = errors.New("invalid media type")
)

// Client is a TMDB API client authenticated with a v4 bearer token.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	logger     zerolog.Logger

	mu    sync.RWMutex
	token string
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "tmdb").Logger(),
		token:  cfg.Token,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if the API token is set.
func (c *Client) IsConfigured() bool {
	return c.bearer() != ""
}

// SetToken replaces the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Test verifies connectivity to the TMDB API by making a configuration request.
func (c *Client) Test(ctx context.Context) error {
	var result struct {
		Images struct {
			BaseURL string `json:"base_url"`
		} `json:"images"`
	}

	return c.get(ctx, "/configuration", nil, &result)
}

// SearchMovies searches movies by title. Only the first result page is requested.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]MovieResult, error) {
	var response SearchMoviesResponse
	if err := c.get(ctx, "/search/movie", c.searchParams(query), &response); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(response.Results)).
		Int("totalResults", response.TotalResults).
		Msg("Movie search completed")

	if response.Results == nil {
		return []MovieResult{}, nil
	}
	return response.Results, nil
}

// SearchTV searches TV shows by name. Only the first result page is requested.
func (c *Client) SearchTV(ctx context.Context, query string) ([]TVResult, error) {
	var response SearchTVResponse
	if err := c.get(ctx, "/search/tv", c.searchParams(query), &response); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(response.Results)).
		Int("totalResults", response.TotalResults).
		Msg("TV search completed")

	if response.Results == nil {
		return []TVResult{}, nil
	}
	return response.Results, nil
}

// GetExternalIDs fetches the external ids of a movie or TV show.
func (c *Client) GetExternalIDs(ctx context.Context, mediaType MediaType, id int) (*ExternalIDs, error) {
	if !mediaType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMediaType, mediaType)
	}

	var ids ExternalIDs
	path := fmt.Sprintf("/%s/%d/external_ids", mediaType, id)
	if err := c.get(ctx, path, nil, &ids); err != nil {
		return nil, err
	}

	imdb := ""
	if ids.ImdbID != nil {
		imdb = *ids.ImdbID
	}
	c.logger.Debug().
		Str("mediaType", string(mediaType)).
		Int("id", id).
		Str("imdbId", imdb).
		Msg("Got external ids")

	return &ids, nil
}

// GetGenres fetches the official genre list for a media type.
func (c *Client) GetGenres(ctx context.Context, mediaType MediaType) ([]Genre, error) {
	if !mediaType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMediaType, mediaType)
	}

	params := url.Values{}
	params.Set("language", c.language())

	var response GenreListResponse
	if err := c.get(ctx, fmt.Sprintf("/genre/%s/list", mediaType), params, &response); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("mediaType", string(mediaType)).
		Int("genres", len(response.Genres)).
		Msg("Got genre list")

	return response.Genres, nil
}

func (c *Client) searchParams(query string) url.Values {
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	params.Set("language", c.language())
	params.Set("page", "1")
	return params
}

func (c *Client) language() string {
	if c.config.Language == "" {
		return "en-US"
	}
	return c.config.Language
}

// get performs an authenticated HTTP GET request and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	token := c.bearer()
	if token == "" {
		return ErrTokenMissing
	}

	endpoint := c.config.BaseURL + path
	reqURL := endpoint
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("message", errResp.StatusMessage).
				Str("url", endpoint).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusUnauthorized:
			return ErrUnauthorized
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
