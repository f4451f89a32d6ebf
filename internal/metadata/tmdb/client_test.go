package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/filmlink/filmlink/internal/config"
)

func newTestClient(server *httptest.Server) *Client {
	cfg := config.TMDBConfig{
		Token:    "test-token",
		BaseURL:  server.URL,
		Language: "en-US",
		Timeout:  5,
	}
	return NewClient(cfg, zerolog.Nop())
}

func strPtr(s string) *string { return &s }

func TestClient_Name(t *testing.T) {
	client := NewClient(config.TMDBConfig{}, zerolog.Nop())
	if client.Name() != "tmdb" {
		t.Errorf("Name() = %q, want %q", client.Name(), "tmdb")
	}
}

func TestClient_IsConfigured(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"with token", "abc123", true},
		{"without token", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(config.TMDBConfig{Token: tt.token}, zerolog.Nop())
			if got := client.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_SetToken(t *testing.T) {
	client := NewClient(config.TMDBConfig{}, zerolog.Nop())
	client.SetToken("fresh")
	if !client.IsConfigured() {
		t.Error("expected client to be configured after SetToken")
	}
}

func TestClient_SearchMovies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		q := r.URL.Query()
		if got := q.Get("query"); got != "Dune Part Two" {
			t.Errorf("unexpected query: %s", got)
		}
		if got := q.Get("include_adult"); got != "false" {
			t.Errorf("include_adult = %q, want false", got)
		}
		if got := q.Get("language"); got != "en-US" {
			t.Errorf("language = %q, want en-US", got)
		}
		if got := q.Get("page"); got != "1" {
			t.Errorf("page = %q, want 1", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}

		json.NewEncoder(w).Encode(SearchMoviesResponse{
			Page:         1,
			TotalResults: 2,
			TotalPages:   1,
			Results: []MovieResult{
				{ID: 693134, Title: "Dune: Part Two", ReleaseDate: "2024-02-27", GenreIDs: []int{878, 12}},
				{ID: 438631, Title: "Dune", ReleaseDate: "2021-09-15", GenreIDs: []int{878, 12}},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	results, err := client.SearchMovies(context.Background(), "Dune Part Two")
	if err != nil {
		t.Fatalf("SearchMovies() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("SearchMovies() returned %d results, want 2", len(results))
	}
	if results[0].ID != 693134 {
		t.Errorf("results[0].ID = %d, want 693134", results[0].ID)
	}
	if len(results[1].GenreIDs) != 2 || results[1].GenreIDs[0] != 878 {
		t.Errorf("results[1].GenreIDs = %v", results[1].GenreIDs)
	}
}

func TestClient_SearchMovies_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"page":1,"results":null,"total_pages":0,"total_results":0}`))
	}))
	defer server.Close()

	results, err := newTestClient(server).SearchMovies(context.Background(), "zzzzzz")
	if err != nil {
		t.Fatalf("SearchMovies() error = %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil results, got %#v", results)
	}
}

func TestClient_SearchTV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tv" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(SearchTVResponse{
			Page: 1,
			Results: []TVResult{
				{ID: 1396, Name: "Breaking Bad", FirstAirDate: "2008-01-20", GenreIDs: []int{18, 80}},
			},
		})
	}))
	defer server.Close()

	results, err := newTestClient(server).SearchTV(context.Background(), "Breaking Bad")
	if err != nil {
		t.Fatalf("SearchTV() error = %v", err)
	}
	if len(results) != 1 || results[0].Name != "Breaking Bad" {
		t.Fatalf("unexpected results: %#v", results)
	}
}

func TestClient_GetExternalIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/438631/external_ids":
			json.NewEncoder(w).Encode(ExternalIDs{ID: 438631, ImdbID: strPtr("tt1160419")})
		case "/tv/99/external_ids":
			w.Write([]byte(`{"id":99,"imdb_id":null}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(server)

	ids, err := client.GetExternalIDs(context.Background(), MediaTypeMovie, 438631)
	if err != nil {
		t.Fatalf("GetExternalIDs() error = %v", err)
	}
	if ids.ImdbID == nil || *ids.ImdbID != "tt1160419" {
		t.Errorf("ImdbID = %v, want tt1160419", ids.ImdbID)
	}

	ids, err = client.GetExternalIDs(context.Background(), MediaTypeTV, 99)
	if err != nil {
		t.Fatalf("GetExternalIDs() error = %v", err)
	}
	if ids.ImdbID != nil {
		t.Errorf("ImdbID = %v, want nil", *ids.ImdbID)
	}
}

func TestClient_GetExternalIDs_InvalidMediaType(t *testing.T) {
	client := NewClient(config.TMDBConfig{Token: "x"}, zerolog.Nop())
	_, err := client.GetExternalIDs(context.Background(), MediaType("person"), 1)
	if !errors.Is(err, ErrInvalidMediaType) {
		t.Errorf("expected ErrInvalidMediaType, got %v", err)
	}
}

func TestClient_GetGenres(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/genre/movie/list" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(GenreListResponse{
			Genres: []Genre{{ID: 28, Name: "Action"}, {ID: 12, Name: "Adventure"}},
		})
	}))
	defer server.Close()

	genres, err := newTestClient(server).GetGenres(context.Background(), MediaTypeMovie)
	if err != nil {
		t.Fatalf("GetGenres() error = %v", err)
	}
	if len(genres) != 2 || genres[0].Name != "Action" || genres[1].ID != 12 {
		t.Errorf("unexpected genres: %#v", genres)
	}
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient(config.TMDBConfig{}, zerolog.Nop())

	if _, err := client.SearchMovies(context.Background(), "test"); !errors.Is(err, ErrTokenMissing) {
		t.Errorf("SearchMovies() error = %v, want %v", err, ErrTokenMissing)
	}
	if _, err := client.SearchTV(context.Background(), "test"); !errors.Is(err, ErrTokenMissing) {
		t.Errorf("SearchTV() error = %v, want %v", err, ErrTokenMissing)
	}
	if _, err := client.GetGenres(context.Background(), MediaTypeTV); !errors.Is(err, ErrTokenMissing) {
		t.Errorf("GetGenres() error = %v, want %v", err, ErrTokenMissing)
	}
}

func TestClient_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"server error", http.StatusInternalServerError, ErrAPIError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(ErrorResponse{StatusCode: 7, StatusMessage: "nope"})
			}))
			defer server.Close()

			_, err := newTestClient(server).SearchMovies(context.Background(), "dune")
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClient_UnauthorizedIsAPIError(t *testing.T) {
	if !errors.Is(ErrUnauthorized, ErrAPIError) {
		t.Error("ErrUnauthorized should wrap ErrAPIError")
	}
}

func TestClient_Test(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/configuration" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"images":{"base_url":"http://image.tmdb.org/t/p/"}}`))
	}))
	defer server.Close()

	if err := newTestClient(server).Test(context.Background()); err != nil {
		t.Errorf("Test() error = %v", err)
	}
}
