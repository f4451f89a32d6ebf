// Package mock provides an offline TMDB client for developer mode and tests.
package mock

import (
	"context"
	"strings"

	"github.com/filmlink/filmlink/internal/metadata/tmdb"
)

// TMDBClient is a mock implementation of the TMDB client.
type TMDBClient struct{}

// NewTMDBClient creates a new mock TMDB client.
func NewTMDBClient() *TMDBClient {
	return &TMDBClient{}
}

func (c *TMDBClient) Name() string {
	return "tmdb-mock"
}

func (c *TMDBClient) IsConfigured() bool {
	return true
}

func (c *TMDBClient) SetToken(string) {}

func (c *TMDBClient) Test(ctx context.Context) error {
	return nil
}

func (c *TMDBClient) SearchMovies(ctx context.Context, query string) ([]tmdb.MovieResult, error) {
	query = strings.ToLower(query)
	results := []tmdb.MovieResult{}
	for _, m := range mockMovies {
		if strings.Contains(strings.ToLower(m.Title), query) {
			results = append(results, m)
		}
	}
	return results, nil
}

func (c *TMDBClient) SearchTV(ctx context.Context, query string) ([]tmdb.TVResult, error) {
	query = strings.ToLower(query)
	results := []tmdb.TVResult{}
	for _, tv := range mockShows {
		if strings.Contains(strings.ToLower(tv.Name), query) {
			results = append(results, tv)
		}
	}
	return results, nil
}

func (c *TMDBClient) GetExternalIDs(ctx context.Context, mediaType tmdb.MediaType, id int) (*tmdb.ExternalIDs, error) {
	key := string(mediaType)
	imdb, ok := mockImdbIDs[key][id]
	if !ok {
		return nil, tmdb.ErrNotFound
	}
	ids := &tmdb.ExternalIDs{ID: id}
	if imdb != "" {
		ids.ImdbID = &imdb
	}
	return ids, nil
}

func (c *TMDBClient) GetGenres(ctx context.Context, mediaType tmdb.MediaType) ([]tmdb.Genre, error) {
	if mediaType == tmdb.MediaTypeTV {
		return append([]tmdb.Genre(nil), tvGenres...), nil
	}
	return append([]tmdb.Genre(nil), movieGenres...), nil
}

var movieGenres = []tmdb.Genre{
	{ID: 28, Name: "Action"},
	{ID: 12, Name: "Adventure"},
	{ID: 80, Name: "Crime"},
	{ID: 18, Name: "Drama"},
	{ID: 878, Name: "Science Fiction"},
	{ID: 53, Name: "Thriller"},
}

var tvGenres = []tmdb.Genre{
	{ID: 18, Name: "Drama"},
	{ID: 80, Name: "Crime"},
	{ID: 10765, Name: "Sci-Fi & Fantasy"},
	{ID: 10759, Name: "Action & Adventure"},
}

var mockMovies = []tmdb.MovieResult{
	{ID: 438631, Title: "Dune", ReleaseDate: "2021-10-22", GenreIDs: []int{878, 12}, Overview: "Paul Atreides travels to Arrakis."},
	{ID: 693134, Title: "Dune: Part Two", ReleaseDate: "2024-02-27", GenreIDs: []int{878, 12}, Overview: "Paul Atreides unites with the Fremen."},
	{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-30", GenreIDs: []int{28, 878}, Overview: "A hacker learns the nature of reality."},
	{ID: 268, Title: "Batman", ReleaseDate: "1989-06-21", GenreIDs: []int{14, 28, 80}, Overview: "Gotham City's Dark Knight."},
	{ID: 272, Title: "Batman Begins", ReleaseDate: "2005-06-10", GenreIDs: []int{28, 80, 18}, Overview: "Bruce Wayne becomes Batman."},
	{ID: 414906, Title: "The Batman", ReleaseDate: "2022-03-01", GenreIDs: []int{80, 9648, 53}, Overview: "Batman's second year."},
	{ID: 999001, Title: "Untitled Project", ReleaseDate: "", GenreIDs: nil},
}

var mockShows = []tmdb.TVResult{
	{ID: 1396, Name: "Breaking Bad", FirstAirDate: "2008-01-20", GenreIDs: []int{18, 80}},
	{ID: 60059, Name: "Better Call Saul", FirstAirDate: "2015-02-08", GenreIDs: []int{80, 18}},
	{ID: 2098, Name: "Batman: The Animated Series", FirstAirDate: "1992-09-05", GenreIDs: []int{16, 10759}},
}

var mockImdbIDs = map[string]map[int]string{
	string(tmdb.MediaTypeMovie): {
		438631: "tt1160419",
		693134: "tt15239678",
		603:    "tt0133093",
		268:    "tt0096895",
		272:    "tt0372784",
		414906: "tt1877830",
		999001: "",
	},
	string(tmdb.MediaTypeTV): {
		1396:  "tt0903747",
		60059: "tt3032476",
		2098:  "tt0103359",
	},
}
