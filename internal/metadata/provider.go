package metadata

import "context"

// Client is the metadata capability consumed by suggestion sessions.
// Operations are independent of each other and may fail independently.
type Client interface {
	// SearchMovies searches movies by title.
	SearchMovies(ctx context.Context, title string) ([]Candidate, error)

	// SearchTVShows searches TV shows by title.
	SearchTVShows(ctx context.Context, title string) ([]Candidate, error)

	// ResolveExternalID resolves the external database id of a candidate.
	ResolveExternalID(ctx context.Context, c Candidate) (ExternalLink, error)

	// GenreTable fetches the genre lookup for a media kind.
	GenreTable(ctx context.Context, kind MediaKind) (GenreTable, error)
}

// Search dispatches to the search operation matching kind.
func Search(ctx context.Context, client Client, kind MediaKind, title string) ([]Candidate, error) {
	if kind == KindTVShow {
		return client.SearchTVShows(ctx, title)
	}
	return client.SearchMovies(ctx, title)
}
