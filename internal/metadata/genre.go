package metadata

import (
	"strings"

	"github.com/filmlink/filmlink/internal/metadata/tmdb"
)

// GenreTable maps genre ids to display names. A table is built once and
// treated as read-only afterwards, so it can be shared without locking.
type GenreTable map[int]string

// NewGenreTable builds a table from a provider genre list.
func NewGenreTable(genres []tmdb.Genre) GenreTable {
	table := make(GenreTable, len(genres))
	for _, g := range genres {
		table[g.ID] = g.Name
	}
	return table
}

// Names resolves ids in order, skipping ids the table does not know.
func (t GenreTable) Names(ids []int) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := t[id]; ok && name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Describe joins the resolved genre names with sep.
func (t GenreTable) Describe(ids []int, sep string) string {
	return strings.Join(t.Names(ids), sep)
}
