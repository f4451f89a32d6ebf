package suggest

import (
	"fmt"
	"strings"

	"github.com/filmlink/filmlink/internal/metadata"
)

const (
	DefaultLinkBaseURL = "https://www.imdb.com/title"

	// NullExternalID is written in place of a missing external id.
	NullExternalID = "null"
)

// FormatLink renders the markdown link inserted into the document:
// "[Title (Year)](base/id)". An unknown year drops the parenthesised part
// and a nil id renders as NullExternalID.
func FormatLink(title, year string, externalID *string, baseURL string) string {
	if baseURL == "" {
		baseURL = DefaultLinkBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	id := NullExternalID
	if externalID != nil && *externalID != "" {
		id = *externalID
	}

	label := escapeLabel(title)
	if year != "" {
		label = fmt.Sprintf("%s (%s)", label, year)
	}
	return fmt.Sprintf("[%s](%s/%s)", label, baseURL, id)
}

// CandidateLink renders the link for a candidate and its resolved ids.
func CandidateLink(c metadata.Candidate, link metadata.ExternalLink, baseURL string) string {
	return FormatLink(c.Title, c.Year(), link.ImdbID, baseURL)
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

func escapeLabel(s string) string {
	return labelEscaper.Replace(s)
}
