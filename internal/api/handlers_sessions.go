package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/filmlink/filmlink/internal/metadata"
	"github.com/filmlink/filmlink/internal/suggest"
)

type createSessionRequest struct {
	Kind string `json:"kind"`
}

type createSessionResponse struct {
	ID      string   `json:"id"`
	Kind    string   `json:"kind"`
	Notices []string `json:"notices"`
}

type suggestionsResponse struct {
	Query   string         `json:"query"`
	Stale   bool           `json:"stale"`
	Skip    string         `json:"skip,omitempty"`
	Items   []suggest.Item `json:"items"`
	Notices []string       `json:"notices"`
}

type linkRequest struct {
	Candidate metadata.Candidate `json:"candidate"`
}

type linkResponse struct {
	Link    string   `json:"link"`
	Notices []string `json:"notices"`
}

// createSession starts a suggestion session.
// POST /api/v1/sessions
func (s *Server) createSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Kind == "" {
		req.Kind = string(metadata.KindMovie)
	}

	kind, err := metadata.ParseMediaKind(req.Kind)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	id, entry := s.sessions.Create(kind)
	s.logger.Debug().Str("session", id).Str("kind", kind.String()).Msg("Session created")

	return c.JSON(http.StatusCreated, createSessionResponse{
		ID:      id,
		Kind:    kind.String(),
		Notices: entry.Notices(),
	})
}

// getSuggestions runs a debounced search in the session. A request that is
// superseded by a newer one answers with stale set and no items.
// GET /api/v1/sessions/:id/suggestions?query=
func (s *Server) getSuggestions(c echo.Context) error {
	entry, err := s.lookupSession(c)
	if err != nil {
		return err
	}

	res := entry.Session.GetSuggestions(c.Request().Context(), c.QueryParam("query"))

	resp := suggestionsResponse{
		Query: res.Query,
		Stale: res.Stale,
		Items: []suggest.Item{},
	}
	if res.Skip != suggest.SkipNone {
		resp.Skip = res.Skip.String()
	}
	if !res.Stale {
		resp.Items = entry.Session.RenderAll(res.Items)
	}
	resp.Notices = entry.Notices()

	return c.JSON(http.StatusOK, resp)
}

// createLink resolves the chosen candidate into a markdown link.
// POST /api/v1/sessions/:id/link
func (s *Server) createLink(c echo.Context) error {
	entry, err := s.lookupSession(c)
	if err != nil {
		return err
	}

	var req linkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Candidate.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "candidate is required")
	}
	if req.Candidate.Kind == "" {
		req.Candidate.Kind = entry.Session.Kind()
	}

	link, ok := entry.Session.Link(c.Request().Context(), req.Candidate)
	if !ok {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error":   "could not resolve external id",
			"notices": entry.Notices(),
		})
	}

	return c.JSON(http.StatusOK, linkResponse{Link: link, Notices: entry.Notices()})
}

// deleteSession ends a session.
// DELETE /api/v1/sessions/:id
func (s *Server) deleteSession(c echo.Context) error {
	if !s.sessions.Remove(c.Param("id")) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) lookupSession(c echo.Context) (*RegisteredSession, error) {
	entry, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return entry, nil
}
