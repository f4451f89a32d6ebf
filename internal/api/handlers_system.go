package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/filmlink/filmlink/internal/config"
	"github.com/filmlink/filmlink/internal/scheduler"
)

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type providerStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Reachable  *bool  `json:"reachable,omitempty"`
	CheckedAt  string `json:"checkedAt,omitempty"`
	Error      string `json:"error,omitempty"`
}

type statusResponse struct {
	Version   string         `json:"version"`
	StartTime string         `json:"startTime"`
	Provider  providerStatus `json:"provider"`
	Sessions  int            `json:"sessions"`
	Clients   int            `json:"clients"`
}

// getStatus reports version and provider state. The provider fields come
// from the last background check; with check=true a check runs first.
// GET /api/v1/status
func (s *Server) getStatus(c echo.Context) error {
	resp := statusResponse{
		Version:   config.Version,
		StartTime: s.startedAt.Format(time.RFC3339),
		Provider: providerStatus{
			Name:       s.metadataService.ProviderName(),
			Configured: s.metadataService.IsConfigured(),
		},
		Sessions: s.sessions.Len(),
		Clients:  s.hub.ClientCount(),
	}

	if c.QueryParam("check") == "true" {
		// The outcome is recorded in the task status read below.
		_ = s.providerCheck.Run(c.Request().Context())
	}

	if last := s.providerCheck.Status(); last.Checked {
		reachable := last.Reachable
		resp.Provider.Reachable = &reachable
		resp.Provider.CheckedAt = last.CheckedAt.Format(time.RFC3339)
		resp.Provider.Error = last.Error
	}

	return c.JSON(http.StatusOK, resp)
}

// GET /api/v1/tasks
func (s *Server) listTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, s.scheduler.ListTasks())
}

// POST /api/v1/tasks/:id/run
func (s *Server) runTask(c echo.Context) error {
	id := c.Param("id")
	if err := s.scheduler.RunNow(id); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrTaskNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, scheduler.ErrTaskRunning):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "started", "id": id})
}
