package settings

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// TokenListener is told about a new effective token.
type TokenListener func(token string)

type Handlers struct {
	service   *Service
	fallback  string
	onChanged TokenListener
}

// NewHandlers creates the settings handlers. fallback is the configured
// token used when the store holds none.
func NewHandlers(service *Service, fallback string, onChanged TokenListener) *Handlers {
	return &Handlers{service: service, fallback: fallback, onChanged: onChanged}
}

func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/token", h.GetToken)
	g.PUT("/token", h.SetToken)
}

// TokenStatus never carries the token itself.
type TokenStatus struct {
	Configured bool   `json:"configured"`
	Source     string `json:"source"`
}

type setTokenRequest struct {
	Token string `json:"token"`
}

// GetToken reports whether a token is configured and where it comes from.
// GET /api/v1/settings/token
func (h *Handlers) GetToken(c echo.Context) error {
	stored, err := h.service.Token(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.status(stored))
}

// SetToken stores a new token; an empty token reverts to the configured one.
// PUT /api/v1/settings/token
func (h *Handlers) SetToken(c echo.Context) error {
	var req setTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	if err := h.service.SetToken(ctx, req.Token); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if h.onChanged != nil {
		h.onChanged(h.service.EffectiveToken(ctx, h.fallback))
	}
	return c.JSON(http.StatusOK, h.status(req.Token))
}

func (h *Handlers) status(stored string) TokenStatus {
	switch {
	case stored != "":
		return TokenStatus{Configured: true, Source: "settings"}
	case h.fallback != "":
		return TokenStatus{Configured: true, Source: "config"}
	default:
		return TokenStatus{Configured: false, Source: "none"}
	}
}
