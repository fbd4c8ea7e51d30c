// Package v1 exposes the chat API over HTTP.
package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/tailortalk/tailortalk/internal/profile"
	"github.com/tailortalk/tailortalk/server/dialog"
	"github.com/tailortalk/tailortalk/server/middleware"
)

// APIV1Service wires the dialogue engine to the /api/v1 routes.
type APIV1Service struct {
	Profile *profile.Profile
	Engine  *dialog.Engine

	limiter *middleware.RateLimiter
}

// NewAPIV1Service creates the API service over the given engine.
func NewAPIV1Service(profile *profile.Profile, engine *dialog.Engine) *APIV1Service {
	return &APIV1Service{
		Profile: profile,
		Engine:  engine,
		limiter: middleware.NewRateLimiter(),
	}
}

// RegisterRoutes attaches all v1 routes to the echo server.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.POST("/chat", s.Chat)
	g.DELETE("/chat/sessions/:user", s.ResetSession)
}
