// Package server assembles the HTTP surface over the dialogue engine.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/tailortalk/tailortalk/internal/profile"
	"github.com/tailortalk/tailortalk/server/dialog"
	apiv1 "github.com/tailortalk/tailortalk/server/router/api/v1"
)

// Server is the HTTP server hosting the chat API.
type Server struct {
	Profile *profile.Profile

	echoServer *echo.Echo
}

// NewServer assembles the echo server and registers all routes.
func NewServer(profile *profile.Profile, engine *dialog.Engine) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(_ echo.Context, v echomw.RequestLoggerValues) error {
			slog.Info("http request", "uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	apiv1.NewAPIV1Service(profile, engine).RegisterRoutes(e)

	return &Server{
		Profile:    profile,
		echoServer: e,
	}
}

// Start begins serving and blocks until the listener fails.
func (s *Server) Start(_ context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server listening", "addr", addr, "mode", s.Profile.Mode, "version", s.Profile.Version)
	if err := s.echoServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to start server")
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener. The caller's
// context is typically already cancelled, so draining gets its own deadline.
func (s *Server) Shutdown(_ context.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server gracefully", "error", err)
	}
	slog.Info("server stopped")
}
