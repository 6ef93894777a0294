// Package server exposes the HTTP trigger surface.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"tldrist/internal/domain"
	"tldrist/internal/usecase"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Runner triggers a pipeline run. Implemented by *usecase.Pipeline.
type Runner interface {
	Execute(ctx context.Context, opts usecase.Options) (domain.RunReport, error)
}

// Server wires the digest runner behind an HTTP API.
type Server struct {
	echo     *echo.Echo
	runner   Runner
	defaults usecase.Options
	logger   *slog.Logger
}

func New(runner Runner, defaults usecase.Options, logger *slog.Logger) *Server {
	s := &Server{
		echo:     echo.New(),
		runner:   runner,
		defaults: defaults,
		logger:   logger,
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Path(), "/health")
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error == nil {
				logger.Info("request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				logger.Error("request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))
	s.echo.Use(middleware.Recover())

	api := s.echo.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.POST("/summarize", s.handleSummarize)

	return s
}

// Start blocks serving HTTP on addr until Shutdown or a listener error.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying mux for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleSummarize(c echo.Context) error {
	opts, err := s.parseOptions(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	report, err := s.runner.Execute(c.Request().Context(), opts)
	if err != nil {
		s.logger.Error("run failed before processing", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "fetching pending items failed")
	}

	return c.JSON(http.StatusOK, buildRunResponse(report))
}

func (s *Server) parseOptions(c echo.Context) (usecase.Options, error) {
	opts := s.defaults

	if raw := c.QueryParam("min"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return opts, errors.New("min must be a non-negative integer")
		}
		opts.MinRequired = v
	}
	if raw := c.QueryParam("max"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return opts, errors.New("max must be a non-negative integer")
		}
		opts.MaxCount = v
	}
	if raw := c.QueryParam("dry_run"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, errors.New("dry_run must be a boolean")
		}
		opts.DryRun = v
	}

	return opts, nil
}
