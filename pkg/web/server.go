package web

import (
	"context"
	"embed"
	"net/http"
	"time"

	"github.com/go-go-golems/tachat/pkg/chat"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

//go:embed static
var staticFS embed.FS

const SessionCookieName = "tachat_session"

// Server serves the single page assistant and its JSON/SSE API.
type Server struct {
	registry *chat.Registry

	// configErr is set when the server cannot talk to the model at all. Every
	// request is then answered with it.
	configErr error
	renderer  *MarkdownRenderer

	ShutdownTimeout time.Duration

	// SessionIdleTimeout is how long an unused session is kept. Zero keeps
	// sessions until they are deleted.
	SessionIdleTimeout time.Duration
}

type ServerOption func(*Server)

func WithConfigurationError(err error) ServerOption {
	return func(s *Server) {
		s.configErr = err
	}
}

func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.ShutdownTimeout = d
	}
}

func WithSessionIdleTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.SessionIdleTimeout = d
	}
}

func NewServer(registry *chat.Registry, options ...ServerOption) *Server {
	ret := &Server{
		registry:           registry,
		renderer:           NewMarkdownRenderer(),
		ShutdownTimeout:    10 * time.Second,
		SessionIdleTimeout: time.Hour,
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

// Echo builds the echo instance with all routes registered.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Debug()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
	if s.configErr != nil {
		e.Use(s.configurationErrorMiddleware)
	}

	s.RegisterRoutes(e)
	return e
}

func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/", s.Index)

	api := e.Group("/api")
	api.GET("/state", s.GetState)
	api.PUT("/settings", s.PutSettings)
	api.POST("/clear", s.PostClear)
	api.POST("/messages", s.PostMessage)
	api.DELETE("/session", s.DeleteSession)
}

// Run serves on address until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, address string) error {
	e := s.Echo()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Info().Str("address", address).Msg("starting web server")
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "web server failed")
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down web server")
		return e.Shutdown(shutdownCtx)
	})
	if s.registry != nil && s.SessionIdleTimeout > 0 {
		eg.Go(func() error {
			return s.registry.SweepEvery(ctx, sweepInterval(s.SessionIdleTimeout), s.SessionIdleTimeout)
		})
	}

	return eg.Wait()
}

func (s *Server) configurationErrorMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Method == http.MethodGet && c.Request().URL.Path == "/" {
			return c.HTML(http.StatusServiceUnavailable, configurationErrorPage(s.configErr.Error()))
		}
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: s.configErr.Error()})
	}
}

func sweepInterval(idle time.Duration) time.Duration {
	interval := idle / 4
	if interval < time.Second {
		return time.Second
	}
	if interval > time.Minute {
		return time.Minute
	}
	return interval
}
