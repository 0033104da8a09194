package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var errMissingDeps = errors.New("server: handlers require an engine and custody")

const (
	defaultReadTimeout   = 15 * time.Second
	defaultWriteTimeout  = 30 * time.Second
	defaultIdleTimeout   = 60 * time.Second
	defaultShutdownGrace = 10 * time.Second
)

// ServerConfig is the HTTP surface of the AMM API.
type ServerConfig struct {
	Addr    string
	DevMode bool
	APIKey  string // X-API-Key value required on every route when set

	// WriteRate limits state-changing routes per client IP, in requests per
	// second. Zero disables the limiter.
	WriteRate  float64
	WriteBurst int

	// Zero values fall back to the package defaults.
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	ShutdownGrace time.Duration
}

func (c ServerConfig) withDefaults() ServerConfig {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = defaultShutdownGrace
	}
	return c
}

type ServerDeps struct {
	Handlers *Handlers
	Config   ServerConfig
}

// Server owns the echo instance serving the AMM routes. Shutdown may be
// called from a signal handler while Start is still returning.
type Server struct {
	e   *echo.Echo
	cfg ServerConfig

	stopOnce sync.Once
	stopped  chan struct{}
}

func NewServer(deps ServerDeps) (*Server, error) {
	h := deps.Handlers
	if h == nil || h.Engine == nil || h.Custody == nil {
		return nil, errMissingDeps
	}
	cfg := deps.Config.withDefaults()
	h.DevMode = cfg.DevMode

	e := echo.New()
	e.HideBanner, e.HidePort = true, true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout
	e.Server.IdleTimeout = defaultIdleTimeout

	RegisterRoutes(e, h, cfg)
	return &Server{e: e, cfg: cfg, stopped: make(chan struct{})}, nil
}

func (s *Server) Start() error {
	return s.e.Start(s.cfg.Addr)
}

// Handler returns the routed echo instance for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Shutdown drains in-flight requests for at most the configured grace
// period. Only the first call does any work.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownGrace)
		defer cancel()
		err = s.e.Shutdown(ctx)
		close(s.stopped)
	})
	return err
}

// WaitClosed returns once Shutdown has finished or ctx ends.
func (s *Server) WaitClosed(ctx context.Context) error {
	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// apiHeaders marks every response as uncacheable JSON.
func apiHeaders(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		hdr := c.Response().Header()
		hdr.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		hdr.Set("Cache-Control", "no-store")
		return next(c)
	}
}
