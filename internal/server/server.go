// Package server exposes the webhook receiver and the status endpoints
// over gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"aqua-waifu-bot/internal/config"
)

// UpdateProcessor accepts updates received by the webhook.
type UpdateProcessor interface {
	ProcessUpdate(u tele.Update)
}

// WebhookInfoSource reports the current webhook registration.
type WebhookInfoSource interface {
	WebhookInfo() (*tele.Webhook, error)
}

// Pinger checks the storage connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators of the HTTP routes.
type Dependencies struct {
	Config  *config.Config
	Store   Pinger
	Updates UpdateProcessor
	Webhook WebhookInfoSource
	Started time.Time
	Now     func() time.Time
}

// NewRouter builds the gin engine with all routes.
func NewRouter(deps *Dependencies) *gin.Engine {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Started.IsZero() {
		deps.Started = deps.Now()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.SetHTMLTemplate(template.Must(template.New(statusTemplate).Parse(statusPage)))

	h := &handlers{deps: deps}
	path := deps.Config.Webhook.Path
	if path == "" {
		path = "/webhook"
	}
	r.POST(path, h.webhook)
	r.GET("/health", h.health)
	r.GET("/", h.status)
	return r
}

// requestLogger logs each request with zerolog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	}
}

// Server runs the HTTP listener.
type Server struct {
	srv             *http.Server
	listener        net.Listener
	shutdownTimeout time.Duration
}

// New binds the listener on port. If the port is taken it falls back to an
// ephemeral port.
func New(handler http.Handler, port int, shutdownTimeout time.Duration) (*Server, error) {
	addr := fmt.Sprintf(":%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
		log.Warn().Int("port", port).Msg("Port is already in use, trying an ephemeral port")
		ln, err = net.Listen("tcp", ":0")
		if err != nil {
			return nil, fmt.Errorf("failed to listen on ephemeral port: %w", err)
		}
	}

	return &Server{
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener:        ln,
		shutdownTimeout: shutdownTimeout,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.Addr()).Msg("Web server running")
		if err := s.srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	log.Info().Msg("Web server stopped")
	return nil
}
