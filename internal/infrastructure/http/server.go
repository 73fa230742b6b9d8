// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
	"github.com/0xcro3dile/latentqa-go/internal/domain/ports"
	"github.com/0xcro3dile/latentqa-go/internal/domain/usecases"
)

// ChatService is the chat pipeline the handlers drive.
type ChatService interface {
	Chat(ctx context.Context, req *entities.ChatRequest) (*entities.ChatResponse, error)
	ChatStream(ctx context.Context, req *entities.ChatRequest) (<-chan ports.StreamToken, error)
	Prepare(ctx context.Context, req *entities.ChatRequest) (*usecases.Prepared, error)
	EndSession(ctx context.Context, sessionID string) bool
}

// DocumentCounter reports how many documents the index holds.
type DocumentCounter interface {
	Count(ctx context.Context) (int, error)
}

// Options configures the server.
type Options struct {
	Addr           string
	CORSOrigins    []string
	RateLimitRPS   float64 // 0 disables rate limiting
	RateLimitBurst int
}

// Server is the HTTP server for the chat API.
type Server struct {
	echo   *echo.Echo
	chat   ChatService
	index  DocumentCounter
	logger *slog.Logger
	addr   string
}

// NewServer creates a new HTTP server. ctx bounds background work such as
// the rate limiter sweep.
func NewServer(ctx context.Context, chat ChatService, index DocumentCounter, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogRequestID: true,
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				logger.ErrorContext(c.Request().Context(), "request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.InfoContext(c.Request().Context(), "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: opts.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	if opts.RateLimitRPS > 0 {
		e.Use(NewRateLimiter(ctx, rate.Limit(opts.RateLimitRPS), opts.RateLimitBurst, 0).Middleware())
	}

	s := &Server{
		echo:   e,
		chat:   chat,
		index:  index,
		logger: logger,
		addr:   opts.Addr,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/", s.handleRoot)
	s.echo.POST("/chat", s.handleChat)
	s.echo.GET("/chat/stream", s.handleChatStream)
	s.echo.GET("/api/retrieve", s.handleRetrieve)
	s.echo.DELETE("/sessions/:id", s.handleEndSession)
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/readyz", s.handleReady)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start runs the HTTP server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.echo.Server.ReadTimeout = 15 * time.Second
	s.echo.Server.WriteTimeout = 300 * time.Second // Longer for streaming

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("latentqa server starting", "addr", s.addr)
		errCh <- s.echo.Start(s.addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("latentqa server shutting down")
	return s.echo.Shutdown(shutdownCtx)
}
