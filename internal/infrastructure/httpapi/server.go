// Package httpapi exposes pipeline runs, the queue and the generation log
// to operators over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"ContentGenerator/internal/ports"
	"ContentGenerator/internal/usecase"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

var releaseMode sync.Once

// Deps are the use cases and stores the handlers call.
type Deps struct {
	Runner    *usecase.Runner
	Populator *usecase.Populator
	Requeuer  *usecase.Requeuer
	Queue     ports.QueueRepository
	Log       ports.GenerationLog
	Metrics   http.Handler
	Defaults  usecase.RunOptions
	Logger    *slog.Logger
}

// Server owns the gin engine and its http.Server.
type Server struct {
	router *gin.Engine
	deps   Deps
	logger *slog.Logger
}

// NewServer builds the router with recovery and request logging.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	releaseMode.Do(func() { gin.SetMode(gin.ReleaseMode) })
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{router: router, deps: deps, logger: logger}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/healthz", s.health)
	if s.deps.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.Metrics))
	}

	api := s.router.Group("/api")
	api.POST("/runs", s.triggerRun)
	api.POST("/populate", s.populate)
	api.GET("/queue", s.listQueue)
	api.GET("/queue/stats", s.queueStats)
	api.POST("/queue/requeue", s.requeue)
	api.GET("/generation-log", s.generationLog)
}

// Handler returns the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info("http api stopped")
	return nil
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
