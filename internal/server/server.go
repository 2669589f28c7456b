package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/hedgebot/internal/server/handler"
	"github.com/alanyoungcy/hedgebot/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port           int
	Mode           string
	AutobetEnabled bool
	RealExecution  bool
}

// Server is the read-only status and statistics API for the bot.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with all routes registered on the ServeMux.
func New(cfg Config, source handler.OpportunitySource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handler.HealthCheck)

	status := handler.NewStatusHandler(cfg.Mode, cfg.AutobetEnabled, cfg.RealExecution, time.Now().UTC())
	mux.HandleFunc("GET /api/status", status.GetStatus)

	if source != nil {
		opps := handler.NewOpportunityHandler(source, logger)
		mux.HandleFunc("GET /api/stats", opps.GetStats)
		mux.HandleFunc("GET /api/opportunities/recent", opps.ListRecent)
	}

	var h http.Handler = mux
	h = middleware.Logging(logger)(h)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Run listens until the context is cancelled, then shuts down gracefully,
// waiting up to five seconds for in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server: listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server: listen: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("server: shutting down")
		if err := s.httpServer.Shutdown(shutCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return <-errCh
	}
}
