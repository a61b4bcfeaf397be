// Package server exposes the prediction-market API over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/digital-prophets/prophetd/internal/domain"
	"github.com/digital-prophets/prophetd/internal/server/handler"
	"github.com/digital-prophets/prophetd/internal/server/middleware"
	"github.com/digital-prophets/prophetd/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// RateLimit caps requests per client IP per RateWindow when a limiter is
	// provided. Zero disables rate limiting.
	RateLimit  int
	RateWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// Transactions is optional; the route is only registered when signing key
// material is configured.
type Handlers struct {
	Health       *handler.HealthHandler
	Predictions  *handler.PredictionHandler
	Bets         *handler.BetHandler
	Leaderboard  *handler.LeaderboardHandler
	Wallet       *handler.WalletHandler
	Feed         *handler.FeedHandler
	Transactions *handler.TransactionHandler
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered on the ServeMux and
// the middleware chain (rate limiting, auth, logging, CORS) applied.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Prediction endpoints.
	mux.HandleFunc("POST /api/predictions", handlers.Predictions.Create)
	mux.HandleFunc("GET /api/predictions", handlers.Predictions.List)
	mux.HandleFunc("GET /api/predictions/{id}", handlers.Predictions.Get)
	mux.HandleFunc("POST /api/predictions/{id}/resolve", handlers.Predictions.Resolve)
	mux.HandleFunc("POST /api/predictions/{id}/cancel", handlers.Predictions.Cancel)
	mux.HandleFunc("GET /api/predictions/{id}/bets", handlers.Bets.ListForMarket)
	mux.HandleFunc("GET /api/markets/{id}/bets", handlers.Bets.ListForMarket)

	// Bet endpoints.
	mux.HandleFunc("POST /api/bets", handlers.Bets.Place)
	mux.HandleFunc("GET /api/bets/id/{id}", handlers.Bets.Get)
	mux.HandleFunc("GET /api/bets/{userId}", handlers.Bets.ListForUser)

	// Leaderboard.
	mux.HandleFunc("GET /api/leaderboard", handlers.Leaderboard.List)

	// Wallet endpoints.
	mux.HandleFunc("GET /api/wallet", handlers.Wallet.Status)
	mux.HandleFunc("POST /api/wallet/balance", handlers.Wallet.Balance)
	mux.HandleFunc("POST /api/wallet/connect", handlers.Wallet.Connect)
	mux.HandleFunc("POST /api/wallet/disconnect", handlers.Wallet.Disconnect)

	// Transaction submission, present only with a configured signing key.
	if handlers.Transactions != nil {
		mux.HandleFunc("POST /api/transactions", handlers.Transactions.Submit)
	}

	// Feed endpoints.
	mux.HandleFunc("GET /api/feed", handlers.Feed.Get)
	mux.HandleFunc("POST /api/feed/refresh", handlers.Feed.Refresh)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow)(h)
	}
	h = middleware.Logging(logger)(h)
	h = corsMiddleware(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// corsMiddleware returns middleware that sets CORS headers for the allowed
// origins. If no origins are specified, it defaults to allowing all origins.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" {
				allowed := len(allowedOrigins) == 0
				for _, o := range allowedOrigins {
					if strings.EqualFold(o, "*") || strings.EqualFold(o, origin) {
						allowed = true
						break
					}
				}

				if allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
					w.Header().Set("Access-Control-Max-Age", "86400")
				}
			}

			// Handle preflight requests.
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
