// Package server implements the thin request-routing layer exposing the loan
// store over GET and PUT. It holds no business logic: requests are proxied to
// the store client and the engine is never involved.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"

	loans "github.com/jeff-stratofied/loan-dashboard"
	"github.com/jeff-stratofied/loan-dashboard/store"
)

// Config is the server configuration, loaded from the environment.
type Config struct {
	Addr       string        `env:"LOANDASH_ADDR" envDefault:":8080"`
	StoreURL   string        `env:"LOANDASH_STORE_URL"`
	StoreKey   string        `env:"LOANDASH_STORE_KEY"`
	RecordPath string        `env:"LOANDASH_STORE_RECORD_PATH"`
	RedisAddr  string        `env:"LOANDASH_REDIS_ADDR"`
	CacheTTL   time.Duration `env:"LOANDASH_CACHE_TTL" envDefault:"5m"`
}

// ParseEnv loads the server configuration from environment variables.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.StoreURL == "" {
		return cfg, errors.New("LOANDASH_STORE_URL is required")
	}
	return cfg, nil
}

// Server proxies loan reads and writes to the store.
type Server struct {
	store *store.Client
	log   *zap.Logger
	mux   *http.ServeMux
}

// New creates a server around a store client.
func New(st *store.Client, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{store: st, log: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /api/loans", s.handleGet)
	s.mux.HandleFunc("PUT /api/loans", s.handlePut)
	return s
}

// Handler returns the server's HTTP handler with request logging.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.mux.ServeHTTP(w, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.FetchLoans(r.Context())
	if err != nil {
		s.fail(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, records)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	var records []loans.LoanRecord
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("request body is not a loan array: %w", err))
		return
	}
	if err := s.store.SaveLoans(r.Context(), records); err != nil {
		s.fail(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, map[string]any{"saved": len(records)})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encoding response", zap.Error(err))
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.log.Error("request failed", zap.Int("status", status), zap.Error(err))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	s.log.Info("listening", zap.String("addr", addr))
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
