// Package api exposes the backtest pipeline over HTTP: dataset
// preview, signal preview, full backtests and the saved-strategy
// catalog.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"strategy-lab/internal/backtest"
	"strategy-lab/internal/domain"
	"strategy-lab/internal/observability"
	"strategy-lab/internal/storage"
)

// DatasetLister enumerates available (symbol, interval) datasets.
// Both the CSV dataset loader and the bar stores satisfy it.
type DatasetLister interface {
	ListDatasets(ctx context.Context) ([]domain.DatasetInfo, error)
}

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	runner     *backtest.Runner
	source     backtest.BarSource
	datasets   DatasetLister
	strategies storage.StrategyStore // nil disables the strategy catalog
	logger     *log.Logger
}

// NewServer creates a Server. strategies may be nil when no strategy
// catalog backend is configured.
func NewServer(runner *backtest.Runner, source backtest.BarSource, datasets DatasetLister,
	strategies storage.StrategyStore, logger *log.Logger) *Server {
	return &Server{
		runner:     runner,
		source:     source,
		datasets:   datasets,
		strategies: strategies,
		logger:     logger,
	}
}

// Handler builds the route table with CORS applied to every route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", s.handleRoot)
	mux.Handle("GET /metrics", observability.Handler())
	mux.HandleFunc("GET /datasets", s.handleDatasets)
	mux.HandleFunc("GET /ohlcv", s.handleOHLCV)

	mux.HandleFunc("POST /strategy/load-data", s.handleLoadData)
	mux.HandleFunc("POST /strategy/run", s.handleRun)
	mux.HandleFunc("POST /strategy/backtest", s.handleBacktest)

	mux.HandleFunc("POST /strategies", s.handleStrategyCreate)
	mux.HandleFunc("GET /strategies", s.handleStrategyList)
	mux.HandleFunc("GET /strategies/{name}", s.handleStrategyGet)
	mux.HandleFunc("DELETE /strategies/{name}", s.handleStrategyDelete)

	return withCORS(mux)
}

// withCORS allows cross-origin requests from any origin, matching the
// permissive setup the frontend expects.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
