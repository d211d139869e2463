package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/observability"
	"strategy-lab/internal/storage"
)

// backtestRequest wraps the domain request with an optional reference
// to a saved strategy; when StrategyName is set the stored logic (and
// execution config, unless overridden inline) is used.
type backtestRequest struct {
	domain.BacktestRequest
	StrategyName string `json:"strategy_name,omitempty"`
}

// handleRoot is the health check.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDatasets lists available (symbol, interval) datasets.
func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	infos, err := s.datasets.ListDatasets(r.Context())
	if err != nil {
		s.logger.Printf("list datasets: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list datasets")
		return
	}
	if infos == nil {
		infos = []domain.DatasetInfo{}
	}
	s.writeJSON(w, http.StatusOK, infos)
}

// barRecord is the JSON shape of one raw OHLCV row. Undefined values
// serialize as null rather than NaN, which encoding/json rejects.
type barRecord struct {
	Timestamp string   `json:"timestamp"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	Volume    *float64 `json:"volume"`
}

func toBarRecords(bars []domain.Bar) []barRecord {
	out := make([]barRecord, len(bars))
	for i := range bars {
		b := &bars[i]
		out[i] = barRecord{
			Timestamp: b.Timestamp.UTC().Format(time.RFC3339),
			Open:      finitePtr(b.Open),
			High:      finitePtr(b.High),
			Low:       finitePtr(b.Low),
			Close:     finitePtr(b.Close),
			Volume:    finitePtr(b.Volume),
		}
	}
	return out
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// handleOHLCV returns raw bars for one symbol/interval pair.
func (s *Server) handleOHLCV(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	interval := r.URL.Query().Get("interval")
	if symbol == "" || interval == "" {
		s.writeError(w, http.StatusBadRequest, "symbol and interval are required")
		return
	}

	bars, err := s.source.Bars(r.Context(), symbol, interval)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, toBarRecords(bars))
}

// handleLoadData previews the raw input data for each requested
// symbol. Failures are reported per symbol, never for the request as
// a whole.
func (s *Server) handleLoadData(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeBacktestRequest(w, r)
	if !ok {
		return
	}

	result := make(map[string]any, len(req.Symbols))
	for _, symbol := range req.Symbols {
		bars, err := s.source.Bars(r.Context(), symbol, req.Interval)
		if err != nil {
			result[symbol] = map[string]string{"error": err.Error()}
			continue
		}
		result[symbol] = toBarRecords(bars)
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handleRun generates signals without trade simulation.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeBacktestRequest(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.runner.RunSignals(r.Context(), &req.BacktestRequest))
}

// handleBacktest runs the full pipeline for every symbol.
func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeBacktestRequest(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.runner.Run(r.Context(), &req.BacktestRequest))
}

// decodeBacktestRequest parses and validates the request body, and
// resolves a saved strategy reference when present.
func (s *Server) decodeBacktestRequest(w http.ResponseWriter, r *http.Request) (*backtestRequest, bool) {
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return nil, false
	}
	if len(req.Symbols) == 0 {
		s.writeError(w, http.StatusBadRequest, "symbols is required")
		return nil, false
	}
	if req.Interval == "" {
		s.writeError(w, http.StatusBadRequest, "interval is required")
		return nil, false
	}

	if req.StrategyName != "" {
		if s.strategies == nil {
			s.writeError(w, http.StatusBadRequest, "strategy catalog is not configured")
			return nil, false
		}
		saved, err := s.strategies.GetByName(r.Context(), req.StrategyName)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.writeError(w, http.StatusNotFound, err.Error())
			} else {
				s.logger.Printf("get strategy %s: %v", req.StrategyName, err)
				s.writeError(w, http.StatusInternalServerError, "failed to load strategy")
			}
			return nil, false
		}
		req.Strategy = saved.Logic
		if req.Exec == nil {
			req.Exec = saved.Exec
		}
	}
	return &req, true
}

// handleStrategyCreate stores a new named strategy.
func (s *Server) handleStrategyCreate(w http.ResponseWriter, r *http.Request) {
	if s.strategies == nil {
		s.writeError(w, http.StatusNotFound, "strategy catalog is not configured")
		return
	}

	var st domain.SavedStrategy
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if st.Name == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	st.CreatedAt = time.Now().UTC()

	err := s.strategies.Insert(r.Context(), &st)
	observability.RecordStrategyOp("create", err)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicateKey):
			s.writeError(w, http.StatusConflict, "strategy already exists: "+st.Name)
		case errors.Is(err, storage.ErrInvalidInput):
			s.writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Printf("insert strategy %s: %v", st.Name, err)
			s.writeError(w, http.StatusInternalServerError, "failed to store strategy")
		}
		return
	}
	s.writeJSON(w, http.StatusCreated, st)
}

// handleStrategyList returns all saved strategies.
func (s *Server) handleStrategyList(w http.ResponseWriter, r *http.Request) {
	if s.strategies == nil {
		s.writeError(w, http.StatusNotFound, "strategy catalog is not configured")
		return
	}

	list, err := s.strategies.List(r.Context())
	if err != nil {
		s.logger.Printf("list strategies: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list strategies")
		return
	}
	if list == nil {
		list = []*domain.SavedStrategy{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

// handleStrategyGet returns one saved strategy by name.
func (s *Server) handleStrategyGet(w http.ResponseWriter, r *http.Request) {
	if s.strategies == nil {
		s.writeError(w, http.StatusNotFound, "strategy catalog is not configured")
		return
	}

	name := r.PathValue("name")
	st, err := s.strategies.GetByName(r.Context(), name)
	observability.RecordStrategyOp("get", err)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Printf("get strategy %s: %v", name, err)
		s.writeError(w, http.StatusInternalServerError, "failed to load strategy")
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

// handleStrategyDelete removes one saved strategy by name.
func (s *Server) handleStrategyDelete(w http.ResponseWriter, r *http.Request) {
	if s.strategies == nil {
		s.writeError(w, http.StatusNotFound, "strategy catalog is not configured")
		return
	}

	name := r.PathValue("name")
	err := s.strategies.Delete(r.Context(), name)
	observability.RecordStrategyOp("delete", err)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Printf("delete strategy %s: %v", name, err)
		s.writeError(w, http.StatusInternalServerError, "failed to delete strategy")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
