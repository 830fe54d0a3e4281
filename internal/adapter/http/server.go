// Package http exposes the service's operational endpoints and an
// on-demand ground-motion evaluation API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/justinschembri/isprs/internal/gmpe"
	"github.com/justinschembri/isprs/internal/structure"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// PeriodSnapper maps an arbitrary vibration period onto one the model's
// coefficient table carries.
type PeriodSnapper interface {
	NearestPeriod(period float64) float64
}

// Server exposes health, readiness, metrics, and evaluation HTTP endpoints.
type Server struct {
	httpServer *http.Server
	evaluator  *gmpe.Evaluator
	periods    PeriodSnapper
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /evaluate routes. Pass a nil evaluator to disable the evaluation route.
func NewServer(addr string, ready ReadinessChecker, evaluator *gmpe.Evaluator, periods PeriodSnapper, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		evaluator: evaluator,
		periods:   periods,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if evaluator != nil {
		mux.HandleFunc("POST /evaluate", s.handleEvaluate)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// evaluateRequest is one ad-hoc evaluation case. Either a period or a
// structure type plus height must be supplied; an explicit period wins.
type evaluateRequest struct {
	Magnitude     float64 `json:"magnitude"`
	DistanceKM    float64 `json:"distance_km"`
	Fault         string  `json:"fault"`
	VS30          float64 `json:"vs30"`
	Period        float64 `json:"period"`
	StructureType string  `json:"structure_type"`
	Height        float64 `json:"height"`
	Latitude      float64 `json:"lat"`
	Longitude     float64 `json:"lon"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}

	site, err := s.buildSite(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	scenario := gmpe.Scenario{
		Magnitude:  req.Magnitude,
		DistanceJB: req.DistanceKM,
		Fault:      gmpe.FaultType(req.Fault),
	}

	result, err := s.evaluator.Evaluate(site, scenario)
	if err != nil {
		status := http.StatusInternalServerError
		var precondition *gmpe.PreconditionError
		if errors.As(err, &precondition) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) buildSite(req evaluateRequest) (structure.Structure, error) {
	if req.Period > 0 {
		site := structure.Structure{
			Height:    req.Height,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			VS30:      req.VS30,
			Period:    s.periods.NearestPeriod(req.Period),
		}
		if site.Height == 0 {
			// Height feeds only the empirical period model, which an
			// explicit period bypasses.
			site.Height = 1
		}
		return site, nil
	}

	site, err := structure.NewASCEStructure(structure.StructureType(req.StructureType), req.Height, req.Latitude, req.Longitude, req.VS30)
	if err != nil {
		return structure.Structure{}, err
	}
	site.Period = s.periods.NearestPeriod(site.Period)
	return site, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
