// Package server exposes the matching pipeline over a small JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/seedscout/seedscout/internal/ai"
	"github.com/seedscout/seedscout/internal/delivery"
	"github.com/seedscout/seedscout/internal/investors"
	"github.com/seedscout/seedscout/internal/matching"
	"github.com/seedscout/seedscout/internal/pipeline"
	"go.uber.org/zap"
)

// Runner executes one matching request.
type Runner interface {
	Run(ctx context.Context, input ai.FounderInput) (*pipeline.Result, error)
}

// Sender dispatches an outreach batch to the delivery service.
type Sender interface {
	SendMessages(ctx context.Context, items []delivery.Item) ([]delivery.ItemResult, error)
}

// Server wires the pipeline and the optional delivery client into HTTP
// handlers. Sender may be nil when no delivery service is configured.
type Server struct {
	pipeline Runner
	sender   Sender
	logger   *zap.Logger
}

func New(p Runner, sender Sender, logger *zap.Logger) *Server {
	return &Server{pipeline: p, sender: sender, logger: logger}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/match", s.handleMatch)
	mux.HandleFunc("/health", s.handleHealth)
	return s.logMiddleware(mux)
}

type matchRequest struct {
	AboutYou           string   `json:"about_you"`
	AboutStartup       string   `json:"about_startup"`
	SelectedIndustries []string `json:"selected_industries"`
	Send               bool     `json:"send"`
}

type matchResponse struct {
	Summary         *ai.FounderSummary    `json:"summary"`
	Candidates      []*investors.Match    `json:"candidates"`
	Outreach        []delivery.Item       `json:"outreach"`
	TotalFound      int                   `json:"total_found"`
	DeliveryResults []delivery.ItemResult `json:"delivery_results,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	input := ai.FounderInput{
		AboutYou:           req.AboutYou,
		AboutStartup:       req.AboutStartup,
		SelectedIndustries: req.SelectedIndustries,
	}

	result, err := s.pipeline.Run(r.Context(), input)
	if err != nil {
		status := statusFor(err)
		s.logger.Error("match request failed", zap.Int("status", status), zap.Error(err))
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	resp := matchResponse{
		Summary:    result.Summary,
		Candidates: result.Candidates,
		Outreach:   result.Outreach,
		TotalFound: result.TotalFound,
	}

	if req.Send && len(result.Outreach) > 0 {
		if s.sender == nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "delivery service is not configured"})
			return
		}
		results, err := s.sender.SendMessages(r.Context(), result.Outreach)
		if err != nil {
			s.logger.Error("dispatching outreach batch failed", zap.Error(err))
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
			return
		}
		resp.DeliveryResults = results
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ai.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ai.ErrExtractionFailed),
		errors.Is(err, ai.ErrEmbeddingDimensionMismatch),
		errors.Is(err, matching.ErrRetrievalFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		next.ServeHTTP(w, r)

		s.logger.Info("http request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
