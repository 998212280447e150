package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yourusername/race-edge/internal/models"
	"github.com/yourusername/race-edge/internal/probability"
)

const maxBodyBytes = 1 << 20

// handleCreateDecision evaluates one race.
// POST /api/v1/decisions
func (s *Server) handleCreateDecision(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	rr, err := req.toRace(s.cfg.DefaultBudget)
	if err != nil {
		s.writeError(w, err)
		return
	}

	decision, err := s.evaluate(r.Context(), rr)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := newDecisionResponse(decision)
	s.persist(r.Context(), decision)
	s.publish(resp)
	respondJSON(w, http.StatusOK, resp)
}

// handleBatch evaluates independent races in one call. Per-race failures are
// reported inline.
// POST /api/v1/decisions/batch
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if len(req.Races) == 0 {
		s.writeError(w, models.NewValidationError("races", "at least one race is required"))
		return
	}
	if s.cfg.MaxBatchSize > 0 && len(req.Races) > s.cfg.MaxBatchSize {
		s.writeError(w, models.NewValidationError("races",
			fmt.Sprintf("batch of %d exceeds limit of %d", len(req.Races), s.cfg.MaxBatchSize)))
		return
	}

	items := make([]BatchItem, len(req.Races))
	inputs := make([]models.RaceInput, 0, len(req.Races))
	positions := make([]int, 0, len(req.Races))

	for i, raceReq := range req.Races {
		rr, err := raceReq.toRace(s.cfg.DefaultBudget)
		if err == nil {
			err = s.fillProbabilities(r.Context(), &rr)
		}
		if err != nil {
			_, body := s.errorBody(err)
			items[i] = BatchItem{Error: &body}
			continue
		}
		inputs = append(inputs, rr.input)
		positions = append(positions, i)
	}

	results, err := s.pipeline.RunBatch(r.Context(), inputs)
	if err != nil {
		s.writeError(w, err)
		return
	}

	for j, res := range results {
		i := positions[j]
		if res.Err != nil {
			_, body := s.errorBody(res.Err)
			items[i] = BatchItem{Error: &body}
			continue
		}
		resp := newDecisionResponse(res.Decision)
		s.persist(r.Context(), res.Decision)
		s.publish(resp)
		items[i] = BatchItem{Decision: resp}
	}

	respondJSON(w, http.StatusOK, BatchResponse{Results: items})
}

// handleGetDecision returns a stored decision.
// GET /api/v1/decisions/{id}
func (s *Server) handleGetDecision(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	decision, err := s.repo.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newDecisionResponse(decision))
}

func (s *Server) evaluate(ctx context.Context, rr raceRequest) (*models.Decision, error) {
	if err := s.fillProbabilities(ctx, &rr); err != nil {
		return nil, err
	}
	return s.pipeline.Run(ctx, rr.input)
}

func (s *Server) fillProbabilities(ctx context.Context, rr *raceRequest) error {
	if !rr.needModel {
		return nil
	}
	if s.provider == nil {
		return models.NewParticipantError(0, "win_probability", "is required when no probability model is configured")
	}
	return probability.Fill(ctx, s.provider, &rr.input, rr.features)
}

func (s *Server) persist(ctx context.Context, decision *models.Decision) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Save(ctx, decision); err != nil {
		s.logger.WithError(err).WithField("decision_id", decision.ID).Error("Failed to store decision")
		return
	}
	s.audit.LogDecisionStored(decision.ID, decision.RaceID, len(decision.Portfolio.Items),
		decision.Portfolio.TotalAmount, time.Now())
}

func (s *Server) publish(resp *DecisionResponse) {
	if s.hub != nil {
		s.hub.Publish("decision", resp)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, body := s.errorBody(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("status", status).Error("Request failed")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// errorBody maps an error to its status code and wire form
func (s *Server) errorBody(err error) (int, ErrorResponse) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		body := ErrorResponse{Error: ve.Error(), Field: wireField(ve.Field)}
		if ve.Index >= 0 {
			index := ve.Index
			body.Index = &index
		}
		return http.StatusBadRequest, body
	case errors.Is(err, models.ErrInvalidID):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Field: "id"}
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "decision not found"}
	case errors.Is(err, probability.ErrInvalidPrediction):
		return http.StatusBadGateway, ErrorResponse{Error: err.Error()}
	case errors.Is(err, probability.ErrModelUnavailable):
		return http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Error: "request timed out"}
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "request cancelled"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal error"}
	}
}

// wireField names a model field the way requests spell it
func wireField(field string) string {
	if field == "market_odds" {
		return "odds"
	}
	return field
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
