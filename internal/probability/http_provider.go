package probability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-edge/internal/logger"
	"github.com/yourusername/race-edge/internal/metrics"
)

// PredictRequest is the model service request body
type PredictRequest struct {
	RaceID       string                `json:"race_id"`
	Participants []ParticipantFeatures `json:"participants"`
}

// PredictResponse is the model service response body
type PredictResponse struct {
	Probabilities []float64 `json:"probabilities"`
	ModelVersion  string    `json:"model_version,omitempty"`
}

// HTTPProvider calls a model service over HTTP
type HTTPProvider struct {
	client  *RateLimitedHTTPClient
	baseURL string
	apiKey  string
	log     *logger.ModelLogger
}

// NewHTTPProvider creates a provider for the model service at baseURL
func NewHTTPProvider(baseURL, apiKey string, cfg HTTPClientConfig, log *logrus.Logger) *HTTPProvider {
	if log == nil {
		log = logger.Discard()
	}
	modelLog := logger.NewModelLogger(log)
	return &HTTPProvider{
		client:  NewRateLimitedHTTPClient(cfg, modelLog.Entry),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		log:     modelLog,
	}
}

// Predict posts the race features to <baseURL>/predict
func (p *HTTPProvider) Predict(ctx context.Context, raceID string, participants []ParticipantFeatures) ([]float64, error) {
	start := time.Now()

	probs, err := p.predict(ctx, raceID, participants)
	elapsed := time.Since(start)
	switch {
	case err == nil:
		metrics.RecordModelRequest("success", elapsed.Seconds())
		p.log.LogPredictionRequest(raceID, len(participants), false, float64(elapsed.Milliseconds()))
	default:
		status := "failure"
		if errors.Is(err, ErrInvalidPrediction) {
			status = "invalid"
		}
		metrics.RecordModelRequest(status, elapsed.Seconds())
		p.log.LogPredictionError(raceID, err)
	}
	return probs, err
}

func (p *HTTPProvider) predict(ctx context.Context, raceID string, participants []ParticipantFeatures) ([]float64, error) {
	body, err := json.Marshal(PredictRequest{RaceID: raceID, Participants: participants})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrModelUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrediction, err)
	}
	if err := checkPredictions(out.Probabilities, len(participants)); err != nil {
		return nil, err
	}
	return out.Probabilities, nil
}

// HealthCheck checks model service health
func (p *HTTPProvider) HealthCheck(ctx context.Context) error {
	resp, err := p.client.Get(ctx, p.baseURL+"/health")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrModelUnavailable, resp.StatusCode)
	}
	return nil
}

// Close releases idle connections
func (p *HTTPProvider) Close() error {
	return p.client.Close()
}
