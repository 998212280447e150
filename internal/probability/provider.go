// Package probability obtains win probabilities from an external model
// service when a race arrives without them.
package probability

import (
	"context"
	"fmt"
	"math"

	"github.com/yourusername/race-edge/internal/models"
)

// ParticipantFeatures is what the model sees for one participant
type ParticipantFeatures struct {
	Index        int                `json:"index"`
	Name         string             `json:"name,omitempty"`
	MarketOdds   float64            `json:"odds"`
	PriceHistory []float64          `json:"odds_history,omitempty"`
	Attributes   map[string]float64 `json:"attributes,omitempty"`
}

// Provider predicts one win probability per participant, in input order
type Provider interface {
	Predict(ctx context.Context, raceID string, participants []ParticipantFeatures) ([]float64, error)
}

// FeaturesFrom builds model features from observations
func FeaturesFrom(observations []models.ParticipantObservation) []ParticipantFeatures {
	features := make([]ParticipantFeatures, len(observations))
	for i, obs := range observations {
		features[i] = ParticipantFeatures{
			Index:        obs.Index,
			Name:         obs.Name,
			MarketOdds:   obs.MarketOdds,
			PriceHistory: obs.PriceHistory,
		}
	}
	return features
}

// Fill asks the provider for probabilities and writes them into the race.
// The race is modified in place only on success.
func Fill(ctx context.Context, provider Provider, in *models.RaceInput, features []ParticipantFeatures) error {
	if len(in.Participants) == 0 {
		return nil
	}
	if features == nil {
		features = FeaturesFrom(in.Participants)
	}

	probs, err := provider.Predict(ctx, in.RaceID, features)
	if err != nil {
		return err
	}
	if err := checkPredictions(probs, len(in.Participants)); err != nil {
		return err
	}

	for i := range in.Participants {
		in.Participants[i].WinProbability = probs[i]
	}
	return nil
}

func checkPredictions(probs []float64, want int) error {
	if len(probs) != want {
		return fmt.Errorf("%w: got %d probabilities for %d participants", ErrInvalidPrediction, len(probs), want)
	}
	for i, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("%w: probability %d is %v", ErrInvalidPrediction, i, p)
		}
	}
	return nil
}
