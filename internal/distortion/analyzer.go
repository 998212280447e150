// Package distortion detects pricing inefficiencies between model probability
// and the market-implied probability of each participant.
package distortion

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/race-edge/internal/models"
)

// Config holds the detection policy. The defaults are fixed policy
// constants; override them only to run a different policy.
type Config struct {
	BiasThreshold       float64 `json:"bias_threshold"`
	SmartMoneyThreshold float64 `json:"smart_money_threshold"`
	SmartMoneyBonus     float64 `json:"smart_money_bonus"`
}

// DefaultConfig returns the reference policy
func DefaultConfig() Config {
	return Config{
		BiasThreshold:       0.1,
		SmartMoneyThreshold: -0.15,
		SmartMoneyBonus:     0.5,
	}
}

// DetectBias returns the signed gap between model and implied probability
// and its classification.
func DetectBias(cfg Config, winProbability, odds float64) (float64, models.BiasType) {
	implied := 0.0
	if odds > 0 {
		implied = 1.0 / odds
	}
	score := winProbability - implied

	switch {
	case score > cfg.BiasThreshold:
		return score, models.BiasUnderestimated
	case score < -cfg.BiasThreshold:
		return score, models.BiasOverestimated
	default:
		return score, models.BiasNone
	}
}

// DetectSmartMoney measures the cumulative price change from the first to the
// last observation. A drop beyond the threshold means the market shortened the
// price late, which is read as informed money arriving.
func DetectSmartMoney(cfg Config, history []float64) (float64, bool) {
	if len(history) < 2 {
		return 0, false
	}
	first := history[0]
	if first == 0 {
		return 0, false
	}
	change := (history[len(history)-1] - first) / first
	return change, change < cfg.SmartMoneyThreshold
}

// AnalyzeParticipant builds the distortion record for one participant
func AnalyzeParticipant(cfg Config, obs models.ParticipantObservation) models.DistortionRecord {
	bias, biasType := DetectBias(cfg, obs.WinProbability, obs.MarketOdds)
	smScore, isSmart := DetectSmartMoney(cfg, obs.PriceHistory)

	intensity := math.Abs(bias)
	if isSmart {
		intensity += cfg.SmartMoneyBonus
	}

	return models.DistortionRecord{
		Index:               obs.Index,
		BiasScore:           bias,
		BiasType:            biasType,
		SmartMoneyScore:     smScore,
		IsSmartMoney:        isSmart,
		DistortionIntensity: intensity,
	}
}

// Analyze returns one record per observation, in input order
func Analyze(cfg Config, observations []models.ParticipantObservation) []models.DistortionRecord {
	records := make([]models.DistortionRecord, len(observations))
	for i, obs := range observations {
		records[i] = AnalyzeParticipant(cfg, obs)
	}
	return records
}

// AnalyzeConcurrent fans the per-participant analysis out across goroutines.
// The result is identical to Analyze.
func AnalyzeConcurrent(ctx context.Context, cfg Config, observations []models.ParticipantObservation, limit int) ([]models.DistortionRecord, error) {
	records := make([]models.DistortionRecord, len(observations))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range observations {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records[i] = AnalyzeParticipant(cfg, observations[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}
