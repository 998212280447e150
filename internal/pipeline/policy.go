package pipeline

import (
	"github.com/yourusername/race-edge/internal/distortion"
	"github.com/yourusername/race-edge/internal/models"
	"github.com/yourusername/race-edge/internal/opportunity"
	"github.com/yourusername/race-edge/internal/portfolio"
)

// Policy is the complete decision configuration. Identical policies and
// inputs always produce identical decisions.
type Policy struct {
	Distortion    distortion.Config      `json:"distortion"`
	Tiers         opportunity.Thresholds `json:"tiers"`
	RiskTolerance float64                `json:"risk_tolerance"`
	RoundingUnit  float64                `json:"rounding_unit"`
	// Concurrency bounds the distortion fan-out; 0 or 1 runs sequentially.
	Concurrency int `json:"-"`
}

// DefaultPolicy returns the reference policy: half Kelly, stakes rounded to 100
func DefaultPolicy() Policy {
	return Policy{
		Distortion:    distortion.DefaultConfig(),
		Tiers:         opportunity.DefaultThresholds(),
		RiskTolerance: portfolio.DefaultRiskTolerance,
		RoundingUnit:  portfolio.DefaultRoundingUnit,
	}
}

// Validate checks the policy
func (p Policy) Validate() error {
	a := portfolio.Allocator{RiskTolerance: p.RiskTolerance, RoundingUnit: p.RoundingUnit}
	if err := a.Validate(); err != nil {
		return err
	}
	if p.Tiers.SilverEV >= p.Tiers.GoldEV || p.Tiers.GoldEV >= p.Tiers.PlatinumEV {
		return models.NewValidationError("tiers", "expected value thresholds must be strictly increasing")
	}
	if p.Tiers.GoldIntensity > p.Tiers.PlatinumIntensity {
		return models.NewValidationError("tiers", "intensity thresholds must be increasing")
	}
	if p.Distortion.BiasThreshold < 0 {
		return models.NewValidationError("bias_threshold", "must not be negative")
	}
	if p.Distortion.SmartMoneyThreshold >= 0 {
		return models.NewValidationError("smart_money_threshold", "must be negative")
	}
	if p.Concurrency < 0 {
		return models.NewValidationError("concurrency", "must not be negative")
	}
	return nil
}

// withRisk returns a copy of the policy using the given risk tolerance
func (p Policy) withRisk(risk float64) Policy {
	p.RiskTolerance = risk
	return p
}
