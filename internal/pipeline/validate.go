package pipeline

import (
	"math"

	"github.com/yourusername/race-edge/internal/models"
)

// ValidateInput checks a race input before any analysis runs. The first
// violation is returned as a *models.ValidationError.
func ValidateInput(in models.RaceInput) error {
	if !isFinite(in.Budget) || in.Budget < 0 {
		return models.NewValidationError("budget", "must be a finite non-negative amount")
	}
	if in.RiskTolerance != nil {
		r := *in.RiskTolerance
		if math.IsNaN(r) || r < 0 || r > 1 {
			return models.NewValidationError("risk_tolerance", "must be between 0 and 1")
		}
	}

	seen := make(map[int]struct{}, len(in.Participants))
	for _, p := range in.Participants {
		if _, dup := seen[p.Index]; dup {
			return models.NewParticipantError(p.Index, "index", "duplicate participant index")
		}
		seen[p.Index] = struct{}{}

		if !isFinite(p.MarketOdds) || p.MarketOdds <= 1 {
			return models.NewParticipantError(p.Index, "market_odds", "must be finite decimal odds greater than 1")
		}
		if math.IsNaN(p.WinProbability) || p.WinProbability < 0 || p.WinProbability > 1 {
			return models.NewParticipantError(p.Index, "win_probability", "must be between 0 and 1")
		}
		for _, price := range p.PriceHistory {
			if !isFinite(price) || price <= 0 {
				return models.NewParticipantError(p.Index, "price_history", "prices must be finite and positive")
			}
		}
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
