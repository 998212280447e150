// Package opportunity scores each participant and assigns an opportunity tier.
package opportunity

import (
	"fmt"
	"sort"

	"github.com/yourusername/race-edge/internal/models"
)

const (
	reasonPlatinum   = "High EV with significant market distortion"
	reasonGold       = "Solid EV with clear bias or smart money"
	reasonSilver     = "Moderate EV"
	reasonBronze     = "Standard opportunity"
	reasonSmartMoney = " + Smart Money detected"
)

// Thresholds holds the tier boundaries. All comparisons are strict.
type Thresholds struct {
	PlatinumEV        float64 `json:"platinum_ev"`
	PlatinumIntensity float64 `json:"platinum_intensity"`
	GoldEV            float64 `json:"gold_ev"`
	GoldIntensity     float64 `json:"gold_intensity"`
	SilverEV          float64 `json:"silver_ev"`
}

// DefaultThresholds returns the reference tier policy
func DefaultThresholds() Thresholds {
	return Thresholds{
		PlatinumEV:        2.0,
		PlatinumIntensity: 0.5,
		GoldEV:            1.5,
		GoldIntensity:     0.3,
		SilverEV:          1.2,
	}
}

// ExpectedValue returns the unit-stake return under decimal odds; 1.0 is break-even
func ExpectedValue(winProbability, odds float64) float64 {
	return winProbability * odds
}

// RaceValueIndex scales EV by the distortion intensity. It is a display score
// and plays no part in tiering or allocation.
func RaceValueIndex(expectedValue, intensity float64) float64 {
	return expectedValue * (1 + intensity)
}

// AssignTier applies the tier table in priority order
func AssignTier(th Thresholds, expectedValue, intensity float64, isSmartMoney bool) (models.Tier, string) {
	var (
		tier   models.Tier
		reason string
	)

	switch {
	case expectedValue > th.PlatinumEV && intensity > th.PlatinumIntensity:
		tier, reason = models.TierPlatinum, reasonPlatinum
	case expectedValue > th.GoldEV && (intensity > th.GoldIntensity || isSmartMoney):
		tier, reason = models.TierGold, reasonGold
	case expectedValue > th.SilverEV:
		tier, reason = models.TierSilver, reasonSilver
	default:
		tier, reason = models.TierBronze, reasonBronze
	}

	if isSmartMoney {
		reason += reasonSmartMoney
	}
	return tier, reason
}

// EvaluateParticipant builds the opportunity for one participant
func EvaluateParticipant(th Thresholds, obs models.ParticipantObservation, rec models.DistortionRecord) models.Opportunity {
	ev := ExpectedValue(obs.WinProbability, obs.MarketOdds)
	tier, reason := AssignTier(th, ev, rec.DistortionIntensity, rec.IsSmartMoney)

	return models.Opportunity{
		Index:               obs.Index,
		Name:                obs.Name,
		ExpectedValue:       ev,
		RaceValueIndex:      RaceValueIndex(ev, rec.DistortionIntensity),
		Tier:                tier,
		Reason:              reason,
		WinProbability:      obs.WinProbability,
		MarketOdds:          obs.MarketOdds,
		IsSmartMoney:        rec.IsSmartMoney,
		DistortionIntensity: rec.DistortionIntensity,
	}
}

// Evaluate scores every participant and returns the opportunities sorted by
// expected value, highest first. Ties keep input order.
func Evaluate(th Thresholds, observations []models.ParticipantObservation, records []models.DistortionRecord) ([]models.Opportunity, error) {
	if len(observations) != len(records) {
		return nil, fmt.Errorf("got %d distortion records for %d participants", len(records), len(observations))
	}

	opportunities := make([]models.Opportunity, len(observations))
	for i, obs := range observations {
		if records[i].Index != obs.Index {
			return nil, fmt.Errorf("distortion record %d belongs to participant %d, expected %d", i, records[i].Index, obs.Index)
		}
		opportunities[i] = EvaluateParticipant(th, obs, records[i])
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].ExpectedValue > opportunities[j].ExpectedValue
	})

	return opportunities, nil
}
