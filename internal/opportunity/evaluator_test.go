package opportunity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/race-edge/internal/models"
)

func TestExpectedValueAndRaceValueIndex(t *testing.T) {
	ev := ExpectedValue(0.5, 2.5)
	assert.InDelta(t, 1.25, ev, 1e-12)
	assert.InDelta(t, 1.25*1.3, RaceValueIndex(ev, 0.3), 1e-12)
	assert.Equal(t, ev, RaceValueIndex(ev, 0))
}

func TestAssignTier(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name         string
		ev           float64
		intensity    float64
		smartMoney   bool
		expectedTier models.Tier
		expectedWhy  string
	}{
		{name: "Platinum", ev: 2.5, intensity: 0.6, expectedTier: models.TierPlatinum, expectedWhy: reasonPlatinum},
		{name: "EV exactly 2.0 is not Platinum", ev: 2.0, intensity: 0.9, expectedTier: models.TierGold, expectedWhy: reasonGold},
		{name: "Intensity exactly 0.5 is not Platinum", ev: 2.5, intensity: 0.5, expectedTier: models.TierGold, expectedWhy: reasonGold},
		{name: "Gold on intensity", ev: 1.6, intensity: 0.31, expectedTier: models.TierGold, expectedWhy: reasonGold},
		{name: "Gold on smart money", ev: 1.6, intensity: 0.1, smartMoney: true, expectedTier: models.TierGold, expectedWhy: reasonGold + reasonSmartMoney},
		{name: "EV exactly 1.5 is not Gold", ev: 1.5, intensity: 0.9, expectedTier: models.TierSilver, expectedWhy: reasonSilver},
		{name: "High EV without distortion is Silver", ev: 3.0, intensity: 0.1, expectedTier: models.TierSilver, expectedWhy: reasonSilver},
		{name: "Silver", ev: 1.25, intensity: 0, expectedTier: models.TierSilver, expectedWhy: reasonSilver},
		{name: "EV exactly 1.2 is Bronze", ev: 1.2, intensity: 0, expectedTier: models.TierBronze, expectedWhy: reasonBronze},
		{name: "Bronze with smart money", ev: 0.8, intensity: 0.7, smartMoney: true, expectedTier: models.TierBronze, expectedWhy: reasonBronze + reasonSmartMoney},
		{name: "Platinum with smart money", ev: 2.1, intensity: 0.55, smartMoney: true, expectedTier: models.TierPlatinum, expectedWhy: reasonPlatinum + reasonSmartMoney},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, reason := AssignTier(th, tt.ev, tt.intensity, tt.smartMoney)
			assert.Equal(t, tt.expectedTier, tier)
			assert.Equal(t, tt.expectedWhy, reason)
		})
	}
}

func TestEvaluateParticipantSilverScenario(t *testing.T) {
	obs := models.ParticipantObservation{Index: 3, Name: "Horse A", WinProbability: 0.5, MarketOdds: 2.5}
	rec := models.DistortionRecord{Index: 3, DistortionIntensity: 0.1}

	opp := EvaluateParticipant(DefaultThresholds(), obs, rec)

	assert.Equal(t, 3, opp.Index)
	assert.Equal(t, "Horse A", opp.Name)
	assert.InDelta(t, 1.25, opp.ExpectedValue, 1e-12)
	assert.Equal(t, models.TierSilver, opp.Tier)
	assert.Equal(t, 0.5, opp.WinProbability)
	assert.Equal(t, 2.5, opp.MarketOdds)
	assert.InDelta(t, 1.25*1.1, opp.RaceValueIndex, 1e-12)
}

func TestEvaluateSortsByExpectedValueStable(t *testing.T) {
	obs := []models.ParticipantObservation{
		{Index: 0, WinProbability: 0.25, MarketOdds: 4.0},
		{Index: 1, WinProbability: 0.5, MarketOdds: 4.0},
		{Index: 2, WinProbability: 0.5, MarketOdds: 2.0},
		{Index: 3, WinProbability: 0.125, MarketOdds: 8.0},
	}
	records := make([]models.DistortionRecord, len(obs))
	for i := range obs {
		records[i] = models.DistortionRecord{Index: obs[i].Index}
	}

	opps, err := Evaluate(DefaultThresholds(), obs, records)
	require.NoError(t, err)
	require.Len(t, opps, 4)

	// EVs: 1.0, 2.0, 1.0, 1.0 - ties keep input order
	assert.Equal(t, []int{1, 0, 2, 3}, indexes(opps))
	for i := 1; i < len(opps); i++ {
		assert.GreaterOrEqual(t, opps[i-1].ExpectedValue, opps[i].ExpectedValue)
	}
}

func TestEvaluateRejectsMismatchedRecords(t *testing.T) {
	obs := []models.ParticipantObservation{{Index: 0, WinProbability: 0.5, MarketOdds: 2.0}}

	_, err := Evaluate(DefaultThresholds(), obs, nil)
	assert.Error(t, err)

	_, err = Evaluate(DefaultThresholds(), obs, []models.DistortionRecord{{Index: 7}})
	assert.Error(t, err)
}

func TestEvaluateDoesNotMutateInputs(t *testing.T) {
	obs := []models.ParticipantObservation{
		{Index: 0, WinProbability: 0.1, MarketOdds: 3.0},
		{Index: 1, WinProbability: 0.6, MarketOdds: 3.0},
	}
	records := []models.DistortionRecord{{Index: 0}, {Index: 1}}

	_, err := Evaluate(DefaultThresholds(), obs, records)
	require.NoError(t, err)
	assert.Equal(t, 0, obs[0].Index)
	assert.Equal(t, 0, records[0].Index)
}

func indexes(opps []models.Opportunity) []int {
	out := make([]int, len(opps))
	for i, o := range opps {
		out[i] = o.Index
	}
	return out
}
