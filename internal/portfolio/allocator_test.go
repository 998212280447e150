package portfolio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/race-edge/internal/models"
)

func newTestAllocator(t *testing.T, risk float64) *Allocator {
	t.Helper()
	a, err := NewAllocator(risk)
	require.NoError(t, err)
	return a
}

func opp(index int, tier models.Tier, p, odds float64) models.Opportunity {
	return models.Opportunity{
		Index:          index,
		Tier:           tier,
		Reason:         "test",
		WinProbability: p,
		MarketOdds:     odds,
		ExpectedValue:  p * odds,
	}
}

func TestFullKelly(t *testing.T) {
	tests := []struct {
		name     string
		p        float64
		odds     float64
		expected float64
	}{
		{name: "Even money edge", p: 0.6, odds: 2.0, expected: 0.2},
		{name: "Long shot edge", p: 0.2, odds: 6.0, expected: 0.04},
		{name: "No edge", p: 0.5, odds: 2.0, expected: 0},
		{name: "Negative edge", p: 0.3, odds: 2.0, expected: -0.4},
		{name: "Odds of one", p: 0.9, odds: 1.0, expected: 0},
		{name: "Odds below one", p: 0.9, odds: 0.8, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, FullKelly(tt.p, tt.odds), 1e-9)
		})
	}
}

func TestKellyFractionScalesAndClamps(t *testing.T) {
	half := newTestAllocator(t, 0.5)
	assert.InDelta(t, 0.1, half.KellyFraction(0.6, 2.0), 1e-9)
	assert.Equal(t, 0.0, half.KellyFraction(0.3, 2.0))

	none := newTestAllocator(t, 0)
	assert.Equal(t, 0.0, none.KellyFraction(0.9, 3.0))

	full := newTestAllocator(t, 1)
	assert.InDelta(t, 0.2, full.KellyFraction(0.6, 2.0), 1e-9)
}

func TestZeroStakeWhenNoNetPayout(t *testing.T) {
	a := newTestAllocator(t, 1)
	for _, odds := range []float64{1.0, 0.99, 0.5} {
		assert.Equal(t, 0.0, a.KellyFraction(1.0, odds), "odds %.2f", odds)
	}

	p, err := a.Allocate([]models.Opportunity{opp(0, models.TierPlatinum, 1.0, 1.0)}, 10000)
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
}

func TestRoundStake(t *testing.T) {
	a := newTestAllocator(t, 0.5)

	tests := []struct {
		amount   float64
		expected float64
	}{
		{amount: 23076.92, expected: 23100},
		{amount: 26923.08, expected: 26900},
		{amount: 49.99, expected: 0},
		{amount: 250, expected: 200},
		{amount: 350, expected: 400},
		{amount: 1000, expected: 1000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, a.RoundStake(tt.amount), "amount %.2f", tt.amount)
	}
}

func TestAllocateRenormalizesOverBudget(t *testing.T) {
	a := newTestAllocator(t, 1)
	opps := []models.Opportunity{
		opp(4, models.TierGold, 0.8, 2.0),    // full Kelly 0.6
		opp(1, models.TierSilver, 0.85, 2.0), // full Kelly 0.7
	}

	p, err := a.Allocate(opps, 50000)
	require.NoError(t, err)
	require.Len(t, p.Items, 2)

	assert.True(t, p.Renormalized)
	assert.Equal(t, 4, p.Items[0].Index)
	assert.Equal(t, 1, p.Items[1].Index)
	assert.InDelta(t, 0.6/1.3, p.Items[0].StakeFraction, 1e-9)
	assert.InDelta(t, 0.7/1.3, p.Items[1].StakeFraction, 1e-9)
	assert.Equal(t, 23100.0, p.Items[0].StakeAmount)
	assert.Equal(t, 26900.0, p.Items[1].StakeAmount)
	assert.InDelta(t, 1.0, p.TotalFraction, 1e-9)
	assert.LessOrEqual(t, p.TotalAmount, 50000.0)
}

func TestAllocateLeavesUnderBudgetAlone(t *testing.T) {
	a := newTestAllocator(t, 0.5)
	opps := []models.Opportunity{
		opp(0, models.TierPlatinum, 0.6, 2.0),
		opp(1, models.TierSilver, 0.2, 6.0),
	}

	p, err := a.Allocate(opps, 10000)
	require.NoError(t, err)
	require.Len(t, p.Items, 2)

	assert.False(t, p.Renormalized)
	assert.InDelta(t, 0.1, p.Items[0].StakeFraction, 1e-9)
	assert.InDelta(t, 0.02, p.Items[1].StakeFraction, 1e-9)
	assert.Equal(t, 1000.0, p.Items[0].StakeAmount)
	assert.Equal(t, 200.0, p.Items[1].StakeAmount)
	assert.Equal(t, 1200.0, p.TotalAmount)
}

func TestAllocateSkipsBronzeAndNonPositive(t *testing.T) {
	a := newTestAllocator(t, 0.5)
	opps := []models.Opportunity{
		opp(0, models.TierBronze, 0.6, 2.0),
		opp(1, models.TierSilver, 0.3, 2.0),
		opp(2, models.TierGold, 0.5, 2.0),
		opp(3, models.TierSilver, 0.6, 2.0),
	}

	p, err := a.Allocate(opps, 10000)
	require.NoError(t, err)
	require.Len(t, p.Items, 1)
	assert.Equal(t, 3, p.Items[0].Index)
	assert.Equal(t, models.TierSilver, p.Items[0].Tier)
	assert.Equal(t, "test", p.Items[0].Reason)
}

func TestAllocateEmptyInputs(t *testing.T) {
	a := newTestAllocator(t, 0.5)

	p, err := a.Allocate(nil, 10000)
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
	assert.Equal(t, 0.0, p.TotalAmount)

	p, err = a.Allocate([]models.Opportunity{opp(0, models.TierGold, 0.6, 2.0)}, 0)
	require.NoError(t, err)
	require.Len(t, p.Items, 1)
	assert.Equal(t, 0.0, p.Items[0].StakeAmount)
}

func TestAllocateTrimsRoundingOverBudget(t *testing.T) {
	a := newTestAllocator(t, 1)

	// 0.95 * 160 = 152 rounds to 200, which would overspend the budget
	p, err := a.Allocate([]models.Opportunity{opp(0, models.TierPlatinum, 0.975, 2.0)}, 160)
	require.NoError(t, err)
	require.Len(t, p.Items, 1)
	assert.Equal(t, 100.0, p.Items[0].StakeAmount)
	assert.LessOrEqual(t, p.TotalAmount, 160.0)
}

func TestAllocateFractionsNeverExceedOne(t *testing.T) {
	a := newTestAllocator(t, 1)

	var opps []models.Opportunity
	for i := 0; i < 12; i++ {
		opps = append(opps, opp(i, models.TierGold, 0.5+float64(i)*0.04, 2.0+float64(i%3)))
	}

	for _, budget := range []float64{0, 150, 999, 10000, 50000, 123456} {
		p, err := a.Allocate(opps, budget)
		require.NoError(t, err)

		sum, total := 0.0, 0.0
		for _, item := range p.Items {
			assert.Greater(t, item.StakeFraction, 0.0)
			assert.LessOrEqual(t, item.StakeFraction, 1.0+1e-9)
			sum += item.StakeFraction
			total += item.StakeAmount
		}
		assert.LessOrEqual(t, sum, 1.0+1e-9)
		assert.LessOrEqual(t, total, budget)
	}
}

func TestAllocateValidation(t *testing.T) {
	_, err := NewAllocator(1.5)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	_, err = NewAllocator(-0.1)
	assert.Error(t, err)

	a := newTestAllocator(t, 0.5)
	_, err = a.Allocate(nil, -1)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "budget", verr.Field)
}
