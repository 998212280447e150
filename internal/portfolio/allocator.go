// Package portfolio turns tiered opportunities into fractional-Kelly stakes
// that fit inside a single race budget.
package portfolio

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/yourusername/race-edge/internal/models"
)

const (
	// DefaultRiskTolerance is half Kelly
	DefaultRiskTolerance = 0.5
	// DefaultRoundingUnit rounds stakes to the nearest 100 currency units
	DefaultRoundingUnit = 100.0
)

// Allocator sizes stakes. RiskTolerance scales full Kelly linearly:
// 0 stakes nothing, 1 stakes full Kelly.
type Allocator struct {
	RiskTolerance float64
	RoundingUnit  float64
}

// NewAllocator creates an allocator with the given risk tolerance
func NewAllocator(riskTolerance float64) (*Allocator, error) {
	a := &Allocator{RiskTolerance: riskTolerance, RoundingUnit: DefaultRoundingUnit}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks the allocator configuration
func (a *Allocator) Validate() error {
	if math.IsNaN(a.RiskTolerance) || a.RiskTolerance < 0 || a.RiskTolerance > 1 {
		return models.NewValidationError("risk_tolerance", "must be between 0 and 1")
	}
	if math.IsNaN(a.RoundingUnit) || a.RoundingUnit < 0 {
		return models.NewValidationError("rounding_unit", "must not be negative")
	}
	return nil
}

// FullKelly returns the Kelly-optimal fraction f* = (p(b+1) - 1) / b for
// net odds b = odds - 1. It is 0 when the market pays nothing net.
func FullKelly(winProbability, odds float64) float64 {
	b := odds - 1.0
	if b <= 0 {
		return 0
	}
	return (winProbability*(b+1) - 1) / b
}

// KellyFraction scales full Kelly by the risk tolerance. A negative result
// is clamped to 0; no short positions are taken.
func (a *Allocator) KellyFraction(winProbability, odds float64) float64 {
	return math.Max(0, FullKelly(winProbability, odds)*a.RiskTolerance)
}

// RoundStake rounds an amount to the nearest rounding unit using
// round-half-even.
func (a *Allocator) RoundStake(amount float64) float64 {
	if a.RoundingUnit <= 0 {
		return amount
	}
	unit := decimal.NewFromFloat(a.RoundingUnit)
	return decimal.NewFromFloat(amount).Div(unit).RoundBank(0).Mul(unit).InexactFloat64()
}

// Allocate computes a stake for every Platinum, Gold and Silver opportunity
// with a positive Kelly fraction. When the fractions sum above 1 they are
// rescaled to sum to 1. Items keep the input order.
func (a *Allocator) Allocate(opportunities []models.Opportunity, totalBudget float64) (models.Portfolio, error) {
	if err := a.Validate(); err != nil {
		return models.Portfolio{}, err
	}
	if math.IsNaN(totalBudget) || math.IsInf(totalBudget, 0) || totalBudget < 0 {
		return models.Portfolio{}, models.NewValidationError("budget", "must be a finite non-negative amount")
	}

	items := make([]models.PortfolioItem, 0, len(opportunities))
	totalFraction := 0.0

	for _, opp := range opportunities {
		if !opp.Tier.IsStakeable() {
			continue
		}
		fraction := a.KellyFraction(opp.WinProbability, opp.MarketOdds)
		if fraction <= 0 {
			continue
		}
		items = append(items, models.PortfolioItem{
			Index:         opp.Index,
			Name:          opp.Name,
			Tier:          opp.Tier,
			StakeFraction: fraction,
			Reason:        opp.Reason,
		})
		totalFraction += fraction
	}

	renormalized := false
	if totalFraction > 1.0 {
		for i := range items {
			items[i].StakeFraction /= totalFraction
		}
		renormalized = true
	}

	for i := range items {
		items[i].StakeAmount = a.RoundStake(totalBudget * items[i].StakeFraction)
	}
	a.trimToBudget(items, totalBudget)

	portfolio := models.Portfolio{Items: items, Renormalized: renormalized}
	for _, item := range items {
		portfolio.TotalFraction += item.StakeFraction
		portfolio.TotalAmount += item.StakeAmount
	}
	return portfolio, nil
}

// trimToBudget takes one rounding unit back from the stakes that were rounded
// up the most until the rounded total no longer exceeds the budget.
func (a *Allocator) trimToBudget(items []models.PortfolioItem, totalBudget float64) {
	if a.RoundingUnit <= 0 {
		return
	}
	total := 0.0
	for _, item := range items {
		total += item.StakeAmount
	}
	if total <= totalBudget {
		return
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	excess := func(i int) float64 {
		return items[i].StakeAmount - totalBudget*items[i].StakeFraction
	}
	sort.SliceStable(order, func(x, y int) bool {
		return excess(order[x]) > excess(order[y])
	})

	for _, i := range order {
		if total <= totalBudget {
			return
		}
		if excess(i) <= 0 || items[i].StakeAmount < a.RoundingUnit {
			continue
		}
		items[i].StakeAmount -= a.RoundingUnit
		total -= a.RoundingUnit
	}
}
