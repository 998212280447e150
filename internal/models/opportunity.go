package models

// Tier is the discrete opportunity label
type Tier string

const (
	TierPlatinum Tier = "PLATINUM"
	TierGold     Tier = "GOLD"
	TierSilver   Tier = "SILVER"
	TierBronze   Tier = "BRONZE"
)

// AllTiers lists tiers from strongest to weakest
var AllTiers = []Tier{TierPlatinum, TierGold, TierSilver, TierBronze}

// IsStakeable reports whether capital may be allocated to the tier.
// Bronze is informational only.
func (t Tier) IsStakeable() bool {
	switch t {
	case TierPlatinum, TierGold, TierSilver:
		return true
	default:
		return false
	}
}

// Opportunity is the evaluated view of one participant. WinProbability and
// MarketOdds are carried so the allocator sizes stakes from the same inputs
// the evaluator used.
type Opportunity struct {
	Index               int     `json:"index"`
	Name                string  `json:"name,omitempty"`
	ExpectedValue       float64 `json:"expected_value"`
	RaceValueIndex      float64 `json:"race_value_index"`
	Tier                Tier    `json:"tier"`
	Reason              string  `json:"reason"`
	WinProbability      float64 `json:"win_probability"`
	MarketOdds          float64 `json:"market_odds"`
	IsSmartMoney        bool    `json:"is_smart_money"`
	DistortionIntensity float64 `json:"distortion_intensity"`
}

// Edge returns expected profit per unit staked
func (o Opportunity) Edge() float64 {
	return o.ExpectedValue - 1.0
}
