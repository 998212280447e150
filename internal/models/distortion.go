package models

// BiasType classifies the gap between model and market probability
type BiasType string

const (
	BiasUnderestimated BiasType = "Underestimated (Value)"
	BiasOverestimated  BiasType = "Overestimated (Hype)"
	BiasNone           BiasType = "None"
)

// DistortionRecord describes how far the market price of one participant
// departs from the model, plus the late-money signal.
type DistortionRecord struct {
	Index               int      `json:"index"`
	BiasScore           float64  `json:"bias_score"`
	BiasType            BiasType `json:"bias_type"`
	SmartMoneyScore     float64  `json:"smart_money_score"`
	IsSmartMoney        bool     `json:"is_smart_money"`
	DistortionIntensity float64  `json:"distortion_intensity"`
}

// HasBias reports whether the bias crossed either threshold
func (d DistortionRecord) HasBias() bool {
	return d.BiasType != BiasNone
}
