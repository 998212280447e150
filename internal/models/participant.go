package models

// ParticipantObservation is one runner's model probability and market price
// for a single decision. It is never modified once built.
type ParticipantObservation struct {
	Index          int       `json:"index"`
	Name           string    `json:"name,omitempty"`
	WinProbability float64   `json:"win_probability"`
	MarketOdds     float64   `json:"market_odds"`
	PriceHistory   []float64 `json:"price_history,omitempty"`
}

// ImpliedProbability returns the probability encoded by the decimal odds
func (p ParticipantObservation) ImpliedProbability() float64 {
	if p.MarketOdds <= 0 {
		return 0
	}
	return 1.0 / p.MarketOdds
}

// NetOdds returns the net payout ratio b = odds - 1
func (p ParticipantObservation) NetOdds() float64 {
	return p.MarketOdds - 1.0
}

// FirstPrice returns the earliest observed price, or 0 when there is no history
func (p ParticipantObservation) FirstPrice() float64 {
	if len(p.PriceHistory) == 0 {
		return 0
	}
	return p.PriceHistory[0]
}

// LastPrice returns the latest observed price, or 0 when there is no history
func (p ParticipantObservation) LastPrice() float64 {
	if len(p.PriceHistory) == 0 {
		return 0
	}
	return p.PriceHistory[len(p.PriceHistory)-1]
}
