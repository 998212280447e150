package models

// RaceInput is everything one decision needs: the participants with their
// model probabilities and prices, and the budget to allocate.
type RaceInput struct {
	RaceID        string                   `json:"race_id" yaml:"race_id"`
	Budget        float64                  `json:"budget" yaml:"budget"`
	RiskTolerance *float64                 `json:"risk_tolerance,omitempty" yaml:"risk_tolerance,omitempty"`
	Participants  []ParticipantObservation `json:"participants" yaml:"participants"`
}

// Decision is the pipeline output for one race
type Decision struct {
	ID            string             `json:"decision_id"`
	RaceID        string             `json:"race_id"`
	Budget        float64            `json:"budget"`
	RiskTolerance float64            `json:"risk_tolerance"`
	Distortions   []DistortionRecord `json:"distortions"`
	Opportunities []Opportunity      `json:"opportunities"`
	Portfolio     Portfolio          `json:"recommended_portfolio"`
}

// CountByTier returns how many opportunities landed in each tier
func (d *Decision) CountByTier() map[Tier]int {
	counts := make(map[Tier]int, len(AllTiers))
	for _, opp := range d.Opportunities {
		counts[opp.Tier]++
	}
	return counts
}

// SmartMoneyCount returns the number of participants flagged with late money
func (d *Decision) SmartMoneyCount() int {
	n := 0
	for _, rec := range d.Distortions {
		if rec.IsSmartMoney {
			n++
		}
	}
	return n
}
