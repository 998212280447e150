package server

import (
	"github.com/yourusername/race-edge/internal/models"
	"github.com/yourusername/race-edge/internal/probability"
)

// ParticipantRequest is one runner in a decision request. Odds history is
// accepted under both price_history and odds_history.
type ParticipantRequest struct {
	Name           string             `json:"name,omitempty"`
	Odds           *float64           `json:"odds"`
	WinProbability *float64           `json:"win_probability,omitempty"`
	PriceHistory   []float64          `json:"price_history,omitempty"`
	OddsHistory    []float64          `json:"odds_history,omitempty"`
	Attributes     map[string]float64 `json:"attributes,omitempty"`
}

// DecisionRequest is the body of POST /api/v1/decisions. Participants may be
// sent as horses.
type DecisionRequest struct {
	RaceID        string               `json:"race_id"`
	Budget        *float64             `json:"budget,omitempty"`
	RiskTolerance *float64             `json:"risk_tolerance,omitempty"`
	Participants  []ParticipantRequest `json:"participants,omitempty"`
	Horses        []ParticipantRequest `json:"horses,omitempty"`
}

// BatchRequest is the body of POST /api/v1/decisions/batch
type BatchRequest struct {
	Races []DecisionRequest `json:"races"`
}

// DecisionResponse is the wire form of a decision
type DecisionResponse struct {
	DecisionID           string                    `json:"decision_id"`
	RaceID               string                    `json:"race_id"`
	Budget               float64                   `json:"budget"`
	RiskTolerance        float64                   `json:"risk_tolerance"`
	Opportunities        []models.Opportunity      `json:"opportunities"`
	Distortions          []models.DistortionRecord `json:"distortions,omitempty"`
	RecommendedPortfolio []models.PortfolioItem    `json:"recommended_portfolio"`
	TotalFraction        float64                   `json:"total_fraction"`
	TotalAllocated       float64                   `json:"total_allocated"`
	Renormalized         bool                      `json:"renormalized"`
}

// BatchItem is one race's outcome in a batch response
type BatchItem struct {
	Decision *DecisionResponse `json:"decision,omitempty"`
	Error    *ErrorResponse    `json:"error,omitempty"`
}

// BatchResponse is the body returned by the batch endpoint
type BatchResponse struct {
	Results []BatchItem `json:"results"`
}

// ErrorResponse is the error body. Field and Index are set for validation
// failures; Index is omitted for race-level fields.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Index *int   `json:"index,omitempty"`
}

func newDecisionResponse(d *models.Decision) *DecisionResponse {
	items := d.Portfolio.Items
	if items == nil {
		items = []models.PortfolioItem{}
	}
	opps := d.Opportunities
	if opps == nil {
		opps = []models.Opportunity{}
	}

	return &DecisionResponse{
		DecisionID:           d.ID,
		RaceID:               d.RaceID,
		Budget:               d.Budget,
		RiskTolerance:        d.RiskTolerance,
		Opportunities:        opps,
		Distortions:          d.Distortions,
		RecommendedPortfolio: items,
		TotalFraction:        d.Portfolio.TotalFraction,
		TotalAllocated:       d.Portfolio.TotalAmount,
		Renormalized:         d.Portfolio.Renormalized,
	}
}

// raceRequest is a decoded request ready for the pipeline
type raceRequest struct {
	input     models.RaceInput
	features  []probability.ParticipantFeatures
	needModel bool
}

// toRace converts the wire request into pipeline input. Probabilities must be
// given for every participant or for none; none means the model fills them.
func (req DecisionRequest) toRace(defaultBudget float64) (raceRequest, error) {
	participants := req.Participants
	if len(participants) == 0 {
		participants = req.Horses
	}

	budget := defaultBudget
	if req.Budget != nil {
		budget = *req.Budget
	}

	in := models.RaceInput{
		RaceID:        req.RaceID,
		Budget:        budget,
		RiskTolerance: req.RiskTolerance,
		Participants:  make([]models.ParticipantObservation, len(participants)),
	}

	missing := 0
	firstMissing := -1
	for i, p := range participants {
		if p.Odds == nil {
			return raceRequest{}, models.NewParticipantError(i, "odds", "is required")
		}

		history := p.PriceHistory
		if len(history) == 0 {
			history = p.OddsHistory
		}

		obs := models.ParticipantObservation{
			Index:        i,
			Name:         p.Name,
			MarketOdds:   *p.Odds,
			PriceHistory: history,
		}
		if p.WinProbability != nil {
			obs.WinProbability = *p.WinProbability
		} else {
			missing++
			if firstMissing < 0 {
				firstMissing = i
			}
		}
		in.Participants[i] = obs
	}

	if missing > 0 && missing < len(participants) {
		return raceRequest{}, models.NewParticipantError(firstMissing, "win_probability",
			"must be given for every participant or for none")
	}

	rr := raceRequest{input: in}
	if missing > 0 {
		rr.needModel = true
		rr.features = probability.FeaturesFrom(in.Participants)
		for i, p := range participants {
			rr.features[i].Attributes = p.Attributes
		}
	}
	return rr, nil
}
