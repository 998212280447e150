package models

// PortfolioItem is a recommended stake on one participant
type PortfolioItem struct {
	Index         int     `json:"index"`
	Name          string  `json:"name,omitempty"`
	Tier          Tier    `json:"tier"`
	StakeFraction float64 `json:"stake_fraction"`
	StakeAmount   float64 `json:"stake_amount"`
	Reason        string  `json:"reason"`
}

// Portfolio is the allocator output for one race
type Portfolio struct {
	Items         []PortfolioItem `json:"items"`
	TotalFraction float64         `json:"total_fraction"`
	TotalAmount   float64         `json:"total_amount"`
	Renormalized  bool            `json:"renormalized"`
}

// IsEmpty reports whether no stake was recommended
func (p Portfolio) IsEmpty() bool {
	return len(p.Items) == 0
}
