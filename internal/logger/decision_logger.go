// Package logger provides decision-pipeline logging.
package logger

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-edge/internal/models"
)

// DecisionLogger provides dedicated logging for pipeline decisions.
type DecisionLogger struct {
	*logrus.Entry
}

// NewDecisionLogger creates a new decision logger.
func NewDecisionLogger(baseLogger *logrus.Logger) *DecisionLogger {
	return &DecisionLogger{
		Entry: baseLogger.WithField("component", "decision"),
	}
}

// LogDecision logs the summary of a completed decision.
func (dl *DecisionLogger) LogDecision(decision *models.Decision, durationMs float64) {
	tiers := decision.CountByTier()
	dl.WithFields(logrus.Fields{
		"decision_id":            decision.ID,
		"race_id":                decision.RaceID,
		"participants":           len(decision.Opportunities),
		"platinum":               tiers[models.TierPlatinum],
		"gold":                   tiers[models.TierGold],
		"silver":                 tiers[models.TierSilver],
		"bronze":                 tiers[models.TierBronze],
		"smart_money":            decision.SmartMoneyCount(),
		"stakes":                 len(decision.Portfolio.Items),
		"total_fraction":         decision.Portfolio.TotalFraction,
		"total_amount":           decision.Portfolio.TotalAmount,
		"budget":                 decision.Budget,
		"risk_tolerance":         decision.RiskTolerance,
		"evaluation_duration_ms": durationMs,
	}).Info("Race decision completed")
}

// LogAllocation logs one recommended stake.
func (dl *DecisionLogger) LogAllocation(raceID string, item models.PortfolioItem) {
	dl.WithFields(logrus.Fields{
		"race_id":        raceID,
		"index":          item.Index,
		"tier":           item.Tier,
		"stake_fraction": item.StakeFraction,
		"stake_amount":   item.StakeAmount,
	}).Debug("Stake allocated")
}

// LogRenormalization logs that the naive Kelly fractions overspent the budget.
func (dl *DecisionLogger) LogRenormalization(raceID string, portfolio models.Portfolio) {
	dl.WithFields(logrus.Fields{
		"race_id":        raceID,
		"items":          len(portfolio.Items),
		"total_fraction": portfolio.TotalFraction,
		"total_amount":   portfolio.TotalAmount,
	}).Info("Stake fractions renormalized to budget")
}

// LogSmartMoney logs a participant flagged with late money.
func (dl *DecisionLogger) LogSmartMoney(raceID string, record models.DistortionRecord) {
	dl.WithFields(logrus.Fields{
		"race_id":           raceID,
		"index":             record.Index,
		"smart_money_score": record.SmartMoneyScore,
		"bias_type":         record.BiasType,
	}).Debug("Smart money detected")
}

// LogRejected logs input that failed validation.
func (dl *DecisionLogger) LogRejected(raceID string, err error) {
	dl.WithFields(logrus.Fields{
		"race_id": raceID,
		"reason":  err.Error(),
	}).Warn("Race input rejected")
}
