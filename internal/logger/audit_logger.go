// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogDecisionStored logs a persisted decision.
func (al *AuditLogger) LogDecisionStored(decisionID, raceID string, stakes int, totalAmount float64, storedAt time.Time) {
	al.WithFields(logrus.Fields{
		"decision_id":  decisionID,
		"race_id":      raceID,
		"stakes":       stakes,
		"total_amount": totalAmount,
		"timestamp":    storedAt.Unix(),
	}).Info("Decision recorded")
}

// LogPolicyOverride logs a request that ran with a non-default policy value.
func (al *AuditLogger) LogPolicyOverride(raceID, parameterName string, defaultValue, requestedValue interface{}) {
	al.WithFields(logrus.Fields{
		"race_id":         raceID,
		"parameter_name":  parameterName,
		"default_value":   defaultValue,
		"requested_value": requestedValue,
	}).Info("Policy parameter overridden")
}

// LogRetentionPurge logs deletion of expired decisions.
func (al *AuditLogger) LogRetentionPurge(cutoff time.Time, deleted int64) {
	al.WithFields(logrus.Fields{
		"cutoff":  cutoff.Format(time.RFC3339),
		"deleted": deleted,
	}).Info("Expired decisions purged")
}
