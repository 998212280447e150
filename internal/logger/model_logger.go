// Package logger provides probability-model logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// ModelLogger provides dedicated logging for probability model calls.
type ModelLogger struct {
	*logrus.Entry
}

// NewModelLogger creates a new model logger.
func NewModelLogger(baseLogger *logrus.Logger) *ModelLogger {
	return &ModelLogger{
		Entry: baseLogger.WithField("component", "model"),
	}
}

// LogPredictionRequest logs a completed prediction request.
func (ml *ModelLogger) LogPredictionRequest(raceID string, participants int, cacheHit bool, latencyMs float64) {
	ml.WithFields(logrus.Fields{
		"race_id":      raceID,
		"participants": participants,
		"cache_hit":    cacheHit,
		"latency_ms":   latencyMs,
	}).Info("Model prediction request completed")
}

// LogPredictionError logs a failed prediction request.
func (ml *ModelLogger) LogPredictionError(raceID string, err error) {
	ml.WithFields(logrus.Fields{
		"race_id":      raceID,
		"error_reason": err.Error(),
	}).Error("Model prediction failed")
}
