package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/race-edge/internal/models"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func testDecision() *models.Decision {
	return &models.Decision{
		ID:            "d-1",
		RaceID:        "race_123",
		Budget:        10000,
		RiskTolerance: 0.5,
		Distortions: []models.DistortionRecord{
			{Index: 0, IsSmartMoney: true},
			{Index: 1},
		},
		Opportunities: []models.Opportunity{
			{Index: 0, Tier: models.TierPlatinum},
			{Index: 1, Tier: models.TierBronze},
		},
		Portfolio: models.Portfolio{
			Items:         []models.PortfolioItem{{Index: 0, Tier: models.TierPlatinum, StakeFraction: 0.2, StakeAmount: 2000}},
			TotalFraction: 0.2,
			TotalAmount:   2000,
		},
	}
}

func TestNewLoggerWithOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewLoggerWithOutput("debug", "production", buf)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log.Info("hello")
	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "hello", entry["msg"])
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	log := NewLoggerWithOutput("shouting", "development", &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestDecisionLoggerDecision(t *testing.T) {
	log, buf := setupTestLogger()
	decisionLogger := NewDecisionLogger(log)

	decisionLogger.LogDecision(testDecision(), 1.5)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "decision", logEntry["component"])
	assert.Equal(t, "d-1", logEntry["decision_id"])
	assert.Equal(t, float64(1), logEntry["platinum"])
	assert.Equal(t, float64(1), logEntry["bronze"])
	assert.Equal(t, float64(1), logEntry["smart_money"])
	assert.Equal(t, float64(2000), logEntry["total_amount"])
}

func TestDecisionLoggerAllocation(t *testing.T) {
	log, buf := setupTestLogger()
	decisionLogger := NewDecisionLogger(log)

	decisionLogger.LogAllocation("race_123", models.PortfolioItem{Index: 2, Tier: models.TierGold, StakeFraction: 0.1, StakeAmount: 1000})

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "GOLD", logEntry["tier"])
	assert.Equal(t, float64(2), logEntry["index"])
	assert.Equal(t, "debug", logEntry["level"])
}

func TestDecisionLoggerRenormalization(t *testing.T) {
	log, buf := setupTestLogger()
	decisionLogger := NewDecisionLogger(log)

	decisionLogger.LogRenormalization("race_123", models.Portfolio{
		Items:         make([]models.PortfolioItem, 2),
		TotalFraction: 1.0,
		TotalAmount:   50000,
		Renormalized:  true,
	})

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(2), logEntry["items"])
	assert.Equal(t, float64(1), logEntry["total_fraction"])
}

func TestDecisionLoggerRejected(t *testing.T) {
	log, buf := setupTestLogger()
	decisionLogger := NewDecisionLogger(log)

	decisionLogger.LogRejected("race_123", models.NewParticipantError(3, "market_odds", "must be greater than 1"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Contains(t, logEntry["reason"], "participant 3")
}

func TestModelLoggerPredictionRequest(t *testing.T) {
	log, buf := setupTestLogger()
	modelLogger := NewModelLogger(log)

	modelLogger.LogPredictionRequest("race_123", 8, true, 45)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "model", logEntry["component"])
	assert.Equal(t, true, logEntry["cache_hit"])
}

func TestModelLoggerPredictionError(t *testing.T) {
	log, buf := setupTestLogger()
	modelLogger := NewModelLogger(log)

	modelLogger.LogPredictionError("race_123", errors.New("connection refused"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "error", logEntry["level"])
	assert.Equal(t, "connection refused", logEntry["error_reason"])
}

func TestAuditLoggerDecisionStored(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	storedAt := time.Date(2024, 2, 3, 12, 0, 0, 0, time.UTC)
	auditLogger.LogDecisionStored("d-1", "race_123", 2, 3000, storedAt)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "audit", logEntry["component"])
	assert.Equal(t, float64(storedAt.Unix()), logEntry["timestamp"])
}

func TestAuditLoggerPolicyOverride(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogPolicyOverride("race_123", "risk_tolerance", 0.5, 0.25)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "risk_tolerance", logEntry["parameter_name"])
	assert.Equal(t, 0.25, logEntry["requested_value"])
}

func TestAuditLoggerRetentionPurge(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogRetentionPurge(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 12)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "2024-01-01T00:00:00Z", logEntry["cutoff"])
	assert.Equal(t, float64(12), logEntry["deleted"])
}

func BenchmarkDecisionLoggerDecision(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	decisionLogger := NewDecisionLogger(log)
	decision := testDecision()

	for i := 0; i < b.N; i++ {
		decisionLogger.LogDecision(decision, 1.5)
	}
}
