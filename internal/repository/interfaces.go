package repository

import (
	"context"
	"time"

	"github.com/yourusername/race-edge/internal/models"
)

// DecisionRepository defines the interface for decision data access
type DecisionRepository interface {
	Save(ctx context.Context, decision *models.Decision) error
	GetByID(ctx context.Context, id string) (*models.Decision, error)
	GetByRaceID(ctx context.Context, raceID string) ([]*models.Decision, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
