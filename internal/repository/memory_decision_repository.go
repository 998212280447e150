package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yourusername/race-edge/internal/models"
)

type storedDecision struct {
	decision *models.Decision
	savedAt  time.Time
}

// MemoryDecisionRepository keeps decisions in process. It backs the API when
// no database is configured.
type MemoryDecisionRepository struct {
	mu        sync.RWMutex
	decisions map[string]storedDecision
	now       func() time.Time
}

// NewMemoryDecisionRepository creates an empty in-memory repository
func NewMemoryDecisionRepository() *MemoryDecisionRepository {
	return &MemoryDecisionRepository{
		decisions: make(map[string]storedDecision),
		now:       time.Now,
	}
}

// Save stores a decision; an existing id is left untouched
func (r *MemoryDecisionRepository) Save(ctx context.Context, decision *models.Decision) error {
	if decision.ID == "" {
		return models.ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.decisions[decision.ID]; !exists {
		r.decisions[decision.ID] = storedDecision{decision: decision, savedAt: r.now()}
	}
	return nil
}

// GetByID retrieves a decision by its ID
func (r *MemoryDecisionRepository) GetByID(ctx context.Context, id string) (*models.Decision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.decisions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return stored.decision, nil
}

// GetByRaceID retrieves all decisions for a race, newest first
func (r *MemoryDecisionRepository) GetByRaceID(ctx context.Context, raceID string) ([]*models.Decision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []storedDecision
	for _, stored := range r.decisions {
		if stored.decision.RaceID == raceID {
			matches = append(matches, stored)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].savedAt.Equal(matches[j].savedAt) {
			return matches[i].decision.ID < matches[j].decision.ID
		}
		return matches[i].savedAt.After(matches[j].savedAt)
	})

	decisions := make([]*models.Decision, len(matches))
	for i, stored := range matches {
		decisions[i] = stored.decision
	}
	return decisions, nil
}

// DeleteOlderThan removes decisions saved before cutoff
func (r *MemoryDecisionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, stored := range r.decisions {
		if stored.savedAt.Before(cutoff) {
			delete(r.decisions, id)
			deleted++
		}
	}
	return deleted, nil
}

// Len returns the number of stored decisions
func (r *MemoryDecisionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.decisions)
}
