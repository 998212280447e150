// Package repository persists race decisions.
package repository

import (
	"fmt"

	"github.com/yourusername/race-edge/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Decision DecisionRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Decision: NewPostgresDecisionRepository(db),
	}, nil
}
