package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/race-edge/internal/database"
	"github.com/yourusername/race-edge/internal/models"
)

// PostgresDecisionRepository implements DecisionRepository for PostgreSQL
type PostgresDecisionRepository struct {
	db *database.DB
}

// NewPostgresDecisionRepository creates a new decision repository
func NewPostgresDecisionRepository(db *database.DB) DecisionRepository {
	return &PostgresDecisionRepository{db: db}
}

const selectDecision = `
	SELECT id, race_id, budget, risk_tolerance, total_fraction, total_amount,
	       renormalized, distortions, opportunities, portfolio
	FROM decisions
`

// Save inserts a decision. Saving the same decision twice is a no-op since
// decision ids are derived from their content.
func (r *PostgresDecisionRepository) Save(ctx context.Context, decision *models.Decision) error {
	id, err := uuid.Parse(decision.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", models.ErrInvalidID, decision.ID)
	}

	distortions, err := json.Marshal(decision.Distortions)
	if err != nil {
		return fmt.Errorf("failed to marshal distortions: %w", err)
	}
	opportunities, err := json.Marshal(decision.Opportunities)
	if err != nil {
		return fmt.Errorf("failed to marshal opportunities: %w", err)
	}
	book, err := json.Marshal(decision.Portfolio)
	if err != nil {
		return fmt.Errorf("failed to marshal portfolio: %w", err)
	}

	query := `
		INSERT INTO decisions (id, race_id, budget, risk_tolerance, total_fraction, total_amount,
		                       renormalized, distortions, opportunities, portfolio)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = r.db.GetPool().Exec(ctx, query,
		id, decision.RaceID, decision.Budget, decision.RiskTolerance,
		decision.Portfolio.TotalFraction, decision.Portfolio.TotalAmount, decision.Portfolio.Renormalized,
		distortions, opportunities, book,
	)
	if err != nil {
		return fmt.Errorf("failed to insert decision: %w", err)
	}
	return nil
}

// GetByID retrieves a decision by its ID
func (r *PostgresDecisionRepository) GetByID(ctx context.Context, id string) (*models.Decision, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidID, id)
	}

	decision, err := scanDecision(r.db.GetPool().QueryRow(ctx, selectDecision+" WHERE id = $1", parsed))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get decision: %w", err)
	}
	return decision, nil
}

// GetByRaceID retrieves all decisions for a race, newest first
func (r *PostgresDecisionRepository) GetByRaceID(ctx context.Context, raceID string) ([]*models.Decision, error) {
	rows, err := r.db.GetPool().Query(ctx, selectDecision+" WHERE race_id = $1 ORDER BY created_at DESC", raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []*models.Decision
	for rows.Next() {
		decision, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, decision)
	}
	return decisions, rows.Err()
}

// DeleteOlderThan removes decisions created before cutoff
func (r *PostgresDecisionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.GetPool().Exec(ctx, "DELETE FROM decisions WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete decisions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanDecision(row pgx.Row) (*models.Decision, error) {
	var (
		id                               uuid.UUID
		totalFraction, totalAmount       float64
		renormalized                     bool
		distortions, opportunities, book []byte
		decision                         models.Decision
	)

	err := row.Scan(
		&id, &decision.RaceID, &decision.Budget, &decision.RiskTolerance,
		&totalFraction, &totalAmount, &renormalized,
		&distortions, &opportunities, &book,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(distortions, &decision.Distortions); err != nil {
		return nil, fmt.Errorf("failed to decode distortions: %w", err)
	}
	if err := json.Unmarshal(opportunities, &decision.Opportunities); err != nil {
		return nil, fmt.Errorf("failed to decode opportunities: %w", err)
	}
	if err := json.Unmarshal(book, &decision.Portfolio); err != nil {
		return nil, fmt.Errorf("failed to decode portfolio: %w", err)
	}

	decision.ID = id.String()
	return &decision, nil
}
