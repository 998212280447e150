// Package pipeline runs the full race decision: distortion analysis,
// opportunity evaluation and portfolio allocation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/race-edge/internal/cache"
	"github.com/yourusername/race-edge/internal/distortion"
	"github.com/yourusername/race-edge/internal/logger"
	"github.com/yourusername/race-edge/internal/metrics"
	"github.com/yourusername/race-edge/internal/models"
	"github.com/yourusername/race-edge/internal/opportunity"
	"github.com/yourusername/race-edge/internal/portfolio"
)

// Pipeline composes the analyzer, evaluator and allocator under one policy.
// It holds no per-race state and is safe for concurrent use.
type Pipeline struct {
	policy      Policy
	cache       cache.DecisionCache
	decisionLog *logger.DecisionLogger
	auditLog    *logger.AuditLogger
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithCache memoizes decisions in c
func WithCache(c cache.DecisionCache) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.cache = c
		}
	}
}

// New creates a pipeline after validating the policy
func New(policy Policy, log *logrus.Logger, opts ...Option) (*Pipeline, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	if log == nil {
		log = logger.Discard()
	}

	p := &Pipeline{
		policy:      policy,
		cache:       cache.Noop{},
		decisionLog: logger.NewDecisionLogger(log),
		auditLog:    logger.NewAuditLogger(log),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Policy returns the pipeline policy
func (p *Pipeline) Policy() Policy {
	return p.policy
}

// Run produces the decision for one race. Invalid input fails before any
// analysis with a *models.ValidationError.
//
// A cache hit returns the cached decision itself. Callers must not modify it.
func (p *Pipeline) Run(ctx context.Context, in models.RaceInput) (*models.Decision, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateInput(in); err != nil {
		metrics.RecordValidationFailure()
		p.decisionLog.LogRejected(in.RaceID, err)
		return nil, err
	}

	policy := p.policy
	if in.RiskTolerance != nil && *in.RiskTolerance != policy.RiskTolerance {
		p.auditLog.LogPolicyOverride(in.RaceID, "risk_tolerance", policy.RiskTolerance, *in.RiskTolerance)
		policy = policy.withRisk(*in.RiskTolerance)
	}
	// The effective risk now lives in the policy.
	in.RiskTolerance = nil
	if in.RaceID == "" {
		id, err := RaceID(in)
		if err != nil {
			return nil, err
		}
		in.RaceID = id
	}

	key, err := Fingerprint(in, policy)
	if err != nil {
		return nil, err
	}
	if cached, ok := p.cache.Get(ctx, key); ok {
		return cached, nil
	}

	decision, err := p.decide(ctx, in, policy)
	if err != nil {
		return nil, err
	}
	decision.ID = DecisionID(key)

	elapsed := time.Since(start)
	metrics.RecordDecision(decision, elapsed.Seconds())
	p.logDecision(decision, float64(elapsed.Microseconds())/1000)

	p.cache.Set(ctx, key, decision)
	return decision, nil
}

func (p *Pipeline) decide(ctx context.Context, in models.RaceInput, policy Policy) (*models.Decision, error) {
	var records []models.DistortionRecord
	if policy.Concurrency > 1 {
		var err error
		records, err = distortion.AnalyzeConcurrent(ctx, policy.Distortion, in.Participants, policy.Concurrency)
		if err != nil {
			return nil, err
		}
	} else {
		records = distortion.Analyze(policy.Distortion, in.Participants)
	}

	opps, err := opportunity.Evaluate(policy.Tiers, in.Participants, records)
	if err != nil {
		return nil, fmt.Errorf("evaluate race %s: %w", in.RaceID, err)
	}

	allocator := &portfolio.Allocator{RiskTolerance: policy.RiskTolerance, RoundingUnit: policy.RoundingUnit}
	book, err := allocator.Allocate(opps, in.Budget)
	if err != nil {
		return nil, fmt.Errorf("allocate race %s: %w", in.RaceID, err)
	}

	return &models.Decision{
		RaceID:        in.RaceID,
		Budget:        in.Budget,
		RiskTolerance: policy.RiskTolerance,
		Distortions:   records,
		Opportunities: opps,
		Portfolio:     book,
	}, nil
}

func (p *Pipeline) logDecision(decision *models.Decision, durationMs float64) {
	for _, rec := range decision.Distortions {
		if rec.IsSmartMoney {
			p.decisionLog.LogSmartMoney(decision.RaceID, rec)
		}
	}
	for _, item := range decision.Portfolio.Items {
		p.decisionLog.LogAllocation(decision.RaceID, item)
	}
	if decision.Portfolio.Renormalized {
		p.decisionLog.LogRenormalization(decision.RaceID, decision.Portfolio)
	}
	p.decisionLog.LogDecision(decision, durationMs)
}

// BatchResult pairs a race input position with its decision or error
type BatchResult struct {
	Decision *models.Decision
	Err      error
}

// RunBatch evaluates independent races concurrently. Each race is its own
// invocation; a validation failure in one race does not stop the others.
// Results are returned in input order. Only context cancellation aborts the
// batch.
func (p *Pipeline) RunBatch(ctx context.Context, inputs []models.RaceInput) ([]BatchResult, error) {
	results := make([]BatchResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	if p.policy.Concurrency > 0 {
		g.SetLimit(p.policy.Concurrency)
	}
	for i := range inputs {
		g.Go(func() error {
			decision, err := p.Run(gctx, inputs[i])
			if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return err
			}
			results[i] = BatchResult{Decision: decision, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
