package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
)

// IncentiveRepository owns trip_incentive_rule and service_profile rows.
type IncentiveRepository struct {
	pool *pgxpool.Pool
}

// NewIncentiveRepository creates a new incentive repository.
func NewIncentiveRepository(pool *pgxpool.Pool) *IncentiveRepository {
	return &IncentiveRepository{pool: pool}
}

// GetActiveRule loads the single active TripIncentiveRule for a market.
// Rule activation is an upsert keyed by market, so there is never more
// than one row per market in this table; history lives in
// trip_incentive_rule_history.
func (r *IncentiveRepository) GetActiveRule(ctx context.Context, market string) (*domain.TripIncentiveRule, error) {
	var rule domain.TripIncentiveRule
	var modesJSON []byte
	err := r.pool.QueryRow(ctx, `
		SELECT market, d, h, d1, d2, l, w, mc, modes, version, activated_on
		FROM trip_incentive_rule WHERE market = $1`, market).Scan(
		&rule.Market, &rule.D, &rule.H, &rule.D1, &rule.D2, &rule.L, &rule.W, &rule.MC,
		&modesJSON, &rule.Version, &rule.ActivatedOn)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNoActiveIncentiveRule
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(modesJSON, &rule.Modes); err != nil {
		return nil, err
	}
	return &rule, nil
}

// GetServiceProfile loads a market's WKT service-area polygon.
func (r *IncentiveRepository) GetServiceProfile(ctx context.Context, market string) (*domain.ServiceProfile, error) {
	var profile domain.ServiceProfile
	err := r.pool.QueryRow(ctx, `
		SELECT market, wkt FROM service_profile WHERE market = $1`, market).Scan(&profile.Market, &profile.WKT)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrLocationOutOfService
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
