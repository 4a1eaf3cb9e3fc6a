// Package tier implements the Tier Engine: a cached, fail-open client for
// the external incentive-hook service.
package tier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/domain"
	tspredis "github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/redis"
)

// CacheTTL is how long a tier lookup is cached before it is refetched.
const CacheTTL = 60 * time.Second

// Engine is the Tier Engine.
type Engine struct {
	httpClient *http.Client
	baseURL    string
	cache      *tspredis.CacheClient
	benefitRepo BenefitRepository
}

// BenefitRepository reads UberBenefitTransaction rows to compute used
// benefit.
type BenefitRepository interface {
	SumBenefitUsed(ctx context.Context, userID int64) (float64, error)
}

// New creates a Tier Engine.
func New(baseURL string, cache *tspredis.CacheClient, benefitRepo BenefitRepository) *Engine {
	return &Engine{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		cache:      cache,
		benefitRepo: benefitRepo,
	}
}

type vendorTierResponse struct {
	Level  string  `json:"level"`
	Points float64 `json:"points"`
}

// GetUserTier resolves the caller's tier, fail-open to green on any vendor
// error, and computes uber_benefit = UberBenefitDeposit(level) - used,
// clamped at 0.
func (e *Engine) GetUserTier(ctx context.Context, userID int64) (*domain.UserTier, error) {
	cacheKey := fmt.Sprintf("tier:%d", userID)

	if cached, ok := e.cache.GetJSON(ctx, cacheKey); ok {
		var t domain.UserTier
		if err := json.Unmarshal(cached, &t); err == nil {
			return &t, nil
		}
	}

	level, points, err := e.fetchFromVendor(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("tier: vendor lookup failed, fail-open to green")
		level, points = domain.TierGreen, 0
	}

	used, err := e.benefitRepo.SumBenefitUsed(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("tier: benefit usage lookup failed")
		used = 0
	}

	benefit := domain.UberBenefitDeposit(level) - used
	if benefit < 0 {
		benefit = 0
	}

	tier := &domain.UserTier{
		UserID:      userID,
		Level:       level,
		Points:      points,
		UberBenefit: benefit,
		FetchedAt:   time.Now().UTC(),
	}

	if payload, err := json.Marshal(tier); err == nil {
		e.cache.SetJSON(ctx, cacheKey, payload, CacheTTL)
	}

	return tier, nil
}

func (e *Engine) fetchFromVendor(ctx context.Context, userID int64) (domain.TierLevel, float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/users/%d/tier", e.baseURL, userID), nil)
	if err != nil {
		return "", 0, err
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("incentive-hook returned status %d", resp.StatusCode)
	}

	var out vendorTierResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", 0, err
	}

	level := domain.TierLevel(out.Level)
	switch level {
	case domain.TierGreen, domain.TierBronze, domain.TierSilver, domain.TierGold:
	default:
		level = domain.TierForPoints(out.Points)
	}

	return level, out.Points, nil
}

// GetUserTierBenefits returns the static per-tier rule table.
func (e *Engine) GetUserTierBenefits(level domain.TierLevel) domain.BenefitRules {
	return domain.BenefitRulesFor(level)
}
