package domain

import (
	"testing"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/testutil"
)

func TestTierForPoints_Thresholds(t *testing.T) {
	assert := testutil.NewAssert(t)
	assert.Equal(TierGreen, TierForPoints(0))
	assert.Equal(TierGreen, TierForPoints(500))
	assert.Equal(TierBronze, TierForPoints(501))
	assert.Equal(TierBronze, TierForPoints(1000))
	assert.Equal(TierSilver, TierForPoints(1001))
	assert.Equal(TierSilver, TierForPoints(1500))
	assert.Equal(TierGold, TierForPoints(1501))
	assert.Equal(TierGold, TierForPoints(100000))
}

func TestUberBenefitDeposit_PerTier(t *testing.T) {
	assert := testutil.NewAssert(t)
	assert.Equal(0.0, UberBenefitDeposit(TierGreen))
	assert.Equal(4.0, UberBenefitDeposit(TierBronze))
	assert.Equal(6.0, UberBenefitDeposit(TierSilver))
	assert.Equal(8.0, UberBenefitDeposit(TierGold))
}

func TestBenefitRulesFor_KnownTier(t *testing.T) {
	assert := testutil.NewAssert(t)
	rules := BenefitRulesFor(TierGold)
	assert.Equal(TierGold, rules.Level)
	assert.Equal(4.0, rules.RaffleMult)
	assert.Equal(1.50, rules.ReferralMult)
}

func TestBenefitRulesFor_UnknownFallsBackToGreen(t *testing.T) {
	assert := testutil.NewAssert(t)
	rules := BenefitRulesFor(TierLevel("platinum"))
	assert.Equal(TierGreen, rules.Level)
}
