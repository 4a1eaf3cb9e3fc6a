package domain

import (
	"testing"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/testutil"
)

func TestPromoCode_IsExhausted_UnlimitedWhenZero(t *testing.T) {
	assert := testutil.NewAssert(t)
	promo := &PromoCode{MaxRedemptions: 0, Redeemed: 999}
	assert.False(promo.IsExhausted())
}

func TestPromoCode_IsExhausted_BelowCap(t *testing.T) {
	assert := testutil.NewAssert(t)
	promo := &PromoCode{MaxRedemptions: 10, Redeemed: 9}
	assert.False(promo.IsExhausted())
}

func TestPromoCode_IsExhausted_AtCap(t *testing.T) {
	assert := testutil.NewAssert(t)
	promo := &PromoCode{MaxRedemptions: 10, Redeemed: 10}
	assert.True(promo.IsExhausted())
}

func TestPromoCode_IsExhausted_OverCap(t *testing.T) {
	assert := testutil.NewAssert(t)
	promo := &PromoCode{MaxRedemptions: 10, Redeemed: 11}
	assert.True(promo.IsExhausted())
}
