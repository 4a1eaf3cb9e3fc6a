package wallet

import (
	"testing"
	"time"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/testutil"
)

func TestLookupProduct_Known(t *testing.T) {
	assert := testutil.NewAssert(t)
	product, ok := LookupProduct("6")
	assert.True(ok)
	assert.Equal(99.0, product.Points)
	assert.Equal("USD", product.Currency)
}

func TestLookupProduct_Unknown(t *testing.T) {
	assert := testutil.NewAssert(t)
	_, ok := LookupProduct("does-not-exist")
	assert.False(ok)
}

func TestLookupRedeemProduct_Known(t *testing.T) {
	assert := testutil.NewAssert(t)
	product, ok := LookupRedeemProduct("raffle-entry")
	assert.True(ok)
	assert.Equal(10.0, product.Points)
}

func TestLookupRedeemProduct_Unknown(t *testing.T) {
	assert := testutil.NewAssert(t)
	_, ok := LookupRedeemProduct("nonexistent-product")
	assert.False(ok)
}

func TestLocalMidnight_TruncatesTimeOfDay(t *testing.T) {
	assert := testutil.NewAssert(t)
	loc := time.UTC
	input := time.Date(2026, 7, 31, 17, 42, 9, 0, loc)
	midnight := localMidnight(input)
	assert.Equal(time.Date(2026, 7, 31, 0, 0, 0, 0, loc), midnight)
}

func TestLocalMidnight_PreservesLocation(t *testing.T) {
	loc, err := time.LoadLocation("Africa/Lagos")
	if err != nil {
		t.Skip("Africa/Lagos tzdata unavailable")
	}
	input := time.Date(2026, 1, 15, 3, 0, 0, 0, loc)
	midnight := localMidnight(input)
	if midnight.Location().String() != loc.String() {
		t.Errorf("expected location %v preserved, got %v", loc, midnight.Location())
	}
}
