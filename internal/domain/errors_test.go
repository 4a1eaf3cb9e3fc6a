package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/testutil"
)

func TestCodeForError_KnownSentinels(t *testing.T) {
	assert := testutil.NewAssert(t)

	cases := []struct {
		err        error
		wantCode   APICode
		wantStatus int
	}{
		{ErrUserCoinSuspended, CodeUserCoinSuspended, 403},
		{ErrDailyPurchaseLimit, CodeCoinPurchaseDailyLimit, 400},
		{ErrInsufficientCoins, CodeInsufficientCoins, 400},
		{ErrDailyRedeemLimit, CodeDailyRedeemLimit, 400},
		{ErrVendorAuth, CodeVendorAuth, 502},
		{ErrPromoCodeInvalid, CodePromoInvalid, 400},
		{ErrReferralSelfReferral, CodeReferralSelf, 400},
		{ErrTripNotFound, CodeNotFound, 404},
		{ErrRidehailTripNotFound, CodeNotFound, 404},
		{ErrForbidden, CodeBadAuth, 403},
		{ErrUnauthorized, CodeBadAuth, 401},
		{ErrInvalidRequest, CodeMalformedRequest, 400},
	}

	for _, tc := range cases {
		code, status, ok := CodeForError(tc.err)
		assert.True(ok, tc.err.Error())
		assert.Equal(tc.wantCode, code, tc.err.Error())
		assert.Equal(tc.wantStatus, status, tc.err.Error())
	}
}

func TestCodeForError_WrappedSentinelStillMatches(t *testing.T) {
	assert := testutil.NewAssert(t)
	wrapped := fmt.Errorf("context: %w", ErrInsufficientCoins)
	code, status, ok := CodeForError(wrapped)
	assert.True(ok)
	assert.Equal(CodeInsufficientCoins, code)
	assert.Equal(400, status)
}

func TestCodeForError_UnmappedErrorFallsThrough(t *testing.T) {
	assert := testutil.NewAssert(t)
	code, status, ok := CodeForError(errors.New("something unrelated"))
	assert.False(ok)
	assert.Equal(APICode(0), code)
	assert.Equal(500, status)
}
