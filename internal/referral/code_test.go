package referral

import (
	"strings"
	"testing"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/testutil"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	assert := testutil.NewAssert(t)
	for _, userID := range []int64{1, 42, 123456, 9999999999} {
		code := Encode(userID)
		decoded, ok := Decode(code)
		assert.True(ok)
		assert.Equal(userID, decoded)
	}
}

func TestEncodeIsNotSequentialLooking(t *testing.T) {
	assert := testutil.NewAssert(t)
	first := Encode(1)
	second := Encode(2)
	assert.NotEqual(first, second)
	if len(first) != len(second) {
		t.Errorf("expected stable code length, got %d vs %d", len(first), len(second))
	}
}

func TestDecodeRejectsMalformedCode(t *testing.T) {
	assert := testutil.NewAssert(t)
	_, ok := Decode("not-valid-base32!!")
	assert.False(ok)
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	assert := testutil.NewAssert(t)
	_, ok := Decode(encoding.EncodeToString([]byte("short")))
	assert.False(ok)
}

func TestDecodeIsCaseInsensitive(t *testing.T) {
	assert := testutil.NewAssert(t)
	code := Encode(777)
	decodedLower, okLower := Decode(code)
	decodedUpper, okUpper := Decode(strings.ToUpper(code))
	assert.True(okLower)
	assert.True(okUpper)
	assert.Equal(decodedLower, decodedUpper)
}
