// Package referral encodes and decodes user-facing referral codes.
//
// No hashids-equivalent library appears anywhere in the example pack (see
// DESIGN.md), so referral codes are produced with a small reversible
// obfuscation built on the standard library instead of a fabricated
// dependency: the user ID is XORed against a fixed mask and base32-encoded.
// It is not meant to be cryptographically secure, only non-sequential in
// appearance, matching the spec's `hashids.encode(user_id)` usage.
package referral

import (
	"encoding/base32"
	"encoding/binary"
	"strings"
)

const xorMask uint64 = 0x5A5A5A5A5A5A5A5A

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Encode produces a referral code for a user ID.
func Encode(userID int64) string {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(userID)^xorMask)
	return strings.ToLower(encoding.EncodeToString(buf))
}

// Decode recovers the user ID from a referral code. ok is false if the
// code is malformed.
func Decode(code string) (userID int64, ok bool) {
	buf, err := encoding.DecodeString(strings.ToUpper(code))
	if err != nil || len(buf) != 8 {
		return 0, false
	}
	return int64(binary.BigEndian.Uint64(buf) ^ xorMask), true
}
