// Package dedup computes the import fingerprints used for duplicate
// detection of parsed statement records.
//
// The fingerprint is a persisted format, not an implementation detail:
// previously imported records are keyed by it, so the algorithm must stay
// bit-for-bit stable. Do not change the constants or the mixing below.
package dedup

import (
	"fmt"
	"unicode/utf16"
)

// balanceMarker replaces the description when fingerprinting balance
// snapshot rows, so a balance and a transaction on the same day with the
// same value never collide.
const balanceMarker = "SALDO"

// Fingerprint computes the deterministic 16-hex-character token over
// date (YYYY-MM-DD), description, and the absolute amount in minor units.
func Fingerprint(dateISO, description string, amountCents int64) string {
	return hash128(fmt.Sprintf("%s|%s|%d", dateISO, description, amountCents))
}

// BalanceFingerprint computes the fingerprint for a balance snapshot row.
// BalanceCents keeps its sign.
func BalanceFingerprint(dateISO string, balanceCents int64) string {
	return hash128(fmt.Sprintf("%s|%s|%d", dateISO, balanceMarker, balanceCents))
}

// hash128 runs two independent 32-bit multiplicative-XOR accumulators over
// the UTF-16 code units of the input, finalizes each lane with two rounds
// of shift-XOR-multiply mixing that folds in the other lane, and encodes
// both lanes as lowercase hex, high lane first.
//
// Multiplications deliberately wrap at 32 bits.
func hash128(s string) string {
	var h1 uint32 = 0xdeadbeef
	var h2 uint32 = 0x41c6ce57

	for _, cu := range utf16.Encode([]rune(s)) {
		h1 = (h1 ^ uint32(cu)) * 2654435761
		h2 = (h2 ^ uint32(cu)) * 1597334677
	}

	h1 = (h1 ^ (h1 >> 16)) * 2246822507
	h1 ^= (h2 ^ (h2 >> 13)) * 3266489909
	h2 = (h2 ^ (h2 >> 16)) * 2246822507
	h2 ^= (h1 ^ (h1 >> 13)) * 3266489909

	return fmt.Sprintf("%08x%08x", h2, h1)
}
