package utils

import "math"

// ToCents converts a price expressed in major currency units into
// integer minor units. Rounding happens once, here, so the rest of the
// system only ever sees integers.
func ToCents(major float64) uint32 {
	if major <= 0 {
		return 0
	}
	return uint32(math.Round(major * 100))
}

// ToMajor converts integer minor units back into major units for
// response payloads.
func ToMajor(cents uint32) float64 {
	return float64(cents) / 100.0
}
