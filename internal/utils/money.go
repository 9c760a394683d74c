package utils

import "math"

// ToMinorUnits converts a decimal currency amount (e.g. 120.00) to integer
// minor units (12000).  Rounding to the nearest unit guards against float
// representation error for amounts like 19.99.
func ToMinorUnits(amount float64) int64 {
    return int64(math.Round(amount * 100))
}

// FromMinorUnits converts integer minor units back to a decimal amount for
// display in API responses.
func FromMinorUnits(cents int64) float64 {
    return float64(cents) / 100
}
