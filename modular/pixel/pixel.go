// Package pixel defines the sample types and saturating/zigzag integer
// helpers shared across the modular channel coder.
package pixel

import "golang.org/x/exp/constraints"

// Sample is the stored, saturating integer type for a decoded pixel.
type Sample = int32

// Wide is the intermediate arithmetic type used so that a-b and a*m
// cannot overflow for any legal sample or multiplier.
type Wide = int64

const (
	// MinSample and MaxSample bound the stored Sample range.
	MinSample = Wide(-(1 << 31))
	MaxSample = Wide((1 << 31) - 1)
)

// PackSigned maps a signed residual to an interleaved (zigzag) unsigned
// code: 0, -1, 1, -2, 2, ... -> 0, 1, 2, 3, 4, ...
func PackSigned(value int32) uint32 {
	if value >= 0 {
		return uint32(value) << 1
	}
	return (uint32(-value) << 1) - 1
}

// UnpackSigned inverts PackSigned.
func UnpackSigned(code uint32) int32 {
	if code&1 == 0 {
		return int32(code >> 1)
	}
	return -int32((code + 1) >> 1)
}

// SaturatingAdd clamps a+b to the closed range [lo, hi].
func SaturatingAdd[T constraints.Integer](a, b, lo, hi T) T {
	sum := a + b
	if sum < lo {
		return lo
	}
	if sum > hi {
		return hi
	}
	return sum
}

// SaturateToSample clamps a wide intermediate value into the Sample
// range, used for the final reconstruction step only (never for
// intermediate sums).
func SaturateToSample(v Wide) Sample {
	if v < MinSample {
		return Sample(MinSample)
	}
	if v > MaxSample {
		return Sample(MaxSample)
	}
	return Sample(v)
}
