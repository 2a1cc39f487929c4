package entropy

// Hybrid-uint token split: small values (< 16) are coded directly as
// their own bucket symbol; larger values are coded as a bucket symbol
// selecting the value's bit-length, with the remaining low bits sent
// as raw, uncoded bits alongside the entropy-coded bucket stream. This
// keeps the coded alphabet small (44 symbols) regardless of token
// magnitude, the same split every real hybrid-uint scheme in this
// domain makes between a coded "class" and raw mantissa bits.

const (
	directBuckets = 16
	// NumBuckets is the fixed alphabet size of the bucket symbol coded
	// through the ANS tables.
	NumBuckets = directBuckets + 28
)

func bitLength(v uint32) int {
	n := 0
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}

// splitHybridUint decomposes v into (bucket, extraBits, extraValue).
func splitHybridUint(v uint32) (bucket int, extraBits int, extraValue uint32) {
	if v < directBuckets {
		return int(v), 0, 0
	}
	msb := bitLength(v) - 1 // v's highest set bit position, msb >= 4
	bucket = directBuckets + (msb - 4)
	extraBits = msb
	extraValue = v - (1 << uint(msb))
	return bucket, extraBits, extraValue
}

// joinHybridUint inverts splitHybridUint.
func joinHybridUint(bucket int, extraValue uint32) uint32 {
	if bucket < directBuckets {
		return uint32(bucket)
	}
	msb := bucket - directBuckets + 4
	return (uint32(1) << uint(msb)) + extraValue
}

// extraBitsForBucket returns how many raw bits follow bucket in the
// stream (0 for direct buckets).
func extraBitsForBucket(bucket int) int {
	if bucket < directBuckets {
		return 0
	}
	return bucket - directBuckets + 4
}
