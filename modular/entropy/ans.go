package entropy

// A minimal order-0 byte-oriented range-ANS coder, adapted from the
// encoder/decoder state machine in this retrieval pack's
// flanglet-kanzi-go ANSRangeCodec.go (top-renormalization, byte-wise
// output, chunk-local frequency tables) down to the classic rANS
// recurrence: no importable Go ANS package exists anywhere in the
// pack, so the algorithm is reproduced here rather than imported.

const (
	ransByteL  = uint32(1) << 23
	scaleBits  = 12
	scaleSize  = 1 << scaleBits
	scaleMask  = scaleSize - 1
)

// Histogram holds a normalized frequency table (summing to scaleSize)
// for one context's bucket alphabet, plus the direct slot->bucket
// lookup table used by the decoder.
type Histogram struct {
	Freq []uint32 // len NumBuckets
	Cum  []uint32 // len NumBuckets+1, cumulative starts
	Slot []uint16 // len scaleSize, slot -> bucket
}

// BuildHistogram normalizes raw bucket counts into a Histogram. Every
// bucket with a nonzero count is guaranteed freq >= 1; the normalized
// frequencies always sum to exactly scaleSize.
func BuildHistogram(counts []int) Histogram {
	h := Histogram{Freq: make([]uint32, NumBuckets), Cum: make([]uint32, NumBuckets+1)}

	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		// Degenerate context never used: give bucket 0 the whole table
		// so the structures stay well-formed.
		h.Freq[0] = scaleSize
	} else {
		assigned := uint32(0)
		for i, c := range counts {
			if c == 0 {
				continue
			}
			f := uint32(c) * scaleSize / uint32(total)
			if f == 0 {
				f = 1
			}
			h.Freq[i] = f
			assigned += f
		}
		// Fix up rounding error against the largest bucket so the
		// table sums exactly to scaleSize.
		diff := int64(scaleSize) - int64(assigned)
		if diff != 0 {
			biggest := 0
			for i, c := range counts {
				if c > 0 && h.Freq[i] > h.Freq[biggest] {
					biggest = i
				}
			}
			h.Freq[biggest] = uint32(int64(h.Freq[biggest]) + diff)
		}
	}

	cum := uint32(0)
	for i := 0; i < NumBuckets; i++ {
		h.Cum[i] = cum
		cum += h.Freq[i]
	}
	h.Cum[NumBuckets] = cum

	h.Slot = make([]uint16, scaleSize)
	for i := 0; i < NumBuckets; i++ {
		for s := h.Cum[i]; s < h.Cum[i+1]; s++ {
			h.Slot[s] = uint16(i)
		}
	}
	return h
}

// SingleDirectValue reports whether h assigns its entire frequency mass
// to one bucket that is also a direct (no-extra-bits) symbol, and if so
// returns that joined hybrid-uint value. This is exactly the histogram
// shape the decoder's constant fast path looks for.
func (h Histogram) SingleDirectValue() (uint32, bool) {
	only := -1
	for i, f := range h.Freq {
		if f == 0 {
			continue
		}
		if only != -1 {
			return 0, false
		}
		only = i
	}
	if only < 0 || only >= directBuckets {
		return 0, false
	}
	return uint32(only), true
}

// ransEncoder carries the single shared rANS state across an entire
// reverse pass over the buffered token list.
type ransEncoder struct {
	x    uint32
	outR []byte // bytes emitted in chronological (reversed-token) order
}

func newRansEncoder() *ransEncoder {
	return &ransEncoder{x: ransByteL}
}

func (e *ransEncoder) putSymbol(h Histogram, bucket int) {
	freq := h.Freq[bucket]
	start := h.Cum[bucket]
	xmax := ((ransByteL >> scaleBits) << 8) * freq
	for e.x >= xmax {
		e.outR = append(e.outR, byte(e.x))
		e.x >>= 8
	}
	e.x = (e.x/freq)<<scaleBits + (e.x % freq) + start
}

// finish returns the final encoded byte stream: the final state as a
// 4-byte big-endian header followed by the renormalization bytes in
// forward stream order (the reverse of emission order, since they
// were produced while processing tokens back-to-front).
func (e *ransEncoder) finish() []byte {
	out := make([]byte, 4, 4+len(e.outR))
	out[0] = byte(e.x >> 24)
	out[1] = byte(e.x >> 16)
	out[2] = byte(e.x >> 8)
	out[3] = byte(e.x)
	for i := len(e.outR) - 1; i >= 0; i-- {
		out = append(out, e.outR[i])
	}
	return out
}

// ransDecoder mirrors ransEncoder for the forward decode pass.
type ransDecoder struct {
	data []byte
	pos  int
	x    uint32
}

func newRansDecoder(data []byte) *ransDecoder {
	d := &ransDecoder{data: data}
	d.x = uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
	d.pos = 4
	return d
}

func (d *ransDecoder) nextByte() byte {
	if d.pos >= len(d.data) {
		return 0
	}
	b := d.data[d.pos]
	d.pos++
	return b
}

func (d *ransDecoder) getSymbol(h Histogram) int {
	slot := d.x & scaleMask
	bucket := int(h.Slot[slot])
	freq := h.Freq[bucket]
	start := h.Cum[bucket]
	d.x = freq*(d.x>>scaleBits) + (d.x & scaleMask) - start
	for d.x < ransByteL {
		d.x = (d.x << 8) | uint32(d.nextByte())
	}
	return bucket
}

// atInitialState reports whether the decoder has fully consumed the
// stream back to the encoder's starting state, the concrete
// implementation of CheckANSFinalState (spec section 6.1).
func (d *ransDecoder) atInitialState() bool {
	return d.x == ransByteL && d.pos == len(d.data)
}
