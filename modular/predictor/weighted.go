package predictor

import (
	"github.com/cocosip/go-modular-ma-ans/modular/channel"
	"github.com/cocosip/go-modular-ma-ans/modular/pixel"
)

// kNumWPPredictors is the number of weighted-predictor sub-guesses
// combined by the state machine (spec section 3: "four predictor
// sub-guesses with per-pixel weights").
const kNumWPPredictors = 4

// Header carries the tunable weighted-predictor parameters that ride
// in the group header (spec section 4.9, wp_header).
type Header struct {
	InitWeight [kNumWPPredictors]int64
	DecayShift uint // exponential-decay shift applied to the running error estimates
	WeightBits uint // fixed-point shift used when combining sub-guesses
}

// DefaultHeader returns the weighted-predictor parameters used when no
// caller-supplied header is present.
func DefaultHeader() Header {
	return Header{
		InitWeight: [kNumWPPredictors]int64{1, 1, 1, 1},
		DecayShift: 3,
		WeightBits: 16,
	}
}

// State is the per-channel weighted predictor: a ring of recent errors
// indexed by column, one running error estimate per sub-predictor, and
// the last-predicted sub-guesses (needed by UpdateErrors once the true
// sample is known).
type State struct {
	hdr Header

	errSum [kNumWPPredictors]int64   // decayed running |error| estimate
	ring   [kNumWPPredictors][]int64 // previous row's |error| per column

	lastSub  [kNumWPPredictors]pixel.Wide
	lastProp int32
}

// NewState allocates weighted predictor state for a channel of the
// given width, using hdr's tunables.
func NewState(width int, hdr Header) *State {
	s := &State{hdr: hdr}
	for i := 0; i < kNumWPPredictors; i++ {
		s.errSum[i] = hdr.InitWeight[i]
		s.ring[i] = make([]int64, width)
	}
	return s
}

func subPredictors(nb channel.Neighborhood) [kNumWPPredictors]pixel.Wide {
	n, w, nw, ne, nn := pixel.Wide(nb.N), pixel.Wide(nb.W), pixel.Wide(nb.NW), pixel.Wide(nb.NE), pixel.Wide(nb.NN)
	return [kNumWPPredictors]pixel.Wide{
		n,
		w,
		gradientClamp(n, w, nw),
		gradientClamp(n, ne, nn),
	}
}

// Predict computes the combined weighted-predictor guess for column x
// and returns it alongside the saturated "max weighted error" property
// used both as a property and, in the WP-only fast path, as the
// context-selecting key.
func (s *State) Predict(x int, nb channel.Neighborhood) (pixel.Wide, int32) {
	sub := subPredictors(nb)
	s.lastSub = sub

	scale := int64(1) << s.hdr.WeightBits
	var weight [kNumWPPredictors]int64
	var weightSum int64
	for i := 0; i < kNumWPPredictors; i++ {
		denom := s.errSum[i] + s.ring[i][x] + 1
		weight[i] = scale / denom
		if weight[i] == 0 {
			weight[i] = 1
		}
		weightSum += weight[i]
	}

	var acc pixel.Wide
	for i := 0; i < kNumWPPredictors; i++ {
		acc += sub[i] * pixel.Wide(weight[i])
	}
	guess := acc / pixel.Wide(weightSum)

	maxErr := int64(0)
	for i := 0; i < kNumWPPredictors; i++ {
		e := s.errSum[i]
		if e > maxErr {
			maxErr = e
		}
	}
	prop := saturateProp(maxErr)
	s.lastProp = prop
	return guess, prop
}

// UpdateErrors folds the true decoded sample into the error ring and
// decayed running estimates. Must be called exactly once per pixel,
// after Predict, before moving to the next column.
func (s *State) UpdateErrors(sample pixel.Sample, x int) {
	v := pixel.Wide(sample)
	for i := 0; i < kNumWPPredictors; i++ {
		e := v - s.lastSub[i]
		if e < 0 {
			e = -e
		}
		s.ring[i][x] = int64(e)
		decay := s.hdr.DecayShift
		s.errSum[i] = s.errSum[i] - (s.errSum[i] >> decay) + int64(e)
	}
}

func saturateProp(v int64) int32 {
	const maxI32 = int64(1<<31 - 1)
	const minI32 = -int64(1 << 31)
	if v > maxI32 {
		return int32(maxI32)
	}
	if v < minI32 {
		return int32(minI32)
	}
	return int32(v)
}
