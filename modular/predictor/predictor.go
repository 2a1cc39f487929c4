// Package predictor implements the spatial predictors used by the
// modular channel coder, including the stateful weighted predictor.
//
// The non-weighted predictors are a catalogue of small integer
// combinations of the local neighborhood, in the spirit of the
// retrieved WebP lossless predictor table (deepteams-webp,
// predict_lossless.go): each case is a short pure function dispatched
// by a fixed enum value that is part of the wire format.
package predictor

import (
	"github.com/cocosip/go-modular-ma-ans/modular/channel"
	"github.com/cocosip/go-modular-ma-ans/modular/pixel"
)

// Predictor identifies a spatial prediction rule. The integer values
// are part of the wire format and must never be reordered.
type Predictor int32

const (
	Zero Predictor = iota
	Left
	Top
	Average
	Select
	Gradient
	NorthEast
	NorthWest
	WestWest
	AverageAll
	Gradient2
	Gradient3
	Gradient4
	Weighted
	numPredictors
)

// Valid reports whether p is a recognized predictor tag.
func (p Predictor) Valid() bool { return p >= 0 && p < numPredictors }

// NumPredictors is the count of predictor tags, for candidate-list
// construction in the learner.
func NumPredictors() int { return int(numPredictors) }

func clampW(v, lo, hi pixel.Wide) pixel.Wide {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minW(a, b pixel.Wide) pixel.Wide {
	if a < b {
		return a
	}
	return b
}

func maxW(a, b pixel.Wide) pixel.Wide {
	if a > b {
		return a
	}
	return b
}

// gradientClamp implements the JPEG-LS-style median-edge gradient:
// N+W-NW clamped to [min(N,W), max(N,W)], matching S3 in the spec.
func gradientClamp(n, w, nw pixel.Wide) pixel.Wide {
	g := n + w - nw
	return clampW(g, minW(n, w), maxW(n, w))
}

// Predict evaluates predictor p (other than Weighted, which needs the
// WP state machine in weighted.go) against the given neighborhood,
// returning a wide intermediate guess.
func Predict(p Predictor, nb channel.Neighborhood) pixel.Wide {
	n, w, nw, ne, nn, ww := pixel.Wide(nb.N), pixel.Wide(nb.W), pixel.Wide(nb.NW), pixel.Wide(nb.NE), pixel.Wide(nb.NN), pixel.Wide(nb.WW)

	switch p {
	case Zero:
		return 0
	case Left:
		return w
	case Top:
		return n
	case Average:
		return (n + w) / 2
	case Select:
		// Pick W if N is closer to NW than W is, else N; a cheap
		// edge-aware switch in the same spirit as the gradient.
		if absW(n-nw) < absW(w-nw) {
			return w
		}
		return n
	case Gradient:
		return gradientClamp(n, w, nw)
	case NorthEast:
		return ne
	case NorthWest:
		return nw
	case WestWest:
		return ww
	case AverageAll:
		return (n + w + ne + nw + nn) / 5
	case Gradient2:
		return gradientClamp(n, w, nw) + (ne-n)/2
	case Gradient3:
		return gradientClamp(n, w, nw) + (nn-n)/2
	case Gradient4:
		return clampW((n+w+ne+nw)/4, minW(minW(n, w), minW(ne, nw)), maxW(maxW(n, w), maxW(ne, nw)))
	default:
		return 0
	}
}

func absW(v pixel.Wide) pixel.Wide {
	if v < 0 {
		return -v
	}
	return v
}
