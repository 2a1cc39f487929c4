// Package channel holds the dense 2-D sample array, the multi-channel
// image container, and the neighborhood/reference-sample lookups the
// coder reads from while walking a channel in raster order.
//
// Border handling follows the FFV1-style derivation in this pack's
// retrieved example (dwbuiten-go-ffv1, pred.go): each neighbor falls
// back to a fixed substitute when it would read outside the channel.
package channel

import "github.com/cocosip/go-modular-ma-ans/modular/pixel"

// Channel is a dense, row-major array of samples with shift metadata
// carried through from the transform layer (squeeze/palette/RCT),
// which this package treats as opaque bookkeeping.
type Channel struct {
	W, H   int
	HShift int
	VShift int
	Pitch  int // elements per row; Pitch >= W
	Data   []pixel.Sample
}

// NewChannel allocates a zeroed w x h channel.
func NewChannel(w, h int) *Channel {
	return &Channel{W: w, H: h, Pitch: w, Data: make([]pixel.Sample, w*h)}
}

// Row returns the y-th row as a slice of length Pitch (only the first
// W elements are meaningful sample data).
func (c *Channel) Row(y int) []pixel.Sample {
	return c.Data[y*c.Pitch : y*c.Pitch+c.Pitch]
}

// At returns the sample at (x, y).
func (c *Channel) At(x, y int) pixel.Sample {
	return c.Data[y*c.Pitch+x]
}

// Set writes the sample at (x, y).
func (c *Channel) Set(x, y int, v pixel.Sample) {
	c.Data[y*c.Pitch+x] = v
}

// Image is an ordered sequence of channels; the first NbMetaChannels
// are processed regardless of size thresholds.
type Image struct {
	Channels       []*Channel
	NbMetaChannels int
	Error          bool // set by the transform layer to signal corruption
}

// Neighborhood is the set of samples read to predict pixel (x, y):
// W, N, NW, NE, NN, WW, per spec section 4.1.
type Neighborhood struct {
	W, N, NW, NE, NN, WW pixel.Sample
}

// ComputeNeighborhood derives the neighborhood for (x, y) in c, using
// row (y-1) and row (y-2) already-decoded data. The fallback chain
// mirrors the spec exactly:
//
//	W  = left, else top, else 0
//	N  = row above at x, else W
//	NW = row above at x-1, else W
//	NE = row above at x+1, else N
//	NN = two rows above at x, else N
//	WW = two samples left, else W
func ComputeNeighborhood(c *Channel, x, y int) Neighborhood {
	var nb Neighborhood
	haveTop := y > 0

	switch {
	case x > 0:
		nb.W = c.At(x-1, y)
	case haveTop:
		nb.W = c.At(x, y-1)
	default:
		nb.W = 0
	}

	if haveTop {
		nb.N = c.At(x, y-1)
	} else {
		nb.N = nb.W
	}

	if x > 0 && haveTop {
		nb.NW = c.At(x-1, y-1)
	} else {
		nb.NW = nb.W
	}

	if x+1 < c.W && haveTop {
		nb.NE = c.At(x+1, y-1)
	} else {
		nb.NE = nb.N
	}

	if y > 1 {
		nb.NN = c.At(x, y-2)
	} else {
		nb.NN = nb.N
	}

	if x > 1 {
		nb.WW = c.At(x-2, y)
	} else {
		nb.WW = nb.W
	}

	return nb
}

// Reference names one prior channel used as a reference; its samples
// at the current row and column are read directly from Channel.
type Reference struct {
	Channel *Channel
}

// CompatibleReference reports whether prior has dimensions and shifts
// suitable for cur to read as a reference channel (spec section 4.1: a
// concrete selection policy belongs to the enclosing transform layer;
// here we only check the structural precondition every policy needs).
func CompatibleReference(cur, prior *Channel) bool {
	return cur.W == prior.W && cur.H == prior.H &&
		cur.HShift == prior.HShift && cur.VShift == prior.VShift
}

// PrecomputeReferences fills out, one Reference per compatible prior
// channel, for channel chanIdx within image; it is called once per
// channel, not once per row. Channels that are not
// structurally compatible are skipped; selection of *which* prior
// channels are eligible at all is owned by the transform layer and
// assumed already reflected in image.Channels[:chanIdx].
func PrecomputeReferences(image *Image, chanIdx int, out []Reference) []Reference {
	cur := image.Channels[chanIdx]
	out = out[:0]
	for i := 0; i < chanIdx; i++ {
		prior := image.Channels[i]
		if CompatibleReference(cur, prior) {
			out = append(out, Reference{Channel: prior})
		}
	}
	return out
}
