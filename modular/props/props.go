// Package props builds the per-pixel property vector the MA tree is
// traversed with: a fixed static prefix, a block of neighborhood/WP
// features, and one extra block per referenced prior channel.
package props

import (
	"github.com/cocosip/go-modular-ma-ans/modular/channel"
	"github.com/cocosip/go-modular-ma-ans/modular/predictor"
)

const (
	// KNumStaticProperties is the count of properties fixed for an
	// entire channel: channel index, group id.
	KNumStaticProperties = 2

	// KNumNonrefProperties is the count of neighborhood/WP-derived
	// features that follow the static prefix.
	KNumNonrefProperties = 13

	// KExtraPropsPerChannel is the count of properties contributed by
	// each referenced prior channel.
	KExtraPropsPerChannel = 3

	// KWPProp is the fixed index (within the full vector) of the WP
	// "max weighted error" property.
	KWPProp = KNumStaticProperties + 12

	// KWPPropRange bounds the WP property for the WP-only fast path:
	// valid values lie in [-KWPPropRange, KWPPropRange-1].
	KWPPropRange = 512
)

// Nonref property offsets within the KNumNonrefProperties block
// (relative, i.e. add KNumStaticProperties for the absolute index).
const (
	propN = iota
	propW
	propNW
	propNE
	propNN
	propNMinusW
	propNMinusNW
	propNWMinusW
	propNEMinusN
	propAbsNMinusW
	propGradient
	propWWPlaceholder
	propWP // = 12, matches KWPProp offset
)

// NumProps returns the full vector length for a channel with
// numRefChannels reference channels.
func NumProps(numRefChannels int) int {
	return KNumStaticProperties + KNumNonrefProperties + KExtraPropsPerChannel*numRefChannels
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// Build fills dst (len(dst) >= NumProps(len(refs))) with the property
// vector for pixel (x, y) of channel chanIdx, given the already
// computed neighborhood, WP property (callers pass 0 when the tree
// does not use WP), and the reference channels, read at (x, y).
func Build(dst []int32, chanIdx, groupID int32, nb channel.Neighborhood, wpProp int32, refs []channel.Reference, x, y int) {
	dst[0] = chanIdx
	dst[1] = groupID

	base := KNumStaticProperties
	dst[base+propN] = int32(nb.N)
	dst[base+propW] = int32(nb.W)
	dst[base+propNW] = int32(nb.NW)
	dst[base+propNE] = int32(nb.NE)
	dst[base+propNN] = int32(nb.NN)
	dst[base+propNMinusW] = int32(nb.N) - int32(nb.W)
	dst[base+propNMinusNW] = int32(nb.N) - int32(nb.NW)
	dst[base+propNWMinusW] = int32(nb.NW) - int32(nb.W)
	dst[base+propNEMinusN] = int32(nb.NE) - int32(nb.N)
	dst[base+propAbsNMinusW] = abs32(int32(nb.N) - int32(nb.W))
	g := predictor.Predict(predictor.Gradient, nb)
	dst[base+propGradient] = int32(g)
	dst[base+propWWPlaceholder] = 0
	dst[base+propWP] = wpProp

	extraBase := KNumStaticProperties + KNumNonrefProperties
	for i, ref := range refs {
		v := int32(0)
		if x < ref.Channel.W && y < ref.Channel.H {
			v = int32(ref.Channel.At(x, y))
		}
		w := int32(0)
		if x > 0 && x-1 < ref.Channel.W && y < ref.Channel.H {
			w = int32(ref.Channel.At(x-1, y))
		}
		off := extraBase + i*KExtraPropsPerChannel
		dst[off+0] = v
		dst[off+1] = abs32(v)
		dst[off+2] = v - w
	}
}
