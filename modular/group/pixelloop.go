package group

import (
	"github.com/cocosip/go-modular-ma-ans/modular/channel"
	"github.com/cocosip/go-modular-ma-ans/modular/entropy"
	"github.com/cocosip/go-modular-ma-ans/modular/modularerr"
	"github.com/cocosip/go-modular-ma-ans/modular/pixel"
	"github.com/cocosip/go-modular-ma-ans/modular/props"
)

// propVecLen sizes the per-pixel property vector to cover both the
// channel's own reference-channel count and whatever width a
// (possibly externally supplied) flat tree may reference; the tail is
// left zero when the tree's width exceeds the channel's natural one.
func propVecLen(numRefs, flatNumProps int) int {
	n := props.NumProps(numRefs)
	if flatNumProps > n {
		return flatNumProps
	}
	return n
}

// emitResidual is the encode-side half of spec section 4.6's General
// path contract: assert multiplier divisibility, then emit the
// packed, scaled residual.
func emitResidual(w *entropy.Writer, ctx int32, sample, guess, offset int64, mult uint32) error {
	if mult == 0 {
		return modularerr.ErrLogicError
	}
	diff := sample - guess - offset
	if diff%int64(mult) != 0 {
		return modularerr.ErrLogicError
	}
	w.EmitToken(ctx, pixel.PackSigned(int32(diff/int64(mult))))
	return nil
}

// reconstructSample is the decode-side mirror of emitResidual,
// saturating the final reconstruction only (spec section 8, property
// 7), never an intermediate sum.
func reconstructSample(r *entropy.Reader, ctx int32, guess, offset int64, mult uint32) (pixel.Sample, error) {
	tok, err := r.ReadHybridUintClustered(ctx)
	if err != nil {
		return 0, err
	}
	residual := int64(pixel.UnpackSigned(tok)) * int64(mult)
	return pixel.SaturateToSample(guess + offset + residual), nil
}

// fillConstant is the "memset-equivalent" terminal action of the
// Constant fast path (spec section 4.5).
func fillConstant(c *channel.Channel, v pixel.Sample) {
	for y := 0; y < c.H; y++ {
		row := c.Row(y)
		for x := 0; x < c.W; x++ {
			row[x] = v
		}
	}
}

func reportFastPath(opts Options, chanIdx int, path string) {
	if opts.FastPathHook != nil {
		opts.FastPathHook(chanIdx, path)
	}
}
