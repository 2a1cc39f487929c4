package group

import (
	"github.com/cocosip/go-modular-ma-ans/modular/channel"
	"github.com/cocosip/go-modular-ma-ans/modular/entropy"
	"github.com/cocosip/go-modular-ma-ans/modular/modularerr"
	"github.com/cocosip/go-modular-ma-ans/modular/pixel"
	"github.com/cocosip/go-modular-ma-ans/modular/predictor"
	"github.com/cocosip/go-modular-ma-ans/modular/props"
	"github.com/cocosip/go-modular-ma-ans/modular/tree"
)

// Decompress implements ModularGenericDecompress (spec section 6.2)
// for a self-contained group: image must already have every selected
// channel's dimensions/shift metadata set by the enclosing transform
// layer (the core never infers shapes); Decompress fills in samples
// in place. globalTree must be non-nil exactly when
// enc.Header.UseGlobalTree is true.
func Decompress(image *channel.Image, enc Encoded, opts Options, groupID int32, globalTree tree.Tree) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if image.Error {
		return modularerr.ErrInvalidImage
	}
	if enc.Header.UseGlobalTree && len(globalTree) == 0 {
		return modularerr.ErrMalformedStream
	}
	if opts.Identify {
		return nil
	}

	chans := SelectChannels(image, opts)
	if len(chans) != len(enc.Channels) {
		return modularerr.ErrMalformedStream
	}

	for i, ci := range chans {
		cs := enc.Channels[i]
		if cs.ChanIndex != ci {
			return modularerr.ErrMalformedStream
		}

		logicalTree := globalTree
		if !enc.Header.UseGlobalTree {
			t, err := DetokenizeTree(cs.Tree)
			if err != nil {
				return err
			}
			logicalTree = t
		}

		if err := decodeChannel(image, ci, groupID, logicalTree, enc.Header.WPHeader, cs.Tokens, opts); err != nil {
			return err
		}
	}
	return nil
}

func decodeChannel(image *channel.Image, chanIdx int, groupID int32, logicalTree tree.Tree, wpHdr predictor.Header, stream entropy.EncodedStream, opts Options) error {
	cur := image.Channels[chanIdx]
	refs := channel.PrecomputeReferences(image, chanIdx, nil)
	staticProps := []int32{int32(chanIdx), groupID}
	flat := tree.FilterTree(logicalTree, staticProps)

	r, err := entropy.NewReader(stream)
	if err != nil {
		return err
	}
	wp := predictor.NewState(cur.W, wpHdr)

	switch {
	case flat.WPOnly:
		reportFastPath(opts, chanIdx, "wp_only")
		err = decodeWPOnly(r, cur, wp, flat)
	default:
		if leaf, ok := tree.SingleLeaf(flat); ok {
			constDone := false
			if leaf.Predictor == predictor.Zero {
				if val, ok := stream.Histograms[leaf.ChildID].SingleDirectValue(); ok {
					reportFastPath(opts, chanIdx, "constant")
					residual := int64(pixel.UnpackSigned(val)) * int64(leaf.Multiplier)
					fillConstant(cur, pixel.SaturateToSample(leaf.PredictorOffset+residual))
					constDone = true
				}
			}
			if !constDone {
				reportFastPath(opts, chanIdx, "single_leaf")
				err = decodeSingleLeaf(r, cur, wp, leaf)
			}
		} else {
			reportFastPath(opts, chanIdx, "general")
			err = decodeGeneral(r, chanIdx, groupID, cur, refs, wp, flat)
		}
	}
	if err != nil {
		return err
	}
	if !r.CheckANSFinalState() {
		return modularerr.ErrMalformedStream
	}
	return nil
}

func decodeWPOnly(r *entropy.Reader, cur *channel.Channel, wp *predictor.State, flat tree.FlatTree) error {
	table := tree.BuildWPTable(flat)
	for y := 0; y < cur.H; y++ {
		for x := 0; x < cur.W; x++ {
			nb := channel.ComputeNeighborhood(cur, x, y)
			guess, wpProp := wp.Predict(x, nb)
			ctx, mult, offset := table.Lookup(tree.ClampWPProp(wpProp))
			sample, err := reconstructSample(r, ctx, int64(guess), offset, mult)
			if err != nil {
				return err
			}
			cur.Set(x, y, sample)
			wp.UpdateErrors(sample, x)
		}
	}
	return nil
}

func decodeSingleLeaf(r *entropy.Reader, cur *channel.Channel, wp *predictor.State, leaf tree.FlatNode) error {
	useWP := leaf.Predictor == predictor.Weighted
	for y := 0; y < cur.H; y++ {
		for x := 0; x < cur.W; x++ {
			nb := channel.ComputeNeighborhood(cur, x, y)
			var guess int64
			if useWP {
				g, _ := wp.Predict(x, nb)
				guess = int64(g)
			} else {
				guess = int64(predictor.Predict(leaf.Predictor, nb))
			}
			sample, err := reconstructSample(r, leaf.ChildID, guess, leaf.PredictorOffset, leaf.Multiplier)
			if err != nil {
				return err
			}
			cur.Set(x, y, sample)
			if useWP {
				wp.UpdateErrors(sample, x)
			}
		}
	}
	return nil
}

func decodeGeneral(r *entropy.Reader, chanIdx int, groupID int32, cur *channel.Channel, refs []channel.Reference, wp *predictor.State, flat tree.FlatTree) error {
	vec := make([]int32, propVecLen(len(refs), flat.NumProps))
	useWP := flat.UseWP

	for y := 0; y < cur.H; y++ {
		for x := 0; x < cur.W; x++ {
			nb := channel.ComputeNeighborhood(cur, x, y)

			var wpGuess int64
			var wpProp int32
			if useWP {
				g, p := wp.Predict(x, nb)
				wpGuess, wpProp = int64(g), p
			}
			props.Build(vec, int32(chanIdx), groupID, nb, wpProp, refs, x, y)

			ctx, pred, mult, offset := tree.Walk(flat, func(i int32) int32 { return vec[i] })
			var guess int64
			if pred == predictor.Weighted {
				guess = wpGuess
			} else {
				guess = int64(predictor.Predict(pred, nb))
			}

			sample, err := reconstructSample(r, ctx, guess, offset, mult)
			if err != nil {
				return err
			}
			cur.Set(x, y, sample)
			if useWP {
				wp.UpdateErrors(sample, x)
			}
		}
	}
	return nil
}
