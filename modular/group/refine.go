package group

import (
	"github.com/cocosip/go-modular-ma-ans/modular/channel"
	"github.com/cocosip/go-modular-ma-ans/modular/predictor"
	"github.com/cocosip/go-modular-ma-ans/modular/props"
	"github.com/cocosip/go-modular-ma-ans/modular/tree"
)

// refineMultipliers recomputes every leaf's multiplier as the GCD of
// the residuals the full channel assigns to it, replacing
// appendLeafNode's always-safe-but-pessimistic multiplier of 1 with
// the tightest value the whole channel actually supports. It walks
// the same flattened form and fast-path dispatch (wp_only/single-leaf/
// general) that encodeChannel itself uses, so a leaf's context here
// is classified exactly as it will be at encode time — in particular,
// a force_wp_only tree's WP-property thresholds were learned and are
// read back in the same clamped domain on both sides.
func refineMultipliers(image *channel.Image, chanIdx int, groupID int32, logicalTree tree.Tree, opts Options) tree.Tree {
	cur := image.Channels[chanIdx]
	refs := channel.PrecomputeReferences(image, chanIdx, nil)
	staticProps := []int32{int32(chanIdx), groupID}
	flat := tree.FilterTree(logicalTree, staticProps)
	wp := predictor.NewState(cur.W, opts.WPHeader)

	// Keyed by logical leaf index: a leaf duplicated into two flat slots
	// (two context ids) is still one logical leaf with one multiplier.
	gcds := make([]uint32, len(logicalTree))
	accumulate := func(ctx int32, residual int64) {
		if residual < 0 {
			residual = -residual
		}
		li := flat.Nodes[ctx].LogicalIndex
		gcds[li] = gcdU32(gcds[li], uint32(residual))
	}

	switch {
	case flat.WPOnly:
		table := tree.BuildWPTable(flat)
		for y := 0; y < cur.H; y++ {
			for x := 0; x < cur.W; x++ {
				nb := channel.ComputeNeighborhood(cur, x, y)
				guess, wpProp := wp.Predict(x, nb)
				ctx, _, offset := table.Lookup(tree.ClampWPProp(wpProp))
				sample := cur.At(x, y)
				accumulate(ctx, int64(sample)-int64(guess)-offset)
				wp.UpdateErrors(sample, x)
			}
		}
	default:
		if leaf, ok := tree.SingleLeaf(flat); ok {
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
					sample := cur.At(x, y)
					accumulate(leaf.ChildID, int64(sample)-guess-leaf.PredictorOffset)
					if useWP {
						wp.UpdateErrors(sample, x)
					}
				}
			}
		} else {
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

					ctx, pred, _, offset := tree.Walk(flat, func(i int32) int32 { return vec[i] })
					var guess int64
					if pred == predictor.Weighted {
						guess = wpGuess
					} else {
						guess = int64(predictor.Predict(pred, nb))
					}

					sample := cur.At(x, y)
					accumulate(ctx, int64(sample)-guess-offset)
					if useWP {
						wp.UpdateErrors(sample, x)
					}
				}
			}
		}
	}

	out := append(tree.Tree(nil), logicalTree...)
	for _, n := range flat.Nodes {
		if !n.IsLeaf() {
			continue
		}
		m := gcds[n.LogicalIndex]
		if m == 0 {
			m = 1
		}
		out[n.LogicalIndex].Multiplier = m
	}
	return out
}

func gcdU32(a, b uint32) uint32 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
