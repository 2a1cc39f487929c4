package learn

import (
	"sort"

	"github.com/cocosip/go-modular-ma-ans/modular/modularerr"
	"github.com/cocosip/go-modular-ma-ans/modular/pixel"
	"github.com/cocosip/go-modular-ma-ans/modular/predictor"
	"github.com/cocosip/go-modular-ma-ans/modular/props"
	"github.com/cocosip/go-modular-ma-ans/modular/tree"
)

// Options configures LearnTree (spec section 6.4's splitting_*
// options plus the force_wp_only/force_no_wp switches of section 4.7).
type Options struct {
	MaxProperties int // splitting_heuristics_max_properties; 0 = all
	NodeThreshold float64
	MaxDepth      int
	MinSamples    int
	ForceWPOnly   bool
	ForceNoWP     bool
}

// DefaultOptions returns modest, always-terminating learner settings.
func DefaultOptions() Options {
	return Options{MaxProperties: 8, NodeThreshold: 16, MaxDepth: 10, MinSamples: 8}
}

// LearnTree builds a Tree minimizing a packed-residual cost proxy for
// entropy under opts, from training samples gathered by GatherTreeData.
// The splitting policy itself (how candidate thresholds are chosen) is
// a heuristic detail the spec leaves open (section 1: "out of scope
// beyond the contract it must satisfy"); the contract enforced here is
// spec section 4.7's list: base-predictor promotion, force_wp_only/
// force_no_wp handling, and leaf multiplier divisibility.
func LearnTree(candidates []predictor.Predictor, data TrainingData, opts Options) (tree.Tree, error) {
	if len(candidates) == 0 {
		return nil, modularerr.ErrLogicError
	}

	cands := append([]predictor.Predictor(nil), candidates...)
	residuals := make([][]int64, len(cands))
	copy(residuals, data.Residuals)

	if opts.ForceNoWP {
		if len(cands) == 1 && cands[0] == predictor.Weighted {
			return nil, modularerr.ErrLogicError
		}
		keep := cands[:0:0]
		keepRes := residuals[:0:0]
		for i, c := range cands {
			if c == predictor.Weighted {
				continue
			}
			keep = append(keep, c)
			keepRes = append(keepRes, residuals[i])
		}
		cands, residuals = keep, keepRes
		if props.KWPProp < len(data.Props) {
			for i := range data.Props[props.KWPProp] {
				data.Props[props.KWPProp][i] = 0
			}
		}
	}

	if opts.ForceWPOnly && props.KWPProp < len(data.Props) {
		for i, v := range data.Props[props.KWPProp] {
			data.Props[props.KWPProp][i] = tree.ClampWPProp(v)
		}
	}

	// Move the predictor with the smallest packed-residual sum to
	// index 0; it becomes the base predictor favored at the root.
	if len(cands) > 1 {
		best := 0
		bestSum := packedSum(residuals[0])
		for i := 1; i < len(cands); i++ {
			if s := packedSum(residuals[i]); s < bestSum {
				bestSum = s
				best = i
			}
		}
		cands[0], cands[best] = cands[best], cands[0]
		residuals[0], residuals[best] = residuals[best], residuals[0]
	}

	idxs := make([]int, data.NumSamples)
	for i := range idxs {
		idxs[i] = i
	}

	maxProp := data.NumProps
	if opts.MaxProperties > 0 && opts.MaxProperties < maxProp {
		maxProp = opts.MaxProperties
	}

	// force_wp_only must produce a tree whose only decision property
	// is the WP property, or the flattener's wp_only detection (and
	// therefore the lookup-table fast path) would never trigger.
	var allowedProps []int
	if opts.ForceWPOnly {
		if props.KWPProp < len(data.Props) {
			allowedProps = []int{props.KWPProp}
		}
	} else {
		allowedProps = make([]int, maxProp)
		for p := range allowedProps {
			allowedProps[p] = p
		}
	}

	var tr tree.Tree
	buildNode(&tr, idxs, data.Props, residuals, cands, opts, allowedProps, 0, data.NumSamples)
	if len(tr) == 0 {
		tr = append(tr, appendLeafNode(idxs, residuals, cands))
	}
	return tr, nil
}

func packedSum(residuals []int64) int64 {
	var sum int64
	for _, r := range residuals {
		sum += int64(pixel.PackSigned(int32(r)))
	}
	return sum
}

func costOf(idxs []int, residuals [][]int64) (bestCand int, cost int64) {
	cost = -1
	for ci, col := range residuals {
		var c int64
		for _, si := range idxs {
			c += int64(pixel.PackSigned(int32(col[si])))
		}
		if cost == -1 || c < cost {
			cost = c
			bestCand = ci
		}
	}
	return bestCand, cost
}

// appendLeafNode always assigns multiplier 1. A GCD taken over only
// the sampled training residuals is not safe to use as a channel-wide
// multiplier: GatherTreeData sees at most pixel_fraction of the
// channel, so a non-sampled pixel's residual need not be divisible by
// a GCD computed from the sample (spec section 4.7's multiplier
// contract is channel-wide, not sample-wide). Multiplier 1 always
// divides, so it is the only value LearnTree can assign correctly
// without seeing every pixel; the caller is expected to run a
// full-channel refinement pass to assign anything tighter.
func appendLeafNode(idxs []int, residuals [][]int64, cands []predictor.Predictor) tree.Node {
	bestCand, _ := costOf(idxs, residuals)
	return tree.Leaf(cands[bestCand], 0, 1)
}

type splitCandidate struct {
	prop int
	val  int32
	cost int64
}

func findBestSplit(idxs []int, propData [][]int32, residuals [][]int64, allowedProps []int, parentCost int64, threshold int64) (splitCandidate, bool) {
	best := splitCandidate{cost: parentCost}
	found := false

	for _, p := range allowedProps {
		if p >= len(propData) {
			continue
		}
		col := propData[p]
		vals := make([]int32, len(idxs))
		for i, si := range idxs {
			vals[i] = col[si]
		}
		sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
		if vals[0] == vals[len(vals)-1] {
			continue // constant property here, no usable split
		}
		splitVal := vals[len(vals)/2]

		var left, right []int
		for _, si := range idxs {
			if col[si] > splitVal {
				left = append(left, si)
			} else {
				right = append(right, si)
			}
		}
		if len(left) == 0 || len(right) == 0 {
			continue
		}
		_, lc := costOf(left, residuals)
		_, rc := costOf(right, residuals)
		cand := splitCandidate{prop: p, val: splitVal, cost: lc + rc}
		if cand.cost < best.cost-threshold {
			best = cand
			found = true
		}
	}
	return best, found
}

func buildNode(tr *tree.Tree, idxs []int, propData [][]int32, residuals [][]int64, cands []predictor.Predictor, opts Options, allowedProps []int, depth, totalPixels int) int32 {
	if depth >= opts.MaxDepth || len(idxs) < opts.MinSamples {
		*tr = append(*tr, appendLeafNode(idxs, residuals, cands))
		return int32(len(*tr) - 1)
	}

	_, parentCost := costOf(idxs, residuals)
	pixelFraction := float64(len(idxs)) / float64(max1(totalPixels))
	gate := int64(opts.NodeThreshold * (0.9*pixelFraction + 0.1))

	split, ok := findBestSplit(idxs, propData, residuals, allowedProps, parentCost, gate)
	if !ok {
		*tr = append(*tr, appendLeafNode(idxs, residuals, cands))
		return int32(len(*tr) - 1)
	}

	var left, right []int
	col := propData[split.prop]
	for _, si := range idxs {
		if col[si] > split.val {
			left = append(left, si)
		} else {
			right = append(right, si)
		}
	}

	nodeIdx := int32(len(*tr))
	*tr = append(*tr, tree.Decision(int32(split.prop), split.val))
	lIdx := buildNode(tr, left, propData, residuals, cands, opts, allowedProps, depth+1, totalPixels)
	rIdx := buildNode(tr, right, propData, residuals, cands, opts, allowedProps, depth+1, totalPixels)
	(*tr)[nodeIdx].LChild = lIdx
	(*tr)[nodeIdx].RChild = rIdx
	return nodeIdx
}

func max1(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
