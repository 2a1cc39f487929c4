package tree

import (
	"github.com/cocosip/go-modular-ma-ans/modular/predictor"
	"github.com/cocosip/go-modular-ma-ans/modular/props"
)

// WPTable is the 1024-entry lookup table precomputed when a flat tree
// is wp_only: each slot maps one possible WP property value (clamped
// to [-kWPPropRange, kWPPropRange-1]) to its leaf's context id,
// multiplier and offset. Every leaf in a wp_only tree uses the
// Weighted predictor by construction (the WPOnly invariant), so the
// table does not need to carry a predictor tag.
type WPTable struct {
	ContextLookup [2 * props.KWPPropRange]int32
	Multipliers   [2 * props.KWPPropRange]uint32
	Offsets       [2 * props.KWPPropRange]int64
}

// BuildWPTable walks ft (which must have WPOnly set) for every
// possible WP property value and records the resulting leaf. It is
// the decode-side complement to the encoder's verification pass
// described in spec section 4.4.
func BuildWPTable(ft FlatTree) WPTable {
	var table WPTable
	for p := -props.KWPPropRange; p < props.KWPPropRange; p++ {
		ctx, _, mult, off := Walk(ft, func(int32) int32 { return int32(p) })
		slot := p + props.KWPPropRange
		table.ContextLookup[slot] = ctx
		table.Multipliers[slot] = mult
		table.Offsets[slot] = off
	}
	return table
}

// Lookup returns the leaf parameters for WP property value p, which
// must already be clamped to [-kWPPropRange, kWPPropRange-1].
func (t WPTable) Lookup(p int32) (ctxID int32, multiplier uint32, offset int64) {
	slot := p + props.KWPPropRange
	return t.ContextLookup[slot], t.Multipliers[slot], t.Offsets[slot]
}

// SingleLeaf reports whether ft has exactly one node and it is a leaf,
// enabling the three single-node decoder fast paths of spec section
// 4.5 (constant fill, zero-predictor, and non-WP/WP predictor-only).
func SingleLeaf(ft FlatTree) (FlatNode, bool) {
	if len(ft.Nodes) == 1 && ft.Nodes[0].IsLeaf() {
		return ft.Nodes[0], true
	}
	return FlatNode{}, false
}

// ClampWPProp saturates a WP property to the fast-path range.
func ClampWPProp(p int32) int32 {
	if p < -props.KWPPropRange {
		return -props.KWPPropRange
	}
	if p > props.KWPPropRange-1 {
		return props.KWPPropRange - 1
	}
	return p
}

// Walk traverses ft from the root, using propAt(propertyIndex) to
// fetch the relevant property value at each decision, until it hits a
// leaf slot, returning that leaf's context id, predictor, multiplier
// and offset. For a WPOnly tree propAt is called with the WP property
// index and, at the dummy decision of a duplicated-leaf slot, with
// dummyProperty (0); Walk itself works for any flat tree: it is also
// the general-path traversal (spec section 4.6).
func Walk(ft FlatTree, propAt func(propertyIndex int32) int32) (ctxID int32, pred predictor.Predictor, multiplier uint32, offset int64) {
	idx := int32(0)
	for {
		n := ft.Nodes[idx]
		if n.IsLeaf() {
			return n.ChildID, n.Predictor, n.Multiplier, n.PredictorOffset
		}
		goLeft := propAt(n.Property0) > n.SplitVal0
		var slot int32
		if goLeft {
			slot = 0
		} else {
			slot = 1
		}
		sub := n.Properties[slot]
		subGoLeft := propAt(sub) > n.SplitVals[slot]
		// four grandchild slots, order (>,>>),(>,<=),(<=,>),(<=,<=)
		offsetInFour := slot*2
		if !subGoLeft {
			offsetInFour++
		}
		next := ft.Nodes[n.ChildID+int32(offsetInFour)]
		if next.IsLeaf() {
			return next.ChildID, next.Predictor, next.Multiplier, next.PredictorOffset
		}
		idx = n.ChildID + int32(offsetInFour)
	}
}
