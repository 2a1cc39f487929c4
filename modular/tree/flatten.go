package tree

import (
	"github.com/cocosip/go-modular-ma-ans/modular/predictor"
	"github.com/cocosip/go-modular-ma-ans/modular/props"
)

// dummyProperty marks a synthesized decision standing in for a leaf
// that was duplicated into both grandchild slots (spec section 4.3).
// It can never collide with a real decision: real decisions are
// resolved away from static properties (indices 0/1) before a node
// reaches FlatNode construction, and props.KWPProp/the non-ref block
// all start at index >= props.KNumStaticProperties.
const dummyProperty = 0

// FlatNode is one decode-time, two-level-collapsed node.
type FlatNode struct {
	Property0  int32
	SplitVal0  int32
	Properties [2]int32
	SplitVals  [2]int32
	ChildID    int32 // first of four contiguous grandchild slots, or leaf context id

	Predictor       predictor.Predictor
	PredictorOffset int64
	Multiplier      uint32

	// LogicalIndex is this node's index in the logical Tree it was
	// flattened from. For a leaf, it is the index of the leaf Node a
	// caller needs to update in place (e.g. to write back a
	// channel-wide-refined multiplier) after walking the flat form.
	LogicalIndex int32
}

// IsLeaf reports whether n is a leaf slot.
func (n FlatNode) IsLeaf() bool { return n.Property0 == LeafProperty }

// FlatTree is the flattened, array-encoded tree plus the metadata the
// fast-path selection in the coder's per-pixel loops depends on.
type FlatTree struct {
	Nodes    []FlatNode
	NumProps int
	UseWP    bool
	WPOnly   bool
}

type pendingNode struct {
	logicalIdx int32
}

// resolveStatic follows decisions on static properties (index <
// props.KNumStaticProperties) straight through, using staticProps to
// pick the branch, until it reaches a leaf or a non-static decision.
func resolveStatic(t Tree, idx int32, staticProps []int32) int32 {
	for {
		n := t[idx]
		if n.IsLeaf() || n.Property >= props.KNumStaticProperties {
			return idx
		}
		if staticProps[n.Property] > n.SplitVal {
			idx = n.LChild
		} else {
			idx = n.RChild
		}
	}
}

// FilterTree flattens the logical tree t, resolving static-property
// decisions against staticProps and collapsing two levels per
// FlatNode. It is a pure function of (t, staticProps) and never fails:
// an ill-formed tree simply fails the wp_only/fast-path checks rather
// than producing an error (spec section 7).
func FilterTree(t Tree, staticProps []int32) FlatTree {
	queue := []pendingNode{{resolveStatic(t, 0, staticProps)}}
	var flat []FlatNode
	maxProp := int32(-1)
	useWP := false
	wpOnly := true

	trackProp := func(p int32) {
		if p > maxProp {
			maxProp = p
		}
		if p != props.KWPProp {
			wpOnly = false
		} else {
			useWP = true
		}
	}

	leafOK := func(n Node) bool {
		if n.Predictor != predictor.Weighted {
			return false
		}
		if n.PredictorOffset != 0 || n.Multiplier != 1 {
			return false
		}
		return n.PredictorOffset >= -127 && n.PredictorOffset <= 127
	}

	for qi := 0; qi < len(queue); qi++ {
		idx := queue[qi].logicalIdx
		n := t[idx]

		if n.IsLeaf() {
			if n.Predictor == predictor.Weighted {
				useWP = true
			}
			if !leafOK(n) {
				wpOnly = false
			}
			flat = append(flat, FlatNode{
				Property0:       LeafProperty,
				ChildID:         int32(qi),
				Predictor:       n.Predictor,
				PredictorOffset: n.PredictorOffset,
				Multiplier:      n.Multiplier,
				LogicalIndex:    idx,
			})
			continue
		}

		trackProp(n.Property)

		left := resolveStatic(t, n.LChild, staticProps)
		right := resolveStatic(t, n.RChild, staticProps)

		var subProp [2]int32
		var subSplit [2]int32
		childID := int32(len(queue))

		expand := func(childIdx int32, slot int) {
			c := t[childIdx]
			if c.IsLeaf() {
				subProp[slot] = dummyProperty
				subSplit[slot] = 0
				queue = append(queue, pendingNode{childIdx}, pendingNode{childIdx})
				return
			}
			subProp[slot] = c.Property
			subSplit[slot] = c.SplitVal
			ll := resolveStatic(t, c.LChild, staticProps)
			rr := resolveStatic(t, c.RChild, staticProps)
			queue = append(queue, pendingNode{ll}, pendingNode{rr})
		}
		expand(left, 0)
		expand(right, 1)

		for _, p := range subProp {
			if p != dummyProperty {
				trackProp(p)
			}
		}

		flat = append(flat, FlatNode{
			Property0:    n.Property,
			SplitVal0:    n.SplitVal,
			Properties:   subProp,
			SplitVals:    subSplit,
			ChildID:      childID,
			LogicalIndex: idx,
		})
	}

	numProps := props.KNumStaticProperties + props.KNumNonrefProperties
	nonrefEnd := int32(numProps)
	if maxProp >= nonrefEnd {
		extra := maxProp - nonrefEnd + 1
		blocks := (extra + props.KExtraPropsPerChannel - 1) / props.KExtraPropsPerChannel
		numProps = int(nonrefEnd) + int(blocks)*props.KExtraPropsPerChannel
	}

	return FlatTree{Nodes: flat, NumProps: numProps, UseWP: useWP, WPOnly: wpOnly}
}
