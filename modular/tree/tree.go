// Package tree implements the logical MA decision tree, its
// flattening into a two-level-collapsed decode-time form, and the
// WP-only fast-path lookup table.
package tree

import "github.com/cocosip/go-modular-ma-ans/modular/predictor"

// LeafProperty marks a Node as a leaf rather than a decision.
const LeafProperty = -1

// Node is one logical tree node, pre-flatten. Decision nodes use
// Property/SplitVal/LChild/RChild; leaves use the predictor fields.
// Decision semantics: Property > SplitVal selects LChild, else RChild.
type Node struct {
	Property int32
	SplitVal int32
	LChild   int32
	RChild   int32

	// Leaf-only fields.
	Predictor       predictor.Predictor
	PredictorOffset int64
	Multiplier      uint32
}

// Tree is the logical tree, indexed from root at position 0.
type Tree []Node

// IsLeaf reports whether node n is a leaf.
func (n Node) IsLeaf() bool { return n.Property == LeafProperty }

// Leaf builds a leaf node.
func Leaf(p predictor.Predictor, offset int64, multiplier uint32) Node {
	return Node{Property: LeafProperty, Predictor: p, PredictorOffset: offset, Multiplier: multiplier}
}

// Decision builds an internal decision node. Children are filled in
// by the caller once their indices are known.
func Decision(property, splitVal int32) Node {
	return Node{Property: property, SplitVal: splitVal}
}
