package group

import (
	"github.com/google/uuid"

	"github.com/cocosip/go-modular-ma-ans/modular/entropy"
	"github.com/cocosip/go-modular-ma-ans/modular/modularerr"
	"github.com/cocosip/go-modular-ma-ans/modular/pixel"
	"github.com/cocosip/go-modular-ma-ans/modular/predictor"
	"github.com/cocosip/go-modular-ma-ans/modular/tree"
)

// GroupHeader carries the per-group metadata spec section 4.9 lists:
// the weighted-predictor tunables, the transform list the enclosing
// pipeline applied (opaque here), and whether the per-group stream
// omits its own tree because a global one was supplied.
type GroupHeader struct {
	WPHeader      predictor.Header
	Transforms    []string
	UseGlobalTree bool

	// DebugID is populated only when Options.WantDebug is set; it never
	// affects codec semantics (spec section 6.2's aux_out).
	DebugID string
}

func newGroupHeader(opts Options, useGlobalTree bool) GroupHeader {
	h := GroupHeader{WPHeader: opts.WPHeader, UseGlobalTree: useGlobalTree}
	if opts.WantDebug {
		h.DebugID = uuid.NewString()
	}
	return h
}

// Tree-tokenization contexts: a fixed, small alphabet dedicated to
// serializing the logical tree itself, distinct from the per-channel
// residual contexts (spec section 4.9: "TokenizeTree -> histogram
// build -> token write").
const (
	ctxIsLeaf = iota
	ctxPredictor
	ctxOffset
	ctxMultiplier
	ctxProperty
	ctxSplitVal
	numTreeContexts
)

// TokenizeTree serializes t as a preorder walk: each node's isLeaf
// flag is emitted first, and leaf/decision fields follow. Child
// positions are never encoded explicitly — a decision node is always
// followed by its left subtree's full preorder encoding, then its
// right subtree's — so DetokenizeTree can reconstruct LChild/RChild
// purely from traversal order.
func TokenizeTree(t tree.Tree) entropy.EncodedStream {
	w := entropy.NewWriter(numTreeContexts)
	tokenizeNode(w, t, 0)
	hist := w.BuildAndEncodeHistograms()
	return w.WriteTokens(hist)
}

func tokenizeNode(w *entropy.Writer, t tree.Tree, idx int32) {
	n := t[idx]
	if n.IsLeaf() {
		w.EmitToken(ctxIsLeaf, 1)
		w.EmitToken(ctxPredictor, uint32(n.Predictor))
		w.EmitToken(ctxOffset, pixel.PackSigned(int32(n.PredictorOffset)))
		w.EmitToken(ctxMultiplier, n.Multiplier)
		return
	}
	w.EmitToken(ctxIsLeaf, 0)
	w.EmitToken(ctxProperty, uint32(n.Property))
	w.EmitToken(ctxSplitVal, pixel.PackSigned(n.SplitVal))
	tokenizeNode(w, t, n.LChild)
	tokenizeNode(w, t, n.RChild)
}

// DetokenizeTree inverts TokenizeTree, rejecting a malformed stream
// (unknown predictor tag, short ANS final state) rather than
// panicking.
func DetokenizeTree(stream entropy.EncodedStream) (tree.Tree, error) {
	r, err := entropy.NewReader(stream)
	if err != nil {
		return nil, err
	}
	var t tree.Tree
	if _, err := detokenizeNode(r, &t); err != nil {
		return nil, err
	}
	if !r.CheckANSFinalState() {
		return nil, modularerr.ErrMalformedStream
	}
	return t, nil
}

func detokenizeNode(r *entropy.Reader, t *tree.Tree) (int32, error) {
	isLeaf, err := r.ReadHybridUintClustered(ctxIsLeaf)
	if err != nil {
		return 0, err
	}
	if isLeaf != 0 {
		predVal, err := r.ReadHybridUintClustered(ctxPredictor)
		if err != nil {
			return 0, err
		}
		offVal, err := r.ReadHybridUintClustered(ctxOffset)
		if err != nil {
			return 0, err
		}
		multVal, err := r.ReadHybridUintClustered(ctxMultiplier)
		if err != nil {
			return 0, err
		}
		p := predictor.Predictor(predVal)
		if !p.Valid() {
			return 0, modularerr.ErrMalformedStream
		}
		idx := int32(len(*t))
		*t = append(*t, tree.Leaf(p, int64(pixel.UnpackSigned(offVal)), multVal))
		return idx, nil
	}

	propVal, err := r.ReadHybridUintClustered(ctxProperty)
	if err != nil {
		return 0, err
	}
	splitVal, err := r.ReadHybridUintClustered(ctxSplitVal)
	if err != nil {
		return 0, err
	}
	idx := int32(len(*t))
	*t = append(*t, tree.Decision(int32(propVal), pixel.UnpackSigned(splitVal)))

	lIdx, err := detokenizeNode(r, t)
	if err != nil {
		return 0, err
	}
	rIdx, err := detokenizeNode(r, t)
	if err != nil {
		return 0, err
	}
	(*t)[idx].LChild = lIdx
	(*t)[idx].RChild = rIdx
	return idx, nil
}
