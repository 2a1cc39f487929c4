package tree

import (
	"testing"

	"github.com/cocosip/go-modular-ma-ans/modular/predictor"
)

func singleLeafTree(p predictor.Predictor) Tree {
	return Tree{Leaf(p, 0, 1)}
}

func TestFilterTreeSingleLeafIsOneNode(t *testing.T) {
	ft := FilterTree(singleLeafTree(predictor.Zero), []int32{0, 0})
	if len(ft.Nodes) != 1 {
		t.Fatalf("len(Nodes) = %d, want 1", len(ft.Nodes))
	}
	if !ft.Nodes[0].IsLeaf() {
		t.Fatalf("expected leaf node")
	}
}

func TestFilterTreeResolvesStaticPrefix(t *testing.T) {
	// root decides on static property 0 (channel index): chan>0 -> leaf A, else leaf B.
	tr := Tree{
		{Property: 0, SplitVal: 0, LChild: 1, RChild: 2},
		Leaf(predictor.Left, 0, 1),
		Leaf(predictor.Top, 0, 1),
	}
	ftA := FilterTree(tr, []int32{5, 0})
	ftB := FilterTree(tr, []int32{0, 0})
	if len(ftA.Nodes) != 1 || ftA.Nodes[0].Predictor != predictor.Left {
		t.Fatalf("static-resolved chan=5 tree = %+v", ftA)
	}
	if len(ftB.Nodes) != 1 || ftB.Nodes[0].Predictor != predictor.Top {
		t.Fatalf("static-resolved chan=0 tree = %+v", ftB)
	}
}

func TestFilterTreeDeterministic(t *testing.T) {
	tr := Tree{
		{Property: 5, SplitVal: 10, LChild: 1, RChild: 2},
		Leaf(predictor.Left, 0, 1),
		Leaf(predictor.Top, 0, 1),
	}
	static := []int32{0, 0}
	a := FilterTree(tr, static)
	b := FilterTree(tr, static)
	if len(a.Nodes) != len(b.Nodes) || a.UseWP != b.UseWP || a.WPOnly != b.WPOnly || a.NumProps != b.NumProps {
		t.Fatalf("FilterTree not deterministic: %+v vs %+v", a, b)
	}
}

func TestWPOnlyTableMatchesWalk(t *testing.T) {
	tr := Tree{
		{Property: 14, SplitVal: 0, LChild: 1, RChild: 2}, // KWPProp = 2+12 = 14
		Leaf(predictor.Weighted, 0, 1),
		Leaf(predictor.Weighted, 0, 1),
	}
	ft := FilterTree(tr, []int32{0, 0})
	if !ft.WPOnly {
		t.Fatalf("expected WPOnly tree, got %+v", ft)
	}
	table := BuildWPTable(ft)
	for _, p := range []int32{-512, -1, 0, 1, 511} {
		wantCtx, _, wantMult, wantOff := Walk(ft, func(int32) int32 { return p })
		gotCtx, gotMult, gotOff := table.Lookup(p)
		if gotCtx != wantCtx || gotMult != wantMult || gotOff != wantOff {
			t.Fatalf("p=%d: table=(%d,%d,%d) walk=(%d,%d,%d)", p, gotCtx, gotMult, gotOff, wantCtx, wantMult, wantOff)
		}
	}
}
