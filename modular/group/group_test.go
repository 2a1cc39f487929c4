package group

import (
	"errors"
	"testing"

	"github.com/cocosip/go-modular-ma-ans/modular/channel"
	"github.com/cocosip/go-modular-ma-ans/modular/modularerr"
	"github.com/cocosip/go-modular-ma-ans/modular/predictor"
	"github.com/cocosip/go-modular-ma-ans/modular/tree"
)

func singleChannelImage(w, h int, fill func(x, y int) int32) *channel.Image {
	c := channel.NewChannel(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c.Set(x, y, fill(x, y))
		}
	}
	return &channel.Image{Channels: []*channel.Channel{c}}
}

func cloneEmptyLike(img *channel.Image) *channel.Image {
	out := &channel.Image{NbMetaChannels: img.NbMetaChannels}
	for _, c := range img.Channels {
		out.Channels = append(out.Channels, channel.NewChannel(c.W, c.H))
	}
	return out
}

func assertRoundTrip(t *testing.T, orig *channel.Image, opts Options) []string {
	t.Helper()
	enc, err := Compress(orig, opts, 0)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	// Compress and Decompress each report once per channel; only the
	// decoder's choice is recorded, since only it has a "constant" path.
	var paths []string
	opts.FastPathHook = func(chanIdx int, path string) { paths = append(paths, path) }

	decoded := cloneEmptyLike(orig)
	if err := Decompress(decoded, enc, opts, 0, nil); err != nil {
		t.Fatalf("Decompress: %v", err)
	}

	for ci, c := range orig.Channels {
		dc := decoded.Channels[ci]
		for y := 0; y < c.H; y++ {
			for x := 0; x < c.W; x++ {
				if c.At(x, y) != dc.At(x, y) {
					t.Fatalf("channel %d pixel (%d,%d): got %d, want %d", ci, x, y, dc.At(x, y), c.At(x, y))
				}
			}
		}
	}
	return paths
}

// S1: 4x4 constant channel, Zero predictor, multiplier 1, offset 0.
func TestConstantChannelFastPath(t *testing.T) {
	img := singleChannelImage(4, 4, func(x, y int) int32 { return 7 })
	opts := DefaultOptions()
	opts.Predictor = PredictorOption(predictor.Zero)
	opts.NbRepeats = 16

	paths := assertRoundTrip(t, img, opts)
	if len(paths) != 1 || paths[0] != "constant" {
		t.Fatalf("expected constant fast path, got %v", paths)
	}
}

// S2: 8x1 ramp, Left predictor.
func TestLeftPredictorRampRoundTrip(t *testing.T) {
	img := singleChannelImage(8, 1, func(x, y int) int32 { return int32(x) })
	opts := DefaultOptions()
	opts.Predictor = PredictorOption(predictor.Left)
	opts.NbRepeats = 1024

	paths := assertRoundTrip(t, img, opts)
	if len(paths) != 1 || paths[0] != "single_leaf" {
		t.Fatalf("expected single_leaf fast path, got %v", paths)
	}
}

// S3: 2x2 Gradient predictor, exact residual check.
func TestGradientPredictorResidual(t *testing.T) {
	img := singleChannelImage(2, 2, func(x, y int) int32 {
		return [][]int32{{10, 20}, {30, 45}}[y][x]
	})
	opts := DefaultOptions()
	opts.Predictor = PredictorOption(predictor.Gradient)
	opts.NbRepeats = 1024

	nb := channel.ComputeNeighborhood(img.Channels[0], 1, 1)
	guess := predictor.Predict(predictor.Gradient, nb)
	if guess != 30 {
		t.Fatalf("Gradient guess at (1,1) = %d, want 30", guess)
	}
	residual := int64(img.Channels[0].At(1, 1)) - guess
	if residual != 15 {
		t.Fatalf("residual at (1,1) = %d, want 15", residual)
	}

	assertRoundTrip(t, img, opts)
}

// S4: 8x8 channel with force_wp_only.
func TestForceWPOnlyFastPath(t *testing.T) {
	img := singleChannelImage(8, 8, func(x, y int) int32 { return int32((x*3 + y*5) % 17) })
	opts := DefaultOptions()
	opts.Predictor = PredictorOption(predictor.Weighted)
	opts.ForceWPOnly = true
	opts.NbRepeats = 1024

	paths := assertRoundTrip(t, img, opts)
	if len(paths) != 1 || paths[0] != "wp_only" {
		t.Fatalf("expected wp_only fast path, got %v", paths)
	}
}

// S5: two-channel image, channel 1 references channel 0.
func TestTwoChannelReferenceRoundTrip(t *testing.T) {
	c0 := channel.NewChannel(6, 6)
	c1 := channel.NewChannel(6, 6)
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			c0.Set(x, y, int32(x+y))
			c1.Set(x, y, int32(x+y)+int32(2*x-y))
		}
	}
	img := &channel.Image{Channels: []*channel.Channel{c0, c1}}

	opts := DefaultOptions()
	opts.NbRepeats = 1024
	assertRoundTrip(t, img, opts)
}

// S6: a corrupted stream must surface MalformedStream, not a silent
// wrong decode.
func TestCorruptedStreamIsMalformed(t *testing.T) {
	img := singleChannelImage(4, 4, func(x, y int) int32 { return int32(x + y) })
	opts := DefaultOptions()
	opts.Predictor = PredictorOption(predictor.Left)
	opts.NbRepeats = 1024

	enc, err := Compress(img, opts, 0)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(enc.Channels) != 1 || len(enc.Channels[0].Tokens.ANS) < 5 {
		t.Fatalf("expected a non-trivial ANS stream")
	}
	corrupt := append([]byte(nil), enc.Channels[0].Tokens.ANS...)
	corrupt[len(corrupt)-1] ^= 0xFF
	enc.Channels[0].Tokens.ANS = corrupt

	decoded := cloneEmptyLike(img)
	err = Decompress(decoded, enc, opts, 0, nil)
	if err == nil {
		t.Fatalf("expected an error decoding a corrupted stream")
	}
	if !errors.Is(err, modularerr.ErrMalformedStream) {
		t.Fatalf("expected ErrMalformedStream, got %v", err)
	}
}

func TestSelectChannelsPolicy(t *testing.T) {
	img := &channel.Image{
		NbMetaChannels: 1,
		Channels: []*channel.Channel{
			channel.NewChannel(2, 2),  // meta, always kept
			channel.NewChannel(0, 4),  // zero width, skipped
			channel.NewChannel(10, 4), // oversized data channel, stops iteration
			channel.NewChannel(3, 3),  // never reached
		},
	}
	opts := Options{MaxChanSize: 5}
	got := SelectChannels(img, opts)
	if len(got) != 1 || got[0] != 0 {
		t.Fatalf("SelectChannels = %v, want [0]", got)
	}
}

func TestTokenizeDetokenizeTreeRoundTrip(t *testing.T) {
	tr := tree.Tree{
		{Property: 5, SplitVal: 3, LChild: 1, RChild: 2},
		tree.Leaf(predictor.Left, 0, 1),
		tree.Leaf(predictor.Gradient, -2, 3),
	}
	stream := TokenizeTree(tr)
	got, err := DetokenizeTree(stream)
	if err != nil {
		t.Fatalf("DetokenizeTree: %v", err)
	}
	if len(got) != len(tr) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(tr))
	}
	for i := range tr {
		if got[i] != tr[i] {
			t.Fatalf("node %d: got %+v, want %+v", i, got[i], tr[i])
		}
	}
}

func TestUseGlobalTreeEndToEnd(t *testing.T) {
	img := singleChannelImage(4, 1, func(x, y int) int32 { return int32(x) })
	globalTree := tree.Tree{tree.Leaf(predictor.Left, 0, 1)}

	opts := DefaultOptions()
	enc, err := CompressWithGlobalTree(img, opts, 0, globalTree)
	if err != nil {
		t.Fatalf("CompressWithGlobalTree: %v", err)
	}
	if !enc.Header.UseGlobalTree {
		t.Fatalf("expected UseGlobalTree header")
	}
	if len(enc.Channels[0].Tree.ANS) != 0 {
		t.Fatalf("expected no per-channel tree serialized when using a global tree")
	}

	decoded := cloneEmptyLike(img)
	if err := Decompress(decoded, enc, opts, 0, globalTree); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	for x := 0; x < 4; x++ {
		if decoded.Channels[0].At(x, 0) != img.Channels[0].At(x, 0) {
			t.Fatalf("pixel %d: got %d, want %d", x, decoded.Channels[0].At(x, 0), img.Channels[0].At(x, 0))
		}
	}

	if err := Decompress(decoded, enc, opts, 0, nil); !errors.Is(err, modularerr.ErrMalformedStream) {
		t.Fatalf("expected ErrMalformedStream decoding a global-tree stream without a tree, got %v", err)
	}
}

func TestCompressRawRoundTrip(t *testing.T) {
	img := singleChannelImage(12, 12, func(x, y int) int32 { return int32((x ^ y) % 23) })
	opts := DefaultOptions()
	opts.Predictor = PredictorOption(predictor.Gradient)
	opts.NbRepeats = 1024
	opts.CompressRaw = true

	enc, err := Compress(img, opts, 0)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	decoded := cloneEmptyLike(img)
	if err := Decompress(decoded, enc, opts, 0, nil); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			if decoded.Channels[0].At(x, y) != img.Channels[0].At(x, y) {
				t.Fatalf("pixel (%d,%d): got %d, want %d", x, y, decoded.Channels[0].At(x, y), img.Channels[0].At(x, y))
			}
		}
	}
}

// A channel with w*h well above 1024 forces PixelFraction below 1, so
// GatherTreeData's learner only ever sees a subset of pixels. A leaf
// multiplier derived from that subset alone need not divide every
// non-sampled pixel's residual; refineMultipliers' full-channel pass
// is what keeps Compress from failing on pixels the learner never saw.
func TestPartialSamplingMultiplierRefinement(t *testing.T) {
	img := singleChannelImage(64, 64, func(x, y int) int32 {
		return int32((x*7+y*11)%251) * 2
	})
	opts := DefaultOptions()
	opts.Predictor = PredictorOption(predictor.Gradient)
	// default NbRepeats (1) with 64*64=4096 pixels: PixelFraction < 1.

	assertRoundTrip(t, img, opts)
}

func TestOptionsValidateRejectsConflictingForce(t *testing.T) {
	opts := DefaultOptions()
	opts.ForceWPOnly = true
	opts.ForceNoWP = true
	if err := opts.Validate(); err == nil {
		t.Fatalf("expected Validate to reject ForceWPOnly && ForceNoWP")
	}
}
