package group

import (
	"github.com/cocosip/go-modular-ma-ans/modular/channel"
	"github.com/cocosip/go-modular-ma-ans/modular/entropy"
	"github.com/cocosip/go-modular-ma-ans/modular/learn"
	"github.com/cocosip/go-modular-ma-ans/modular/modularerr"
	"github.com/cocosip/go-modular-ma-ans/modular/predictor"
	"github.com/cocosip/go-modular-ma-ans/modular/props"
	"github.com/cocosip/go-modular-ma-ans/modular/tree"
)

// ChannelStream is one channel's encoded output within a group. Tree
// is populated unless the group header says UseGlobalTree.
type ChannelStream struct {
	ChanIndex int
	Tree      entropy.EncodedStream
	Tokens    entropy.EncodedStream
}

// Encoded is the full, self-contained output of Compress/
// CompressWithGlobalTree: a group header plus one stream per selected
// channel (spec section 6.2).
type Encoded struct {
	Header   GroupHeader
	Channels []ChannelStream
}

// Compress implements the self-contained branch of
// ModularGenericCompress (spec section 6.2: tree=nullopt,
// props=nullopt): each selected channel gathers its own training
// data, learns its own tree (still conditioned on the channel-index
// static property, so a future global-tree design can specialize the
// same way), and serializes both the tree and the residual tokens.
func Compress(image *channel.Image, opts Options, groupID int32) (Encoded, error) {
	if err := opts.Validate(); err != nil {
		return Encoded{}, err
	}
	if image.Error {
		return Encoded{}, modularerr.ErrInvalidImage
	}

	header := newGroupHeader(opts, false)
	chans := SelectChannels(image, opts)

	channels := make([]ChannelStream, 0, len(chans))
	for _, ci := range chans {
		logicalTree, err := learnChannelTree(image, ci, groupID, opts)
		if err != nil {
			return Encoded{}, err
		}
		tokens, err := encodeChannel(image, ci, groupID, logicalTree, header.WPHeader, opts)
		if err != nil {
			return Encoded{}, err
		}
		channels = append(channels, ChannelStream{
			ChanIndex: ci,
			Tree:      TokenizeTree(logicalTree),
			Tokens:    tokens,
		})
	}
	return Encoded{Header: header, Channels: channels}, nil
}

// CompressWithGlobalTree implements the tree!=nullopt branch: the
// caller supplies one tree shared by every selected channel, and the
// per-group stream omits the serialized tree (ChannelStream.Tree stays
// empty); each channel's token stream still carries its own residual
// histograms (spec
// section 4.9's use_global_tree, resolved per the open question in
// section 9 to "make it actually work").
func CompressWithGlobalTree(image *channel.Image, opts Options, groupID int32, globalTree tree.Tree) (Encoded, error) {
	if err := opts.Validate(); err != nil {
		return Encoded{}, err
	}
	if image.Error {
		return Encoded{}, modularerr.ErrInvalidImage
	}
	if len(globalTree) == 0 {
		return Encoded{}, modularerr.ErrLogicError
	}

	header := newGroupHeader(opts, true)
	chans := SelectChannels(image, opts)

	channels := make([]ChannelStream, 0, len(chans))
	for _, ci := range chans {
		tokens, err := encodeChannel(image, ci, groupID, globalTree, header.WPHeader, opts)
		if err != nil {
			return Encoded{}, err
		}
		channels = append(channels, ChannelStream{ChanIndex: ci, Tokens: tokens})
	}
	return Encoded{Header: header, Channels: channels}, nil
}

// GatherGroupTrainingData implements the props!=nullopt, tree=nullopt
// branch: gather-only, with no tree built and no tokens written.
func GatherGroupTrainingData(image *channel.Image, opts Options, groupID int32) (map[int]learn.TrainingData, []predictor.Predictor, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}
	if image.Error {
		return nil, nil, modularerr.ErrInvalidImage
	}
	cands := opts.Predictor.Candidates()
	chans := SelectChannels(image, opts)

	out := make(map[int]learn.TrainingData, len(chans))
	for _, ci := range chans {
		out[ci] = learn.GatherTreeData(image, ci, cands, opts.WPHeader, opts.NbRepeats, groupID)
	}
	return out, cands, nil
}

func learnChannelTree(image *channel.Image, chanIdx int, groupID int32, opts Options) (tree.Tree, error) {
	cands := opts.Predictor.Candidates()
	data := learn.GatherTreeData(image, chanIdx, cands, opts.WPHeader, opts.NbRepeats, groupID)

	lopts := learn.DefaultOptions()
	if opts.SplittingHeuristicsMaxProperties > 0 {
		lopts.MaxProperties = opts.SplittingHeuristicsMaxProperties
	}
	if opts.SplittingHeuristicsNodeThreshold > 0 {
		lopts.NodeThreshold = opts.SplittingHeuristicsNodeThreshold
	}
	lopts.ForceWPOnly = opts.ForceWPOnly
	lopts.ForceNoWP = opts.ForceNoWP

	tr, err := learn.LearnTree(cands, data, lopts)
	if err != nil {
		return nil, err
	}
	// LearnTree only ever assigns multiplier 1 (safe under partial
	// sampling); refine it against every pixel of the channel, using
	// the exact same flattened dispatch encodeChannel will use, before
	// encoding with it.
	return refineMultipliers(image, chanIdx, groupID, tr, opts), nil
}

// encodeChannel runs the appropriate fast path (spec sections 4.4-4.6)
// over channel chanIdx and returns its encoded residual-token stream.
func encodeChannel(image *channel.Image, chanIdx int, groupID int32, logicalTree tree.Tree, wpHdr predictor.Header, opts Options) (entropy.EncodedStream, error) {
	cur := image.Channels[chanIdx]
	refs := channel.PrecomputeReferences(image, chanIdx, nil)
	staticProps := []int32{int32(chanIdx), groupID}
	flat := tree.FilterTree(logicalTree, staticProps)

	numContexts := flatNumContexts(flat)
	w := entropy.NewWriter(numContexts)
	wp := predictor.NewState(cur.W, wpHdr)

	var err error
	switch {
	case flat.WPOnly:
		reportFastPath(opts, chanIdx, "wp_only")
		err = encodeWPOnly(w, cur, wp, flat)
	default:
		if leaf, ok := tree.SingleLeaf(flat); ok {
			reportFastPath(opts, chanIdx, "single_leaf")
			err = encodeSingleLeaf(w, cur, wp, leaf)
		} else {
			reportFastPath(opts, chanIdx, "general")
			err = encodeGeneral(w, chanIdx, groupID, cur, refs, wp, flat)
		}
	}
	if err != nil {
		return entropy.EncodedStream{}, err
	}

	hist := w.BuildAndEncodeHistograms()
	if opts.CompressRaw {
		return w.WriteTokensCompressed(hist)
	}
	return w.WriteTokens(hist), nil
}

// flatNumContexts returns one past the largest leaf context id a flat
// tree assigns (a leaf's context id is its BFS queue position, so ids
// are not dense: decision-node positions are never used as contexts).
func flatNumContexts(flat tree.FlatTree) int {
	max := int32(-1)
	for _, n := range flat.Nodes {
		if n.IsLeaf() && n.ChildID > max {
			max = n.ChildID
		}
	}
	return int(max) + 1
}

func encodeWPOnly(w *entropy.Writer, cur *channel.Channel, wp *predictor.State, flat tree.FlatTree) error {
	table := tree.BuildWPTable(flat)
	for y := 0; y < cur.H; y++ {
		for x := 0; x < cur.W; x++ {
			nb := channel.ComputeNeighborhood(cur, x, y)
			guess, wpProp := wp.Predict(x, nb)
			ctx, mult, offset := table.Lookup(tree.ClampWPProp(wpProp))
			sample := cur.At(x, y)
			if err := emitResidual(w, ctx, int64(sample), int64(guess), offset, mult); err != nil {
				return err
			}
			wp.UpdateErrors(sample, x)
		}
	}
	return nil
}

func encodeSingleLeaf(w *entropy.Writer, cur *channel.Channel, wp *predictor.State, leaf tree.FlatNode) error {
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
			if err := emitResidual(w, leaf.ChildID, int64(sample), guess, leaf.PredictorOffset, leaf.Multiplier); err != nil {
				return err
			}
			if useWP {
				wp.UpdateErrors(sample, x)
			}
		}
	}
	return nil
}

func encodeGeneral(w *entropy.Writer, chanIdx int, groupID int32, cur *channel.Channel, refs []channel.Reference, wp *predictor.State, flat tree.FlatTree) error {
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

			sample := cur.At(x, y)
			if err := emitResidual(w, ctx, int64(sample), guess, offset, mult); err != nil {
				return err
			}
			if useWP {
				wp.UpdateErrors(sample, x)
			}
		}
	}
	return nil
}
