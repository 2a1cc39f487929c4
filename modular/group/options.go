// Package group implements the top-level orchestration of the modular
// channel coder: group headers, tree (de)tokenization, channel
// iteration policy, and ModularGenericCompress/Decompress (spec
// sections 4.9 and 6).
package group

import (
	"fmt"

	"github.com/cocosip/go-modular-ma-ans/modular/predictor"
)

// PredictorOption selects the predictor candidate set a channel is
// trained over (spec section 6.4). Non-negative values name a single
// fixed predictor.Predictor; the two sentinels below reproduce the
// "Variable"/"Best" keywords.
type PredictorOption int32

const (
	// PredictorVariable trains over every registered predictor.
	PredictorVariable PredictorOption = -1
	// PredictorBest restricts training to {Gradient, Weighted}.
	PredictorBest PredictorOption = -2
)

// Candidates returns the concrete predictor list this option names.
func (o PredictorOption) Candidates() []predictor.Predictor {
	switch o {
	case PredictorVariable:
		cands := make([]predictor.Predictor, predictor.NumPredictors())
		for i := range cands {
			cands[i] = predictor.Predictor(i)
		}
		return cands
	case PredictorBest:
		return []predictor.Predictor{predictor.Gradient, predictor.Weighted}
	default:
		return []predictor.Predictor{predictor.Predictor(o)}
	}
}

// Options recognizes the keys of spec section 6.4.
type Options struct {
	Predictor PredictorOption
	WPHeader  predictor.Header

	NbRepeats    float64
	MaxChanSize  int
	SkipChannels int

	SplittingHeuristicsMaxProperties int
	SplittingHeuristicsNodeThreshold float64
	FastDecodeMultiplier             float64

	ForceWPOnly bool
	ForceNoWP   bool
	Identify    bool

	// WantDebug stamps a DebugID on the group header, mirroring aux_out
	// (spec section 6.2).
	WantDebug bool

	// CompressRaw runs the hybrid-uint extra-bit side channel through a
	// zstd pass before it leaves the encoder (and reverses it on the
	// way in); the per-symbol rANS coder never models these bits, so a
	// channel with wide, repetitive extra-bit runs can still shrink.
	CompressRaw bool

	// FastPathHook, when set, is called once per channel by Compress and
	// once per channel by Decompress with the name of the fast path
	// actually taken ("wp_only", "single_leaf", "general"; Decompress
	// may also report "constant"); used by tests to verify fast-path
	// selection (spec section 8, scenario S4).
	FastPathHook func(chanIdx int, path string)
}

// DefaultOptions returns reasonable, always-valid options.
func DefaultOptions() Options {
	return Options{
		Predictor:                        PredictorVariable,
		WPHeader:                         predictor.DefaultHeader(),
		NbRepeats:                        1,
		MaxChanSize:                      0, // 0 = unbounded
		SplittingHeuristicsMaxProperties: 8,
		SplittingHeuristicsNodeThreshold: 16,
		FastDecodeMultiplier:             1,
	}
}

// Validate checks opts for internal consistency, mirroring
// codec.BaseOptions.Validate's shape in this pack's teacher.
func (o Options) Validate() error {
	if o.NbRepeats < 0 {
		return fmt.Errorf("group: NbRepeats must be >= 0, got %v", o.NbRepeats)
	}
	if o.MaxChanSize < 0 {
		return fmt.Errorf("group: MaxChanSize must be >= 0, got %d", o.MaxChanSize)
	}
	if o.SkipChannels < 0 {
		return fmt.Errorf("group: SkipChannels must be >= 0, got %d", o.SkipChannels)
	}
	if o.ForceWPOnly && o.ForceNoWP {
		return fmt.Errorf("group: ForceWPOnly and ForceNoWP are mutually exclusive")
	}
	return nil
}
