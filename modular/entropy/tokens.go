package entropy

import "github.com/cocosip/go-modular-ma-ans/modular/modularerr"

// Token is one (context, value) emission: the clustered context id
// selects a leaf's entropy distribution and value is the zigzag-packed
// residual (spec section 6.2 glossary: "Context id").
type Token struct {
	Context int32
	Value   uint32
}

// Writer gathers tokens for a channel/group, then builds per-context
// histograms and serializes the bucket/extra-bit streams. This is the
// concrete encoder side of the consumed ANSSymbolReader surface (spec
// section 6.1): token emission, BuildAndEncodeHistograms, WriteTokens.
type Writer struct {
	numContexts int
	tokens      []Token
	raw         *BitWriter
}

// NewWriter allocates a token writer for a stream with numContexts
// distinct clustered context ids.
func NewWriter(numContexts int) *Writer {
	return &Writer{numContexts: numContexts, raw: NewBitWriter()}
}

// EmitToken records one token and immediately writes its hybrid-uint
// extra bits to the raw-bit stream (only the small coded bucket symbol
// waits for the histogram/ANS pass).
func (w *Writer) EmitToken(ctx int32, value uint32) {
	bucket, extraBits, extraValue := splitHybridUint(value)
	if extraBits > 0 {
		w.raw.WriteBits(extraValue, extraBits)
	}
	w.tokens = append(w.tokens, Token{Context: ctx, Value: value})
	_ = bucket
}

// IsSingleValue reports whether context ctx was only ever emitted with
// one distinct value across the whole gathered token list, and if so
// returns that value. This is an encoder-side query over the gathered
// tokens; the decoder's constant fast path instead inspects the
// serialized histogram via Histogram.SingleDirectValue.
func (w *Writer) IsSingleValue(ctx int32) (value uint32, count int, ok bool) {
	ok = true
	seen := false
	for _, t := range w.tokens {
		if t.Context != ctx {
			continue
		}
		count++
		if !seen {
			value = t.Value
			seen = true
		} else if t.Value != value {
			ok = false
		}
	}
	return value, count, ok && count > 0
}

// EncodedStream is the fully serialized, self-contained output of
// BuildAndEncodeHistograms + WriteTokens.
type EncodedStream struct {
	Histograms    []Histogram
	ANS           []byte
	Raw           []byte
	RawCompressed bool
}

// BuildAndEncodeHistograms builds a normalized Histogram per context
// from the gathered tokens' bucket distribution.
func (w *Writer) BuildAndEncodeHistograms() []Histogram {
	counts := make([][]int, w.numContexts)
	for i := range counts {
		counts[i] = make([]int, NumBuckets)
	}
	for _, t := range w.tokens {
		bucket, _, _ := splitHybridUint(t.Value)
		counts[t.Context][bucket]++
	}
	hist := make([]Histogram, w.numContexts)
	for i := range hist {
		hist[i] = BuildHistogram(counts[i])
	}
	return hist
}

// WriteTokens ANS-encodes the gathered tokens (in chronological-
// reverse order internally) against hist and returns the full encoded
// stream, ready for a decoder to replay forward.
func (w *Writer) WriteTokens(hist []Histogram) EncodedStream {
	enc := newRansEncoder()
	for i := len(w.tokens) - 1; i >= 0; i-- {
		t := w.tokens[i]
		bucket, _, _ := splitHybridUint(t.Value)
		enc.putSymbol(hist[t.Context], bucket)
	}
	return EncodedStream{Histograms: hist, ANS: enc.finish(), Raw: w.raw.Bytes()}
}

// WriteTokensCompressed is WriteTokens followed by an optional zstd
// pass over the raw extra-bit channel (options.CompressRaw at the
// group layer), for images whose extra bits are large and repetitive
// enough that a general-purpose compressor beats leaving them raw.
func (w *Writer) WriteTokensCompressed(hist []Histogram) (EncodedStream, error) {
	stream := w.WriteTokens(hist)
	compressed, err := CompressRawBytes(stream.Raw)
	if err != nil {
		return EncodedStream{}, err
	}
	if compressed != nil {
		stream.Raw = compressed
		stream.RawCompressed = true
	}
	return stream, nil
}

// Reset clears gathered tokens and raw bits, keeping numContexts, so a
// Writer can be reused across channels within the same group.
func (w *Writer) Reset() {
	w.tokens = w.tokens[:0]
	w.raw = NewBitWriter()
}

// Reader is the decode-side ANSSymbolReader: it pulls one bucket
// symbol at a time from the shared rANS state (selecting the
// per-context histogram each call) and reassembles the hybrid-uint
// value from any trailing raw bits.
type Reader struct {
	hist []Histogram
	ans  *ransDecoder
	raw  *BitReader
}

// NewReader constructs a decoder over a previously written
// EncodedStream.
func NewReader(stream EncodedStream) (*Reader, error) {
	if len(stream.ANS) < 4 {
		return nil, modularerr.ErrMalformedStream
	}
	raw := stream.Raw
	if stream.RawCompressed {
		decompressed, err := DecompressRawBytes(raw)
		if err != nil {
			return nil, err
		}
		raw = decompressed
	}
	return &Reader{
		hist: stream.Histograms,
		ans:  newRansDecoder(stream.ANS),
		raw:  NewBitReader(raw),
	}, nil
}

// ReadHybridUintClustered reads the next token for clustered context
// ctx and returns its reconstructed value.
func (r *Reader) ReadHybridUintClustered(ctx int32) (uint32, error) {
	if int(ctx) >= len(r.hist) {
		return 0, modularerr.ErrMalformedStream
	}
	bucket := r.ans.getSymbol(r.hist[ctx])
	extraBits := extraBitsForBucket(bucket)
	var extra uint32
	if extraBits > 0 {
		extra = r.raw.ReadBits(extraBits)
	}
	return joinHybridUint(bucket, extra), nil
}

// CheckANSFinalState reports whether the ANS stream was consumed down
// to exactly the encoder's initial state, the integrity check spec
// section 6.1 requires before trusting a decoded channel.
func (r *Reader) CheckANSFinalState() bool {
	return r.ans.atInitialState()
}
