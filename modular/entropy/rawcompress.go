package entropy

import (
	"github.com/cocosip/go-modular-ma-ans/modular/modularerr"
	"github.com/klauspost/compress/zstd"
)

// CompressRawBytes zstd-compresses the hybrid-uint extra-bit side
// channel that the rANS core leaves unmodeled. Grounded on
// svanichkin-babe's use of github.com/klauspost/compress/zstd
// (NewWriter/EncodeAll); nil input returns a nil, unflagged result so
// channels with no extra bits never pay the zstd frame overhead.
func CompressRawBytes(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithEncoderConcurrency(1),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

// DecompressRawBytes reverses CompressRawBytes. A corrupted frame is
// reported as ErrMalformedStream rather than the raw zstd error, so
// callers can treat it the same as any other stream-integrity failure.
func DecompressRawBytes(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, modularerr.ErrMalformedStream
	}
	return out, nil
}
