package entropy

import "testing"

func TestHybridUintRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 15, 16, 17, 31, 32, 1000, 1 << 20, 0xFFFFFFFF}
	for _, v := range values {
		bucket, extraBits, extra := splitHybridUint(v)
		got := joinHybridUint(bucket, extra)
		if got != v {
			t.Fatalf("splitHybridUint/joinHybridUint roundtrip(%d) = %d (bucket=%d extraBits=%d)", v, got, bucket, extraBits)
		}
	}
}

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter(2)
	seq := []Token{
		{Context: 0, Value: 0},
		{Context: 1, Value: 1000},
		{Context: 0, Value: 5},
		{Context: 1, Value: 7},
		{Context: 0, Value: 5},
		{Context: 0, Value: 70000},
	}
	for _, tok := range seq {
		w.EmitToken(tok.Context, tok.Value)
	}
	hist := w.BuildAndEncodeHistograms()
	stream := w.WriteTokens(hist)

	r, err := NewReader(stream)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	for i, tok := range seq {
		got, err := r.ReadHybridUintClustered(tok.Context)
		if err != nil {
			t.Fatalf("token %d: %v", i, err)
		}
		if got != tok.Value {
			t.Fatalf("token %d: got %d, want %d", i, got, tok.Value)
		}
	}
	if !r.CheckANSFinalState() {
		t.Fatalf("expected ANS stream fully consumed")
	}
}

func TestIsSingleValue(t *testing.T) {
	w := NewWriter(1)
	w.EmitToken(0, 9)
	w.EmitToken(0, 9)
	w.EmitToken(0, 9)
	if v, n, ok := w.IsSingleValue(0); !ok || v != 9 || n != 3 {
		t.Fatalf("IsSingleValue = (%d,%d,%v), want (9,3,true)", v, n, ok)
	}
	w.EmitToken(0, 10)
	if _, _, ok := w.IsSingleValue(0); ok {
		t.Fatalf("expected IsSingleValue false after a differing token")
	}
}
