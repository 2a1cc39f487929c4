package pixel

import "testing"

func TestPackUnpackSigned(t *testing.T) {
	cases := []int32{0, 1, -1, 2, -2, 100, -100, 1 << 20, -(1 << 20)}
	for _, v := range cases {
		got := UnpackSigned(PackSigned(v))
		if got != v {
			t.Fatalf("roundtrip(%d) = %d", v, got)
		}
	}
}

func TestPackSignedOrdering(t *testing.T) {
	want := []uint32{0, 1, 2, 3, 4}
	in := []int32{0, -1, 1, -2, 2}
	for i, v := range in {
		if got := PackSigned(v); got != want[i] {
			t.Fatalf("PackSigned(%d) = %d, want %d", v, got, want[i])
		}
	}
}

func TestSaturateToSample(t *testing.T) {
	if got := SaturateToSample(MaxSample + 10); got != Sample(MaxSample) {
		t.Fatalf("overflow clamp = %d", got)
	}
	if got := SaturateToSample(MinSample - 10); got != Sample(MinSample) {
		t.Fatalf("underflow clamp = %d", got)
	}
	if got := SaturateToSample(42); got != 42 {
		t.Fatalf("identity clamp = %d", got)
	}
}
