package predictor

import (
	"testing"

	"github.com/cocosip/go-modular-ma-ans/modular/channel"
)

func TestGradientMatchesSpecS3(t *testing.T) {
	nb := channel.Neighborhood{N: 10, W: 30, NW: 10}
	got := Predict(Gradient, nb)
	if got != 30 {
		t.Fatalf("Gradient = %d, want 30 (spec S3)", got)
	}
}

func TestWestWestReadsTwoSamplesLeft(t *testing.T) {
	nb := channel.Neighborhood{W: 30, WW: 12}
	got := Predict(WestWest, nb)
	if got != 12 {
		t.Fatalf("WestWest = %d, want 12 (distinct from W=30)", got)
	}
}

func TestWeightedPredictorDeterministic(t *testing.T) {
	hdr := DefaultHeader()
	s1 := NewState(4, hdr)
	s2 := NewState(4, hdr)

	seq := []channel.Neighborhood{
		{N: 5, W: 5, NW: 5, NE: 6, NN: 5},
		{N: 6, W: 7, NW: 5, NE: 8, NN: 6},
		{N: 8, W: 7, NW: 6, NE: 9, NN: 8},
	}
	samples := []int32{5, 7, 8}

	for i, nb := range seq {
		g1, p1 := s1.Predict(i%4, nb)
		g2, p2 := s2.Predict(i%4, nb)
		if g1 != g2 || p1 != p2 {
			t.Fatalf("step %d: mismatch (%d,%d) vs (%d,%d)", i, g1, p1, g2, p2)
		}
		s1.UpdateErrors(samples[i], i%4)
		s2.UpdateErrors(samples[i], i%4)
	}
}
