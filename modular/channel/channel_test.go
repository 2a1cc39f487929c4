package channel

import "testing"

func buildS3() *Channel {
	c := NewChannel(2, 2)
	c.Set(0, 0, 10)
	c.Set(1, 0, 20)
	c.Set(0, 1, 30)
	c.Set(1, 1, 45)
	return c
}

func TestComputeNeighborhoodCorners(t *testing.T) {
	c := buildS3()

	nb := ComputeNeighborhood(c, 0, 0)
	if nb.W != 0 || nb.N != 0 || nb.NW != 0 || nb.NE != 0 || nb.NN != 0 {
		t.Fatalf("origin neighborhood = %+v", nb)
	}

	nb = ComputeNeighborhood(c, 1, 1)
	if nb.N != 20 || nb.W != 30 || nb.NW != 10 {
		t.Fatalf("(1,1) neighborhood = %+v, want N=20 W=30 NW=10", nb)
	}
	if nb.WW != nb.W {
		t.Fatalf("(1,1) WW = %d, want fallback to W=%d (x=1 has no x-2 sample)", nb.WW, nb.W)
	}
}

func TestComputeNeighborhoodWW(t *testing.T) {
	c := NewChannel(4, 1)
	c.Set(0, 0, 1)
	c.Set(1, 0, 2)
	c.Set(2, 0, 3)
	c.Set(3, 0, 4)

	nb := ComputeNeighborhood(c, 2, 0)
	if nb.W != 2 || nb.WW != 1 {
		t.Fatalf("(2,0) W=%d WW=%d, want W=2 WW=1", nb.W, nb.WW)
	}
}

func TestPrecomputeReferencesSkipsIncompatible(t *testing.T) {
	img := &Image{Channels: []*Channel{NewChannel(4, 4), NewChannel(2, 2), NewChannel(4, 4)}}
	refs := PrecomputeReferences(img, 2, nil)
	if len(refs) != 1 || refs[0].Channel != img.Channels[0] {
		t.Fatalf("refs = %+v, want only channel 0", refs)
	}
}
