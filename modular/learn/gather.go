package learn

import (
	"github.com/cocosip/go-modular-ma-ans/modular/channel"
	"github.com/cocosip/go-modular-ma-ans/modular/predictor"
	"github.com/cocosip/go-modular-ma-ans/modular/props"
)

// TrainingData is the column-major sample arena the learner consumes:
// Props[propIdx][sampleIdx] and Residuals[predictorIdx][sampleIdx],
// matching spec section 9's "arena+index" note.
type TrainingData struct {
	Props      [][]int32
	Residuals  [][]int64
	NumSamples int
	NumProps   int
}

// GatherTreeData walks channel chanIdx of img in raster order,
// computing the full property vector and one residual per candidate
// predictor at each pixel, and keeps a pixel with probability
// PixelFraction(nbRepeats, w*h) via the Xorshift128+ sampler (spec
// section 4.8). wpHdr seeds the weighted-predictor state used both for
// the WP property and, when Weighted is among candidates, its
// residual.
func GatherTreeData(img *channel.Image, chanIdx int, candidates []predictor.Predictor, wpHdr predictor.Header, nbRepeats float64, groupID int32) TrainingData {
	cur := img.Channels[chanIdx]
	refs := channel.PrecomputeReferences(img, chanIdx, nil)
	numProps := props.NumProps(len(refs))

	data := TrainingData{NumProps: numProps}
	data.Props = make([][]int32, numProps)
	data.Residuals = make([][]int64, len(candidates))

	wp := predictor.NewState(cur.W, wpHdr)
	rng := NewXorshift128Plus()
	fraction := PixelFraction(nbRepeats, cur.W*cur.H)

	vec := make([]int32, numProps)
	for y := 0; y < cur.H; y++ {
		for x := 0; x < cur.W; x++ {
			nb := channel.ComputeNeighborhood(cur, x, y)
			_, wpProp := wp.Predict(x, nb)
			props.Build(vec, int32(chanIdx), groupID, nb, wpProp, refs, x, y)

			keep := rng.Include(fraction)
			sample := cur.At(x, y)
			if keep {
				for i, p := range vec {
					data.Props[i] = append(data.Props[i], p)
				}
				for ci, cand := range candidates {
					guess := predictGuess(cand, wp, x, nb)
					data.Residuals[ci] = append(data.Residuals[ci], int64(sample)-int64(guess))
				}
				data.NumSamples++
			}
			wp.UpdateErrors(sample, x)
		}
	}
	return data
}

func predictGuess(p predictor.Predictor, wp *predictor.State, x int, nb channel.Neighborhood) int64 {
	if p == predictor.Weighted {
		g, _ := wp.Predict(x, nb)
		return int64(g)
	}
	return int64(predictor.Predict(p, nb))
}
