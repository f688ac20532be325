package automl

import (
	"math/rand/v2"
)

// syntheticData returns n rows of (length, entropy) where positives are long,
// high-entropy names and negatives short, low-entropy ones, with overlap.
func syntheticData(n int, seed uint64) Data {
	rng := rand.New(rand.NewPCG(seed, seed))
	d := Data{X: make([][]float64, n), Y: make([]float64, n)}
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			d.X[i] = []float64{18 + 3*rng.NormFloat64(), 3.5 + 0.25*rng.NormFloat64()}
			d.Y[i] = 1
		} else {
			d.X[i] = []float64{11 + 2.5*rng.NormFloat64(), 2.8 + 0.3*rng.NormFloat64()}
		}
	}
	return d
}
