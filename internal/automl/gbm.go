package automl

import (
	"context"
	"math"
	"math/rand/v2"
)

// GBMParams configures gradient boosting on the binomial log-loss.
type GBMParams struct {
	NTrees     int
	MaxDepth   int
	MinRows    int
	LearnRate  float64
	SampleRate float64 // row subsampling per tree; 1 uses every row
}

// maxLeafStep caps a single Newton step in log-odds.
const maxLeafStep = 10.0

func trainGBM(ctx context.Context, x [][]float64, y []float64, p GBMParams, seed uint64) (Predictor, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	if p.SampleRate <= 0 {
		p.SampleRate = 1
	}

	var positives float64
	for _, v := range y {
		positives += v
	}
	init := logit(positives / float64(len(y)))

	margin := make([]float64, len(y))
	for i := range margin {
		margin[i] = init
	}
	grad := make([]float64, len(y))
	hess := make([]float64, len(y))

	model := &EnsembleModel{
		Algo:     GBM,
		Link:     LinkLogit,
		Init:     init,
		Scale:    1,
		Features: len(x[0]),
	}

	leaf := func(rows []int) float64 {
		var g, h float64
		for _, r := range rows {
			g += grad[r]
			h += hess[r]
		}
		step := g / math.Max(h, 1e-12)
		return p.LearnRate * clamp(step, -maxLeafStep, maxLeafStep)
	}

	cfg := treeConfig{maxDepth: p.MaxDepth, minRows: p.MinRows}
	for t := 0; t < p.NTrees; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for i := range y {
			prob := sigmoid(margin[i])
			grad[i] = y[i] - prob
			hess[i] = prob * (1 - prob)
		}

		tree := buildTree(x, grad, sampleRows(rng, len(y), p.SampleRate), cfg, rng, leaf)
		model.Trees = append(model.Trees, tree)

		for i := range margin {
			margin[i] += tree.Predict(x[i])
		}
	}

	return model, nil
}

// sampleRows draws rows without replacement at the given rate.
func sampleRows(rng *rand.Rand, n int, rate float64) []int {
	rows := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if rate >= 1 || rng.Float64() < rate {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		rows = append(rows, rng.IntN(n))
	}
	return rows
}
