package automl

import (
	"context"
	"math"
	"math/rand/v2"
)

// DRFParams configures a distributed-random-forest style bagged ensemble.
type DRFParams struct {
	NTrees   int
	MaxDepth int
	MinRows  int
	MTries   int // features per split; 0 picks sqrt(features)
}

func trainDRF(ctx context.Context, x [][]float64, y []float64, p DRFParams, seed uint64) (Predictor, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0xbf58476d1ce4e5b9))

	numFeatures := len(x[0])
	mtries := p.MTries
	if mtries <= 0 {
		mtries = int(math.Max(1, math.Floor(math.Sqrt(float64(numFeatures)))))
	}

	model := &EnsembleModel{
		Algo:     DRF,
		Link:     LinkIdentity,
		Scale:    1 / float64(p.NTrees),
		Features: numFeatures,
	}

	leaf := func(rows []int) float64 {
		var sum float64
		for _, r := range rows {
			sum += y[r]
		}
		return sum / float64(len(rows))
	}

	cfg := treeConfig{maxDepth: p.MaxDepth, minRows: p.MinRows, mtries: mtries}
	for t := 0; t < p.NTrees; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows := make([]int, len(y))
		for i := range rows {
			rows[i] = rng.IntN(len(y))
		}
		model.Trees = append(model.Trees, buildTree(x, y, rows, cfg, rng, leaf))
	}

	return model, nil
}
