package automl

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAUC(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		y      []float64
		want   float64
	}{
		{name: "perfect", scores: []float64{0.1, 0.2, 0.8, 0.9}, y: []float64{0, 0, 1, 1}, want: 1},
		{name: "inverted", scores: []float64{0.9, 0.8, 0.2, 0.1}, y: []float64{0, 0, 1, 1}, want: 0},
		{name: "all tied", scores: []float64{0.5, 0.5, 0.5, 0.5}, y: []float64{0, 1, 0, 1}, want: 0.5},
		{name: "one misordered pair", scores: []float64{0.1, 0.6, 0.5, 0.9}, y: []float64{0, 0, 1, 1}, want: 0.75},
		{name: "single class", scores: []float64{0.1, 0.9}, y: []float64{1, 1}, want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AUC(tt.scores, tt.y), 1e-12)
		})
	}
}

func TestLogLoss(t *testing.T) {
	got := LogLoss([]float64{0.9, 0.2}, []float64{1, 0})
	want := -(math.Log(0.9) + math.Log(0.8)) / 2
	assert.InDelta(t, want, got, 1e-12)

	assert.False(t, math.IsInf(LogLoss([]float64{0}, []float64{1}), 0), "probabilities are clamped")
	assert.InDelta(t, 0.0, LogLoss(nil, nil), 0)
}

func TestBestF1Threshold(t *testing.T) {
	probs := []float64{0.95, 0.85, 0.7, 0.4, 0.3, 0.1}
	y := []float64{1, 1, 0, 1, 0, 0}

	threshold, f1 := BestF1Threshold(probs, y)
	// >= 0.85: tp=2 fp=0 fn=1 → 0.8; >= 0.4: tp=3 fp=1 fn=0 → 6/7
	assert.InDelta(t, 0.4, threshold, 1e-12)
	assert.InDelta(t, 6.0/7.0, f1, 1e-12)

	threshold, f1 = BestF1Threshold([]float64{0.2, 0.3}, []float64{0, 0})
	assert.InDelta(t, 0.5, threshold, 0)
	assert.InDelta(t, 0.0, f1, 0)
}
