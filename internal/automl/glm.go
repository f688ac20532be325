package automl

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// GLMParams configures L2-regularized logistic regression.
type GLMParams struct {
	Lambda  float64
	MaxIter int
}

// LinearModel is a logistic regression on raw feature values. Means are the
// training feature means, the baseline of the linear attributions.
type LinearModel struct {
	Weights   []float64 `json:"weights"`
	Means     []float64 `json:"means"`
	Intercept float64   `json:"intercept"`
}

// Algorithm implements Predictor.
func (l *LinearModel) Algorithm() Algorithm { return GLM }

// NumFeatures implements Predictor.
func (l *LinearModel) NumFeatures() int { return len(l.Weights) }

// Params implements Predictor.
func (l *LinearModel) Params() Params { return Params{Linear: l} }

// Margin implements Predictor.
func (l *LinearModel) Margin(x []float64) float64 {
	z := l.Intercept
	for i, w := range l.Weights {
		z += w * x[i]
	}
	return z
}

// Probability implements Predictor.
func (l *LinearModel) Probability(x []float64) float64 {
	return sigmoid(l.Margin(x))
}

// Contributions implements Predictor. For a linear margin with independent
// features the Shapley value of feature i is w_i * (x_i - mean_i).
func (l *LinearModel) Contributions(x []float64) ([]float64, float64) {
	phi := make([]float64, len(l.Weights))
	bias := l.Intercept
	for i, w := range l.Weights {
		phi[i] = w * (x[i] - l.Means[i])
		bias += w * l.Means[i]
	}
	return phi, bias
}

func (l *LinearModel) validate() error {
	if len(l.Weights) == 0 {
		return fmt.Errorf("linear model has no weights")
	}
	if len(l.Means) != len(l.Weights) {
		return fmt.Errorf("linear model has %d means for %d weights", len(l.Means), len(l.Weights))
	}
	return nil
}

var errSingularSystem = errors.New("singular system")

// trainGLM fits the model with Newton-Raphson on standardized features and
// folds the scaling back into the weights.
func trainGLM(ctx context.Context, x [][]float64, y []float64, p GLMParams) (Predictor, error) {
	n, m := len(x), len(x[0])
	if p.MaxIter <= 0 {
		p.MaxIter = 50
	}
	lambda := math.Max(p.Lambda, 1e-6)

	means := make([]float64, m)
	stds := make([]float64, m)
	for _, row := range x {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(n)
	}
	for _, row := range x {
		for j, v := range row {
			d := v - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / float64(n))
		if stds[j] == 0 {
			stds[j] = 1
		}
	}

	z := make([][]float64, n)
	for i, row := range x {
		z[i] = make([]float64, m+1)
		z[i][0] = 1
		for j, v := range row {
			z[i][j+1] = (v - means[j]) / stds[j]
		}
	}

	beta := make([]float64, m+1)
	for iter := 0; iter < p.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		grad := make([]float64, m+1)
		hess := make([][]float64, m+1)
		for a := range hess {
			hess[a] = make([]float64, m+1)
		}

		for i, row := range z {
			var eta float64
			for a, v := range row {
				eta += beta[a] * v
			}
			prob := sigmoid(eta)
			w := math.Max(prob*(1-prob), 1e-10)
			r := y[i] - prob
			for a, va := range row {
				grad[a] += r * va
				for b, vb := range row {
					hess[a][b] += w * va * vb
				}
			}
		}

		// intercept is not penalized
		for a := 1; a <= m; a++ {
			grad[a] -= float64(n) * lambda * beta[a]
			hess[a][a] += float64(n) * lambda
		}

		step, err := solve(hess, grad)
		if err != nil {
			return nil, fmt.Errorf("GLM iteration %d: %w", iter, err)
		}

		var maxStep float64
		for a := range beta {
			beta[a] += step[a]
			maxStep = math.Max(maxStep, math.Abs(step[a]))
		}
		if maxStep < 1e-8 {
			break
		}
	}

	model := &LinearModel{
		Weights:   make([]float64, m),
		Means:     means,
		Intercept: beta[0],
	}
	for j := 0; j < m; j++ {
		model.Weights[j] = beta[j+1] / stds[j]
		model.Intercept -= model.Weights[j] * means[j]
	}
	if !finite(model.Intercept) {
		return nil, fmt.Errorf("GLM diverged")
	}
	for _, w := range model.Weights {
		if !finite(w) {
			return nil, fmt.Errorf("GLM diverged")
		}
	}

	return model, nil
}

// solve solves a*x = b by Gaussian elimination with partial pivoting. a and b
// are overwritten.
func solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-14 {
			return nil, errSingularSystem
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			f := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= f * a[col][k]
			}
			b[row] -= f * b[col]
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * x[k]
		}
		x[row] = sum / a[row][row]
	}
	return x, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
