package automl

import (
	"math"
	"sort"
)

// AUC returns the area under the ROC curve of scores against binary labels,
// computed as the normalized Mann-Whitney U statistic with tied scores
// sharing their average rank. It is 0.5 when either class is absent.
func AUC(scores, y []float64) float64 {
	n := len(scores)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	var positives, rankSum float64
	for start := 0; start < n; {
		end := start + 1
		for end < n && scores[idx[end]] == scores[idx[start]] {
			end++
		}
		// ranks are 1-based
		avgRank := float64(start+end+1) / 2
		for k := start; k < end; k++ {
			if y[idx[k]] > 0.5 {
				positives++
				rankSum += avgRank
			}
		}
		start = end
	}

	negatives := float64(n) - positives
	if positives == 0 || negatives == 0 {
		return 0.5
	}
	return (rankSum - positives*(positives+1)/2) / (positives * negatives)
}

// LogLoss returns the mean binomial log-loss of probabilities against labels.
func LogLoss(probs, y []float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	var sum float64
	for i, p := range probs {
		p = clamp(p, 1e-15, 1-1e-15)
		if y[i] > 0.5 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(probs))
}

// BestF1Threshold returns the probability threshold that maximizes F1 when
// rows with prob >= threshold are labeled positive, and that F1. Ties keep
// the highest threshold. Without positives it returns 0.5 and 0.
func BestF1Threshold(probs, y []float64) (float64, float64) {
	idx := make([]int, len(probs))
	var positives float64
	for i := range idx {
		idx[i] = i
		if y[i] > 0.5 {
			positives++
		}
	}
	if positives == 0 {
		return 0.5, 0
	}
	sort.SliceStable(idx, func(a, b int) bool { return probs[idx[a]] > probs[idx[b]] })

	bestThreshold, bestF1 := 0.5, -1.0
	var tp, fp float64
	for k := 0; k < len(idx); {
		threshold := probs[idx[k]]
		for k < len(idx) && probs[idx[k]] == threshold {
			if y[idx[k]] > 0.5 {
				tp++
			} else {
				fp++
			}
			k++
		}
		fn := positives - tp
		f1 := 2 * tp / (2*tp + fp + fn)
		if f1 > bestF1 {
			bestF1, bestThreshold = f1, threshold
		}
	}
	return bestThreshold, bestF1
}
