package analysis

import (
	"fmt"
	"strings"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/features"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/model"
)

// SummaryInput holds everything the summary is rendered from.
type SummaryInput struct {
	Domain        string
	PositiveClass string
	Vector        features.Vector
	Attributions  model.AttributionSet
	Prediction    model.Prediction
}

// RenderSummary renders the analysis summary. The output depends only on its
// input. The bias term is never listed, and a contribution counts as
// increasing the positive class only when it is strictly positive.
func RenderSummary(in SummaryInput) string {
	var b strings.Builder

	b.WriteString("Domain Analysis Summary:\n")
	fmt.Fprintf(&b, "- Domain: %s\n", in.Domain)
	fmt.Fprintf(&b, "- Prediction: This domain is classified as '%s'.\n", strings.ToUpper(in.Prediction.Label))
	fmt.Fprintf(&b, "- Confidence Score: %s\n", formatPercent(in.Prediction.Confidence))
	b.WriteString("Feature Contributions (Explanation):\n")

	positive := strings.ToUpper(in.PositiveClass)
	for _, c := range in.Attributions.Contributions {
		if c.Feature == model.BiasTerm {
			continue
		}
		value, _ := in.Vector.Get(c.Feature)
		fmt.Fprintf(&b, "  - The '%s' value of %.2f %s the likelihood of it being a %s domain.\n",
			c.Feature, value, direction(c.Value), positive)
	}

	return b.String()
}

func direction(contribution float64) string {
	if contribution > 0 {
		return "increases"
	}
	return "decreases"
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}
