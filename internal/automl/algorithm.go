package automl

import (
	"fmt"
	"strings"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/common"
)

// Algorithm names a model family.
type Algorithm string

// Supported model families.
const (
	GBM Algorithm = "GBM"
	DRF Algorithm = "DRF"
	GLM Algorithm = "GLM"
)

// DefaultAlgorithms is the whitelist used when none is configured.
var DefaultAlgorithms = []Algorithm{GBM, DRF, GLM}

// ParseAlgorithms validates a list of family names. Names are case-insensitive
// and duplicates are dropped.
func ParseAlgorithms(names []string) ([]Algorithm, error) {
	if len(names) == 0 {
		return append([]Algorithm(nil), DefaultAlgorithms...), nil
	}

	seen := make(map[Algorithm]bool)
	algos := make([]Algorithm, 0, len(names))
	for _, name := range names {
		algo := Algorithm(strings.ToUpper(strings.TrimSpace(name)))
		switch algo {
		case GBM, DRF, GLM:
		default:
			return nil, fmt.Errorf("%w: unsupported algorithm %q (supported: GBM, DRF, GLM)", common.ErrInvalidConfig, name)
		}
		if !seen[algo] {
			seen[algo] = true
			algos = append(algos, algo)
		}
	}
	return algos, nil
}
