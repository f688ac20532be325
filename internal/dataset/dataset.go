// Package dataset loads labeled training data for the DGA classifier.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/common"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/features"
)

// Default column names.
const (
	DefaultLabelColumn  = "class"
	DefaultDomainColumn = "domain"
)

// Options controls how a CSV file is mapped onto a Frame.
type Options struct {
	LabelColumn  string
	DomainColumn string
	Schema       features.Schema
}

func (o *Options) setDefaults() {
	if o.LabelColumn == "" {
		o.LabelColumn = DefaultLabelColumn
	}
	if o.DomainColumn == "" {
		o.DomainColumn = DefaultDomainColumn
	}
	if len(o.Schema) == 0 {
		o.Schema = features.Default
	}
}

// Frame is an in-memory labeled dataset. Row i of X holds the values of
// Features for Labels[i].
type Frame struct {
	Features []string
	X        [][]float64
	Labels   []string
	Derived  []string // features computed from the domain column
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Labels)
}

// Classes returns the distinct labels in sorted order.
func (f *Frame) Classes() []string {
	seen := make(map[string]struct{})
	for _, l := range f.Labels {
		seen[l] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for l := range seen {
		classes = append(classes, l)
	}
	sort.Strings(classes)
	return classes
}

// Binary encodes labels as 1 for positive and 0 for the other class. It fails
// unless the frame holds exactly two classes, one of which is positive.
func (f *Frame) Binary(positive string) ([]float64, string, error) {
	classes := f.Classes()
	if len(classes) != 2 {
		return nil, "", fmt.Errorf("%w: expected 2 classes, found %d %v", common.ErrMalformedDataset, len(classes), classes)
	}

	var negative string
	switch positive {
	case classes[0]:
		negative = classes[1]
	case classes[1]:
		negative = classes[0]
	default:
		return nil, "", fmt.Errorf("%w: positive class %q not in %v", common.ErrMalformedDataset, positive, classes)
	}

	y := make([]float64, len(f.Labels))
	for i, l := range f.Labels {
		if l == positive {
			y[i] = 1
		}
	}
	return y, negative, nil
}

// Load reads a CSV dataset from path.
func Load(path string, opts Options) (*Frame, error) {
	file, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrDatasetNotFound, path)
		}
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = file.Close() }()

	frame, err := Read(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Debug("Loaded dataset",
		"path", path,
		"rows", frame.Len(),
		"features", frame.Features,
		"derived", frame.Derived)

	return frame, nil
}

// Read parses a CSV dataset. Schema features missing from the header are
// derived from the domain column.
func Read(r io.Reader, opts Options) (*Frame, error) {
	opts.setDefaults()

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", common.ErrMalformedDataset)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedDataset, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	labelIdx, ok := columns[opts.LabelColumn]
	if !ok {
		return nil, fmt.Errorf("%w: label column %q missing", common.ErrMalformedDataset, opts.LabelColumn)
	}
	domainIdx, hasDomain := columns[opts.DomainColumn]

	frame := &Frame{Features: opts.Schema.Names()}
	featureIdx := make([]int, len(opts.Schema))
	for i, f := range opts.Schema {
		idx, ok := columns[f.Name]
		if !ok {
			if !hasDomain {
				return nil, fmt.Errorf("%w: feature column %q missing and no %q column to derive it from",
					common.ErrMalformedDataset, f.Name, opts.DomainColumn)
			}
			idx = -1
			frame.Derived = append(frame.Derived, f.Name)
		}
		featureIdx[i] = idx
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrMalformedDataset, err)
		}

		label := strings.TrimSpace(record[labelIdx])
		if label == "" {
			return nil, fmt.Errorf("%w: line %d: empty %q", common.ErrMalformedDataset, line, opts.LabelColumn)
		}

		var domain string
		if hasDomain {
			domain = strings.TrimSpace(record[domainIdx])
		}

		row := make([]float64, len(opts.Schema))
		for i, f := range opts.Schema {
			if featureIdx[i] < 0 {
				if domain == "" {
					return nil, fmt.Errorf("%w: line %d: empty %q", common.ErrMalformedDataset, line, opts.DomainColumn)
				}
				row[i] = f.Compute(domain)
				continue
			}

			raw := strings.TrimSpace(record[featureIdx[i]])
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
				return nil, fmt.Errorf("%w: line %d: column %q: %q is not numeric",
					common.ErrMalformedDataset, line, f.Name, raw)
			}
			row[i] = value
		}

		frame.X = append(frame.X, row)
		frame.Labels = append(frame.Labels, label)
	}

	if frame.Len() == 0 {
		return nil, fmt.Errorf("%w: no data rows", common.ErrMalformedDataset)
	}

	return frame, nil
}
