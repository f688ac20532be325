package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/common"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/features"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	t.Run("explicit feature columns", func(t *testing.T) {
		input := "domain,length,entropy,class\n" +
			"google.com,10,2.646,legit\n" +
			"xkq3v9zt1b.biz,14,3.52,dga\n"

		frame, err := Read(strings.NewReader(input), Options{})
		require.NoError(t, err)

		assert.Equal(t, []string{"length", "entropy"}, frame.Features)
		assert.Empty(t, frame.Derived)
		assert.Equal(t, 2, frame.Len())
		assert.Equal(t, [][]float64{{10, 2.646}, {14, 3.52}}, frame.X)
		assert.Equal(t, []string{"legit", "dga"}, frame.Labels)
		assert.Equal(t, []string{"dga", "legit"}, frame.Classes())
	})

	t.Run("columns in any order", func(t *testing.T) {
		input := "class,entropy,length\nlegit,1.5,7\n"
		frame, err := Read(strings.NewReader(input), Options{})
		require.NoError(t, err)
		assert.Equal(t, [][]float64{{7, 1.5}}, frame.X)
	})

	t.Run("derives missing features from domain", func(t *testing.T) {
		input := "domain,class\ngoogle.com,legit\naaaa,dga\n"

		frame, err := Read(strings.NewReader(input), Options{})
		require.NoError(t, err)

		assert.Equal(t, []string{"length", "entropy"}, frame.Derived)
		assert.InDelta(t, 10.0, frame.X[0][0], 0)
		assert.InDelta(t, features.ShannonEntropy("google.com"), frame.X[0][1], 1e-12)
		assert.Equal(t, []float64{4, 0}, frame.X[1])
	})

	t.Run("custom column names", func(t *testing.T) {
		input := "name,label\nexample.org,ok\n"
		frame, err := Read(strings.NewReader(input), Options{LabelColumn: "label", DomainColumn: "name"})
		require.NoError(t, err)
		assert.Equal(t, []string{"ok"}, frame.Labels)
	})
}

func TestReadMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty file", input: ""},
		{name: "header only", input: "domain,length,entropy,class\n"},
		{name: "missing label column", input: "domain,length,entropy\ngoogle.com,10,2.6\n"},
		{name: "feature not derivable", input: "length,class\n10,legit\n"},
		{name: "non numeric feature", input: "domain,length,entropy,class\ngoogle.com,ten,2.6,legit\n"},
		{name: "NaN feature", input: "domain,length,entropy,class\ngoogle.com,10,NaN,legit\n"},
		{name: "empty label", input: "domain,length,entropy,class\ngoogle.com,10,2.6,\n"},
		{name: "ragged row", input: "domain,length,entropy,class\ngoogle.com,10,legit\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrMalformedDataset)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "dga_dataset_train.csv"), Options{})
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrDatasetNotFound)
		assert.Equal(t, common.ExitDataset, common.ExitCode(err))
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "train.csv")
		require.NoError(t, os.WriteFile(path, []byte("domain,class\ngoogle.com,legit\n"), 0o600))

		frame, err := Load(path, Options{})
		require.NoError(t, err)
		assert.Equal(t, 1, frame.Len())
	})
}

func TestBinary(t *testing.T) {
	frame := &Frame{Labels: []string{"legit", "dga", "dga", "legit"}}

	y, negative, err := frame.Binary("dga")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 1, 0}, y)
	assert.Equal(t, "legit", negative)

	_, _, err = frame.Binary("malware")
	assert.ErrorIs(t, err, common.ErrMalformedDataset)

	single := &Frame{Labels: []string{"dga", "dga"}}
	_, _, err = single.Binary("dga")
	assert.ErrorIs(t, err, common.ErrMalformedDataset)
}
