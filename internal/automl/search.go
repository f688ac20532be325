package automl

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/common"
	"golang.org/x/sync/errgroup"
)

// Defaults for Config.
const (
	DefaultMaxRuntime         = 120 * time.Second
	DefaultSeed               = 1
	DefaultValidationFraction = 0.2

	// minRowsForSplit is the dataset size below which candidates are scored
	// on their own training rows.
	minRowsForSplit = 10
)

// Config controls a search.
type Config struct {
	IncludeAlgos       []Algorithm
	MaxRuntime         time.Duration
	Seed               int64
	Parallelism        int // 0 uses every CPU
	ValidationFraction float64
	MaxModels          int // 0 trains the whole plan
}

func (c *Config) setDefaults() {
	if len(c.IncludeAlgos) == 0 {
		c.IncludeAlgos = DefaultAlgorithms
	}
	if c.MaxRuntime <= 0 {
		c.MaxRuntime = DefaultMaxRuntime
	}
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.NumCPU()
	}
	if c.ValidationFraction <= 0 || c.ValidationFraction >= 1 {
		c.ValidationFraction = DefaultValidationFraction
	}
}

// Data is a binomial training set: Y holds 1 for the positive class.
type Data struct {
	X [][]float64
	Y []float64
}

func (d Data) validate() error {
	if len(d.X) == 0 || len(d.X) != len(d.Y) {
		return fmt.Errorf("%w: %d rows for %d labels", common.ErrMalformedDataset, len(d.X), len(d.Y))
	}
	numFeatures := len(d.X[0])
	if numFeatures == 0 || numFeatures > maxShapleyFeatures {
		return fmt.Errorf("%w: %d features (supported 1..%d)", common.ErrMalformedDataset, numFeatures, maxShapleyFeatures)
	}
	var positives float64
	for i, row := range d.X {
		if len(row) != numFeatures {
			return fmt.Errorf("%w: row %d has %d features, want %d", common.ErrMalformedDataset, i, len(row), numFeatures)
		}
		positives += d.Y[i]
	}
	if positives == 0 || positives == float64(len(d.Y)) {
		return fmt.Errorf("%w: both classes must be present", common.ErrMalformedDataset)
	}
	return nil
}

func (d Data) subset(rows []int) Data {
	out := Data{X: make([][]float64, len(rows)), Y: make([]float64, len(rows))}
	for i, r := range rows {
		out.X[i] = d.X[r]
		out.Y[i] = d.Y[r]
	}
	return out
}

// Entry is one trained candidate on the leaderboard.
type Entry struct {
	Predictor    Predictor
	ModelID      string
	Algorithm    Algorithm
	AUC          float64
	LogLoss      float64
	F1           float64
	Threshold    float64
	TrainingTime time.Duration
}

// Leaderboard lists candidates best first.
type Leaderboard []Entry

// Leader returns the top-ranked entry.
func (l Leaderboard) Leader() (Entry, bool) {
	if len(l) == 0 {
		return Entry{}, false
	}
	return l[0], true
}

func (l Leaderboard) sort() {
	sort.SliceStable(l, func(a, b int) bool {
		if l[a].AUC != l[b].AUC {
			return l[a].AUC > l[b].AUC
		}
		if l[a].LogLoss != l[b].LogLoss {
			return l[a].LogLoss < l[b].LogLoss
		}
		return l[a].ModelID < l[b].ModelID
	})
}

// Result is the outcome of a search.
type Result struct {
	Leaderboard Leaderboard
	Planned     int
	Skipped     int
	Failed      int
	Elapsed     time.Duration
}

// Progress is reported after each candidate finishes; entry is nil when the
// candidate was skipped or failed.
type Progress func(done, total int, entry *Entry)

type candidate struct {
	train   func(ctx context.Context, d Data, seed uint64) (Predictor, error)
	modelID string
	algo    Algorithm
}

// plan returns the candidates for the whitelist in training order: one
// default model per family first, then the grid.
func plan(cfg Config) []candidate {
	allowed := make(map[Algorithm]bool)
	for _, a := range cfg.IncludeAlgos {
		allowed[a] = true
	}

	gbm := func(p GBMParams) func(context.Context, Data, uint64) (Predictor, error) {
		return func(ctx context.Context, d Data, seed uint64) (Predictor, error) {
			return trainGBM(ctx, d.X, d.Y, p, seed)
		}
	}
	drf := func(p DRFParams) func(context.Context, Data, uint64) (Predictor, error) {
		return func(ctx context.Context, d Data, seed uint64) (Predictor, error) {
			return trainDRF(ctx, d.X, d.Y, p, seed)
		}
	}
	glm := func(p GLMParams) func(context.Context, Data, uint64) (Predictor, error) {
		return func(ctx context.Context, d Data, _ uint64) (Predictor, error) {
			return trainGLM(ctx, d.X, d.Y, p)
		}
	}

	type spec struct {
		algo  Algorithm
		train func(context.Context, Data, uint64) (Predictor, error)
	}
	specs := []spec{
		{DRF, drf(DRFParams{NTrees: 50, MaxDepth: 12, MinRows: 5})},
		{GLM, glm(GLMParams{Lambda: 1e-4})},
		{GBM, gbm(GBMParams{NTrees: 50, MaxDepth: 5, MinRows: 10, LearnRate: 0.1, SampleRate: 1})},
		{GBM, gbm(GBMParams{NTrees: 100, MaxDepth: 3, MinRows: 10, LearnRate: 0.1, SampleRate: 0.8})},
		{GBM, gbm(GBMParams{NTrees: 100, MaxDepth: 5, MinRows: 5, LearnRate: 0.05, SampleRate: 0.8})},
		{DRF, drf(DRFParams{NTrees: 100, MaxDepth: 8, MinRows: 10, MTries: 2})},
		{GLM, glm(GLMParams{Lambda: 1e-2})},
		{GBM, gbm(GBMParams{NTrees: 200, MaxDepth: 4, MinRows: 20, LearnRate: 0.05, SampleRate: 0.7})},
	}

	counts := make(map[Algorithm]int)
	var out []candidate
	for _, s := range specs {
		if !allowed[s.algo] {
			continue
		}
		counts[s.algo]++
		out = append(out, candidate{
			algo:    s.algo,
			modelID: fmt.Sprintf("%s_%d_AutoML_%d", s.algo, counts[s.algo], cfg.Seed),
			train:   s.train,
		})
		if cfg.MaxModels > 0 && len(out) == cfg.MaxModels {
			break
		}
	}
	return out
}

// stratifiedSplit partitions rows into stratified training and validation sets.
func stratifiedSplit(d Data, fraction float64, seed int64) (Data, Data) {
	var pos, neg []int
	for i, v := range d.Y {
		if v > 0.5 {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	if len(d.Y) < minRowsForSplit || len(pos) < 2 || len(neg) < 2 {
		return d, d
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)+1))
	var trainRows, validRows []int
	for _, class := range [][]int{pos, neg} {
		rng.Shuffle(len(class), func(i, j int) { class[i], class[j] = class[j], class[i] })
		k := int(float64(len(class)) * fraction)
		if k < 1 {
			k = 1
		}
		validRows = append(validRows, class[:k]...)
		trainRows = append(trainRows, class[k:]...)
	}
	sort.Ints(trainRows)
	sort.Ints(validRows)
	return d.subset(trainRows), d.subset(validRows)
}

// Run trains the planned candidates and ranks them by validation AUC, then
// log-loss. The runtime budget stops new candidates from starting; the first
// candidate always runs. Cancelling ctx aborts the search.
func Run(ctx context.Context, data Data, cfg Config, progress Progress) (*Result, error) {
	cfg.setDefaults()
	if err := data.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	deadline := start.Add(cfg.MaxRuntime)
	candidates := plan(cfg)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no algorithms selected", common.ErrInvalidConfig)
	}

	train, valid := stratifiedSplit(data, cfg.ValidationFraction, cfg.Seed)
	slog.Debug("Starting model search",
		"candidates", len(candidates),
		"train_rows", len(train.Y),
		"validation_rows", len(valid.Y),
		"max_runtime", cfg.MaxRuntime,
		"parallelism", cfg.Parallelism)

	entries := make([]*Entry, len(candidates))
	result := &Result{Planned: len(candidates)}

	var mu sync.Mutex
	done := 0
	report := func(entry *Entry, skipped, failed bool) {
		mu.Lock()
		defer mu.Unlock()
		done++
		if skipped {
			result.Skipped++
		}
		if failed {
			result.Failed++
		}
		if progress != nil {
			progress(done, len(candidates), entry)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallelism)
	for i, c := range candidates {
		g.Go(func() error {
			if i > 0 && time.Now().After(deadline) {
				slog.Debug("Runtime budget exhausted, skipping candidate", "model_id", c.modelID)
				report(nil, true, false)
				return nil
			}

			began := time.Now()
			predictor, err := c.train(gctx, train, uint64(cfg.Seed)+uint64(i)*7919)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.Warn("Candidate failed", "model_id", c.modelID, "error", err)
				report(nil, false, true)
				return nil
			}

			entry := evaluate(predictor, valid)
			entry.ModelID = c.modelID
			entry.Algorithm = c.algo
			entry.TrainingTime = time.Since(began)
			entries[i] = &entry

			slog.Debug("Candidate trained",
				"model_id", c.modelID,
				"auc", entry.AUC,
				"logloss", entry.LogLoss,
				"duration", entry.TrainingTime)
			report(&entry, false, false)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("model search aborted: %w", err)
	}

	for _, e := range entries {
		if e != nil {
			result.Leaderboard = append(result.Leaderboard, *e)
		}
	}
	if len(result.Leaderboard) == 0 {
		return nil, common.ErrNoModels
	}
	result.Leaderboard.sort()
	result.Elapsed = time.Since(start)

	return result, nil
}

func evaluate(p Predictor, valid Data) Entry {
	probs := make([]float64, len(valid.Y))
	for i, x := range valid.X {
		probs[i] = p.Probability(x)
	}
	threshold, f1 := BestF1Threshold(probs, valid.Y)
	return Entry{
		Predictor: p,
		AUC:       AUC(probs, valid.Y),
		LogLoss:   LogLoss(probs, valid.Y),
		F1:        f1,
		Threshold: threshold,
	}
}
