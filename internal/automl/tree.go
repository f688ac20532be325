package automl

import (
	"fmt"
	"math/bits"
	"math/rand/v2"
	"sort"
)

// Node is one node of a binary regression tree. Leaves have Feature -1.
// Cover is the number of training rows that reached the node and equals the
// sum of the children's covers.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v,omitempty"`
	Cover     float64 `json:"c"`
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool {
	return n.Feature < 0
}

// Tree is a binary regression tree rooted at Nodes[0]. Rows with
// x[Feature] <= Threshold go left.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict returns the leaf value reached by x.
func (t Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// expect returns the expected tree output when only the features in mask are
// known; unknown splits are averaged by cover.
func (t Tree) expect(i int, x []float64, mask uint) float64 {
	n := t.Nodes[i]
	if n.IsLeaf() {
		return n.Value
	}
	if mask&(1<<uint(n.Feature)) != 0 {
		if x[n.Feature] <= n.Threshold {
			return t.expect(n.Left, x, mask)
		}
		return t.expect(n.Right, x, mask)
	}
	left, right := t.Nodes[n.Left], t.Nodes[n.Right]
	return (left.Cover*t.expect(n.Left, x, mask) + right.Cover*t.expect(n.Right, x, mask)) / n.Cover
}

// shapley returns exact Shapley values of x over m features and the expected
// output of the tree.
func (t Tree) shapley(x []float64, m int) ([]float64, float64) {
	v := make([]float64, 1<<uint(m))
	for s := range v {
		v[s] = t.expect(0, x, uint(s))
	}
	return shapleyValues(v, m), v[0]
}

// shapleyValues combines a set function v over m players into Shapley values.
func shapleyValues(v []float64, m int) []float64 {
	// w[k] = k!(m-k-1)!/m!
	w := make([]float64, m)
	for k := 0; k < m; k++ {
		w[k] = 1 / float64(m)
		for j := 1; j <= k; j++ {
			w[k] *= float64(j) / float64(m-j)
		}
	}

	phi := make([]float64, m)
	for i := 0; i < m; i++ {
		bit := 1 << uint(i)
		for s := range v {
			if s&bit != 0 {
				continue
			}
			phi[i] += w[bits.OnesCount(uint(s))] * (v[s|bit] - v[s])
		}
	}
	return phi
}

func (t Tree) validate(numFeatures int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range t.Nodes {
		if n.IsLeaf() {
			continue
		}
		if n.Feature >= numFeatures {
			return fmt.Errorf("node %d splits on feature %d of %d", i, n.Feature, numFeatures)
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has invalid children", i)
		}
		if n.Cover <= 0 {
			return fmt.Errorf("node %d has no cover", i)
		}
	}
	return nil
}

type treeConfig struct {
	maxDepth int
	minRows  int
	mtries   int // features tried per split; 0 means all
}

// treeBuilder grows a tree that minimizes squared error on target. Leaf
// values are produced by leaf.
type treeBuilder struct {
	rng    *rand.Rand
	leaf   func(rows []int) float64
	x      [][]float64
	target []float64
	goLeft []bool
	nodes  []Node
	cfg    treeConfig
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

func buildTree(x [][]float64, target []float64, rows []int, cfg treeConfig, rng *rand.Rand, leaf func([]int) float64) Tree {
	if cfg.minRows < 1 {
		cfg.minRows = 1
	}

	numFeatures := len(x[0])
	orders := make([][]int, numFeatures)
	for f := range orders {
		order := append([]int(nil), rows...)
		sort.SliceStable(order, func(a, b int) bool {
			return x[order[a]][f] < x[order[b]][f]
		})
		orders[f] = order
	}

	b := &treeBuilder{
		x:      x,
		target: target,
		cfg:    cfg,
		rng:    rng,
		leaf:   leaf,
		goLeft: make([]bool, len(x)),
	}
	b.grow(orders, 0)
	return Tree{Nodes: b.nodes}
}

// grow adds the subtree for the rows in orders and returns its index. Each
// orders[f] lists the node's rows sorted by feature f.
func (b *treeBuilder) grow(orders [][]int, depth int) int {
	rows := orders[0]
	pos := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Cover: float64(len(rows))})

	best, ok := split{}, false
	if depth < b.cfg.maxDepth && len(rows) >= 2*b.cfg.minRows {
		best, ok = b.bestSplit(orders)
	}
	if !ok {
		b.nodes[pos].Value = b.leaf(rows)
		return pos
	}

	for _, r := range rows {
		b.goLeft[r] = b.x[r][best.feature] <= best.threshold
	}
	left := make([][]int, len(orders))
	right := make([][]int, len(orders))
	for f, order := range orders {
		for _, r := range order {
			if b.goLeft[r] {
				left[f] = append(left[f], r)
			} else {
				right[f] = append(right[f], r)
			}
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[pos] = Node{
		Feature:   best.feature,
		Threshold: best.threshold,
		Left:      l,
		Right:     r,
		Cover:     float64(len(rows)),
	}
	return pos
}

func (b *treeBuilder) candidateFeatures() []int {
	numFeatures := len(b.x[0])
	if b.cfg.mtries <= 0 || b.cfg.mtries >= numFeatures {
		all := make([]int, numFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	picked := b.rng.Perm(numFeatures)[:b.cfg.mtries]
	sort.Ints(picked)
	return picked
}

func (b *treeBuilder) bestSplit(orders [][]int) (split, bool) {
	rows := orders[0]
	n := len(rows)

	var total float64
	for _, r := range rows {
		total += b.target[r]
	}
	base := total * total / float64(n)

	best := split{gain: 1e-12}
	found := false
	for _, f := range b.candidateFeatures() {
		order := orders[f]
		var leftSum float64
		for k := 1; k < n; k++ {
			leftSum += b.target[order[k-1]]
			if k < b.cfg.minRows || n-k < b.cfg.minRows {
				continue
			}
			lo, hi := b.x[order[k-1]][f], b.x[order[k]][f]
			if lo == hi {
				continue
			}

			rightSum := total - leftSum
			gain := leftSum*leftSum/float64(k) + rightSum*rightSum/float64(n-k) - base
			if gain > best.gain {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				best = split{feature: f, threshold: threshold, gain: gain}
				found = true
			}
		}
	}
	return best, found
}
