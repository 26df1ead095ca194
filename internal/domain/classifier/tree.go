package classifier

import (
	"math/rand"
	"sort"
)

// Node is one node of a flattened regression tree.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
	Leaf      bool
}

// Tree is a binary regression tree stored as a node slice rooted at 0.
type Tree struct {
	Nodes []Node
}

// Predict walks x down to a leaf.
func (t *Tree) Predict(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type treeConfig struct {
	maxDepth    int
	minLeaf     int
	maxFeatures int // 0 means every feature
	rng         *rand.Rand
	// leafValue overrides the mean-of-target leaf output.
	leafValue func(idx []int) float64
}

// treeBuilder grows a CART tree by variance reduction and accumulates the
// impurity decrease of every split into importance.
type treeBuilder struct {
	cfg        treeConfig
	X          [][]float64
	target     []float64
	importance []float64
	nodes      []Node
}

func growTree(X [][]float64, target []float64, idx []int, cfg treeConfig, importance []float64) Tree {
	if cfg.minLeaf < 1 {
		cfg.minLeaf = 1
	}
	b := &treeBuilder{cfg: cfg, X: X, target: target, importance: importance}
	b.build(idx, 0)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) build(idx []int, depth int) int {
	at := len(b.nodes)
	b.nodes = append(b.nodes, Node{Leaf: true})

	if depth >= b.cfg.maxDepth || len(idx) < 2*b.cfg.minLeaf || b.pure(idx) {
		b.nodes[at].Value = b.leaf(idx)
		return at
	}

	feature, threshold, gain, ok := b.bestSplit(idx)
	if !ok {
		b.nodes[at].Value = b.leaf(idx)
		return at
	}
	b.importance[feature] += gain

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[at] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return at
}

func (b *treeBuilder) leaf(idx []int) float64 {
	if b.cfg.leafValue != nil {
		return b.cfg.leafValue(idx)
	}
	var sum float64
	for _, i := range idx {
		sum += b.target[i]
	}
	return sum / float64(len(idx))
}

func (b *treeBuilder) pure(idx []int) bool {
	first := b.target[idx[0]]
	for _, i := range idx[1:] {
		if b.target[i] != first {
			return false
		}
	}
	return true
}

func (b *treeBuilder) candidates() []int {
	d := len(b.X[0])
	if b.cfg.maxFeatures <= 0 || b.cfg.maxFeatures >= d || b.cfg.rng == nil {
		all := make([]int, d)
		for j := range all {
			all[j] = j
		}
		return all
	}
	feats := b.cfg.rng.Perm(d)[:b.cfg.maxFeatures]
	sort.Ints(feats)
	return feats
}

// bestSplit scans every candidate feature for the threshold with the largest
// reduction in sum of squared error.
func (b *treeBuilder) bestSplit(idx []int) (feature int, threshold, gain float64, ok bool) {
	n := len(idx)
	var total, totalSq float64
	for _, i := range idx {
		total += b.target[i]
		totalSq += b.target[i] * b.target[i]
	}
	parent := totalSq - total*total/float64(n)

	sorted := make([]int, n)
	const minGain = 1e-12
	for _, f := range b.candidates() {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool { return b.X[sorted[a]][f] < b.X[sorted[c]][f] })

		var leftSum, leftSq float64
		for k := 0; k < n-1; k++ {
			t := b.target[sorted[k]]
			leftSum += t
			leftSq += t * t
			nl := k + 1
			nr := n - nl
			if nl < b.cfg.minLeaf || nr < b.cfg.minLeaf {
				continue
			}
			lo, hi := b.X[sorted[k]][f], b.X[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if g := parent - sse; g > gain+minGain {
				feature, threshold, gain, ok = f, (lo+hi)/2, g, true
			}
		}
	}
	return feature, threshold, gain, ok
}
