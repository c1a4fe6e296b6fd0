package predictor

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// node is a tree vertex; leaves have left == -1.
type node struct {
	feature   int
	threshold float64
	left      int32
	right     int32
	value     float64
}

// tree is a CART regression tree stored as a flat node slice rooted at 0.
type tree struct {
	nodes []node
}

func (t *tree) predict(x []float64) float64 {
	i := int32(0)
	for {
		n := &t.nodes[i]
		if n.left < 0 {
			return n.value
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// grower fits one tree over a fixed design matrix.
type grower struct {
	x        [][]float64
	y        []float64
	maxDepth int
	minLeaf  int
	nodes    []node
}

func growTree(x [][]float64, y []float64, rows []int, maxDepth, minLeaf int) *tree {
	g := &grower{x: x, y: y, maxDepth: maxDepth, minLeaf: minLeaf}
	g.build(rows, 0)
	return &tree{nodes: g.nodes}
}

func (g *grower) build(rows []int, depth int) int32 {
	ys := make([]float64, len(rows))
	for i, r := range rows {
		ys[i] = g.y[r]
	}
	id := int32(len(g.nodes))
	g.nodes = append(g.nodes, node{left: -1, right: -1, value: stat.Mean(ys, nil)})

	if depth >= g.maxDepth || len(rows) < 2*g.minLeaf {
		return id
	}
	feature, threshold, ok := g.bestSplit(rows)
	if !ok {
		return id
	}

	var left, right []int
	for _, r := range rows {
		if g.x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	l := g.build(left, depth+1)
	rt := g.build(right, depth+1)
	g.nodes[id].feature = feature
	g.nodes[id].threshold = threshold
	g.nodes[id].left = l
	g.nodes[id].right = rt
	return id
}

// bestSplit scans every feature for the threshold minimising the summed
// squared error of both children. Only thresholds between distinct values
// leaving minLeaf rows on each side are considered.
func (g *grower) bestSplit(rows []int) (int, float64, bool) {
	n := len(rows)
	var total, totalSq float64
	for _, r := range rows {
		total += g.y[r]
		totalSq += g.y[r] * g.y[r]
	}
	parentSSE := totalSq - total*total/float64(n)
	if parentSSE <= 1e-12 {
		return 0, 0, false
	}

	bestSSE := parentSSE - 1e-12
	bestFeature, bestThreshold, found := 0, 0.0, false
	sorted := make([]int, n)

	for f := 0; f < numFeatures; f++ {
		copy(sorted, rows)
		sort.SliceStable(sorted, func(i, j int) bool { return g.x[sorted[i]][f] < g.x[sorted[j]][f] })

		var lSum, lSq float64
		for i := 1; i < n; i++ {
			prev := sorted[i-1]
			lSum += g.y[prev]
			lSq += g.y[prev] * g.y[prev]
			lo, hi := g.x[prev][f], g.x[sorted[i]][f]
			if lo == hi || i < g.minLeaf || n-i < g.minLeaf {
				continue
			}
			rSum, rSq := total-lSum, totalSq-lSq
			sse := lSq - lSum*lSum/float64(i) + rSq - rSum*rSum/float64(n-i)
			if sse < bestSSE {
				bestSSE = sse
				bestFeature = f
				bestThreshold = (lo + hi) / 2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

// forest averages bootstrap-trained trees.
type forest struct {
	trees []*tree
}

func fitForest(x [][]float64, y []float64, trees, maxDepth, minLeaf int, rnd *rand.Rand) *forest {
	n := len(y)
	f := &forest{trees: make([]*tree, trees)}
	rows := make([]int, n)
	for t := 0; t < trees; t++ {
		for i := range rows {
			rows[i] = rnd.Intn(n)
		}
		sort.Ints(rows)
		f.trees[t] = growTree(x, y, rows, maxDepth, minLeaf)
	}
	return f
}

func (f *forest) predict(x []float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.trees))
}
