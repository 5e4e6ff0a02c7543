package bvh

import (
	"time"

	"github.com/achilleasa/raycore/geometry"
	"github.com/achilleasa/raycore/log"
	"github.com/achilleasa/raycore/types"
	"github.com/chewxy/math32"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

const (
	// The number of centroid bins evaluated per axis when searching for
	// a split plane.
	DefaultBinCount = 10

	// Nodes at this depth are never split further.
	DefaultMaxDepth = 64

	// Index of the root node.
	RootNodeIdx uint32 = 0
)

// The PrimitiveSet interface is implemented by all primitive containers
// that can be partitioned by the bvh builder. Swap must move every piece of
// per-primitive data together.
type PrimitiveSet interface {
	// The number of primitives.
	Len() int

	// The centroid of primitive i.
	Centroid(i int) types.Vec3

	// Grow box so it encloses primitive i.
	GrowBounds(i int, box *geometry.AABB)

	// Swap primitives i and j.
	Swap(i, j int)
}

// Builder options.
type Options struct {
	// The number of bins per axis. Values < 2 select DefaultBinCount.
	BinCount int

	// Max tree depth. Values <= 0 select DefaultMaxDepth.
	MaxDepth int
}

func (o Options) withDefaults() Options {
	if o.BinCount < 2 {
		o.BinCount = DefaultBinCount
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	return o
}

// A BVH stored as a flat node array. Children are always allocated after
// their parent, which allows Refit to run as a single reverse pass.
type Tree struct {
	// The node array. Its length is 2*n - 1 for n primitives; only the
	// first NodesUsed entries are valid.
	Nodes []Node

	// The number of allocated nodes.
	NodesUsed uint32

	// The number of primitives the tree was built for.
	primCount int
}

// A split candidate.
type splitScore struct {
	axis       Axis
	splitPoint float32
	score      float32
}

type bin struct {
	bounds geometry.AABB
	count  int
}

type workItem struct {
	nodeIdx uint32
	depth   int
}

type builder struct {
	logger log.Logger

	tree  *Tree
	prims PrimitiveSet
	opts  Options

	// Scratch buffers reused across nodes.
	bins                  []bin
	leftArea, rightArea   []float32
	leftCount, rightCount []int

	maxDepth int
}

// Build constructs a BVH over prims using binned SAH splits.
func Build(prims PrimitiveSet, opts Options) *Tree {
	tree := &Tree{}
	tree.Rebuild(prims, opts)
	return tree
}

// Rebuild discards the current topology and builds a new tree over prims.
// The node array is reused when it is large enough.
func (t *Tree) Rebuild(prims PrimitiveSet, opts Options) {
	opts = opts.withDefaults()
	n := prims.Len()

	capacity := 2*n - 1
	if capacity < 1 {
		capacity = 1
	}
	if cap(t.Nodes) >= capacity {
		t.Nodes = t.Nodes[:capacity]
		for i := range t.Nodes {
			t.Nodes[i] = Node{}
		}
	} else {
		t.Nodes = make([]Node, capacity)
	}
	t.primCount = n

	b := &builder{
		logger:     log.New("bvh builder"),
		tree:       t,
		prims:      prims,
		opts:       opts,
		bins:       make([]bin, opts.BinCount),
		leftArea:   make([]float32, opts.BinCount-1),
		rightArea:  make([]float32, opts.BinCount-1),
		leftCount:  make([]int, opts.BinCount-1),
		rightCount: make([]int, opts.BinCount-1),
	}

	start := time.Now()
	b.build()
	b.logger.Debugf(
		"BVH tree build time: %d ms, primitives: %d, maxDepth: %d, nodes: %d",
		time.Since(start).Nanoseconds()/1e6,
		n, b.maxDepth, t.NodesUsed,
	)
}

func (b *builder) build() {
	t := b.tree

	t.NodesUsed = 1
	root := &t.Nodes[RootNodeIdx]
	root.SetPrimitives(0, uint32(b.prims.Len()))
	b.updateNodeBounds(RootNodeIdx)

	// An empty tree is a single leaf with an inverted box that never
	// passes a slab test.
	if b.prims.Len() == 0 {
		return
	}

	stack := []workItem{{RootNodeIdx, 0}}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if item.depth > b.maxDepth {
			b.maxDepth = item.depth
		}

		left, ok := b.subdivide(item.nodeIdx, item.depth)
		if !ok {
			continue
		}

		// Push right first so the left subtree is processed first.
		stack = append(stack,
			workItem{left + 1, item.depth + 1},
			workItem{left, item.depth + 1},
		)
	}
}

// Try to split a leaf node in two. It returns the index of the new left
// child and true if the node was split.
func (b *builder) subdivide(nodeIdx uint32, depth int) (uint32, bool) {
	t := b.tree
	node := &t.Nodes[nodeIdx]
	if depth >= b.opts.MaxDepth || node.Count < 2 {
		return 0, false
	}

	best, found := b.findBestSplitPlane(node)
	if !found || best.score >= b.nodeCost(node) {
		return 0, false
	}

	first := int(node.LeftFirst)
	leftCount := b.partition(first, int(node.Count), best.axis, best.splitPoint)

	// Nothing gained if every primitive ended up on the same side
	if leftCount == 0 || leftCount == int(node.Count) {
		return 0, false
	}

	leftIdx := t.NodesUsed
	t.NodesUsed += 2

	t.Nodes[leftIdx].SetPrimitives(uint32(first), uint32(leftCount))
	t.Nodes[leftIdx+1].SetPrimitives(uint32(first+leftCount), node.Count-uint32(leftCount))
	node.SetChildNodes(leftIdx)

	b.updateNodeBounds(leftIdx)
	b.updateNodeBounds(leftIdx + 1)
	return leftIdx, true
}

// Evaluate binned SAH split candidates along all axes and return the
// cheapest one. It returns false if all axes are degenerate.
func (b *builder) findBestSplitPlane(node *Node) (splitScore, bool) {
	first := int(node.LeftFirst)
	count := int(node.Count)
	binCount := len(b.bins)

	best := splitScore{score: math32.Inf(1)}
	found := false

	for axis := XAxis; axis <= ZAxis; axis++ {
		minBound := math32.Inf(1)
		maxBound := math32.Inf(-1)
		for i := first; i < first+count; i++ {
			c := b.prims.Centroid(i)[axis]
			if c < minBound {
				minBound = c
			}
			if c > maxBound {
				maxBound = c
			}
		}

		if minBound == maxBound {
			continue
		}

		// Populate the bins
		for i := range b.bins {
			b.bins[i] = bin{bounds: geometry.EmptyAABB()}
		}
		// Bin in float64; the extent of finite float32 centroids may
		// overflow float32.
		extent := float64(maxBound) - float64(minBound)
		scale := float64(binCount) / extent
		for i := first; i < first+count; i++ {
			binIdx := int((float64(b.prims.Centroid(i)[axis]) - float64(minBound)) * scale)
			if binIdx < 0 {
				binIdx = 0
			} else if binIdx > binCount-1 {
				binIdx = binCount - 1
			}
			b.bins[binIdx].count++
			b.prims.GrowBounds(i, &b.bins[binIdx].bounds)
		}

		// Sweep from both ends to collect the counts and areas on each
		// side of every plane between two bins.
		leftBox, rightBox := geometry.EmptyAABB(), geometry.EmptyAABB()
		leftSum, rightSum := 0, 0
		for i := 0; i < binCount-1; i++ {
			leftSum += b.bins[i].count
			b.leftCount[i] = leftSum
			leftBox.GrowAABB(b.bins[i].bounds)
			b.leftArea[i] = leftBox.Area()

			rightSum += b.bins[binCount-1-i].count
			b.rightCount[binCount-2-i] = rightSum
			rightBox.GrowAABB(b.bins[binCount-1-i].bounds)
			b.rightArea[binCount-2-i] = rightBox.Area()
		}

		binWidth := extent / float64(binCount)
		for i := 0; i < binCount-1; i++ {
			cost := float32(b.leftCount[i])*b.leftArea[i] + float32(b.rightCount[i])*b.rightArea[i]
			if cost < best.score {
				best = splitScore{
					axis:       axis,
					splitPoint: float32(float64(minBound) + binWidth*float64(i+1)),
					score:      cost,
				}
				found = true
			}
		}
	}

	return best, found
}

// The cost of keeping the node as a leaf: count * node area.
func (b *builder) nodeCost(node *Node) float32 {
	return float32(node.Count) * node.BBox().Area()
}

// Partition primitives in [first, first+count) so that the ones whose
// centroid lies before splitPoint come first. Returns the left side count.
func (b *builder) partition(first, count int, axis Axis, splitPoint float32) int {
	left := first
	right := first + count - 1
	for left <= right {
		if b.prims.Centroid(left)[axis] < splitPoint {
			left++
			continue
		}
		b.prims.Swap(left, right)
		right--
	}
	return left - first
}

// Recalculate the bounding box of a leaf from its primitives.
func (b *builder) updateNodeBounds(nodeIdx uint32) {
	updateLeafBounds(&b.tree.Nodes[nodeIdx], b.prims)
}

func updateLeafBounds(node *Node, prims PrimitiveSet) {
	box := geometry.EmptyAABB()
	first, count := node.Primitives()
	for i := first; i < first+count; i++ {
		prims.GrowBounds(int(i), &box)
	}
	node.SetBBox(box)
}

// Root returns the root node.
func (t *Tree) Root() *Node {
	return &t.Nodes[RootNodeIdx]
}

// PrimitiveCount returns the number of primitives the tree was built for.
func (t *Tree) PrimitiveCount() int {
	return t.primCount
}
