package bvh

import (
	"math/rand"
	"testing"
	"unsafe"

	"github.com/achilleasa/raycore/geometry"
	"github.com/achilleasa/raycore/types"
)

// A PrimitiveSet over boxes. ids track where each box ended up after the
// builder permuted the set.
type boxSet struct {
	boxes []geometry.AABB
	ids   []int
}

func newBoxSet(boxes ...geometry.AABB) *boxSet {
	ids := make([]int, len(boxes))
	for i := range ids {
		ids[i] = i
	}
	return &boxSet{boxes: boxes, ids: ids}
}

func randomBoxSet(rng *rand.Rand, count int) *boxSet {
	boxes := make([]geometry.AABB, count)
	for i := range boxes {
		min := types.XYZ(rng.Float32()*100-50, rng.Float32()*100-50, rng.Float32()*100-50)
		boxes[i] = geometry.AABBFromPoints(min, min.Add(types.XYZ(rng.Float32()*4, rng.Float32()*4, rng.Float32()*4)))
	}
	return newBoxSet(boxes...)
}

func (s *boxSet) Len() int                             { return len(s.boxes) }
func (s *boxSet) Centroid(i int) types.Vec3            { return s.boxes[i].Center() }
func (s *boxSet) GrowBounds(i int, box *geometry.AABB) { box.GrowAABB(s.boxes[i]) }
func (s *boxSet) Swap(i, j int) {
	s.boxes[i], s.boxes[j] = s.boxes[j], s.boxes[i]
	s.ids[i], s.ids[j] = s.ids[j], s.ids[i]
}

func fourBoxes() *boxSet {
	return newBoxSet(
		geometry.AABB{Min: types.Vec3{-2, 0, -2}, Max: types.Vec3{-1, 1, -1}},
		geometry.AABB{Min: types.Vec3{1, 0, -2}, Max: types.Vec3{2, 1, -1}},
		geometry.AABB{Min: types.Vec3{-2, 0, 1}, Max: types.Vec3{-1, 1, 2}},
		geometry.AABB{Min: types.Vec3{1, 0, 1}, Max: types.Vec3{2, 1, 2}},
	)
}

func TestNodeSize(t *testing.T) {
	if size := unsafe.Sizeof(Node{}); size != 32 {
		t.Fatalf("expected node size to be 32 bytes; got %d", size)
	}
}

func TestBuildSplitsSeparatedBoxes(t *testing.T) {
	prims := fourBoxes()
	tree := Build(prims, Options{})

	expCount := uint32(7)
	if tree.NodesUsed != expCount {
		t.Fatalf("expected bvh tree to have %d nodes; got %d", expCount, tree.NodesUsed)
	}

	if len(tree.Nodes) != 2*prims.Len()-1 {
		t.Fatalf("expected node array capacity to be %d; got %d", 2*prims.Len()-1, len(tree.Nodes))
	}

	leafs := 0
	for i := uint32(0); i < tree.NodesUsed; i++ {
		node := &tree.Nodes[i]
		if !node.IsLeaf() {
			continue
		}
		leafs++
		if node.Count != 1 {
			t.Fatalf("expected leaf %d to hold 1 primitive; got %d", i, node.Count)
		}
	}
	if leafs != 4 {
		t.Fatalf("expected 4 leafs; got %d", leafs)
	}
}

func TestBuildContainment(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	prims := randomBoxSet(rng, 500)
	tree := Build(prims, Options{})
	assertTreeInvariants(t, tree, prims)
}

func TestBuildPartitionsEveryPrimitiveOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	prims := randomBoxSet(rng, 300)
	orig := make([]geometry.AABB, len(prims.boxes))
	copy(orig, prims.boxes)

	tree := Build(prims, Options{})

	seen := make([]int, prims.Len())
	for i := uint32(0); i < tree.NodesUsed; i++ {
		node := &tree.Nodes[i]
		if !node.IsLeaf() {
			continue
		}
		first, count := node.Primitives()
		for p := first; p < first+count; p++ {
			seen[p]++
		}
	}
	for p, count := range seen {
		if count != 1 {
			t.Fatalf("expected primitive slot %d to belong to exactly 1 leaf; got %d", p, count)
		}
	}

	// Swaps must keep the set consistent
	for slot, id := range prims.ids {
		if prims.boxes[slot] != orig[id] {
			t.Fatalf("expected slot %d to hold box %d after partitioning", slot, id)
		}
	}
}

func TestBuildEmptySet(t *testing.T) {
	tree := Build(newBoxSet(), Options{})

	if tree.NodesUsed != 1 {
		t.Fatalf("expected a single node; got %d", tree.NodesUsed)
	}
	if !tree.Root().BBox().IsEmpty() {
		t.Fatalf("expected root box to be empty; got %v", tree.Root().BBox())
	}

	ray := geometry.NewRay(types.Vec3{0, 0, -10}, types.Vec3{0, 0, 1})
	if leaves := tree.CollectLeaves(&ray, RootNodeIdx, nil); len(leaves) != 0 {
		t.Fatalf("expected no leaves for an empty tree; got %v", leaves)
	}

	tree.Refit(newBoxSet())
	if !tree.Root().BBox().IsEmpty() {
		t.Fatalf("expected root box to remain empty after refit; got %v", tree.Root().BBox())
	}
}

func TestBuildDepthCap(t *testing.T) {
	tree := Build(fourBoxes(), Options{MaxDepth: 1})

	if tree.NodesUsed != 3 {
		t.Fatalf("expected bvh tree to have 3 nodes; got %d", tree.NodesUsed)
	}
	if st := tree.Stats(); st.MaxDepth != 1 {
		t.Fatalf("expected max depth 1; got %d", st.MaxDepth)
	}
}

func TestBuildIdenticalCentroids(t *testing.T) {
	box := geometry.AABB{Min: types.Vec3{0, 0, 0}, Max: types.Vec3{1, 1, 1}}
	prims := newBoxSet(box, box, box, box, box)
	tree := Build(prims, Options{})

	if tree.NodesUsed != 1 {
		t.Fatalf("expected degenerate set to produce a single leaf; got %d nodes", tree.NodesUsed)
	}
	if tree.Root().Count != 5 {
		t.Fatalf("expected root leaf to hold 5 primitives; got %d", tree.Root().Count)
	}
}

// A PrimitiveSet of points; the centroid is the point itself.
type pointSet struct {
	points []types.Vec3
}

func (s *pointSet) Len() int                             { return len(s.points) }
func (s *pointSet) Centroid(i int) types.Vec3            { return s.points[i] }
func (s *pointSet) GrowBounds(i int, box *geometry.AABB) { box.Grow(s.points[i]) }
func (s *pointSet) Swap(i, j int)                        { s.points[i], s.points[j] = s.points[j], s.points[i] }

func TestBuildExtremeCoordinates(t *testing.T) {
	// The centroid extent along x overflows float32.
	prims := &pointSet{points: []types.Vec3{
		{-3e38, 0, 0},
		{-1e38, 1, 0},
		{0, 0, 1},
		{1e38, 1, 1},
		{3e38, 0, 0},
		{3e38, 2, 0},
	}}
	tree := Build(prims, Options{})

	primCount := 0
	for i := uint32(0); i < tree.NodesUsed; i++ {
		node := &tree.Nodes[i]
		if !node.IsLeaf() {
			continue
		}
		box := node.BBox()
		first, count := node.Primitives()
		for p := first; p < first+count; p++ {
			if !box.Contains(prims.points[p]) {
				t.Fatalf("expected leaf %d box %v to contain point %v", i, box, prims.points[p])
			}
		}
		primCount += int(count)
	}

	if primCount != prims.Len() {
		t.Fatalf("expected leafs to hold %d primitives; got %d", prims.Len(), primCount)
	}
}

func TestRebuildReusesNodeArray(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	prims := randomBoxSet(rng, 64)
	tree := Build(prims, Options{})
	nodes := &tree.Nodes[0]

	tree.Rebuild(prims, Options{BinCount: 4})
	if &tree.Nodes[0] != nodes {
		t.Fatal("expected rebuild to reuse the node array")
	}
	assertTreeInvariants(t, tree, prims)
}

// Every internal box encloses its children and every leaf box encloses its
// primitives.
func assertTreeInvariants(t *testing.T, tree *Tree, prims *boxSet) {
	t.Helper()

	for i := uint32(0); i < tree.NodesUsed; i++ {
		node := &tree.Nodes[i]
		box := node.BBox()
		if node.IsLeaf() {
			first, count := node.Primitives()
			for p := first; p < first+count; p++ {
				if !box.ContainsAABB(prims.boxes[p]) {
					t.Fatalf("expected leaf %d box %v to contain primitive %d box %v", i, box, p, prims.boxes[p])
				}
			}
			continue
		}

		left, right := node.ChildNodes()
		if left <= i || right >= tree.NodesUsed {
			t.Fatalf("expected children of node %d to be stored after it; got %d, %d", i, left, right)
		}
		for _, child := range []uint32{left, right} {
			if !box.ContainsAABB(tree.Nodes[child].BBox()) {
				t.Fatalf("expected node %d box %v to contain child %d box %v", i, box, child, tree.Nodes[child].BBox())
			}
		}
	}
}
