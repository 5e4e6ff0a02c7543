package bvh

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/achilleasa/raycore/geometry"
	"github.com/achilleasa/raycore/types"
)

func TestRefitMatchesFreshBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	prims := randomBoxSet(rng, 200)
	tree := Build(prims, Options{})
	nodesUsed := tree.NodesUsed

	// Move every primitive and refit
	m := types.Translate4(types.Vec3{3, -2, 7}).Mul4(types.RotateY4(0.7))
	for i := range prims.boxes {
		prims.boxes[i] = prims.boxes[i].Transform(m)
	}
	tree.Refit(prims)

	if tree.NodesUsed != nodesUsed {
		t.Fatalf("expected refit to keep %d nodes; got %d", nodesUsed, tree.NodesUsed)
	}

	for i := uint32(0); i < tree.NodesUsed; i++ {
		node := &tree.Nodes[i]
		if !node.IsLeaf() {
			continue
		}

		exp := geometry.EmptyAABB()
		first, count := node.Primitives()
		for p := first; p < first+count; p++ {
			exp.GrowAABB(prims.boxes[p])
		}
		if node.BBox() != exp {
			t.Fatalf("expected leaf %d box to be %v after refit; got %v", i, exp, node.BBox())
		}
	}

	assertTreeInvariants(t, tree, prims)
}

func TestStats(t *testing.T) {
	tree := Build(fourBoxes(), Options{})
	st := tree.Stats()

	if st.Nodes != 7 || st.Leafs != 4 || st.MaxDepth != 2 || st.Primitives != 4 {
		t.Fatalf("expected 7 nodes, 4 leafs, depth 2 and 4 primitives; got %+v", st)
	}
	if st.MeanLeafSize != 1 || st.StdDevLeafSize != 0 {
		t.Fatalf("expected leaf size 1 ± 0; got %f ± %f", st.MeanLeafSize, st.StdDevLeafSize)
	}
	if st.NodeBytes != 7*32 {
		t.Fatalf("expected node memory to be %d bytes; got %d", 7*32, st.NodeBytes)
	}

	out := st.String()
	for _, exp := range []string{"Leafs", "Max depth", "224 bytes"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("expected stats table to contain %q; got\n%s", exp, out)
		}
	}
}
