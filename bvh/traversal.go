package bvh

import "github.com/achilleasa/raycore/geometry"

// The stack depth that is available without allocating. Trees built with
// the default max depth never need more.
const traversalStackSize = DefaultMaxDepth + 1

// CollectLeaves walks the subtree rooted at nodeIdx and appends the index
// of every leaf whose box passes the slab test to leaves. Both children of
// an internal node are always visited. The extended slice is returned so
// callers can reuse it between queries.
func (t *Tree) CollectLeaves(ray *geometry.Ray, nodeIdx uint32, leaves []uint32) []uint32 {
	if nodeIdx >= t.NodesUsed {
		return leaves
	}

	var buf [traversalStackSize]uint32
	stack := append(buf[:0], nodeIdx)
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &t.Nodes[idx]
		if !geometry.SlabTest(node.Min, node.Max, ray) {
			continue
		}

		if node.IsLeaf() {
			leaves = append(leaves, idx)
			continue
		}

		left, right := node.ChildNodes()
		stack = append(stack, right, left)
	}

	return leaves
}
