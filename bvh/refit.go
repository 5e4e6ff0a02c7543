package bvh

// Refit recomputes every node box bottom-up while keeping the tree
// topology. prims must be the set the tree was built for, in the order the
// build left it. Children are always stored after their parent so a single
// reverse pass over the node array visits children first.
func (t *Tree) Refit(prims PrimitiveSet) {
	if t.NodesUsed == 0 {
		return
	}

	for i := int(t.NodesUsed) - 1; i >= 0; i-- {
		node := &t.Nodes[i]
		if node.IsLeaf() || t.primCount == 0 {
			updateLeafBounds(node, prims)
			continue
		}

		left, right := node.ChildNodes()
		box := t.Nodes[left].BBox()
		box.GrowAABB(t.Nodes[right].BBox())
		node.SetBBox(box)
	}
}
