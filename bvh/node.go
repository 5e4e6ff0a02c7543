package bvh

import (
	"github.com/achilleasa/raycore/geometry"
	"github.com/achilleasa/raycore/types"
)

// Bvh node definition. Each node takes 32 bytes.
//
// The LeftFirst field depends on the node type:
//
//   - leafs (Count != 0): index of the first primitive in the leaf.
//   - internal nodes (Count == 0): index of the left child. The right child
//     is always stored right after it, at LeftFirst + 1.
type Node struct {
	Min       types.Vec3
	LeftFirst uint32

	Max   types.Vec3
	Count uint32
}

// IsLeaf returns true if the node stores primitives.
func (n *Node) IsLeaf() bool {
	return n.Count != 0
}

// Set bounding box.
func (n *Node) SetBBox(bbox geometry.AABB) {
	n.Min = bbox.Min
	n.Max = bbox.Max
}

// Get bounding box.
func (n *Node) BBox() geometry.AABB {
	return geometry.AABB{Min: n.Min, Max: n.Max}
}

// Set primitive index and count, turning the node into a leaf.
func (n *Node) SetPrimitives(firstPrimIndex, count uint32) {
	n.LeftFirst = firstPrimIndex
	n.Count = count
}

// Get primitive index and count.
func (n *Node) Primitives() (firstPrimIndex, count uint32) {
	return n.LeftFirst, n.Count
}

// Set the left child index, turning the node into an internal node.
func (n *Node) SetChildNodes(left uint32) {
	n.LeftFirst = left
	n.Count = 0
}

// Get left and right child node indices.
func (n *Node) ChildNodes() (left, right uint32) {
	return n.LeftFirst, n.LeftFirst + 1
}
