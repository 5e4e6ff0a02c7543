package geometry

import (
	"github.com/achilleasa/raycore/types"
	"github.com/chewxy/math32"
)

// An axis-aligned bounding box. A freshly created box is empty (inverted) and
// grows to fit the points added to it.
type AABB struct {
	Min types.Vec3
	Max types.Vec3
}

// Create an empty box with min set to +Inf and max set to -Inf.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: types.Vec3{inf, inf, inf},
		Max: types.Vec3{-inf, -inf, -inf},
	}
}

// Create the smallest box enclosing all points.
func AABBFromPoints(points ...types.Vec3) AABB {
	box := EmptyAABB()
	for _, p := range points {
		box.Grow(p)
	}
	return box
}

// Expand the box so it includes p. Points already inside leave it unchanged.
func (b *AABB) Grow(p types.Vec3) {
	b.Min = types.MinVec3(b.Min, p)
	b.Max = types.MaxVec3(b.Max, p)
}

// Expand the box so it includes another box.
func (b *AABB) GrowAABB(other AABB) {
	if other.IsEmpty() {
		return
	}
	b.Min = types.MinVec3(b.Min, other.Min)
	b.Max = types.MaxVec3(b.Max, other.Max)
}

// Area returns sx*sy + sy*sz + sz*sx, i.e. half of the box surface area. It is
// only meant for relative SAH cost comparisons. Empty boxes have zero area.
func (b AABB) Area() float32 {
	if b.IsEmpty() {
		return 0
	}
	size := b.Max.Sub(b.Min)
	return size[0]*size[1] + size[1]*size[2] + size[2]*size[0]
}

// IsEmpty returns true if the box has not been grown by any point.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Contains returns true if p lies inside or on the boundary of the box.
func (b AABB) Contains(p types.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// ContainsAABB returns true if other lies completely inside the box. An empty
// box is contained by every box.
func (b AABB) ContainsAABB(other AABB) bool {
	if other.IsEmpty() {
		return true
	}
	return b.Contains(other.Min) && b.Contains(other.Max)
}

// Center returns the box midpoint.
func (b AABB) Center() types.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Corners returns the 8 box corners.
func (b AABB) Corners() [8]types.Vec3 {
	lo, hi := b.Min, b.Max
	return [8]types.Vec3{
		{lo[0], lo[1], lo[2]},
		{hi[0], lo[1], lo[2]},
		{hi[0], lo[1], hi[2]},
		{lo[0], lo[1], hi[2]},
		{lo[0], hi[1], lo[2]},
		{hi[0], hi[1], lo[2]},
		{hi[0], hi[1], hi[2]},
		{lo[0], hi[1], hi[2]},
	}
}

// Transform returns the box enclosing all 8 transformed corners. Transforming
// only min and max is not enough once rotation is involved.
func (b AABB) Transform(m types.Mat4) AABB {
	if b.IsEmpty() {
		return b
	}
	out := EmptyAABB()
	for _, c := range b.Corners() {
		out.Grow(m.TransformPoint(c))
	}
	return out
}

// Hit performs a slab test against the box.
func (b AABB) Hit(ray *Ray) bool {
	return SlabTest(b.Min, b.Max, ray)
}
