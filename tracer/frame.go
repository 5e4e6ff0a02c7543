package tracer

import (
	"fmt"

	"github.com/achilleasa/raycore/geometry"
	"github.com/achilleasa/raycore/types"
)

// Create a frame of parallel rays looking down the given axis (0: x,
// 1: y, 2: z). The ray grid covers the projection of bounds and rays start
// outside the box. Empty bounds are replaced by the box [-1, 1].
func NewOrthographicFrame(bounds geometry.AABB, width, height uint32, axis int, query QueryType) (*Frame, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("tracer: invalid frame dimensions %dx%d", width, height)
	}
	if axis < 0 || axis > 2 {
		return nil, fmt.Errorf("tracer: invalid axis %d", axis)
	}

	if bounds.IsEmpty() {
		bounds = geometry.AABB{Min: types.Splat3(-1), Max: types.Splat3(1)}
	}
	extent := bounds.Max.Sub(bounds.Min)

	uAxis, vAxis := (axis+1)%3, (axis+2)%3
	var dir types.Vec3
	dir[axis] = 1

	frame := NewFrame(width, height, query)
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			var origin types.Vec3
			origin[axis] = bounds.Min[axis] - extent[axis] - 1
			origin[uAxis] = bounds.Min[uAxis] + (float32(x)+0.5)/float32(width)*extent[uAxis]
			origin[vAxis] = bounds.Max[vAxis] - (float32(y)+0.5)/float32(height)*extent[vAxis]
			frame.Rays[y*width+x] = geometry.NewRay(origin, dir)
		}
	}
	return frame, nil
}
