package geometry

import (
	"fmt"
	"strings"

	"github.com/achilleasa/raycore/types"
)

// The triangle face culling mode.
type CullMode uint8

const (
	BackFaceCulling CullMode = iota
	FrontFaceCulling
	NoCulling
)

// String implements fmt.Stringer.
func (m CullMode) String() string {
	switch m {
	case FrontFaceCulling:
		return "front"
	case BackFaceCulling:
		return "back"
	case NoCulling:
		return "none"
	}
	return fmt.Sprintf("CullMode(%d)", uint8(m))
}

// Parse a cull mode name (front, back or none).
func ParseCullMode(name string) (CullMode, error) {
	switch strings.ToLower(name) {
	case "front":
		return FrontFaceCulling, nil
	case "back":
		return BackFaceCulling, nil
	case "none":
		return NoCulling, nil
	}
	return NoCulling, fmt.Errorf("geometry: unknown cull mode %q", name)
}

// A sphere primitive.
type Sphere struct {
	Origin        types.Vec3
	Radius        float32
	MaterialIndex uint8
}

// Bounds returns the sphere AABB.
func (s *Sphere) Bounds() AABB {
	r := types.Splat3(s.Radius)
	return AABB{Min: s.Origin.Sub(r), Max: s.Origin.Add(r)}
}

// An infinite plane primitive.
type Plane struct {
	Origin        types.Vec3
	Normal        types.Vec3
	MaterialIndex uint8
}

// A triangle primitive. The normal is supplied by the caller (meshes pass
// their precomputed transformed normal) instead of being derived from the
// vertices on every test.
type Triangle struct {
	V0, V1, V2 types.Vec3
	Normal     types.Vec3

	CullMode      CullMode
	MaterialIndex uint8
}

// Create a triangle and derive its normal from the vertex winding.
func NewTriangle(v0, v1, v2 types.Vec3, cullMode CullMode, materialIndex uint8) Triangle {
	return Triangle{
		V0:            v0,
		V1:            v1,
		V2:            v2,
		Normal:        v1.Sub(v0).Cross(v2.Sub(v0)).Normalize(),
		CullMode:      cullMode,
		MaterialIndex: materialIndex,
	}
}

// Centroid returns the triangle centroid.
func (t *Triangle) Centroid() types.Vec3 {
	return t.V0.Add(t.V1).Add(t.V2).Mul(1.0 / 3.0)
}

// Vertices returns the triangle vertices as an array.
func (t *Triangle) Vertices() [3]types.Vec3 {
	return [3]types.Vec3{t.V0, t.V1, t.V2}
}
