package geometry

import (
	"math"

	"github.com/achilleasa/raycore/types"
	"github.com/chewxy/math32"
)

const (
	// The default minimum hit distance. It keeps secondary rays from
	// re-hitting the surface they were spawned from.
	DefaultRayMin float32 = 1e-4

	// The default maximum hit distance.
	DefaultRayMax float32 = math.MaxFloat32
)

// A ray with a cached reciprocal direction used by the slab test. Directions
// are expected to be unit length.
type Ray struct {
	Origin        types.Vec3
	Direction     types.Vec3
	ReciprocalDir types.Vec3

	Min float32
	Max float32
}

// Create a ray with the default [min, max] range.
func NewRay(origin, direction types.Vec3) Ray {
	return Ray{
		Origin:        origin,
		Direction:     direction,
		ReciprocalDir: direction.Reciprocal(),
		Min:           DefaultRayMin,
		Max:           DefaultRayMax,
	}
}

// SetDirection updates the ray direction and its cached reciprocal.
func (r *Ray) SetDirection(direction types.Vec3) {
	r.Direction = direction
	r.ReciprocalDir = direction.Reciprocal()
}

// At returns the point at distance t along the ray.
func (r *Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// The result of a closest-hit query.
type HitRecord struct {
	Origin types.Vec3
	Normal types.Vec3

	// Distance to the hit. Starts at +Inf and only ever decreases.
	T float32

	DidHit        bool
	MaterialIndex uint8
}

// Create an empty hit record.
func NewHitRecord() HitRecord {
	return HitRecord{T: math32.Inf(1)}
}

// Reset the record so it can be reused for another query.
func (h *HitRecord) Reset() {
	*h = NewHitRecord()
}
