package geometry

import (
	"github.com/achilleasa/raycore/types"
	"github.com/chewxy/math32"
)

// Determinants closer to zero than this are treated as a ray running
// parallel to the triangle plane.
const determinantEpsilon float32 = 1.1920929e-7

// HitSphere tests the ray against a sphere and updates rec if the hit is
// closer than the one already recorded. It returns true if rec was updated.
func HitSphere(sphere *Sphere, ray *Ray, rec *HitRecord) bool {
	t, ok := intersectSphere(sphere, ray)
	if !ok || !(t < rec.T) {
		return false
	}

	rec.T = t
	rec.DidHit = true
	rec.MaterialIndex = sphere.MaterialIndex
	rec.Origin = ray.At(t)
	rec.Normal = rec.Origin.Sub(sphere.Origin).Normalize()
	return true
}

// AnyHitSphere returns true if the ray hits the sphere within its range.
func AnyHitSphere(sphere *Sphere, ray *Ray) bool {
	_, ok := intersectSphere(sphere, ray)
	return ok
}

func intersectSphere(sphere *Sphere, ray *Ray) (float32, bool) {
	toCenter := sphere.Origin.Sub(ray.Origin)
	dir := ray.Direction.Normalize()

	// Sphere center is behind the ray origin
	projLen := dir.Dot(toCenter)
	if projLen < 0 {
		return 0, false
	}

	// Squared distance between the sphere center and the ray line
	perpDistSq := toCenter.SqrLen() - projLen*projLen
	radiusSq := sphere.Radius * sphere.Radius
	if perpDistSq > radiusSq {
		return 0, false
	}

	t := projLen - math32.Sqrt(radiusSq-perpDistSq)
	if !(t >= ray.Min && t <= ray.Max) {
		return 0, false
	}
	return t, true
}

// HitPlane tests the ray against a plane and updates rec if the hit is
// closer than the one already recorded. It returns true if rec was updated.
func HitPlane(plane *Plane, ray *Ray, rec *HitRecord) bool {
	t, ok := intersectPlane(plane, ray)
	if !ok || !(t < rec.T) {
		return false
	}

	rec.T = t
	rec.DidHit = true
	rec.MaterialIndex = plane.MaterialIndex
	rec.Origin = ray.At(t)
	rec.Normal = plane.Normal.Normalize()
	return true
}

// AnyHitPlane returns true if the ray hits the plane within its range.
func AnyHitPlane(plane *Plane, ray *Ray) bool {
	_, ok := intersectPlane(plane, ray)
	return ok
}

func intersectPlane(plane *Plane, ray *Ray) (float32, bool) {
	// Parallel rays produce ±Inf or NaN which fail the range check below.
	t := plane.Origin.Sub(ray.Origin).Dot(plane.Normal) / ray.Direction.Dot(plane.Normal)
	if !(t > ray.Min && t < ray.Max) {
		return 0, false
	}
	return t, true
}

// HitTriangle tests the ray against a triangle using the Möller-Trumbore
// algorithm and updates rec if the hit is closer than the one already
// recorded. It returns true if rec was updated.
func HitTriangle(tri *Triangle, ray *Ray, rec *HitRecord) bool {
	t, ok := intersectTriangle(tri, ray, false)
	if !ok || !(t < rec.T) {
		return false
	}

	rec.T = t
	rec.DidHit = true
	rec.MaterialIndex = tri.MaterialIndex
	rec.Origin = ray.At(t)
	rec.Normal = tri.Normal
	return true
}

// AnyHitTriangle returns true if the ray hits the triangle within its range.
func AnyHitTriangle(tri *Triangle, ray *Ray) bool {
	_, ok := intersectTriangle(tri, ray, true)
	return ok
}

func intersectTriangle(tri *Triangle, ray *Ray, anyHit bool) (float32, bool) {
	edge1 := tri.V1.Sub(tri.V0)
	edge2 := tri.V2.Sub(tri.V0)

	p := ray.Direction.Cross(edge2)
	det := p.Dot(edge1)

	// A positive determinant means the ray sees the side opposite to
	// cross(edge1, edge2), i.e. the face wound clockwise towards the viewer.
	switch tri.CullMode {
	case FrontFaceCulling:
		if anyHit {
			if det < determinantEpsilon {
				return 0, false
			}
		} else if det <= determinantEpsilon {
			return 0, false
		}
	case BackFaceCulling:
		if anyHit {
			if det > -determinantEpsilon {
				return 0, false
			}
		} else if det >= -determinantEpsilon {
			return 0, false
		}
	default:
		if det > -determinantEpsilon && det < determinantEpsilon {
			return 0, false
		}
	}

	invDet := 1.0 / det
	s := ray.Origin.Sub(tri.V0)
	u := invDet * s.Dot(p)
	if !(u >= 0 && u <= 1) {
		return 0, false
	}

	q := s.Cross(edge1)
	v := invDet * ray.Direction.Dot(q)
	if !(v >= 0 && u+v <= 1) {
		return 0, false
	}

	t := invDet * edge2.Dot(q)
	if !(t >= ray.Min && t <= ray.Max) {
		return 0, false
	}
	return t, true
}

// SlabTest checks whether the ray line hits the [min, max] box. The test
// treats the ray as infinite: ray.Max is ignored and boxes entirely behind
// the origin are rejected. Empty (inverted) boxes never hit.
func SlabTest(min, max types.Vec3, ray *Ray) bool {
	if min[0] > max[0] {
		return false
	}

	tmin, tmax := math32.Inf(-1), math32.Inf(1)
	for axis := 0; axis < 3; axis++ {
		entry, exit := slab(min[axis], max[axis], ray.Origin[axis], ray.ReciprocalDir[axis])
		tmin = maxf(tmin, entry)
		tmax = minf(tmax, exit)
	}

	return tmax > 0 && tmax >= tmin
}

// Return the entry and exit distances for a single axis slab. Rays parallel
// to the slab either run inside it for their whole length or never enter
// it; computing the distances would yield 0 * Inf for origins on a face.
func slab(lo, hi, origin, invDir float32) (float32, float32) {
	if math32.IsInf(invDir, 0) {
		if origin < lo || origin > hi {
			return math32.Inf(1), math32.Inf(-1)
		}
		return math32.Inf(-1), math32.Inf(1)
	}

	t1 := (lo - origin) * invDir
	t2 := (hi - origin) * invDir
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	return t1, t2
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
