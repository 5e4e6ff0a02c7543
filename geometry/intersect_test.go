package geometry

import (
	"math"
	"testing"

	"github.com/achilleasa/raycore/types"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSphereHit(t *testing.T) {
	sphere := &Sphere{Origin: types.XYZ(0, 0, 0), Radius: 1, MaterialIndex: 3}
	ray := NewRay(types.XYZ(0, 0, -5), types.XYZ(0, 0, 1))
	rec := NewHitRecord()

	require.True(t, HitSphere(sphere, &ray, &rec))
	assert.True(t, rec.DidHit)
	assert.InDelta(t, 4.0, rec.T, 1e-5)
	assert.True(t, rec.Origin.ApproxEqual(types.XYZ(0, 0, -1), 1e-5), "hit point %v", rec.Origin)
	assert.True(t, rec.Normal.ApproxEqual(types.XYZ(0, 0, -1), 1e-5), "normal %v", rec.Normal)
	assert.Equal(t, uint8(3), rec.MaterialIndex)

	// A farther sphere must not overwrite the closer hit
	far := &Sphere{Origin: types.XYZ(0, 0, 10), Radius: 1, MaterialIndex: 4}
	assert.False(t, HitSphere(far, &ray, &rec))
	assert.Equal(t, uint8(3), rec.MaterialIndex)
	assert.True(t, AnyHitSphere(far, &ray))
}

func TestSphereMiss(t *testing.T) {
	type spec struct {
		origin types.Vec3
		dir    types.Vec3
		max    float32
	}
	specs := []spec{
		// sphere behind the ray
		{types.XYZ(0, 0, 5), types.XYZ(0, 0, 1), DefaultRayMax},
		// passes beside the sphere
		{types.XYZ(2, 0, -5), types.XYZ(0, 0, 1), DefaultRayMax},
		// hit beyond ray max
		{types.XYZ(0, 0, -5), types.XYZ(0, 0, 1), 3},
	}

	sphere := &Sphere{Radius: 1}
	for index, s := range specs {
		ray := NewRay(s.origin, s.dir)
		ray.Max = s.max
		rec := NewHitRecord()
		if HitSphere(sphere, &ray, &rec) || rec.DidHit {
			t.Fatalf("[spec %d] expected no hit; got %+v", index, rec)
		}
		if AnyHitSphere(sphere, &ray) {
			t.Fatalf("[spec %d] expected any-hit query to miss", index)
		}
	}
}

func TestPlaneHit(t *testing.T) {
	plane := &Plane{Origin: types.XYZ(0, 0, 10), Normal: types.XYZ(0, 0, -2), MaterialIndex: 1}
	ray := NewRay(types.XYZ(0, 0, -5), types.XYZ(0, 0, 1))
	rec := NewHitRecord()

	require.True(t, HitPlane(plane, &ray, &rec))
	assert.InDelta(t, 15.0, rec.T, 1e-5)
	assert.Equal(t, types.XYZ(0, 0, -1), rec.Normal)
	assert.True(t, AnyHitPlane(plane, &ray))
}

func TestPlaneParallelRayIsRejected(t *testing.T) {
	plane := &Plane{Origin: types.XYZ(0, 0, 10), Normal: types.XYZ(0, 0, -1)}

	specs := []Ray{
		// dot(dir, normal) == 0 yields -Inf
		NewRay(types.XYZ(0, 0, -5), types.XYZ(1, 0, 0)),
		// ray lies inside the plane: 0/0 yields NaN
		NewRay(types.XYZ(0, 0, 10), types.XYZ(1, 0, 0)),
	}

	for index, ray := range specs {
		rec := NewHitRecord()
		if HitPlane(plane, &ray, &rec) || AnyHitPlane(plane, &ray) {
			t.Fatalf("[spec %d] expected parallel ray to miss", index)
		}
		if !math32.IsInf(rec.T, 1) {
			t.Fatalf("[spec %d] expected record to stay untouched; got t=%f", index, rec.T)
		}
	}
}

func TestTriangleRoundTrip(t *testing.T) {
	v0, v1, v2 := types.XYZ(-1, 0, 0), types.XYZ(1, 0, 0), types.XYZ(0, 2, 0)
	tri := NewTriangle(v0, v1, v2, NoCulling, 2)

	type spec struct {
		origin types.Vec3
		target types.Vec3
	}
	specs := []spec{
		// through a vertex
		{types.XYZ(0, 2, -5), v2},
		// through an edge midpoint
		{types.XYZ(0, 0, -5), types.XYZ(0, 0, 0)},
		// slanted ray through the interior
		{types.XYZ(1, 1, -4), types.XYZ(0, 1, 0)},
		// from the other side
		{types.XYZ(0.1, 0.5, 3), types.XYZ(0.1, 0.5, 0)},
	}

	for index, s := range specs {
		toTarget := s.target.Sub(s.origin)
		ray := NewRay(s.origin, toTarget.Normalize())
		rec := NewHitRecord()

		require.True(t, HitTriangle(&tri, &ray, &rec), "spec %d", index)
		assert.InDelta(t, toTarget.Len(), rec.T, 1e-4, "spec %d", index)
		assert.True(t, rec.Origin.ApproxEqual(s.target, 1e-4), "spec %d: hit point %v", index, rec.Origin)
		assert.Equal(t, tri.Normal, rec.Normal)
		assert.Equal(t, uint8(2), rec.MaterialIndex)
	}
}

func TestTriangleCullModes(t *testing.T) {
	v0, v1, v2 := types.XYZ(-1, 0, 0), types.XYZ(1, 0, 0), types.XYZ(0, 2, 0)
	// Looking down +z the vertices appear clockwise; looking down -z they
	// appear counter-clockwise.
	fromFront := NewRay(types.XYZ(0, 1, -5), types.XYZ(0, 0, 1))
	fromBack := NewRay(types.XYZ(0, 1, 5), types.XYZ(0, 0, -1))

	type spec struct {
		mode     CullMode
		ray      Ray
		expHit   bool
		expShade bool
	}
	specs := []spec{
		{BackFaceCulling, fromFront, true, true},
		{BackFaceCulling, fromBack, false, false},
		{FrontFaceCulling, fromFront, false, false},
		{FrontFaceCulling, fromBack, true, true},
		{NoCulling, fromFront, true, true},
		{NoCulling, fromBack, true, true},
	}

	for index, s := range specs {
		tri := NewTriangle(v0, v1, v2, s.mode, 0)
		rec := NewHitRecord()
		if got := HitTriangle(&tri, &s.ray, &rec); got != s.expHit {
			t.Fatalf("[spec %d] expected hit to be %t for cull mode %s; got %t", index, s.expHit, s.mode, got)
		}
		if got := AnyHitTriangle(&tri, &s.ray); got != s.expShade {
			t.Fatalf("[spec %d] expected any-hit to be %t for cull mode %s; got %t", index, s.expShade, s.mode, got)
		}
	}
}

func TestTriangleCullThreshold(t *testing.T) {
	// Edges chosen so the determinant is exactly ±determinantEpsilon and
	// the hit lies inside the triangle at t = 1.
	tri := Triangle{
		V0: types.XYZ(0, 0, 0),
		V1: types.XYZ(1, 0, 0),
		V2: types.XYZ(0, -determinantEpsilon, 0),
	}
	y := -determinantEpsilon / 4
	positiveDet := NewRay(types.XYZ(0.25, y, -1), types.XYZ(0, 0, 1))
	negativeDet := NewRay(types.XYZ(0.25, y, 1), types.XYZ(0, 0, -1))

	type spec struct {
		mode      CullMode
		ray       Ray
		expRecord bool
		expAnyHit bool
	}
	specs := []spec{
		{FrontFaceCulling, positiveDet, false, true},
		{BackFaceCulling, negativeDet, false, true},
		{FrontFaceCulling, negativeDet, false, false},
		{BackFaceCulling, positiveDet, false, false},
		{NoCulling, positiveDet, true, true},
		{NoCulling, negativeDet, true, true},
	}

	for index, s := range specs {
		tri.CullMode = s.mode

		tVal, got := intersectTriangle(&tri, &s.ray, false)
		if got != s.expRecord {
			t.Fatalf("[spec %d] expected record mode hit to be %t for cull mode %s; got %t", index, s.expRecord, s.mode, got)
		}
		if got {
			assert.InDelta(t, 1.0, tVal, 1e-6, "spec %d", index)
		}

		if _, got = intersectTriangle(&tri, &s.ray, true); got != s.expAnyHit {
			t.Fatalf("[spec %d] expected any-hit mode hit to be %t for cull mode %s; got %t", index, s.expAnyHit, s.mode, got)
		}
	}
}

func TestTriangleCullModeSymmetry(t *testing.T) {
	v0, v1, v2 := types.XYZ(-1, 0, 0), types.XYZ(1, 0, 0), types.XYZ(0, 2, 0)
	rays := []Ray{
		NewRay(types.XYZ(0, 1, -5), types.XYZ(0, 0, 1)),
		NewRay(types.XYZ(0, 1, 5), types.XYZ(0, 0, -1)),
		NewRay(types.XYZ(0.2, 0.3, -2), types.XYZ(0, 0.1, 1).Normalize()),
		NewRay(types.XYZ(3, 3, 3), types.XYZ(0, 0, -1)),
	}

	front := Triangle{V0: v0, V1: v1, V2: v2, CullMode: FrontFaceCulling}
	swapped := Triangle{V0: v0, V1: v2, V2: v1, CullMode: BackFaceCulling}

	for index, ray := range rays {
		recA, recB := NewHitRecord(), NewHitRecord()
		hitA := HitTriangle(&front, &ray, &recA)
		hitB := HitTriangle(&swapped, &ray, &recB)
		if hitA != hitB || recA.DidHit != recB.DidHit {
			t.Fatalf("[ray %d] expected identical results; got %t and %t", index, hitA, hitB)
		}
		if hitA {
			assert.InDelta(t, recA.T, recB.T, 1e-5, "ray %d", index)
		}
		if AnyHitTriangle(&front, &ray) != AnyHitTriangle(&swapped, &ray) {
			t.Fatalf("[ray %d] expected identical any-hit results", index)
		}
	}
}

func TestTriangleParallelRay(t *testing.T) {
	tri := NewTriangle(types.XYZ(-1, 0, 0), types.XYZ(1, 0, 0), types.XYZ(0, 2, 0), NoCulling, 0)
	ray := NewRay(types.XYZ(-5, 1, 0), types.XYZ(1, 0, 0))
	rec := NewHitRecord()

	assert.False(t, HitTriangle(&tri, &ray, &rec))
	assert.False(t, AnyHitTriangle(&tri, &ray))
	assert.False(t, rec.DidHit)
}

func TestSlabTest(t *testing.T) {
	box := AABBFromPoints(types.XYZ(-1, -1, -1), types.XYZ(1, 1, 1))

	type spec struct {
		origin types.Vec3
		dir    types.Vec3
		exp    bool
	}
	specs := []spec{
		{types.XYZ(0, 0, -5), types.XYZ(0, 0, 1), true},
		{types.XYZ(0, 0, -5), types.XYZ(0, 0, -1), false},
		// box behind the origin
		{types.XYZ(0, 0, 5), types.XYZ(0, 0, 1), false},
		// origin inside the box
		{types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), true},
		{types.XYZ(5, 0, -5), types.XYZ(0, 0, 1), false},
		{types.XYZ(-5, -5, -5), types.XYZ(1, 1, 1).Normalize(), true},
		{types.XYZ(-5, 5, -5), types.XYZ(1, 1, 1).Normalize(), false},
	}

	for index, s := range specs {
		ray := NewRay(s.origin, s.dir)
		if got := box.Hit(&ray); got != s.exp {
			t.Fatalf("[spec %d] expected slab test to return %t; got %t", index, s.exp, got)
		}
	}
}

func TestSlabTestParallelRayOnFace(t *testing.T) {
	box := AABBFromPoints(types.XYZ(-1, 0, 0), types.XYZ(1, 2, 0))

	type spec struct {
		origin types.Vec3
		exp    bool
	}
	specs := []spec{
		// on the min and max faces of the x and y slabs
		{types.XYZ(-1, 1, -5), true},
		{types.XYZ(1, 1, -5), true},
		{types.XYZ(0, 0, -5), true},
		{types.XYZ(0, 2, -5), true},
		// corners
		{types.XYZ(-1, 0, -5), true},
		{types.XYZ(1, 2, -5), true},
		// just outside
		{types.XYZ(0, -0.001, -5), false},
		{types.XYZ(1.001, 1, -5), false},
	}

	negZero := float32(math.Copysign(0, -1))
	for _, dir := range []types.Vec3{{0, 0, 1}, {negZero, negZero, 1}} {
		for index, s := range specs {
			ray := NewRay(s.origin, dir)
			if got := SlabTest(box.Min, box.Max, &ray); got != s.exp {
				t.Fatalf("[spec %d] expected slab test for origin %v and dir %v to return %t; got %t", index, s.origin, dir, s.exp, got)
			}
		}
	}
}

func TestSlabTestIgnoresRayMax(t *testing.T) {
	box := AABBFromPoints(types.XYZ(-1, -1, 9), types.XYZ(1, 1, 11))
	ray := NewRay(types.XYZ(0, 0, 0), types.XYZ(0, 0, 1))
	ray.Max = 1
	assert.True(t, SlabTest(box.Min, box.Max, &ray))
}

func TestSlabTestEmptyBox(t *testing.T) {
	empty := EmptyAABB()
	for _, dir := range []types.Vec3{{1, 0, 0}, {0, -1, 0}, {0.3, 0.3, 0.9}} {
		ray := NewRay(types.XYZ(0, 0, 0), dir.Normalize())
		if empty.Hit(&ray) {
			t.Fatalf("expected empty box to never pass the slab test (dir %v)", dir)
		}
	}
}

func TestRaySetDirection(t *testing.T) {
	ray := NewRay(types.XYZ(0, 0, 0), types.XYZ(0, 0, 1))
	ray.SetDirection(types.XYZ(0, 2, 0))
	assert.Equal(t, float32(0.5), ray.ReciprocalDir[1])
	assert.True(t, math32.IsInf(ray.ReciprocalDir[2], 1))
}
