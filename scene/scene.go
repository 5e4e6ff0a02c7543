package scene

import (
	"sync"

	"github.com/achilleasa/raycore/geometry"
	"github.com/achilleasa/raycore/mesh"
)

// A scene holding the geometry that rays are tested against.
//
// Geometry may only be mutated through Update. Update holds the write lock
// while it runs so queries never observe a partially refitted mesh.
type Scene struct {
	mu sync.RWMutex

	Spheres []geometry.Sphere
	Planes  []geometry.Plane
	Meshes  []*mesh.TriangleMesh

	// Coarse boxes per primitive class. Planes are unbounded and always tested.
	sphereBounds geometry.AABB
	meshBounds   geometry.AABB
}

// Create an empty scene.
func New() *Scene {
	return &Scene{
		sphereBounds: geometry.EmptyAABB(),
		meshBounds:   geometry.EmptyAABB(),
	}
}

// Add a sphere to the scene.
func (s *Scene) AddSphere(sphere geometry.Sphere) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Spheres = append(s.Spheres, sphere)
	s.sphereBounds.GrowAABB(sphere.Bounds())
}

// Add a plane to the scene.
func (s *Scene) AddPlane(plane geometry.Plane) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plane.Normal = plane.Normal.Normalize()
	s.Planes = append(s.Planes, plane)
}

// Add a mesh to the scene. The mesh bounds must be up to date.
func (s *Scene) AddMesh(m *mesh.TriangleMesh) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Meshes = append(s.Meshes, m)
	s.meshBounds.GrowAABB(m.Bounds())
}

// Update runs fn with exclusive access to the scene geometry and then
// refreshes the per-class bounds. Mesh transform changes and refits belong
// inside fn.
func (s *Scene) Update(fn func(*Scene)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fn != nil {
		fn(s)
	}

	s.sphereBounds = geometry.EmptyAABB()
	for i := range s.Spheres {
		s.sphereBounds.GrowAABB(s.Spheres[i].Bounds())
	}

	s.meshBounds = geometry.EmptyAABB()
	for _, m := range s.Meshes {
		s.meshBounds.GrowAABB(m.Bounds())
	}
}

// ClosestHit returns the closest hit along the ray. The returned record has
// DidHit set to false if nothing was hit.
func (s *Scene) ClosestHit(ray *geometry.Ray) geometry.HitRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec := geometry.NewHitRecord()

	if s.sphereBounds.Hit(ray) {
		for i := range s.Spheres {
			geometry.HitSphere(&s.Spheres[i], ray, &rec)
		}
	}

	for i := range s.Planes {
		geometry.HitPlane(&s.Planes[i], ray, &rec)
	}

	if s.meshBounds.Hit(ray) {
		for _, m := range s.Meshes {
			m.Hit(ray, &rec)
		}
	}

	return rec
}

// AnyHit returns true if anything blocks the ray within its range.
func (s *Scene) AnyHit(ray *geometry.Ray) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sphereBounds.Hit(ray) {
		for i := range s.Spheres {
			if geometry.AnyHitSphere(&s.Spheres[i], ray) {
				return true
			}
		}
	}

	for i := range s.Planes {
		if geometry.AnyHitPlane(&s.Planes[i], ray) {
			return true
		}
	}

	if s.meshBounds.Hit(ray) {
		for _, m := range s.Meshes {
			if m.AnyHit(ray) {
				return true
			}
		}
	}

	return false
}

// Bounds returns the box enclosing all bounded primitives.
func (s *Scene) Bounds() geometry.AABB {
	s.mu.RLock()
	defer s.mu.RUnlock()

	box := s.sphereBounds
	box.GrowAABB(s.meshBounds)
	return box
}

// Count primitives by class.
func (s *Scene) Counts() (spheres, planes, meshes, triangles int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.Meshes {
		triangles += len(m.Triangles)
	}
	return len(s.Spheres), len(s.Planes), len(s.Meshes), triangles
}
