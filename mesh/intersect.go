package mesh

import (
	"github.com/achilleasa/raycore/bvh"
	"github.com/achilleasa/raycore/geometry"
)

// The number of collected leaves that fit in the per-query stack buffer.
// Queries that collect more spill to the heap.
const leafBufferSize = 32

// Hit finds the closest triangle hit and updates rec if it is closer than
// the hit already recorded. It returns true if rec was updated.
func (m *TriangleMesh) Hit(ray *geometry.Ray, rec *geometry.HitRecord) bool {
	hit, _ := m.intersect(ray, rec, false)
	return hit
}

// AnyHit returns true as soon as any triangle is hit.
func (m *TriangleMesh) AnyHit(ray *geometry.Ray) bool {
	hit, _ := m.intersect(ray, nil, true)
	return hit
}

// Run a query and also report the number of triangles tested.
func (m *TriangleMesh) intersect(ray *geometry.Ray, rec *geometry.HitRecord, anyHit bool) (bool, int) {
	if !m.useBVH {
		if !m.transformedBounds.Hit(ray) {
			return false, 0
		}
		return m.intersectRange(ray, rec, anyHit, 0, len(m.Triangles))
	}

	var leafBuf [leafBufferSize]uint32
	leaves := m.tree.CollectLeaves(ray, bvh.RootNodeIdx, leafBuf[:0])

	hit, tests := false, 0
	for _, leafIdx := range leaves {
		first, count := m.tree.Nodes[leafIdx].Primitives()
		leafHit, leafTests := m.intersectRange(ray, rec, anyHit, int(first), int(first+count))
		tests += leafTests
		if !leafHit {
			continue
		}
		hit = true
		if anyHit {
			break
		}
	}
	return hit, tests
}

func (m *TriangleMesh) intersectRange(ray *geometry.Ray, rec *geometry.HitRecord, anyHit bool, from, to int) (bool, int) {
	hit := false
	for i := from; i < to; i++ {
		tri := m.Triangle(i)
		if anyHit {
			if geometry.AnyHitTriangle(&tri, ray) {
				return true, i - from + 1
			}
			continue
		}
		if geometry.HitTriangle(&tri, ray, rec) {
			hit = true
		}
	}
	return hit, to - from
}
