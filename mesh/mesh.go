package mesh

import (
	"fmt"

	"github.com/achilleasa/raycore/bvh"
	"github.com/achilleasa/raycore/geometry"
	"github.com/achilleasa/raycore/log"
	"github.com/achilleasa/raycore/types"
)

// Per-triangle data. The builder permutes the triangle slice so every field
// a triangle owns moves together.
type Triangle struct {
	// Indices into the mesh position arrays.
	Indices [3]uint32

	// Object space normal and centroid.
	Normal   types.Vec3
	Centroid types.Vec3

	// Normal and centroid after applying the mesh transform.
	TransformedNormal   types.Vec3
	TransformedCentroid types.Vec3
}

// A triangle mesh with an optional BVH over its transformed triangles.
type TriangleMesh struct {
	Name string

	// Object space and transformed vertex positions.
	Positions            []types.Vec3
	TransformedPositions []types.Vec3

	Triangles []Triangle

	CullMode      geometry.CullMode
	MaterialIndex uint8

	// Transform components. Points are scaled, then rotated about the Y
	// axis and finally translated.
	translation types.Vec3
	yaw         float32
	scale       types.Vec3
	transform   types.Mat4

	// Object space bounds and the bounds of the transformed mesh.
	bounds            geometry.AABB
	transformedBounds geometry.AABB

	useBVH       bool
	bvhOptions   bvh.Options
	tree         bvh.Tree
	needsRebuild bool

	logger log.Logger
}

// Create a new mesh from a list of positions and triangle index triples.
// If normals is empty, face normals are calculated from the vertex winding;
// otherwise one normal per triangle is expected.
func New(positions []types.Vec3, indices []int, normals []types.Vec3, cullMode geometry.CullMode) (*TriangleMesh, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w (got %d indices)", ErrIndexCount, len(indices))
	}

	triCount := len(indices) / 3
	if len(normals) != 0 && len(normals) != triCount {
		return nil, fmt.Errorf("%w (expected %d; got %d)", ErrNormalCount, triCount, len(normals))
	}

	m := &TriangleMesh{
		Positions:            append([]types.Vec3(nil), positions...),
		TransformedPositions: make([]types.Vec3, len(positions)),
		Triangles:            make([]Triangle, triCount),
		CullMode:             cullMode,
		scale:                types.Vec3{1, 1, 1},
		transform:            types.Ident4(),
		needsRebuild:         true,
		logger:               log.New("mesh"),
	}

	for triIndex := range m.Triangles {
		tri := &m.Triangles[triIndex]
		for v := 0; v < 3; v++ {
			index := indices[triIndex*3+v]
			if index < 0 || index >= len(positions) {
				return nil, fmt.Errorf("%w (triangle %d references vertex %d; vertex count %d)", ErrIndexRange, triIndex, index, len(positions))
			}
			tri.Indices[v] = uint32(index)
		}
		if len(normals) != 0 {
			tri.Normal = normals[triIndex].Normalize()
		}
	}

	if len(normals) == 0 {
		m.CalculateNormals()
	}
	m.calculateCentroids()
	m.updateObjectBounds()
	m.UpdateTransforms()

	return m, nil
}

// EnableBVH switches the mesh to BVH accelerated queries. The tree is built
// using opts on the next call to BuildOrRefit.
func (m *TriangleMesh) EnableBVH(opts bvh.Options) {
	m.useBVH = true
	m.bvhOptions = opts
	m.needsRebuild = true
}

// UsesBVH returns true if queries go through the mesh BVH.
func (m *TriangleMesh) UsesBVH() bool {
	return m.useBVH
}

// Tree returns the mesh BVH.
func (m *TriangleMesh) Tree() *bvh.Tree {
	return &m.tree
}

// Bounds returns the box enclosing the transformed mesh.
func (m *TriangleMesh) Bounds() geometry.AABB {
	return m.transformedBounds
}

// Transform returns the current transformation matrix.
func (m *TriangleMesh) Transform() types.Mat4 {
	return m.transform
}

// Set the translation component of the transform.
func (m *TriangleMesh) Translate(translation types.Vec3) {
	m.translation = translation
}

// Set the rotation about the Y axis (in radians).
func (m *TriangleMesh) RotateY(yaw float32) {
	m.yaw = yaw
}

// Set the scale component of the transform.
func (m *TriangleMesh) Scale(scale types.Vec3) {
	m.scale = scale
}

// AppendTriangle adds a triangle with its own copy of the vertices. Batch
// appends can set deferTransformUpdate and call UpdateTransforms once done.
func (m *TriangleMesh) AppendTriangle(tri geometry.Triangle, deferTransformUpdate bool) {
	first := uint32(len(m.Positions))
	m.Positions = append(m.Positions, tri.V0, tri.V1, tri.V2)
	m.TransformedPositions = append(m.TransformedPositions, types.Vec3{}, types.Vec3{}, types.Vec3{})

	normal := tri.Normal.Normalize()
	if normal == (types.Vec3{}) {
		normal = faceNormal(tri.V0, tri.V1, tri.V2)
	}
	m.Triangles = append(m.Triangles, Triangle{
		Indices:  [3]uint32{first, first + 1, first + 2},
		Normal:   normal,
		Centroid: tri.Centroid(),
	})

	for _, v := range tri.Vertices() {
		m.bounds.Grow(v)
	}
	m.needsRebuild = true

	if !deferTransformUpdate {
		m.UpdateTransforms()
	}
}

// CalculateNormals replaces all object space normals with face normals
// derived from the vertex winding.
func (m *TriangleMesh) CalculateNormals() {
	for i := range m.Triangles {
		tri := &m.Triangles[i]
		tri.Normal = faceNormal(
			m.Positions[tri.Indices[0]],
			m.Positions[tri.Indices[1]],
			m.Positions[tri.Indices[2]],
		)
	}
}

func faceNormal(v0, v1, v2 types.Vec3) types.Vec3 {
	return v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
}

func (m *TriangleMesh) calculateCentroids() {
	for i := range m.Triangles {
		tri := &m.Triangles[i]
		tri.Centroid = m.Positions[tri.Indices[0]].
			Add(m.Positions[tri.Indices[1]]).
			Add(m.Positions[tri.Indices[2]]).
			Mul(1.0 / 3.0)
	}
}

func (m *TriangleMesh) updateObjectBounds() {
	m.bounds = geometry.EmptyAABB()
	for _, p := range m.Positions {
		m.bounds.Grow(p)
	}
}

// UpdateTransforms composes the transform matrix from its components,
// recalculates all transformed data and then updates the mesh bounds.
func (m *TriangleMesh) UpdateTransforms() {
	m.transform = types.Translate4(m.translation).
		Mul4(types.RotateY4(m.yaw)).
		Mul4(types.Scale4(m.scale))

	for i, p := range m.Positions {
		m.TransformedPositions[i] = m.transform.TransformPoint(p)
	}

	for i := range m.Triangles {
		tri := &m.Triangles[i]
		tri.TransformedCentroid = m.transform.TransformPoint(tri.Centroid)
		tri.TransformedNormal = m.transform.TransformVector(tri.Normal).Normalize()
	}

	m.BuildOrRefit()
}

// BuildOrRefit brings the mesh bounds up to date with the transformed
// positions. Meshes without a BVH transform the 8 corners of their object
// space box. Meshes with a BVH build the tree on the first call or after
// the triangle list changed and refit it otherwise.
func (m *TriangleMesh) BuildOrRefit() {
	if !m.useBVH {
		m.transformedBounds = m.bounds.Transform(m.transform)
		return
	}

	prims := triangleSet{m}
	if m.needsRebuild {
		m.tree.Rebuild(prims, m.bvhOptions)
		m.needsRebuild = false
		m.logger.Debugf("%s: built BVH for %d triangles (%d nodes)", m.label(), len(m.Triangles), m.tree.NodesUsed)
	} else {
		m.tree.Refit(prims)
	}
	m.transformedBounds = m.tree.Root().BBox()
}

func (m *TriangleMesh) label() string {
	if m.Name == "" {
		return "mesh"
	}
	return m.Name
}

// Triangle returns triangle i in world space as a primitive that can be
// passed to the intersection kernels.
func (m *TriangleMesh) Triangle(i int) geometry.Triangle {
	tri := &m.Triangles[i]
	return geometry.Triangle{
		V0:            m.TransformedPositions[tri.Indices[0]],
		V1:            m.TransformedPositions[tri.Indices[1]],
		V2:            m.TransformedPositions[tri.Indices[2]],
		Normal:        tri.TransformedNormal,
		CullMode:      m.CullMode,
		MaterialIndex: m.MaterialIndex,
	}
}

// Adapts the mesh triangles to the bvh.PrimitiveSet interface.
type triangleSet struct {
	m *TriangleMesh
}

func (s triangleSet) Len() int {
	return len(s.m.Triangles)
}

func (s triangleSet) Centroid(i int) types.Vec3 {
	return s.m.Triangles[i].TransformedCentroid
}

func (s triangleSet) GrowBounds(i int, box *geometry.AABB) {
	tri := &s.m.Triangles[i]
	box.Grow(s.m.TransformedPositions[tri.Indices[0]])
	box.Grow(s.m.TransformedPositions[tri.Indices[1]])
	box.Grow(s.m.TransformedPositions[tri.Indices[2]])
}

func (s triangleSet) Swap(i, j int) {
	s.m.Triangles[i], s.m.Triangles[j] = s.m.Triangles[j], s.m.Triangles[i]
}

// Clone returns a deep copy of the mesh, including its BVH.
func (m *TriangleMesh) Clone() *TriangleMesh {
	clone := *m
	clone.Positions = append([]types.Vec3(nil), m.Positions...)
	clone.TransformedPositions = append([]types.Vec3(nil), m.TransformedPositions...)
	clone.Triangles = append([]Triangle(nil), m.Triangles...)
	clone.tree.Nodes = append([]bvh.Node(nil), m.tree.Nodes...)
	return &clone
}

// Rebuild discards the BVH topology and builds a new tree over the
// current transformed triangles.
func (m *TriangleMesh) Rebuild() {
	m.needsRebuild = true
	m.BuildOrRefit()
}

// Validate checks that every BVH node box encloses the triangles or child
// boxes it is responsible for.
func (m *TriangleMesh) Validate() error {
	if !m.useBVH {
		for i := range m.Triangles {
			tri := m.Triangle(i)
			for _, v := range tri.Vertices() {
				if !m.transformedBounds.Contains(v) {
					return fmt.Errorf("mesh %s: bounds %v do not contain triangle %d", m.label(), m.transformedBounds, i)
				}
			}
		}
		return nil
	}

	prims := triangleSet{m}
	for i := uint32(0); i < m.tree.NodesUsed; i++ {
		node := &m.tree.Nodes[i]
		box := node.BBox()
		if node.IsLeaf() {
			first, count := node.Primitives()
			for p := first; p < first+count; p++ {
				triBox := geometry.EmptyAABB()
				prims.GrowBounds(int(p), &triBox)
				if !box.ContainsAABB(triBox) {
					return fmt.Errorf("mesh %s: leaf %d does not contain triangle %d", m.label(), i, p)
				}
			}
			continue
		}

		left, right := node.ChildNodes()
		if !box.ContainsAABB(m.tree.Nodes[left].BBox()) || !box.ContainsAABB(m.tree.Nodes[right].BBox()) {
			return fmt.Errorf("mesh %s: node %d does not contain its children", m.label(), i)
		}
	}
	return nil
}
