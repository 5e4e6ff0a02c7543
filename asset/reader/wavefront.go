package reader

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/raycore/asset"
	"github.com/achilleasa/raycore/bvh"
	"github.com/achilleasa/raycore/geometry"
	"github.com/achilleasa/raycore/log"
	"github.com/achilleasa/raycore/mesh"
	"github.com/achilleasa/raycore/scene"
	"github.com/achilleasa/raycore/types"
	"github.com/chewxy/math32"
)

// Mesh settings. The reader keeps a current copy that is inherited by
// every new object; directives issued after an object declaration also
// update that object.
type meshSettings struct {
	cullMode      geometry.CullMode
	useBVH        bool
	materialIndex uint8
}

type meshTransform struct {
	translation types.Vec3
	yaw         float32
	scale       types.Vec3
}

// A mesh collected while parsing.
type parsedMesh struct {
	name     string
	settings meshSettings

	transform *meshTransform

	// Positions are copied from the global vertex list the first time a
	// face references them.
	positions   []types.Vec3
	vertexIndex map[int]int

	indices []int
	normals []types.Vec3
}

func newParsedMesh(name string, settings meshSettings) *parsedMesh {
	return &parsedMesh{
		name:        name,
		settings:    settings,
		vertexIndex: make(map[int]int),
	}
}

// Map a global vertex index to a mesh-local one.
func (pm *parsedMesh) localIndex(globalIndex int, vertexList []types.Vec3) int {
	if index, exists := pm.vertexIndex[globalIndex]; exists {
		return index
	}
	pm.positions = append(pm.positions, vertexList[globalIndex])
	index := len(pm.positions) - 1
	pm.vertexIndex[globalIndex] = index
	return index
}

// A reader for wavefront obj files with a few extra scene directives:
//
//	sphere x y z radius [material]
//	plane ox oy oz nx ny nz [material]
//	cull front|back|none
//	bvh on|off
//	material index
//	transform tX tY tZ yaw sX sY sZ
type wavefrontSceneReader struct {
	logger log.Logger

	bvhOpts bvh.Options

	// The parsed scene.
	scene *scene.Scene

	// Parsed meshes.
	meshes []*parsedMesh

	// Current mesh settings.
	settings meshSettings

	// List of vertices and normals.
	vertexList []types.Vec3
	normalList []types.Vec3

	// An error stack that provides additional error information when
	// scene files include other files.
	errStack []string
}

// Create a new wavefront scene reader.
func NewWavefrontReader(bvhOpts bvh.Options) Reader {
	return &wavefrontSceneReader{
		logger:  log.New("wavefront scene reader"),
		bvhOpts: bvhOpts,
		settings: meshSettings{
			cullMode: geometry.BackFaceCulling,
			useBVH:   true,
		},
	}
}

// Read scene definition.
func (r *wavefrontSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	r.scene = scene.New()
	if err := r.parse(sceneRes); err != nil {
		return nil, err
	}
	r.dropEmptyMesh()

	for _, pm := range r.meshes {
		m, err := r.buildMesh(pm)
		if err != nil {
			return nil, r.emitError("", 0, "mesh %q: %s", pm.name, err.Error())
		}
		r.scene.AddMesh(m)
	}

	spheres, planes, meshes, triangles := r.scene.Counts()
	r.logger.Noticef(
		"parsed scene in %d ms (spheres: %d, planes: %d, meshes: %d, triangles: %d)",
		time.Since(start).Nanoseconds()/1e6, spheres, planes, meshes, triangles,
	)
	return r.scene, nil
}

func (r *wavefrontSceneReader) buildMesh(pm *parsedMesh) (*mesh.TriangleMesh, error) {
	m, err := mesh.New(pm.positions, pm.indices, pm.normals, pm.settings.cullMode)
	if err != nil {
		return nil, err
	}

	m.Name = pm.name
	m.MaterialIndex = pm.settings.materialIndex
	if pm.settings.useBVH {
		m.EnableBVH(r.bvhOpts)
	}
	if pm.transform != nil {
		m.Translate(pm.transform.translation)
		m.RotateY(pm.transform.yaw)
		m.Scale(pm.transform.scale)
	}
	m.UpdateTransforms()
	return m, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n"))
	} else {
		errMsg = fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n"))
	}

	return errors.New(strings.Trim(errMsg, "\n"))
}

// Push a frame to the error stack.
func (r *wavefrontSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Return the mesh that receives parsed faces, creating a default one if
// no object has been declared yet.
func (r *wavefrontSceneReader) currentMesh() *parsedMesh {
	if len(r.meshes) == 0 {
		r.meshes = append(r.meshes, newParsedMesh("default", r.settings))
	}
	return r.meshes[len(r.meshes)-1]
}

// Drop the last parsed mesh if it contains no triangles.
func (r *wavefrontSceneReader) dropEmptyMesh() {
	lastMeshIndex := len(r.meshes) - 1
	if lastMeshIndex >= 0 && len(r.meshes[lastMeshIndex].indices) == 0 {
		r.logger.Warningf(`dropping mesh "%s" as it contains no polygons`, r.meshes[lastMeshIndex].name)
		r.meshes = r.meshes[:lastMeshIndex]
	}
}

// Apply a settings change to the reader and the mesh being parsed.
func (r *wavefrontSceneReader) updateSettings(fn func(*meshSettings)) {
	fn(&r.settings)
	if len(r.meshes) > 0 {
		fn(&r.meshes[len(r.meshes)-1].settings)
	}
}

// Parse wavefront object scene format.
func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	var lineNum int

	// The main obj file may include (call) several other object files. Each
	// object file contains 1-based indices (when they are positive). By
	// tracking the current vertex/normal offsets we can apply them
	// while parsing faces to select the correct coordinates.
	relVertexOffset := len(r.vertexList)
	relNormalOffset := len(r.normalList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		var err error
		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))

			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}

			err = r.parse(incRes)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "v":
			var v types.Vec3
			v, err = parseVec3(lineTokens)
			r.vertexList = append(r.vertexList, v)
		case "vn":
			var v types.Vec3
			v, err = parseVec3(lineTokens)
			r.normalList = append(r.normalList, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.dropEmptyMesh()
			r.meshes = append(r.meshes, newParsedMesh(lineTokens[1], r.settings))
		case "f":
			err = r.parseFace(lineTokens, relVertexOffset, relNormalOffset)
		case "sphere":
			err = r.parseSphere(lineTokens)
		case "plane":
			err = r.parsePlane(lineTokens)
		case "cull":
			err = r.parseCullMode(lineTokens)
		case "bvh":
			err = r.parseBVHToggle(lineTokens)
		case "material":
			var index uint8
			if index, err = parseMaterialIndex(lineTokens, 1); err == nil {
				r.updateSettings(func(s *meshSettings) { s.materialIndex = index })
			}
		case "transform":
			err = r.parseTransform(lineTokens)
		}

		if err != nil {
			return r.emitError(res.Path(), lineNum, err.Error())
		}
	}

	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, err.Error())
	}
	return nil
}

// Parse face definition. Each face definitions consists of 3 or 4 arguments,
// one for each vertex. Each one of the vertex arguments is comprised of
// 1, 2 or 3 args separated by a slash character. The following formats are
// supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate an offset off the
// end of the vertex list. UV indices are ignored. Quads are split into two
// triangles.
func (r *wavefrontSceneReader) parseFace(lineTokens []string, relVertexOffset, relNormalOffset int) error {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d. Select the triangulation option in your exporter`, len(lineTokens)-1)
	}

	var vertexIndices [4]int
	var normals [4]types.Vec3
	expIndices := 0
	hasNormals := true
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		vertexIndices[arg] = vOffset

		// Parse normal coords if specified
		if expIndices > 2 && vTokens[2] != "" {
			nOffset, err := selectFaceCoordIndex(vTokens[2], len(r.normalList), relNormalOffset)
			if err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
			normals[arg] = r.normalList[nOffset]
		} else {
			hasNormals = false
		}
	}

	// Assemble vertices into one or two triangles depending on whether we
	// are parsing a triangular or a quad face
	indiceList := [][3]int{{0, 1, 2}}
	if len(lineTokens) == 5 {
		indiceList = append(indiceList, [3]int{0, 2, 3})
	}

	pm := r.currentMesh()
	for _, indices := range indiceList {
		var triVerts [3]types.Vec3
		for triIndex, selectIndex := range indices {
			triVerts[triIndex] = r.vertexList[vertexIndices[selectIndex]]
			pm.indices = append(pm.indices, pm.localIndex(vertexIndices[selectIndex], r.vertexList))
		}

		// Meshes store one normal per triangle; average the vertex normals
		// or derive one from the winding.
		faceNormal := triVerts[1].Sub(triVerts[0]).Cross(triVerts[2].Sub(triVerts[0])).Normalize()
		if hasNormals {
			avg := normals[indices[0]].Normalize().
				Add(normals[indices[1]].Normalize()).
				Add(normals[indices[2]].Normalize())
			if avg.SqrLen() > 0 {
				faceNormal = avg.Normalize()
			}
		}
		pm.normals = append(pm.normals, faceNormal)
	}

	return nil
}

// Parse sphere definition: sphere x y z radius [material]
func (r *wavefrontSceneReader) parseSphere(lineTokens []string) error {
	if len(lineTokens) != 5 && len(lineTokens) != 6 {
		return fmt.Errorf(`unsupported syntax for "sphere"; expected 4 or 5 arguments: x y z radius [material]; got %d`, len(lineTokens)-1)
	}

	origin, err := parseVec3(lineTokens)
	if err != nil {
		return err
	}
	radius, err := parseFloat32(lineTokens[3:])
	if err != nil {
		return err
	}
	if radius <= 0 {
		return fmt.Errorf("sphere radius must be positive; got %v", radius)
	}

	materialIndex := r.settings.materialIndex
	if len(lineTokens) == 6 {
		if materialIndex, err = parseMaterialIndex(lineTokens, 5); err != nil {
			return err
		}
	}

	r.scene.AddSphere(geometry.Sphere{Origin: origin, Radius: radius, MaterialIndex: materialIndex})
	return nil
}

// Parse plane definition: plane ox oy oz nx ny nz [material]
func (r *wavefrontSceneReader) parsePlane(lineTokens []string) error {
	if len(lineTokens) != 7 && len(lineTokens) != 8 {
		return fmt.Errorf(`unsupported syntax for "plane"; expected 6 or 7 arguments: ox oy oz nx ny nz [material]; got %d`, len(lineTokens)-1)
	}

	origin, err := parseVec3(lineTokens)
	if err != nil {
		return err
	}
	normal, err := parseVec3(lineTokens[3:])
	if err != nil {
		return err
	}
	if normal.SqrLen() == 0 {
		return fmt.Errorf("plane normal must not be zero")
	}

	materialIndex := r.settings.materialIndex
	if len(lineTokens) == 8 {
		if materialIndex, err = parseMaterialIndex(lineTokens, 7); err != nil {
			return err
		}
	}

	r.scene.AddPlane(geometry.Plane{Origin: origin, Normal: normal, MaterialIndex: materialIndex})
	return nil
}

func (r *wavefrontSceneReader) parseCullMode(lineTokens []string) error {
	if len(lineTokens) != 2 {
		return fmt.Errorf(`unsupported syntax for "cull"; expected 1 argument; got %d`, len(lineTokens)-1)
	}

	cullMode, err := geometry.ParseCullMode(lineTokens[1])
	if err != nil {
		return err
	}
	r.updateSettings(func(s *meshSettings) { s.cullMode = cullMode })
	return nil
}

func (r *wavefrontSceneReader) parseBVHToggle(lineTokens []string) error {
	if len(lineTokens) != 2 {
		return fmt.Errorf(`unsupported syntax for "bvh"; expected 1 argument; got %d`, len(lineTokens)-1)
	}

	var useBVH bool
	switch lineTokens[1] {
	case "on":
		useBVH = true
	case "off":
		useBVH = false
	default:
		return fmt.Errorf(`unsupported value for "bvh"; expected "on" or "off"; got %q`, lineTokens[1])
	}
	r.updateSettings(func(s *meshSettings) { s.useBVH = useBVH })
	return nil
}

// Parse mesh transform definition. Definitions use the following format:
// transform tX tY tZ yaw sX sY sZ
// where:
// - tX, tY, tZ : translation vector
// - yaw        : rotation about the Y axis in degrees
// - sX, sY, sZ : scale
func (r *wavefrontSceneReader) parseTransform(lineTokens []string) error {
	if len(lineTokens) != 8 {
		return fmt.Errorf(`unsupported syntax for "transform"; expected 7 arguments: tX tY tZ yaw sX sY sZ; got %d`, len(lineTokens)-1)
	}
	if len(r.meshes) == 0 {
		return fmt.Errorf(`"transform" used before any object was defined`)
	}

	translation, err := parseVec3(lineTokens)
	if err != nil {
		return err
	}
	yaw, err := parseFloat32(lineTokens[3:])
	if err != nil {
		return err
	}
	scale, err := parseVec3(lineTokens[4:])
	if err != nil {
		return err
	}

	r.meshes[len(r.meshes)-1].transform = &meshTransform{
		translation: translation,
		yaw:         yaw * math.Pi / 180.0,
		scale:       scale,
	}
	return nil
}

// Given an index for a face coord type (vertex, normal) calculate the
// proper offset into the coord list. Wavefront format can also use negative
// indices to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a material index argument.
func parseMaterialIndex(lineTokens []string, argIndex int) (uint8, error) {
	if len(lineTokens) <= argIndex {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected a material index`, lineTokens[0])
	}

	val, err := strconv.ParseUint(lineTokens[argIndex], 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid material index %q; expected a value in [0, 255]", lineTokens[argIndex])
	}
	return uint8(val), nil
}

// Parse a float scalar value following the first token.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}
	if !isFinite(float32(val)) {
		return 0, fmt.Errorf("expected a finite value; got %q", lineTokens[1])
	}

	return float32(val), nil
}

// Parse a Vec3 from the three tokens following the first token.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	var v types.Vec3
	for i := 0; i < 3; i++ {
		val, err := strconv.ParseFloat(lineTokens[i+1], 32)
		if err != nil {
			return types.Vec3{}, err
		}
		if !isFinite(float32(val)) {
			return types.Vec3{}, fmt.Errorf("expected a finite value; got %q", lineTokens[i+1])
		}
		v[i] = float32(val)
	}
	return v, nil
}

func isFinite(val float32) bool {
	return !math32.IsNaN(val) && !math32.IsInf(val, 0)
}
