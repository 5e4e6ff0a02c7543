package types

import "github.com/go-gl/mathgl/mgl32"

// A column-major 4x4 matrix. Points are treated as column vectors so
// A.Mul4(B) applies B first.
type Mat4 mgl32.Mat4

// Create identity matrix.
func Ident4() Mat4 {
	return Mat4(mgl32.Ident4())
}

// Create a translation matrix.
func Translate4(v Vec3) Mat4 {
	return Mat4(mgl32.Translate3D(v[0], v[1], v[2]))
}

// Create a scale matrix.
func Scale4(v Vec3) Mat4 {
	return Mat4(mgl32.Scale3D(v[0], v[1], v[2]))
}

// Create a rotation matrix around the Y (up) axis. The angle is in radians.
func RotateY4(angle float32) Mat4 {
	return QuatFromAxisAngle(Vec3{0, 1, 0}, angle).Mat4()
}

// Multiply with another matrix.
func (m Mat4) Mul4(m2 Mat4) Mat4 {
	return Mat4(mgl32.Mat4(m).Mul4(mgl32.Mat4(m2)))
}

// Multiply with a 4 component column vector.
func (m Mat4) Mul4x1(v Vec4) Vec4 {
	return Vec4(mgl32.Mat4(m).Mul4x1(mgl32.Vec4(v)))
}

// Transform a point (w = 1).
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// Transform a direction (w = 0); translation is ignored.
func (m Mat4) TransformVector(v Vec3) Vec3 {
	return m.Mul4x1(v.Vec4(0)).Vec3()
}
