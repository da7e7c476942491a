package math3d

import "math"

// Mat4 is a 4x4 matrix stored row-major: element (row, col) is m[row*4+col].
// Vectors are columns, so transforms compose right to left: A.Mul(B) applies B first.
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a translation matrix.
func Translate(v Vec3) Mat4 {
	return Mat4{
		1, 0, 0, v.X,
		0, 1, 0, v.Y,
		0, 0, 1, v.Z,
		0, 0, 0, 1,
	}
}

// Scale returns a scaling matrix.
func Scale(v Vec3) Mat4 {
	return Mat4{
		v.X, 0, 0, 0,
		0, v.Y, 0, 0,
		0, 0, v.Z, 0,
		0, 0, 0, 1,
	}
}

// RotateX returns a rotation about the X axis (radians).
func RotateX(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	}
}

// RotateY returns a rotation about the Y axis (radians).
func RotateY(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// RotateZ returns a rotation about the Z axis (radians).
func RotateZ(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// RotateAxis returns a right-handed rotation of angle radians about axis.
// A zero axis yields the identity.
func RotateAxis(axis Vec3, angle float64) Mat4 {
	a := axis.Normalize()
	if a.LenSq() == 0 {
		return Identity()
	}
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c
	return Mat4{
		t*a.X*a.X + c, t*a.X*a.Y - s*a.Z, t*a.X*a.Z + s*a.Y, 0,
		t*a.X*a.Y + s*a.Z, t*a.Y*a.Y + c, t*a.Y*a.Z - s*a.X, 0,
		t*a.X*a.Z - s*a.Y, t*a.Y*a.Z + s*a.X, t*a.Z*a.Z + c, 0,
		0, 0, 0, 1,
	}
}

// QuatToMat4 converts a unit quaternion (x, y, z, w) to a rotation matrix.
func QuatToMat4(x, y, z, w float64) Mat4 {
	return Mat4{
		1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w), 0,
		2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w), 0,
		2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y), 0,
		0, 0, 0, 1,
	}
}

// Mat4FromSlice builds a matrix from 16 values in column-major order (the glTF layout).
func Mat4FromSlice(s []float64) Mat4 {
	var m Mat4
	if len(s) < 16 {
		return Identity()
	}
	for col := range 4 {
		for row := range 4 {
			m[row*4+col] = s[col*4+row]
		}
	}
	return m
}

// Mul returns the matrix product a * b.
func (a Mat4) Mul(b Mat4) Mat4 {
	var m Mat4
	for row := range 4 {
		for col := range 4 {
			m[row*4+col] = a[row*4+0]*b[0*4+col] +
				a[row*4+1]*b[1*4+col] +
				a[row*4+2]*b[2*4+col] +
				a[row*4+3]*b[3*4+col]
		}
	}
	return m
}

// MulVec4 transforms a homogeneous vector.
func (a Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		a[0]*v.X + a[1]*v.Y + a[2]*v.Z + a[3]*v.W,
		a[4]*v.X + a[5]*v.Y + a[6]*v.Z + a[7]*v.W,
		a[8]*v.X + a[9]*v.Y + a[10]*v.Z + a[11]*v.W,
		a[12]*v.X + a[13]*v.Y + a[14]*v.Z + a[15]*v.W,
	}
}

// MulVec3 transforms a point (w = 1), dividing by w when the matrix is projective.
func (a Mat4) MulVec3(v Vec3) Vec3 {
	r := a.MulVec4(V4FromV3(v, 1))
	if r.W != 1 && r.W != 0 {
		return r.PerspectiveDivide()
	}
	return r.Vec3()
}

// MulVec3Dir transforms a direction (w = 0); translation is ignored.
func (a Mat4) MulVec3Dir(v Vec3) Vec3 {
	return Vec3{
		a[0]*v.X + a[1]*v.Y + a[2]*v.Z,
		a[4]*v.X + a[5]*v.Y + a[6]*v.Z,
		a[8]*v.X + a[9]*v.Y + a[10]*v.Z,
	}
}

// Transpose returns the transposed matrix.
func (a Mat4) Transpose() Mat4 {
	var m Mat4
	for row := range 4 {
		for col := range 4 {
			m[col*4+row] = a[row*4+col]
		}
	}
	return m
}

// Inverse returns the inverse matrix, or the identity if a is singular.
func (a Mat4) Inverse() Mat4 {
	var inv Mat4

	inv[0] = a[5]*a[10]*a[15] - a[5]*a[11]*a[14] - a[9]*a[6]*a[15] + a[9]*a[7]*a[14] + a[13]*a[6]*a[11] - a[13]*a[7]*a[10]
	inv[4] = -a[4]*a[10]*a[15] + a[4]*a[11]*a[14] + a[8]*a[6]*a[15] - a[8]*a[7]*a[14] - a[12]*a[6]*a[11] + a[12]*a[7]*a[10]
	inv[8] = a[4]*a[9]*a[15] - a[4]*a[11]*a[13] - a[8]*a[5]*a[15] + a[8]*a[7]*a[13] + a[12]*a[5]*a[11] - a[12]*a[7]*a[9]
	inv[12] = -a[4]*a[9]*a[14] + a[4]*a[10]*a[13] + a[8]*a[5]*a[14] - a[8]*a[6]*a[13] - a[12]*a[5]*a[10] + a[12]*a[6]*a[9]
	inv[1] = -a[1]*a[10]*a[15] + a[1]*a[11]*a[14] + a[9]*a[2]*a[15] - a[9]*a[3]*a[14] - a[13]*a[2]*a[11] + a[13]*a[3]*a[10]
	inv[5] = a[0]*a[10]*a[15] - a[0]*a[11]*a[14] - a[8]*a[2]*a[15] + a[8]*a[3]*a[14] + a[12]*a[2]*a[11] - a[12]*a[3]*a[10]
	inv[9] = -a[0]*a[9]*a[15] + a[0]*a[11]*a[13] + a[8]*a[1]*a[15] - a[8]*a[3]*a[13] - a[12]*a[1]*a[11] + a[12]*a[3]*a[9]
	inv[13] = a[0]*a[9]*a[14] - a[0]*a[10]*a[13] - a[8]*a[1]*a[14] + a[8]*a[2]*a[13] + a[12]*a[1]*a[10] - a[12]*a[2]*a[9]
	inv[2] = a[1]*a[6]*a[15] - a[1]*a[7]*a[14] - a[5]*a[2]*a[15] + a[5]*a[3]*a[14] + a[13]*a[2]*a[7] - a[13]*a[3]*a[6]
	inv[6] = -a[0]*a[6]*a[15] + a[0]*a[7]*a[14] + a[4]*a[2]*a[15] - a[4]*a[3]*a[14] - a[12]*a[2]*a[7] + a[12]*a[3]*a[6]
	inv[10] = a[0]*a[5]*a[15] - a[0]*a[7]*a[13] - a[4]*a[1]*a[15] + a[4]*a[3]*a[13] + a[12]*a[1]*a[7] - a[12]*a[3]*a[5]
	inv[14] = -a[0]*a[5]*a[14] + a[0]*a[6]*a[13] + a[4]*a[1]*a[14] - a[4]*a[2]*a[13] - a[12]*a[1]*a[6] + a[12]*a[2]*a[5]
	inv[3] = -a[1]*a[6]*a[11] + a[1]*a[7]*a[10] + a[5]*a[2]*a[11] - a[5]*a[3]*a[10] - a[9]*a[2]*a[7] + a[9]*a[3]*a[6]
	inv[7] = a[0]*a[6]*a[11] - a[0]*a[7]*a[10] - a[4]*a[2]*a[11] + a[4]*a[3]*a[10] + a[8]*a[2]*a[7] - a[8]*a[3]*a[6]
	inv[11] = -a[0]*a[5]*a[11] + a[0]*a[7]*a[9] + a[4]*a[1]*a[11] - a[4]*a[3]*a[9] - a[8]*a[1]*a[7] + a[8]*a[3]*a[5]
	inv[15] = a[0]*a[5]*a[10] - a[0]*a[6]*a[9] - a[4]*a[1]*a[10] + a[4]*a[2]*a[9] + a[8]*a[1]*a[6] - a[8]*a[2]*a[5]

	det := a[0]*inv[0] + a[1]*inv[4] + a[2]*inv[8] + a[3]*inv[12]
	if math.Abs(det) < 1e-12 {
		return Identity()
	}
	invDet := 1 / det
	for i := range inv {
		inv[i] *= invDet
	}
	return inv
}

// Perspective returns a right-handed perspective projection mapping view-space
// depth [-near, -far] to NDC z [-1, 1]. fovY is the vertical field of view in radians.
func Perspective(fovY, aspect, near, far float64) Mat4 {
	f := 1 / math.Tan(fovY/2)
	nf := 1 / (near - far)
	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, 2 * far * near * nf,
		0, 0, -1, 0,
	}
}

// LookAt returns a right-handed view matrix for a camera at eye looking at target.
func LookAt(eye, target, up Vec3) Mat4 {
	f := target.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)
	return Mat4{
		s.X, s.Y, s.Z, -s.Dot(eye),
		u.X, u.Y, u.Z, -u.Dot(eye),
		-f.X, -f.Y, -f.Z, f.Dot(eye),
		0, 0, 0, 1,
	}
}
