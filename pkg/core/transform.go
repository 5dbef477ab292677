package core

import "math"

// Matrix4 is a row-major 4x4 matrix
type Matrix4 [4][4]float64

// IdentityMatrix4 returns the identity matrix
func IdentityMatrix4() Matrix4 {
	return Matrix4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Multiply returns m * other
func (m Matrix4) Multiply(other Matrix4) Matrix4 {
	var result Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += m[i][k] * other[k][j]
			}
			result[i][j] = sum
		}
	}
	return result
}

// Transposed returns the transpose of the matrix
func (m Matrix4) Transposed() Matrix4 {
	var result Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			result[i][j] = m[j][i]
		}
	}
	return result
}

// Transform maps points, vectors and normals between two coordinate systems.
// It caches both the forward and inverse matrices; the inverse-transpose is
// derived on demand for normals.
type Transform struct {
	matrix  Matrix4
	inverse Matrix4
}

// NewTransform builds a transform from explicit forward and inverse matrices
func NewTransform(matrix, inverse Matrix4) Transform {
	return Transform{matrix: matrix, inverse: inverse}
}

// IdentityTransform returns the identity transform
func IdentityTransform() Transform {
	return Transform{matrix: IdentityMatrix4(), inverse: IdentityMatrix4()}
}

// NewTranslation returns a transform moving points by offset
func NewTranslation(offset Vec3) Transform {
	m := IdentityMatrix4()
	m[0][3] = offset.X
	m[1][3] = offset.Y
	m[2][3] = offset.Z
	inv := IdentityMatrix4()
	inv[0][3] = -offset.X
	inv[1][3] = -offset.Y
	inv[2][3] = -offset.Z
	return Transform{matrix: m, inverse: inv}
}

// NewScale returns a transform scaling points per axis
func NewScale(scale Vec3) Transform {
	m := IdentityMatrix4()
	m[0][0] = scale.X
	m[1][1] = scale.Y
	m[2][2] = scale.Z
	inv := IdentityMatrix4()
	inv[0][0] = 1.0 / scale.X
	inv[1][1] = 1.0 / scale.Y
	inv[2][2] = 1.0 / scale.Z
	return Transform{matrix: m, inverse: inv}
}

// NewRotation returns a transform applying the given unit quaternion
func NewRotation(rotation Quaternion) Transform {
	q := rotation.Normalize()
	x, y, z, w := q.X, q.Y, q.Z, q.W
	m := Matrix4{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w), 0},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w), 0},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y), 0},
		{0, 0, 0, 1},
	}
	// Rotation matrices are orthogonal: inverse is the transpose
	return Transform{matrix: m, inverse: m.Transposed()}
}

// Then composes transforms so that t is applied first, then next
func (t Transform) Then(next Transform) Transform {
	return Transform{
		matrix:  next.matrix.Multiply(t.matrix),
		inverse: t.inverse.Multiply(next.inverse),
	}
}

// Inverse returns the inverse transform
func (t Transform) Inverse() Transform {
	return Transform{matrix: t.inverse, inverse: t.matrix}
}

// ApplyPoint transforms a point (w = 1)
func (t Transform) ApplyPoint(p Vec3) Vec3 {
	m := &t.matrix
	return Vec3{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z + m[0][3],
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z + m[1][3],
		Z: m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z + m[2][3],
	}
}

// ApplyVector transforms a direction (w = 0)
func (t Transform) ApplyVector(v Vec3) Vec3 {
	m := &t.matrix
	return Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// ApplyNormal transforms a surface normal by the inverse transpose and
// renormalizes. Normals must not be transformed like ordinary vectors under
// non-uniform scale.
func (t Transform) ApplyNormal(n Vec3) Vec3 {
	m := &t.inverse
	return Vec3{
		X: m[0][0]*n.X + m[1][0]*n.Y + m[2][0]*n.Z,
		Y: m[0][1]*n.X + m[1][1]*n.Y + m[2][1]*n.Z,
		Z: m[0][2]*n.X + m[1][2]*n.Y + m[2][2]*n.Z,
	}.Normalize()
}

// ApplyRay transforms a ray. The direction is deliberately not renormalized so
// the [TMin, TMax] interval keeps its meaning under scaled transforms;
// consumers must not assume a unit direction here.
func (t Transform) ApplyRay(ray Ray) Ray {
	return Ray{
		Origin:    t.ApplyPoint(ray.Origin),
		Direction: t.ApplyVector(ray.Direction),
		TMin:      ray.TMin,
		TMax:      ray.TMax,
	}
}

// ApplyAABB transforms a box conservatively by transforming its eight corners
func (t Transform) ApplyAABB(aabb AABB) AABB {
	result := EmptyAABB()
	for i := 0; i < 8; i++ {
		corner := Vec3{
			X: pick(i&1 == 0, aabb.Min.X, aabb.Max.X),
			Y: pick(i&2 == 0, aabb.Min.Y, aabb.Max.Y),
			Z: pick(i&4 == 0, aabb.Min.Z, aabb.Max.Z),
		}
		result = result.UnionPoint(t.ApplyPoint(corner))
	}
	return result
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

// NewLookAt builds a camera-to-world transform from eye position, look target
// and an up hint. The camera looks down its local -Z axis.
func NewLookAt(eye, target, up Vec3) Transform {
	forward := target.Subtract(eye).Normalize()
	right := forward.Cross(up).Normalize()
	if right.IsZero() {
		// Degenerate up hint: synthesize any frame around forward
		right = SynthesizeBasis(forward).U
	}
	trueUp := right.Cross(forward)

	m := Matrix4{
		{right.X, trueUp.X, -forward.X, eye.X},
		{right.Y, trueUp.Y, -forward.Y, eye.Y},
		{right.Z, trueUp.Z, -forward.Z, eye.Z},
		{0, 0, 0, 1},
	}
	// The rotation block is orthonormal, so invert as R^T * (-R^T e)
	r := Matrix4{
		{right.X, right.Y, right.Z, 0},
		{trueUp.X, trueUp.Y, trueUp.Z, 0},
		{-forward.X, -forward.Y, -forward.Z, 0},
		{0, 0, 0, 1},
	}
	r[0][3] = -(right.X*eye.X + right.Y*eye.Y + right.Z*eye.Z)
	r[1][3] = -(trueUp.X*eye.X + trueUp.Y*eye.Y + trueUp.Z*eye.Z)
	r[2][3] = forward.X*eye.X + forward.Y*eye.Y + forward.Z*eye.Z
	return Transform{matrix: m, inverse: r}
}

// Basis is a right-handed orthonormal frame with W as the primary axis
type Basis struct {
	U, V, W Vec3
}

// SynthesizeBasis builds an orthonormal basis around the given unit vector
// using the branchless method of Duff et al.
func SynthesizeBasis(w Vec3) Basis {
	sign := math.Copysign(1.0, w.Z)
	a := -1.0 / (sign + w.Z)
	b := w.X * w.Y * a
	return Basis{
		U: Vec3{1.0 + sign*w.X*w.X*a, sign * b, -sign * w.X},
		V: Vec3{b, sign + w.Y*w.Y*a, -w.Y},
		W: w,
	}
}

// LocalToWorld expresses local coordinates (x along U, y along V, z along W)
// in the frame's parent space
func (b Basis) LocalToWorld(local Vec3) Vec3 {
	return b.U.Multiply(local.X).
		Add(b.V.Multiply(local.Y)).
		Add(b.W.Multiply(local.Z))
}

// WorldToLocal projects a parent-space vector onto the frame axes
func (b Basis) WorldToLocal(world Vec3) Vec3 {
	return Vec3{
		X: world.Dot(b.U),
		Y: world.Dot(b.V),
		Z: world.Dot(b.W),
	}
}
