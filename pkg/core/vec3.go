package core

import "math"

// Vec3 is the workhorse three-component value of the renderer: positions,
// directions and normals all travel as Vec3. Operations return fresh values;
// nothing here mutates its receiver, which is what lets the cooked scene be
// shared across workers without locks.
type Vec3 struct {
	X, Y, Z float64
}

// Vec2 carries sample pairs and film coordinates
type Vec2 struct {
	X, Y float64
}

// NewVec3 builds a Vec3 from components
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// NewVec2 builds a Vec2 from components
func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Multiply scales both components
func (v Vec2) Multiply(scalar float64) Vec2 {
	return Vec2{X: v.X * scalar, Y: v.Y * scalar}
}

// Add is component-wise addition
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Subtract is component-wise subtraction; a.Subtract(b) points from b to a
// when both are positions
func (v Vec3) Subtract(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Multiply scales every component
func (v Vec3) Multiply(scalar float64) Vec3 {
	return Vec3{X: v.X * scalar, Y: v.Y * scalar, Z: v.Z * scalar}
}

// Divide scales every component by 1/scalar. The caller guarantees a
// non-zero divisor; hot-path code precomputes the reciprocal itself.
func (v Vec3) Divide(scalar float64) Vec3 {
	return v.Multiply(1.0 / scalar)
}

// Negate flips the vector
func (v Vec3) Negate() Vec3 {
	return v.Multiply(-1)
}

// Abs takes the component-wise magnitude
func (v Vec3) Abs() Vec3 {
	return Vec3{X: math.Abs(v.X), Y: math.Abs(v.Y), Z: math.Abs(v.Z)}
}

// Dot is the scalar product. Against a unit normal it is the signed cosine
// the shading math runs on.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// AbsDot is |v . other|, the unsigned cosine used where facing has already
// been resolved
func (v Vec3) AbsDot(other Vec3) float64 {
	return math.Abs(v.Dot(other))
}

// Cross is the right-handed vector product
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// LengthSquared avoids the square root where only comparisons are needed
func (v Vec3) LengthSquared() float64 {
	return v.Dot(v)
}

// Length is the Euclidean norm
func (v Vec3) Length() float64 {
	return math.Sqrt(v.LengthSquared())
}

// Normalize rescales to unit length. The zero vector has no direction and
// comes back unchanged; callers that care test IsZero on the result.
func (v Vec3) Normalize() Vec3 {
	lengthSq := v.LengthSquared()
	if lengthSq == 0 {
		return Vec3{}
	}
	return v.Multiply(1.0 / math.Sqrt(lengthSq))
}

// Component selects by axis index, 0/1/2 = X/Y/Z. The acceleration
// structures address axes by number rather than by field.
func (v Vec3) Component(axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// WithComponent returns a copy with one axis replaced
func (v Vec3) WithComponent(axis int, value float64) Vec3 {
	switch axis {
	case 0:
		v.X = value
	case 1:
		v.Y = value
	default:
		v.Z = value
	}
	return v
}

// MaxComponent is the largest component
func (v Vec3) MaxComponent() float64 {
	return max(v.X, max(v.Y, v.Z))
}

// MaxDimension is the axis with the largest magnitude, used to pick the
// dominant axis when permuting rays into a canonical frame
func (v Vec3) MaxDimension() int {
	a := v.Abs()
	switch {
	case a.X > a.Y && a.X > a.Z:
		return 0
	case a.Y > a.Z:
		return 1
	default:
		return 2
	}
}

// IsZero reports an exactly zero vector
func (v Vec3) IsZero() bool {
	return v == Vec3{}
}

// IsFinite rejects vectors carrying NaN or infinity; degenerate shading
// math is caught by this before it can reach the film
func (v Vec3) IsFinite() bool {
	return isFiniteReal(v.X) && isFiniteReal(v.Y) && isFiniteReal(v.Z)
}

func isFiniteReal(r float64) bool {
	return !math.IsNaN(r) && !math.IsInf(r, 0)
}

// equalityEpsilon absorbs accumulated rounding when comparing vectors that
// took different computational routes to the same point
const equalityEpsilon = 1e-9

// Equals compares within equalityEpsilon per component
func (v Vec3) Equals(other Vec3) bool {
	d := v.Subtract(other).Abs()
	return d.X < equalityEpsilon && d.Y < equalityEpsilon && d.Z < equalityEpsilon
}

// Lerp blends toward other: t = 0 gives v, t = 1 gives other
func (v Vec3) Lerp(other Vec3, t float64) Vec3 {
	return v.Add(other.Subtract(v).Multiply(t))
}

// Reflect mirrors v about the unit normal n. The incident and reflected
// vectors make equal angles with n, so the normal component flips while the
// tangential part is kept: v - 2(v.n)n.
func (v Vec3) Reflect(n Vec3) Vec3 {
	return v.Subtract(n.Multiply(2 * v.Dot(n)))
}

// vecMin and vecMax take component-wise extremes; the bounding-box math is
// built on these
func vecMin(a, b Vec3) Vec3 {
	return Vec3{
		X: math.Min(a.X, b.X),
		Y: math.Min(a.Y, b.Y),
		Z: math.Min(a.Z, b.Z),
	}
}

func vecMax(a, b Vec3) Vec3 {
	return Vec3{
		X: math.Max(a.X, b.X),
		Y: math.Max(a.Y, b.Y),
		Z: math.Max(a.Z, b.Z),
	}
}
