package core

import "math"

// AABB is an axis-aligned box described by two opposite corners. The
// acceleration structures use it both as node bounds and as the query volume
// for conservative primitive overlap tests.
type AABB struct {
	Min Vec3
	Max Vec3
}

// NewAABB builds a box from its corners; the caller keeps Min <= Max
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// EmptyAABB is the identity of Union: corners inverted to +/- infinity so
// that folding points or boxes into it yields exactly their bound
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: Vec3{X: inf, Y: inf, Z: inf},
		Max: Vec3{X: -inf, Y: -inf, Z: -inf},
	}
}

// NewAABBFromPoints folds the given points into their tight bound. No points
// yield the zero box.
func NewAABBFromPoints(points ...Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	bound := EmptyAABB()
	for _, point := range points {
		bound = bound.UnionPoint(point)
	}
	return bound
}

// Union is the smallest box containing both operands
func (aabb AABB) Union(other AABB) AABB {
	return AABB{
		Min: vecMin(aabb.Min, other.Min),
		Max: vecMax(aabb.Max, other.Max),
	}
}

// UnionPoint grows the box just enough to cover the point
func (aabb AABB) UnionPoint(point Vec3) AABB {
	return AABB{
		Min: vecMin(aabb.Min, point),
		Max: vecMax(aabb.Max, point),
	}
}

// Hit reports whether the ray's [tMin, tMax] interval crosses the box
func (aabb AABB) Hit(ray Ray, tMin, tMax float64) bool {
	hit, _, _ := aabb.HitRange(ray, tMin, tMax)
	return hit
}

// HitRange clips the ray interval against the box with the slab method: each
// axis pair of planes narrows [tMin, tMax], and the box is crossed iff the
// interval survives all three axes. A ray parallel to an axis passes that
// axis only when its origin already lies between the two planes.
func (aabb AABB) HitRange(ray Ray, tMin, tMax float64) (bool, float64, float64) {
	for axis := 0; axis < 3; axis++ {
		nearPlane := aabb.Min.Component(axis)
		farPlane := aabb.Max.Component(axis)
		origin := ray.Origin.Component(axis)
		direction := ray.Direction.Component(axis)

		if math.Abs(direction) < 1e-12 {
			if origin < nearPlane || origin > farPlane {
				return false, 0, 0
			}
			continue
		}

		invDirection := 1.0 / direction
		tNear := (nearPlane - origin) * invDirection
		tFar := (farPlane - origin) * invDirection
		if invDirection < 0 {
			tNear, tFar = tFar, tNear
		}

		tMin = math.Max(tMin, tNear)
		tMax = math.Min(tMax, tFar)
		if tMin > tMax {
			return false, 0, 0
		}
	}
	return true, tMin, tMax
}

// Contains reports whether the point lies in the closed box
func (aabb AABB) Contains(point Vec3) bool {
	for axis := 0; axis < 3; axis++ {
		p := point.Component(axis)
		if p < aabb.Min.Component(axis) || p > aabb.Max.Component(axis) {
			return false
		}
	}
	return true
}

// Center is the midpoint of the two corners
func (aabb AABB) Center() Vec3 {
	return aabb.Min.Lerp(aabb.Max, 0.5)
}

// Size is the per-axis extent
func (aabb AABB) Size() Vec3 {
	return aabb.Max.Subtract(aabb.Min)
}

// SurfaceArea sums the three distinct face areas twice over; the SAH build
// cost model is driven by this
func (aabb AABB) SurfaceArea() float64 {
	s := aabb.Size()
	return 2 * (s.X*s.Y + s.Y*s.Z + s.Z*s.X)
}

// LongestAxis picks the widest extent, the usual split axis for both trees
func (aabb AABB) LongestAxis() int {
	return aabb.Size().MaxDimension()
}

// IsValid rejects boxes whose corners crossed (EmptyAABB is invalid until
// something is folded in)
func (aabb AABB) IsValid() bool {
	s := aabb.Size()
	return s.X >= 0 && s.Y >= 0 && s.Z >= 0
}

// IsPoint reports a box collapsed to a single position
func (aabb AABB) IsPoint() bool {
	return aabb.Min == aabb.Max
}

// IsDegenerate reports zero extent on any axis. Such boxes are still stored
// and intersected, but never chosen as split pivots.
func (aabb AABB) IsDegenerate() bool {
	s := aabb.Size()
	return s.X <= 0 || s.Y <= 0 || s.Z <= 0
}

// Expand pads the box outward on every axis, e.g. to give flat primitives a
// sliver of thickness
func (aabb AABB) Expand(amount float64) AABB {
	pad := NewVec3(amount, amount, amount)
	return AABB{
		Min: aabb.Min.Subtract(pad),
		Max: aabb.Max.Add(pad),
	}
}

// Overlaps reports shared volume, touching faces included
func (aabb AABB) Overlaps(other AABB) bool {
	for axis := 0; axis < 3; axis++ {
		if aabb.Min.Component(axis) > other.Max.Component(axis) ||
			aabb.Max.Component(axis) < other.Min.Component(axis) {
			return false
		}
	}
	return true
}

// BoundingSphere wraps the box in the tightest sphere around its center;
// the background emitter synthesizes emit positions outside this
func (aabb AABB) BoundingSphere() (Vec3, float64) {
	center := aabb.Center()
	return center, aabb.Max.Subtract(center).Length()
}
