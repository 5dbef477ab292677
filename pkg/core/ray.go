package core

import "math"

// SelfIntersectEpsilon offsets ray origins away from the surface they spawned
// from so that a continuation ray does not immediately re-hit its own primitive.
const SelfIntersectEpsilon = 1e-4

// Ray represents a ray with an origin, a direction and a parametric interval
// [TMin, TMax]. The direction is not required to be unit length inside
// intersection math; it is unit length only when emitted from a camera or
// after BSDF sampling. Transforming a ray never renormalizes the direction so
// the interval stays meaningful.
type Ray struct {
	Origin    Vec3
	Direction Vec3
	TMin      float64
	TMax      float64
}

// NewRay creates a ray covering the interval [SelfIntersectEpsilon, +inf)
func NewRay(origin, direction Vec3) Ray {
	return Ray{
		Origin:    origin,
		Direction: direction,
		TMin:      SelfIntersectEpsilon,
		TMax:      math.Inf(1),
	}
}

// NewRayInterval creates a ray with an explicit parametric interval
func NewRayInterval(origin, direction Vec3, tMin, tMax float64) Ray {
	return Ray{Origin: origin, Direction: direction, TMin: tMin, TMax: tMax}
}

// NewRayTo creates a segment ray from origin toward target, stopping just
// short of the target so occlusion tests do not hit the target surface itself.
func NewRayTo(origin, target Vec3) Ray {
	delta := target.Subtract(origin)
	dist := delta.Length()
	if dist == 0 {
		return Ray{Origin: origin, Direction: Vec3{0, 0, 1}, TMin: 0, TMax: 0}
	}
	return Ray{
		Origin:    origin,
		Direction: delta.Divide(dist),
		TMin:      SelfIntersectEpsilon,
		TMax:      dist - SelfIntersectEpsilon,
	}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}

// Reversed returns a ray pointing the opposite way over the same interval
func (r Ray) Reversed() Ray {
	return Ray{
		Origin:    r.Origin,
		Direction: r.Direction.Negate(),
		TMin:      r.TMin,
		TMax:      r.TMax,
	}
}

// IsValid reports whether the parametric interval satisfies 0 <= TMin <= TMax
func (r Ray) IsValid() bool {
	return r.TMin >= 0 && r.TMin <= r.TMax
}
