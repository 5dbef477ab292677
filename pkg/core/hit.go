package core

// MaxProbeDepth bounds the intersectable stack a probe can carry. Composite
// intersectables (meshes, acceleration structures) push themselves before
// delegating to children, so the depth equals the nesting of composites.
const MaxProbeDepth = 8

// ProbeCacheSize is the number of reals a primitive may stash in a probe while
// intersecting, to be consumed by its detail computation (e.g. barycentrics).
const ProbeCacheSize = 4

// HitProbe carries intermediate intersection state between the hit test and
// the detail computation of the finally accepted hit. It is created on the
// stack per ray query, cleared and reused.
type HitProbe struct {
	stack         [MaxProbeDepth]Intersectable
	depth         int
	T             float64
	Cache         [ProbeCacheSize]float64
	DetailChannel int
}

// Clear resets the probe for reuse
func (p *HitProbe) Clear() {
	p.depth = 0
	p.T = 0
	p.DetailChannel = 0
}

// Push records an intersectable on the probe stack
func (p *HitProbe) Push(hit Intersectable) {
	p.stack[p.depth] = hit
	p.depth++
}

// PushHit records an intersectable together with its hit distance
func (p *HitProbe) PushHit(hit Intersectable, t float64) {
	p.Push(hit)
	p.T = t
}

// Current returns the top of the intersectable stack, or nil when empty
func (p *HitProbe) Current() Intersectable {
	if p.depth == 0 {
		return nil
	}
	return p.stack[p.depth-1]
}

// Pop removes and returns the top of the intersectable stack
func (p *HitProbe) Pop() Intersectable {
	p.depth--
	return p.stack[p.depth]
}

// ReplaceWith swaps probe contents, used when a candidate hit supersedes the
// currently recorded one
func (p *HitProbe) ReplaceWith(other *HitProbe) {
	*p = *other
}

// HitDetail is the completed description of a surface hit. Cooked primitives
// live in world space, so the stored frame is the world frame.
type HitDetail struct {
	Primitive Primitive
	RayT      float64
	Position  Vec3

	// GeometryNormal is the face normal; ShadingNormal interpolates vertex
	// normals and is always unit length.
	GeometryNormal Vec3
	ShadingNormal  Vec3

	Uvw Vec3

	// First-order surface derivatives; finite by construction (degenerate
	// parameterizations fall back to a synthesized basis).
	DPdU, DPdV Vec3
	DNdU, DNdV Vec3
}

// SetBasics fills the fields every primitive computes the same way
func (d *HitDetail) SetBasics(prim Primitive, position Vec3, geometryNormal, shadingNormal Vec3, uvw Vec3, rayT float64) {
	d.Primitive = prim
	d.Position = position
	d.GeometryNormal = geometryNormal
	d.ShadingNormal = shadingNormal
	d.Uvw = uvw
	d.RayT = rayT
}

// SetDerivatives fills the surface derivative fields
func (d *HitDetail) SetDerivatives(dPdU, dPdV, dNdU, dNdV Vec3) {
	d.DPdU = dPdU
	d.DPdV = dPdV
	d.DNdU = dNdU
	d.DNdV = dNdV
}

// Offset returns the hit position nudged along the given direction, used to
// spawn continuation rays off the surface
func (d *HitDetail) Offset(direction Vec3) Vec3 {
	n := d.GeometryNormal
	if direction.Dot(n) < 0 {
		n = n.Negate()
	}
	return d.Position.Add(n.Multiply(SelfIntersectEpsilon))
}
