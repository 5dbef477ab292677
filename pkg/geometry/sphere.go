package geometry

import (
	"math"

	"github.com/arvoss/go-pathtracer/pkg/core"
)

// Sphere is an immutable sphere primitive. A zero or negative radius cooks
// into an inert sphere that never intersects.
type Sphere struct {
	Center   core.Vec3
	Radius   float64
	metadata *core.PrimitiveMetadata
}

// NewSphere creates a sphere primitive
func NewSphere(center core.Vec3, radius float64, metadata *core.PrimitiveMetadata) *Sphere {
	if radius < 0 {
		radius = 0
	}
	return &Sphere{Center: center, Radius: radius, metadata: metadata}
}

// Metadata returns the shared metadata record
func (s *Sphere) Metadata() *core.PrimitiveMetadata {
	return s.metadata
}

// IsIntersecting solves t^2*a - 2t*b + c = 0 with a = d.d, b = d.oc,
// c = oc.oc - r^2 and records the closer root inside the ray interval.
func (s *Sphere) IsIntersecting(ray *core.Ray, probe *core.HitProbe) bool {
	if s.Radius == 0 {
		return false
	}

	oc := s.Center.Subtract(ray.Origin)
	a := ray.Direction.Dot(ray.Direction)
	b := ray.Direction.Dot(oc)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := b*b - a*c
	if discriminant < 0 {
		return false
	}

	sqrtD := math.Sqrt(discriminant)
	root := (b - sqrtD) / a
	if root < ray.TMin || root > ray.TMax {
		root = (b + sqrtD) / a
		if root < ray.TMin || root > ray.TMax {
			return false
		}
	}

	probe.PushHit(s, root)
	return true
}

// CalcIntersectionDetail completes the hit with spherical uvw and
// central-difference surface derivatives
func (s *Sphere) CalcIntersectionDetail(ray *core.Ray, probe *core.HitProbe, detail *core.HitDetail) {
	position := ray.At(probe.T)
	normal := position.Subtract(s.Center).Divide(s.Radius)
	if normal.IsZero() {
		normal = core.NewVec3(0, 1, 0)
	}

	uvw := s.positionToUvw(position)
	if mapper := s.metadata.MapperForChannel(probe.DetailChannel); mapper != nil {
		uvw = mapper.MapToUvw(position)
	}

	detail.SetBasics(s, position, normal, normal, uvw, probe.T)

	// 2nd-order central differences of the parameterization
	const h = 1e-4
	dPdU := s.uvwToPosition(uvw.X+h, uvw.Y).
		Subtract(s.uvwToPosition(uvw.X-h, uvw.Y)).
		Divide(2 * h)
	dPdV := s.uvwToPosition(uvw.X, uvw.Y+h).
		Subtract(s.uvwToPosition(uvw.X, uvw.Y-h)).
		Divide(2 * h)
	if !dPdU.IsFinite() || !dPdV.IsFinite() || dPdU.IsZero() || dPdV.IsZero() {
		basis := core.SynthesizeBasis(normal)
		dPdU, dPdV = basis.U, basis.V
	}

	// Normals scale with position on a sphere
	invR := 1.0 / s.Radius
	detail.SetDerivatives(dPdU, dPdV, dPdU.Multiply(invR), dPdV.Multiply(invR))
}

// positionToUvw maps a surface position to lat-long coordinates matching the
// environment convention: theta = (1-v)*pi from +Y, phi = u*2*pi
func (s *Sphere) positionToUvw(position core.Vec3) core.Vec3 {
	dir := position.Subtract(s.Center).Normalize()
	cosTheta := min(1.0, max(-1.0, dir.Y))
	theta := math.Acos(cosTheta)
	phi := math.Atan2(dir.X, dir.Z)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return core.NewVec3(phi/(2*math.Pi), 1.0-theta/math.Pi, 0)
}

// uvwToPosition is the inverse lat-long mapping back onto the sphere surface
func (s *Sphere) uvwToPosition(u, v float64) core.Vec3 {
	theta := (1.0 - v) * math.Pi
	phi := u * 2.0 * math.Pi
	sinTheta := math.Sin(theta)
	dir := core.NewVec3(sinTheta*math.Sin(phi), math.Cos(theta), sinTheta*math.Cos(phi))
	return s.Center.Add(dir.Multiply(s.Radius))
}

// CalcAABB returns the sphere bound
func (s *Sphere) CalcAABB() core.AABB {
	r := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return core.NewAABB(s.Center.Subtract(r), s.Center.Add(r))
}

// CalcExtendedArea returns the sphere surface area
func (s *Sphere) CalcExtendedArea() float64 {
	return 4.0 * math.Pi * s.Radius * s.Radius
}

// GenPositionSample draws a point uniform on the surface
func (s *Sphere) GenPositionSample(flow *core.SampleFlow) (core.PositionSample, bool) {
	if s.Radius == 0 {
		return core.PositionSample{}, false
	}

	dir := core.SampleUniformSphere(flow.Flow2D())
	position := s.Center.Add(dir.Multiply(s.Radius))
	return core.PositionSample{
		Position: position,
		Normal:   dir,
		Uvw:      s.positionToUvw(position),
		PdfA:     core.SpherePdfA(s.Radius),
	}, true
}

// CalcPositionSamplePdfA returns 1 / (4*pi*r^2)
func (s *Sphere) CalcPositionSamplePdfA(position core.Vec3) float64 {
	return core.SpherePdfA(s.Radius)
}

// OverlapsVolume uses Arvo's solid-box / hollow-sphere test: the box overlaps
// the spherical shell iff the squared distance from the center to the box is
// within r^2 and the box is not entirely inside the sphere.
func (s *Sphere) OverlapsVolume(volume core.AABB) bool {
	if s.Radius == 0 {
		return false
	}

	r2 := s.Radius * s.Radius

	// Squared distance from center to the closest point of the box
	dMin := 0.0
	// Squared distance from center to the farthest point of the box
	dMax := 0.0
	for axis := 0; axis < 3; axis++ {
		c := s.Center.Component(axis)
		lo := volume.Min.Component(axis)
		hi := volume.Max.Component(axis)

		if c < lo {
			d := lo - c
			dMin += d * d
		} else if c > hi {
			d := c - hi
			dMin += d * d
		}

		far := math.Max(math.Abs(c-lo), math.Abs(c-hi))
		dMax += far * far
	}

	return dMin <= r2 && dMax >= r2
}
