package geometry

import (
	"math"

	"github.com/arvoss/go-pathtracer/pkg/core"
)

// aabbPadding keeps flat triangles from producing zero-thickness bounds
const aabbPadding = 1e-8

// Triangle is an immutable triangle primitive. Vertices are in world space;
// many triangles (e.g. all faces of a mesh) share one metadata record.
type Triangle struct {
	A, B, C core.Vec3

	// Per-vertex shading attributes; normals default to the face normal and
	// uvw to barycentric coordinates when not provided.
	NA, NB, NC    core.Vec3
	UvwA          core.Vec3
	UvwB          core.Vec3
	UvwC          core.Vec3
	faceNormal    core.Vec3
	area          float64
	bound         core.AABB
	metadata      *core.PrimitiveMetadata
	hasVertexNorm bool
}

// NewTriangle creates a triangle with face-normal shading and barycentric uvw
func NewTriangle(a, b, c core.Vec3, metadata *core.PrimitiveMetadata) *Triangle {
	t := &Triangle{
		A: a, B: b, C: c,
		UvwA:     core.NewVec3(0, 0, 0),
		UvwB:     core.NewVec3(1, 0, 0),
		UvwC:     core.NewVec3(0, 1, 0),
		metadata: metadata,
	}
	t.cook()
	t.NA, t.NB, t.NC = t.faceNormal, t.faceNormal, t.faceNormal
	return t
}

// NewTriangleWithAttributes creates a triangle with per-vertex normals and uvw
func NewTriangleWithAttributes(a, b, c core.Vec3, na, nb, nc core.Vec3, uvwA, uvwB, uvwC core.Vec3, metadata *core.PrimitiveMetadata) *Triangle {
	t := &Triangle{
		A: a, B: b, C: c,
		NA: na.Normalize(), NB: nb.Normalize(), NC: nc.Normalize(),
		UvwA: uvwA, UvwB: uvwB, UvwC: uvwC,
		metadata:      metadata,
		hasVertexNorm: true,
	}
	t.cook()
	return t
}

func (t *Triangle) cook() {
	eAB := t.B.Subtract(t.A)
	eAC := t.C.Subtract(t.A)
	cross := eAB.Cross(eAC)
	t.area = 0.5 * cross.Length()
	if t.area > 0 {
		t.faceNormal = cross.Normalize()
	} else {
		// Degenerate triangle: inert, never intersects
		t.faceNormal = core.NewVec3(0, 0, 1)
	}
	t.bound = core.NewAABBFromPoints(t.A, t.B, t.C).Expand(aabbPadding)
}

// Metadata returns the shared metadata record
func (t *Triangle) Metadata() *core.PrimitiveMetadata {
	return t.metadata
}

// IsIntersecting performs the watertight ray-triangle test of Woop et al. On a
// hit the barycentric coordinates are cached on the probe for the detail
// computation.
func (t *Triangle) IsIntersecting(ray *core.Ray, probe *core.HitProbe) bool {
	if t.area == 0 {
		return false
	}

	// Permute so the ray direction's largest component becomes Z
	kz := ray.Direction.MaxDimension()
	kx := (kz + 1) % 3
	ky := (kx + 1) % 3
	dz := ray.Direction.Component(kz)
	if dz < 0 {
		kx, ky = ky, kx
		dz = ray.Direction.Component(kz)
	}

	dx := ray.Direction.Component(kx)
	dy := ray.Direction.Component(ky)
	sx := dx / dz
	sy := dy / dz
	sz := 1.0 / dz

	// Vertices relative to the ray origin, sheared into ray space
	a := t.A.Subtract(ray.Origin)
	b := t.B.Subtract(ray.Origin)
	c := t.C.Subtract(ray.Origin)

	ax := a.Component(kx) - sx*a.Component(kz)
	ay := a.Component(ky) - sy*a.Component(kz)
	bx := b.Component(kx) - sx*b.Component(kz)
	by := b.Component(ky) - sy*b.Component(kz)
	cx := c.Component(kx) - sx*c.Component(kz)
	cy := c.Component(ky) - sy*c.Component(kz)

	// Scaled barycentric coordinates from 2D edge functions
	u := cx*by - cy*bx
	v := ax*cy - ay*cx
	w := bx*ay - by*ax

	if (u < 0 || v < 0 || w < 0) && (u > 0 || v > 0 || w > 0) {
		return false
	}
	det := u + v + w
	if det == 0 {
		return false
	}

	az := sz * a.Component(kz)
	bz := sz * b.Component(kz)
	cz := sz * c.Component(kz)
	tScaled := u*az + v*bz + w*cz

	// Sign-aware interval rejection before the division
	if det < 0 && (tScaled >= ray.TMin*det || tScaled < ray.TMax*det) {
		return false
	}
	if det > 0 && (tScaled <= ray.TMin*det || tScaled > ray.TMax*det) {
		return false
	}

	invDet := 1.0 / det
	probe.PushHit(t, tScaled*invDet)
	probe.Cache[0] = u * invDet
	probe.Cache[1] = v * invDet
	probe.Cache[2] = w * invDet
	return true
}

// CalcIntersectionDetail completes the probe into a full hit description using
// the cached barycentrics
func (t *Triangle) CalcIntersectionDetail(ray *core.Ray, probe *core.HitProbe, detail *core.HitDetail) {
	bA, bB, bC := probe.Cache[0], probe.Cache[1], probe.Cache[2]
	position := ray.At(probe.T)

	shadingNormal := t.faceNormal
	if t.hasVertexNorm {
		shadingNormal = t.NA.Multiply(bA).
			Add(t.NB.Multiply(bB)).
			Add(t.NC.Multiply(bC)).Normalize()
		if shadingNormal.IsZero() {
			shadingNormal = t.faceNormal
		}
	}

	uvw := t.UvwA.Multiply(bA).
		Add(t.UvwB.Multiply(bB)).
		Add(t.UvwC.Multiply(bC))
	if mapper := t.metadata.MapperForChannel(probe.DetailChannel); mapper != nil {
		uvw = mapper.MapToUvw(position)
	}

	detail.SetBasics(t, position, t.faceNormal, shadingNormal, uvw, probe.T)

	dPdU, dPdV := t.calcPositionDerivatives()
	dNdU, dNdV := t.calcNormalDerivatives()
	detail.SetDerivatives(dPdU, dPdV, dNdU, dNdV)
}

// calcPositionDerivatives solves the UV matrix system
//
//	[dUV_AB.x dUV_AB.y] [dPdU]   [eAB]
//	[dUV_AC.x dUV_AC.y] [dPdV] = [eAC]
//
// and falls back to an orthonormal basis on the face normal when the matrix is
// singular.
func (t *Triangle) calcPositionDerivatives() (core.Vec3, core.Vec3) {
	dUVab := core.NewVec2(t.UvwB.X-t.UvwA.X, t.UvwB.Y-t.UvwA.Y)
	dUVac := core.NewVec2(t.UvwC.X-t.UvwA.X, t.UvwC.Y-t.UvwA.Y)
	eAB := t.B.Subtract(t.A)
	eAC := t.C.Subtract(t.A)

	det := dUVab.X*dUVac.Y - dUVab.Y*dUVac.X
	if det == 0 {
		basis := core.SynthesizeBasis(t.faceNormal)
		return basis.U, basis.V
	}

	invDet := 1.0 / det
	dPdU := eAB.Multiply(dUVac.Y * invDet).Subtract(eAC.Multiply(dUVab.Y * invDet))
	dPdV := eAC.Multiply(dUVab.X * invDet).Subtract(eAB.Multiply(dUVac.X * invDet))
	return dPdU, dPdV
}

func (t *Triangle) calcNormalDerivatives() (core.Vec3, core.Vec3) {
	if !t.hasVertexNorm {
		return core.Vec3{}, core.Vec3{}
	}

	dUVab := core.NewVec2(t.UvwB.X-t.UvwA.X, t.UvwB.Y-t.UvwA.Y)
	dUVac := core.NewVec2(t.UvwC.X-t.UvwA.X, t.UvwC.Y-t.UvwA.Y)
	nAB := t.NB.Subtract(t.NA)
	nAC := t.NC.Subtract(t.NA)

	det := dUVab.X*dUVac.Y - dUVab.Y*dUVac.X
	if det == 0 {
		return core.Vec3{}, core.Vec3{}
	}

	invDet := 1.0 / det
	dNdU := nAB.Multiply(dUVac.Y * invDet).Subtract(nAC.Multiply(dUVab.Y * invDet))
	dNdV := nAC.Multiply(dUVab.X * invDet).Subtract(nAB.Multiply(dUVac.X * invDet))
	return dNdU, dNdV
}

// CalcAABB returns the epsilon-padded vertex bound
func (t *Triangle) CalcAABB() core.AABB {
	return t.bound
}

// CalcExtendedArea returns the triangle area
func (t *Triangle) CalcExtendedArea() float64 {
	return t.area
}

// GenPositionSample draws a point uniform in area via Osada's sqrt scheme
func (t *Triangle) GenPositionSample(flow *core.SampleFlow) (core.PositionSample, bool) {
	if t.area == 0 {
		return core.PositionSample{}, false
	}

	bary := core.SampleTriangleBarycentric(flow.Flow2D())
	bB, bC := bary.X, bary.Y
	bA := 1.0 - bB - bC

	position := t.A.Multiply(bA).Add(t.B.Multiply(bB)).Add(t.C.Multiply(bC))
	normal := t.faceNormal
	if t.hasVertexNorm {
		normal = t.NA.Multiply(bA).Add(t.NB.Multiply(bB)).Add(t.NC.Multiply(bC)).Normalize()
	}
	uvw := t.UvwA.Multiply(bA).Add(t.UvwB.Multiply(bB)).Add(t.UvwC.Multiply(bC))

	return core.PositionSample{
		Position: position,
		Normal:   normal,
		Uvw:      uvw,
		PdfA:     1.0 / t.area,
	}, true
}

// CalcPositionSamplePdfA returns the uniform area pdf, zero for degenerate
// triangles
func (t *Triangle) CalcPositionSamplePdfA(position core.Vec3) float64 {
	if t.area == 0 {
		return 0
	}
	return 1.0 / t.area
}

// OverlapsVolume performs the separating-axis triangle/AABB test of
// Akenine-Moller: 3 box axes, the face normal, and 9 edge cross products.
func (t *Triangle) OverlapsVolume(volume core.AABB) bool {
	center := volume.Center()
	half := volume.Size().Multiply(0.5)

	// Translate the triangle so the box is at the origin
	v0 := t.A.Subtract(center)
	v1 := t.B.Subtract(center)
	v2 := t.C.Subtract(center)

	e0 := v1.Subtract(v0)
	e1 := v2.Subtract(v1)
	e2 := v0.Subtract(v2)

	// 9 cross-product axes
	edges := [3]core.Vec3{e0, e1, e2}
	for _, e := range edges {
		axes := [3]core.Vec3{
			{X: 0, Y: -e.Z, Z: e.Y},
			{X: e.Z, Y: 0, Z: -e.X},
			{X: -e.Y, Y: e.X, Z: 0},
		}
		for _, axis := range axes {
			p0 := v0.Dot(axis)
			p1 := v1.Dot(axis)
			p2 := v2.Dot(axis)
			r := half.X*math.Abs(axis.X) + half.Y*math.Abs(axis.Y) + half.Z*math.Abs(axis.Z)
			if math.Min(p0, math.Min(p1, p2)) > r || math.Max(p0, math.Max(p1, p2)) < -r {
				return false
			}
		}
	}

	// 3 box axes: an AABB test against the triangle bound
	for axis := 0; axis < 3; axis++ {
		lo := math.Min(v0.Component(axis), math.Min(v1.Component(axis), v2.Component(axis)))
		hi := math.Max(v0.Component(axis), math.Max(v1.Component(axis), v2.Component(axis)))
		if lo > half.Component(axis) || hi < -half.Component(axis) {
			return false
		}
	}

	// Face normal: plane/AABB overlap
	normal := e0.Cross(e2.Negate())
	d := normal.Dot(v0)
	r := half.X*math.Abs(normal.X) + half.Y*math.Abs(normal.Y) + half.Z*math.Abs(normal.Z)
	return math.Abs(d) <= r
}

// FaceNormal returns the geometric normal
func (t *Triangle) FaceNormal() core.Vec3 {
	return t.faceNormal
}
