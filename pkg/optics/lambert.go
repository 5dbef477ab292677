package optics

import (
	"math"

	"github.com/arvoss/go-pathtracer/pkg/core"
	"github.com/arvoss/go-pathtracer/pkg/texture"
)

// LambertianDiffuse is a perfectly diffuse reflector with f = albedo / pi and
// cosine-weighted hemisphere sampling.
type LambertianDiffuse struct {
	albedo texture.Texture
}

// NewLambertianDiffuse creates a diffuse optics with a textured albedo
func NewLambertianDiffuse(albedo texture.Texture) *LambertianDiffuse {
	return &LambertianDiffuse{albedo: albedo}
}

// NewLambertianDiffuseConstant creates a diffuse optics with a constant albedo
func NewLambertianDiffuseConstant(albedo core.Spectrum) *LambertianDiffuse {
	return &LambertianDiffuse{albedo: texture.NewConstant(albedo)}
}

// Phenomena declares diffuse reflection
func (o *LambertianDiffuse) Phenomena() core.SurfacePhenomena {
	return core.PhenomenaOf(core.DiffuseReflection)
}

// NumElementals returns 1
func (o *LambertianDiffuse) NumElementals() int {
	return 1
}

// CalcBsdf returns albedo / pi when V and L share the surface's upper
// hemisphere
func (o *LambertianDiffuse) CalcBsdf(ctx core.BsdfQueryContext, x *core.HitDetail, l, v core.Vec3) core.Spectrum {
	if !core.SidednessAgreed(ctx, x, l, v, true) {
		return core.BlackSpectrum()
	}
	if x.ShadingNormal.Dot(l)*x.ShadingNormal.Dot(v) <= 0 {
		return core.BlackSpectrum()
	}
	return o.albedo.Sample(x.Uvw).MulScalar(1.0 / math.Pi)
}

// GenBsdfSample draws a cosine-weighted direction about the shading normal on
// V's side. The pdf-applied BSDF collapses to the albedo exactly:
// (albedo/pi) * cos / (cos/pi) = albedo.
func (o *LambertianDiffuse) GenBsdfSample(ctx core.BsdfQueryContext, x *core.HitDetail, v core.Vec3, flow *core.SampleFlow) (core.BsdfSample, bool) {
	normal := x.ShadingNormal
	if normal.Dot(v) < 0 {
		normal = normal.Negate()
	}

	basis := core.SynthesizeBasis(normal)
	local := core.SampleCosineHemisphere(flow.Flow2D())
	l := basis.LocalToWorld(local)
	if local.Z <= 0 {
		return core.BsdfSample{}, false
	}
	if !core.SidednessAgreed(ctx, x, l, v, true) {
		return core.BsdfSample{}, false
	}

	sample := core.BsdfSample{
		L:              l,
		PdfAppliedBsdf: o.albedo.Sample(x.Uvw),
	}
	return sample, sample.IsMeasurable()
}

// CalcBsdfPdfW returns cos(theta_l) / pi on V's hemisphere
func (o *LambertianDiffuse) CalcBsdfPdfW(ctx core.BsdfQueryContext, x *core.HitDetail, l, v core.Vec3) float64 {
	normal := x.ShadingNormal
	if normal.Dot(v) < 0 {
		normal = normal.Negate()
	}
	return core.CosineHemispherePdfW(normal.Dot(l))
}
