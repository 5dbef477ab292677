package optics

import (
	"math"

	"github.com/arvoss/go-pathtracer/pkg/core"
	"github.com/arvoss/go-pathtracer/pkg/texture"
)

// IdealReflector is a perfect mirror. Its BSDF is a delta function: Eval and
// PdfW are zero, and sampling returns the single mirror direction with the
// delta pdf folded into the pdf-applied value F / |N.L|.
type IdealReflector struct {
	fresnel Fresnel
	scale   texture.Texture // spectral reflection scale
}

// NewIdealReflector creates a mirror with the given Fresnel and a unit scale
func NewIdealReflector(fresnel Fresnel) *IdealReflector {
	return &IdealReflector{fresnel: fresnel, scale: texture.NewConstant(core.NewSpectrumScalar(1))}
}

// NewIdealReflectorScaled creates a mirror with a spectral reflection scale
// texture
func NewIdealReflectorScaled(fresnel Fresnel, scale texture.Texture) *IdealReflector {
	return &IdealReflector{fresnel: fresnel, scale: scale}
}

// Phenomena declares delta reflection
func (o *IdealReflector) Phenomena() core.SurfacePhenomena {
	return core.PhenomenaOf(core.DeltaReflection)
}

// NumElementals returns 1
func (o *IdealReflector) NumElementals() int {
	return 1
}

// CalcBsdf is zero for a delta optics
func (o *IdealReflector) CalcBsdf(ctx core.BsdfQueryContext, x *core.HitDetail, l, v core.Vec3) core.Spectrum {
	return core.BlackSpectrum()
}

// GenBsdfSample returns the deterministic mirror direction
func (o *IdealReflector) GenBsdfSample(ctx core.BsdfQueryContext, x *core.HitDetail, v core.Vec3, flow *core.SampleFlow) (core.BsdfSample, bool) {
	normal := x.ShadingNormal
	l := v.Negate().Reflect(normal).Normalize()

	cos := normal.Dot(l)
	if cos == 0 {
		return core.BsdfSample{}, false
	}
	if !core.SidednessAgreed(ctx, x, l, v, true) {
		return core.BsdfSample{}, false
	}

	reflectance := o.fresnel.CalcReflectance(cos).Mul(o.scale.Sample(x.Uvw))
	sample := core.BsdfSample{
		L:              l,
		PdfAppliedBsdf: reflectance.DivScalar(math.Abs(cos)),
	}
	return sample, sample.IsMeasurable()
}

// CalcBsdfPdfW is zero for a delta optics
func (o *IdealReflector) CalcBsdfPdfW(ctx core.BsdfQueryContext, x *core.HitDetail, l, v core.Vec3) float64 {
	return 0
}

// IdealTransmitter refracts via Snell's law. Under radiance transport the
// non-symmetry of radiance across a refractive boundary adds the Veach
// adjoint factor (etaT / etaI)^2.
type IdealTransmitter struct {
	fresnel DielectricFresnel
	scale   texture.Texture
}

// NewIdealTransmitter creates a transmitter for the given dielectric pair
func NewIdealTransmitter(fresnel DielectricFresnel) *IdealTransmitter {
	return &IdealTransmitter{fresnel: fresnel, scale: texture.NewConstant(core.NewSpectrumScalar(1))}
}

// NewIdealTransmitterScaled creates a transmitter with a spectral
// transmission scale texture
func NewIdealTransmitterScaled(fresnel DielectricFresnel, scale texture.Texture) *IdealTransmitter {
	return &IdealTransmitter{fresnel: fresnel, scale: scale}
}

// Phenomena declares delta transmission
func (o *IdealTransmitter) Phenomena() core.SurfacePhenomena {
	return core.PhenomenaOf(core.DeltaTransmission)
}

// NumElementals returns 1
func (o *IdealTransmitter) NumElementals() int {
	return 1
}

// CalcBsdf is zero for a delta optics
func (o *IdealTransmitter) CalcBsdf(ctx core.BsdfQueryContext, x *core.HitDetail, l, v core.Vec3) core.Spectrum {
	return core.BlackSpectrum()
}

// GenBsdfSample refracts V through the surface; total internal reflection
// rejects the sample.
func (o *IdealTransmitter) GenBsdfSample(ctx core.BsdfQueryContext, x *core.HitDetail, v core.Vec3, flow *core.SampleFlow) (core.BsdfSample, bool) {
	normal := x.ShadingNormal
	cosV := normal.Dot(v)

	etaI, etaT := o.fresnel.IorOuter(), o.fresnel.IorInner()
	if cosV < 0 {
		etaI, etaT = etaT, etaI
		normal = normal.Negate()
		cosV = -cosV
	}

	l, ok := refract(v, normal, etaI/etaT)
	if !ok {
		return core.BsdfSample{}, false // total internal reflection
	}
	if !core.SidednessAgreed(ctx, x, l, v, false) {
		return core.BsdfSample{}, false
	}

	cosL := x.ShadingNormal.Dot(l)
	if cosL == 0 {
		return core.BsdfSample{}, false
	}

	transmittance := core.NewSpectrumScalar(1).
		Sub(o.fresnel.CalcReflectance(x.ShadingNormal.Dot(v))).
		Mul(o.scale.Sample(x.Uvw))

	if ctx.Transport == core.TransportRadiance {
		etaRatio := etaT / etaI
		transmittance = transmittance.MulScalar(etaRatio * etaRatio)
	}

	sample := core.BsdfSample{
		L:              l,
		PdfAppliedBsdf: transmittance.DivScalar(math.Abs(cosL)),
	}
	return sample, sample.IsMeasurable()
}

// CalcBsdfPdfW is zero for a delta optics
func (o *IdealTransmitter) CalcBsdfPdfW(ctx core.BsdfQueryContext, x *core.HitDetail, l, v core.Vec3) float64 {
	return 0
}

// refract bends v (pointing away from the surface) through a surface with
// normal n on v's side; etaRatio = etaI / etaT. ok is false on total internal
// reflection.
func refract(v, n core.Vec3, etaRatio float64) (core.Vec3, bool) {
	cosI := n.Dot(v)
	sin2T := etaRatio * etaRatio * math.Max(0, 1-cosI*cosI)
	if sin2T >= 1 {
		return core.Vec3{}, false
	}
	cosT := math.Sqrt(1 - sin2T)

	// Transmitted direction points into the surface
	l := v.Negate().Multiply(etaRatio).
		Add(n.Multiply(etaRatio*cosI - cosT))
	return l.Normalize(), true
}
