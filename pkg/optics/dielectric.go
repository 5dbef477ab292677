package optics

import (
	"github.com/arvoss/go-pathtracer/pkg/core"
)

// IdealDielectric combines an ideal reflector and an ideal transmitter over
// the same interface, picking the lobe stochastically by the exact Fresnel
// reflectance (like glass). Two elementals: 0 = reflection, 1 = transmission.
type IdealDielectric struct {
	fresnel     DielectricFresnel
	reflector   *IdealReflector
	transmitter *IdealTransmitter
}

// NewIdealDielectric creates a glass-like optics for the given media pair
func NewIdealDielectric(fresnel DielectricFresnel) *IdealDielectric {
	return &IdealDielectric{
		fresnel:     fresnel,
		reflector:   NewIdealReflector(fresnel),
		transmitter: NewIdealTransmitter(fresnel),
	}
}

// Phenomena declares both delta lobes
func (o *IdealDielectric) Phenomena() core.SurfacePhenomena {
	return core.PhenomenaOf(core.DeltaReflection, core.DeltaTransmission)
}

// NumElementals returns 2
func (o *IdealDielectric) NumElementals() int {
	return 2
}

// CalcBsdf is zero for a delta optics
func (o *IdealDielectric) CalcBsdf(ctx core.BsdfQueryContext, x *core.HitDetail, l, v core.Vec3) core.Spectrum {
	return core.BlackSpectrum()
}

// GenBsdfSample picks reflection with probability F and transmission with
// probability 1-F; the pick probability cancels against the lobe's Fresnel
// factor so the returned weight stays near the scale value.
func (o *IdealDielectric) GenBsdfSample(ctx core.BsdfQueryContext, x *core.HitDetail, v core.Vec3, flow *core.SampleFlow) (core.BsdfSample, bool) {
	switch ctx.Elemental {
	case 0:
		return o.reflector.GenBsdfSample(ctx, x, v, flow)
	case 1:
		return o.transmitter.GenBsdfSample(ctx, x, v, flow)
	}

	cosV := x.ShadingNormal.Dot(v)
	reflectProb := o.fresnel.CalcReflectance(cosV).CalcLuminance(core.QuantityRaw)
	reflectProb = max(0.0, min(1.0, reflectProb))

	childCtx := ctx
	childCtx.Elemental = core.AllElementals

	if flow.Pick(reflectProb) {
		sample, ok := o.reflector.GenBsdfSample(childCtx, x, v, flow)
		if !ok {
			return core.BsdfSample{}, false
		}
		sample.PdfAppliedBsdf = sample.PdfAppliedBsdf.DivScalar(reflectProb)
		return sample, sample.IsMeasurable()
	}

	sample, ok := o.transmitter.GenBsdfSample(childCtx, x, v, flow)
	if !ok {
		// Total internal reflection routes all energy to the mirror lobe
		sample, ok = o.reflector.GenBsdfSample(childCtx, x, v, flow)
		if !ok {
			return core.BsdfSample{}, false
		}
		sample.PdfAppliedBsdf = sample.PdfAppliedBsdf.DivScalar(1 - reflectProb)
		return sample, sample.IsMeasurable()
	}
	sample.PdfAppliedBsdf = sample.PdfAppliedBsdf.DivScalar(1 - reflectProb)
	return sample, sample.IsMeasurable()
}

// CalcBsdfPdfW is zero for a delta optics
func (o *IdealDielectric) CalcBsdfPdfW(ctx core.BsdfQueryContext, x *core.HitDetail, l, v core.Vec3) float64 {
	return 0
}
