package optics

import (
	"github.com/arvoss/go-pathtracer/pkg/core"
	"github.com/arvoss/go-pathtracer/pkg/texture"
)

// LerpedOptics is the convex combination of two optics:
// f = ratio * f0 + (1 - ratio) * f1. Elemental requests route to the
// elementals of the two children: indices [0, optics0.NumElementals()) select
// lobes of optics0, the rest select lobes of optics1.
type LerpedOptics struct {
	optics0 core.SurfaceOptics
	optics1 core.SurfaceOptics
	ratio   texture.Texture // weight of optics0, per spectral component
}

// NewLerpedOptics creates a mixture weighted by a constant ratio
func NewLerpedOptics(optics0, optics1 core.SurfaceOptics, ratio float64) *LerpedOptics {
	return &LerpedOptics{
		optics0: optics0,
		optics1: optics1,
		ratio:   texture.NewConstant(core.NewSpectrumScalar(ratio)),
	}
}

// NewLerpedOpticsTextured creates a mixture weighted by a texture
func NewLerpedOpticsTextured(optics0, optics1 core.SurfaceOptics, ratio texture.Texture) *LerpedOptics {
	return &LerpedOptics{optics0: optics0, optics1: optics1, ratio: ratio}
}

// Phenomena is the union of both children's phenomena
func (o *LerpedOptics) Phenomena() core.SurfacePhenomena {
	return o.optics0.Phenomena().Union(o.optics1.Phenomena())
}

// NumElementals sums the children's elemental counts
func (o *LerpedOptics) NumElementals() int {
	return o.optics0.NumElementals() + o.optics1.NumElementals()
}

// route resolves an elemental request to a child and its local elemental index
func (o *LerpedOptics) route(elemental int) (core.SurfaceOptics, int, bool) {
	if elemental == core.AllElementals {
		return nil, core.AllElementals, false
	}
	n0 := o.optics0.NumElementals()
	if elemental < n0 {
		return o.optics0, elemental, true
	}
	return o.optics1, elemental - n0, false
}

// CalcBsdf evaluates the weighted sum, or a single routed elemental
func (o *LerpedOptics) CalcBsdf(ctx core.BsdfQueryContext, x *core.HitDetail, l, v core.Vec3) core.Spectrum {
	ratio := o.ratio.Sample(x.Uvw).Clamp(0, 1)

	if child, local, isFirst := o.route(ctx.Elemental); child != nil {
		childCtx := ctx
		childCtx.Elemental = local
		weight := ratio
		if !isFirst {
			weight = core.NewSpectrumScalar(1).Sub(ratio)
		}
		return child.CalcBsdf(childCtx, x, l, v).Mul(weight)
	}

	ctx0 := ctx
	ctx0.Elemental = core.AllElementals
	f0 := o.optics0.CalcBsdf(ctx0, x, l, v).Mul(ratio)
	f1 := o.optics1.CalcBsdf(ctx0, x, l, v).Mul(core.NewSpectrumScalar(1).Sub(ratio))
	return f0.Add(f1)
}

// GenBsdfSample picks a child in proportion to the ratio's luminance and
// compensates the pick probability in the returned weight
func (o *LerpedOptics) GenBsdfSample(ctx core.BsdfQueryContext, x *core.HitDetail, v core.Vec3, flow *core.SampleFlow) (core.BsdfSample, bool) {
	ratio := o.ratio.Sample(x.Uvw).Clamp(0, 1)

	if child, local, isFirst := o.route(ctx.Elemental); child != nil {
		childCtx := ctx
		childCtx.Elemental = local
		sample, ok := child.GenBsdfSample(childCtx, x, v, flow)
		if !ok {
			return core.BsdfSample{}, false
		}
		weight := ratio
		if !isFirst {
			weight = core.NewSpectrumScalar(1).Sub(ratio)
		}
		sample.PdfAppliedBsdf = sample.PdfAppliedBsdf.Mul(weight)
		return sample, sample.IsMeasurable()
	}

	prob0 := ratio.CalcLuminance(core.QuantityRaw)
	prob0 = max(0.001, min(0.999, prob0))

	childCtx := ctx
	childCtx.Elemental = core.AllElementals

	picked, other := o.optics0, o.optics1
	pickedWeight := ratio
	otherWeight := core.NewSpectrumScalar(1).Sub(ratio)
	pickProb := prob0
	if !flow.Pick(prob0) {
		picked, other = o.optics1, o.optics0
		pickedWeight, otherWeight = otherWeight, pickedWeight
		pickProb = 1 - prob0
	}

	sample, ok := picked.GenBsdfSample(childCtx, x, v, flow)
	if !ok {
		return core.BsdfSample{}, false
	}

	if picked.Phenomena().IsAllDelta() {
		// The other child cannot produce this delta direction; only the pick
		// probability needs compensating
		sample.PdfAppliedBsdf = sample.PdfAppliedBsdf.Mul(pickedWeight).DivScalar(pickProb)
		return sample, sample.IsMeasurable()
	}

	// One-sample mixture estimate: combine both children's f and pdf
	pdfPicked := picked.CalcBsdfPdfW(childCtx, x, sample.L, v)
	pdfOther := other.CalcBsdfPdfW(childCtx, x, sample.L, v)
	pdfMix := pickProb*pdfPicked + (1-pickProb)*pdfOther
	if pdfMix <= 0 {
		return core.BsdfSample{}, false
	}

	fPicked := picked.CalcBsdf(childCtx, x, sample.L, v).Mul(pickedWeight)
	fOther := other.CalcBsdf(childCtx, x, sample.L, v).Mul(otherWeight)
	cos := x.ShadingNormal.AbsDot(sample.L)

	sample.PdfAppliedBsdf = fPicked.Add(fOther).MulScalar(cos / pdfMix)
	return sample, sample.IsMeasurable()
}

// CalcBsdfPdfW mixes the children's pdfs by the pick probability
func (o *LerpedOptics) CalcBsdfPdfW(ctx core.BsdfQueryContext, x *core.HitDetail, l, v core.Vec3) float64 {
	ratio := o.ratio.Sample(x.Uvw).Clamp(0, 1)

	if child, local, _ := o.route(ctx.Elemental); child != nil {
		childCtx := ctx
		childCtx.Elemental = local
		return child.CalcBsdfPdfW(childCtx, x, l, v)
	}

	prob0 := ratio.CalcLuminance(core.QuantityRaw)
	prob0 = max(0.001, min(0.999, prob0))

	childCtx := ctx
	childCtx.Elemental = core.AllElementals
	return prob0*o.optics0.CalcBsdfPdfW(childCtx, x, l, v) +
		(1-prob0)*o.optics1.CalcBsdfPdfW(childCtx, x, l, v)
}
