package optics

import (
	"math"

	"github.com/arvoss/go-pathtracer/pkg/core"
	"github.com/arvoss/go-pathtracer/pkg/texture"
)

// AbradedOpaque is glossy microfacet reflection in the form of Walter et al.
// 2007: f = F * D * G / (4 |N.V| |N.L|), with the half vector sampled from
// the NDF and pdfW(l) = D(m)|m.N| / (4 |V.m|).
type AbradedOpaque struct {
	microfacet Microfacet
	fresnel    Fresnel
	scale      texture.Texture
}

// NewAbradedOpaque creates a glossy reflector from a microfacet distribution
// and a Fresnel term
func NewAbradedOpaque(microfacet Microfacet, fresnel Fresnel) *AbradedOpaque {
	return &AbradedOpaque{
		microfacet: microfacet,
		fresnel:    fresnel,
		scale:      texture.NewConstant(core.NewSpectrumScalar(1)),
	}
}

// NewAbradedOpaqueScaled adds a spectral reflection scale texture
func NewAbradedOpaqueScaled(microfacet Microfacet, fresnel Fresnel, scale texture.Texture) *AbradedOpaque {
	return &AbradedOpaque{microfacet: microfacet, fresnel: fresnel, scale: scale}
}

// Phenomena declares glossy reflection
func (o *AbradedOpaque) Phenomena() core.SurfacePhenomena {
	return core.PhenomenaOf(core.GlossyReflection)
}

// NumElementals returns 1
func (o *AbradedOpaque) NumElementals() int {
	return 1
}

// CalcBsdf evaluates the Cook-Torrance form
func (o *AbradedOpaque) CalcBsdf(ctx core.BsdfQueryContext, x *core.HitDetail, l, v core.Vec3) core.Spectrum {
	if !core.SidednessAgreed(ctx, x, l, v, true) {
		return core.BlackSpectrum()
	}

	basis := core.SynthesizeBasis(x.ShadingNormal)
	localL := basis.WorldToLocal(l)
	localV := basis.WorldToLocal(v)
	if localL.Z <= 0 || localV.Z <= 0 {
		// Reflection only; flip the frame for backface shading
		localL = localL.Negate()
		localV = localV.Negate()
		if localL.Z <= 0 || localV.Z <= 0 {
			return core.BlackSpectrum()
		}
	}

	h := localL.Add(localV)
	if h.IsZero() {
		return core.BlackSpectrum()
	}
	m := h.Normalize()

	d := o.microfacet.Distribution(m)
	g := o.microfacet.Shadowing(localL, localV, m)
	f := o.fresnel.CalcReflectance(localV.Dot(m))

	denom := 4 * localV.Z * localL.Z
	if denom <= 0 || d == 0 || g == 0 {
		return core.BlackSpectrum()
	}
	return f.Mul(o.scale.Sample(x.Uvw)).MulScalar(d * g / denom)
}

// GenBsdfSample importance-samples the half vector and reflects V about it
func (o *AbradedOpaque) GenBsdfSample(ctx core.BsdfQueryContext, x *core.HitDetail, v core.Vec3, flow *core.SampleFlow) (core.BsdfSample, bool) {
	basis := core.SynthesizeBasis(x.ShadingNormal)
	localV := basis.WorldToLocal(v)
	flipped := false
	if localV.Z < 0 {
		localV = localV.Negate()
		flipped = true
	}
	if localV.Z == 0 {
		return core.BsdfSample{}, false
	}

	m := o.microfacet.SampleH(flow.Flow2D())
	vDotM := localV.Dot(m)
	if vDotM <= 0 {
		return core.BsdfSample{}, false
	}

	localL := m.Multiply(2 * vDotM).Subtract(localV)
	if localL.Z <= 0 {
		return core.BsdfSample{}, false
	}

	pdfW := o.microfacet.Distribution(m) * math.Abs(m.Z) / (4 * vDotM)
	if pdfW <= 0 {
		return core.BsdfSample{}, false
	}

	g := o.microfacet.Shadowing(localL, localV, m)
	f := o.fresnel.CalcReflectance(vDotM)

	// f * |N.L| / pdfW with D, the factor 4 and |N.L| cancelled:
	// F * G * |V.m| / (|N.V| |m.N|)
	weight := f.MulScalar(g * vDotM / (localV.Z * math.Abs(m.Z)))

	outL := localL
	if flipped {
		outL = outL.Negate()
	}
	worldL := basis.LocalToWorld(outL).Normalize()
	if !core.SidednessAgreed(ctx, x, worldL, v, true) {
		return core.BsdfSample{}, false
	}

	sample := core.BsdfSample{
		L:              worldL,
		PdfAppliedBsdf: weight.Mul(o.scale.Sample(x.Uvw)),
	}
	return sample, sample.IsMeasurable()
}

// CalcBsdfPdfW converts the half-vector density to a solid-angle pdf
func (o *AbradedOpaque) CalcBsdfPdfW(ctx core.BsdfQueryContext, x *core.HitDetail, l, v core.Vec3) float64 {
	basis := core.SynthesizeBasis(x.ShadingNormal)
	localL := basis.WorldToLocal(l)
	localV := basis.WorldToLocal(v)
	if localL.Z*localV.Z <= 0 {
		return 0
	}
	if localV.Z < 0 {
		localL = localL.Negate()
		localV = localV.Negate()
	}
	return HalfVectorPdfW(o.microfacet, localL, localV)
}
