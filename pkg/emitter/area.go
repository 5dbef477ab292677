package emitter

import (
	"math"

	"github.com/arvoss/go-pathtracer/pkg/core"
	"github.com/arvoss/go-pathtracer/pkg/texture"
)

// PrimitiveAreaEmitter emits from the front faces of a set of primitives
// (e.g. the two triangles of a rectangular lamp). The emitted radiance is a
// texture sampled at the hit uvw. Position sampling is uniform over the total
// area: pdfA = 1 / sum(area).
type PrimitiveAreaEmitter struct {
	primitives []core.Primitive
	radiance   texture.Texture
	areaDist   *core.Distribution1D
	totalArea  float64
}

// NewPrimitiveAreaEmitter creates an area emitter over the given primitives
func NewPrimitiveAreaEmitter(primitives []core.Primitive, radiance texture.Texture) *PrimitiveAreaEmitter {
	areas := make([]float64, len(primitives))
	totalArea := 0.0
	for i, prim := range primitives {
		areas[i] = prim.CalcExtendedArea()
		totalArea += areas[i]
	}
	return &PrimitiveAreaEmitter{
		primitives: primitives,
		radiance:   radiance,
		areaDist:   core.NewDistribution1D(areas),
		totalArea:  totalArea,
	}
}

// EvalEmittedRadiance samples the radiance texture; back faces emit nothing
func (e *PrimitiveAreaEmitter) EvalEmittedRadiance(detail *core.HitDetail, outDir core.Vec3) core.Spectrum {
	if detail.ShadingNormal.Dot(outDir) <= 0 {
		return core.BlackSpectrum()
	}
	return e.radiance.Sample(detail.Uvw)
}

// GenDirectSample draws an emitting position, picking a primitive in
// proportion to its area so the overall position density is uniform
func (e *PrimitiveAreaEmitter) GenDirectSample(targetPos core.Vec3, flow *core.SampleFlow) (core.DirectEmitterSample, bool) {
	if e.totalArea <= 0 {
		return core.DirectEmitterSample{}, false
	}

	primIndex, _ := e.areaDist.SampleDiscrete(flow.Flow1D())
	prim := e.primitives[primIndex]

	posSample, ok := prim.GenPositionSample(flow)
	if !ok {
		return core.DirectEmitterSample{}, false
	}

	toTarget := targetPos.Subtract(posSample.Position)
	dist2 := toTarget.LengthSquared()
	if dist2 == 0 {
		return core.DirectEmitterSample{}, false
	}

	cos := posSample.Normal.Dot(toTarget) / math.Sqrt(dist2)
	if cos <= 0 {
		return core.DirectEmitterSample{}, false // target behind the emitting face
	}

	pdfA := 1.0 / e.totalArea
	return core.DirectEmitterSample{
		TargetPos:  targetPos,
		EmitPos:    posSample.Position,
		RadianceLe: e.radiance.Sample(posSample.Uvw),
		PdfW:       pdfA * dist2 / cos,
		SourcePrim: prim,
	}, true
}

// CalcDirectSamplePdfW converts the uniform area pdf to solid angle at the
// target: pdfW = pdfA * d^2 / |N.L|
func (e *PrimitiveAreaEmitter) CalcDirectSamplePdfW(emitDetail *core.HitDetail, targetPos core.Vec3) float64 {
	if e.totalArea <= 0 {
		return 0
	}

	toTarget := targetPos.Subtract(emitDetail.Position)
	dist2 := toTarget.LengthSquared()
	if dist2 == 0 {
		return 0
	}

	cos := emitDetail.ShadingNormal.Dot(toTarget) / math.Sqrt(dist2)
	if cos <= 0 {
		return 0
	}

	return dist2 / (cos * e.totalArea)
}

// GenEmissionSample starts a light path from the emitting surface: a uniform
// position and a cosine-weighted direction. The returned throughput is the
// pdf-applied radiance Le * cos / (pdfA * pdfW), which collapses to
// Le * pi * totalArea for the cosine pdf.
func (e *PrimitiveAreaEmitter) GenEmissionSample(flow *core.SampleFlow) (core.Ray, core.Spectrum, bool) {
	if e.totalArea <= 0 {
		return core.Ray{}, core.BlackSpectrum(), false
	}

	primIndex, _ := e.areaDist.SampleDiscrete(flow.Flow1D())
	posSample, ok := e.primitives[primIndex].GenPositionSample(flow)
	if !ok {
		return core.Ray{}, core.BlackSpectrum(), false
	}

	basis := core.SynthesizeBasis(posSample.Normal)
	local := core.SampleCosineHemisphere(flow.Flow2D())
	if local.Z <= 0 {
		return core.Ray{}, core.BlackSpectrum(), false
	}
	dir := basis.LocalToWorld(local)

	throughput := e.radiance.Sample(posSample.Uvw).MulScalar(math.Pi * e.totalArea)
	origin := posSample.Position.Add(posSample.Normal.Multiply(core.SelfIntersectEpsilon))
	return core.NewRay(origin, dir), throughput, true
}

// CalcRadiantFluxApprox estimates emitted power as radiance * area * pi, with
// the radiance texture sampled once at uv (0.5, 0.5)
func (e *PrimitiveAreaEmitter) CalcRadiantFluxApprox() float64 {
	meanRadiance := e.radiance.Sample(core.NewVec3(0.5, 0.5, 0)).CalcLuminance(core.QuantityEMR)
	flux := meanRadiance * e.totalArea * math.Pi
	if flux <= 0 {
		return 0
	}
	return flux
}
