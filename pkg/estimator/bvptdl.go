package estimator

import (
	"github.com/arvoss/go-pathtracer/pkg/core"
)

// Bvptdl estimates direct lighting only: emitted radiance at the first hit
// plus one explicit bounce to an emitter. It is used for debugging and
// reference images.
//
// The input ray is interpreted in the sensing convention (pointing toward the
// receiver) and is reversed before tracing. The behavior is kept from the
// backward-tracing lineage of this estimator; callers feed it reversed camera
// rays.
type Bvptdl struct {
	bsdfCtx core.BsdfQueryContext
}

// NewBvptdl creates the direct-light estimator
func NewBvptdl() *Bvptdl {
	return &Bvptdl{bsdfCtx: core.DefaultBsdfQueryContext()}
}

// SensesReversedRays marks the sensing-ray convention
func (e *Bvptdl) SensesReversedRays() bool {
	return true
}

// Estimate evaluates emission at the first hit plus one next-event bounce
func (e *Bvptdl) Estimate(ray core.Ray, integrand Integrand, flow *core.SampleFlow) Estimation {
	sceneRef := integrand.Scene
	tracingRay := ray.Reversed()

	var detail core.HitDetail
	if !sceneRef.CalcIntersection(&tracingRay, &detail) {
		if bg := sceneRef.Background(); bg != nil {
			return Estimation{Radiance: clampContribution(bg.EvalRadianceForDirection(tracingRay.Direction))}
		}
		return Estimation{}
	}

	v := tracingRay.Direction.Negate().Normalize()
	meta := detail.Primitive.Metadata()

	radiance := core.BlackSpectrum()
	if meta.Emitter != nil {
		radiance = radiance.Add(clampContribution(meta.Emitter.EvalEmittedRadiance(&detail, v)))
	}

	if meta.Optics.Phenomena().IsAllDelta() {
		return Estimation{Radiance: radiance}
	}

	picked, selectProb, ok := sceneRef.EmitterSampler().Sample(flow)
	if !ok {
		return Estimation{Radiance: radiance}
	}

	sample, ok := picked.GenDirectSample(detail.Position, flow)
	if !ok || sample.PdfW <= 0 {
		return Estimation{Radiance: radiance}
	}

	toEmitter := sample.EmitPos.Subtract(detail.Position)
	dist := toEmitter.Length()
	if dist == 0 {
		return Estimation{Radiance: radiance}
	}
	l := toEmitter.Divide(dist)

	shadowRay := core.NewRayTo(detail.Offset(l), sample.EmitPos)
	if sceneRef.IsOccluding(&shadowRay) {
		return Estimation{Radiance: radiance}
	}

	bsdf := meta.Optics.CalcBsdf(e.bsdfCtx, &detail, l, v)
	cos := detail.ShadingNormal.AbsDot(l)
	contribution := bsdf.Mul(sample.RadianceLe).MulScalar(cos / (sample.PdfW * selectProb))
	radiance = radiance.Add(clampContribution(contribution))

	return Estimation{Radiance: radiance}
}
