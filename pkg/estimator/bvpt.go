package estimator

import (
	"github.com/arvoss/go-pathtracer/pkg/core"
)

// Bvpt is backward vanilla path tracing: bounce BSDF samples until the path
// escapes, dies to Russian roulette or exceeds the bounce cap. Emitted
// radiance is collected only when the path lands on an emitter, so bright
// small lights converge slowly; Bneept is the production estimator.
type Bvpt struct {
	MaxBounces    int
	RRMinBounces  int
	bsdfCtx       core.BsdfQueryContext
}

// NewBvpt creates the estimator with the given bounce caps
func NewBvpt(maxBounces, rrMinBounces int) *Bvpt {
	return &Bvpt{
		MaxBounces:   maxBounces,
		RRMinBounces: rrMinBounces,
		bsdfCtx:      core.DefaultBsdfQueryContext(),
	}
}

// Estimate traces one path
func (e *Bvpt) Estimate(ray core.Ray, integrand Integrand, flow *core.SampleFlow) Estimation {
	sceneRef := integrand.Scene
	radiance := core.BlackSpectrum()
	throughput := core.NewSpectrumScalar(1)
	tracingRay := ray

	for bounce := 0; bounce < e.MaxBounces; bounce++ {
		var detail core.HitDetail
		if !sceneRef.CalcIntersection(&tracingRay, &detail) {
			if bg := sceneRef.Background(); bg != nil {
				le := bg.EvalRadianceForDirection(tracingRay.Direction)
				radiance = radiance.Add(clampContribution(throughput.Mul(le)))
			}
			break
		}

		v := tracingRay.Direction.Negate().Normalize()
		meta := detail.Primitive.Metadata()

		if meta.Emitter != nil {
			le := meta.Emitter.EvalEmittedRadiance(&detail, v)
			radiance = radiance.Add(clampContribution(throughput.Mul(le)))
		}

		// Russian roulette with survival q = min(1, max(throughput))
		if bounce >= e.RRMinBounces {
			q := min(1.0, throughput.MaxComponent())
			if q <= 0 || !flow.Pick(q) {
				break
			}
			throughput = throughput.DivScalar(q)
		}

		sample, ok := meta.Optics.GenBsdfSample(e.bsdfCtx, &detail, v, flow)
		if !ok {
			break
		}

		throughput = throughput.Mul(sample.PdfAppliedBsdf)
		if throughput.IsZero() || !throughput.IsFinite() {
			break
		}

		tracingRay = core.NewRay(detail.Offset(sample.L), sample.L)
	}

	return Estimation{Radiance: radiance}
}
