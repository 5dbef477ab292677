package estimator

import (
	"github.com/arvoss/go-pathtracer/pkg/core"
)

// Bneept is backward path tracing with next-event estimation: at every
// non-delta vertex a light is sampled explicitly, and the two strategies are
// combined with the power heuristic. Delta vertices skip NEE (their BSDF is
// zero for any sampled light direction) and take the full BSDF contribution.
type Bneept struct {
	MaxBounces   int
	RRMinBounces int
	bsdfCtx      core.BsdfQueryContext
}

// NewBneept creates the estimator with the given bounce caps
func NewBneept(maxBounces, rrMinBounces int) *Bneept {
	return &Bneept{
		MaxBounces:   maxBounces,
		RRMinBounces: rrMinBounces,
		bsdfCtx:      core.DefaultBsdfQueryContext(),
	}
}

// Estimate traces one path with NEE + MIS
func (e *Bneept) Estimate(ray core.Ray, integrand Integrand, flow *core.SampleFlow) Estimation {
	sceneRef := integrand.Scene
	sampler := sceneRef.EmitterSampler()

	radiance := core.BlackSpectrum()
	throughput := core.NewSpectrumScalar(1)
	tracingRay := ray

	// State of the previous vertex, used to MIS-weight emitter hits made by
	// BSDF continuation rays
	prevPos := ray.Origin
	prevBsdfPdfW := 0.0
	prevWasDelta := true // camera vertices count as delta: weight 1

	for bounce := 0; bounce < e.MaxBounces; bounce++ {
		var detail core.HitDetail
		if !sceneRef.CalcIntersection(&tracingRay, &detail) {
			if bg := sceneRef.Background(); bg != nil {
				weight := 1.0
				if !prevWasDelta {
					pdfLight := sampler.SelectionProb(bg) * bg.PdfWForDirection(tracingRay.Direction)
					weight = core.PowerHeuristic(1, prevBsdfPdfW, 1, pdfLight)
				}
				le := bg.EvalRadianceForDirection(tracingRay.Direction)
				radiance = radiance.Add(clampContribution(throughput.Mul(le).MulScalar(weight)))
			}
			break
		}

		v := tracingRay.Direction.Negate().Normalize()
		meta := detail.Primitive.Metadata()

		// Emission picked up by the BSDF strategy
		if meta.Emitter != nil {
			le := meta.Emitter.EvalEmittedRadiance(&detail, v)
			if !le.IsZero() {
				weight := 1.0
				if !prevWasDelta {
					pdfLight := sampler.SelectionProb(meta.Emitter) *
						meta.Emitter.CalcDirectSamplePdfW(&detail, prevPos)
					weight = core.PowerHeuristic(1, prevBsdfPdfW, 1, pdfLight)
				}
				radiance = radiance.Add(clampContribution(throughput.Mul(le).MulScalar(weight)))
			}
		}

		// Next-event estimation at non-delta vertices
		if !meta.Optics.Phenomena().IsAllDelta() {
			radiance = radiance.Add(e.estimateDirect(integrand, &detail, v, throughput, flow))
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

		prevBsdfPdfW = meta.Optics.CalcBsdfPdfW(e.bsdfCtx, &detail, sample.L, v)
		prevWasDelta = prevBsdfPdfW == 0
		prevPos = detail.Position
		tracingRay = core.NewRay(detail.Offset(sample.L), sample.L)
	}

	return Estimation{Radiance: radiance}
}

// estimateDirect samples one emitter toward the vertex and weights the
// contribution with the power heuristic against the BSDF strategy
func (e *Bneept) estimateDirect(integrand Integrand, detail *core.HitDetail, v core.Vec3, throughput core.Spectrum, flow *core.SampleFlow) core.Spectrum {
	sceneRef := integrand.Scene

	picked, selectProb, ok := sceneRef.EmitterSampler().Sample(flow)
	if !ok {
		return core.BlackSpectrum()
	}

	sample, ok := picked.GenDirectSample(detail.Position, flow)
	if !ok || sample.PdfW <= 0 {
		return core.BlackSpectrum()
	}

	toEmitter := sample.EmitPos.Subtract(detail.Position)
	dist := toEmitter.Length()
	if dist == 0 {
		return core.BlackSpectrum()
	}
	l := toEmitter.Divide(dist)

	shadowRay := core.NewRayTo(detail.Offset(l), sample.EmitPos)
	if sceneRef.IsOccluding(&shadowRay) {
		return core.BlackSpectrum()
	}

	bsdf := detail.Primitive.Metadata().Optics.CalcBsdf(e.bsdfCtx, detail, l, v)
	if bsdf.IsZero() {
		return core.BlackSpectrum()
	}

	cos := detail.ShadingNormal.AbsDot(l)
	pdfLight := sample.PdfW * selectProb
	pdfBsdf := detail.Primitive.Metadata().Optics.CalcBsdfPdfW(e.bsdfCtx, detail, l, v)
	weight := core.PowerHeuristic(1, pdfLight, 1, pdfBsdf)

	contribution := throughput.
		Mul(bsdf).
		Mul(sample.RadianceLe).
		MulScalar(cos * weight / pdfLight)
	return clampContribution(contribution)
}
