package estimator

import (
	"math"
	"sort"

	"github.com/arvoss/go-pathtracer/pkg/core"
	"github.com/arvoss/go-pathtracer/pkg/scene"
)

// Photon is one stored light-path vertex. Throughput carries the photon power
// already divided by the number of emitted photons.
type Photon struct {
	Position   core.Vec3
	FromDir    core.Vec3 // direction the photon arrived from (toward the light)
	Throughput core.Spectrum
}

// EmissionSampler is implemented by emitters that can start light paths
type EmissionSampler interface {
	// GenEmissionSample draws an emission ray with its pdf-applied radiance
	// so that accumulating radiance/(pdfA*pdfW) estimates flux
	GenEmissionSample(flow *core.SampleFlow) (ray core.Ray, throughput core.Spectrum, ok bool)
}

// PhotonMap is a balanced kd-tree over photons supporting range queries
type PhotonMap struct {
	photons []Photon // pre-order: node i's left child is i+1, its right child follows the left subtree
	axes    []int8
}

// NewPhotonMap builds the map from the given photons
func NewPhotonMap(photons []Photon) *PhotonMap {
	pm := &PhotonMap{
		photons: make([]Photon, 0, len(photons)),
		axes:    make([]int8, 0, len(photons)),
	}
	pm.build(photons)
	return pm
}

func (pm *PhotonMap) build(photons []Photon) {
	if len(photons) == 0 {
		return
	}
	pm.buildSub(photons)
}

// buildSub appends the subtree in flattened pre-order:
// [median] [left subtree] [right subtree], with empty markers keeping sibling
// offsets computable.
func (pm *PhotonMap) buildSub(photons []Photon) {
	if len(photons) == 0 {
		pm.photons = append(pm.photons, Photon{})
		pm.axes = append(pm.axes, -1) // empty marker
		return
	}

	bound := core.EmptyAABB()
	for _, p := range photons {
		bound = bound.UnionPoint(p.Position)
	}
	axis := bound.LongestAxis()

	sorted := make([]Photon, len(photons))
	copy(sorted, photons)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Position.Component(axis) < sorted[j].Position.Component(axis)
	})
	median := len(sorted) / 2

	pm.photons = append(pm.photons, sorted[median])
	pm.axes = append(pm.axes, int8(axis))
	pm.buildSub(sorted[:median])
	pm.buildSub(sorted[median+1:])
}

// NumPhotons returns the number of stored photons
func (pm *PhotonMap) NumPhotons() int {
	n := 0
	for _, a := range pm.axes {
		if a >= 0 {
			n++
		}
	}
	return n
}

// ForEachInRange visits every photon within radius of center
func (pm *PhotonMap) ForEachInRange(center core.Vec3, radius float64, visit func(*Photon)) {
	pm.visitRange(0, center, radius*radius, visit)
}

// visitRange walks the pre-order flattened tree. Returns the total node count
// of the visited subtree so the caller can locate its sibling.
func (pm *PhotonMap) visitRange(node int, center core.Vec3, radius2 float64, visit func(*Photon)) int {
	if node >= len(pm.axes) {
		return 0
	}
	if pm.axes[node] < 0 {
		return 1
	}

	photon := &pm.photons[node]
	if photon.Position.Subtract(center).LengthSquared() <= radius2 {
		visit(photon)
	}

	axis := int(pm.axes[node])
	delta := center.Component(axis) - photon.Position.Component(axis)

	leftSize := 0
	if delta <= 0 || delta*delta <= radius2 {
		leftSize = pm.visitRange(node+1, center, radius2, visit)
	} else {
		leftSize = pm.subtreeSize(node + 1)
	}

	rightSize := 0
	if delta >= 0 || delta*delta <= radius2 {
		rightSize = pm.visitRange(node+1+leftSize, center, radius2, visit)
	} else {
		rightSize = pm.subtreeSize(node + 1 + leftSize)
	}
	return 1 + leftSize + rightSize
}

func (pm *PhotonMap) subtreeSize(node int) int {
	if node >= len(pm.axes) {
		return 0
	}
	if pm.axes[node] < 0 {
		return 1
	}
	left := pm.subtreeSize(node + 1)
	right := pm.subtreeSize(node + 1 + left)
	return 1 + left + right
}

// PhotonTracingWork emits light paths into the scene and stores a photon at
// every diffuse bounce
type PhotonTracingWork struct {
	NumPhotons int
	MaxBounces int
	bsdfCtx    core.BsdfQueryContext
}

// NewPhotonTracingWork creates the work with the given photon budget
func NewPhotonTracingWork(numPhotons, maxBounces int) *PhotonTracingWork {
	ctx := core.DefaultBsdfQueryContext()
	ctx.Transport = core.TransportImportance
	return &PhotonTracingWork{NumPhotons: numPhotons, MaxBounces: maxBounces, bsdfCtx: ctx}
}

// Trace runs the photon pass and returns the populated map
func (w *PhotonTracingWork) Trace(sceneRef *scene.Scene, flow *core.SampleFlow) *PhotonMap {
	var photons []Photon
	invCount := 1.0 / float64(w.NumPhotons)

	for i := 0; i < w.NumPhotons; i++ {
		picked, selectProb, ok := sceneRef.EmitterSampler().Sample(flow)
		if !ok {
			break
		}
		source, ok := picked.(EmissionSampler)
		if !ok || selectProb <= 0 {
			continue
		}

		ray, throughput, ok := source.GenEmissionSample(flow)
		if !ok {
			continue
		}
		throughput = throughput.DivScalar(selectProb).MulScalar(invCount)

		for bounce := 0; bounce < w.MaxBounces; bounce++ {
			var detail core.HitDetail
			if !sceneRef.CalcIntersection(&ray, &detail) {
				break
			}

			meta := detail.Primitive.Metadata()
			v := ray.Direction.Negate().Normalize()

			if !meta.Optics.Phenomena().IsAllDelta() {
				photons = append(photons, Photon{
					Position:   detail.Position,
					FromDir:    v,
					Throughput: throughput,
				})
			}

			sample, ok := meta.Optics.GenBsdfSample(w.bsdfCtx, &detail, v, flow)
			if !ok {
				break
			}
			throughput = throughput.Mul(sample.PdfAppliedBsdf)
			if throughput.IsZero() || !throughput.IsFinite() {
				break
			}

			// Roulette keeps photon powers bounded
			q := min(1.0, throughput.MaxComponent())
			if q <= 0 || !flow.Pick(q) {
				break
			}
			throughput = throughput.DivScalar(q)

			ray = core.NewRay(detail.Offset(sample.L), sample.L)
		}
	}

	return NewPhotonMap(photons)
}

// Vpm estimates radiance by density estimation over a fixed kernel radius:
// L = sum f(X, Lp, V) * Phi_p / (pi r^2)
type Vpm struct {
	photonMap    *PhotonMap
	KernelRadius float64
	MaxBounces   int
	bsdfCtx      core.BsdfQueryContext
}

// NewVpm creates the evaluator over a populated photon map
func NewVpm(photonMap *PhotonMap, kernelRadius float64, maxBounces int) *Vpm {
	return &Vpm{
		photonMap:    photonMap,
		KernelRadius: kernelRadius,
		MaxBounces:   maxBounces,
		bsdfCtx:      core.DefaultBsdfQueryContext(),
	}
}

// Estimate walks through delta interactions to the first gatherable vertex
// and performs the density estimate there
func (e *Vpm) Estimate(ray core.Ray, integrand Integrand, flow *core.SampleFlow) Estimation {
	sceneRef := integrand.Scene
	throughput := core.NewSpectrumScalar(1)
	tracingRay := ray

	for bounce := 0; bounce < e.MaxBounces; bounce++ {
		var detail core.HitDetail
		if !sceneRef.CalcIntersection(&tracingRay, &detail) {
			if bg := sceneRef.Background(); bg != nil {
				le := bg.EvalRadianceForDirection(tracingRay.Direction)
				return Estimation{Radiance: clampContribution(throughput.Mul(le))}
			}
			return Estimation{}
		}

		v := tracingRay.Direction.Negate().Normalize()
		meta := detail.Primitive.Metadata()

		radiance := core.BlackSpectrum()
		if meta.Emitter != nil {
			radiance = radiance.Add(clampContribution(throughput.Mul(meta.Emitter.EvalEmittedRadiance(&detail, v))))
		}

		if !meta.Optics.Phenomena().IsAllDelta() {
			gathered := e.gather(meta.Optics, &detail, v)
			return Estimation{Radiance: radiance.Add(clampContribution(throughput.Mul(gathered)))}
		}

		// Pass through delta interactions (mirrors, glass)
		sample, ok := meta.Optics.GenBsdfSample(e.bsdfCtx, &detail, v, flow)
		if !ok {
			return Estimation{Radiance: radiance}
		}
		throughput = throughput.Mul(sample.PdfAppliedBsdf)
		tracingRay = core.NewRay(detail.Offset(sample.L), sample.L)
	}

	return Estimation{}
}

func (e *Vpm) gather(surface core.SurfaceOptics, detail *core.HitDetail, v core.Vec3) core.Spectrum {
	sum := core.BlackSpectrum()
	e.photonMap.ForEachInRange(detail.Position, e.KernelRadius, func(p *Photon) {
		f := surface.CalcBsdf(e.bsdfCtx, detail, p.FromDir, v)
		sum = sum.Add(f.Mul(p.Throughput))
	})
	return sum.DivScalar(math.Pi * e.KernelRadius * e.KernelRadius)
}

// PpmStats carries one pixel's progressive statistics
type PpmStats struct {
	Radius2    float64 // current squared kernel radius
	NumPhotons float64 // accumulated photon count after shrinking
	Tau        core.Spectrum
}

// PpmAlpha is Hachisuka's radius-shrinking ratio
const PpmAlpha = 0.7

// AddPass folds one pass's gathered photons into the statistics with the
// alpha-update rule: the kernel shrinks while the accumulated flux is scaled
// to match the smaller disk.
func (s *PpmStats) AddPass(newPhotons float64, flux core.Spectrum) {
	if s.NumPhotons == 0 && newPhotons == 0 {
		return
	}

	total := s.NumPhotons + PpmAlpha*newPhotons
	denom := s.NumPhotons + newPhotons
	if denom == 0 {
		return
	}
	ratio := total / denom

	s.Radius2 *= ratio
	s.Tau = s.Tau.Add(flux).MulScalar(ratio)
	s.NumPhotons = total
}

// Radiance develops the statistics into radiance given the number of emitted
// photons across all passes
func (s *PpmStats) Radiance(numEmitted float64) core.Spectrum {
	if s.Radius2 <= 0 || numEmitted <= 0 {
		return core.BlackSpectrum()
	}
	return s.Tau.DivScalar(math.Pi * s.Radius2 * numEmitted)
}

// Ppm runs progressive photon mapping over per-pixel statistics. Each pass
// retraces the view path, gathers photons from a fresh map and applies the
// alpha update.
type Ppm struct {
	Stats        []PpmStats
	InitRadius   float64
	MaxBounces   int
	bsdfCtx      core.BsdfQueryContext
}

// NewPpm creates progressive statistics for the given pixel count
func NewPpm(numPixels int, initRadius float64, maxBounces int) *Ppm {
	stats := make([]PpmStats, numPixels)
	for i := range stats {
		stats[i].Radius2 = initRadius * initRadius
	}
	return &Ppm{
		Stats:      stats,
		InitRadius: initRadius,
		MaxBounces: maxBounces,
		bsdfCtx:    core.DefaultBsdfQueryContext(),
	}
}

// EvaluatePass gathers one pass for a single pixel's view ray against the
// given photon map (photon throughputs divided by that pass's emission count)
func (p *Ppm) EvaluatePass(pixelIndex int, ray core.Ray, integrand Integrand, photonMap *PhotonMap, passPhotons float64, flow *core.SampleFlow) {
	sceneRef := integrand.Scene
	tracingRay := ray
	throughput := core.NewSpectrumScalar(1)

	for bounce := 0; bounce < p.MaxBounces; bounce++ {
		var detail core.HitDetail
		if !sceneRef.CalcIntersection(&tracingRay, &detail) {
			return
		}

		v := tracingRay.Direction.Negate().Normalize()
		meta := detail.Primitive.Metadata()

		if !meta.Optics.Phenomena().IsAllDelta() {
			stats := &p.Stats[pixelIndex]
			radius := math.Sqrt(stats.Radius2)

			count := 0.0
			flux := core.BlackSpectrum()
			photonMap.ForEachInRange(detail.Position, radius, func(ph *Photon) {
				f := meta.Optics.CalcBsdf(p.bsdfCtx, &detail, ph.FromDir, v)
				// Undo the per-pass normalization: tau accumulates raw flux
				flux = flux.Add(f.Mul(ph.Throughput).Mul(throughput).MulScalar(passPhotons))
				count++
			})
			stats.AddPass(count, flux)
			return
		}

		sample, ok := meta.Optics.GenBsdfSample(p.bsdfCtx, &detail, v, flow)
		if !ok {
			return
		}
		throughput = throughput.Mul(sample.PdfAppliedBsdf)
		tracingRay = core.NewRay(detail.Offset(sample.L), sample.L)
	}
}
