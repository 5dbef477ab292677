package emitter

import (
	"math"
	"testing"

	"github.com/arvoss/go-pathtracer/pkg/core"
	"github.com/arvoss/go-pathtracer/pkg/geometry"
	"github.com/arvoss/go-pathtracer/pkg/texture"
)

func lampPrimitives() []core.Primitive {
	metadata := &core.PrimitiveMetadata{}
	rect := geometry.NewRectangle(2, 2, core.IdentityTransform(), metadata)
	prims := []core.Primitive{}
	for _, tri := range rect.Cook() {
		prims = append(prims, tri)
	}
	return prims
}

func TestAreaEmitter_PdfLaw(t *testing.T) {
	prims := lampPrimitives()
	lamp := NewPrimitiveAreaEmitter(prims, texture.NewConstant(core.NewSpectrum(3, 3, 3)))

	// Lamp faces +Z; sample toward a target above
	target := core.NewVec3(0.3, -0.2, 4)
	flow := core.NewSampleFlow(61)

	totalArea := 4.0
	for i := 0; i < 1000; i++ {
		sample, ok := lamp.GenDirectSample(target, flow)
		if !ok {
			t.Fatal("direct sample failed")
		}

		// pdfW = pdfA * d^2 / |N.L| with N the emitter normal
		toTarget := target.Subtract(sample.EmitPos)
		d2 := toTarget.LengthSquared()
		cos := core.NewVec3(0, 0, 1).Dot(toTarget.Normalize())
		wantPdfW := (1.0 / totalArea) * d2 / cos
		if math.Abs(sample.PdfW-wantPdfW) > 1e-9*wantPdfW {
			t.Fatalf("pdfW: got %g, want %g", sample.PdfW, wantPdfW)
		}

		if sample.RadianceLe != core.NewSpectrum(3, 3, 3) {
			t.Fatalf("radiance: got %v", sample.RadianceLe)
		}
		if sample.SourcePrim == nil {
			t.Fatal("missing source primitive")
		}
	}

	// Targets behind the emitting face cannot be lit
	behind := core.NewVec3(0, 0, -4)
	if _, ok := lamp.GenDirectSample(behind, flow); ok {
		t.Error("sampled toward a target behind the face")
	}
}

func TestAreaEmitter_DirectPdfMatchesSample(t *testing.T) {
	prims := lampPrimitives()
	lamp := NewPrimitiveAreaEmitter(prims, texture.NewConstant(core.NewSpectrumScalar(1)))
	target := core.NewVec3(0, 0.5, 3)
	flow := core.NewSampleFlow(67)

	for i := 0; i < 200; i++ {
		sample, ok := lamp.GenDirectSample(target, flow)
		if !ok {
			t.Fatal("direct sample failed")
		}

		var emitDetail core.HitDetail
		emitDetail.SetBasics(sample.SourcePrim, sample.EmitPos,
			core.NewVec3(0, 0, 1), core.NewVec3(0, 0, 1), core.Vec3{}, 0)

		pdf := lamp.CalcDirectSamplePdfW(&emitDetail, target)
		if math.Abs(pdf-sample.PdfW) > 1e-9*sample.PdfW {
			t.Fatalf("pdf mismatch: %g vs %g", pdf, sample.PdfW)
		}
	}
}

func TestAreaEmitter_BackFaceEmitsNothing(t *testing.T) {
	prims := lampPrimitives()
	lamp := NewPrimitiveAreaEmitter(prims, texture.NewConstant(core.NewSpectrumScalar(5)))

	var detail core.HitDetail
	detail.SetBasics(prims[0], core.Vec3{}, core.NewVec3(0, 0, 1), core.NewVec3(0, 0, 1), core.Vec3{}, 0)

	front := lamp.EvalEmittedRadiance(&detail, core.NewVec3(0, 0, 1))
	if front.IsZero() {
		t.Error("front face emits nothing")
	}
	back := lamp.EvalEmittedRadiance(&detail, core.NewVec3(0, 0, -1))
	if !back.IsZero() {
		t.Error("back face emits")
	}
}

func TestBackgroundEmitter_PdfAndPoles(t *testing.T) {
	worldBound := core.NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))
	bg := NewBackgroundEmitter(texture.NewConstant(core.NewSpectrumScalar(1)), worldBound)

	// Constant luminance importance-samples uniformly over solid angle away
	// from the poles (pole rows quantize sin(theta) coarsely)
	midLatitudes := []core.Vec3{
		core.NewVec3(1, 0, 0),
		core.NewVec3(0, 0, -1),
		core.NewVec3(0.7, 0.3, 0.64).Normalize(),
		core.NewVec3(-0.5, -0.5, 0.7071).Normalize(),
	}
	for _, dir := range midLatitudes {
		pdf := bg.PdfWForDirection(dir)
		if math.Abs(pdf-core.UniformSpherePdfW()) > 0.005 {
			t.Errorf("constant environment pdfW at %v: got %g, want ~%g",
				dir, pdf, core.UniformSpherePdfW())
		}
	}

	// Samples are well formed
	flow := core.NewSampleFlow(71)
	for i := 0; i < 500; i++ {
		sample, ok := bg.GenDirectSample(core.Vec3{}, flow)
		if !ok {
			continue // pole rejection is allowed
		}
		if sample.PdfW <= 0 || sample.SourcePrim != nil {
			t.Fatalf("malformed background sample: %+v", sample)
		}
	}

	// Pole direction: sin(theta) = 0 gives pdf 0
	if pdf := bg.PdfWForDirection(core.NewVec3(0, 1, 0)); pdf != 0 {
		t.Errorf("pole pdfW: got %g, want 0", pdf)
	}
	if pdf := bg.PdfWForDirection(core.Vec3{}); pdf != 0 {
		t.Errorf("zero-direction pdfW: got %g, want 0", pdf)
	}
}

func TestBackgroundEmitter_ImportanceFavorsBrightRegions(t *testing.T) {
	// Texture bright on the +Z half, dark on the -Z half
	cols, rows := 32, 16
	texels := make([]core.Spectrum, cols*rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			u := (float64(x) + 0.5) / float64(cols)
			// phi = u * 2pi; +Z is around phi = 0
			if u < 0.25 || u > 0.75 {
				texels[y*cols+x] = core.NewSpectrumScalar(10)
			} else {
				texels[y*cols+x] = core.NewSpectrumScalar(0.1)
			}
		}
	}
	bg := NewBackgroundEmitter(texture.NewImage(cols, rows, texels),
		core.NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1)))

	flow := core.NewSampleFlow(73)
	bright := 0
	const n = 5000
	for i := 0; i < n; i++ {
		sample, ok := bg.GenDirectSample(core.Vec3{}, flow)
		if !ok {
			continue
		}
		dir := sample.EmitPos.Normalize()
		if dir.Z > 0 {
			bright++
		}
	}
	if float64(bright)/n < 0.8 {
		t.Errorf("importance sampling picked the bright half only %d/%d times", bright, n)
	}
}

func TestOmniModulated_FiltersRadiance(t *testing.T) {
	prims := lampPrimitives()
	source := NewPrimitiveAreaEmitter(prims, texture.NewConstant(core.NewSpectrumScalar(2)))
	filtered := NewOmniModulatedEmitter(source, texture.NewConstant(core.NewSpectrum(0.5, 1, 0)))

	target := core.NewVec3(0, 0, 5)
	flow := core.NewSampleFlow(79)
	sample, ok := filtered.GenDirectSample(target, flow)
	if !ok {
		t.Fatal("modulated sample failed")
	}
	want := core.NewSpectrum(1, 2, 0)
	for c := 0; c < core.SpectrumSize; c++ {
		if math.Abs(sample.RadianceLe[c]-want[c]) > 1e-12 {
			t.Fatalf("modulated radiance: got %v, want %v", sample.RadianceLe, want)
		}
	}

	// pdf passes through unchanged
	var emitDetail core.HitDetail
	emitDetail.SetBasics(prims[0], sample.EmitPos, core.NewVec3(0, 0, 1), core.NewVec3(0, 0, 1), core.Vec3{}, 0)
	if filtered.CalcDirectSamplePdfW(&emitDetail, target) != source.CalcDirectSamplePdfW(&emitDetail, target) {
		t.Error("filter changed the sampling pdf")
	}
}

func TestPowerWeightedSampler_Selection(t *testing.T) {
	dim := NewPrimitiveAreaEmitter(lampPrimitives(), texture.NewConstant(core.NewSpectrumScalar(0.1)))
	bright := NewPrimitiveAreaEmitter(lampPrimitives(), texture.NewConstant(core.NewSpectrumScalar(10)))
	sampler := NewPowerWeightedSampler([]core.Emitter{dim, bright})

	flow := core.NewSampleFlow(83)
	brightCount := 0
	const n = 10000
	for i := 0; i < n; i++ {
		picked, prob, ok := sampler.Sample(flow)
		if !ok || prob <= 0 {
			t.Fatal("sampler failed")
		}
		if picked == core.Emitter(bright) {
			brightCount++
		}
	}

	frac := float64(brightCount) / n
	want := 10.0 / 10.1
	if math.Abs(frac-want) > 0.02 {
		t.Errorf("bright emitter fraction: got %f, want ~%f", frac, want)
	}

	// Selection probabilities are consistent with observed frequencies
	if math.Abs(sampler.SelectionProb(bright)-want) > 1e-9 {
		t.Errorf("SelectionProb: got %f, want %f", sampler.SelectionProb(bright), want)
	}

	empty := NewPowerWeightedSampler(nil)
	if _, _, ok := empty.Sample(flow); ok {
		t.Error("empty sampler produced an emitter")
	}
}

func TestAreaEmitter_EmissionSampling(t *testing.T) {
	prims := lampPrimitives()
	lamp := NewPrimitiveAreaEmitter(prims, texture.NewConstant(core.NewSpectrumScalar(1)))

	flow := core.NewSampleFlow(89)
	for i := 0; i < 500; i++ {
		ray, throughput, ok := lamp.GenEmissionSample(flow)
		if !ok {
			t.Fatal("emission sample failed")
		}
		// Emitted into the +Z hemisphere of the lamp normal
		if ray.Direction.Z <= 0 {
			t.Fatalf("emission below the lamp plane: %v", ray.Direction)
		}
		// Le * pi * area for the cosine pdf
		want := math.Pi * 4.0
		if math.Abs(throughput[0]-want) > 1e-9 {
			t.Fatalf("emission throughput: got %f, want %f", throughput[0], want)
		}
	}
}
