package optics

import (
	"math"
	"testing"

	"github.com/arvoss/go-pathtracer/pkg/core"
)

func surfaceDetail() *core.HitDetail {
	detail := &core.HitDetail{}
	detail.SetBasics(nil, core.NewVec3(0, 0, 0),
		core.NewVec3(0, 0, 1), core.NewVec3(0, 0, 1),
		core.NewVec3(0.5, 0.5, 0), 1)
	basis := core.SynthesizeBasis(detail.ShadingNormal)
	detail.SetDerivatives(basis.U, basis.V, core.Vec3{}, core.Vec3{})
	return detail
}

func TestLambertian_EvalAndPdf(t *testing.T) {
	albedo := core.NewSpectrum(0.6, 0.4, 0.2)
	lambert := NewLambertianDiffuseConstant(albedo)
	ctx := core.DefaultBsdfQueryContext()
	x := surfaceDetail()

	v := core.NewVec3(0, 0.3, 1).Normalize()
	l := core.NewVec3(0.2, -0.1, 0.9).Normalize()

	f := lambert.CalcBsdf(ctx, x, l, v)
	want := albedo.MulScalar(1.0 / math.Pi)
	for i := 0; i < core.SpectrumSize; i++ {
		if math.Abs(f[i]-want[i]) > 1e-12 {
			t.Errorf("f[%d]: got %g, want %g", i, f[i], want[i])
		}
	}

	// Below the horizon the BSDF vanishes
	below := core.NewVec3(0, 0, -1)
	if !lambert.CalcBsdf(ctx, x, below, v).IsZero() {
		t.Error("BSDF non-zero for transmitted direction")
	}

	pdf := lambert.CalcBsdfPdfW(ctx, x, l, v)
	wantPdf := x.ShadingNormal.Dot(l) / math.Pi
	if math.Abs(pdf-wantPdf) > 1e-12 {
		t.Errorf("pdf: got %g, want %g", pdf, wantPdf)
	}
}

func TestLambertian_PdfNormalization(t *testing.T) {
	lambert := NewLambertianDiffuseConstant(core.NewSpectrumScalar(1))
	ctx := core.DefaultBsdfQueryContext()
	x := surfaceDetail()
	v := core.NewVec3(0, 0, 1)

	// Monte-Carlo integral of pdf over the hemisphere with uniform sampling:
	// E[pdf / (1/2pi)] = 1
	flow := core.NewSampleFlow(31)
	const n = 200000
	sum := 0.0
	for i := 0; i < n; i++ {
		basis := core.SynthesizeBasis(x.ShadingNormal)
		l := basis.LocalToWorld(core.SampleUniformHemisphere(flow.Flow2D()))
		sum += lambert.CalcBsdfPdfW(ctx, x, l, v) * 2 * math.Pi
	}
	mean := sum / n
	if math.Abs(mean-1.0) > 0.01 {
		t.Errorf("pdf normalization: got %f, want 1", mean)
	}
}

func TestLambertian_SampleIsEnergyExact(t *testing.T) {
	// Cosine sampling makes the pdf-applied BSDF equal the albedo exactly
	albedo := core.NewSpectrum(0.8, 0.5, 0.3)
	lambert := NewLambertianDiffuseConstant(albedo)
	ctx := core.DefaultBsdfQueryContext()
	x := surfaceDetail()
	v := core.NewVec3(0.1, 0.1, 1).Normalize()

	flow := core.NewSampleFlow(37)
	for i := 0; i < 1000; i++ {
		sample, ok := lambert.GenBsdfSample(ctx, x, v, flow)
		if !ok {
			continue
		}
		for c := 0; c < core.SpectrumSize; c++ {
			if math.Abs(sample.PdfAppliedBsdf[c]-albedo[c]) > 1e-9 {
				t.Fatalf("pdf-applied BSDF: got %v, want %v", sample.PdfAppliedBsdf, albedo)
			}
		}
		if sample.L.Dot(x.ShadingNormal) <= 0 {
			t.Fatal("sample below the surface")
		}
	}
}

func TestIdealReflector_Determinism(t *testing.T) {
	mirror := NewIdealReflector(NewSchlickDielectricFresnel(1, 1.5))
	ctx := core.DefaultBsdfQueryContext()
	x := surfaceDetail()
	v := core.NewVec3(0.3, -0.2, 0.8).Normalize()

	flow := core.NewSampleFlow(41)
	first, ok := mirror.GenBsdfSample(ctx, x, v, flow)
	if !ok {
		t.Fatal("mirror sample failed")
	}

	for i := 0; i < 1024; i++ {
		sample, ok := mirror.GenBsdfSample(ctx, x, v, flow)
		if !ok {
			t.Fatal("mirror sample failed")
		}
		if !sample.L.Equals(first.L) {
			t.Fatalf("mirror produced different directions: %v vs %v", sample.L, first.L)
		}
	}

	// The sampled direction is the reflection of V about N
	want := v.Negate().Reflect(x.ShadingNormal).Normalize()
	if !first.L.Equals(want) {
		t.Errorf("mirror direction: got %v, want %v", first.L, want)
	}

	// Delta optics: zero Eval and zero pdf
	if !mirror.CalcBsdf(ctx, x, first.L, v).IsZero() {
		t.Error("delta Eval non-zero")
	}
	if mirror.CalcBsdfPdfW(ctx, x, first.L, v) != 0 {
		t.Error("delta pdf non-zero")
	}
}

func TestIdealTransmitter_SnellAndTIR(t *testing.T) {
	fresnel := NewExactDielectricFresnel(1.0, 1.5)
	transmitter := NewIdealTransmitter(fresnel)
	ctx := core.DefaultBsdfQueryContext()
	x := surfaceDetail()
	flow := core.NewSampleFlow(43)

	// Entering at 45 degrees: sin(thetaT) = sin(45) / 1.5
	v := core.NewVec3(1, 0, 1).Normalize()
	sample, ok := transmitter.GenBsdfSample(ctx, x, v, flow)
	if !ok {
		t.Fatal("refraction failed")
	}
	sinT := math.Sqrt(math.Max(0, 1-sample.L.Z*sample.L.Z))
	wantSinT := (1.0 / 1.5) * math.Sqrt(0.5)
	if math.Abs(sinT-wantSinT) > 1e-9 {
		t.Errorf("Snell: got sinT %f, want %f", sinT, wantSinT)
	}
	if sample.L.Z >= 0 {
		t.Error("refracted direction not below the surface")
	}

	// Exiting beyond the critical angle: total internal reflection rejects
	critical := math.Asin(1.0 / 1.5)
	grazing := critical + 0.1
	vInside := core.NewVec3(math.Sin(grazing), 0, -math.Cos(grazing))
	if _, ok := transmitter.GenBsdfSample(ctx, x, vInside, flow); ok {
		t.Error("TIR direction produced a sample")
	}
}

func TestIdealTransmitter_AdjointFactor(t *testing.T) {
	fresnel := NewExactDielectricFresnel(1.0, 1.5)
	transmitter := NewIdealTransmitter(fresnel)
	x := surfaceDetail()
	v := core.NewVec3(0, 0, 1) // normal incidence

	radianceCtx := core.DefaultBsdfQueryContext()
	importanceCtx := radianceCtx
	importanceCtx.Transport = core.TransportImportance
	importanceCtx.Sidedness = core.SidednessDoNotCare

	flowA := core.NewSampleFlow(47)
	flowB := core.NewSampleFlow(47)
	radianceSample, okA := transmitter.GenBsdfSample(radianceCtx, x, v, flowA)
	importanceSample, okB := transmitter.GenBsdfSample(importanceCtx, x, v, flowB)
	if !okA || !okB {
		t.Fatal("normal-incidence refraction failed")
	}

	// Radiance transport carries the (etaT/etaI)^2 adjoint factor
	ratio := radianceSample.PdfAppliedBsdf[0] / importanceSample.PdfAppliedBsdf[0]
	want := 1.5 * 1.5
	if math.Abs(ratio-want) > 1e-9 {
		t.Errorf("adjoint factor: got %f, want %f", ratio, want)
	}
}

func TestFresnel_Values(t *testing.T) {
	exact := NewExactDielectricFresnel(1.0, 1.5)

	// Normal incidence: F = ((n-1)/(n+1))^2 = 0.04
	f0 := exact.CalcReflectance(1.0)[0]
	if math.Abs(f0-0.04) > 1e-9 {
		t.Errorf("normal-incidence F: got %f, want 0.04", f0)
	}

	// Grazing incidence approaches 1
	grazing := exact.CalcReflectance(0.01)[0]
	if grazing < 0.9 {
		t.Errorf("grazing F: got %f, want near 1", grazing)
	}

	// Schlick agrees with the exact form at normal incidence
	schlickF := NewSchlickDielectricFresnel(1.0, 1.5).CalcReflectance(1.0)[0]
	if math.Abs(schlickF-f0) > 1e-9 {
		t.Errorf("Schlick F0: got %f, want %f", schlickF, f0)
	}

	// Conductor F0 = ((n-1)^2 + k^2) / ((n+1)^2 + k^2)
	n := core.NewSpectrumScalar(0.2)
	k := core.NewSpectrumScalar(3.0)
	conductorF0 := NewSchlickConductorFresnel(1.0, n, k).CalcReflectance(1.0)[0]
	want := ((0.2-1)*(0.2-1) + 9.0) / ((0.2+1)*(0.2+1) + 9.0)
	if math.Abs(conductorF0-want) > 1e-9 {
		t.Errorf("conductor F0: got %f, want %f", conductorF0, want)
	}

	// TIR from the dense side
	if tir := exact.CalcReflectance(-0.2)[0]; tir != 1 {
		t.Errorf("TIR reflectance: got %f, want 1", tir)
	}
}

func TestMicrofacet_PdfNormalization(t *testing.T) {
	distributions := []Microfacet{
		NewGgxIso(0.4),
		NewBeckmannIso(0.4),
		NewGgxAniso(0.3, 0.6),
	}

	flow := core.NewSampleFlow(53)
	for di, mf := range distributions {
		// The NDF times cosine integrates to 1 over the hemisphere
		const n = 200000
		sum := 0.0
		for i := 0; i < n; i++ {
			m := core.SampleUniformHemisphere(flow.Flow2D())
			sum += mf.Distribution(m) * m.Z * 2 * math.Pi
		}
		mean := sum / n
		if math.Abs(mean-1.0) > 0.05 {
			t.Errorf("distribution %d: D*cos integral %f, want 1", di, mean)
		}

		// Sampled half vectors stay in the upper hemisphere with positive D
		for i := 0; i < 1000; i++ {
			m := mf.SampleH(flow.Flow2D())
			if m.Z <= 0 {
				t.Fatalf("distribution %d: sampled m below hemisphere", di)
			}
			if mf.Distribution(m) <= 0 {
				t.Fatalf("distribution %d: sampled m has zero density", di)
			}
		}
	}
}

func TestAbradedOpaque_EnergyAndReciprocalForm(t *testing.T) {
	glossy := NewAbradedOpaque(NewGgxIso(0.3), NewSchlickDielectricFresnel(1.0, 1.5))
	ctx := core.DefaultBsdfQueryContext()
	x := surfaceDetail()
	v := core.NewVec3(0.2, 0.1, 1).Normalize()

	flow := core.NewSampleFlow(59)
	measurable := 0
	for i := 0; i < 5000; i++ {
		sample, ok := glossy.GenBsdfSample(ctx, x, v, flow)
		if !ok {
			continue
		}
		measurable++

		if sample.L.Dot(x.ShadingNormal) <= 0 {
			t.Fatal("glossy reflection below the surface")
		}
		if sample.PdfAppliedBsdf.HasNegative() || !sample.PdfAppliedBsdf.IsFinite() {
			t.Fatalf("bad pdf-applied BSDF: %v", sample.PdfAppliedBsdf)
		}

		// Consistency: f * |N.L| / pdf reproduces the pdf-applied value
		f := glossy.CalcBsdf(ctx, x, sample.L, v)
		pdf := glossy.CalcBsdfPdfW(ctx, x, sample.L, v)
		if pdf <= 0 {
			t.Fatal("sampled direction has zero pdf")
		}
		cos := x.ShadingNormal.AbsDot(sample.L)
		reconstructed := f.MulScalar(cos / pdf)
		for c := 0; c < core.SpectrumSize; c++ {
			if math.Abs(reconstructed[c]-sample.PdfAppliedBsdf[c]) > 1e-6*(1+sample.PdfAppliedBsdf[c]) {
				t.Fatalf("eval/sample/pdf inconsistent: %v vs %v", reconstructed, sample.PdfAppliedBsdf)
			}
		}
	}

	if measurable < 4000 {
		t.Errorf("too many rejected samples: %d/5000 accepted", measurable)
	}
}

func TestLerpedOptics_Routing(t *testing.T) {
	diffuse := NewLambertianDiffuseConstant(core.NewSpectrumScalar(0.8))
	glossy := NewAbradedOpaque(NewGgxIso(0.2), NewSchlickDielectricFresnel(1.0, 1.5))
	mix := NewLerpedOptics(diffuse, glossy, 0.5)

	if mix.NumElementals() != 2 {
		t.Errorf("elementals: got %d, want 2", mix.NumElementals())
	}
	phenomena := mix.Phenomena()
	if !phenomena.Has(core.DiffuseReflection) || !phenomena.Has(core.GlossyReflection) {
		t.Error("mixture phenomena missing a child lobe")
	}

	ctx := core.DefaultBsdfQueryContext()
	x := surfaceDetail()
	v := core.NewVec3(0, 0.1, 1).Normalize()
	l := core.NewVec3(0.1, 0, 1).Normalize()

	full := mix.CalcBsdf(ctx, x, l, v)

	elem0 := ctx
	elem0.Elemental = 0
	elem1 := ctx
	elem1.Elemental = 1
	sum := mix.CalcBsdf(elem0, x, l, v).Add(mix.CalcBsdf(elem1, x, l, v))
	for c := 0; c < core.SpectrumSize; c++ {
		if math.Abs(full[c]-sum[c]) > 1e-9 {
			t.Errorf("elemental sum mismatch: %v vs %v", full, sum)
		}
	}
}

func TestSidedness_StrictRejectsDisagreement(t *testing.T) {
	// Shading normal tilted far from the geometric normal
	detail := &core.HitDetail{}
	detail.SetBasics(nil, core.Vec3{},
		core.NewVec3(0, 0, 1),
		core.NewVec3(1, 0, 0.1).Normalize(),
		core.Vec3{}, 1)

	lambert := NewLambertianDiffuseConstant(core.NewSpectrumScalar(1))
	v := core.NewVec3(0, 0, 1)
	// L in the shading normal's hemisphere but below the geometric surface
	l := core.NewVec3(1, 0, -0.3).Normalize()

	strict := core.DefaultBsdfQueryContext()
	if !lambert.CalcBsdf(strict, detail, l, v).IsZero() {
		t.Error("STRICT sidedness accepted disagreeing hemispheres")
	}

	loose := strict
	loose.Sidedness = core.SidednessDoNotCare
	// DO_NOT_CARE skips the policy check; the shading-normal hemisphere
	// check in the lambertian itself still applies
	_ = lambert.CalcBsdf(loose, detail, l, v)
}
