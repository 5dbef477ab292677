package geometry

import (
	"math"
	"testing"

	"github.com/arvoss/go-pathtracer/pkg/core"
)

func testMetadata() *core.PrimitiveMetadata {
	return &core.PrimitiveMetadata{}
}

func TestTriangle_HitAndDetail(t *testing.T) {
	tri := NewTriangle(
		core.NewVec3(-1, -1, 0),
		core.NewVec3(1, -1, 0),
		core.NewVec3(0, 1, 0),
		testMetadata(),
	)

	ray := core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1))
	var probe core.HitProbe
	probe.Clear()
	if !tri.IsIntersecting(&ray, &probe) {
		t.Fatal("expected hit")
	}
	if math.Abs(probe.T-5) > 1e-9 {
		t.Errorf("hit t: got %f, want 5", probe.T)
	}

	var detail core.HitDetail
	tri.CalcIntersectionDetail(&ray, &probe, &detail)
	if !detail.Position.Equals(core.NewVec3(0, 0, 0)) {
		t.Errorf("hit position: got %v", detail.Position)
	}
	if math.Abs(detail.ShadingNormal.Length()-1) > 1e-9 {
		t.Errorf("shading normal not unit: %f", detail.ShadingNormal.Length())
	}
	if !detail.DPdU.IsFinite() || !detail.DPdV.IsFinite() {
		t.Error("derivatives not finite")
	}
	if detail.Primitive != core.Primitive(tri) {
		t.Error("detail does not point back at the triangle")
	}
}

func TestTriangle_MissCases(t *testing.T) {
	tri := NewTriangle(
		core.NewVec3(-1, -1, 0),
		core.NewVec3(1, -1, 0),
		core.NewVec3(0, 1, 0),
		testMetadata(),
	)

	cases := []core.Ray{
		core.NewRay(core.NewVec3(5, 5, 5), core.NewVec3(0, 0, -1)),          // beside
		core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, 1)),           // away
		core.NewRayInterval(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1), 0, 1), // short
	}
	for i, ray := range cases {
		var probe core.HitProbe
		probe.Clear()
		if tri.IsIntersecting(&ray, &probe) {
			t.Errorf("case %d: expected miss", i)
		}
	}
}

func TestTriangle_ZeroArea(t *testing.T) {
	degenerate := NewTriangle(
		core.NewVec3(0, 0, 0),
		core.NewVec3(1, 1, 1),
		core.NewVec3(2, 2, 2),
		testMetadata(),
	)

	if got := degenerate.CalcExtendedArea(); got != 0 {
		t.Errorf("degenerate area: got %f, want 0", got)
	}

	ray := core.NewRay(core.NewVec3(1, 1, 5), core.NewVec3(0, 0, -1))
	var probe core.HitProbe
	probe.Clear()
	if degenerate.IsIntersecting(&ray, &probe) {
		t.Error("degenerate triangle intersected")
	}

	flow := core.NewSampleFlow(1)
	if _, ok := degenerate.GenPositionSample(flow); ok {
		t.Error("degenerate triangle produced a position sample")
	}
	if pdf := degenerate.CalcPositionSamplePdfA(core.NewVec3(1, 1, 1)); pdf != 0 {
		t.Errorf("degenerate pdfA: got %f, want 0", pdf)
	}
}

func TestTriangle_PositionSampling(t *testing.T) {
	tri := NewTriangle(
		core.NewVec3(0, 0, 0),
		core.NewVec3(2, 0, 0),
		core.NewVec3(0, 2, 0),
		testMetadata(),
	)
	area := tri.CalcExtendedArea()
	if math.Abs(area-2.0) > 1e-9 {
		t.Fatalf("area: got %f, want 2", area)
	}

	flow := core.NewSampleFlow(17)
	for i := 0; i < 1000; i++ {
		sample, ok := tri.GenPositionSample(flow)
		if !ok {
			t.Fatal("sample failed")
		}
		// Inside the triangle: x, y >= 0 and x + y <= 2
		p := sample.Position
		if p.X < -1e-9 || p.Y < -1e-9 || p.X+p.Y > 2+1e-9 || math.Abs(p.Z) > 1e-9 {
			t.Fatalf("sample outside triangle: %v", p)
		}
		if math.Abs(sample.PdfA-1.0/area) > 1e-12 {
			t.Fatalf("sample pdfA: got %f, want %f", sample.PdfA, 1.0/area)
		}
	}
}

func TestTriangle_UvDerivativeFallback(t *testing.T) {
	// All vertices share one uv point: the UV matrix is singular and the
	// derivatives must fall back to a basis on the face normal.
	tri := NewTriangleWithAttributes(
		core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0),
		core.NewVec3(0, 0, 1), core.NewVec3(0, 0, 1), core.NewVec3(0, 0, 1),
		core.NewVec3(0.5, 0.5, 0), core.NewVec3(0.5, 0.5, 0), core.NewVec3(0.5, 0.5, 0),
		testMetadata(),
	)

	ray := core.NewRay(core.NewVec3(0.25, 0.25, 5), core.NewVec3(0, 0, -1))
	var probe core.HitProbe
	probe.Clear()
	if !tri.IsIntersecting(&ray, &probe) {
		t.Fatal("expected hit")
	}
	var detail core.HitDetail
	tri.CalcIntersectionDetail(&ray, &probe, &detail)

	if detail.DPdU.IsZero() || detail.DPdV.IsZero() {
		t.Error("fallback derivatives are zero")
	}
	if math.Abs(detail.DPdU.Dot(detail.GeometryNormal)) > 1e-9 {
		t.Error("fallback dPdU not tangent to the face")
	}
}

func TestTriangle_AABBOverlap(t *testing.T) {
	tri := NewTriangle(
		core.NewVec3(0, 0, 0),
		core.NewVec3(1, 0, 0),
		core.NewVec3(0, 1, 0),
		testMetadata(),
	)

	overlapping := core.NewAABB(core.NewVec3(-0.5, -0.5, -0.5), core.NewVec3(0.5, 0.5, 0.5))
	if !tri.OverlapsVolume(overlapping) {
		t.Error("expected overlap with box through the triangle")
	}

	separate := core.NewAABB(core.NewVec3(2, 2, 2), core.NewVec3(3, 3, 3))
	if tri.OverlapsVolume(separate) {
		t.Error("expected no overlap with distant box")
	}

	// Box near the triangle plane but beyond an edge cross-product axis
	corner := core.NewAABB(core.NewVec3(0.9, 0.9, -0.05), core.NewVec3(1.2, 1.2, 0.05))
	if tri.OverlapsVolume(corner) {
		t.Error("expected SAT rejection beyond the hypotenuse")
	}
}

func TestTriangle_WatertightBarycentrics(t *testing.T) {
	tri := NewTriangle(
		core.NewVec3(0, 0, 0),
		core.NewVec3(1, 0, 0),
		core.NewVec3(0, 1, 0),
		testMetadata(),
	)

	// Hit at a known barycentric location
	ray := core.NewRay(core.NewVec3(0.25, 0.5, -3), core.NewVec3(0, 0, 1))
	var probe core.HitProbe
	probe.Clear()
	if !tri.IsIntersecting(&ray, &probe) {
		t.Fatal("expected hit")
	}

	bA, bB, bC := probe.Cache[0], probe.Cache[1], probe.Cache[2]
	if math.Abs(bA+bB+bC-1.0) > 1e-9 {
		t.Errorf("barycentrics sum: got %f", bA+bB+bC)
	}
	if math.Abs(bB-0.25) > 1e-9 || math.Abs(bC-0.5) > 1e-9 {
		t.Errorf("barycentrics: got B=%f C=%f, want 0.25, 0.5", bB, bC)
	}
}
