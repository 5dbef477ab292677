package core

import (
	"math"
	"math/rand"
	"testing"
)

func TestPowerHeuristic(t *testing.T) {
	if got := PowerHeuristic(1, 0, 1, 1); got != 0 {
		t.Errorf("zero f pdf: got %f", got)
	}
	if got := PowerHeuristic(1, 1, 1, 0); got != 1 {
		t.Errorf("zero g pdf: got %f", got)
	}
	if got := PowerHeuristic(1, 2, 1, 2); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("equal pdfs: got %f, want 0.5", got)
	}

	// Complementary weights sum to one
	w1 := PowerHeuristic(1, 0.3, 1, 1.7)
	w2 := PowerHeuristic(1, 1.7, 1, 0.3)
	if math.Abs(w1+w2-1.0) > 1e-12 {
		t.Errorf("weights sum: got %f", w1+w2)
	}
}

func TestSampleCosineHemisphere_Distribution(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	// Samples are unit vectors in the +Z hemisphere, and their mean cosine
	// is 2/3 as cosine-weighted sampling implies.
	const n = 100000
	sumCos := 0.0
	for i := 0; i < n; i++ {
		dir := SampleCosineHemisphere(NewVec2(rng.Float64(), rng.Float64()))
		if dir.Z < 0 {
			t.Fatal("cosine sample below hemisphere")
		}
		if math.Abs(dir.Length()-1) > 1e-9 {
			t.Fatalf("cosine sample not unit: %f", dir.Length())
		}
		sumCos += dir.Z
	}
	mean := sumCos / n
	if math.Abs(mean-2.0/3.0) > 0.01 {
		t.Errorf("mean cosine: got %f, want 0.667", mean)
	}
}

func TestSampleUniformSphere_Distribution(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	const n = 100000
	var mean Vec3
	octants := [8]int{}
	for i := 0; i < n; i++ {
		dir := SampleUniformSphere(NewVec2(rng.Float64(), rng.Float64()))
		if math.Abs(dir.Length()-1) > 1e-9 {
			t.Fatalf("sphere sample not unit: %f", dir.Length())
		}
		mean = mean.Add(dir)
		idx := 0
		if dir.X > 0 {
			idx |= 1
		}
		if dir.Y > 0 {
			idx |= 2
		}
		if dir.Z > 0 {
			idx |= 4
		}
		octants[idx]++
	}

	if mean.Multiply(1.0 / n).Length() > 0.01 {
		t.Errorf("sphere sampling biased: mean %v", mean.Multiply(1.0/n))
	}
	for i, count := range octants {
		frac := float64(count) / n
		if math.Abs(frac-0.125) > 0.01 {
			t.Errorf("octant %d fraction: got %f, want 0.125", i, frac)
		}
	}
}

func TestSampleTriangleBarycentric_InRange(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 10000; i++ {
		bary := SampleTriangleBarycentric(NewVec2(rng.Float64(), rng.Float64()))
		if bary.X < 0 || bary.Y < 0 || bary.X+bary.Y > 1+1e-12 {
			t.Fatalf("barycentric out of range: %v", bary)
		}
	}
}

func TestSpherePdfA(t *testing.T) {
	if got := SpherePdfA(2); math.Abs(got-1.0/(16*math.Pi)) > 1e-12 {
		t.Errorf("pdfA for r=2: got %g", got)
	}
	if got := SpherePdfA(0); got != 0 {
		t.Errorf("pdfA for r=0: got %g, want 0", got)
	}
}

func TestSampleFlow_Reproducible(t *testing.T) {
	a := NewSampleFlow(123)
	b := NewSampleFlow(123)
	for i := 0; i < 100; i++ {
		if a.Flow1D() != b.Flow1D() {
			t.Fatal("same-seed flows diverged")
		}
	}

	c := NewSampleFlow(124)
	same := 0
	for i := 0; i < 100; i++ {
		if a.Flow1D() == c.Flow1D() {
			same++
		}
	}
	if same == 100 {
		t.Error("different-seed flows identical")
	}
}
