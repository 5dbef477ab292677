package core

import (
	"math"
	"testing"
)

func TestVec3_BasicOperations(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, 5, 6)

	if got := a.Add(b); !got.Equals(NewVec3(5, 7, 9)) {
		t.Errorf("Add: got %v", got)
	}
	if got := b.Subtract(a); !got.Equals(NewVec3(3, 3, 3)) {
		t.Errorf("Subtract: got %v", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Errorf("Dot: got %f, want 32", got)
	}
	if got := a.Cross(b); !got.Equals(NewVec3(-3, 6, -3)) {
		t.Errorf("Cross: got %v", got)
	}
	if got := a.Divide(2); !got.Equals(NewVec3(0.5, 1, 1.5)) {
		t.Errorf("Divide: got %v", got)
	}
	if got := a.Lerp(b, 0.5); !got.Equals(NewVec3(2.5, 3.5, 4.5)) {
		t.Errorf("Lerp: got %v", got)
	}
}

func TestVec3_Normalize(t *testing.T) {
	v := NewVec3(3, 4, 0).Normalize()
	if math.Abs(v.Length()-1.0) > 1e-12 {
		t.Errorf("Normalize: length %f, want 1", v.Length())
	}

	zero := Vec3{}.Normalize()
	if !zero.IsZero() {
		t.Errorf("Normalize of zero vector: got %v, want zero", zero)
	}
}

func TestVec3_Reflect(t *testing.T) {
	v := NewVec3(1, -1, 0).Normalize()
	n := NewVec3(0, 1, 0)
	reflected := v.Reflect(n)

	want := NewVec3(1, 1, 0).Normalize()
	if !reflected.Equals(want) {
		t.Errorf("Reflect: got %v, want %v", reflected, want)
	}
}

func TestVec3_ComponentAccess(t *testing.T) {
	v := NewVec3(1, 2, 3)
	for axis, want := range []float64{1, 2, 3} {
		if got := v.Component(axis); got != want {
			t.Errorf("Component(%d): got %f, want %f", axis, got, want)
		}
	}
	if got := v.MaxDimension(); got != 2 {
		t.Errorf("MaxDimension: got %d, want 2", got)
	}
}

func TestVec3_IsFinite(t *testing.T) {
	if !NewVec3(1, 2, 3).IsFinite() {
		t.Error("finite vector reported non-finite")
	}
	if NewVec3(math.NaN(), 0, 0).IsFinite() {
		t.Error("NaN vector reported finite")
	}
	if NewVec3(0, math.Inf(1), 0).IsFinite() {
		t.Error("Inf vector reported finite")
	}
}

func TestSynthesizeBasis_Orthonormal(t *testing.T) {
	dirs := []Vec3{
		NewVec3(0, 0, 1),
		NewVec3(0, 0, -1),
		NewVec3(1, 0, 0),
		NewVec3(0.5, -0.5, 0.7071).Normalize(),
		NewVec3(-0.3, 0.9, -0.1).Normalize(),
	}

	for _, w := range dirs {
		basis := SynthesizeBasis(w)
		if math.Abs(basis.U.Length()-1) > 1e-9 || math.Abs(basis.V.Length()-1) > 1e-9 {
			t.Errorf("basis axes not unit for w=%v", w)
		}
		if math.Abs(basis.U.Dot(basis.V)) > 1e-9 ||
			math.Abs(basis.U.Dot(basis.W)) > 1e-9 ||
			math.Abs(basis.V.Dot(basis.W)) > 1e-9 {
			t.Errorf("basis axes not orthogonal for w=%v", w)
		}

		// Round trip local <-> world
		local := NewVec3(0.3, -0.4, 0.86)
		back := basis.WorldToLocal(basis.LocalToWorld(local))
		if !back.Equals(local) {
			t.Errorf("basis round trip: got %v, want %v", back, local)
		}
	}
}

func TestRay_IntervalValidity(t *testing.T) {
	ray := NewRay(NewVec3(0, 0, 0), NewVec3(1, 0, 0))
	if !ray.IsValid() {
		t.Error("default ray interval invalid")
	}

	segment := NewRayTo(NewVec3(0, 0, 0), NewVec3(5, 0, 0))
	if !segment.IsValid() {
		t.Error("segment ray interval invalid")
	}
	if math.Abs(segment.TMax-(5-SelfIntersectEpsilon)) > 1e-9 {
		t.Errorf("segment TMax: got %f", segment.TMax)
	}

	reversed := ray.Reversed()
	if !reversed.Direction.Equals(ray.Direction.Negate()) {
		t.Error("Reversed did not negate direction")
	}
	if reversed.TMin != ray.TMin || reversed.TMax != ray.TMax {
		t.Error("Reversed changed the interval")
	}
}
