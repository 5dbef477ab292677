package optics

import (
	"math"

	"github.com/arvoss/go-pathtracer/pkg/core"
)

// Fresnel computes directional reflectance. cosThetaI is measured against the
// normal on the incident side; implementations accept negative values and use
// the magnitude with the appropriate medium ordering.
type Fresnel interface {
	CalcReflectance(cosThetaI float64) core.Spectrum
}

// DielectricFresnel exposes the media pair for refraction computations
type DielectricFresnel interface {
	Fresnel
	IorOuter() float64
	IorInner() float64
}

// ExactDielectricFresnel evaluates the unpolarized Fresnel equations exactly:
// both polarizations are computed and averaged.
type ExactDielectricFresnel struct {
	iorOuter float64
	iorInner float64
}

// NewExactDielectricFresnel creates exact dielectric Fresnel for the given
// outer/inner indices of refraction
func NewExactDielectricFresnel(iorOuter, iorInner float64) *ExactDielectricFresnel {
	return &ExactDielectricFresnel{iorOuter: iorOuter, iorInner: iorInner}
}

func (f *ExactDielectricFresnel) IorOuter() float64 { return f.iorOuter }
func (f *ExactDielectricFresnel) IorInner() float64 { return f.iorInner }

// CalcReflectance averages the parallel and perpendicular polarizations. A
// cosThetaI < 0 means the ray arrives from inside the medium.
func (f *ExactDielectricFresnel) CalcReflectance(cosThetaI float64) core.Spectrum {
	etaI, etaT := f.iorOuter, f.iorInner
	if cosThetaI < 0 {
		etaI, etaT = etaT, etaI
		cosThetaI = -cosThetaI
	}
	cosThetaI = math.Min(cosThetaI, 1)

	sinThetaI := math.Sqrt(math.Max(0, 1-cosThetaI*cosThetaI))
	sinThetaT := etaI / etaT * sinThetaI
	if sinThetaT >= 1 {
		// Total internal reflection
		return core.NewSpectrumScalar(1)
	}
	cosThetaT := math.Sqrt(math.Max(0, 1-sinThetaT*sinThetaT))

	rParl := (etaT*cosThetaI - etaI*cosThetaT) / (etaT*cosThetaI + etaI*cosThetaT)
	rPerp := (etaI*cosThetaI - etaT*cosThetaT) / (etaI*cosThetaI + etaT*cosThetaT)
	return core.NewSpectrumScalar(0.5 * (rParl*rParl + rPerp*rPerp))
}

// SchlickDielectricFresnel approximates dielectric Fresnel with
// F0 = ((n-1)/(n+1))^2 and F(cos) = F0 + (1-F0)(1-|cos|)^5
type SchlickDielectricFresnel struct {
	iorOuter float64
	iorInner float64
	f0       float64
}

// NewSchlickDielectricFresnel creates the Schlick approximation for a
// dielectric interface
func NewSchlickDielectricFresnel(iorOuter, iorInner float64) *SchlickDielectricFresnel {
	ratio := (iorInner - iorOuter) / (iorInner + iorOuter)
	return &SchlickDielectricFresnel{iorOuter: iorOuter, iorInner: iorInner, f0: ratio * ratio}
}

func (f *SchlickDielectricFresnel) IorOuter() float64 { return f.iorOuter }
func (f *SchlickDielectricFresnel) IorInner() float64 { return f.iorInner }

// CalcReflectance evaluates the Schlick curve. The approximation ignores
// total internal reflection, so exiting rays past the critical angle clamp to
// full reflectance via the exact sin check.
func (f *SchlickDielectricFresnel) CalcReflectance(cosThetaI float64) core.Spectrum {
	if cosThetaI < 0 {
		sinThetaI := math.Sqrt(math.Max(0, 1-cosThetaI*cosThetaI))
		if f.iorInner/f.iorOuter*sinThetaI >= 1 {
			return core.NewSpectrumScalar(1)
		}
	}
	return core.NewSpectrumScalar(schlick(f.f0, math.Abs(cosThetaI)))
}

// SchlickConductorFresnel approximates conductor Fresnel with the precomputed
// F0 = ((n-1)^2 + k^2) / ((n+1)^2 + k^2) per component
type SchlickConductorFresnel struct {
	f0 core.Spectrum
}

// NewSchlickConductorFresnel creates the Schlick approximation from a
// conductor's complex IOR (n + ik), per spectral component, with the outer
// medium's real IOR
func NewSchlickConductorFresnel(iorOuter float64, n, k core.Spectrum) *SchlickConductorFresnel {
	var f0 core.Spectrum
	for i := 0; i < core.SpectrumSize; i++ {
		num := (n[i]-iorOuter)*(n[i]-iorOuter) + k[i]*k[i]
		den := (n[i]+iorOuter)*(n[i]+iorOuter) + k[i]*k[i]
		f0[i] = num / den
	}
	return &SchlickConductorFresnel{f0: f0}
}

// NewSchlickConductorFresnelF0 creates the approximation directly from a
// measured F0 color
func NewSchlickConductorFresnelF0(f0 core.Spectrum) *SchlickConductorFresnel {
	return &SchlickConductorFresnel{f0: f0}
}

// CalcReflectance evaluates the Schlick curve per component
func (f *SchlickConductorFresnel) CalcReflectance(cosThetaI float64) core.Spectrum {
	cos := math.Abs(cosThetaI)
	var result core.Spectrum
	for i := 0; i < core.SpectrumSize; i++ {
		result[i] = schlick(f.f0[i], cos)
	}
	return result
}

// ExactConductorFresnel evaluates the full conductor Fresnel equations with a
// complex IOR per spectral component
type ExactConductorFresnel struct {
	iorOuter float64
	n, k     core.Spectrum
}

// NewExactConductorFresnel creates exact conductor Fresnel
func NewExactConductorFresnel(iorOuter float64, n, k core.Spectrum) *ExactConductorFresnel {
	return &ExactConductorFresnel{iorOuter: iorOuter, n: n, k: k}
}

// CalcReflectance evaluates the unpolarized conductor reflectance
func (f *ExactConductorFresnel) CalcReflectance(cosThetaI float64) core.Spectrum {
	cosI := math.Min(math.Abs(cosThetaI), 1)
	cos2 := cosI * cosI
	sin2 := 1 - cos2

	var result core.Spectrum
	for i := 0; i < core.SpectrumSize; i++ {
		eta := f.n[i] / f.iorOuter
		etaK := f.k[i] / f.iorOuter
		eta2, etaK2 := eta*eta, etaK*etaK

		t0 := eta2 - etaK2 - sin2
		a2b2 := math.Sqrt(math.Max(0, t0*t0+4*eta2*etaK2))
		t1 := a2b2 + cos2
		a := math.Sqrt(math.Max(0, 0.5*(a2b2+t0)))
		t2 := 2 * a * cosI
		rs := (t1 - t2) / (t1 + t2)

		t3 := cos2*a2b2 + sin2*sin2
		t4 := t2 * sin2
		rp := rs * (t3 - t4) / (t3 + t4)

		result[i] = 0.5 * (rp + rs)
	}
	return result
}

func schlick(f0, cos float64) float64 {
	m := 1 - cos
	m2 := m * m
	return f0 + (1-f0)*m2*m2*m
}
