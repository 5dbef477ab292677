package estimator

import (
	"github.com/arvoss/go-pathtracer/pkg/core"
	"github.com/arvoss/go-pathtracer/pkg/scene"
)

// RadianceClamp bounds any single emitted contribution so a pathological hit
// cannot overflow the film
const RadianceClamp = 1e9

// Integrand is everything an estimator evaluates against
type Integrand struct {
	Scene  *scene.Scene
	Camera core.Camera
}

// Estimation is the result of estimating one ray
type Estimation struct {
	Radiance core.Spectrum
}

// Estimator computes a radiance estimate for a single ray
type Estimator interface {
	Estimate(ray core.Ray, integrand Integrand, flow *core.SampleFlow) Estimation
}

// ReversedRaySensor is implemented by estimators that interpret their input
// as a sensing ray pointing toward the receiver rather than a tracing ray
// pointing into the scene
type ReversedRaySensor interface {
	SensesReversedRays() bool
}

// clampContribution applies the numerical safety policy: non-finite or
// negative contributions are discarded, the rest are clamped to the ceiling.
func clampContribution(s core.Spectrum) core.Spectrum {
	if !s.IsFinite() || s.HasNegative() {
		return core.BlackSpectrum()
	}
	return s.Clamp(0, RadianceClamp)
}
