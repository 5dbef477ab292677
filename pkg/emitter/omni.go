package emitter

import (
	"github.com/arvoss/go-pathtracer/pkg/core"
	"github.com/arvoss/go-pathtracer/pkg/texture"
)

// OmniModulatedEmitter wraps a source emitter and multiplies its emitted
// radiance and direct-sample radiance by a directional filter texture, looked
// up via an emission-direction to uv map. Tabulated photometric data (IES
// candela distributions) enters the renderer through this filter.
type OmniModulatedEmitter struct {
	source core.Emitter
	filter texture.Texture
}

// NewOmniModulatedEmitter wraps the source with a directional filter
func NewOmniModulatedEmitter(source core.Emitter, filter texture.Texture) *OmniModulatedEmitter {
	return &OmniModulatedEmitter{source: source, filter: filter}
}

// EvalEmittedRadiance modulates the source radiance by the filter at the
// emission direction
func (e *OmniModulatedEmitter) EvalEmittedRadiance(detail *core.HitDetail, outDir core.Vec3) core.Spectrum {
	radiance := e.source.EvalEmittedRadiance(detail, outDir)
	if radiance.IsZero() {
		return radiance
	}
	return radiance.Mul(e.filterForDirection(outDir))
}

// GenDirectSample modulates the source sample by the filter at the direction
// toward the target
func (e *OmniModulatedEmitter) GenDirectSample(targetPos core.Vec3, flow *core.SampleFlow) (core.DirectEmitterSample, bool) {
	sample, ok := e.source.GenDirectSample(targetPos, flow)
	if !ok {
		return sample, false
	}

	emitDir := targetPos.Subtract(sample.EmitPos)
	sample.RadianceLe = sample.RadianceLe.Mul(e.filterForDirection(emitDir))
	return sample, true
}

// CalcDirectSamplePdfW forwards to the source; the filter reshapes radiance,
// not the sampling density
func (e *OmniModulatedEmitter) CalcDirectSamplePdfW(emitDetail *core.HitDetail, targetPos core.Vec3) float64 {
	return e.source.CalcDirectSamplePdfW(emitDetail, targetPos)
}

// CalcRadiantFluxApprox forwards to the source
func (e *OmniModulatedEmitter) CalcRadiantFluxApprox() float64 {
	return e.source.CalcRadiantFluxApprox()
}

// GenEmissionSample forwards to the source when it can start light paths,
// modulating the emitted throughput by the filter
func (e *OmniModulatedEmitter) GenEmissionSample(flow *core.SampleFlow) (core.Ray, core.Spectrum, bool) {
	source, ok := e.source.(interface {
		GenEmissionSample(flow *core.SampleFlow) (core.Ray, core.Spectrum, bool)
	})
	if !ok {
		return core.Ray{}, core.BlackSpectrum(), false
	}

	ray, throughput, ok := source.GenEmissionSample(flow)
	if !ok {
		return ray, throughput, false
	}
	return ray, throughput.Mul(e.filterForDirection(ray.Direction)), true
}

func (e *OmniModulatedEmitter) filterForDirection(dir core.Vec3) core.Spectrum {
	unit := dir.Normalize()
	if unit.IsZero() {
		return core.NewSpectrumScalar(1)
	}
	uv := texture.DirToLatLongUv(unit)
	return e.filter.Sample(core.NewVec3(uv.X, uv.Y, 0))
}
