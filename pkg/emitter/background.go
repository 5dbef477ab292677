package emitter

import (
	"math"

	"github.com/arvoss/go-pathtracer/pkg/core"
	"github.com/arvoss/go-pathtracer/pkg/texture"
)

// importance-map resolution used when the radiance texture has no raster
const (
	defaultImportanceCols = 64
	defaultImportanceRows = 32
)

// BackgroundEmitter surrounds the scene with a latitude-longitude radiance
// texture on the unit sphere. Directions are importance-sampled from a 2D
// piecewise-constant distribution over the texture weighted by
// luminance * sin((1-v)*pi), which corrects for the shrinking solid angle of
// lat-long pixels toward the poles.
type BackgroundEmitter struct {
	radiance    texture.Texture
	importance  *core.Distribution2D
	worldBound  core.AABB
	worldCenter core.Vec3
	worldRadius float64
}

// NewBackgroundEmitter creates an environment emitter. worldBound must
// conservatively contain the scene; emit positions are synthesized on a
// sphere outside it.
func NewBackgroundEmitter(radiance texture.Texture, worldBound core.AABB) *BackgroundEmitter {
	cols, rows := defaultImportanceCols, defaultImportanceRows
	if img, ok := radiance.(*texture.Image); ok && img.WidthPx > 0 {
		cols, rows = img.WidthPx, img.HeightPx
	}

	weights := make([]float64, cols*rows)
	for y := 0; y < rows; y++ {
		v := (float64(y) + 0.5) / float64(rows)
		sinTheta := math.Sin((1.0 - v) * math.Pi)
		for x := 0; x < cols; x++ {
			u := (float64(x) + 0.5) / float64(cols)
			lum := radiance.Sample(core.NewVec3(u, v, 0)).CalcLuminance(core.QuantityEMR)
			weights[y*cols+x] = lum * sinTheta
		}
	}

	center, radius := worldBound.BoundingSphere()
	if radius <= 0 {
		radius = 1
	}

	return &BackgroundEmitter{
		radiance:    radiance,
		importance:  core.NewDistribution2D(weights, cols, rows),
		worldBound:  worldBound,
		worldCenter: center,
		worldRadius: radius,
	}
}

// EvalEmittedRadiance samples the lat-long texture at the hit uvw
func (e *BackgroundEmitter) EvalEmittedRadiance(detail *core.HitDetail, outDir core.Vec3) core.Spectrum {
	return e.radiance.Sample(detail.Uvw)
}

// EvalRadianceForDirection returns the environment radiance along a world
// direction, used when a ray escapes the scene
func (e *BackgroundEmitter) EvalRadianceForDirection(dir core.Vec3) core.Spectrum {
	uv := texture.DirToLatLongUv(dir.Normalize())
	return e.radiance.Sample(core.NewVec3(uv.X, uv.Y, 0))
}

// GenDirectSample importance-samples a direction from the environment. The
// emit position is synthesized on the world-bound sphere. Samples at
// sin(theta) = 0 carry pdf 0 and are rejected.
func (e *BackgroundEmitter) GenDirectSample(targetPos core.Vec3, flow *core.SampleFlow) (core.DirectEmitterSample, bool) {
	uv, pdfUv := e.importance.SampleContinuous(flow.Flow2D())
	if pdfUv <= 0 {
		return core.DirectEmitterSample{}, false
	}

	theta := (1.0 - uv.Y) * math.Pi
	sinTheta := math.Sin(theta)
	if sinTheta == 0 {
		return core.DirectEmitterSample{}, false
	}

	dir := texture.LatLongUvToDir(uv)
	emitPos := targetPos.Add(dir.Multiply(2 * e.worldRadius))

	return core.DirectEmitterSample{
		TargetPos:  targetPos,
		EmitPos:    emitPos,
		RadianceLe: e.radiance.Sample(core.NewVec3(uv.X, uv.Y, 0)),
		PdfW:       pdfUv / (2 * math.Pi * math.Pi * sinTheta),
		SourcePrim: nil,
	}, true
}

// CalcDirectSamplePdfW computes the pdf of having sampled the direction from
// the target toward the recorded emit position
func (e *BackgroundEmitter) CalcDirectSamplePdfW(emitDetail *core.HitDetail, targetPos core.Vec3) float64 {
	dir := emitDetail.Position.Subtract(targetPos)
	return e.PdfWForDirection(dir)
}

// PdfWForDirection returns the solid-angle pdf of importance-sampling the
// given direction
func (e *BackgroundEmitter) PdfWForDirection(dir core.Vec3) float64 {
	unit := dir.Normalize()
	if unit.IsZero() {
		return 0
	}

	uv := texture.DirToLatLongUv(unit)
	sinTheta := math.Sin((1.0 - uv.Y) * math.Pi)
	if sinTheta == 0 {
		return 0
	}
	return e.importance.Pdf(uv) / (2 * math.Pi * math.Pi * sinTheta)
}

// CalcRadiantFluxApprox integrates mean luminance over the world-bound disk
func (e *BackgroundEmitter) CalcRadiantFluxApprox() float64 {
	meanLum := 0.0
	const probes = 16
	for i := 0; i < probes; i++ {
		u := (float64(i%4) + 0.5) / 4
		v := (float64(i/4) + 0.5) / 4
		meanLum += e.radiance.Sample(core.NewVec3(u, v, 0)).CalcLuminance(core.QuantityEMR)
	}
	meanLum /= probes

	area := math.Pi * e.worldRadius * e.worldRadius
	flux := meanLum * area * 4 * math.Pi
	if flux <= 0 {
		return 0
	}
	return flux
}

// WorldRadius exposes the conservative scene radius
func (e *BackgroundEmitter) WorldRadius() float64 {
	return e.worldRadius
}
