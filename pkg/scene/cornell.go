package scene

import (
	"math"

	"github.com/arvoss/go-pathtracer/pkg/camera"
	"github.com/arvoss/go-pathtracer/pkg/core"
	"github.com/arvoss/go-pathtracer/pkg/emitter"
	"github.com/arvoss/go-pathtracer/pkg/geometry"
	"github.com/arvoss/go-pathtracer/pkg/optics"
	"github.com/arvoss/go-pathtracer/pkg/texture"
)

// CornellOptions sizes the classic test box
type CornellOptions struct {
	WidthPx, HeightPx int
	LightRadiance     core.Spectrum
}

// DefaultCornellOptions returns the standard configuration: a white box with
// a red left wall, a blue right wall and a rectangular ceiling lamp of
// radiance (3, 3, 3).
func DefaultCornellOptions(widthPx, heightPx int) CornellOptions {
	return CornellOptions{
		WidthPx:       widthPx,
		HeightPx:      heightPx,
		LightRadiance: core.NewSpectrum(3, 3, 3),
	}
}

// BuildCornell cooks the Cornell box: five walls of half extent 1 around the
// origin, a ceiling lamp, and a camera on the +Z axis looking in.
func BuildCornell(opts CornellOptions) *Scene {
	white := core.NewSpectrum(0.75, 0.75, 0.75)
	red := core.NewSpectrum(0.75, 0.15, 0.15)
	blue := core.NewSpectrum(0.15, 0.15, 0.75)

	whiteMeta := &core.PrimitiveMetadata{Optics: optics.NewLambertianDiffuseConstant(white)}
	redMeta := &core.PrimitiveMetadata{Optics: optics.NewLambertianDiffuseConstant(red)}
	blueMeta := &core.PrimitiveMetadata{Optics: optics.NewLambertianDiffuseConstant(blue)}
	metadata := []*core.PrimitiveMetadata{whiteMeta, redMeta, blueMeta}

	var primitives []core.Primitive
	addRect := func(width, height float64, transform core.Transform, meta *core.PrimitiveMetadata) []core.Primitive {
		var rectPrims []core.Primitive
		for _, tri := range geometry.NewRectangle(width, height, transform, meta).Cook() {
			primitives = append(primitives, tri)
			rectPrims = append(rectPrims, tri)
		}
		return rectPrims
	}

	const half = 1.0
	size := 2 * half

	// Walls face inward: each rectangle's +Z normal is rotated toward the
	// box interior.
	floorXf := core.NewRotation(core.NewQuaternionAxisAngle(core.NewVec3(1, 0, 0), -math.Pi/2)).
		Then(core.NewTranslation(core.NewVec3(0, -half, 0)))
	ceilXf := core.NewRotation(core.NewQuaternionAxisAngle(core.NewVec3(1, 0, 0), math.Pi/2)).
		Then(core.NewTranslation(core.NewVec3(0, half, 0)))
	backXf := core.NewTranslation(core.NewVec3(0, 0, -half))
	leftXf := core.NewRotation(core.NewQuaternionAxisAngle(core.NewVec3(0, 1, 0), math.Pi/2)).
		Then(core.NewTranslation(core.NewVec3(-half, 0, 0)))
	rightXf := core.NewRotation(core.NewQuaternionAxisAngle(core.NewVec3(0, 1, 0), -math.Pi/2)).
		Then(core.NewTranslation(core.NewVec3(half, 0, 0)))

	addRect(size, size, floorXf, whiteMeta)
	addRect(size, size, ceilXf, whiteMeta)
	addRect(size, size, backXf, whiteMeta)
	addRect(size, size, leftXf, redMeta)
	addRect(size, size, rightXf, blueMeta)

	// Ceiling lamp slightly below the ceiling, facing down
	lampMeta := &core.PrimitiveMetadata{Optics: optics.NewLambertianDiffuseConstant(core.BlackSpectrum())}
	metadata = append(metadata, lampMeta)
	lampXf := core.NewRotation(core.NewQuaternionAxisAngle(core.NewVec3(1, 0, 0), math.Pi/2)).
		Then(core.NewTranslation(core.NewVec3(0, half-0.01, 0)))
	lampPrims := addRect(0.5, 0.5, lampXf, lampMeta)

	lamp := emitter.NewPrimitiveAreaEmitter(lampPrims, texture.NewConstant(opts.LightRadiance))
	lampMeta.Emitter = lamp

	cam := camera.NewPinhole(
		core.NewVec3(0, 0, 3.8),
		core.NewVec3(0, 0, 0),
		core.NewVec3(0, 1, 0),
		math.Pi/5,
		opts.WidthPx, opts.HeightPx,
	)

	return Cook(Description{
		Primitives: primitives,
		Metadata:   metadata,
		Emitters:   []core.Emitter{lamp},
		Camera:     cam,
		Accel:      AccelBvh,
	})
}
