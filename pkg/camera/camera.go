package camera

import (
	"math"

	"github.com/arvoss/go-pathtracer/pkg/core"
)

// Pinhole is a perspective camera with an infinitesimal aperture. Raster
// coordinates have their origin at the lower-left corner, matching the frame
// convention; emitted ray directions are unit length.
type Pinhole struct {
	cameraToWorld core.Transform
	widthPx       int
	heightPx      int
	filmWidth     float64
	filmHeight    float64
}

// NewPinhole creates a perspective camera from eye/target/up and a horizontal
// field of view in radians
func NewPinhole(eye, target, up core.Vec3, fovHorizontal float64, widthPx, heightPx int) *Pinhole {
	filmWidth := 2.0 * math.Tan(fovHorizontal*0.5)
	filmHeight := filmWidth * float64(heightPx) / float64(widthPx)
	return &Pinhole{
		cameraToWorld: core.NewLookAt(eye, target, up),
		widthPx:       widthPx,
		heightPx:      heightPx,
		filmWidth:     filmWidth,
		filmHeight:    filmHeight,
	}
}

// Resolution returns the raster dimensions
func (c *Pinhole) Resolution() (int, int) {
	return c.widthPx, c.heightPx
}

// GenSensedRay emits the ray sensing the given raster position
func (c *Pinhole) GenSensedRay(rasterCoord core.Vec2, flow *core.SampleFlow) core.Ray {
	ndcX := rasterCoord.X/float64(c.widthPx) - 0.5
	ndcY := rasterCoord.Y/float64(c.heightPx) - 0.5

	// The camera looks down local -Z
	localDir := core.NewVec3(ndcX*c.filmWidth, ndcY*c.filmHeight, -1)
	worldDir := c.cameraToWorld.ApplyVector(localDir).Normalize()
	origin := c.cameraToWorld.ApplyPoint(core.Vec3{})
	return core.NewRay(origin, worldDir)
}

// ThinLens is a perspective camera with a finite circular aperture producing
// depth of field. Rays converge on the focal plane; the lens position is
// sampled per ray.
type ThinLens struct {
	Pinhole
	lensRadius    float64
	focalDistance float64
}

// NewThinLens creates a thin-lens camera. lensRadius 0 degrades to a pinhole.
func NewThinLens(eye, target, up core.Vec3, fovHorizontal float64, widthPx, heightPx int, lensRadius, focalDistance float64) *ThinLens {
	return &ThinLens{
		Pinhole:       *NewPinhole(eye, target, up, fovHorizontal, widthPx, heightPx),
		lensRadius:    lensRadius,
		focalDistance: focalDistance,
	}
}

// GenSensedRay emits a ray through a sampled lens position toward the focal
// point of the raster position
func (c *ThinLens) GenSensedRay(rasterCoord core.Vec2, flow *core.SampleFlow) core.Ray {
	if c.lensRadius <= 0 {
		return c.Pinhole.GenSensedRay(rasterCoord, flow)
	}

	ndcX := rasterCoord.X/float64(c.widthPx) - 0.5
	ndcY := rasterCoord.Y/float64(c.heightPx) - 0.5
	pinholeDir := core.NewVec3(ndcX*c.filmWidth, ndcY*c.filmHeight, -1)

	// Point on the focal plane this raster position converges to
	focal := pinholeDir.Multiply(c.focalDistance)

	lens := core.SampleUniformDisk(flow.Flow2D()).Multiply(c.lensRadius)
	lensPos := core.NewVec3(lens.X, lens.Y, 0)

	origin := c.cameraToWorld.ApplyPoint(lensPos)
	dir := c.cameraToWorld.ApplyVector(focal.Subtract(lensPos)).Normalize()
	return core.NewRay(origin, dir)
}
