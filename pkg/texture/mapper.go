package texture

import (
	"math"

	"github.com/arvoss/go-pathtracer/pkg/core"
)

// DefaultMapper forwards world position as uvw, which suits procedural 3D
// textures. Primitives use their intrinsic parameterization when a channel
// has no mapper at all.
type DefaultMapper struct{}

// MapToUvw returns the position unchanged
func (m DefaultMapper) MapToUvw(position core.Vec3) core.Vec3 {
	return position
}

// SphericalMapper maps positions to the unit direction from a center point;
// the direction itself is the uvw (a 3D parameterization).
type SphericalMapper struct {
	Center core.Vec3
}

// MapToUvw returns the unit direction from the mapper center
func (m SphericalMapper) MapToUvw(position core.Vec3) core.Vec3 {
	return position.Subtract(m.Center).Normalize()
}

// SphericalLatLongMapper maps positions to latitude-longitude coordinates on
// the unit sphere around a center: u = phi / 2pi, v = 1 - theta / pi with
// theta measured from +Y.
type SphericalLatLongMapper struct {
	Center core.Vec3
}

// MapToUvw returns (u, v, 0) lat-long coordinates
func (m SphericalLatLongMapper) MapToUvw(position core.Vec3) core.Vec3 {
	dir := position.Subtract(m.Center).Normalize()
	if dir.IsZero() {
		return core.Vec3{}
	}

	cosTheta := min(1.0, max(-1.0, dir.Y))
	theta := math.Acos(cosTheta)
	phi := math.Atan2(dir.X, dir.Z)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return core.NewVec3(phi/(2*math.Pi), 1.0-theta/math.Pi, 0)
}

// DirToLatLongUv maps a unit direction to lat-long uv with the shared
// convention theta = (1-v)*pi, phi = u*2*pi
func DirToLatLongUv(dir core.Vec3) core.Vec2 {
	cosTheta := min(1.0, max(-1.0, dir.Y))
	theta := math.Acos(cosTheta)
	phi := math.Atan2(dir.X, dir.Z)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return core.NewVec2(phi/(2*math.Pi), 1.0-theta/math.Pi)
}

// LatLongUvToDir is the inverse of DirToLatLongUv
func LatLongUvToDir(uv core.Vec2) core.Vec3 {
	theta := (1.0 - uv.Y) * math.Pi
	phi := uv.X * 2.0 * math.Pi
	sinTheta := math.Sin(theta)
	return core.NewVec3(sinTheta*math.Sin(phi), math.Cos(theta), sinTheta*math.Cos(phi))
}
