package geometry

import "github.com/arvoss/go-pathtracer/pkg/core"

// Rectangle is a planar width x height quad centered at the origin of its
// local frame, facing +Z. It is decomposed into two CCW triangles at cook
// time; the triangles are the primitives that enter the scene.
type Rectangle struct {
	Width, Height float64
	Transform     core.Transform
	metadata      *core.PrimitiveMetadata
}

// NewRectangle creates a rectangle description ready to cook
func NewRectangle(width, height float64, transform core.Transform, metadata *core.PrimitiveMetadata) *Rectangle {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Rectangle{Width: width, Height: height, Transform: transform, metadata: metadata}
}

// Cook decomposes the rectangle into two world-space triangles with CCW
// winding and a [0,1]^2 uv parameterization. A zero-sized rectangle cooks into
// degenerate (inert) triangles.
func (r *Rectangle) Cook() []*Triangle {
	hw := r.Width * 0.5
	hh := r.Height * 0.5

	// Local corners, CCW seen from +Z
	lowerLeft := r.Transform.ApplyPoint(core.NewVec3(-hw, -hh, 0))
	lowerRight := r.Transform.ApplyPoint(core.NewVec3(hw, -hh, 0))
	upperRight := r.Transform.ApplyPoint(core.NewVec3(hw, hh, 0))
	upperLeft := r.Transform.ApplyPoint(core.NewVec3(-hw, hh, 0))

	uvLL := core.NewVec3(0, 0, 0)
	uvLR := core.NewVec3(1, 0, 0)
	uvUR := core.NewVec3(1, 1, 0)
	uvUL := core.NewVec3(0, 1, 0)

	normal := r.Transform.ApplyNormal(core.NewVec3(0, 0, 1))

	return []*Triangle{
		NewTriangleWithAttributes(lowerLeft, lowerRight, upperRight,
			normal, normal, normal, uvLL, uvLR, uvUR, r.metadata),
		NewTriangleWithAttributes(lowerLeft, upperRight, upperLeft,
			normal, normal, normal, uvLL, uvUR, uvUL, r.metadata),
	}
}
