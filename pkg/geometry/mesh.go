package geometry

import "github.com/arvoss/go-pathtracer/pkg/core"

// TriangleMesh holds indexed triangle geometry with optional per-vertex
// normals and uv coordinates. Cooking produces one Triangle per face, all
// sharing the mesh's metadata record.
type TriangleMesh struct {
	Positions []core.Vec3
	Normals   []core.Vec3 // empty or len(Positions)
	Uvs       []core.Vec2 // empty or len(Positions)
	Indices   []int       // triples of indices into Positions
	Transform core.Transform
	metadata  *core.PrimitiveMetadata
}

// NewTriangleMesh creates a mesh description ready to cook
func NewTriangleMesh(positions []core.Vec3, normals []core.Vec3, uvs []core.Vec2, indices []int, transform core.Transform, metadata *core.PrimitiveMetadata) *TriangleMesh {
	return &TriangleMesh{
		Positions: positions,
		Normals:   normals,
		Uvs:       uvs,
		Indices:   indices,
		Transform: transform,
		metadata:  metadata,
	}
}

// NumFaces returns the number of triangle faces
func (m *TriangleMesh) NumFaces() int {
	return len(m.Indices) / 3
}

// Cook bakes the mesh into world-space triangle primitives. Faces with
// out-of-range indices are skipped; the mesh degrades rather than failing the
// whole cook.
func (m *TriangleMesh) Cook() []*Triangle {
	triangles := make([]*Triangle, 0, m.NumFaces())
	for face := 0; face+2 < len(m.Indices); face += 3 {
		i0, i1, i2 := m.Indices[face], m.Indices[face+1], m.Indices[face+2]
		if !m.validIndex(i0) || !m.validIndex(i1) || !m.validIndex(i2) {
			continue
		}

		a := m.Transform.ApplyPoint(m.Positions[i0])
		b := m.Transform.ApplyPoint(m.Positions[i1])
		c := m.Transform.ApplyPoint(m.Positions[i2])

		if len(m.Normals) == len(m.Positions) {
			na := m.Transform.ApplyNormal(m.Normals[i0])
			nb := m.Transform.ApplyNormal(m.Normals[i1])
			nc := m.Transform.ApplyNormal(m.Normals[i2])
			uvwA, uvwB, uvwC := m.faceUvw(i0, i1, i2)
			triangles = append(triangles,
				NewTriangleWithAttributes(a, b, c, na, nb, nc, uvwA, uvwB, uvwC, m.metadata))
			continue
		}

		if len(m.Uvs) == len(m.Positions) {
			tri := NewTriangle(a, b, c, m.metadata)
			tri.UvwA, tri.UvwB, tri.UvwC = m.faceUvw(i0, i1, i2)
			triangles = append(triangles, tri)
			continue
		}

		triangles = append(triangles, NewTriangle(a, b, c, m.metadata))
	}
	return triangles
}

func (m *TriangleMesh) validIndex(i int) bool {
	return i >= 0 && i < len(m.Positions)
}

func (m *TriangleMesh) faceUvw(i0, i1, i2 int) (core.Vec3, core.Vec3, core.Vec3) {
	if len(m.Uvs) != len(m.Positions) {
		return core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0)
	}
	return core.NewVec3(m.Uvs[i0].X, m.Uvs[i0].Y, 0),
		core.NewVec3(m.Uvs[i1].X, m.Uvs[i1].Y, 0),
		core.NewVec3(m.Uvs[i2].X, m.Uvs[i2].Y, 0)
}
