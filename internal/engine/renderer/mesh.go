package renderer

import (
	"github.com/Faultbox/beanbag/internal/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// floatsPerVertex is position (3) + normal (3).
const floatsPerVertex = 6

// interleave packs positions and normals into one vertex buffer. Geometry
// without usable normals gets smooth normals computed from its triangles.
func interleave(g *scene.Geometry) []float32 {
	normals := g.Normals
	if len(normals) != len(g.Positions) {
		normals = smoothNormals(g.Positions, g.Indices)
	}
	out := make([]float32, 0, len(g.Positions)*floatsPerVertex)
	for i, p := range g.Positions {
		n := normals[i]
		out = append(out, p[0], p[1], p[2], n[0], n[1], n[2])
	}
	return out
}

// smoothNormals averages area-weighted face normals per vertex.
func smoothNormals(positions []mgl32.Vec3, indices []uint32) []mgl32.Vec3 {
	normals := make([]mgl32.Vec3, len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if int(a) >= len(positions) || int(b) >= len(positions) || int(c) >= len(positions) {
			continue
		}
		face := positions[b].Sub(positions[a]).Cross(positions[c].Sub(positions[a]))
		normals[a] = normals[a].Add(face)
		normals[b] = normals[b].Add(face)
		normals[c] = normals[c].Add(face)
	}
	for i, n := range normals {
		if n.Len() > 0 {
			normals[i] = n.Normalize()
		} else {
			normals[i] = mgl32.Vec3{0, 1, 0}
		}
	}
	return normals
}

// normalMatrix returns the matrix that carries normals under model.
func normalMatrix(model mgl32.Mat4) mgl32.Mat3 {
	m := model.Mat3()
	if m.Det() == 0 {
		return mgl32.Ident3()
	}
	return m.Inv().Transpose()
}
