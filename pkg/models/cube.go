package models

import "github.com/idanbeck/cs-cli/pkg/math3d"

// Cube builds a unit-ish cube of the given half extent with per-face normals
// and UVs, each face a distinct color. Winding is clockwise in screen space
// after the projection's Y flip, matching the rasterizer's front-face
// convention.
func Cube(half float64) *Mesh {
	m := NewMesh("cube")

	type face struct {
		normal  math3d.Vec3
		corners [4]math3d.Vec3
		r, g, b uint8
	}

	h := half
	faces := []face{
		{math3d.V3(0, 0, 1), [4]math3d.Vec3{{X: -h, Y: -h, Z: h}, {X: h, Y: -h, Z: h}, {X: h, Y: h, Z: h}, {X: -h, Y: h, Z: h}}, 230, 80, 80},
		{math3d.V3(0, 0, -1), [4]math3d.Vec3{{X: h, Y: -h, Z: -h}, {X: -h, Y: -h, Z: -h}, {X: -h, Y: h, Z: -h}, {X: h, Y: h, Z: -h}}, 80, 230, 80},
		{math3d.V3(1, 0, 0), [4]math3d.Vec3{{X: h, Y: -h, Z: h}, {X: h, Y: -h, Z: -h}, {X: h, Y: h, Z: -h}, {X: h, Y: h, Z: h}}, 80, 80, 230},
		{math3d.V3(-1, 0, 0), [4]math3d.Vec3{{X: -h, Y: -h, Z: -h}, {X: -h, Y: -h, Z: h}, {X: -h, Y: h, Z: h}, {X: -h, Y: h, Z: -h}}, 230, 230, 80},
		{math3d.V3(0, 1, 0), [4]math3d.Vec3{{X: -h, Y: h, Z: h}, {X: h, Y: h, Z: h}, {X: h, Y: h, Z: -h}, {X: -h, Y: h, Z: -h}}, 230, 80, 230},
		{math3d.V3(0, -1, 0), [4]math3d.Vec3{{X: -h, Y: -h, Z: -h}, {X: h, Y: -h, Z: -h}, {X: h, Y: -h, Z: h}, {X: -h, Y: -h, Z: h}}, 80, 230, 230},
	}

	uvs := [4]math3d.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

	for _, f := range faces {
		var idx [4]uint32
		for i, c := range f.corners {
			idx[i] = m.AddVertex(c, f.normal, uvs[i], f.r, f.g, f.b)
		}
		m.AddTriangle(idx[0], idx[2], idx[1])
		m.AddTriangle(idx[0], idx[3], idx[2])
	}

	m.CalculateBounds()
	return m
}
