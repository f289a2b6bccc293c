// Package models provides 3D model loading and representation.
package models

import (
	"github.com/idanbeck/cs-cli/pkg/math3d"
)

// Mesh holds indexed triangle geometry in the flat array layout the renderer
// consumes directly: 3 floats per position and normal, 2 floats per UV,
// 3 bytes per vertex color, 3 indices per triangle.
type Mesh struct {
	Name string

	Positions []float64
	Normals   []float64
	UVs       []float64
	Colors    []uint8
	Indices   []uint32

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// AddVertex appends a vertex with all attributes and returns its index.
func (m *Mesh) AddVertex(pos, normal math3d.Vec3, uv math3d.Vec2, r, g, b uint8) uint32 {
	idx := uint32(len(m.Positions) / 3)
	m.Positions = append(m.Positions, pos.X, pos.Y, pos.Z)
	m.Normals = append(m.Normals, normal.X, normal.Y, normal.Z)
	m.UVs = append(m.UVs, uv.X, uv.Y)
	m.Colors = append(m.Colors, r, g, b)
	return idx
}

// AddTriangle appends one triangle by vertex indices.
func (m *Mesh) AddTriangle(i0, i1, i2 uint32) {
	m.Indices = append(m.Indices, i0, i1, i2)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Position returns the position of vertex i.
func (m *Mesh) Position(i int) math3d.Vec3 {
	return math3d.V3(m.Positions[i*3], m.Positions[i*3+1], m.Positions[i*3+2])
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if m.VertexCount() == 0 {
		return
	}

	m.BoundsMin = m.Position(0)
	m.BoundsMax = m.BoundsMin
	for i := 1; i < m.VertexCount(); i++ {
		p := m.Position(i)
		m.BoundsMin = m.BoundsMin.Min(p)
		m.BoundsMax = m.BoundsMax.Max(p)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// HasNormals reports whether any stored normal is meaningfully non-zero.
func (m *Mesh) HasNormals() bool {
	for i := 0; i < m.VertexCount(); i++ {
		n := math3d.V3(m.Normals[i*3], m.Normals[i*3+1], m.Normals[i*3+2])
		if n.Len() > 0.001 {
			return true
		}
	}
	return false
}

// CalculateSmoothNormals accumulates area-weighted face normals per vertex
// and normalizes the result.
func (m *Mesh) CalculateSmoothNormals() {
	if len(m.Normals) < m.VertexCount()*3 {
		m.Normals = make([]float64, m.VertexCount()*3)
	}
	for i := range m.Normals {
		m.Normals[i] = 0
	}

	for t := 0; t < m.TriangleCount(); t++ {
		i0 := m.Indices[t*3]
		i1 := m.Indices[t*3+1]
		i2 := m.Indices[t*3+2]

		v0 := m.Position(int(i0))
		v1 := m.Position(int(i1))
		v2 := m.Position(int(i2))

		// Unnormalized cross product weights by face area
		n := v1.Sub(v0).Cross(v2.Sub(v0))

		for _, idx := range []uint32{i0, i1, i2} {
			m.Normals[idx*3] += n.X
			m.Normals[idx*3+1] += n.Y
			m.Normals[idx*3+2] += n.Z
		}
	}

	for i := 0; i < m.VertexCount(); i++ {
		n := math3d.V3(m.Normals[i*3], m.Normals[i*3+1], m.Normals[i*3+2]).Normalize()
		m.Normals[i*3] = n.X
		m.Normals[i*3+1] = n.Y
		m.Normals[i*3+2] = n.Z
	}
}

// Transform applies a transformation matrix to all positions and normals,
// then recomputes the bounds.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := 0; i < m.VertexCount(); i++ {
		p := mat.MulVec3(m.Position(i))
		m.Positions[i*3] = p.X
		m.Positions[i*3+1] = p.Y
		m.Positions[i*3+2] = p.Z

		if len(m.Normals) >= (i+1)*3 {
			n := mat.MulVec3Dir(math3d.V3(m.Normals[i*3], m.Normals[i*3+1], m.Normals[i*3+2])).Normalize()
			m.Normals[i*3] = n.X
			m.Normals[i*3+1] = n.Y
			m.Normals[i*3+2] = n.Z
		}
	}
	m.CalculateBounds()
}

// SetColor assigns one flat color to every vertex.
func (m *Mesh) SetColor(r, g, b uint8) {
	need := m.VertexCount() * 3
	if len(m.Colors) != need {
		m.Colors = make([]uint8, need)
	}
	for i := 0; i < m.VertexCount(); i++ {
		m.Colors[i*3] = r
		m.Colors[i*3+1] = g
		m.Colors[i*3+2] = b
	}
}

// Clone creates a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:      m.Name,
		Positions: append([]float64(nil), m.Positions...),
		Normals:   append([]float64(nil), m.Normals...),
		UVs:       append([]float64(nil), m.UVs...),
		Colors:    append([]uint8(nil), m.Colors...),
		Indices:   append([]uint32(nil), m.Indices...),
		BoundsMin: m.BoundsMin,
		BoundsMax: m.BoundsMax,
	}
	return clone
}
