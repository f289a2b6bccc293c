package render

import "github.com/idanbeck/cs-cli/pkg/math3d"

const defaultAmbient = 0.3

func defaultLightDir() math3d.Vec3 {
	return math3d.V3(0.5, 1, 0.3).Normalize()
}

// SetLight changes the directional light used for flat shading. dir points
// toward the light; ambient is clamped to [0, 1].
func (r *Renderer) SetLight(dir math3d.Vec3, ambient float64) {
	if dir.LenSq() > 1e-4 {
		r.lightDir = dir.Normalize()
	}
	r.ambient = clampF(ambient, 0, 1)
}

// lightFactor computes the flat shading multiplier for a face normal:
// ambient floor plus diffuse scaled into the remaining range. Normals close
// to zero length are used as-is rather than normalized.
func (r *Renderer) lightFactor(normal math3d.Vec3) float64 {
	if normal.LenSq() > 1e-4 {
		normal = normal.Normalize()
	}
	d := normal.Dot(r.lightDir)
	if d < 0 {
		d = 0
	}
	return r.ambient + (1-r.ambient)*d
}
