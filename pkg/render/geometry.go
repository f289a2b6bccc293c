package render

import (
	"github.com/idanbeck/cs-cli/pkg/math3d"
)

// nearPlane is the clip-space w threshold a vertex must reach to count as in
// front of the camera.
const nearPlane = 0.05

// clipVertex is the transient per-vertex record carried through near-plane
// clipping: homogeneous clip-space position plus the attributes that must be
// interpolated when an edge crosses the plane.
type clipVertex struct {
	pos     math3d.Vec4
	uv      math3d.Vec2
	r, g, b uint8
}

// lerpClipVertex interpolates all attributes between a and b at parameter t.
func lerpClipVertex(a, b clipVertex, t float64) clipVertex {
	return clipVertex{
		pos: a.pos.Lerp(b.pos, t),
		uv:  a.uv.Lerp(b.uv, t),
		r:   uint8(float64(a.r) + (float64(b.r)-float64(a.r))*t),
		g:   uint8(float64(a.g) + (float64(b.g)-float64(a.g))*t),
		b:   uint8(float64(a.b) + (float64(b.b)-float64(a.b))*t),
	}
}

// clipNearPlane clips one triangle against w >= nearPlane and writes the
// result into out (space for two triangles, six vertices). Returns the number
// of output triangles: 3 vertices inside passes through (1), none inside
// discards (0), one inside shrinks to a single triangle (1), two inside
// yields a quad split into two triangles preserving the original orientation
// (2). The clip can never produce more than two triangles, so out is a fixed
// array rather than a growable slice.
func clipNearPlane(v0, v1, v2 clipVertex, out *[6]clipVertex) int {
	inside0 := v0.pos.W >= nearPlane
	inside1 := v1.pos.W >= nearPlane
	inside2 := v2.pos.W >= nearPlane

	count := 0
	if inside0 {
		count++
	}
	if inside1 {
		count++
	}
	if inside2 {
		count++
	}

	switch count {
	case 3:
		out[0], out[1], out[2] = v0, v1, v2
		return 1

	case 0:
		return 0

	case 1:
		// One vertex in front: the two edges leaving it cross the plane,
		// producing one smaller triangle.
		var vi, vo1, vo2 clipVertex
		switch {
		case inside0:
			vi, vo1, vo2 = v0, v1, v2
		case inside1:
			vi, vo1, vo2 = v1, v2, v0
		default:
			vi, vo1, vo2 = v2, v0, v1
		}

		t1 := (nearPlane - vi.pos.W) / (vo1.pos.W - vi.pos.W)
		t2 := (nearPlane - vi.pos.W) / (vo2.pos.W - vi.pos.W)

		out[0] = vi
		out[1] = lerpClipVertex(vi, vo1, t1)
		out[2] = lerpClipVertex(vi, vo2, t2)
		return 1

	default:
		// Two vertices in front: clipping away the far corner leaves a quad.
		var vi0, vi1, vo clipVertex
		switch {
		case !inside0:
			vo, vi0, vi1 = v0, v1, v2
		case !inside1:
			vo, vi0, vi1 = v1, v2, v0
		default:
			vo, vi0, vi1 = v2, v0, v1
		}

		t0 := (nearPlane - vi0.pos.W) / (vo.pos.W - vi0.pos.W)
		t1 := (nearPlane - vi1.pos.W) / (vo.pos.W - vi1.pos.W)

		n0 := lerpClipVertex(vi0, vo, t0)
		n1 := lerpClipVertex(vi1, vo, t1)

		out[0], out[1], out[2] = vi0, vi1, n1
		out[3], out[4], out[5] = vi0, n1, n0
		return 2
	}
}

// RenderTriangles runs the full pipeline over an indexed triangle batch:
// MVP transform, near-plane clip, perspective divide, coarse frustum reject,
// winding normalization, flat per-face lighting, and scanline rasterization
// (once per MSAA sample when active). Triangles are processed strictly in
// index order. Returns the number of triangles that reached the rasterizer.
//
// positions, colors, and normals hold 3 values per vertex; uvs holds 2 per
// vertex and may be nil. Indices referencing vertices beyond the supplied
// buffers are the caller's contract and are not validated.
func (r *Renderer) RenderTriangles(positions []float64, indices []uint32, mvp math3d.Mat4, colors []uint8, normals []float64, uvs []float64) (int, error) {
	if r.closed || r.store == nil {
		return 0, ErrClosed
	}

	halfW := float64(r.store.width) * 0.5
	halfH := float64(r.store.height) * 0.5
	textured := r.opts.TexturesEnabled && r.tex.valid()

	rendered := 0
	triangleCount := len(indices) / 3

	for t := 0; t < triangleCount; t++ {
		i0 := indices[t*3]
		i1 := indices[t*3+1]
		i2 := indices[t*3+2]

		p0 := math3d.V3(positions[i0*3], positions[i0*3+1], positions[i0*3+2])
		p1 := math3d.V3(positions[i1*3], positions[i1*3+1], positions[i1*3+2])
		p2 := math3d.V3(positions[i2*3], positions[i2*3+1], positions[i2*3+2])

		r.stats.TotalTriangles++

		cv0 := clipVertex{pos: mvp.MulVec4(math3d.V4FromV3(p0, 1)), r: colors[i0*3], g: colors[i0*3+1], b: colors[i0*3+2]}
		cv1 := clipVertex{pos: mvp.MulVec4(math3d.V4FromV3(p1, 1)), r: colors[i1*3], g: colors[i1*3+1], b: colors[i1*3+2]}
		cv2 := clipVertex{pos: mvp.MulVec4(math3d.V4FromV3(p2, 1)), r: colors[i2*3], g: colors[i2*3+1], b: colors[i2*3+2]}

		if uvs != nil && len(uvs) >= int(i2+1)*2 {
			cv0.uv = math3d.V2(uvs[i0*2], uvs[i0*2+1])
			cv1.uv = math3d.V2(uvs[i1*2], uvs[i1*2+1])
			cv2.uv = math3d.V2(uvs[i2*2], uvs[i2*2+1])
			r.stats.TrianglesWithUV++
		}

		var clipped [6]clipVertex
		n := clipNearPlane(cv0, cv1, cv2, &clipped)
		if n == 0 {
			r.stats.NearClipped++
			continue
		}

		// Face normal from the supplied per-vertex normals, or a cross
		// product of the original edges as fallback. Flat shading: one
		// light factor for the whole triangle.
		var normal math3d.Vec3
		if len(normals) >= int(i2+1)*3 {
			normal = math3d.V3(
				(normals[i0*3]+normals[i1*3]+normals[i2*3])/3,
				(normals[i0*3+1]+normals[i1*3+1]+normals[i2*3+1])/3,
				(normals[i0*3+2]+normals[i1*3+2]+normals[i2*3+2])/3,
			)
		} else {
			normal = p1.Sub(p0).Cross(p2.Sub(p0))
		}
		light := r.lightFactor(normal)

		if textured {
			r.stats.TrianglesTextured++
		}

		for i := 0; i < n; i++ {
			if r.processClipped(clipped[i*3], clipped[i*3+1], clipped[i*3+2], light, halfW, halfH) {
				rendered++
			}
		}
	}

	return rendered, nil
}

// processClipped takes one clipped triangle through perspective divide,
// frustum rejection, screen mapping, and winding normalization, then hands it
// to the rasterizer. Reports whether the triangle reached the rasterizer.
func (r *Renderer) processClipped(cv0, cv1, cv2 clipVertex, light, halfW, halfH float64) bool {
	ndc0 := cv0.pos.PerspectiveDivide()
	ndc1 := cv1.pos.PerspectiveDivide()
	ndc2 := cv2.pos.PerspectiveDivide()

	// Coarse separating-axis reject: drop the triangle only when all three
	// vertices sit beyond the same X or Y frustum bound. Z is never tested
	// here; triangles past the far plane lose the depth test instead.
	if (ndc0.X < -1 && ndc1.X < -1 && ndc2.X < -1) ||
		(ndc0.X > 1 && ndc1.X > 1 && ndc2.X > 1) ||
		(ndc0.Y < -1 && ndc1.Y < -1 && ndc2.Y < -1) ||
		(ndc0.Y > 1 && ndc1.Y > 1 && ndc2.Y > 1) {
		r.stats.FrustumCulled++
		return false
	}

	// NDC to screen, Y flipped (screen origin is top-left).
	sx0, sy0 := (ndc0.X+1)*halfW, (1-ndc0.Y)*halfH
	sx1, sy1 := (ndc1.X+1)*halfW, (1-ndc1.Y)*halfH
	sx2, sy2 := (ndc2.X+1)*halfW, (1-ndc2.Y)*halfH

	signedArea := (sx1-sx0)*(sy2-sy0) - (sx2-sx0)*(sy1-sy0)

	if r.opts.BackfaceCulling && signedArea < 0 {
		r.stats.BackfaceCulled++
		return false
	}

	tri := screenTriangle{
		x: [3]float64{sx0, sx1, sx2},
		y: [3]float64{sy0, sy1, sy2},
		z: [3]float64{ndc0.Z, ndc1.Z, ndc2.Z},
		w: [3]float64{cv0.pos.W, cv1.pos.W, cv2.pos.W},
		u: [3]float64{cv0.uv.X, cv1.uv.X, cv2.uv.X},
		v: [3]float64{cv0.uv.Y, cv1.uv.Y, cv2.uv.Y},

		baseR: cv0.r,
		baseG: cv0.g,
		baseB: cv0.b,
	}

	// Culling off and negative area: swap vertices 1 and 2 so the edge
	// functions always see counter-clockwise-positive orientation.
	if signedArea < 0 {
		tri.x[1], tri.x[2] = tri.x[2], tri.x[1]
		tri.y[1], tri.y[2] = tri.y[2], tri.y[1]
		tri.z[1], tri.z[2] = tri.z[2], tri.z[1]
		tri.w[1], tri.w[2] = tri.w[2], tri.w[1]
		tri.u[1], tri.u[2] = tri.u[2], tri.u[1]
		tri.v[1], tri.v[2] = tri.v[2], tri.v[1]
	}

	if r.store.samples == 1 {
		r.fillTriangle(tri, light, r.store.color, r.store.depth)
		return true
	}

	// One rasterization pass per MSAA sample: offsets shift screen-space
	// x/y only, never depth or UV.
	offsets := sampleOffsets(r.store.samples)
	for s, off := range offsets {
		shifted := tri
		for i := range 3 {
			shifted.x[i] += off[0]
			shifted.y[i] += off[1]
		}
		color, depth := r.store.samplePlanes(s)
		r.fillTriangle(shifted, light, color, depth)
	}
	return true
}
