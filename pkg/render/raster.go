package render

import "math"

// Rasterizer tolerances. A triangle with twice-area below degenerateArea is
// dropped before any pixel work; edgeEpsilon pulls the inside test slightly
// outward so pixels that land exactly on a shared edge are not lost to
// floating point noise.
const (
	degenerateArea = 0.0001
	edgeEpsilon    = -0.001
)

// screenTriangle is a triangle after projection and screen mapping, carrying
// everything the rasterizer needs per vertex. w holds the clip-space w used
// for perspective-correct attribute interpolation.
type screenTriangle struct {
	x, y [3]float64
	z    [3]float64
	w    [3]float64
	u, v [3]float64

	baseR, baseG, baseB uint8
}

// fillTriangle rasterizes one screen-space triangle into the given color and
// depth planes using edge functions over the triangle's bounding box. Depth
// testing is strict less-than, so on an exact tie the earlier submission
// wins. Texturing interpolates UV perspective-correct via 1/w weighting; the
// untextured path modulates the flat base color by the precomputed light
// factor.
func (r *Renderer) fillTriangle(tri screenTriangle, light float64, color []uint8, depth []float32) {
	x0, y0 := tri.x[0], tri.y[0]
	x1, y1 := tri.x[1], tri.y[1]
	x2, y2 := tri.x[2], tri.y[2]

	area := (x1-x0)*(y2-y0) - (x2-x0)*(y1-y0)
	if math.Abs(area) < degenerateArea {
		r.stats.Degenerate++
		return
	}
	invArea := 1.0 / area

	width, height := r.store.width, r.store.height

	minX := clampInt(int(math.Floor(min3(x0, x1, x2))), 0, width-1)
	maxX := clampInt(int(math.Ceil(max3(x0, x1, x2))), 0, width-1)
	minY := clampInt(int(math.Floor(min3(y0, y1, y2))), 0, height-1)
	maxY := clampInt(int(math.Ceil(max3(y0, y1, y2))), 0, height-1)

	dx01, dy01 := x1-x0, y1-y0
	dx12, dy12 := x2-x1, y2-y1
	dx20, dy20 := x0-x2, y0-y2

	textured := r.opts.TexturesEnabled && r.tex.valid()

	var invW0, invW1, invW2 float64
	var uw0, uw1, uw2, vw0, vw1, vw2 float64
	if textured {
		invW0 = 1.0 / tri.w[0]
		invW1 = 1.0 / tri.w[1]
		invW2 = 1.0 / tri.w[2]
		uw0, vw0 = tri.u[0]*invW0, tri.v[0]*invW0
		uw1, vw1 = tri.u[1]*invW1, tri.v[1]*invW1
		uw2, vw2 = tri.u[2]*invW2, tri.v[2]*invW2
	}

	litR := uint8(clampF(float64(tri.baseR)*light, 0, 255))
	litG := uint8(clampF(float64(tri.baseG)*light, 0, 255))
	litB := uint8(clampF(float64(tri.baseB)*light, 0, 255))

	for py := minY; py <= maxY; py++ {
		cy := float64(py) + 0.5
		rowBase := py * width
		for px := minX; px <= maxX; px++ {
			cx := float64(px) + 0.5

			e0 := dx12*(cy-y1) - dy12*(cx-x1)
			e1 := dx20*(cy-y2) - dy20*(cx-x2)
			e2 := dx01*(cy-y0) - dy01*(cx-x0)

			if e0 < edgeEpsilon || e1 < edgeEpsilon || e2 < edgeEpsilon {
				continue
			}

			bary0 := e0 * invArea
			bary1 := e1 * invArea
			bary2 := 1 - bary0 - bary1

			z := bary0*tri.z[0] + bary1*tri.z[1] + bary2*tri.z[2]

			idx := rowBase + px
			if float32(z) >= depth[idx] {
				continue
			}
			depth[idx] = float32(z)

			var cr, cg, cb uint8
			if textured {
				invW := bary0*invW0 + bary1*invW1 + bary2*invW2
				u := (bary0*uw0 + bary1*uw1 + bary2*uw2) / invW
				v := (bary0*vw0 + bary1*vw1 + bary2*vw2) / invW
				tr, tg, tb := r.tex.sample(u, v)
				cr = uint8(clampF(float64(tr)*light, 0, 255))
				cg = uint8(clampF(float64(tg)*light, 0, 255))
				cb = uint8(clampF(float64(tb)*light, 0, 255))
			} else {
				cr, cg, cb = litR, litG, litB
			}

			color[idx*3] = cr
			color[idx*3+1] = cg
			color[idx*3+2] = cb
		}
	}
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
