package render

// frameStore holds the render targets as flat slices for cache locality:
// an RGB color plane (3 bytes per pixel, row-major), a depth plane (one
// float32 per pixel, 1.0 = far), and, when samples > 1, per-sample copies of
// both addressed as sample*pixelCount + pixelIndex.
//
// All index arithmetic funnels through pixelIndex and sampleIndex so the
// layout is testable in one place.
type frameStore struct {
	width   int
	height  int
	samples int

	color []uint8
	depth []float32

	// Present only while samples > 1.
	sampleColor []uint8
	sampleDepth []float32
}

// newFrameStore allocates the color and depth planes, plus MSAA sample
// planes when samples > 1, with depth initialized to the far plane.
func newFrameStore(width, height, samples int) *frameStore {
	n := width * height
	s := &frameStore{
		width:   width,
		height:  height,
		samples: samples,
		color:   make([]uint8, n*3),
		depth:   make([]float32, n),
	}
	for i := range s.depth {
		s.depth[i] = 1.0
	}
	if samples > 1 {
		s.sampleColor = make([]uint8, samples*n*3)
		s.sampleDepth = make([]float32, samples*n)
		for i := range s.sampleDepth {
			s.sampleDepth[i] = 1.0
		}
	}
	return s
}

// pixelIndex returns the flat pixel index for (x, y). Color bytes for the
// pixel live at pixelIndex*3.
func (s *frameStore) pixelIndex(x, y int) int {
	return y*s.width + x
}

// sampleIndex returns the flat index into the sample planes for the given
// sample and pixel index.
func (s *frameStore) sampleIndex(sample, pixel int) int {
	return sample*s.width*s.height + pixel
}

// samplePlanes returns the color and depth slices for one MSAA sample.
func (s *frameStore) samplePlanes(sample int) (color []uint8, depth []float32) {
	base := s.sampleIndex(sample, 0)
	n := s.width * s.height
	return s.sampleColor[base*3 : (base+n)*3], s.sampleDepth[base : base+n]
}

// clearRows fills rows [start, end) with the clear color and far-plane
// depth, in both the final planes and any MSAA sample planes. Called from
// pool workers; row ranges never overlap between workers.
func (s *frameStore) clearRows(start, end int, r, g, b uint8) {
	if end > s.height {
		end = s.height
	}
	for y := start; y < end; y++ {
		row := s.pixelIndex(0, y)
		for x := 0; x < s.width; x++ {
			i := row + x
			s.color[i*3] = r
			s.color[i*3+1] = g
			s.color[i*3+2] = b
			s.depth[i] = 1.0
		}
		if s.samples > 1 {
			for smp := 0; smp < s.samples; smp++ {
				base := s.sampleIndex(smp, row)
				for x := 0; x < s.width; x++ {
					i := base + x
					s.sampleColor[i*3] = r
					s.sampleColor[i*3+1] = g
					s.sampleColor[i*3+2] = b
					s.sampleDepth[i] = 1.0
				}
			}
		}
	}
}

// resolveRows averages the per-sample color (truncating integer division)
// and takes the minimum per-sample depth into the final planes for rows
// [start, end). Minimum depth is conservative: the nearest surface governs
// occlusion even with partial coverage.
func (s *frameStore) resolveRows(start, end int) {
	if s.samples <= 1 {
		return
	}
	if end > s.height {
		end = s.height
	}
	for y := start; y < end; y++ {
		for x := 0; x < s.width; x++ {
			i := s.pixelIndex(x, y)

			var rSum, gSum, bSum uint32
			minDepth := float32(1.0)

			for smp := 0; smp < s.samples; smp++ {
				si := s.sampleIndex(smp, i)
				rSum += uint32(s.sampleColor[si*3])
				gSum += uint32(s.sampleColor[si*3+1])
				bSum += uint32(s.sampleColor[si*3+2])
				if s.sampleDepth[si] < minDepth {
					minDepth = s.sampleDepth[si]
				}
			}

			n := uint32(s.samples)
			s.color[i*3] = uint8(rSum / n)
			s.color[i*3+1] = uint8(gSum / n)
			s.color[i*3+2] = uint8(bSum / n)
			s.depth[i] = minDepth
		}
	}
}
