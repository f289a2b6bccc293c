package render

import (
	"testing"

	"github.com/idanbeck/cs-cli/pkg/math3d"
)

// fullCoverTri is a triangle whose screen footprint covers the entire
// framebuffer including every sub-pixel sample position.
func fullCoverTri() (positions []float64, indices []uint32, colors []uint8) {
	positions = []float64{
		-5, -5, 0,
		0, 5, 0,
		5, -5, 0,
	}
	indices = []uint32{0, 1, 2}
	colors = []uint8{
		120, 60, 30,
		120, 60, 30,
		120, 60, 30,
	}
	return positions, indices, colors
}

func TestSampleOffsetsTables(t *testing.T) {
	if got := len(sampleOffsets(4)); got != 4 {
		t.Errorf("len(sampleOffsets(4)) = %d, want 4", got)
	}
	if got := len(sampleOffsets(16)); got != 16 {
		t.Errorf("len(sampleOffsets(16)) = %d, want 16", got)
	}

	// Every offset stays within the pixel footprint
	for _, samples := range []int{4, 16} {
		for i, off := range sampleOffsets(samples) {
			if off[0] < -0.5 || off[0] > 0.5 || off[1] < -0.5 || off[1] > 0.5 {
				t.Errorf("samples=%d offset %d = %v outside pixel", samples, i, off)
			}
		}
	}
}

func TestResolveNoOpWithoutMSAA(t *testing.T) {
	r := newTestRenderer(t, 32, 32, 1)
	if err := r.Clear(5, 5, 5); err != nil {
		t.Fatal(err)
	}
	if err := r.ResolveMSAA(); err != nil {
		t.Fatalf("ResolveMSAA: %v", err)
	}
	cr, cg, cb := pixelAt(r.Framebuffer(), 32, 16, 16)
	colorNear(t, cr, cg, cb, 5, 5, 5)
}

func TestMSAAFullCoverageMatchesSingleSample(t *testing.T) {
	for _, samples := range []int{4, 16} {
		t.Run(map[int]string{4: "4x", 16: "16x"}[samples], func(t *testing.T) {
			single := newTestRenderer(t, 32, 32, 1)
			multi := newTestRenderer(t, 32, 32, samples)

			pos, idx, col := fullCoverTri()
			for _, r := range []*Renderer{single, multi} {
				if err := r.Clear(0, 0, 0); err != nil {
					t.Fatal(err)
				}
				if _, err := r.RenderTriangles(pos, idx, math3d.Identity(), col, litNormals(), nil); err != nil {
					t.Fatal(err)
				}
				if err := r.ResolveMSAA(); err != nil {
					t.Fatal(err)
				}
			}

			// Full coverage: every sample holds the same color, so the
			// average equals the single-sample result exactly
			sfb, mfb := single.Framebuffer(), multi.Framebuffer()
			for i := range sfb {
				if sfb[i] != mfb[i] {
					t.Fatalf("byte %d: single=%d multi=%d", i, sfb[i], mfb[i])
				}
			}
		})
	}
}

func TestMSAAEdgeBlending(t *testing.T) {
	r := newTestRenderer(t, 32, 32, 4)
	if err := r.Clear(0, 0, 0); err != nil {
		t.Fatal(err)
	}

	pos, idx, _ := screenTri()
	white := []uint8{255, 255, 255, 255, 255, 255, 255, 255, 255}

	if _, err := r.RenderTriangles(pos, idx, math3d.Identity(), white, litNormals(), nil); err != nil {
		t.Fatal(err)
	}
	if err := r.ResolveMSAA(); err != nil {
		t.Fatal(err)
	}

	// Somewhere along the triangle edges a pixel is partially covered and
	// resolves to an intermediate value
	partial := false
	for _, b := range r.Framebuffer() {
		if b > 0 && b < 250 {
			partial = true
			break
		}
	}
	if !partial {
		t.Error("no partially covered pixels after MSAA resolve")
	}
}

func TestMSAAResolveMinDepth(t *testing.T) {
	r := newTestRenderer(t, 32, 32, 4)
	if err := r.Clear(0, 0, 0); err != nil {
		t.Fatal(err)
	}

	pos, idx, col := fullCoverTri()
	// Full coverage at z=0.25 in every sample
	for i := 2; i < len(pos); i += 3 {
		pos[i] = 0.25
	}
	if _, err := r.RenderTriangles(pos, idx, math3d.Identity(), col, litNormals(), nil); err != nil {
		t.Fatal(err)
	}
	if err := r.ResolveMSAA(); err != nil {
		t.Fatal(err)
	}

	got := r.DepthBuffer()[16*32+16]
	if got < 0.2499 || got > 0.2501 {
		t.Errorf("resolved depth = %v, want 0.25", got)
	}
}

func TestMSAAResolveClearsToBackground(t *testing.T) {
	r := newTestRenderer(t, 16, 16, 4)
	if err := r.Clear(40, 50, 60); err != nil {
		t.Fatal(err)
	}
	if err := r.ResolveMSAA(); err != nil {
		t.Fatal(err)
	}

	cr, cg, cb := pixelAt(r.Framebuffer(), 16, 8, 8)
	colorNear(t, cr, cg, cb, 40, 50, 60)
	if got := r.DepthBuffer()[8*16+8]; got != 1.0 {
		t.Errorf("resolved empty depth = %v, want 1.0", got)
	}
}
