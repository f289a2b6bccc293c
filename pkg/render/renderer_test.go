package render

import (
	"errors"
	"testing"

	"github.com/idanbeck/cs-cli/pkg/math3d"
)

func newTestRenderer(t *testing.T, width, height, samples int) *Renderer {
	t.Helper()
	r, err := New(width, height, samples)
	if err != nil {
		t.Fatalf("New(%d, %d, %d): %v", width, height, samples, err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

// litNormals returns per-vertex normals aligned with the default light so
// the flat shading factor is 1 and output colors match vertex colors (within
// rounding).
func litNormals() []float64 {
	return []float64{
		0.5, 1, 0.3,
		0.5, 1, 0.3,
		0.5, 1, 0.3,
	}
}

// screenTri is a counter-clockwise triangle in NDC covering the lower half
// of the screen, usable directly with an identity MVP (w stays 1).
func screenTri() (positions []float64, indices []uint32, colors []uint8) {
	positions = []float64{
		-1, -1, 0,
		0, 1, 0,
		1, -1, 0,
	}
	indices = []uint32{0, 1, 2}
	colors = []uint8{
		200, 100, 50,
		200, 100, 50,
		200, 100, 50,
	}
	return positions, indices, colors
}

func pixelAt(fb []uint8, width, x, y int) (uint8, uint8, uint8) {
	i := (y*width + x) * 3
	return fb[i], fb[i+1], fb[i+2]
}

func colorNear(t *testing.T, gotR, gotG, gotB, wantR, wantG, wantB uint8) {
	t.Helper()
	near := func(a, b uint8) bool {
		d := int(a) - int(b)
		return d >= -1 && d <= 1
	}
	if !near(gotR, wantR) || !near(gotG, wantG) || !near(gotB, wantB) {
		t.Errorf("pixel = (%d,%d,%d), want (%d,%d,%d)", gotR, gotG, gotB, wantR, wantG, wantB)
	}
}

func TestNewDimensions(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		samples int
		wantErr error
		wantSmp int
	}{
		{"minimal", 1, 1, 1, nil, 1},
		{"typical", 640, 480, 1, nil, 1},
		{"max", 4096, 4096, 1, nil, 1},
		{"msaa4", 64, 64, 4, nil, 4},
		{"msaa16", 64, 64, 16, nil, 16},
		{"odd samples coerced", 64, 64, 3, nil, 1},
		{"zero samples coerced", 64, 64, 0, nil, 1},
		{"eight samples coerced", 64, 64, 8, nil, 1},
		{"zero width", 0, 64, 1, ErrInvalidDimensions, 0},
		{"zero height", 64, 0, 1, ErrInvalidDimensions, 0},
		{"negative", -1, 64, 1, ErrInvalidDimensions, 0},
		{"too wide", 4097, 64, 1, ErrInvalidDimensions, 0},
		{"too tall", 64, 4097, 1, ErrInvalidDimensions, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := New(tc.w, tc.h, tc.samples)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("New error = %v, want %v", err, tc.wantErr)
			}
			if err != nil {
				return
			}
			defer r.Close()

			w, h := r.Dimensions()
			if w != tc.w || h != tc.h {
				t.Errorf("Dimensions = %dx%d, want %dx%d", w, h, tc.w, tc.h)
			}
			if got := r.SampleCount(); got != tc.wantSmp {
				t.Errorf("SampleCount = %d, want %d", got, tc.wantSmp)
			}
			if got := len(r.Framebuffer()); got != tc.w*tc.h*3 {
				t.Errorf("framebuffer len = %d, want %d", got, tc.w*tc.h*3)
			}
			if got := len(r.DepthBuffer()); got != tc.w*tc.h {
				t.Errorf("depth buffer len = %d, want %d", got, tc.w*tc.h)
			}
		})
	}
}

func TestDepthStartsAtFarPlane(t *testing.T) {
	r := newTestRenderer(t, 16, 16, 1)
	for i, d := range r.DepthBuffer() {
		if d != 1.0 {
			t.Fatalf("depth[%d] = %v, want 1.0", i, d)
		}
	}
}

func TestClear(t *testing.T) {
	r := newTestRenderer(t, 32, 48, 1)

	if err := r.Clear(10, 20, 30); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	fb := r.Framebuffer()
	for i := 0; i < 32*48; i++ {
		if fb[i*3] != 10 || fb[i*3+1] != 20 || fb[i*3+2] != 30 {
			t.Fatalf("pixel %d = (%d,%d,%d), want (10,20,30)", i, fb[i*3], fb[i*3+1], fb[i*3+2])
		}
	}
	for i, d := range r.DepthBuffer() {
		if d != 1.0 {
			t.Fatalf("depth[%d] = %v after clear, want 1.0", i, d)
		}
	}
}

func TestClearResetsDepthAfterDraw(t *testing.T) {
	r := newTestRenderer(t, 64, 64, 1)
	pos, idx, col := screenTri()

	if _, err := r.RenderTriangles(pos, idx, math3d.Identity(), col, litNormals(), nil); err != nil {
		t.Fatalf("RenderTriangles: %v", err)
	}
	if r.DepthBuffer()[32*64+32] >= 1.0 {
		t.Fatal("center depth unchanged after draw")
	}

	if err := r.Clear(0, 0, 0); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := r.DepthBuffer()[32*64+32]; got != 1.0 {
		t.Errorf("center depth after clear = %v, want 1.0", got)
	}
}

func TestReinit(t *testing.T) {
	r := newTestRenderer(t, 16, 16, 1)

	if err := r.Reinit(32, 8, 4); err != nil {
		t.Fatalf("Reinit: %v", err)
	}
	w, h := r.Dimensions()
	if w != 32 || h != 8 {
		t.Errorf("Dimensions after Reinit = %dx%d, want 32x8", w, h)
	}
	if got := r.SampleCount(); got != 4 {
		t.Errorf("SampleCount after Reinit = %d, want 4", got)
	}

	if err := r.Reinit(0, 8, 1); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Reinit(0, 8) error = %v, want ErrInvalidDimensions", err)
	}
}

func TestClosed(t *testing.T) {
	r := newTestRenderer(t, 16, 16, 1)
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if err := r.Clear(0, 0, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("Clear after Close = %v, want ErrClosed", err)
	}
	if err := r.ResolveMSAA(); !errors.Is(err, ErrClosed) {
		t.Errorf("ResolveMSAA after Close = %v, want ErrClosed", err)
	}
	if err := r.SetTexture(make([]uint8, 12), 2, 2); !errors.Is(err, ErrClosed) {
		t.Errorf("SetTexture after Close = %v, want ErrClosed", err)
	}
	pos, idx, col := screenTri()
	if _, err := r.RenderTriangles(pos, idx, math3d.Identity(), col, nil, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("RenderTriangles after Close = %v, want ErrClosed", err)
	}
	if err := r.Reinit(16, 16, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Reinit after Close = %v, want ErrClosed", err)
	}
}

func TestSetOptionsResetsStats(t *testing.T) {
	r := newTestRenderer(t, 64, 64, 1)
	pos, idx, col := screenTri()

	if _, err := r.RenderTriangles(pos, idx, math3d.Identity(), col, litNormals(), nil); err != nil {
		t.Fatalf("RenderTriangles: %v", err)
	}
	if got := r.Stats().TotalTriangles; got != 1 {
		t.Fatalf("TotalTriangles = %d, want 1", got)
	}

	r.SetOptions(true, true)
	st := r.Stats()
	if st.TotalTriangles != 0 {
		t.Errorf("TotalTriangles after SetOptions = %d, want 0", st.TotalTriangles)
	}
	if st.Frame != 1 {
		t.Errorf("Frame = %d, want 1", st.Frame)
	}
	if !st.BackfaceCullingEnabled || !st.TexturesEnabled {
		t.Errorf("option echo = (%v, %v), want (true, true)", st.BackfaceCullingEnabled, st.TexturesEnabled)
	}

	r.SetOptions(false, false)
	if got := r.Stats().Frame; got != 2 {
		t.Errorf("Frame = %d, want 2", got)
	}
}

func TestStatsTextureEcho(t *testing.T) {
	r := newTestRenderer(t, 16, 16, 1)

	st := r.Stats()
	if st.HasTexture || st.TextureWidth != 0 || st.TextureHeight != 0 {
		t.Errorf("texture echo before set = %+v", st)
	}

	if err := r.SetTexture(make([]uint8, 4*4*3), 4, 4); err != nil {
		t.Fatalf("SetTexture: %v", err)
	}
	st = r.Stats()
	if !st.HasTexture || st.TextureWidth != 4 || st.TextureHeight != 4 {
		t.Errorf("texture echo = %+v, want 4x4 texture", st)
	}
	if st.TexturesSet != 1 {
		t.Errorf("TexturesSet = %d, want 1", st.TexturesSet)
	}
}

func TestHasSIMD(t *testing.T) {
	// Capability report only; just ensure it does not panic
	_ = HasSIMD()
}
