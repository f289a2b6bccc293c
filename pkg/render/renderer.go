// Package render implements a software triangle rasterizer: clip-space
// transform, near-plane clipping, perspective-correct texturing, z-buffered
// scanline fill, and optional multi-sample anti-aliasing, all on the CPU.
package render

import (
	"errors"
	"runtime"

	"github.com/idanbeck/cs-cli/pkg/math3d"
)

// MaxDimension is the largest accepted framebuffer width or height.
const MaxDimension = 4096

var (
	// ErrInvalidDimensions is returned when width or height falls outside
	// [1, MaxDimension].
	ErrInvalidDimensions = errors.New("render: invalid dimensions (must be 1-4096)")

	// ErrClosed is returned when an operation is invoked on a renderer
	// that has been closed or never initialized.
	ErrClosed = errors.New("render: renderer closed")
)

// Options controls per-frame rendering behavior.
type Options struct {
	BackfaceCulling bool // Discard triangles with negative screen-space winding
	TexturesEnabled bool // Sample the bound texture instead of flat vertex color
}

// DebugStats tracks per-frame pipeline counters for debugging and HUDs.
// Counters reset on every SetOptions call; Frame increments there too.
type DebugStats struct {
	Frame             int
	TotalTriangles    int
	NearClipped       int // Triangles fully behind the near plane
	FrustumCulled     int // Triangles rejected by the NDC X/Y bounds test
	BackfaceCulled    int
	Degenerate        int // Triangles with near-zero screen area
	TexturesSet       int
	TrianglesWithUV   int
	TrianglesTextured int

	BackfaceCullingEnabled bool
	TexturesEnabled        bool
	HasTexture             bool
	TextureWidth           int
	TextureHeight          int
}

// Renderer owns the framebuffer, depth buffer, MSAA sample planes, the bound
// texture, and a small worker pool for row-parallel clear/resolve passes.
//
// The public API is not safe for concurrent use: the worker pool is an
// internal detail, and draw calls assume single-threaded invocation. Triangle
// submission order is the depth-test tie-break order (strict less-than keeps
// the earlier write).
type Renderer struct {
	store *frameStore
	pool  *rowPool

	tex  texture
	opts Options

	lightDir math3d.Vec3
	ambient  float64

	stats  DebugStats
	closed bool
}

// New creates a renderer with the given framebuffer dimensions and MSAA
// sample count. Sample counts other than 1, 4, or 16 are coerced to 1 rather
// than rejected. The depth buffer starts cleared to the far plane (1.0).
func New(width, height, samples int) (*Renderer, error) {
	r := &Renderer{
		opts:     Options{TexturesEnabled: true},
		lightDir: defaultLightDir(),
		ambient:  defaultAmbient,
	}
	if err := r.Reinit(width, height, samples); err != nil {
		return nil, err
	}
	return r, nil
}

// Reinit drops the current buffers and allocates fresh ones for the new
// dimensions. The worker pool is created only if absent, so repeated Reinit
// calls do not churn threads. The bound texture and options survive.
func (r *Renderer) Reinit(width, height, samples int) error {
	if r.closed {
		return ErrClosed
	}
	if width < 1 || width > MaxDimension || height < 1 || height > MaxDimension {
		return ErrInvalidDimensions
	}
	samples = coerceSampleCount(samples)

	r.store = newFrameStore(width, height, samples)
	if r.pool == nil {
		r.pool = newRowPool(defaultWorkers)
	}
	return nil
}

// coerceSampleCount maps unsupported sample counts to 1.
func coerceSampleCount(samples int) int {
	switch samples {
	case 1, 4, 16:
		return samples
	default:
		return 1
	}
}

// SetOptions sets render options and resets the per-frame debug counters.
func (r *Renderer) SetOptions(backfaceCulling, texturesEnabled bool) {
	r.opts.BackfaceCulling = backfaceCulling
	r.opts.TexturesEnabled = texturesEnabled

	frame := r.stats.Frame + 1
	r.stats = DebugStats{Frame: frame}
}

// Clear fills the framebuffer with the given color and resets every depth
// value to the far plane, including the MSAA sample planes when active.
// The work is row-partitioned across the worker pool.
func (r *Renderer) Clear(cr, cg, cb uint8) error {
	if r.closed || r.store == nil {
		return ErrClosed
	}
	s := r.store
	r.pool.dispatch(s.height, func(start, end int) {
		s.clearRows(start, end, cr, cg, cb)
	})
	return nil
}

// ResolveMSAA averages the per-sample colors into the framebuffer and takes
// the minimum per-sample depth into the depth buffer. It is a no-op when the
// renderer was created with a sample count of 1.
func (r *Renderer) ResolveMSAA() error {
	if r.closed || r.store == nil {
		return ErrClosed
	}
	s := r.store
	if s.samples <= 1 {
		return nil
	}
	r.pool.dispatch(s.height, func(start, end int) {
		s.resolveRows(start, end)
	})
	return nil
}

// Framebuffer returns the RGB framebuffer (3 bytes per pixel, row-major) as a
// zero-copy view. The contents are valid until the next draw or Reinit.
func (r *Renderer) Framebuffer() []uint8 {
	if r.store == nil {
		return nil
	}
	return r.store.color
}

// DepthBuffer returns the depth buffer (one float per pixel, 1.0 = far) as a
// zero-copy view.
func (r *Renderer) DepthBuffer() []float32 {
	if r.store == nil {
		return nil
	}
	return r.store.depth
}

// Dimensions returns the framebuffer width and height.
func (r *Renderer) Dimensions() (width, height int) {
	if r.store == nil {
		return 0, 0
	}
	return r.store.width, r.store.height
}

// SampleCount returns the active MSAA sample count (1 when disabled).
func (r *Renderer) SampleCount() int {
	if r.store == nil {
		return 1
	}
	return r.store.samples
}

// Stats returns a snapshot of the debug counters plus the current option and
// texture state.
func (r *Renderer) Stats() DebugStats {
	st := r.stats
	st.BackfaceCullingEnabled = r.opts.BackfaceCulling
	st.TexturesEnabled = r.opts.TexturesEnabled
	st.HasTexture = r.tex.valid()
	st.TextureWidth = r.tex.width
	st.TextureHeight = r.tex.height
	return st
}

// Close shuts down the worker pool and releases all buffers. It is
// idempotent; any draw, clear, or resolve after Close returns ErrClosed.
func (r *Renderer) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.pool != nil {
		r.pool.close()
		r.pool = nil
	}
	r.store = nil
	r.tex = texture{}
	return nil
}

// HasSIMD reports whether the target architecture has vector units the Go
// compiler auto-vectorizes the hot loops for. The rasterizer itself is
// portable scalar code.
func HasSIMD() bool {
	return runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64"
}
