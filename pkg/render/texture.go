package render

import (
	"fmt"
	"image"
	"math"
	"os"

	// Decoders registered for LoadTextureRGB.
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
)

// texture holds the active RGB texture. The backing buffer only grows across
// SetTexture calls so repeated per-mesh texture swaps do not reallocate.
type texture struct {
	pixels []uint8
	width  int
	height int
}

func (t *texture) valid() bool {
	return t.width > 0 && t.height > 0 && len(t.pixels) >= t.width*t.height*3
}

// sample reads the texel at UV coordinates with repeat wrapping. Out-of-range
// coordinates wrap by their fractional part, so u=1.25 and u=0.25 address the
// same column. Without a valid texture a neutral gray is returned.
func (t *texture) sample(u, v float64) (uint8, uint8, uint8) {
	if !t.valid() {
		return 200, 200, 200
	}

	u -= math.Floor(u)
	v -= math.Floor(v)

	tx := int(u*float64(t.width)) % t.width
	ty := int(v*float64(t.height)) % t.height
	if tx < 0 {
		tx += t.width
	}
	if ty < 0 {
		ty += t.height
	}

	idx := (ty*t.width + tx) * 3
	return t.pixels[idx], t.pixels[idx+1], t.pixels[idx+2]
}

// SetTexture installs tightly packed RGB pixel data as the active texture,
// copying it into the renderer's own storage. Passing nil pixels, a buffer
// shorter than width*height*3, or non-positive dimensions clears the active
// texture instead.
func (r *Renderer) SetTexture(pixels []uint8, width, height int) error {
	if r.closed {
		return ErrClosed
	}

	if pixels == nil || width <= 0 || height <= 0 || len(pixels) < width*height*3 {
		r.tex.width = 0
		r.tex.height = 0
		return nil
	}

	need := width * height * 3
	if cap(r.tex.pixels) < need {
		r.tex.pixels = make([]uint8, need)
	}
	r.tex.pixels = r.tex.pixels[:need]
	copy(r.tex.pixels, pixels[:need])
	r.tex.width = width
	r.tex.height = height
	r.stats.TexturesSet++
	return nil
}

// LoadTextureRGB decodes an image file (PNG, JPEG, TGA, or BMP) and installs
// it as the active texture.
func (r *Renderer) LoadTextureRGB(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode texture %s: %w", path, err)
	}

	pixels, w, h := ImageToRGB(img)
	return r.SetTexture(pixels, w, h)
}

// ImageToRGB flattens a decoded image into the tightly packed RGB layout
// SetTexture expects.
func ImageToRGB(img image.Image) ([]uint8, int, int) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]uint8, w*h*3)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			pixels[i] = uint8(cr >> 8)
			pixels[i+1] = uint8(cg >> 8)
			pixels[i+2] = uint8(cb >> 8)
			i += 3
		}
	}
	return pixels, w, h
}
