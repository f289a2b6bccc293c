package render

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/HugoSmits86/nativewebp"
)

// ToImage copies the framebuffer into a standard image.RGBA.
func (r *Renderer) ToImage() *image.RGBA {
	if r.store == nil {
		return nil
	}
	width, height := r.store.width, r.store.height
	fb := r.store.color

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		img.Pix[i*4] = fb[i*3]
		img.Pix[i*4+1] = fb[i*3+1]
		img.Pix[i*4+2] = fb[i*3+2]
		img.Pix[i*4+3] = 255
	}
	return img
}

// SavePNG writes the current framebuffer to a PNG file.
func (r *Renderer) SavePNG(path string) error {
	img := r.ToImage()
	if img == nil {
		return ErrClosed
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// SaveWebP writes the current framebuffer to a lossless WebP file.
func (r *Renderer) SaveWebP(path string) error {
	img := r.ToImage()
	if img == nil {
		return ErrClosed
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		return fmt.Errorf("encode webp: %w", err)
	}
	return nil
}
