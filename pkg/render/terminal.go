package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Blit converts the framebuffer to terminal cells and draws them on the
// screen. Each terminal row shows two framebuffer rows using ▀ (upper half
// block) with fg=top pixel and bg=bottom pixel, so the framebuffer height
// should be 2x the terminal height.
func (r *Renderer) Blit(scr uv.Screen, area uv.Rectangle) {
	if r.store == nil {
		return
	}
	fb := r.store.color
	width, height := r.store.width, r.store.height

	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := row * 2
		botY := topY + 1
		if topY >= height {
			break
		}

		for col := area.Min.X; col < area.Max.X && col < width; col++ {
			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: pixelColor(fb, width, col, topY),
					Bg: pixelColor(fb, width, col, min(botY, height-1)),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
}

func pixelColor(fb []uint8, width, x, y int) color.Color {
	i := (y*width + x) * 3
	return color.RGBA{fb[i], fb[i+1], fb[i+2], 255}
}
