package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
)

// Framebuffer is the RGB surface every renderer draws into.
type Framebuffer struct {
	Width  int
	Height int
	Pixels []Color // row-major, top-left origin
}

// NewFramebuffer creates a black framebuffer.
func NewFramebuffer(width, height int) *Framebuffer {
	width, height = max(width, 0), max(height, 0)
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]Color, width*height),
	}
}

// Bounds returns the full surface rectangle.
func (fb *Framebuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, fb.Width, fb.Height)
}

// Resize reallocates the pixels when the size changes; contents are lost.
func (fb *Framebuffer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	if width == fb.Width && height == fb.Height {
		return
	}
	fb.Width, fb.Height = width, height
	fb.Pixels = make([]Color, width*height)
}

// SetPixel sets a pixel; out of bounds writes are ignored.
func (fb *Framebuffer) SetPixel(x, y int, c Color) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// GetPixel returns the pixel at (x, y), black when out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) Color {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return ColorBlack
	}
	return fb.Pixels[y*fb.Width+x]
}

// Clear fills the whole surface.
func (fb *Framebuffer) Clear(c Color) {
	fb.FillRect(fb.Bounds(), c)
}

// FillRect fills rect (clipped to the surface) with c.
func (fb *Framebuffer) FillRect(rect image.Rectangle, c Color) {
	rect = rect.Intersect(fb.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := fb.Pixels[y*fb.Width+rect.Min.X : y*fb.Width+rect.Max.X]
		for i := range row {
			row[i] = c
		}
	}
}

// DrawLine draws a 2D line using Bresenham's algorithm.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		fb.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ToImage copies the framebuffer into an image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(fb.Bounds())
	for i, c := range fb.Pixels {
		o := i * 4
		img.Pix[o] = c.R
		img.Pix[o+1] = c.G
		img.Pix[o+2] = c.B
		img.Pix[o+3] = 255
	}
	return img
}

// SavePNG writes the framebuffer to a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, fb.ToImage()); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
