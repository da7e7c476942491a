package display

import (
	"time"

	"fortio.org/terminal/ansipixels"
	"fortio.org/terminal/ansipixels/tcolor"
)

const helpLine = "drag orbit  wheel zoom  ijkl pan  r reset  w/s wire/surface  ? labels  q quit"

// HUD draws the title, frame rate, help line and optional cell labels over
// the image.
type HUD struct {
	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

// NewHUD creates a HUD with its frame counter started now.
func NewHUD() *HUD {
	return &HUD{fpsTime: time.Now()}
}

// UpdateFPS counts a frame; call once per drawn frame.
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// Draw writes the overlay for d onto the terminal.
func (h *HUD) Draw(ap *ansipixels.AnsiPixels, d *Display) {
	ap.WriteCentered(0, "%s%s%s", tcolor.Cyan.Foreground(), d.Title, tcolor.Reset)
	if !d.ShowLabels {
		return
	}
	ap.WriteAt(0, 0, tcolor.Green.Foreground()+"%.0f FPS "+tcolor.Reset, h.fps)
	stats := d.Stats()
	ap.WriteRight(0, tcolor.Cyan.Foreground()+"%d tris"+tcolor.Reset, stats.TrianglesDrawn)

	for i, r := range d.renderers {
		rect := r.Viewport().PixelRect(d.fb.Width, d.fb.Height)
		// two pixel rows per text row; keep clear of the title line
		y := max(rect.Min.Y/2, 1)
		color := tcolor.Yellow.Foreground()
		if i == d.focus {
			color = tcolor.Green.Foreground()
		}
		ap.WriteAt(rect.Min.X+1, y, "%s%s%s", color, r.Name, tcolor.Reset)
	}
	ap.WriteAt(0, ap.H-1, "%s", helpLine)
}
