package scene

import (
	"fortio.org/log"
	"github.com/taigrr/shadegrid/pkg/render"
)

// Default initial view, applied to every camera before framing.
const (
	DefaultAzimuth   = 20.0
	DefaultElevation = 30.0
)

// PrepareCameras sets each renderer's background, turns its own camera by
// azimuth and elevation degrees, then frames the camera on the renderer's
// own geometry.
func PrepareCameras(renderers []*render.Renderer, background render.Color, azimuth, elevation float64) {
	for _, r := range renderers {
		if r == nil {
			continue
		}
		r.SetBackground(background)
		cam := r.ActiveCamera()
		cam.Azimuth(azimuth)
		cam.Elevation(elevation)
		r.ResetCamera()
	}
}

// LinkCameras makes every renderer at index i >= cols use the camera of the
// renderer at i-cols, so each column shares the camera of its first row.
// Cameras must already be framed: sharing does not reframe. Renderers with
// no valid counterpart keep their own camera. It returns the number of
// renderers that were relinked.
func LinkCameras(renderers []*render.Renderer, cols int) int {
	if cols <= 0 || cols >= len(renderers) {
		return 0
	}
	linked := 0
	for i := cols; i < len(renderers); i++ {
		src, dst := renderers[i-cols], renderers[i]
		if src == nil || dst == nil {
			continue
		}
		dst.SetActiveCamera(src.ActiveCamera())
		linked++
	}
	log.Debugf("linked %d cameras across %d columns", linked, cols)
	return linked
}
