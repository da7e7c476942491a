package render

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/taigrr/shadegrid/pkg/math3d"
)

// LookupTable maps scalars to colours by sweeping hue, saturation and value
// linearly across a fixed number of entries.
type LookupTable struct {
	NumberOfColors  int
	HueRange        [2]float64 // fractions of a full turn
	SaturationRange [2]float64
	ValueRange      [2]float64

	tableRange [2]float64
	table      []math3d.Vec3
}

// NewLookupTable returns the default 256 entry rainbow, red at the low end
// and blue at the high end, over the range [0, 1].
func NewLookupTable() *LookupTable {
	return &LookupTable{
		NumberOfColors:  256,
		HueRange:        [2]float64{0, 0.6667},
		SaturationRange: [2]float64{1, 1},
		ValueRange:      [2]float64{1, 1},
		tableRange:      [2]float64{0, 1},
	}
}

// SetTableRange sets the scalar range mapped onto the table.
func (lt *LookupTable) SetTableRange(lo, hi float64) {
	lt.tableRange = [2]float64{lo, hi}
}

// TableRange returns the scalar range mapped onto the table.
func (lt *LookupTable) TableRange() (lo, hi float64) {
	return lt.tableRange[0], lt.tableRange[1]
}

// Build fills the table from the HSV ranges. MapValue calls it lazily.
func (lt *LookupTable) Build() {
	n := max(lt.NumberOfColors, 1)
	lt.table = make([]math3d.Vec3, n)
	for i := range n {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		h := lerp(lt.HueRange[0], lt.HueRange[1], t)
		s := lerp(lt.SaturationRange[0], lt.SaturationRange[1], t)
		v := lerp(lt.ValueRange[0], lt.ValueRange[1], t)
		c := colorful.Hsv(math.Mod(h, 1)*360, s, v)
		lt.table[i] = math3d.V3(c.R, c.G, c.B)
	}
}

// MapValue returns the colour for scalar v; values outside the range clamp
// to the end entries.
func (lt *LookupTable) MapValue(v float64) math3d.Vec3 {
	if len(lt.table) != max(lt.NumberOfColors, 1) {
		lt.Build()
	}
	lo, hi := lt.tableRange[0], lt.tableRange[1]
	n := len(lt.table)
	idx := 0
	if hi > lo && !math.IsNaN(v) {
		idx = int(math.Floor((v - lo) / (hi - lo) * float64(n)))
	}
	idx = max(0, min(n-1, idx))
	return lt.table[idx]
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
