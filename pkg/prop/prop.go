package prop

import (
	"fmt"

	"github.com/pion/videocapture/pkg/frame"
)

// Media describes what a device can produce, or what it's asked to produce.
type Media struct {
	DeviceID string
	Video
}

func (p Media) String() string {
	return fmt.Sprintf("%dx%d %s@%gfps", p.Width, p.Height, p.FrameFormat, p.FrameRate)
}

// Video represents a video's properties
type Video struct {
	Width, Height int
	FrameRate     float32
	FrameFormat   frame.Format
}

// Preset is a named capture resolution.
type Preset struct {
	Name          string
	Width, Height int
}

// PresetVGA640x480 trades fidelity for throughput. It's the only preset a
// capture session uses.
var PresetVGA640x480 = Preset{Name: "vga640x480", Width: 640, Height: 480}

func (p Preset) String() string {
	return p.Name
}

// IsZero reports whether no preset has been chosen.
func (p Preset) IsZero() bool {
	return p.Width == 0 && p.Height == 0
}

// Match returns the first property in props with the preset's size. When
// format is not empty the property must also use it.
func (p Preset) Match(props []Media, format frame.Format) (Media, bool) {
	for _, m := range props {
		if m.Width != p.Width || m.Height != p.Height {
			continue
		}
		if format != "" && m.FrameFormat != format {
			continue
		}
		return m, true
	}
	return Media{}, false
}
