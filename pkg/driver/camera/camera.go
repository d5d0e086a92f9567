/*
Package camera provides a video camera driver.

Device Label Generation Rules

On Linux, the device label will be in the format of:
	pci-0000:00:00.0-usb-0:0:0.0-video-index0;video0
If /dev/v4l/by-path/* is not available (for example in a docker container without
bindings in /dev/v4l/by-path/), it will be:
	video0;video0

V4L2 doesn't report which way a camera faces, so every camera is registered
with driver.PositionUnspecified.
*/
package camera

import (
	"github.com/pion/videocapture/pkg/frame"
)

// LabelSeparator is used to separate labels for a driver that
// is found from multiple locations on a host.
const LabelSeparator = ";"

// nativePreference orders the hardware formats tried when the requested
// format has to be produced by conversion.
var nativePreference = []frame.Format{
	frame.FormatNV12,
	frame.FormatYUY2,
	frame.FormatUYVY,
	frame.FormatI420,
	frame.FormatNV21,
	frame.FormatMJPEG,
}
