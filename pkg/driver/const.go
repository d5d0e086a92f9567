package driver

// DeviceType represents human readable device type. DeviceType
// can be useful to filter the drivers too.
type DeviceType string

const (
	// Camera represents camera devices
	Camera DeviceType = "camera"
	// Screen represents screen devices
	Screen DeviceType = "screen"
	// CmdSource represents command line programs writing raw frames to stdout
	CmdSource DeviceType = "cmdsource"
)

// Position is where a camera faces, relative to the host.
type Position string

const (
	// PositionUnspecified is used when the platform doesn't report a position,
	// for example with V4L2.
	PositionUnspecified Position = ""
	// PositionBack faces away from the user.
	PositionBack Position = "back"
	// PositionFront faces the user.
	PositionFront Position = "front"
)

// Priority orders drivers returned by Manager.Query. Higher comes first.
type Priority float32

const (
	PriorityHigh   Priority = 0.1
	PriorityNormal Priority = 0.0
	PriorityLow    Priority = -0.1
)
