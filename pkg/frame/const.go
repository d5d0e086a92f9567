package frame

type Format string

const (
	// YUV Formats

	// FormatI420 https://www.fourcc.org/pixel-format/yuv-i420/
	FormatI420 Format = "I420"
	// FormatNV12 is full range 4:2:0 bi-planar: a Y plane followed by an
	// interleaved CbCr plane. https://www.fourcc.org/pixel-format/yuv-nv12/
	FormatNV12 Format = "NV12"
	// FormatNV21 https://www.fourcc.org/pixel-format/yuv-nv21/
	FormatNV21 Format = "NV21"
	// FormatYUY2 https://www.fourcc.org/pixel-format/yuv-yuy2/
	FormatYUY2 Format = "YUY2"
	// FormatUYVY https://www.fourcc.org/pixel-format/yuv-uyvy/
	FormatUYVY Format = "UYVY"

	// RGB Formats

	// FormatRGBA https://www.fourcc.org/pixel-format/rgb-rgba/
	FormatRGBA Format = "RGBA"

	// Compressed Formats

	// FormatMJPEG https://www.fourcc.org/mjpg/
	FormatMJPEG Format = "MJPEG"
)

// YUV aliases

// FormatYUYV is an alias of FormatYUY2
const FormatYUYV = FormatYUY2
