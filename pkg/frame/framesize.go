package frame

type frameSizeFunc func(width, height int) int

// frameSizes returns the number of bytes a frame occupies in the given format.
// Compressed formats have no fixed size and are absent.
var frameSizes = map[Format]frameSizeFunc{
	FormatI420: frameSize420,
	FormatNV12: frameSize420,
	FormatNV21: frameSize420,
	FormatYUY2: frameSizeYUY2,
	FormatUYVY: frameSizeYUY2, // UYVY and YUY2 have the same frame size
	FormatRGBA: frameSizeRGBA,
}

// Size reports how many bytes a width x height frame in format f occupies.
// ok is false for compressed or unknown formats.
func Size(f Format, width, height int) (size int, ok bool) {
	fn, ok := frameSizes[f]
	if !ok {
		return 0, false
	}
	return fn(width, height), true
}

func frameSize420(width, height int) int {
	return width*height + 2*(width/2)*(height/2)
}

func frameSizeYUY2(width, height int) int {
	return 2 * width * height
}

func frameSizeRGBA(width, height int) int {
	return 4 * width * height
}
