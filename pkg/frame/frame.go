// Package frame describes raw pixel buffers handed out by capture devices and
// the decoders that turn them into images.
package frame

import "image"

// Decoder turns raw bytes in one Format into an image. The returned image may
// alias frame, so it's only valid as long as frame is. release must be called
// once the image is no longer used.
type Decoder interface {
	Decode(frame []byte, width, height int) (img image.Image, release func(), err error)
}

// DecoderFunc is a proxy type for Decoder
type decoderFunc func(frame []byte, width, height int) (image.Image, func(), error)

func (f decoderFunc) Decode(frame []byte, width, height int) (image.Image, func(), error) {
	return f(frame, width, height)
}
