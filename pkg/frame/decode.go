package frame

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

var decoders = map[Format]decoderFunc{
	FormatI420:  decodeI420,
	FormatNV12:  decodeNV12,
	FormatNV21:  decodeNV21,
	FormatYUY2:  decodeYUY2,
	FormatUYVY:  decodeUYVY,
	FormatRGBA:  decodeRGBA,
	FormatMJPEG: decodeMJPEG,
}

// NewDecoder returns the decoder for frames in format f.
func NewDecoder(f Format) (Decoder, error) {
	if d, ok := decoders[f]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%s is not supported", f)
}

func nop() {}

// checkLen fails when frame is shorter than a width x height frame in f.
func checkLen(f Format, frame []byte, width, height int) error {
	size, _ := Size(f, width, height)
	if len(frame) < size {
		return fmt.Errorf("%s frame length (%d) less than expected (%d)", f, len(frame), size)
	}
	return nil
}

func decodeRGBA(frame []byte, width, height int) (image.Image, func(), error) {
	if width <= 0 || height <= 0 {
		return nil, nop, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if err := checkLen(FormatRGBA, frame, width, height); err != nil {
		return nil, nop, err
	}
	size := frameSizeRGBA(width, height)
	return &image.RGBA{
		Pix:    frame[:size:size],
		Stride: 4 * width,
		Rect:   image.Rect(0, 0, width, height),
	}, nop, nil
}

// decodeMJPEG ignores width and height, the JPEG header carries them.
func decodeMJPEG(frame []byte, _, _ int) (image.Image, func(), error) {
	img, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, nop, err
	}
	return img, nop, nil
}
