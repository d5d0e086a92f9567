package frame

import (
	"fmt"
	"image"
)

var (
	decodeNV12 = biPlanar(FormatNV12, 0, 1)
	decodeNV21 = biPlanar(FormatNV21, 1, 0)

	decodeYUY2 = packed422(FormatYUY2, [4]int{0, 1, 2, 3})
	decodeUYVY = packed422(FormatUYVY, [4]int{1, 0, 3, 2})
)

func checkEven(width, height int) error {
	if width <= 0 || height <= 0 || width%2 != 0 || height%2 != 0 {
		return fmt.Errorf("invalid 4:2:0 frame size %dx%d", width, height)
	}
	return nil
}

func ycbcr420(y, cb, cr []byte, width, height int) *image.YCbCr {
	return &image.YCbCr{
		Y:              y,
		YStride:        width,
		Cb:             cb,
		Cr:             cr,
		CStride:        width / 2,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, width, height),
	}
}

// decodeI420 aliases all three planes of frame.
func decodeI420(frame []byte, width, height int) (image.Image, func(), error) {
	if err := checkEven(width, height); err != nil {
		return nil, nop, err
	}
	if err := checkLen(FormatI420, frame, width, height); err != nil {
		return nil, nop, err
	}

	yi := width * height
	ci := yi / 4
	return ycbcr420(frame[:yi], frame[yi:yi+ci], frame[yi+ci:yi+2*ci], width, height), nop, nil
}

// biPlanar decodes a Y plane followed by one interleaved chroma plane. cbAt
// and crAt are the positions of Cb and Cr in every chroma pair. The Y plane
// aliases frame, chroma is copied out.
func biPlanar(f Format, cbAt, crAt int) decoderFunc {
	return func(frame []byte, width, height int) (image.Image, func(), error) {
		if err := checkEven(width, height); err != nil {
			return nil, nop, err
		}
		if err := checkLen(f, frame, width, height); err != nil {
			return nil, nop, err
		}

		yi := width * height
		pairs := frame[yi : yi+yi/2]
		cb := make([]byte, len(pairs)/2)
		cr := make([]byte, len(pairs)/2)
		for j := range cb {
			cb[j] = pairs[2*j+cbAt]
			cr[j] = pairs[2*j+crAt]
		}
		return ycbcr420(frame[:yi], cb, cr, width, height), nop, nil
	}
}

// packed422 decodes formats storing two pixels in four bytes. layout holds
// the positions of Y0, Cb, Y1 and Cr within each group.
func packed422(f Format, layout [4]int) decoderFunc {
	return func(frame []byte, width, height int) (image.Image, func(), error) {
		if width <= 0 || height <= 0 || width%2 != 0 {
			return nil, nop, fmt.Errorf("invalid 4:2:2 frame size %dx%d", width, height)
		}
		if err := checkLen(f, frame, width, height); err != nil {
			return nil, nop, err
		}

		n := width * height / 2
		y := make([]byte, 2*n)
		cb := make([]byte, n)
		cr := make([]byte, n)
		for j := 0; j < n; j++ {
			group := frame[4*j : 4*j+4]
			y[2*j] = group[layout[0]]
			cb[j] = group[layout[1]]
			y[2*j+1] = group[layout[2]]
			cr[j] = group[layout[3]]
		}

		return &image.YCbCr{
			Y:              y,
			YStride:        width,
			Cb:             cb,
			Cr:             cr,
			CStride:        width / 2,
			SubsampleRatio: image.YCbCrSubsampleRatio422,
			Rect:           image.Rect(0, 0, width, height),
		}, nop, nil
	}
}
