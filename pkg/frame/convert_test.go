package frame

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertNV12(t *testing.T) {
	const (
		width  = 4
		height = 2
	)
	data := []byte{
		10, 20, 30, 40,
		50, 60, 70, 80,
		128, 128, 128, 128,
	}
	b := NewBuffer(FormatNV12, width, height, data)

	img, err := Convert(b, data)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, width, height), img.Bounds())

	// Neutral chroma maps Y straight to gray.
	assert.Equal(t, color.RGBA{10, 10, 10, 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{80, 80, 80, 255}, img.RGBAAt(3, 1))

	// The image owns its memory.
	data[0] = 200
	assert.Equal(t, color.RGBA{10, 10, 10, 255}, img.RGBAAt(0, 0))
}

func TestConvertFailure(t *testing.T) {
	b := NewBuffer(FormatNV12, 640, 480, make([]byte, 10))
	_, err := Convert(b, b.Bytes())
	assert.Error(t, err)

	b = NewBuffer(Format("unknown"), 2, 2, make([]byte, 10))
	_, err = Convert(b, b.Bytes())
	assert.Error(t, err)

	b = NewBuffer(FormatNV12, 0, 0, make([]byte, 10))
	_, err = Convert(b, b.Bytes())
	assert.Error(t, err)
}

func TestConvertMJPEG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, nil))

	b := NewBuffer(FormatMJPEG, 16, 16, buf.Bytes())
	img, err := Convert(b, buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
}

func TestToNV12RoundTrip(t *testing.T) {
	const (
		width  = 4
		height = 4
	)
	src := image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio420)
	for i := range src.Y {
		src.Y[i] = uint8(i * 10)
	}
	for i := range src.Cb {
		src.Cb[i] = uint8(100 + i)
		src.Cr[i] = uint8(200 + i)
	}

	dst := make([]byte, frameSize420(width, height))
	require.NoError(t, ToNV12(dst, src))

	assert.Equal(t, src.Y, dst[:width*height])
	assert.Equal(t, []byte{100, 200, 101, 201, 102, 202, 103, 203}, dst[width*height:])

	img, _, err := decodeNV12(dst, width, height)
	require.NoError(t, err)
	assert.Equal(t, src.Cb, img.(*image.YCbCr).Cb)
	assert.Equal(t, src.Cr, img.(*image.YCbCr).Cr)
}

func TestToNV12RGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = 50, 50, 50, 255
	}

	dst := make([]byte, frameSize420(2, 2))
	require.NoError(t, ToNV12(dst, src))
	assert.Equal(t, []byte{50, 50, 50, 50, 128, 128}, dst)
}

func TestToNV12Errors(t *testing.T) {
	assert.Error(t, ToNV12(make([]byte, 100), image.NewRGBA(image.Rect(0, 0, 3, 2))))
	assert.Error(t, ToNV12(make([]byte, 2), image.NewRGBA(image.Rect(0, 0, 2, 2))))
}
