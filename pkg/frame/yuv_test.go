package frame

import (
	"fmt"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePacked422(t *testing.T) {
	const (
		width  = 2
		height = 2
	)
	cases := map[Format][]byte{
		// Y0 Cb Y1 Cr
		FormatYUY2: {0x01, 0x82, 0x03, 0x84, 0x05, 0x86, 0x07, 0x88},
		// Cb Y0 Cr Y1
		FormatUYVY: {0x82, 0x01, 0x84, 0x03, 0x86, 0x05, 0x88, 0x07},
	}

	for f, input := range cases {
		t.Run(string(f), func(t *testing.T) {
			decoder, err := NewDecoder(f)
			require.NoError(t, err)

			img, release, err := decoder.Decode(input, width, height)
			require.NoError(t, err)
			defer release()

			yuv, ok := img.(*image.YCbCr)
			require.True(t, ok)
			assert.Equal(t, image.YCbCrSubsampleRatio422, yuv.SubsampleRatio)
			assert.Equal(t, []byte{0x01, 0x03, 0x05, 0x07}, yuv.Y)
			assert.Equal(t, []byte{0x82, 0x86}, yuv.Cb)
			assert.Equal(t, []byte{0x84, 0x88}, yuv.Cr)
			assert.Equal(t, image.Rect(0, 0, width, height), yuv.Bounds())
		})
	}
}

func TestDecodeBiPlanar(t *testing.T) {
	const (
		width  = 4
		height = 2
	)
	input := []byte{
		// Y plane
		0x01, 0x02, 0x03, 0x04,
		0x05, 0x06, 0x07, 0x08,
		// interleaved chroma
		0x81, 0x91, 0x82, 0x92,
	}

	cases := map[string]struct {
		decode decoderFunc
		cb, cr []byte
	}{
		"NV12": {decodeNV12, []byte{0x81, 0x82}, []byte{0x91, 0x92}},
		"NV21": {decodeNV21, []byte{0x91, 0x92}, []byte{0x81, 0x82}},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			img, _, err := c.decode(input, width, height)
			require.NoError(t, err)

			yuv := img.(*image.YCbCr)
			assert.Equal(t, input[:width*height], yuv.Y)
			assert.Equal(t, c.cb, yuv.Cb)
			assert.Equal(t, c.cr, yuv.Cr)
			assert.Equal(t, width/2, yuv.CStride)
		})
	}
}

func TestDecodeI420Aliases(t *testing.T) {
	input := []byte{
		1, 2, 3, 4, 5, 6, 7, 8, // Y
		10, 11, // Cb
		20, 21, // Cr
	}
	img, _, err := decodeI420(input, 4, 2)
	require.NoError(t, err)

	yuv := img.(*image.YCbCr)
	assert.Equal(t, []byte{10, 11}, yuv.Cb)
	assert.Equal(t, []byte{20, 21}, yuv.Cr)

	input[0] = 99
	assert.Equal(t, byte(99), yuv.Y[0])
}

func TestDecodeRGBA(t *testing.T) {
	input := make([]byte, 4*2*2+4)
	img, _, err := decodeRGBA(input, 2, 2)
	require.NoError(t, err)

	rgba := img.(*image.RGBA)
	assert.Len(t, rgba.Pix, 16)
	assert.Equal(t, 16, cap(rgba.Pix))
}

func TestDecodeShortFrame(t *testing.T) {
	for _, f := range []Format{FormatI420, FormatNV12, FormatNV21, FormatYUY2, FormatUYVY, FormatRGBA} {
		decoder, err := NewDecoder(f)
		require.NoError(t, err)

		_, _, err = decoder.Decode(make([]byte, 3), 4, 4)
		assert.Error(t, err, "%s: truncated frame", f)
	}
}

func TestDecodeOddSize(t *testing.T) {
	_, _, err := decodeNV12(make([]byte, 64), 3, 3)
	assert.Error(t, err)

	_, _, err = decodeYUY2(make([]byte, 64), 3, 2)
	assert.Error(t, err)
}

func TestNewDecoderUnsupported(t *testing.T) {
	_, err := NewDecoder(Format("Z16"))
	assert.Error(t, err)
}

func BenchmarkDecodeNV12(b *testing.B) {
	sizes := []struct {
		width, height int
	}{
		{640, 480},
		{1920, 1080},
	}
	for _, sz := range sizes {
		b.Run(fmt.Sprintf("%dx%d", sz.width, sz.height), func(b *testing.B) {
			input := make([]byte, frameSize420(sz.width, sz.height))
			for i := 0; i < b.N; i++ {
				if _, _, err := decodeNV12(input, sz.width, sz.height); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
