package frame

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Convert decodes data, the locked content of buf, into a new RGBA image.
// The result owns its pixels and stays valid after buf is unlocked.
func Convert(buf PixelBuffer, data []byte) (*image.RGBA, error) {
	width, height := buf.Width(), buf.Height()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}

	decoder, err := NewDecoder(buf.Format())
	if err != nil {
		return nil, err
	}

	img, release, err := decoder.Decode(data, width, height)
	if err != nil {
		return nil, err
	}
	defer release()

	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Copy(dst, image.Point{}, img, bounds, draw.Src, nil)
	return dst, nil
}

// ToNV12 writes img into dst as NV12. dst must hold at least
// Size(FormatNV12, w, h) bytes and both dimensions must be even. Chroma is
// taken from the top-left pixel of every 2x2 block.
func ToNV12(dst []byte, img image.Image) error {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if err := checkEven(width, height); err != nil {
		return err
	}

	size := frameSize420(width, height)
	if len(dst) < size {
		return fmt.Errorf("buffer length (%d) less than expected (%d)", len(dst), size)
	}

	yPlane := dst[:width*height]
	uvPlane := dst[width*height : size]

	switch src := img.(type) {
	case *image.YCbCr:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				yPlane[y*width+x] = src.Y[src.YOffset(bounds.Min.X+x, bounds.Min.Y+y)]
			}
		}
		for y := 0; y < height/2; y++ {
			for x := 0; x < width/2; x++ {
				ci := src.COffset(bounds.Min.X+2*x, bounds.Min.Y+2*y)
				i := y*width + 2*x
				uvPlane[i] = src.Cb[ci]
				uvPlane[i+1] = src.Cr[ci]
			}
		}
	case *image.RGBA:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				p := src.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
				yy, cb, cr := color.RGBToYCbCr(src.Pix[p], src.Pix[p+1], src.Pix[p+2])
				yPlane[y*width+x] = yy
				if x%2 == 0 && y%2 == 0 {
					i := (y/2)*width + x
					uvPlane[i] = cb
					uvPlane[i+1] = cr
				}
			}
		}
	default:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				c := color.YCbCrModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.YCbCr)
				yPlane[y*width+x] = c.Y
				if x%2 == 0 && y%2 == 0 {
					i := (y/2)*width + x
					uvPlane[i] = c.Cb
					uvPlane[i+1] = c.Cr
				}
			}
		}
	}

	return nil
}
