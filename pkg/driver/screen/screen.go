// Package screen registers every active display as a video device. Frames
// are grabbed periodically with github.com/kbinani/screenshot.
package screen

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/kbinani/screenshot"
	"golang.org/x/image/draw"

	"github.com/pion/videocapture/internal/logging"
	"github.com/pion/videocapture/pkg/driver"
	"github.com/pion/videocapture/pkg/driver/availability"
	"github.com/pion/videocapture/pkg/frame"
	"github.com/pion/videocapture/pkg/prop"
)

// DefaultFrameRate is used when the requested property has no frame rate.
const DefaultFrameRate = 10

var (
	logger = logging.NewLogger("screen")

	// Sizes offered in NV12 besides the native one.
	scaledSizes = [][2]int{{640, 480}, {1280, 720}}
)

type screen struct {
	displayIndex int
	bounds       func(int) image.Rectangle
	capture      func(int) (*image.RGBA, error)

	mu     sync.Mutex
	cancel func()
}

func init() {
	Initialize()
}

// Initialize registers the active displays. The first display gets a higher
// priority than the others.
func Initialize() {
	activeDisplays := screenshot.NumActiveDisplays()
	for i := 0; i < activeDisplays; i++ {
		priority := driver.PriorityNormal
		if i == 0 {
			priority = driver.PriorityHigh
		}

		driver.GetManager().Register(newScreen(i), driver.Info{
			Label:      fmt.Sprint(i),
			Name:       fmt.Sprintf("display %d", i),
			DeviceType: driver.Screen,
			Priority:   priority,
		})
	}
}

func newScreen(displayIndex int) *screen {
	return &screen{
		displayIndex: displayIndex,
		bounds:       screenshot.GetDisplayBounds,
		capture:      screenshot.CaptureDisplay,
	}
}

func (s *screen) Open() error {
	if s.bounds(s.displayIndex).Empty() {
		return availability.ErrNoDevice
	}
	return nil
}

func (s *screen) Close() error {
	return s.stop()
}

func (s *screen) stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return nil
}

func (s *screen) VideoRecord(p prop.Media) (driver.ReadCloser, error) {
	switch p.FrameFormat {
	case frame.FormatRGBA, frame.FormatNV12:
	default:
		return nil, fmt.Errorf("screen can't produce %s", p.FrameFormat)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("invalid screen size %dx%d", p.Width, p.Height)
	}

	frameRate := p.FrameRate
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	pool := frame.NewBufferPool(p.FrameFormat, p.Width, p.Height)
	ticker := time.NewTicker(time.Duration(float32(time.Second) / frameRate))
	dst := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	var seq uint64

	read := func() (frame.PixelBuffer, func(), error) {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return nil, nil, io.EOF
			case <-ticker.C:
			}

			img, err := s.capture(s.displayIndex)
			if err != nil {
				logger.Warnf("failed to capture display %d: %v", s.displayIndex, err)
				continue
			}

			src := img
			if img.Bounds().Dx() != p.Width || img.Bounds().Dy() != p.Height {
				draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
				src = dst
			}

			buf := pool.Get()
			if p.FrameFormat == frame.FormatRGBA {
				copyRGBA(buf.Bytes(), src)
			} else if err := frame.ToNV12(buf.Bytes(), src); err != nil {
				pool.Put(buf)
				return nil, nil, err
			}

			seq++
			buf.Stamp(seq, time.Now())
			return buf, func() { pool.Put(buf) }, nil
		}
	}

	return driver.NewReadCloser(read, s.stop), nil
}

func copyRGBA(dst []byte, img *image.RGBA) {
	b := img.Bounds()
	rowLen := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		i := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(dst[y*rowLen:(y+1)*rowLen], img.Pix[i:i+rowLen])
	}
}

func (s *screen) Properties() []prop.Media {
	resolution := s.bounds(s.displayIndex)
	width, height := resolution.Dx(), resolution.Dy()

	props := []prop.Media{{
		Video: prop.Video{
			Width:       width,
			Height:      height,
			FrameFormat: frame.FormatRGBA,
			FrameRate:   DefaultFrameRate,
		},
	}}
	if width%2 == 0 && height%2 == 0 {
		props = append(props, prop.Media{
			Video: prop.Video{
				Width:       width,
				Height:      height,
				FrameFormat: frame.FormatNV12,
				FrameRate:   DefaultFrameRate,
			},
		})
	}
	for _, size := range scaledSizes {
		if size[0] == width && size[1] == height {
			continue
		}
		props = append(props, prop.Media{
			Video: prop.Video{
				Width:       size[0],
				Height:      size[1],
				FrameFormat: frame.FormatNV12,
				FrameRate:   DefaultFrameRate,
			},
		})
	}
	return props
}
