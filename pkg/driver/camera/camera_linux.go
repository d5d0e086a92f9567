package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/blackjack/webcam"
	"github.com/pion/videocapture/internal/logging"
	"github.com/pion/videocapture/pkg/driver"
	"github.com/pion/videocapture/pkg/driver/availability"
	"github.com/pion/videocapture/pkg/frame"
	"github.com/pion/videocapture/pkg/prop"
)

const (
	maxEmptyFrameCount = 5
	// seconds
	waitTimeout = 1
)

var (
	errEmptyFrame = errors.New("empty frame")
	logger        = logging.NewLogger("camera")
)

func fourcc(a, b, c, d byte) webcam.PixelFormat {
	return webcam.PixelFormat(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

var v4l2Formats = map[webcam.PixelFormat]frame.Format{
	fourcc('Y', 'U', 'Y', 'V'): frame.FormatYUY2,
	fourcc('U', 'Y', 'V', 'Y'): frame.FormatUYVY,
	fourcc('N', 'V', '1', '2'): frame.FormatNV12,
	fourcc('N', 'V', '2', '1'): frame.FormatNV21,
	fourcc('Y', 'U', '1', '2'): frame.FormatI420,
	fourcc('M', 'J', 'P', 'G'): frame.FormatMJPEG,
}

// Camera implementation using v4l2
// Reference: https://linuxtv.org/downloads/v4l-dvb-apis/uapi/v4l/videodev.html#videodev
type camera struct {
	path            string
	cam             *webcam.Webcam
	formats         map[webcam.PixelFormat]frame.Format
	reversedFormats map[frame.Format]webcam.PixelFormat
	mutex           sync.Mutex
	cancel          func()
	seq             uint64
}

func init() {
	Initialize()
}

// Initialize finds and registers camera devices. This is part of an experimental API.
func Initialize() {
	discovered := make(map[string]struct{})
	discover(driver.GetManager(), discovered, "/dev/v4l/by-path/*")
	discover(driver.GetManager(), discovered, "/dev/video*")
}

func discover(m *driver.Manager, discovered map[string]struct{}, pattern string) {
	devices, err := filepath.Glob(pattern)
	if err != nil {
		// No v4l device.
		return
	}
	for _, device := range devices {
		label := filepath.Base(device)
		reallink, err := filepath.EvalSymlinks(device)
		if err != nil {
			continue
		}
		realName := filepath.Base(reallink)
		if _, ok := discovered[realName]; ok {
			continue
		}
		discovered[realName] = struct{}{}

		cam := newCamera(device)
		m.Register(cam, driver.Info{
			Label:      label + LabelSeparator + realName,
			Name:       realName,
			DeviceType: driver.Camera,
			Position:   driver.PositionUnspecified,
		})
	}
}

func newCamera(path string) *camera {
	reversedFormats := make(map[frame.Format]webcam.PixelFormat)
	for k, v := range v4l2Formats {
		reversedFormats[v] = k
	}

	return &camera{
		path:            path,
		formats:         v4l2Formats,
		reversedFormats: reversedFormats,
	}
}

func (c *camera) Open() error {
	if _, err := os.Stat(c.path); errors.Is(err, os.ErrNotExist) {
		return availability.ErrNoDevice
	}

	cam, err := webcam.Open(c.path)
	if errors.Is(err, syscall.EBUSY) {
		return availability.ErrBusy
	}
	if err != nil {
		return err
	}

	c.cam = cam
	return nil
}

func (c *camera) Close() error {
	if c.cam == nil {
		return nil
	}

	c.stop()
	err := c.cam.Close()
	c.cam = nil
	return err
}

func (c *camera) stop() error {
	if c.cancel == nil {
		return nil
	}

	// Let the reader knows that the caller has stopped the camera
	c.cancel()
	// Wait until the reader leaves the mmap buffer
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cancel = nil
	return c.cam.StopStreaming()
}

// nativeFormat picks what to ask the hardware for when p.FrameFormat is
// wanted at p.Width x p.Height.
func (c *camera) nativeFormat(p prop.Media) (frame.Format, bool) {
	candidates := append([]frame.Format{p.FrameFormat}, nativePreference...)
	for _, f := range candidates {
		pf, ok := c.reversedFormats[f]
		if !ok || !c.supportsSize(pf, p.Width, p.Height) {
			continue
		}
		if f == p.FrameFormat {
			return f, true
		}
		if p.FrameFormat == frame.FormatNV12 {
			return f, true
		}
	}
	return "", false
}

func (c *camera) supportsSize(pf webcam.PixelFormat, width, height int) bool {
	if _, ok := c.cam.GetSupportedFormats()[pf]; !ok {
		return false
	}
	for _, fs := range c.cam.GetSupportedFrameSizes(pf) {
		if fits(fs, uint32(width), uint32(height)) {
			return true
		}
	}
	return false
}

func fits(fs webcam.FrameSize, width, height uint32) bool {
	if width < fs.MinWidth || width > fs.MaxWidth || height < fs.MinHeight || height > fs.MaxHeight {
		return false
	}
	if fs.StepWidth > 0 && (width-fs.MinWidth)%fs.StepWidth != 0 {
		return false
	}
	if fs.StepHeight > 0 && (height-fs.MinHeight)%fs.StepHeight != 0 {
		return false
	}
	return true
}

func (c *camera) VideoRecord(p prop.Media) (driver.ReadCloser, error) {
	native, ok := c.nativeFormat(p)
	if !ok {
		return nil, fmt.Errorf("camera can't produce %s", p)
	}

	decoder, err := frame.NewDecoder(native)
	if err != nil {
		return nil, err
	}

	pf := c.reversedFormats[native]
	_, w, h, err := c.cam.SetImageFormat(pf, uint32(p.Width), uint32(p.Height))
	if err != nil {
		return nil, err
	}
	if int(w) != p.Width || int(h) != p.Height {
		return nil, fmt.Errorf("camera negotiated %dx%d instead of %dx%d", w, h, p.Width, p.Height)
	}

	if err := c.cam.StartStreaming(); err != nil {
		return nil, err
	}

	cam := c.cam
	pool := frame.NewBufferPool(p.FrameFormat, p.Width, p.Height)

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	read := func() (frame.PixelBuffer, func(), error) {
		// Lock to avoid accessing the buffer after StopStreaming()
		c.mutex.Lock()
		defer c.mutex.Unlock()

		for i := 0; i < maxEmptyFrameCount; {
			if ctx.Err() != nil {
				// Return EOF if the camera is already stopped.
				return nil, nil, io.EOF
			}

			err := cam.WaitForFrame(waitTimeout)
			switch err.(type) {
			case nil:
			case *webcam.Timeout:
				continue
			default:
				// Camera has been stopped.
				return nil, nil, err
			}

			b, err := cam.ReadFrame()
			if err != nil {
				// Camera has been stopped.
				return nil, nil, err
			}

			// Frame is empty.
			// Retry reading and return errEmptyFrame if it exceeds maxEmptyFrameCount.
			if len(b) == 0 {
				i++
				continue
			}

			// Move the memory from mmap to Go before leaving the lock, the
			// kernel reuses it for the next capture.
			buf := pool.Get()
			if err := fill(buf, b, native, decoder, p); err != nil {
				pool.Put(buf)
				logger.Tracef("dropping frame: %v", err)
				continue
			}
			c.seq++
			buf.Stamp(c.seq, time.Now())
			return buf, func() { pool.Put(buf) }, nil
		}
		return nil, nil, errEmptyFrame
	}

	return driver.NewReadCloser(read, c.stop), nil
}

func fill(buf *frame.Buffer, b []byte, native frame.Format, decoder frame.Decoder, p prop.Media) error {
	if native == p.FrameFormat {
		if size, ok := frame.Size(native, p.Width, p.Height); ok {
			if len(b) < size {
				return fmt.Errorf("frame length (%d) less than expected (%d)", len(b), size)
			}
			copy(buf.Bytes(), b[:size])
			return nil
		}
		buf.SetLen(len(b))
		copy(buf.Bytes(), b)
		return nil
	}

	img, release, err := decoder.Decode(b, p.Width, p.Height)
	if err != nil {
		return err
	}
	defer release()
	return frame.ToNV12(buf.Bytes(), img)
}

func (c *camera) Properties() []prop.Media {
	properties := make([]prop.Media, 0)
	seen := make(map[prop.Video]struct{})
	add := func(v prop.Video) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		properties = append(properties, prop.Media{Video: v})
	}

	for pf := range c.cam.GetSupportedFormats() {
		format, ok := c.formats[pf]
		if !ok {
			continue
		}
		for _, fs := range c.cam.GetSupportedFrameSizes(pf) {
			sizes := [][2]uint32{{fs.MaxWidth, fs.MaxHeight}}
			vga := prop.PresetVGA640x480
			if fits(fs, uint32(vga.Width), uint32(vga.Height)) {
				sizes = append(sizes, [2]uint32{uint32(vga.Width), uint32(vga.Height)})
			}
			for _, size := range sizes {
				v := prop.Video{Width: int(size[0]), Height: int(size[1]), FrameFormat: format}
				add(v)
				// Anything we can decode can also be served as NV12.
				if format != frame.FormatNV12 && v.Width%2 == 0 && v.Height%2 == 0 {
					v.FrameFormat = frame.FormatNV12
					add(v)
				}
			}
		}
	}
	return properties
}
