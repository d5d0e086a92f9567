// Package videotest provides dummy video driver for testing.
package videotest

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/pion/videocapture/pkg/driver"
	"github.com/pion/videocapture/pkg/frame"
	"github.com/pion/videocapture/pkg/prop"
)

func init() {
	driver.GetManager().Register(
		New(Options{FrameRate: 30}),
		driver.Info{Label: "VideoTest", DeviceType: driver.Camera, Priority: driver.PriorityLow},
	)
}

// Options configures a Device.
type Options struct {
	// Width and Height default to 640x480.
	Width, Height int
	// Formats lists the pixel formats the device offers. Defaults to NV12.
	// NV12 and I420 are supported.
	Formats []frame.Format
	// FrameRate makes the device free running. Zero means frames are only
	// produced by Emit.
	FrameRate float32
	// OpenErr is returned by Open when set.
	OpenErr error
	// Truncate produces frames that are too short to be decoded.
	Truncate bool
}

// Device is a color bar generator. The luma of the top-left 2x2 block
// carries the low byte of the frame sequence number.
type Device struct {
	opts Options

	mu      sync.Mutex
	trigger chan struct{}
	closed  <-chan struct{}
	cancel  func()
	tick    *time.Ticker
	opened  int
}

// New creates a Device. Register it with a driver.Manager to make it
// discoverable.
func New(opts Options) *Device {
	if opts.Width == 0 || opts.Height == 0 {
		opts.Width, opts.Height = 640, 480
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []frame.Format{frame.FormatNV12}
	}
	return &Device{opts: opts}
}

func (d *Device) Open() error {
	if d.opts.OpenErr != nil {
		return d.opts.OpenErr
	}
	d.mu.Lock()
	d.opened++
	d.mu.Unlock()
	return nil
}

func (d *Device) Close() error {
	d.stop()
	return nil
}

// Opened reports how many times the device has been opened.
func (d *Device) Opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened
}

// Emit produces one frame. It blocks until the frame has been read by the
// stream and reports false if the device isn't recording.
func (d *Device) Emit() bool {
	d.mu.Lock()
	trigger, closed := d.trigger, d.closed
	d.mu.Unlock()

	if trigger == nil {
		return false
	}

	select {
	case trigger <- struct{}{}:
		return true
	case <-closed:
		return false
	}
}

// Recording reports whether a recording is in progress.
func (d *Device) Recording() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancel != nil
}

func (d *Device) stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.tick != nil {
		d.tick.Stop()
		d.tick = nil
	}
	d.trigger = nil
	return nil
}

func (d *Device) supports(f frame.Format) bool {
	for _, format := range d.opts.Formats {
		if format == f {
			return true
		}
	}
	return false
}

func (d *Device) VideoRecord(p prop.Media) (driver.ReadCloser, error) {
	if p.Width != d.opts.Width || p.Height != d.opts.Height || !d.supports(p.FrameFormat) {
		return nil, fmt.Errorf("videotest: %s is not offered", p)
	}

	base := colorBars(p.Width, p.Height)
	size, _ := frame.Size(p.FrameFormat, p.Width, p.Height)
	pool := frame.NewBufferPool(p.FrameFormat, p.Width, p.Height)

	ctx, cancel := context.WithCancel(context.Background())
	trigger := make(chan struct{})

	d.mu.Lock()
	d.cancel = cancel
	d.closed = ctx.Done()
	d.trigger = trigger
	var tick <-chan time.Time
	if d.opts.FrameRate > 0 {
		d.tick = time.NewTicker(time.Duration(float32(time.Second) / d.opts.FrameRate))
		tick = d.tick.C
	}
	d.mu.Unlock()

	var seq uint64
	read := func() (frame.PixelBuffer, func(), error) {
		select {
		case <-ctx.Done():
			return nil, nil, io.EOF
		case <-trigger:
		case <-tick:
		}

		seq++
		buf := pool.Get()
		buf.SetLen(size)
		if err := render(buf, base, seq, p.FrameFormat); err != nil {
			pool.Put(buf)
			return nil, nil, err
		}
		if d.opts.Truncate {
			buf.SetLen(len(buf.Bytes()) / 2)
		}
		buf.Stamp(seq, time.Now())
		return buf, func() { pool.Put(buf) }, nil
	}

	return driver.NewReadCloser(read, d.stop), nil
}

func (d *Device) Properties() []prop.Media {
	props := make([]prop.Media, 0, len(d.opts.Formats))
	for _, f := range d.opts.Formats {
		props = append(props, prop.Media{
			Video: prop.Video{
				Width:       d.opts.Width,
				Height:      d.opts.Height,
				FrameFormat: f,
				FrameRate:   d.opts.FrameRate,
			},
		})
	}
	return props
}

func colorBars(width, height int) *image.YCbCr {
	colors := [][3]byte{
		{235, 128, 128},
		{210, 16, 146},
		{170, 166, 16},
		{145, 54, 34},
		{107, 202, 222},
		{82, 90, 240},
		{41, 240, 110},
	}

	img := image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio420)
	hColorBarEnd := height * 3 / 4
	wGradationEnd := width * 5 / 7
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			yi := img.YOffset(x, y)
			ci := img.COffset(x, y)
			switch {
			case y < hColorBarEnd:
				c := colors[x*len(colors)/width]
				img.Y[yi] = uint8(uint16(c[0]) * 75 / 100)
				img.Cb[ci] = c[1]
				img.Cr[ci] = c[2]
			case x < wGradationEnd:
				// Gray gradation
				img.Y[yi] = uint8(x * 255 / wGradationEnd)
				img.Cb[ci] = 128
				img.Cr[ci] = 128
			default:
				img.Cb[ci] = 128
				img.Cr[ci] = 128
			}
		}
	}
	return img
}

func render(buf *frame.Buffer, base *image.YCbCr, seq uint64, f frame.Format) error {
	width := base.Rect.Dx()
	data := buf.Bytes()

	switch f {
	case frame.FormatNV12:
		if err := frame.ToNV12(data, base); err != nil {
			return err
		}
		data[0], data[1] = byte(seq), byte(seq)
		data[width], data[width+1] = byte(seq), byte(seq)
		// Neutral chroma for the marker block
		data[len(base.Y)], data[len(base.Y)+1] = 128, 128
	case frame.FormatI420:
		n := copy(data, base.Y)
		n += copy(data[n:], base.Cb)
		copy(data[n:], base.Cr)
		data[0], data[1] = byte(seq), byte(seq)
		data[width], data[width+1] = byte(seq), byte(seq)
		data[len(base.Y)] = 128
		data[len(base.Y)+len(base.Cb)] = 128
	default:
		return fmt.Errorf("videotest: %s is not supported", f)
	}
	return nil
}

// Sequence extracts the frame counter from an image produced by this device.
func Sequence(img image.Image) byte {
	r, _, _, _ := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()
	return byte(r >> 8)
}

var _ driver.VideoRecorder = &Device{}
