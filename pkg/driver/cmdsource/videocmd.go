package cmdsource

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pion/videocapture/pkg/driver"
	"github.com/pion/videocapture/pkg/frame"
	"github.com/pion/videocapture/pkg/prop"
)

type videoCmdSource struct {
	cmdSource
}

// NewVideoCmdSource creates an adapter running command. props describe the
// frames the command writes; they must use a format with a fixed frame size.
// A zero readTimeout waits forever for the next frame.
func NewVideoCmdSource(command string, props []prop.Media, readTimeout time.Duration) (driver.Adapter, error) {
	src, err := newCmdSource(command, props, readTimeout)
	if err != nil {
		return nil, err
	}
	for _, p := range props {
		if _, ok := frame.Size(p.FrameFormat, p.Width, p.Height); !ok {
			return nil, fmt.Errorf("%w: %s", errUnsupportedFormat, p.FrameFormat)
		}
	}
	return &videoCmdSource{cmdSource: src}, nil
}

// AddVideoCmdSource registers a command source in the default manager.
func AddVideoCmdSource(label string, command string, props []prop.Media, readTimeout time.Duration) error {
	a, err := NewVideoCmdSource(command, props, readTimeout)
	if err != nil {
		return err
	}
	return driver.GetManager().Register(a, driver.Info{
		Label:      label,
		DeviceType: driver.CmdSource,
		Priority:   driver.PriorityNormal,
	})
}

// Properties returns the declared properties, plus an NV12 version of each
// of them the source can convert.
func (c *videoCmdSource) Properties() []prop.Media {
	props := append([]prop.Media(nil), c.props...)
	for _, p := range c.props {
		if p.FrameFormat == frame.FormatNV12 || p.Width%2 != 0 || p.Height%2 != 0 {
			continue
		}
		if c.hasProperty(p.Width, p.Height, frame.FormatNV12) {
			continue
		}
		p.FrameFormat = frame.FormatNV12
		props = append(props, p)
	}
	return props
}

func (c *videoCmdSource) hasProperty(width, height int, f frame.Format) bool {
	_, ok := c.declared(width, height, f)
	return ok
}

func (c *videoCmdSource) declared(width, height int, f frame.Format) (prop.Media, bool) {
	for _, p := range c.props {
		if p.Width == width && p.Height == height && (f == "" || p.FrameFormat == f) {
			return p, true
		}
	}
	return prop.Media{}, false
}

// native picks the declared property the command has to produce for p.
func (c *videoCmdSource) native(p prop.Media) (prop.Media, bool) {
	if src, ok := c.declared(p.Width, p.Height, p.FrameFormat); ok {
		return src, true
	}
	if p.FrameFormat == frame.FormatNV12 {
		return c.declared(p.Width, p.Height, "")
	}
	return prop.Media{}, false
}

func (c *videoCmdSource) VideoRecord(p prop.Media) (driver.ReadCloser, error) {
	src, ok := c.native(p)
	if !ok {
		return nil, fmt.Errorf("cmdsource: %s is not offered", p)
	}
	srcSize, _ := frame.Size(src.FrameFormat, src.Width, src.Height)

	var decoder frame.Decoder
	if src.FrameFormat != p.FrameFormat {
		var err error
		if decoder, err = frame.NewDecoder(src.FrameFormat); err != nil {
			return nil, err
		}
	}

	cmd, stdout, err := c.start(src)
	if err != nil {
		return nil, err
	}

	pool := frame.NewBufferPool(p.FrameFormat, p.Width, p.Height)
	frames := make(chan *frame.Buffer)
	quit := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		defer close(frames)

		raw := make([]byte, srcSize)
		var seq uint64
	loop:
		for {
			if _, err := io.ReadFull(stdout, raw); err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, os.ErrClosed) {
					logger.Warnf("%s: %v", c.cmdArgs[0], err)
				}
				break
			}

			buf := pool.Get()
			if err := fill(buf, raw, decoder, p); err != nil {
				pool.Put(buf)
				logger.Tracef("dropping frame: %v", err)
				continue
			}
			seq++
			buf.Stamp(seq, time.Now())

			select {
			case frames <- buf:
			case <-quit:
				pool.Put(buf)
				break loop
			}
		}
		// Wait closes stdout, so it has to come after the last read.
		done <- cmd.Wait()
	}()

	read := func() (frame.PixelBuffer, func(), error) {
		var timeout <-chan time.Time
		if c.readTimeout > 0 {
			timer := time.NewTimer(c.readTimeout)
			defer timer.Stop()
			timeout = timer.C
		}

		select {
		case buf, ok := <-frames:
			if !ok {
				return nil, nil, io.EOF
			}
			return buf, func() { pool.Put(buf) }, nil
		case <-quit:
			return nil, nil, io.EOF
		case <-timeout:
			return nil, nil, errReadTimeout
		}
	}

	var once sync.Once
	var closeErr error
	closeFn := func() error {
		once.Do(func() {
			close(quit)
			closeErr = stop(cmd, done)
		})
		return closeErr
	}

	return driver.NewReadCloser(read, closeFn), nil
}

func fill(buf *frame.Buffer, raw []byte, decoder frame.Decoder, p prop.Media) error {
	if decoder == nil {
		copy(buf.Bytes(), raw)
		return nil
	}

	img, release, err := decoder.Decode(raw, p.Width, p.Height)
	if err != nil {
		return err
	}
	defer release()
	return frame.ToNV12(buf.Bytes(), img)
}
