package preview

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pion/videocapture/pkg/capture"
	"github.com/pion/videocapture/pkg/driver"
	"github.com/pion/videocapture/pkg/driver/videotest"
)

func testImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 80, A: 255})
		}
	}
	return img
}

func TestPublishKeepsLatest(t *testing.T) {
	h := NewHub()
	defer h.Close()

	frames, cancel := h.Subscribe()
	defer cancel()

	h.Publish([]byte("a"))
	h.Publish([]byte("b"))

	assert.Equal(t, []byte("b"), <-frames, "a slow subscriber only gets the newest frame")
	assert.Equal(t, []byte("b"), h.Latest())
	select {
	case data := <-frames:
		t.Errorf("unexpected frame %q", data)
	default:
	}
}

func TestOnFrameEncodesJPEG(t *testing.T) {
	h := NewHub(WithMaxWidth(32), WithQuality(90))
	defer h.Close()

	h.OnFrame(nil, testImage(64, 48))

	data := h.Latest()
	require.NotNil(t, data)
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 24), img.Bounds())
}

func TestOnFrameSkipsEmpty(t *testing.T) {
	h := NewHub()
	defer h.Close()

	h.OnFrame(nil, nil)
	assert.Nil(t, h.Latest())
}

func TestUnsubscribe(t *testing.T) {
	h := NewHub()
	defer h.Close()

	frames, cancel := h.Subscribe()
	assert.Equal(t, 1, h.Subscribers())
	cancel()
	cancel()
	assert.Equal(t, 0, h.Subscribers())

	_, ok := <-frames
	assert.False(t, ok)
}

func TestCloseEndsSubscriptions(t *testing.T) {
	h := NewHub()
	frames, cancel := h.Subscribe()
	defer cancel()

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	_, ok := <-frames
	assert.False(t, ok)

	late, _ := h.Subscribe()
	_, ok = <-late
	assert.False(t, ok)

	h.Publish([]byte("x"))
	assert.Nil(t, h.Latest())
}

func TestHubAsSessionConsumer(t *testing.T) {
	m := driver.NewManager()
	dev := videotest.New(videotest.Options{})
	require.NoError(t, m.Register(dev, driver.Info{Label: "test", DeviceType: driver.Camera}))

	s := capture.NewSession(capture.WithManager(m))
	defer s.Close()
	require.NoError(t, s.Configure(context.Background()))

	h := NewHub()
	defer h.Close()
	reg := s.SetConsumer(h)
	require.NoError(t, s.Start(context.Background()))

	require.True(t, dev.Emit())
	require.Eventually(t, func() bool {
		return h.Latest() != nil
	}, 2*time.Second, time.Millisecond)

	img, err := jpeg.Decode(bytes.NewReader(h.Latest()))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 640, 480), img.Bounds())
	runtime.KeepAlive(reg)
}
