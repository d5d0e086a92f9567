// Package preview shows the frames of a capture session to remote viewers.
//
// A Hub is a capture.Consumer: it encodes every frame it receives as JPEG and
// fans the result out to its subscribers. Viewers connect over HTTP
// (multipart MJPEG or single snapshots), WebSocket or a WebRTC data channel.
// Slow viewers skip frames, they never hold the session back.
package preview

import (
	"bytes"
	"image"
	"image/jpeg"
	"sync"

	pionlogging "github.com/pion/logging"
	"github.com/pion/webrtc/v4"
	"golang.org/x/image/draw"

	"github.com/pion/videocapture/internal/logging"
	"github.com/pion/videocapture/pkg/capture"
)

// Options stores parameters used by Hub.
type Options struct {
	// Quality is the JPEG quality, 1 to 100.
	Quality int
	// MaxWidth downscales wider frames, keeping the aspect ratio. Zero keeps
	// the frame size.
	MaxWidth int
	// WebRTC is used for the peer connections of ServeWebRTC.
	WebRTC webrtc.Configuration
	// API creates the peer connections. Defaults to the pion/webrtc defaults.
	API *webrtc.API
}

// Option is a type of Hub functional option.
type Option func(*Options)

func WithQuality(q int) Option {
	return func(o *Options) {
		o.Quality = q
	}
}

func WithMaxWidth(w int) Option {
	return func(o *Options) {
		o.MaxWidth = w
	}
}

func WithWebRTCConfiguration(c webrtc.Configuration) Option {
	return func(o *Options) {
		o.WebRTC = c
	}
}

// WithAPI makes the hub create its peer connections from api, for example to
// apply a webrtc.SettingEngine.
func WithAPI(api *webrtc.API) Option {
	return func(o *Options) {
		o.API = api
	}
}

// Hub encodes frames and broadcasts them.
type Hub struct {
	opts Options
	log  pionlogging.LeveledLogger

	mu          sync.Mutex
	subscribers map[chan []byte]struct{}
	latest      []byte
	closed      bool
	peers       map[*webrtc.PeerConnection]struct{}
}

var _ capture.Consumer = &Hub{}

// NewHub creates a Hub.
func NewHub(opts ...Option) *Hub {
	o := Options{Quality: jpeg.DefaultQuality}
	for _, opt := range opts {
		opt(&o)
	}
	if o.API == nil {
		o.API = webrtc.NewAPI()
	}

	return &Hub{
		opts:        o,
		log:         logging.NewLogger("preview"),
		subscribers: make(map[chan []byte]struct{}),
		peers:       make(map[*webrtc.PeerConnection]struct{}),
	}
}

// OnFrame encodes img and publishes it. Frames that failed to convert are
// skipped.
func (h *Hub) OnFrame(_ *capture.Session, img image.Image) {
	if img == nil {
		h.log.Trace("skipping empty frame")
		return
	}

	data, err := h.encode(img)
	if err != nil {
		h.log.Warnf("failed to encode frame: %v", err)
		return
	}
	h.Publish(data)
}

func (h *Hub) encode(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	if h.opts.MaxWidth > 0 && bounds.Dx() > h.opts.MaxWidth {
		height := bounds.Dy() * h.opts.MaxWidth / bounds.Dx()
		if height < 1 {
			height = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, h.opts.MaxWidth, height))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: h.opts.Quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Publish hands an encoded JPEG to every subscriber. A subscriber that hasn't
// taken the previous one gets the new one instead.
func (h *Hub) Publish(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.latest = data
	for ch := range h.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- data
	}
}

// Subscribe returns a channel of encoded frames and a function to stop the
// subscription. The channel is closed when either is done.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 1)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subscribers[ch]; ok {
				delete(h.subscribers, ch)
				close(ch)
			}
		})
	}
}

// Latest returns the last published frame, or nil.
func (h *Hub) Latest() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close ends every subscription and peer connection.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	for ch := range h.subscribers {
		delete(h.subscribers, ch)
		close(ch)
	}
	peers := h.peers
	h.peers = nil
	h.mu.Unlock()

	var err error
	for pc := range peers {
		if cerr := pc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
