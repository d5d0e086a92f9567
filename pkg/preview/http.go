package preview

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 5 * time.Second

	indexPage = `<!DOCTYPE html>
<html>
<head><title>preview</title></head>
<body><img src="/stream.mjpeg" alt="preview"></body>
</html>
`
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024 * 64,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler serves a viewer page on "/" along with every stream endpoint.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, indexPage)
	})
	mux.HandleFunc("/stream.mjpeg", h.ServeMJPEG)
	mux.HandleFunc("/snapshot.jpg", h.ServeSnapshot)
	mux.HandleFunc("/ws", h.ServeWebSocket)
	mux.HandleFunc("/webrtc", h.ServeWebRTC)
	return mux
}

// ServeMJPEG streams frames as multipart/x-mixed-replace until the client
// goes away or the hub is closed.
func (h *Hub) ServeMJPEG(w http.ResponseWriter, r *http.Request) {
	frames, cancel := h.Subscribe()
	defer cancel()

	mimeWriter := multipart.NewWriter(w)
	w.Header().Set("Content-Type", fmt.Sprintf("multipart/x-mixed-replace;boundary=%s", mimeWriter.Boundary()))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	partHeader := make(textproto.MIMEHeader)
	partHeader.Add("Content-Type", "image/jpeg")

	for {
		select {
		case <-r.Context().Done():
			return
		case data, ok := <-frames:
			if !ok {
				return
			}

			partWriter, err := mimeWriter.CreatePart(partHeader)
			if err != nil {
				return
			}
			if _, err := partWriter.Write(data); err != nil {
				h.log.Debugf("mjpeg client %s gone: %v", r.RemoteAddr, err)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// ServeSnapshot responds with the last frame.
func (h *Hub) ServeSnapshot(w http.ResponseWriter, r *http.Request) {
	data := h.Latest()
	if data == nil {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

// ServeWebSocket sends every frame as a binary message.
func (h *Hub) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debugf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	frames, cancel := h.Subscribe()
	defer cancel()

	// The client isn't expected to talk. Reading is how a close is noticed.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for data := range frames {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			h.log.Debugf("websocket client %s gone: %v", r.RemoteAddr, err)
			return
		}
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
