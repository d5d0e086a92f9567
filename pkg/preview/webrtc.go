package preview

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pion/webrtc/v4"
)

// Frames are cut in chunks to stay under the SCTP message size every browser
// accepts. The first byte of a chunk is 1 on the last chunk of a frame.
const dataChannelChunk = 16 * 1024

var errHubClosed = errors.New("preview: hub closed")

// ServeWebRTC answers a JSON encoded offer posted by a viewer. Frames are sent
// on every data channel the viewer opens.
func (h *Hub) ServeWebRTC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST an offer", http.StatusMethodNotAllowed)
		return
	}

	var offer webrtc.SessionDescription
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if offer.Type != webrtc.SDPTypeOffer {
		http.Error(w, "expected an offer, got "+offer.Type.String(), http.StatusBadRequest)
		return
	}

	answer, err := h.answer(r, offer)
	if err != nil {
		h.log.Warnf("webrtc negotiation failed: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(answer)
}

func (h *Hub) answer(r *http.Request, offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	pc, err := h.opts.API.NewPeerConnection(h.opts.WebRTC)
	if err != nil {
		return nil, err
	}
	if !h.addPeer(pc) {
		pc.Close()
		return nil, errHubClosed
	}

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		h.log.Debugf("peer connection %s", state)
		switch state {
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			h.removePeer(pc)
			pc.Close()
		}
	})
	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		dc.OnOpen(func() {
			go h.sendFrames(dc)
		})
	})

	fail := func(err error) (*webrtc.SessionDescription, error) {
		h.removePeer(pc)
		pc.Close()
		return nil, err
	}

	if err := pc.SetRemoteDescription(offer); err != nil {
		return fail(err)
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return fail(err)
	}
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		return fail(err)
	}

	select {
	case <-gatherComplete:
	case <-r.Context().Done():
		return fail(r.Context().Err())
	}
	return pc.LocalDescription(), nil
}

func (h *Hub) addPeer(pc *webrtc.PeerConnection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.peers[pc] = struct{}{}
	return true
}

func (h *Hub) removePeer(pc *webrtc.PeerConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.peers, pc)
}

// Peers returns the number of live peer connections.
func (h *Hub) Peers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func (h *Hub) sendFrames(dc *webrtc.DataChannel) {
	frames, cancel := h.Subscribe()
	defer cancel()
	dc.OnClose(cancel)

	for data := range frames {
		for _, chunk := range chunks(data, dataChannelChunk) {
			if err := dc.Send(chunk); err != nil {
				h.log.Debugf("data channel %s gone: %v", dc.Label(), err)
				return
			}
		}
	}
}

func chunks(data []byte, size int) [][]byte {
	var out [][]byte
	for len(data) > 0 {
		n := len(data)
		if n > size {
			n = size
		}
		last := byte(0)
		if n == len(data) {
			last = 1
		}
		chunk := make([]byte, 0, n+1)
		chunk = append(chunk, last)
		chunk = append(chunk, data[:n]...)
		out = append(out, chunk)
		data = data[n:]
	}
	return out
}
