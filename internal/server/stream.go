package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// FrameHub holds the latest annotated frame as JPEG for MJPEG viewers.
// The primary loop publishes; encoding is skipped while nobody watches.
type FrameHub struct {
	mu      sync.Mutex
	latest  []byte
	viewers map[chan struct{}]struct{}
}

// NewFrameHub creates an empty hub.
func NewFrameHub() *FrameHub {
	return &FrameHub{viewers: make(map[chan struct{}]struct{})}
}

// Watching reports whether any stream client is connected.
func (h *FrameHub) Watching() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers) > 0
}

// Publish encodes frame as JPEG for connected viewers.
func (h *FrameHub) Publish(frame *gocv.Mat) error {
	if frame == nil || frame.Empty() || !h.Watching() {
		return nil
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases the native buffer.
	h.PublishJPEG(append([]byte(nil), buf.GetBytes()...))
	return nil
}

// PublishJPEG stores an already encoded frame and wakes viewers.
func (h *FrameHub) PublishJPEG(jpeg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = jpeg
	for ch := range h.viewers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Latest returns the most recent frame, or nil.
func (h *FrameHub) Latest() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

func (h *FrameHub) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	h.viewers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *FrameHub) unsubscribe(ch chan struct{}) {
	h.mu.Lock()
	delete(h.viewers, ch)
	h.mu.Unlock()
}

// StreamHandler serves the hub as multipart MJPEG.
type StreamHandler struct {
	hub *FrameHub
	// idle bounds how long a viewer waits before the last frame is resent.
	idle time.Duration
}

// NewStreamHandler creates a StreamHandler for hub.
func NewStreamHandler(hub *FrameHub) *StreamHandler {
	return &StreamHandler{hub: hub, idle: time.Second}
}

// ServeHTTP streams frames until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	wake := h.hub.subscribe()
	defer h.hub.unsubscribe(wake)

	timer := time.NewTimer(h.idle)
	defer timer.Stop()

	for {
		if jpeg := h.hub.Latest(); jpeg != nil {
			if err := writePart(w, jpeg); err != nil {
				return
			}
		}

		timer.Reset(h.idle)
		select {
		case <-r.Context().Done():
			return
		case <-wake:
		case <-timer.C:
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\r\n"); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
