package server

import (
	"sync"

	"github.com/pinterest/teletraan/pkg/routepath"
)

// remoteHistory is a router.History backed by the browser at the other
// end of a live session. Writes are forwarded as frames; popstate frames
// from the browser fire the listeners.
type remoteHistory struct {
	send      func(serverFrame)
	supported bool

	mu        sync.Mutex
	location  routepath.Location
	listeners map[int]func(routepath.Location)
	nextID    int
}

func newRemoteHistory(initial string, supported bool, send func(serverFrame)) *remoteHistory {
	if initial == "" {
		initial = "/"
	}
	return &remoteHistory{
		send:      send,
		supported: supported,
		location:  routepath.SplitURL(initial),
		listeners: make(map[int]func(routepath.Location)),
	}
}

func (h *remoteHistory) Location() routepath.Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.location
}

func (h *remoteHistory) set(url string) {
	h.mu.Lock()
	h.location = routepath.SplitURL(url)
	h.mu.Unlock()
}

func (h *remoteHistory) Push(url string) {
	h.set(url)
	h.send(serverFrame{Type: framePush, URL: url})
}

func (h *remoteHistory) Replace(url string) {
	h.set(url)
	h.send(serverFrame{Type: frameReplace, URL: url})
}

func (h *remoteHistory) Assign(url string) {
	h.set(url)
	h.send(serverFrame{Type: frameAssign, URL: url})
}

func (h *remoteHistory) Supported() bool {
	return h.supported
}

func (h *remoteHistory) Listen(fn func(routepath.Location)) (stop func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

// popstate records a back/forward move reported by the browser and
// notifies listeners.
func (h *remoteHistory) popstate(url string) {
	h.mu.Lock()
	h.location = routepath.SplitURL(url)
	loc := h.location
	fns := make([]func(routepath.Location), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(loc)
	}
}
