package router

import (
	"sync"

	"github.com/pinterest/teletraan/pkg/routepath"
)

// History is the browser history boundary.
type History interface {
	// Location returns the current browser location.
	Location() routepath.Location

	// Push adds a history entry.
	Push(url string)

	// Replace overwrites the current history entry.
	Replace(url string)

	// Assign performs a full page navigation. It is the fallback when
	// Supported reports false.
	Assign(url string)

	// Supported reports whether Push and Replace are available.
	Supported() bool

	// Listen registers fn for popstate events (back/forward). Push and
	// Replace never fire it.
	Listen(fn func(routepath.Location)) (stop func())
}

// MemoryHistory is an in-process History with a back/forward stack.
type MemoryHistory struct {
	mu        sync.Mutex
	entries   []string
	index     int
	assigned  []string
	listeners map[int]func(routepath.Location)
	nextID    int
	noSupport bool
}

// NewMemoryHistory creates a history whose only entry is initial.
func NewMemoryHistory(initial string) *MemoryHistory {
	if initial == "" {
		initial = "/"
	}
	return &MemoryHistory{
		entries:   []string{initial},
		listeners: make(map[int]func(routepath.Location)),
	}
}

// WithoutSupport makes the history report no push/replace support, like
// a browser without the HTML5 history API.
func (h *MemoryHistory) WithoutSupport() *MemoryHistory {
	h.mu.Lock()
	h.noSupport = true
	h.mu.Unlock()
	return h
}

func (h *MemoryHistory) Location() routepath.Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	return routepath.SplitURL(h.entries[h.index])
}

func (h *MemoryHistory) Push(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], url)
	h.index++
}

func (h *MemoryHistory) Replace(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.index] = url
}

// Assign records the navigation and makes url the current entry.
func (h *MemoryHistory) Assign(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.assigned = append(h.assigned, url)
	h.entries = append(h.entries[:h.index+1], url)
	h.index++
}

func (h *MemoryHistory) Supported() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.noSupport
}

func (h *MemoryHistory) Listen(fn func(routepath.Location)) (stop func()) {
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

// Back moves one entry back and fires popstate. It reports false at the
// first entry.
func (h *MemoryHistory) Back() bool {
	return h.Go(-1)
}

// Forward moves one entry forward and fires popstate.
func (h *MemoryHistory) Forward() bool {
	return h.Go(1)
}

// Go moves delta entries and fires popstate.
func (h *MemoryHistory) Go(delta int) bool {
	h.mu.Lock()
	target := h.index + delta
	if target < 0 || target >= len(h.entries) || delta == 0 {
		h.mu.Unlock()
		return false
	}
	h.index = target
	loc := routepath.SplitURL(h.entries[target])
	fns := make([]func(routepath.Location), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(loc)
	}
	return true
}

// Entries returns a copy of the history stack.
func (h *MemoryHistory) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

// Assigned returns the URLs passed to Assign.
func (h *MemoryHistory) Assigned() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.assigned...)
}
