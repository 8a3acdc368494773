package router

import (
	"reflect"
	"testing"

	"github.com/pinterest/teletraan/pkg/routepath"
)

func TestMemoryHistory(t *testing.T) {
	h := NewMemoryHistory("")
	if got := h.Location().String(); got != "/" {
		t.Fatalf("initial location = %q, want /", got)
	}

	var pops []string
	stop := h.Listen(func(loc routepath.Location) { pops = append(pops, loc.String()) })

	h.Push("/a")
	h.Push("/b?x=1")
	h.Replace("/c")
	if got := h.Entries(); !reflect.DeepEqual(got, []string{"/", "/a", "/c"}) {
		t.Errorf("entries = %v", got)
	}
	if len(pops) != 0 {
		t.Errorf("push/replace fired popstate: %v", pops)
	}

	if !h.Back() || h.Location().Path != "/a" {
		t.Errorf("Back location = %q", h.Location().String())
	}
	h.Push("/d")
	if got := h.Entries(); !reflect.DeepEqual(got, []string{"/", "/a", "/d"}) {
		t.Errorf("push after back did not truncate forward entries: %v", got)
	}
	if h.Forward() {
		t.Error("Forward at the end reported true")
	}

	stop()
	h.Back()
	if want := []string{"/a"}; !reflect.DeepEqual(pops, want) {
		t.Errorf("popstate = %v, want %v", pops, want)
	}
	if !h.Supported() {
		t.Error("Supported = false")
	}
}
