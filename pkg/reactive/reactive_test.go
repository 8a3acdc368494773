package reactive

import (
	"sync"
	"testing"
)

func TestSignalSetNotifiesOnlyOnChange(t *testing.T) {
	s := NewSignal(1)
	runs := 0
	e := NewEffect(func() Cleanup {
		s.Get()
		runs++
		return nil
	})
	defer e.Dispose()

	if runs != 1 {
		t.Fatalf("effect should run once on creation, ran %d", runs)
	}

	s.Set(1)
	if runs != 1 {
		t.Errorf("setting the same value re-ran the effect (%d runs)", runs)
	}

	s.Set(2)
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestSignalPeekDoesNotTrack(t *testing.T) {
	s := NewSignal("a")
	runs := 0
	e := NewEffect(func() Cleanup {
		s.Peek()
		runs++
		return nil
	})
	defer e.Dispose()

	s.Set("b")
	if runs != 1 {
		t.Errorf("Peek subscribed the effect: runs = %d", runs)
	}
}

func TestSignalUpdate(t *testing.T) {
	s := NewSignal(10)
	got := s.Update(func(v int) int { return v + 5 })
	if got != 15 || s.Peek() != 15 {
		t.Errorf("Update = %d, Peek = %d, want 15", got, s.Peek())
	}
}

func TestSignalWithEquals(t *testing.T) {
	s := NewSignal(map[string]string{"a": "1"}).WithEquals(NeverEqual[map[string]string])
	runs := 0
	e := NewEffect(func() Cleanup {
		s.Get()
		runs++
		return nil
	})
	defer e.Dispose()

	s.Set(map[string]string{"a": "1"})
	if runs != 2 {
		t.Errorf("NeverEqual should force notification, runs = %d", runs)
	}
}

func TestMemoNotifiesOnlyWhenValueChanges(t *testing.T) {
	count := NewSignal(0)
	positive := NewMemo(func() bool { return count.Get() > 0 })

	var seen []bool
	stop := Watch[bool](positive, func(v bool) { seen = append(seen, v) })
	defer stop()

	for i := 1; i <= 5; i++ {
		count.Set(i)
	}
	for i := 4; i >= 0; i-- {
		count.Set(i)
	}

	if len(seen) != 2 || seen[0] != true || seen[1] != false {
		t.Errorf("memo transitions = %v, want [true false]", seen)
	}
}

func TestMemoLazyWithoutSubscribers(t *testing.T) {
	s := NewSignal(2)
	computes := 0
	m := NewMemo(func() int {
		computes++
		return s.Get() * 2
	})

	if m.Peek() != 4 {
		t.Fatalf("Peek = %d, want 4", m.Peek())
	}
	s.Set(3)
	s.Set(4)
	if computes != 1 {
		t.Errorf("unobserved memo recomputed eagerly: %d computes", computes)
	}
	if m.Get() != 8 {
		t.Errorf("Get = %d, want 8", m.Get())
	}
	if computes != 2 {
		t.Errorf("computes = %d, want 2", computes)
	}
}

func TestBatchDeliversOnce(t *testing.T) {
	a := NewSignal(0)
	b := NewSignal(0)
	var observed [][2]int
	e := NewEffect(func() Cleanup {
		observed = append(observed, [2]int{a.Get(), b.Get()})
		return nil
	})
	defer e.Dispose()

	Batch(func() {
		a.Set(1)
		Batch(func() {
			b.Set(2)
		})
		if len(observed) != 1 {
			t.Errorf("nested batch flushed early: %v", observed)
		}
	})

	if len(observed) != 2 {
		t.Fatalf("observed = %v, want 2 runs", observed)
	}
	if observed[1] != [2]int{1, 2} {
		t.Errorf("effect saw partial update %v", observed[1])
	}
}

func TestEffectCleanupAndDispose(t *testing.T) {
	s := NewSignal(0)
	cleanups := 0
	e := NewEffect(func() Cleanup {
		s.Get()
		return func() { cleanups++ }
	})

	s.Set(1)
	if cleanups != 1 {
		t.Errorf("cleanup before re-run: got %d, want 1", cleanups)
	}

	e.Dispose()
	if cleanups != 2 {
		t.Errorf("cleanup on dispose: got %d, want 2", cleanups)
	}

	s.Set(2)
	if cleanups != 2 {
		t.Error("disposed effect re-ran")
	}
}

func TestEffectSelfWriteDoesNotDeadlock(t *testing.T) {
	s := NewSignal(0)
	runs := 0
	e := NewEffect(func() Cleanup {
		runs++
		if v := s.Get(); v < 3 {
			s.Set(v + 1)
		}
		return nil
	})
	defer e.Dispose()

	if s.Peek() != 3 {
		t.Errorf("s = %d, want 3", s.Peek())
	}
	if runs != 4 {
		t.Errorf("runs = %d, want 4", runs)
	}
}

func TestUntracked(t *testing.T) {
	s := NewSignal(0)
	runs := 0
	e := NewEffect(func() Cleanup {
		runs++
		Untracked(func() { s.Get() })
		return nil
	})
	defer e.Dispose()

	s.Set(1)
	if runs != 1 {
		t.Errorf("Untracked read subscribed the effect: runs = %d", runs)
	}
}

func TestConcurrentUpdatesSettle(t *testing.T) {
	count := NewSignal(0)
	busy := NewMemo(func() bool { return count.Get() > 0 })

	var mu sync.Mutex
	last := false
	stop := Watch[bool](busy, func(v bool) {
		mu.Lock()
		last = v
		mu.Unlock()
	})
	defer stop()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count.Update(func(v int) int { return v + 1 })
			count.Update(func(v int) int { return v - 1 })
		}()
	}
	wg.Wait()

	if busy.Peek() {
		t.Error("memo should settle to false")
	}
	mu.Lock()
	defer mu.Unlock()
	if last {
		t.Error("last delivered value should be false")
	}
}

func TestEffectDisposeDuringConcurrentRun(t *testing.T) {
	for i := 0; i < 200; i++ {
		s := NewSignal(0)
		var mu sync.Mutex
		runs, cleanups := 0, 0
		e := NewEffect(func() Cleanup {
			s.Get()
			mu.Lock()
			runs++
			mu.Unlock()
			return func() {
				mu.Lock()
				cleanups++
				mu.Unlock()
			}
		})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Set(1)
		}()
		go func() {
			defer wg.Done()
			e.Dispose()
		}()
		wg.Wait()

		if s.base.hasSubscribers() {
			t.Fatalf("iteration %d: disposed effect still subscribed", i)
		}
		s.Set(2)
		mu.Lock()
		if cleanups != runs {
			t.Fatalf("iteration %d: %d runs but %d cleanups", i, runs, cleanups)
		}
		mu.Unlock()
	}
}
