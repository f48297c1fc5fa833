package introspect

import (
	"sync"
	"testing"
)

func TestTallyCounter(t *testing.T) {
	c := NewTallyCounter()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Inc()
			}
		}()
	}
	wg.Wait()
	if c.Value() != 1000 {
		t.Errorf("expected 1000, got %d", c.Value())
	}
}

func TestLiveSet_RegisterDeregister(t *testing.T) {
	s := NewLiveSet()
	s.Register("a", 1)
	s.Register("b", 2)
	if s.Len() != 2 {
		t.Fatalf("expected 2 live objects, got %d", s.Len())
	}
	s.Deregister("a")
	if s.Len() != 1 {
		t.Fatalf("expected 1 live object, got %d", s.Len())
	}
	snap := s.Snapshot()
	if snap["b"] != 2 {
		t.Errorf("expected snapshot to hold b=2, got %v", snap)
	}
	// Snapshot is a copy; mutating it must not affect the set.
	delete(snap, "b")
	if s.Len() != 1 {
		t.Errorf("snapshot mutation leaked into the set")
	}
}

func TestLiveSet_Rekey(t *testing.T) {
	s := NewLiveSet()
	s.Register("incomplete", "dialogue")
	s.Rekey("incomplete", "complete")
	snap := s.Snapshot()
	if _, ok := snap["incomplete"]; ok {
		t.Errorf("old key still present after rekey")
	}
	if snap["complete"] != "dialogue" {
		t.Errorf("expected object under new key, got %v", snap)
	}
	// Rekeying a missing key is a no-op.
	s.Rekey("missing", "elsewhere")
	if s.Len() != 1 {
		t.Errorf("expected rekey of missing key to be a no-op")
	}
}
