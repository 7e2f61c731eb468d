package memory

import (
	"testing"
	"time"
)

func TestWorkingMemorySetGet(t *testing.T) {
	w := NewWorkingMemory()

	w.Set("greeting", "hello", time.Minute)

	got, ok := w.Get("greeting")
	if !ok {
		t.Fatal("expected key to be present")
	}
	if got != "hello" {
		t.Errorf("Get = %v, want hello", got)
	}
}

func TestWorkingMemoryOverwrite(t *testing.T) {
	w := NewWorkingMemory()

	w.Set("k", 1, time.Minute)
	w.Set("k", 2, time.Minute)

	got, ok := w.Get("k")
	if !ok || got != 2 {
		t.Errorf("Get = %v, %v; want 2, true", got, ok)
	}
	if w.Len() != 1 {
		t.Errorf("Len = %d, want 1", w.Len())
	}
}

func TestWorkingMemoryZeroTTL(t *testing.T) {
	w := NewWorkingMemory()

	w.Set("ephemeral", "x", 0)

	if _, ok := w.Get("ephemeral"); ok {
		t.Error("zero-ttl entry must read as absent")
	}
	if w.Len() != 0 {
		t.Errorf("expired entry not removed on Get, Len = %d", w.Len())
	}
}

func TestWorkingMemoryExpiry(t *testing.T) {
	w := NewWorkingMemory()
	base := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	w.SetClock(func() time.Time { return base })

	w.Set("a", "one", 5*time.Minute)
	w.Set("b", "two", time.Hour)

	w.SetClock(func() time.Time { return base.Add(10 * time.Minute) })

	if _, ok := w.Get("a"); ok {
		t.Error("key a should have expired")
	}
	if _, ok := w.Get("b"); !ok {
		t.Error("key b should still be live")
	}
	if w.Len() != 1 {
		t.Errorf("Len = %d, want 1 after lazy removal", w.Len())
	}
}

func TestWorkingMemorySweepExpired(t *testing.T) {
	w := NewWorkingMemory()
	base := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	w.SetClock(func() time.Time { return base })

	w.Set("a", 1, time.Minute)
	w.Set("b", 2, time.Minute)
	w.Set("c", 3, time.Hour)

	w.SetClock(func() time.Time { return base.Add(2 * time.Minute) })

	if n := w.SweepExpired(); n != 2 {
		t.Errorf("SweepExpired = %d, want 2", n)
	}
	if w.Len() != 1 {
		t.Errorf("Len = %d, want 1", w.Len())
	}
	if _, ok := w.Get("c"); !ok {
		t.Error("unexpired key c was swept")
	}
}
