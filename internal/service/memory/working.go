package memory

import (
	"sync"
	"time"
)

type workingEntry struct {
	value     any
	expiresAt time.Time
}

// WorkingMemory is the process-local, non-durable key/value cache for
// short-lived cross-call hints. Entries carry an absolute expiry and are
// reclaimed lazily: an expired entry is deleted on the next Get for its key,
// or by SweepExpired. There is no background sweeper, so a long-running
// process must schedule SweepExpired or stale unreferenced keys accumulate.
// Everything here is lost on restart.
type WorkingMemory struct {
	mu      sync.Mutex
	entries map[string]workingEntry

	// now is swappable for expiry tests
	now func() time.Time
}

func NewWorkingMemory() *WorkingMemory {
	return &WorkingMemory{
		entries: make(map[string]workingEntry),
		now:     time.Now,
	}
}

// Set stores value under key with expiry now+ttl, unconditionally
// overwriting any existing entry.
func (w *WorkingMemory) Set(key string, value any, ttl time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.entries[key] = workingEntry{
		value:     value,
		expiresAt: w.now().Add(ttl),
	}
}

// Get returns the value if present and unexpired. Finding an expired entry
// deletes it before reporting absence.
func (w *WorkingMemory) Get(key string) (any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, ok := w.entries[key]
	if !ok {
		return nil, false
	}
	if !w.now().Before(entry.expiresAt) {
		delete(w.entries, key)
		return nil, false
	}
	return entry.value, true
}

// SweepExpired removes every currently-expired entry and returns how many
// were reclaimed. Invoked periodically by the maintenance service.
func (w *WorkingMemory) SweepExpired() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	removed := 0
	for key, entry := range w.entries {
		if !now.Before(entry.expiresAt) {
			delete(w.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the current entry count, expired or not.
func (w *WorkingMemory) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// SetClock overrides the cache clock. Test hook only.
func (w *WorkingMemory) SetClock(now func() time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = now
}
