package businessflow

import (
	"sync"
	"time"
)

// DefaultSearchDebounce matches the keystroke debounce of the legacy console.
const DefaultSearchDebounce = 400 * time.Millisecond

// searchSequencer coordinates debounced directory searches. Every search
// attempt takes a monotonically increasing sequence number; only the holder
// of the latest number survives the debounce window, and a slow upstream
// response whose number has been overtaken is discarded instead of
// overwriting a newer result.
type searchSequencer struct {
	mu    sync.Mutex
	seq   uint64
	delay time.Duration
}

func newSearchSequencer(delay time.Duration) *searchSequencer {
	if delay < 0 {
		delay = DefaultSearchDebounce
	}
	return &searchSequencer{delay: delay}
}

// Begin registers a new search attempt and returns its sequence number.
// Any attempt holding an earlier number is superseded from this moment.
func (s *searchSequencer) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Latest reports whether seq is still the most recent attempt.
func (s *searchSequencer) Latest(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq == s.seq
}

func (s *searchSequencer) Delay() time.Duration {
	return s.delay
}
