package node

import (
	"sync"
	"time"
)

// scheduler owns the recurring scan timers: one per distinct scan
// rate, each driving the node's tick for that rate.
//
// The scheduler is started on birth and stopped on death, disconnect,
// and transport loss. stop only signals; it never waits for timer
// goroutines, because callers hold the node mutex that an in-flight
// tick may be blocked on. A tick that slips through the signal
// re-checks the node state under the lock and no-ops.
type scheduler struct {
	mu      sync.Mutex
	done    chan struct{}
	running bool
}

func newScheduler() *scheduler {
	return &scheduler{}
}

// start installs one recurring timer per rate. A running scheduler is
// restarted with the new rate set.
func (s *scheduler) start(rates []time.Duration, tick func(rate time.Duration)) {
	s.stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(rates) == 0 {
		return
	}

	s.done = make(chan struct{})
	s.running = true

	for _, rate := range rates {
		go func(rate time.Duration, done chan struct{}) {
			ticker := time.NewTicker(rate)
			defer ticker.Stop()

			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					select {
					case <-done:
						return
					default:
					}
					tick(rate)
				}
			}
		}(rate, s.done)
	}
}

// stop cancels every timer. Safe to call repeatedly and when not
// running.
func (s *scheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	close(s.done)
}

// active reports whether any timers are installed. Tests use this to
// verify teardown.
func (s *scheduler) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
