package systems

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs a callback at the next frame opportunity, like a host's
// request-animation-frame primitive. Requests are fire-and-forget and at
// most one is pending; a newer request replaces an older one.
type Scheduler interface {
	RequestFrame(fn func())
}

// TickerScheduler is a single-goroutine event loop that runs the pending
// frame callback on a fixed interval
type TickerScheduler struct {
	interval time.Duration

	mu      sync.Mutex
	pending func()
}

// NewTickerScheduler creates a scheduler posting frames at fps frames per second
func NewTickerScheduler(fps int) *TickerScheduler {
	if fps <= 0 {
		fps = 60
	}
	return &TickerScheduler{
		interval: time.Second / time.Duration(fps),
	}
}

// RequestFrame queues fn for the next tick
func (s *TickerScheduler) RequestFrame(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = fn
}

// RunPending runs the queued callback, if any, on the calling goroutine
func (s *TickerScheduler) RunPending() bool {
	s.mu.Lock()
	fn := s.pending
	s.pending = nil
	s.mu.Unlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}

// HasPending reports whether a callback is queued
func (s *TickerScheduler) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Run drives the event loop until ctx is done
func (s *TickerScheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.RunPending()
		}
	}
}
