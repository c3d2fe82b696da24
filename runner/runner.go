/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package runner schedules an endpoint's polling driver in one of two
// mutually exclusive modes: Driven, where the application calls Poll
// itself from a thread of its choosing, or Owned, where a single
// background goroutine calls it again at once after a cycle that did
// work and after an idle interval otherwise. The two are distinct
// types rather than a flag on one type, so a server or client endpoint
// can only ever hold one and the choice is fixed at construction.
package runner

import (
	"context"
	"sync"
	"time"
)

// PollFunc is an endpoint's non-blocking polling driver: one pass over
// its receive queue and timers. It returns the number of frames
// processed (received plus sent) during the cycle.
type PollFunc func(ctx context.Context) (int, error)

// DefaultInterval is the owned-mode idle cadence spec.md prescribes: the
// worker sleeps approximately 1ms before the next cycle whenever the
// last one processed zero frames, and loops immediately otherwise.
const DefaultInterval = time.Millisecond

// stats is the bookkeeping shared by Driven and Owned: running state,
// start time, and the bounded error history an on_error callback would
// otherwise have to accumulate itself.
type stats struct {
	mu        sync.Mutex
	running   bool
	startedAt time.Time
	lastErr   error
	errs      []error
}

const maxErrorHistory = 64

func (s *stats) markStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.startedAt = time.Now()
}

func (s *stats) markStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

func (s *stats) recordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	s.errs = append(s.errs, err)
	if len(s.errs) > maxErrorHistory {
		s.errs = s.errs[len(s.errs)-maxErrorHistory:]
	}
}

// IsRunning reports whether the runner is currently active.
func (s *stats) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Uptime is zero before the first start, and the elapsed time since the
// most recent start once running (or since stopped, for Driven, which has
// no explicit stop signal beyond the application simply not polling
// anymore).
func (s *stats) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startedAt.IsZero() {
		return 0
	}
	return time.Since(s.startedAt)
}

// ErrorsLast returns the most recent error PollFunc returned, or nil.
func (s *stats) ErrorsLast() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ErrorsList returns up to the last 64 errors PollFunc returned.
func (s *stats) ErrorsList() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]error, len(s.errs))
	copy(out, s.errs)
	return out
}
