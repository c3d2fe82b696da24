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

package runner

import (
	"context"
	"sync"
	"time"

	liberr "github.com/nabbar/udpmesh/errors"
)

// Owned runs a PollFunc from a single background goroutine until Stop or
// the parent context ends. Per spec.md §4.4, a cycle that processed at
// least one frame is immediately followed by another; a cycle that
// processed nothing sleeps for idleInterval first.
type Owned struct {
	stats

	poll         PollFunc
	idleInterval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewOwned wraps poll for owned-mode scheduling with the default ~1ms
// idle cadence.
func NewOwned(poll PollFunc) *Owned {
	return NewOwnedInterval(poll, DefaultInterval)
}

// NewOwnedInterval wraps poll for owned-mode scheduling, sleeping
// idleInterval before the next cycle whenever a cycle processes zero
// frames, falling back to DefaultInterval if idleInterval is not
// positive.
func NewOwnedInterval(poll PollFunc, idleInterval time.Duration) *Owned {
	if idleInterval <= 0 {
		idleInterval = DefaultInterval
	}
	return &Owned{poll: poll, idleInterval: idleInterval}
}

// Start spawns the background worker. It returns InvalidArgument if the
// runner is already running.
func (o *Owned) Start(ctx context.Context) liberr.Error {
	o.mu.Lock()
	if o.IsRunning() {
		o.mu.Unlock()
		return liberr.InvalidArgument.Error(nil)
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.done = make(chan struct{})
	o.mu.Unlock()

	o.markStarted()
	go o.run(runCtx)
	return nil
}

// Stop cancels the background worker and waits for it to exit. It
// returns InvalidArgument if the runner is not running.
func (o *Owned) Stop() liberr.Error {
	o.mu.Lock()
	if !o.IsRunning() {
		o.mu.Unlock()
		return liberr.InvalidArgument.Error(nil)
	}
	cancel, done := o.cancel, o.done
	o.mu.Unlock()

	cancel()
	<-done
	o.markStopped()
	return nil
}

func (o *Owned) run(ctx context.Context) {
	defer close(o.done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		n, err := o.poll(ctx)
		o.recordError(err)

		wait := o.idleInterval
		if n > 0 {
			wait = 0
		}
		timer.Reset(wait)
	}
}
