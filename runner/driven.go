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

import "context"

// Driven wraps a PollFunc the application calls itself. It never spawns a
// goroutine; Poll just forwards to the underlying function while keeping
// the same running/uptime/error bookkeeping Owned exposes.
type Driven struct {
	stats
	poll PollFunc
}

// NewDriven wraps poll for driven-mode scheduling.
func NewDriven(poll PollFunc) *Driven {
	return &Driven{poll: poll}
}

// Poll runs one polling cycle, returning the number of frames processed
// (receive + send). The first call marks the runner as running and
// starts its uptime clock.
func (d *Driven) Poll(ctx context.Context) (int, error) {
	if !d.IsRunning() {
		d.markStarted()
	}

	n, err := d.poll(ctx)
	d.recordError(err)
	return n, err
}

// Stop marks the runner as no longer running. It does not interrupt a
// Poll already in flight; the application simply stops calling Poll.
func (d *Driven) Stop() {
	d.markStopped()
}
