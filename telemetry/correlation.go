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

package telemetry

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/xid"
)

// NewPeerID mints a sortable, k-ordered id for a newly accepted peer,
// cheap enough to generate on every on_peer_new without the application
// noticing, used only in diagnostics and metrics labels -- never placed
// on the wire.
func NewPeerID() string {
	return xid.New().String()
}

// NewSessionID mints a random id for a client connection attempt, used
// to correlate the retransmits and the eventual on_disconnect of one
// logical connection across log lines.
func NewSessionID() string {
	return uuid.NewString()
}

// Sequence is a per-peer or per-connection diagnostic counter: how many
// frames have been exchanged so far. It supplements spec.md's frame
// accounting (original_source's per-connection sequence counters) and is
// surfaced to logs and metrics only, never compared against on receipt.
type Sequence struct {
	n uint64
}

// Next increments and returns the new sequence value.
func (s *Sequence) Next() uint64 {
	return atomic.AddUint64(&s.n, 1)
}

// Load returns the current sequence value without incrementing it.
func (s *Sequence) Load() uint64 {
	return atomic.LoadUint64(&s.n)
}
