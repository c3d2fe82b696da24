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

// Package payload implements the refcounted message buffer shared by the
// server and client endpoints: a contiguous byte slice plus the
// application-visible app-id/app-version metadata, a reference count
// enforcing that a buffer outlives every callback currently holding it,
// and an origin tag tying each payload back to the single endpoint
// allowed to enqueue it for send.
package payload

import (
	"sync/atomic"

	liberr "github.com/nabbar/udpmesh/errors"
)

// Pinned is the reference-count sentinel meaning "never freed". Hold and
// Release are no-ops on a pinned payload.
const Pinned int32 = 1<<31 - 1

// ErrorReporter is implemented by the server/client endpoints that mint
// payloads. It lets a Payload route a misuse report (e.g. Hold on an
// already-freed payload) back to its minting endpoint's on_error
// callback without this package depending on server/client directly.
type ErrorReporter interface {
	ReportError(err liberr.Error)
}

// Payload is a contiguous byte buffer sized to at most the minting
// endpoint's configured max_payload_size, carrying one application
// message. It is created with a single live reference, owned by whoever
// called New; that reference transfers into the library at enqueue time.
type Payload struct {
	data       []byte
	appID      uint16
	appVersion uint16
	refcount   int32
	origin     Origin
	mintedBy   any
}

// New creates a payload with one live reference, ready for the
// application to fill in before enqueueing. mintedBy is an opaque token
// identifying the endpoint instance that called New; CanEnqueueFrom
// compares against it later to enforce that a payload is only ever sent
// through the endpoint that created it.
func New(origin Origin, mintedBy any, capacity int) *Payload {
	return &Payload{
		data:     make([]byte, 0, capacity),
		refcount: 1,
		origin:   origin,
		mintedBy: mintedBy,
	}
}

// Data returns the buffer's current contents.
func (p *Payload) Data() []byte {
	return p.data
}

// SetData replaces the buffer's contents, copying b. It returns
// InvalidArgument if len(b) exceeds the buffer's capacity.
func (p *Payload) SetData(b []byte) liberr.Error {
	if len(b) > cap(p.data) {
		return liberr.InvalidArgument.Error(nil)
	}
	p.data = append(p.data[:0], b...)
	return nil
}

// Size is the number of bytes currently written to the buffer.
func (p *Payload) Size() int {
	return len(p.data)
}

// AppID returns the app-id metadata this payload was minted or received
// with.
func (p *Payload) AppID() uint16 {
	return p.appID
}

// SetAppID sets the app-id metadata, normally left to the endpoint's own
// configured value for outbound payloads.
func (p *Payload) SetAppID(id uint16) {
	p.appID = id
}

// AppVersion returns the app-version metadata.
func (p *Payload) AppVersion() uint16 {
	return p.appVersion
}

// SetAppVersion sets the app-version metadata.
func (p *Payload) SetAppVersion(v uint16) {
	p.appVersion = v
}

// Origin reports which kind of endpoint minted this payload.
func (p *Payload) Origin() Origin {
	return p.origin
}

// CanEnqueueFrom reports whether endpoint is the same endpoint instance
// that minted this payload, enforcing the library's invariant that a
// payload may only be enqueued for send through its minting endpoint.
func (p *Payload) CanEnqueueFrom(endpoint any) bool {
	return p.mintedBy == endpoint
}

// RefCount returns the current live reference count, or Pinned.
func (p *Payload) RefCount() int32 {
	return atomic.LoadInt32(&p.refcount)
}

// Pin marks the payload as living forever; subsequent Hold/Release calls
// become no-ops.
func (p *Payload) Pin() {
	atomic.StoreInt32(&p.refcount, Pinned)
}

// Hold takes one additional reference on behalf of a callback that will
// read the payload past the call that handed it over. It is a no-op on a
// pinned payload. Calling Hold on a payload whose count has already
// reached zero does not resurrect it; the misuse is reported to the
// minting endpoint's on_error callback instead.
func (p *Payload) Hold() {
	for {
		cur := atomic.LoadInt32(&p.refcount)
		if cur == Pinned {
			return
		}
		if cur <= 0 {
			p.reportMisuse()
			return
		}
		if atomic.CompareAndSwapInt32(&p.refcount, cur, cur+1) {
			return
		}
	}
}

func (p *Payload) reportMisuse() {
	if reporter, ok := p.mintedBy.(ErrorReporter); ok {
		reporter.ReportError(liberr.InvalidArgument.Error(nil))
	}
}

// Release drops one reference. It reports true when the count reaches
// zero, meaning the caller was the last holder and may recycle the
// payload; it is a no-op (always returning false) on a pinned payload.
func (p *Payload) Release() bool {
	for {
		cur := atomic.LoadInt32(&p.refcount)
		if cur == Pinned {
			return false
		}
		if cur <= 0 {
			return true
		}
		if atomic.CompareAndSwapInt32(&p.refcount, cur, cur-1) {
			return cur-1 == 0
		}
	}
}
