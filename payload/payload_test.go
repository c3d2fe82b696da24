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

package payload_test

import (
	"testing"

	liberr "github.com/nabbar/udpmesh/errors"
	"github.com/nabbar/udpmesh/payload"
)

func TestNewHasOneLiveReference(t *testing.T) {
	endpoint := &struct{}{}
	p := payload.New(payload.OriginServer, endpoint, 1200)

	if got := p.RefCount(); got != 1 {
		t.Errorf("RefCount() = %d, want 1", got)
	}
}

func TestSetDataRejectsOversize(t *testing.T) {
	p := payload.New(payload.OriginServer, &struct{}{}, 4)

	if err := p.SetData([]byte("toolong")); err == nil {
		t.Error("expected SetData to reject a buffer larger than capacity")
	}

	if err := p.SetData([]byte("ok")); err != nil {
		t.Errorf("unexpected error for in-capacity SetData: %v", err)
	}

	if p.Size() != 2 {
		t.Errorf("Size() = %d, want 2", p.Size())
	}
}

func TestCanEnqueueFromOnlyMintingEndpoint(t *testing.T) {
	// Non-zero-size values: pointers to distinct zero-size variables may
	// compare equal in Go.
	minter := new(int)
	other := new(int)
	p := payload.New(payload.OriginClient, minter, 32)

	if !p.CanEnqueueFrom(minter) {
		t.Error("expected CanEnqueueFrom(minter) to be true")
	}

	if p.CanEnqueueFrom(other) {
		t.Error("expected CanEnqueueFrom(other) to be false")
	}
}

func TestHoldReleaseBalance(t *testing.T) {
	p := payload.New(payload.OriginServer, &struct{}{}, 32)

	p.Hold()
	if got := p.RefCount(); got != 2 {
		t.Fatalf("RefCount() after Hold = %d, want 2", got)
	}

	if last := p.Release(); last {
		t.Error("expected Release to report false before the last reference")
	}

	if last := p.Release(); !last {
		t.Error("expected Release to report true on the last reference")
	}
}

type reportingEndpoint struct {
	last liberr.Error
}

func (e *reportingEndpoint) ReportError(err liberr.Error) {
	e.last = err
}

func TestHoldOnFreedPayloadReportsMisuseWithoutResurrecting(t *testing.T) {
	endpoint := &reportingEndpoint{}
	p := payload.New(payload.OriginServer, endpoint, 32)

	if last := p.Release(); !last {
		t.Fatalf("expected Release to report true on the last reference")
	}
	if got := p.RefCount(); got != 0 {
		t.Fatalf("RefCount() after final Release = %d, want 0", got)
	}

	p.Hold()

	if got := p.RefCount(); got != 0 {
		t.Errorf("RefCount() after Hold on freed payload = %d, want 0 (must not resurrect)", got)
	}
	if endpoint.last == nil {
		t.Fatal("expected Hold on a freed payload to report to the minting endpoint")
	}
}

func TestPinMakesHoldReleaseNoOps(t *testing.T) {
	p := payload.New(payload.OriginServer, &struct{}{}, 32)
	p.Pin()

	p.Hold()
	if got := p.RefCount(); got != payload.Pinned {
		t.Errorf("RefCount() after Hold on pinned = %d, want Pinned", got)
	}

	if last := p.Release(); last {
		t.Error("expected Release on a pinned payload to never report true")
	}

	if got := p.RefCount(); got != payload.Pinned {
		t.Errorf("RefCount() after Release on pinned = %d, want Pinned", got)
	}
}
