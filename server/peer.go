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

package server

import (
	"net"
	"sync"
	"time"

	"github.com/nabbar/udpmesh/address"
	"github.com/nabbar/udpmesh/payload"
)

// PeerReason explains why a peer left the table or a group, surfaced to
// the OnPeerExpired and per-group OnPeerRemoved callbacks.
type PeerReason int

const (
	// PeerTimedOut means the peer sent nothing for longer than the
	// server's configured idle timeout.
	PeerTimedOut PeerReason = iota + 1
	// PeerLastGroupDestroyed means the peer's last remaining group was
	// torn down with DestroyGroup.
	PeerLastGroupDestroyed
	// PeerDisconnected means the server received a valid DISCONNECT
	// control frame from this peer.
	PeerDisconnected
	// PeerRemoved means the application explicitly called
	// GroupRemovePeer on the peer's last group, a reason this module
	// adds beyond the three the original library names.
	PeerRemoved
)

func (r PeerReason) String() string {
	switch r {
	case PeerTimedOut:
		return "timed_out"
	case PeerLastGroupDestroyed:
		return "last_group_destroyed"
	case PeerDisconnected:
		return "client_disconnected"
	case PeerRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Peer represents a remote address the server has received a datagram
// from. A Peer handed to OnPeerNew is not yet tracked by the server; it
// only becomes a persistent table entry once GroupAddPeer places it into
// at least one group, matching §3's "peer survives iff member of some
// group" invariant.
type Peer struct {
	id   address.Opaque
	addr *net.UDPAddr

	mu        sync.Mutex
	remoteVer uint16
	haveVer   bool
	lastSeen  time.Time
	lastSend  time.Time
	groups    map[GroupRef]struct{}
	outbox    []*payload.Payload
}

func newPeer(id address.Opaque, addr *net.UDPAddr, remoteVer uint16) *Peer {
	return &Peer{
		id:        id,
		addr:      addr,
		remoteVer: remoteVer,
		haveVer:   true,
		lastSeen:  time.Now(),
		groups:    make(map[GroupRef]struct{}),
	}
}

// Address formats the peer's socket address for logs and diagnostics.
func (p *Peer) Address() address.Textual {
	return address.Format(p.addr)
}

// RemoteAppVersion returns the most recently observed app_version this
// peer sent with.
func (p *Peer) RemoteAppVersion() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remoteVer
}

func (p *Peer) knownVersion() *uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.haveVer {
		return nil
	}
	v := p.remoteVer
	return &v
}

func (p *Peer) touch(remoteVer uint16) {
	p.mu.Lock()
	p.remoteVer = remoteVer
	p.haveVer = true
	p.lastSeen = time.Now()
	p.mu.Unlock()
}

func (p *Peer) idleSince() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Since(p.lastSeen)
}

func (p *Peer) addGroup(g GroupRef) {
	p.mu.Lock()
	p.groups[g] = struct{}{}
	p.mu.Unlock()
}

func (p *Peer) removeGroup(g GroupRef) int {
	p.mu.Lock()
	delete(p.groups, g)
	n := len(p.groups)
	p.mu.Unlock()
	return n
}

// GroupsPeek returns a snapshot of the groups this peer currently
// belongs to, safe to range over even if the server mutates membership
// concurrently (§9's defensive-iteration requirement).
func (p *Peer) GroupsPeek() []GroupRef {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]GroupRef, 0, len(p.groups))
	for g := range p.groups {
		out = append(out, g)
	}
	return out
}

// pushOutbound appends pl to the peer's outbound queue (§3's "outbound
// queue of payloads awaiting transmission"), consuming the caller's
// reference; it is released once Poll's drain-sends phase has written
// pl's datagram, or when the queue is dropped at teardown.
func (p *Peer) pushOutbound(pl *payload.Payload) {
	p.mu.Lock()
	p.outbox = append(p.outbox, pl)
	p.mu.Unlock()
}

// frontOutbound returns the head of the outbound queue without removing
// it, or nil if the queue is empty.
func (p *Peer) frontOutbound() *payload.Payload {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.outbox) == 0 {
		return nil
	}
	return p.outbox[0]
}

// popOutbound removes the head of the outbound queue, preserving FIFO
// order for the remainder.
func (p *Peer) popOutbound() {
	p.mu.Lock()
	if len(p.outbox) > 0 {
		p.outbox[0] = nil
		p.outbox = p.outbox[1:]
	}
	p.mu.Unlock()
}

// dropOutbound clears the outbound queue and releases every payload
// reference it held, per §5's cancellation rule.
func (p *Peer) dropOutbound() {
	p.mu.Lock()
	pending := p.outbox
	p.outbox = nil
	p.mu.Unlock()

	for _, pl := range pending {
		pl.Release()
	}
}

func (p *Peer) markSent() {
	p.mu.Lock()
	p.lastSend = time.Now()
	p.mu.Unlock()
}
