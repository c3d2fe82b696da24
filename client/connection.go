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

package client

import (
	"net"
	"sync"
	"time"

	"github.com/nabbar/udpmesh/address"
	"github.com/nabbar/udpmesh/payload"
)

// Connection is the client-side analogue of a server Peer: a tracked
// relationship to one remote address, carrying the retained CONNECT
// payload until it is acknowledged, a retransmit counter, and the
// handshake state (§4.5).
type Connection struct {
	id   address.Opaque
	addr *net.UDPAddr

	mu         sync.Mutex
	state      State
	remoteVer  uint16
	haveVer    bool
	connectPl  *payload.Payload
	attempts   int
	lastSendAt time.Time
	lastRecvAt time.Time
	outbox     []*payload.Payload
}

func newConnection(id address.Opaque, addr *net.UDPAddr, connectPl *payload.Payload) *Connection {
	return &Connection{
		id:        id,
		addr:      addr,
		state:     PreConnect,
		connectPl: connectPl,
		attempts:  0,
	}
}

// Address formats the remote address for logs and diagnostics.
func (c *Connection) Address() address.Textual {
	return address.Format(c.addr)
}

// State reports the connection's current handshake state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts reports how many CONNECT frames have been sent so far, the
// first transmission included.
func (c *Connection) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// connectPayload returns the retained CONNECT payload still awaiting a
// reply, or nil once acknowledged, matching the original's retained
// conn_payload retransmitted by udp_client_connect.
func (c *Connection) connectPayload() *payload.Payload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectPl
}

func (c *Connection) knownVersion() *uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.haveVer {
		return nil
	}
	v := c.remoteVer
	return &v
}

func (c *Connection) onReply(remoteVer uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.remoteVer = remoteVer
	c.haveVer = true
	c.lastRecvAt = time.Now()

	switch c.state {
	case PreConnect:
		c.state = Initial
		if c.connectPl != nil {
			c.connectPl.Release()
			c.connectPl = nil
		}
	case Initial:
		c.state = Connected
	}
}

// dueForRetransmit reports whether a PreConnect connection's CONNECT
// payload should be resent now, given the configured retransmit cadence.
func (c *Connection) dueForRetransmit(interval time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != PreConnect {
		return false
	}
	return c.lastSendAt.IsZero() || time.Since(c.lastSendAt) >= interval
}

// markSent records a CONNECT (re)transmission and returns the updated
// attempt count.
func (c *Connection) markSent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSendAt = time.Now()
	c.attempts++
	return c.attempts
}

// markDead moves the connection to State Dead, releasing both the
// retained CONNECT payload and every payload still queued for send
// (§5's cancellation rule).
func (c *Connection) markDead() {
	c.mu.Lock()
	c.state = Dead
	connectPl := c.connectPl
	c.connectPl = nil
	pending := c.outbox
	c.outbox = nil
	c.mu.Unlock()

	if connectPl != nil {
		connectPl.Release()
	}
	for _, pl := range pending {
		pl.Release()
	}
}

// markFinal moves the connection to State Final, releasing both the
// retained CONNECT payload and every payload still queued for send.
func (c *Connection) markFinal() {
	c.mu.Lock()
	c.state = Final
	connectPl := c.connectPl
	c.connectPl = nil
	pending := c.outbox
	c.outbox = nil
	c.mu.Unlock()

	if connectPl != nil {
		connectPl.Release()
	}
	for _, pl := range pending {
		pl.Release()
	}
}

func (c *Connection) idleSince() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastRecvAt.IsZero() {
		return time.Since(c.lastSendAt)
	}
	return time.Since(c.lastRecvAt)
}

// pushOutbound appends pl to the connection's outbound queue, consuming
// the caller's reference.
func (c *Connection) pushOutbound(pl *payload.Payload) {
	c.mu.Lock()
	c.outbox = append(c.outbox, pl)
	c.mu.Unlock()
}

// frontOutbound returns the head of the outbound queue without removing
// it, or nil if the queue is empty.
func (c *Connection) frontOutbound() *payload.Payload {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.outbox) == 0 {
		return nil
	}
	return c.outbox[0]
}

// popOutbound removes the head of the outbound queue, preserving FIFO
// order for the remainder.
func (c *Connection) popOutbound() {
	c.mu.Lock()
	if len(c.outbox) > 0 {
		c.outbox[0] = nil
		c.outbox = c.outbox[1:]
	}
	c.mu.Unlock()
}

// noteSent records a data-frame transmission's timestamp without
// touching the CONNECT attempt counter.
func (c *Connection) noteSent() {
	c.mu.Lock()
	c.lastSendAt = time.Now()
	c.mu.Unlock()
}

// dropOutbound clears the outbound queue and releases every payload
// reference it held, per §5's cancellation rule.
func (c *Connection) dropOutbound() {
	c.mu.Lock()
	pending := c.outbox
	c.outbox = nil
	c.mu.Unlock()

	for _, pl := range pending {
		pl.Release()
	}
}
