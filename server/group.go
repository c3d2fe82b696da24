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
	"sync"

	"github.com/nabbar/udpmesh/payload"
)

// OnPeerMessage is called once per payload received from a peer that
// belongs to the group, one call per member group the peer is in. param
// is the application object the group was created with (§3's "its
// parameter object, supplied by the application").
type OnPeerMessage[P any] func(peer *Peer, pl *payload.Payload, param P)

// OnPeerRemoved is called when a peer leaves the group, whether by
// explicit GroupRemovePeer, idle timeout, or DestroyGroup.
type OnPeerRemoved[P any] func(peer *Peer, reason PeerReason, param P)

// GroupRef is the type-erased handle a Server and a Peer hold for a
// Group[P]. A server tracks groups built over different application
// parameter types side by side, so its tables can't name a single P;
// GroupRef is the common shape every Group[P] satisfies regardless of P.
// Only *Group[P] implements it.
type GroupRef interface {
	// ID returns the group's application-assigned identifier.
	ID() string
	// PeersPeek returns a snapshot of the group's current members, safe
	// to range over while the server concurrently adds or removes peers.
	PeersPeek() []*Peer

	addPeer(p *Peer)
	removePeer(p *Peer)
	deliverMessage(peer *Peer, pl *payload.Payload)
	deliverRemoved(peer *Peer, reason PeerReason)
}

// Group is an application-defined set of peers that are allowed to talk
// to each other's handlers, carrying the application's parameter object
// (param) handed back to both callbacks on every call. A peer may belong
// to more than one group; it is removed from the server's peer table
// only once it belongs to none.
type Group[P any] struct {
	id        string
	param     P
	onMessage OnPeerMessage[P]
	onRemoved OnPeerRemoved[P]

	mu    sync.RWMutex
	peers map[*Peer]struct{}
}

// NewGroup builds a Group carrying param. It is not attached to any
// server until passed to Server.CreateGroup.
func NewGroup[P any](id string, param P, onMessage OnPeerMessage[P], onRemoved OnPeerRemoved[P]) *Group[P] {
	return &Group[P]{
		id:        id,
		param:     param,
		onMessage: onMessage,
		onRemoved: onRemoved,
		peers:     make(map[*Peer]struct{}),
	}
}

// ID returns the group's application-assigned identifier.
func (g *Group[P]) ID() string {
	return g.id
}

// Param returns the application parameter object this group was created
// with.
func (g *Group[P]) Param() P {
	return g.param
}

func (g *Group[P]) addPeer(p *Peer) {
	g.mu.Lock()
	g.peers[p] = struct{}{}
	g.mu.Unlock()
}

func (g *Group[P]) removePeer(p *Peer) {
	g.mu.Lock()
	delete(g.peers, p)
	g.mu.Unlock()
}

// PeersPeek returns a snapshot of the group's current members, safe to
// range over while the server concurrently adds or removes peers.
func (g *Group[P]) PeersPeek() []*Peer {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]*Peer, 0, len(g.peers))
	for p := range g.peers {
		out = append(out, p)
	}
	return out
}

func (g *Group[P]) deliverMessage(peer *Peer, pl *payload.Payload) {
	if g.onMessage != nil {
		g.onMessage(peer, pl, g.param)
	}
}

func (g *Group[P]) deliverRemoved(peer *Peer, reason PeerReason) {
	if g.onRemoved != nil {
		g.onRemoved(peer, reason, g.param)
	}
}
