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

package server_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/udpmesh/payload"
	"github.com/nabbar/udpmesh/server"
)

var _ = Describe("group assignment", func() {
	// Mirrors scenario S3: two clients connect, the first peer joins G1
	// and G2, later peers join G1 and G3; membership stays symmetric.
	It("keeps group membership symmetric across two peers", func() {
		var mu sync.Mutex
		g1 := server.NewGroup("g1", struct{}{}, nil, nil)
		g2 := server.NewGroup("g2", struct{}{}, nil, nil)
		g3 := server.NewGroup("g3", struct{}{}, nil, nil)
		joined := 0

		s := newTestServer(server.Callbacks{
			OnPeerNew: func(srv *server.Server, peer *server.Peer, pl *payload.Payload) {
				mu.Lock()
				defer mu.Unlock()
				joined++
				_ = srv.GroupAddPeer(peer, g1)
				if joined == 1 {
					_ = srv.GroupAddPeer(peer, g2)
				} else {
					_ = srv.GroupAddPeer(peer, g3)
				}
			},
		})
		defer s.Close()

		s.CreateGroup(g1)
		s.CreateGroup(g2)
		s.CreateGroup(g3)

		c1 := dialTestClient(s.LocalAddr())
		defer c1.close()
		c2 := dialTestClient(s.LocalAddr())
		defer c2.close()

		c1.sendConnect()
		pollFor(s, 50*time.Millisecond)
		c2.sendConnect()
		pollFor(s, 50*time.Millisecond)

		Expect(len(g1.PeersPeek())).To(Equal(2))
		Expect(len(g3.PeersPeek())).To(Equal(1))
		Expect(s.PeerCount()).To(Equal(2))
	})
})

var _ = Describe("explicit disconnect", func() {
	// Mirrors scenario S6: a client sends DISCONNECT, the server removes
	// the peer from all groups with PeerDisconnected and the peer count
	// drops back to zero.
	It("removes the peer from every group on a valid DISCONNECT frame", func() {
		var removedReason server.PeerReason
		var mu sync.Mutex

		g := server.NewGroup("g", struct{}{}, nil, func(peer *server.Peer, reason server.PeerReason, _ struct{}) {
			mu.Lock()
			removedReason = reason
			mu.Unlock()
		})

		s := newTestServer(server.Callbacks{
			OnPeerNew: func(srv *server.Server, peer *server.Peer, pl *payload.Payload) {
				_ = srv.GroupAddPeer(peer, g)
			},
		})
		defer s.Close()
		s.CreateGroup(g)

		c := dialTestClient(s.LocalAddr())
		defer c.close()

		c.sendConnect()
		pollFor(s, 50*time.Millisecond)
		Expect(s.PeerCount()).To(Equal(1))

		c.sendDisconnect()
		pollFor(s, 50*time.Millisecond)

		Expect(s.PeerCount()).To(Equal(0))
		mu.Lock()
		defer mu.Unlock()
		Expect(removedReason).To(Equal(server.PeerDisconnected))
	})
})

var _ = Describe("outbound queue", func() {
	It("drains a peer's enqueued payload onto the wire on the next Poll", func() {
		var mu sync.Mutex
		var peer *server.Peer
		g := server.NewGroup("g", struct{}{}, nil, nil)

		s := newTestServer(server.Callbacks{
			OnPeerNew: func(srv *server.Server, p *server.Peer, pl *payload.Payload) {
				mu.Lock()
				peer = p
				mu.Unlock()
				// A peer in no group is dropped once OnPeerNew returns.
				_ = srv.GroupAddPeer(p, g)
			},
		})
		defer s.Close()

		s.CreateGroup(g)

		c := dialTestClient(s.LocalAddr())
		defer c.close()

		c.sendConnect()
		pollFor(s, 50*time.Millisecond)

		mu.Lock()
		p := peer
		mu.Unlock()
		Expect(p).ToNot(BeNil())

		pl := s.NewPayload()
		Expect(pl.SetData([]byte("pushed"))).To(BeNil())
		Expect(s.EnqueuePeer(p, pl)).To(BeNil())

		pollFor(s, 50*time.Millisecond)

		Expect(c.recvData(100 * time.Millisecond)).To(Equal([]byte("pushed")))
	})
})

var _ = Describe("data fan-out", func() {
	It("delivers a data frame to every group the sending peer belongs to", func() {
		var mu sync.Mutex
		deliveries := 0

		onMsg := func(peer *server.Peer, pl *payload.Payload, _ struct{}) {
			mu.Lock()
			deliveries++
			mu.Unlock()
		}
		g1 := server.NewGroup("g1", struct{}{}, onMsg, nil)
		g2 := server.NewGroup("g2", struct{}{}, onMsg, nil)

		s := newTestServer(server.Callbacks{
			OnPeerNew: func(srv *server.Server, peer *server.Peer, pl *payload.Payload) {
				_ = srv.GroupAddPeer(peer, g1)
				_ = srv.GroupAddPeer(peer, g2)
			},
		})
		defer s.Close()
		s.CreateGroup(g1)
		s.CreateGroup(g2)

		c := dialTestClient(s.LocalAddr())
		defer c.close()

		c.sendConnect()
		pollFor(s, 50*time.Millisecond)

		c.sendData([]byte("hello"))
		pollFor(s, 50*time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		Expect(deliveries).To(Equal(2))
	})
})
