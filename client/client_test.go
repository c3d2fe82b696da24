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

package client_test

import (
	"context"
	"sync"
	"time"

	"github.com/nabbar/udpmesh/client"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("connect handshake", func() {
	It("drives a connection from preconnect through connected against a replying peer", func() {
		srv := newFakeServer(testAppVersion)
		defer srv.close()

		c := newTestClient(client.Callbacks{})
		defer c.Close()

		conn, err := c.Connect(context.Background(), srv.addr().String(), nil)
		Expect(err).To(BeNil())
		Expect(conn.State()).To(Equal(client.PreConnect))

		pollFor(c, 100*time.Millisecond)

		Expect(conn.State()).To(Equal(client.Initial))

		// A second exchange: the fake answers this data frame with another
		// reply, which moves the connection on to Connected.
		pl := c.NewPayload()
		Expect(pl.SetData([]byte("ping"))).To(BeNil())
		Expect(c.Send(conn, pl)).To(BeNil())

		pollFor(c, 100*time.Millisecond)

		Expect(conn.State()).To(Equal(client.Connected))
		Expect(c.ConnectionCount()).To(Equal(1))
	})
})

var _ = Describe("connect with a first payload", func() {
	It("retransmits the application's retained payload instead of a synthetic CONNECT frame", func() {
		srv := newFakeServer(testAppVersion)
		defer srv.close()

		c := newTestClient(client.Callbacks{})
		defer c.Close()

		pl := c.NewPayload()
		Expect(pl.SetData([]byte("hello"))).To(BeNil())

		conn, err := c.Connect(context.Background(), srv.addr().String(), pl)
		Expect(err).To(BeNil())
		Expect(conn.State()).To(Equal(client.PreConnect))

		pollFor(c, 100*time.Millisecond)

		Expect(srv.lastData()).To(Equal([]byte("hello")))
		Expect(conn.State()).To(Equal(client.Initial))
	})
})

var _ = Describe("connect retransmit budget", func() {
	It("gives up and reports DisconnectTimedOut once the attempt budget is exhausted", func() {
		var mu sync.Mutex
		var gotReason client.DisconnectReason
		var disconnected bool

		c := newTestClient(client.Callbacks{
			OnDisconnect: func(c *client.Client, conn *client.Connection, reason client.DisconnectReason) {
				mu.Lock()
				defer mu.Unlock()
				gotReason = reason
				disconnected = true
			},
		})
		defer c.Close()

		// No server is listening on this address: every CONNECT goes
		// unanswered and the retransmit budget (3 attempts, 20ms cadence)
		// must exhaust.
		deadAddr := newFakeServer(testAppVersion)
		unreachable := deadAddr.addr().String()
		deadAddr.close()

		conn, cerr := c.Connect(context.Background(), unreachable, nil)
		Expect(cerr).To(BeNil())
		Expect(conn.State()).To(Equal(client.PreConnect))

		pollFor(c, 300*time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		Expect(disconnected).To(BeTrue())
		Expect(gotReason).To(Equal(client.DisconnectTimedOut))
		Expect(c.ConnectionCount()).To(Equal(0))
	})
})

var _ = Describe("explicit disconnect", func() {
	It("moves a connected connection to Final and removes it from the table", func() {
		srv := newFakeServer(testAppVersion)
		defer srv.close()

		c := newTestClient(client.Callbacks{})
		defer c.Close()

		conn, err := c.Connect(context.Background(), srv.addr().String(), nil)
		Expect(err).To(BeNil())

		pollFor(c, 150*time.Millisecond)

		pl := c.NewPayload()
		Expect(pl.SetData([]byte("ping"))).To(BeNil())
		Expect(c.Send(conn, pl)).To(BeNil())
		pollFor(c, 50*time.Millisecond)
		Expect(conn.State()).To(Equal(client.Connected))

		Expect(c.Disconnect(conn)).To(BeNil())
		Expect(conn.State()).To(Equal(client.Final))
		Expect(c.ConnectionCount()).To(Equal(0))
	})
})
