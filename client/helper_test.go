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
	"net"
	"sync"
	"time"

	"github.com/nabbar/udpmesh/client"
	"github.com/nabbar/udpmesh/config"
	"github.com/nabbar/udpmesh/wire"
)

const testAppID = 42
const testAppVersion = 2

func newTestClient(cb client.Callbacks) *client.Client {
	cfg := &config.Client{
		AppID:              testAppID,
		AppVersion:         testAppVersion,
		RetransmitInterval: 20 * time.Millisecond,
		MaxConnectAttempts: 3,
		IdleTimeout:        200 * time.Millisecond,
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	c := client.New(cfg, cb, nil, nil)
	if err := c.Listen(); err != nil {
		panic(err)
	}
	return c
}

func pollFor(c *client.Client, d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, _ = c.Poll(ctx)
		cancel()
		time.Sleep(time.Millisecond)
	}
}

// fakeServer answers every CONNECT and every data frame with a CONNECT
// reply at its own app_version, so a real client.Connection that sends
// twice can be driven through PreConnect -> Initial -> Connected without
// needing the real server package.
type fakeServer struct {
	conn       *net.UDPConn
	appVersion uint16
	stop       chan struct{}

	mu             sync.Mutex
	lastDataPacket []byte
}

func newFakeServer(appVersion uint16) *fakeServer {
	laddr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	if err != nil {
		panic(err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		panic(err)
	}

	f := &fakeServer{conn: conn, appVersion: appVersion, stop: make(chan struct{})}
	go f.serve()
	return f
}

// serve mirrors just enough of the real server's handshake handling for
// these tests: a CONNECT control frame or a data frame from an unknown
// address (the real server's "new peer announced by its first data
// frame" path) both get a CONNECT reply.
func (f *fakeServer) serve() {
	buf := make([]byte, 2048)
	for {
		select {
		case <-f.stop:
			return
		default:
		}

		_ = f.conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		n, addr, err := f.conn.ReadFromUDP(buf)
		if err != nil {
			continue
		}

		frame, ok := wire.Decode(buf[:n], 2048)
		if !ok {
			continue
		}

		switch fr := frame.(type) {
		case *wire.Control:
			if fr.Command == wire.CommandConnect {
				reply := wire.EncodeControl(wire.CommandConnect, testAppID, f.appVersion)
				_, _ = f.conn.WriteToUDP(reply, addr)
			}
		case *wire.Data:
			f.mu.Lock()
			f.lastDataPacket = append([]byte(nil), fr.Payload...)
			f.mu.Unlock()
			reply := wire.EncodeControl(wire.CommandConnect, testAppID, f.appVersion)
			_, _ = f.conn.WriteToUDP(reply, addr)
		}
	}
}

// lastData returns the payload of the most recent data frame received.
func (f *fakeServer) lastData() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastDataPacket
}

func (f *fakeServer) addr() net.Addr {
	return f.conn.LocalAddr()
}

func (f *fakeServer) close() {
	close(f.stop)
	_ = f.conn.Close()
}
