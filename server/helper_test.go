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
	"context"
	"net"
	"time"

	"github.com/nabbar/udpmesh/config"
	"github.com/nabbar/udpmesh/server"
	"github.com/nabbar/udpmesh/wire"
)

const testAppID = 34
const testAppVersion = 3

func newTestServer(cb server.Callbacks) *server.Server {
	cfg := &config.Server{Address: "127.0.0.1:0", AppID: testAppID, AppVersion: testAppVersion}
	_ = cfg.Validate()

	s := server.New(cfg, cb, nil, nil)
	if err := s.Listen(); err != nil {
		panic(err)
	}
	return s
}

// pollFor runs s.Poll in a tight loop for d, giving a simulated client's
// datagrams time to arrive and be processed.
func pollFor(s *server.Server, d time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		_, _ = s.Poll(ctx)
		time.Sleep(time.Millisecond)
	}
}

type testClient struct {
	conn *net.UDPConn
}

func dialTestClient(serverAddr net.Addr) *testClient {
	conn, err := net.DialUDP("udp", nil, serverAddr.(*net.UDPAddr))
	if err != nil {
		panic(err)
	}
	return &testClient{conn: conn}
}

func (c *testClient) sendConnect() {
	_, _ = c.conn.Write(wire.EncodeControl(wire.CommandConnect, testAppID, testAppVersion))
}

func (c *testClient) sendDisconnect() {
	_, _ = c.conn.Write(wire.EncodeControl(wire.CommandDisconnect, testAppID, testAppVersion))
}

func (c *testClient) sendData(payload []byte) {
	_, _ = c.conn.Write(wire.EncodeData(testAppID, testAppVersion, payload))
}

// recvData reads one frame off the wire within d and returns its
// payload, failing the caller's test via panic if nothing arrives or
// the frame does not decode as a data frame.
func (c *testClient) recvData(d time.Duration) []byte {
	buf := make([]byte, 2048)
	_ = c.conn.SetReadDeadline(time.Now().Add(d))
	n, err := c.conn.Read(buf)
	if err != nil {
		panic(err)
	}

	frame, ok := wire.Decode(buf[:n], 2048)
	if !ok {
		panic("recvData: frame did not decode")
	}
	data, ok := frame.(*wire.Data)
	if !ok {
		panic("recvData: frame was not a data frame")
	}
	return data.Payload
}

func (c *testClient) close() {
	_ = c.conn.Close()
}
