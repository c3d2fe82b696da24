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

// Package client implements the initiating side of the mesh: one UDP
// socket bound to an ephemeral port, and a table of connections to
// remote servers, each independently running the PRECONNECT -> INITIAL
// -> CONNECTED -> FINAL -> DEAD handshake state machine described in
// §4.5.
package client

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nabbar/udpmesh/address"
	"github.com/nabbar/udpmesh/config"
	liberr "github.com/nabbar/udpmesh/errors"
	"github.com/nabbar/udpmesh/logger"
	"github.com/nabbar/udpmesh/payload"
	"github.com/nabbar/udpmesh/runner"
	"github.com/nabbar/udpmesh/telemetry"
	"github.com/nabbar/udpmesh/wire"
)

// Callbacks mirrors udp_client_params_t's function-pointer fields.
type Callbacks struct {
	// OnError reports a socket or I/O failure encountered while polling.
	OnError func(c *Client, err liberr.Error)
	// OnIdle is called once at the end of every Poll cycle.
	OnIdle func(c *Client)
	// OnPayload delivers an inbound data frame for an established
	// connection.
	OnPayload func(c *Client, conn *Connection, pl *payload.Payload)
	// OnDisconnect is called once a connection leaves the table: in
	// State Dead after a timeout, or in State Final after an explicit
	// Disconnect.
	OnDisconnect func(c *Client, conn *Connection, reason DisconnectReason)
}

// Client is a single UDP endpoint plus its connection table.
type Client struct {
	cfg *config.Client
	cb  Callbacks
	log *logger.Logger
	tel *telemetry.Client

	conn    *net.UDPConn
	recvBuf []byte

	mu    sync.RWMutex
	conns map[address.Opaque]*Connection
}

// New builds a Client from a validated config, its callback set, a
// logger, and a metrics sink. It does not open a socket; call Listen.
func New(cfg *config.Client, cb Callbacks, log *logger.Logger, tel *telemetry.Client) *Client {
	if log == nil {
		log = logger.Discard()
	}
	if tel == nil {
		tel = telemetry.NewClient(prometheus.NewRegistry())
	}

	return &Client{
		cfg:     cfg,
		cb:      cb,
		log:     log,
		tel:     tel,
		recvBuf: make([]byte, cfg.MaxPayloadSize+wireOverhead),
		conns:   make(map[address.Opaque]*Connection),
	}
}

// Listen opens the client's UDP socket on an ephemeral local port.
func (c *Client) Listen() liberr.Error {
	laddr, err := net.ResolveUDPAddr(c.cfg.Network, ":0")
	if err != nil {
		return liberr.AddressError.Error(err)
	}

	conn, err := net.ListenUDP(c.cfg.Network, laddr)
	if err != nil {
		return liberr.SocketError.Error(err)
	}

	c.conn = conn
	c.log.Info("client listening")
	return nil
}

// LocalAddr returns the socket's bound ephemeral address.
func (c *Client) LocalAddr() net.Addr {
	if c.conn == nil {
		return nil
	}
	return c.conn.LocalAddr()
}

// Close releases the socket. Per §5's cancellation rule it first
// releases every payload reference still held in a connection's
// outbound queue.
func (c *Client) Close() liberr.Error {
	if c.conn == nil {
		return nil
	}

	for _, conn := range c.connectionsSnapshot() {
		conn.dropOutbound()
	}

	if err := c.conn.Close(); err != nil {
		return liberr.SocketError.Error(err)
	}
	return nil
}

// Driven wraps Poll for caller-scheduled polling.
func (c *Client) Driven() *runner.Driven {
	return runner.NewDriven(c.Poll)
}

// Owned wraps Poll for library-scheduled polling at the default cadence.
func (c *Client) Owned() *runner.Owned {
	return runner.NewOwned(c.Poll)
}

// NewPayload mints an empty payload the application can fill in and pass
// to Connect or Send.
func (c *Client) NewPayload() *payload.Payload {
	return payload.New(payload.OriginClient, c, c.cfg.MaxPayloadSize)
}

// ReportError satisfies payload.ErrorReporter, routing a misuse report
// (e.g. Hold on an already-freed payload minted by this client) to
// OnError exactly like a socket failure would be.
func (c *Client) ReportError(err liberr.Error) {
	if c.cb.OnError != nil {
		c.cb.OnError(c, err)
	}
}

// Connect resolves addr and begins a handshake to it, retaining pl for
// retransmission until a reply arrives. When pl is nil or empty, a plain
// CONNECT control frame is sent instead and no payload is retained. It
// takes ownership of pl's refcount regardless of outcome, matching
// udp_client_connect's contract.
func (c *Client) Connect(ctx context.Context, addr string, pl *payload.Payload) (*Connection, liberr.Error) {
	resolved, err := address.Resolve(ctx, c.cfg.Network, addr)
	if err != nil {
		if pl != nil {
			pl.Release()
		}
		return nil, err
	}

	key := address.Encode(resolved)

	c.mu.Lock()
	if existing, ok := c.conns[key]; ok {
		c.mu.Unlock()
		if pl != nil {
			pl.Release()
		}
		return existing, nil
	}

	if pl != nil {
		pl.SetAppID(c.cfg.AppID)
		pl.SetAppVersion(c.cfg.AppVersion)
		if pl.Size() == 0 {
			// An empty data frame is eight bytes, indistinguishable on
			// the wire from a control frame; fall back to the plain
			// CONNECT control frame rather than retain it.
			pl.Release()
			pl = nil
		}
	}

	conn := newConnection(key, resolved, pl)
	c.conns[key] = conn
	c.mu.Unlock()

	c.sendConnect(conn)
	c.tel.Connections.Set(float64(c.ConnectionCount()))
	return conn, nil
}

// Disconnect sends a best-effort DISCONNECT and moves conn to State
// Final, dropping its outbound queue.
func (c *Client) Disconnect(conn *Connection) liberr.Error {
	buf := wire.EncodeControl(wire.CommandDisconnect, c.cfg.AppID, c.cfg.AppVersion)
	_, _ = c.conn.WriteToUDP(buf, conn.addr)

	conn.markFinal()
	c.removeConnection(conn, DisconnectLocal)
	return nil
}

// Send places pl on conn's outbound queue, consuming pl's refcount. The
// datagram itself is written from the polling thread's drain-sends
// phase, preserving FIFO order (§5).
func (c *Client) Send(conn *Connection, pl *payload.Payload) liberr.Error {
	if !pl.CanEnqueueFrom(c) {
		pl.Release()
		return liberr.InvalidArgument.Error(nil)
	}
	conn.pushOutbound(pl)
	return nil
}

// sendConnect (re)transmits the handshake frame for conn. When an
// application payload was retained at Connect time, that payload's
// bytes are what goes on the wire, on every attempt, matching the
// original's retained conn_payload; otherwise a plain CONNECT control
// frame is sent.
func (c *Client) sendConnect(conn *Connection) {
	ver := wire.SendVersion(c.cfg.AppVersion, conn.knownVersion())

	var buf []byte
	if pl := conn.connectPayload(); pl != nil {
		buf = wire.EncodeData(c.cfg.AppID, ver, pl.Data())
	} else {
		buf = wire.EncodeControl(wire.CommandConnect, c.cfg.AppID, ver)
	}

	_, _ = c.conn.WriteToUDP(buf, conn.addr)
	conn.markSent()
	c.tel.ConnectAttempts.Inc()
}

// Poll drains every datagram queued on the socket, dispatches each to
// its connection, drains queued outbound data, retransmits any
// PRECONNECT connection due for another attempt, expires idle CONNECTED
// connections, then fires OnIdle. It returns the number of frames
// processed (received plus sent).
func (c *Client) Poll(ctx context.Context) (int, error) {
	if c.conn == nil {
		return 0, liberr.InvalidArgument.Error(nil)
	}

	processed := 0

	for {
		select {
		case <-ctx.Done():
			return processed, nil
		default:
		}

		_ = c.conn.SetReadDeadline(time.Now())
		n, addr, err := c.conn.ReadFromUDP(c.recvBuf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				break
			}
			wrapped := liberr.SocketError.Error(err)
			if c.cb.OnError != nil {
				c.cb.OnError(c, wrapped)
			}
			return processed, wrapped
		}

		processed++
		c.handleDatagram(addr, c.recvBuf[:n])
	}

	processed += c.drainSends()
	processed += c.retransmitPending()
	c.expireIdleConnections()

	if c.cb.OnIdle != nil {
		c.cb.OnIdle(c)
	}
	return processed, nil
}

// drainSends is Poll's "drain sends" phase: for every connection with a
// non-empty outbound queue, it writes as many datagrams as the socket
// accepts without blocking, releasing each payload's reference as its
// datagram clears the socket. A write that would block stops draining
// for the whole cycle.
func (c *Client) drainSends() int {
	sent := 0
	for _, conn := range c.connectionsSnapshot() {
		for {
			pl := conn.frontOutbound()
			if pl == nil {
				break
			}

			_ = c.conn.SetWriteDeadline(time.Now())
			ver := wire.SendVersion(c.cfg.AppVersion, conn.knownVersion())
			buf := wire.EncodeData(c.cfg.AppID, ver, pl.Data())

			_, err := c.conn.WriteToUDP(buf, conn.addr)
			if err != nil {
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					return sent
				}
				c.tel.FramesDropped.WithLabelValues("send_error").Inc()
				pl.Release()
				conn.popOutbound()
				continue
			}

			c.tel.FramesSent.Inc()
			conn.noteSent()
			pl.Release()
			conn.popOutbound()
			sent++
		}
	}
	return sent
}

func (c *Client) handleDatagram(addr *net.UDPAddr, buf []byte) {
	frame, ok := wire.Decode(buf, c.cfg.MaxPayloadSize)
	if !ok {
		c.tel.FramesDropped.WithLabelValues("decode").Inc()
		return
	}

	key := address.Encode(addr)

	c.mu.RLock()
	conn, known := c.conns[key]
	c.mu.RUnlock()
	if !known {
		c.tel.FramesDropped.WithLabelValues("unknown_connection").Inc()
		return
	}

	var appID, appVersion uint16
	var payloadBytes []byte

	switch f := frame.(type) {
	case *wire.Control:
		appID, appVersion = f.AppID, f.AppVersion
	case *wire.Data:
		appID, appVersion = f.AppID, f.AppVersion
		payloadBytes = f.Payload
	}

	accept, newVer := wire.FilterAccept(appID, appVersion, c.cfg.AppID, c.cfg.AppVersion, conn.knownVersion())
	if !accept {
		c.tel.FramesDropped.WithLabelValues("app_filter").Inc()
		return
	}
	c.tel.FramesReceived.Inc()

	conn.onReply(newVer)

	if payloadBytes == nil {
		return
	}

	pl := payload.New(payload.OriginClient, c, len(payloadBytes))
	_ = pl.SetData(payloadBytes)
	pl.SetAppID(appID)
	pl.SetAppVersion(newVer)

	if c.cb.OnPayload != nil {
		pl.Hold()
		c.cb.OnPayload(c, conn, pl)
		pl.Release()
	}
}

func (c *Client) retransmitPending() int {
	sent := 0
	for _, conn := range c.connectionsSnapshot() {
		if !conn.dueForRetransmit(c.cfg.RetransmitInterval) {
			continue
		}

		if conn.Attempts() >= c.cfg.MaxConnectAttempts {
			conn.markDead()
			c.removeConnection(conn, DisconnectTimedOut)
			continue
		}

		c.sendConnect(conn)
		sent++
	}
	return sent
}

func (c *Client) expireIdleConnections() {
	for _, conn := range c.connectionsSnapshot() {
		if conn.State() != Connected {
			continue
		}
		if conn.idleSince() >= c.cfg.IdleTimeout {
			conn.markDead()
			c.removeConnection(conn, DisconnectTimedOut)
		}
	}
}

func (c *Client) removeConnection(conn *Connection, reason DisconnectReason) {
	c.mu.Lock()
	delete(c.conns, conn.id)
	c.mu.Unlock()

	c.tel.Connections.Set(float64(c.ConnectionCount()))
	if c.cb.OnDisconnect != nil {
		c.cb.OnDisconnect(c, conn, reason)
	}
}

func (c *Client) connectionsSnapshot() []*Connection {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Connection, 0, len(c.conns))
	for _, conn := range c.conns {
		out = append(out, conn)
	}
	return out
}

// ConnectionCount returns the number of connections currently tracked.
func (c *Client) ConnectionCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.conns)
}

const wireOverhead = 8
