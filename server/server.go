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

// Package server implements the listening side of the mesh: one UDP
// socket, a table of peers keyed by their opaque address, and the
// application-defined groups that decide which peers may exchange
// payloads. A Server is created with a fixed set of callbacks (mirroring
// udp_params_t's function-pointer fields) and is driven either by
// repeated calls to Poll or by handing it to a runner.Owned.
package server

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

// Callbacks mirrors udp_params_t's function-pointer fields. A nil
// callback is simply never invoked. New takes Callbacks by value and keeps
// its own copy; handlers that need application state capture it in their
// closures.
type Callbacks struct {
	// OnError reports a socket or I/O failure encountered while polling.
	OnError func(s *Server, err liberr.Error)
	// OnIdle is called once at the end of every Poll cycle that found
	// nothing left to read, whether driven or owned.
	OnIdle func(s *Server)
	// OnPeerNew is called when a datagram arrives from an address with
	// no group membership yet. The peer is not added to any table until
	// the callback calls GroupAddPeer on it.
	OnPeerNew func(s *Server, peer *Peer, pl *payload.Payload)
	// OnPeerExpired is called once a peer has left every group it
	// belonged to, whether by timeout, explicit removal, or group
	// teardown.
	OnPeerExpired func(s *Server, peer *Peer, reason PeerReason)
}

// Server is a single UDP listening endpoint plus its peer and group
// tables.
type Server struct {
	cfg *config.Server
	cb  Callbacks
	log *logger.Logger
	tel *telemetry.Server

	conn    *net.UDPConn
	recvBuf []byte

	mu     sync.RWMutex
	peers  map[address.Opaque]*Peer
	groups map[string]GroupRef
}

// New builds a Server from a validated config, its callback set, a
// logger, and a metrics sink. It does not open a socket; call Listen.
func New(cfg *config.Server, cb Callbacks, log *logger.Logger, tel *telemetry.Server) *Server {
	if log == nil {
		log = logger.Discard()
	}
	if tel == nil {
		tel = telemetry.NewServer(prometheus.NewRegistry())
	}

	return &Server{
		cfg:     cfg,
		cb:      cb,
		log:     log,
		tel:     tel,
		recvBuf: make([]byte, cfg.MaxPayloadSize+wireOverhead),
		peers:   make(map[address.Opaque]*Peer),
		groups:  make(map[string]GroupRef),
	}
}

// ReportError satisfies payload.ErrorReporter, routing a misuse report
// (e.g. Hold on an already-freed payload minted by this server) to
// OnError exactly like a socket failure would be.
func (s *Server) ReportError(err liberr.Error) {
	if s.cb.OnError != nil {
		s.cb.OnError(s, err)
	}
}

// Listen opens the UDP socket described by cfg.Network/cfg.Address.
func (s *Server) Listen() liberr.Error {
	addr, err := net.ResolveUDPAddr(s.cfg.Network, s.cfg.Address)
	if err != nil {
		return liberr.AddressError.Error(err)
	}

	conn, err := net.ListenUDP(s.cfg.Network, addr)
	if err != nil {
		return liberr.SocketError.Error(err)
	}

	if s.cfg.RecvBufferSize > 0 {
		_ = conn.SetReadBuffer(s.cfg.RecvBufferSize)
	}

	s.conn = conn
	s.log.Info("server listening")
	return nil
}

// LocalAddr returns the socket's bound address, useful for logging and
// for tests that need to dial the server without a fixed port.
func (s *Server) LocalAddr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Close releases the socket. Per §5's cancellation rule it first releases
// every payload reference still held in a peer's outbound queue; it does
// not otherwise touch the peer or group tables, matching udp_terminate's
// "call once you've stopped polling" contract.
func (s *Server) Close() liberr.Error {
	if s.conn == nil {
		return nil
	}

	s.mu.RLock()
	peers := make([]*Peer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.RUnlock()

	for _, p := range peers {
		p.dropOutbound()
	}

	if err := s.conn.Close(); err != nil {
		return liberr.SocketError.Error(err)
	}
	return nil
}

// Driven wraps Poll for caller-scheduled polling (§5's driven mode).
func (s *Server) Driven() *runner.Driven {
	return runner.NewDriven(s.Poll)
}

// Owned wraps Poll for library-scheduled polling (§5's owned mode) at
// the default cadence.
func (s *Server) Owned() *runner.Owned {
	return runner.NewOwned(s.Poll)
}

// Poll runs one cycle of the four-phase loop: drain receives, drain
// sends, age out idle peers, then fire OnIdle. It returns the number of
// frames processed (received plus sent) and a non-nil error only for a
// genuine socket failure, never for a single dropped or malformed
// datagram.
func (s *Server) Poll(ctx context.Context) (int, error) {
	if s.conn == nil {
		return 0, liberr.InvalidArgument.Error(nil)
	}

	processed := 0

	for {
		select {
		case <-ctx.Done():
			return processed, nil
		default:
		}

		_ = s.conn.SetReadDeadline(time.Now())
		n, addr, err := s.conn.ReadFromUDP(s.recvBuf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				break
			}
			wrapped := liberr.SocketError.Error(err)
			if s.cb.OnError != nil {
				s.cb.OnError(s, wrapped)
			}
			return processed, wrapped
		}

		processed++
		s.handleDatagram(addr, s.recvBuf[:n])
	}

	processed += s.drainSends()

	s.expireIdlePeers()

	if s.cb.OnIdle != nil {
		s.cb.OnIdle(s)
	}
	return processed, nil
}

// drainSends is Poll's "drain sends" phase (§4.4 step 2): for every peer
// with a non-empty outbound queue, it writes as many datagrams as the
// socket accepts without blocking, releasing each payload's reference as
// its datagram clears the socket. A write that would block stops
// draining for the whole cycle, matching the "stop on would-block" rule.
func (s *Server) drainSends() int {
	s.mu.RLock()
	peers := make([]*Peer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.RUnlock()

	sent := 0
	for _, p := range peers {
		for {
			pl := p.frontOutbound()
			if pl == nil {
				break
			}

			_ = s.conn.SetWriteDeadline(time.Now())
			ver := wire.SendVersion(s.cfg.AppVersion, p.knownVersion())
			buf := wire.EncodeData(s.cfg.AppID, ver, pl.Data())

			_, err := s.conn.WriteToUDP(buf, p.addr)
			if err != nil {
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					return sent
				}
				s.tel.FramesDropped.WithLabelValues("send_error").Inc()
				pl.Release()
				p.popOutbound()
				continue
			}

			s.tel.FramesSent.Inc()
			p.markSent()
			pl.Release()
			p.popOutbound()
			sent++
		}
	}
	return sent
}

func (s *Server) handleDatagram(addr *net.UDPAddr, buf []byte) {
	frame, ok := wire.Decode(buf, s.cfg.MaxPayloadSize)
	if !ok {
		s.tel.FramesDropped.WithLabelValues("decode").Inc()
		return
	}

	key := address.Encode(addr)

	s.mu.RLock()
	peer, known := s.peers[key]
	s.mu.RUnlock()

	switch f := frame.(type) {
	case *wire.Control:
		s.handleControl(addr, key, peer, known, f)
	case *wire.Data:
		s.handleData(addr, key, peer, known, f)
	}
}

func (s *Server) handleControl(addr *net.UDPAddr, key address.Opaque, peer *Peer, known bool, f *wire.Control) {
	var knownVer *uint16
	if known {
		knownVer = peer.knownVersion()
	}

	accept, newVer := wire.FilterAccept(f.AppID, f.AppVersion, s.cfg.AppID, s.cfg.AppVersion, knownVer)
	if !accept {
		s.tel.FramesDropped.WithLabelValues("app_filter").Inc()
		return
	}
	s.tel.FramesReceived.Inc()

	switch f.Command {
	case wire.CommandDisconnect:
		if known {
			for _, g := range peer.GroupsPeek() {
				s.removePeerFromGroup(peer, g, PeerDisconnected)
			}
		}
	case wire.CommandConnect:
		if !known {
			s.announceNewPeer(key, addr, newVer, payload.New(payload.OriginServer, s, 0))
		} else {
			peer.touch(newVer)
		}
	}
}

func (s *Server) handleData(addr *net.UDPAddr, key address.Opaque, peer *Peer, known bool, f *wire.Data) {
	var knownVer *uint16
	if known {
		knownVer = peer.knownVersion()
	}

	accept, newVer := wire.FilterAccept(f.AppID, f.AppVersion, s.cfg.AppID, s.cfg.AppVersion, knownVer)
	if !accept {
		s.tel.FramesDropped.WithLabelValues("app_filter").Inc()
		return
	}
	s.tel.FramesReceived.Inc()

	pl := payload.New(payload.OriginServer, s, len(f.Payload))
	_ = pl.SetData(f.Payload)
	pl.SetAppID(f.AppID)
	pl.SetAppVersion(newVer)

	if !known {
		s.announceNewPeer(key, addr, newVer, pl)
		return
	}

	peer.touch(newVer)
	for _, g := range peer.GroupsPeek() {
		pl.Hold()
		g.deliverMessage(peer, pl)
		pl.Release()
	}
}

func (s *Server) announceNewPeer(key address.Opaque, addr *net.UDPAddr, remoteVer uint16, pl *payload.Payload) {
	peer := newPeer(key, addr, remoteVer)
	if s.cb.OnPeerNew == nil {
		return
	}
	pl.Hold()
	s.cb.OnPeerNew(s, peer, pl)
	pl.Release()
}

// CreateGroup registers a group with this server.
func (s *Server) CreateGroup(g GroupRef) {
	s.mu.Lock()
	s.groups[g.ID()] = g
	s.mu.Unlock()
}

// DestroyGroup removes a group and releases every peer attached to it;
// peers left with no remaining group membership expire with
// PeerLastGroupDestroyed.
func (s *Server) DestroyGroup(g GroupRef) {
	s.mu.Lock()
	delete(s.groups, g.ID())
	s.mu.Unlock()

	for _, p := range g.PeersPeek() {
		s.removePeerFromGroup(p, g, PeerLastGroupDestroyed)
	}
}

// GroupAddPeer attaches peer to g, making peer visible in the server's
// peer table for the first time if it was not already attached to
// another group.
func (s *Server) GroupAddPeer(peer *Peer, g GroupRef) liberr.Error {
	if peer == nil || g == nil {
		return liberr.InvalidArgument.Error(nil)
	}

	s.mu.Lock()
	s.peers[peer.id] = peer
	s.mu.Unlock()

	peer.addGroup(g)
	g.addPeer(peer)
	s.tel.Peers.Set(float64(s.PeerCount()))
	return nil
}

// GroupRemovePeer detaches peer from g. If that was peer's last group,
// the peer expires from the server's table with PeerRemoved.
func (s *Server) GroupRemovePeer(peer *Peer, g GroupRef) liberr.Error {
	if peer == nil || g == nil {
		return liberr.InvalidArgument.Error(nil)
	}
	s.removePeerFromGroup(peer, g, PeerRemoved)
	return nil
}

func (s *Server) removePeerFromGroup(peer *Peer, g GroupRef, reason PeerReason) {
	g.removePeer(peer)
	remaining := peer.removeGroup(g)

	g.deliverRemoved(peer, reason)

	if remaining == 0 {
		s.mu.Lock()
		delete(s.peers, peer.id)
		s.mu.Unlock()
		s.tel.Peers.Set(float64(s.PeerCount()))
		s.tel.PeersExpired.WithLabelValues(reason.String()).Inc()
		if s.cb.OnPeerExpired != nil {
			s.cb.OnPeerExpired(s, peer, reason)
		}
	}
}

func (s *Server) expireIdlePeers() {
	s.mu.RLock()
	stale := make([]*Peer, 0)
	for _, p := range s.peers {
		if p.idleSince() >= s.cfg.PeerIdleTimeout {
			stale = append(stale, p)
		}
	}
	s.mu.RUnlock()

	for _, p := range stale {
		for _, g := range p.GroupsPeek() {
			s.removePeerFromGroup(p, g, PeerTimedOut)
		}
	}
}

// PeerCount returns the number of peers currently tracked.
func (s *Server) PeerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}

// GroupCount returns the number of groups currently registered.
func (s *Server) GroupCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.groups)
}

// NewPayload mints an empty payload the application can fill in and
// enqueue through EnqueuePeer or EnqueueGroup.
func (s *Server) NewPayload() *payload.Payload {
	return payload.New(payload.OriginServer, s, s.cfg.MaxPayloadSize)
}

// EnqueuePeer places pl on peer's outbound queue, consuming pl's
// refcount (matching udp_peer_payload_enqueue's ownership transfer). The
// datagram itself is written from the polling thread's drain-sends
// phase, preserving FIFO order per peer (§5).
func (s *Server) EnqueuePeer(peer *Peer, pl *payload.Payload) liberr.Error {
	if !pl.CanEnqueueFrom(s) {
		pl.Release()
		return liberr.InvalidArgument.Error(nil)
	}
	peer.pushOutbound(pl)
	return nil
}

// EnqueueGroup places pl on every current member of g's outbound queue,
// consuming pl's refcount. Each peer's copy is drained independently in
// FIFO order by the polling thread.
func (s *Server) EnqueueGroup(g GroupRef, pl *payload.Payload) liberr.Error {
	if !pl.CanEnqueueFrom(s) {
		pl.Release()
		return liberr.InvalidArgument.Error(nil)
	}

	peers := g.PeersPeek()
	for _, p := range peers {
		pl.Hold()
		p.pushOutbound(pl)
	}
	pl.Release()
	return nil
}

// wireOverhead bounds the extra bytes a data frame's crc32/app_id/app_version
// header adds ahead of the payload itself.
const wireOverhead = 8
