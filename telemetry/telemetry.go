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

// Package telemetry exposes the Prometheus metrics a server instance or
// client endpoint updates from its polling loop, plus correlation-id and
// sequence-counter helpers for diagnostics (supplementing spec.md per the
// original source's per-connection sequence-counter diagnostics, never
// placed on the wire — see SPEC_FULL.md §4). The server and client
// packages do not call these helpers.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Server holds the gauges and counters a server instance updates once
// per polling cycle.
type Server struct {
	Peers           prometheus.Gauge
	Groups          prometheus.Gauge
	FramesReceived  prometheus.Counter
	FramesSent      prometheus.Counter
	FramesDropped   *prometheus.CounterVec
	PeersExpired    *prometheus.CounterVec
}

// NewServer registers a Server's metrics under reg (pass
// prometheus.DefaultRegisterer, or a fresh prometheus.NewRegistry() in
// tests to avoid collisions between instances).
func NewServer(reg prometheus.Registerer) *Server {
	s := &Server{
		Peers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "udpmesh", Subsystem: "server", Name: "peers",
			Help: "Current number of peers known to the server.",
		}),
		Groups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "udpmesh", Subsystem: "server", Name: "groups",
			Help: "Current number of groups known to the server.",
		}),
		FramesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "udpmesh", Subsystem: "server", Name: "frames_received_total",
			Help: "Frames successfully decoded and accepted.",
		}),
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "udpmesh", Subsystem: "server", Name: "frames_sent_total",
			Help: "Frames written to the socket.",
		}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "udpmesh", Subsystem: "server", Name: "frames_dropped_total",
			Help: "Frames silently dropped, by reason.",
		}, []string{"reason"}),
		PeersExpired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "udpmesh", Subsystem: "server", Name: "peers_expired_total",
			Help: "Peers removed from the table, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(s.Peers, s.Groups, s.FramesReceived, s.FramesSent, s.FramesDropped, s.PeersExpired)
	return s
}

// Client holds the gauges and counters a client endpoint updates.
type Client struct {
	Connections     prometheus.Gauge
	FramesReceived  prometheus.Counter
	FramesSent      prometheus.Counter
	FramesDropped   *prometheus.CounterVec
	ConnectAttempts prometheus.Counter
}

// NewClient registers a Client's metrics under reg.
func NewClient(reg prometheus.Registerer) *Client {
	c := &Client{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "udpmesh", Subsystem: "client", Name: "connections",
			Help: "Current number of live connections.",
		}),
		FramesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "udpmesh", Subsystem: "client", Name: "frames_received_total",
			Help: "Frames successfully decoded and accepted.",
		}),
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "udpmesh", Subsystem: "client", Name: "frames_sent_total",
			Help: "Frames written to the socket.",
		}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "udpmesh", Subsystem: "client", Name: "frames_dropped_total",
			Help: "Frames silently dropped, by reason.",
		}, []string{"reason"}),
		ConnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "udpmesh", Subsystem: "client", Name: "connect_attempts_total",
			Help: "CONNECT frames transmitted, including retransmits.",
		}),
	}

	reg.MustRegister(c.Connections, c.FramesReceived, c.FramesSent, c.FramesDropped, c.ConnectAttempts)
	return c
}
