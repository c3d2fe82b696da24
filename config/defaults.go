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

// Package config holds the validated parameter structs for a server
// instance and a client endpoint, mirroring udp_params_t and
// udp_client_params_t, loadable from file or environment through viper.
package config

import "time"

const (
	// DefaultPort is the server's default listen port.
	DefaultPort = 4812

	// DefaultMaxPayloadSize is used when a caller leaves MaxPayloadSize
	// at its zero value.
	DefaultMaxPayloadSize = 1200

	// MinPayloadSize is the smallest MaxPayloadSize Validate accepts.
	MinPayloadSize = 32

	// MaxPayloadSizeLimit is the largest sensible MaxPayloadSize
	// Validate accepts.
	MaxPayloadSizeLimit = 65496

	// DefaultRecvBufferSize is the default OS receive-buffer hint,
	// matching the teacher's libsck.DefaultBufferSize.
	DefaultRecvBufferSize = 32 * 1024

	// DefaultPeerIdleTimeout is how long a peer may stay silent before
	// the server expires it.
	DefaultPeerIdleTimeout = 5 * time.Second

	// DefaultRetransmitInterval is the client's connect-retry cadence.
	DefaultRetransmitInterval = 500 * time.Millisecond

	// DefaultMaxConnectAttempts bounds how many CONNECT transmissions,
	// the first included, a client sends before giving up on a connect.
	DefaultMaxConnectAttempts = 5

	// DefaultNetwork is the socket network passed to net.ListenUDP /
	// net.ResolveUDPAddr when a caller leaves Network unset.
	DefaultNetwork = "udp"
)
