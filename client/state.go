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

// State is one node of a Connection's handshake state machine (§4.5).
type State int

const (
	// PreConnect is the state right after connect() returns: the
	// CONNECT payload has been pushed and is being retransmitted, and
	// no reply has arrived yet.
	PreConnect State = iota + 1
	// Initial is entered on the first valid reply; a short setup grace
	// period before the connection is considered steady.
	Initial
	// Connected is the steady state: inbound data is delivered to
	// OnPayload as it arrives.
	Connected
	// Final is entered once Disconnect has been called; a best-effort
	// DISCONNECT has been sent and the outbound queue is dropped.
	Final
	// Dead is terminal; the connection is eligible for removal from the
	// client's table.
	Dead
)

func (s State) String() string {
	switch s {
	case PreConnect:
		return "preconnect"
	case Initial:
		return "initial"
	case Connected:
		return "connected"
	case Final:
		return "final"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// DisconnectReason explains why a connection left the client's table and
// was reported through OnDisconnect.
type DisconnectReason int

const (
	// DisconnectTimedOut means either the connect retransmit budget was
	// exhausted or an established connection went idle past the
	// configured timeout.
	DisconnectTimedOut DisconnectReason = iota + 1
	// DisconnectLocal means the application called Disconnect.
	DisconnectLocal
)

func (r DisconnectReason) String() string {
	switch r {
	case DisconnectTimedOut:
		return "timed_out"
	case DisconnectLocal:
		return "client_disconnected"
	default:
		return "unknown"
	}
}
