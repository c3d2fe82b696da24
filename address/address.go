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

// Package address resolves and encodes the socket addresses peers and
// connections are identified by. Textual, a dotted-quad/colon-hex host
// plus a decimal port, is what the application and config layers deal
// in. Opaque is a fixed-size, directly comparable encoding suitable as a
// map key for the peer and connection tables, so the server and client
// packages never hash or stringify a net.UDPAddr on every lookup.
package address

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"golang.org/x/sys/unix"

	liberr "github.com/nabbar/udpmesh/errors"
)

// Textual is the human-readable form of a socket address.
type Textual struct {
	Host string
	Port string
}

func (t Textual) String() string {
	return net.JoinHostPort(t.Host, t.Port)
}

// Opaque is a fixed-size, comparable encoding of a resolved UDP address:
// one family tag byte, sixteen bytes of IP (IPv4 stored left-aligned,
// zero-padded), two bytes of big-endian port, and thirteen bytes of
// reserved padding. Being a plain array, it is safe to use as a map key.
type Opaque [32]byte

// Resolve performs the blocking name-service lookup §4's "out of scope"
// boundary defers to the host, turning a textual host:port into a
// *net.UDPAddr. It returns AddressError on failure, matching spec.md's
// UDPERR_ADDRESS_ERROR.
func Resolve(ctx context.Context, network, hostport string) (*net.UDPAddr, liberr.Error) {
	var resolver net.Resolver

	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		return nil, liberr.AddressError.Error(err)
	}

	ips, err := resolver.LookupIPAddr(ctx, host)
	if err != nil || len(ips) == 0 {
		return nil, liberr.AddressError.Error(err)
	}

	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, liberr.AddressError.Error(err)
	}

	return &net.UDPAddr{IP: ips[0].IP, Port: p, Zone: ips[0].Zone}, nil
}

// Format renders addr in the textual form the application sees, matching
// udp_peer_address_format's addr/port split.
func Format(addr *net.UDPAddr) Textual {
	return Textual{Host: addr.IP.String(), Port: strconv.Itoa(addr.Port)}
}

// Encode produces the opaque, comparable key used to identify addr in the
// peer and connection tables.
func Encode(addr *net.UDPAddr) Opaque {
	var o Opaque

	ip4 := addr.IP.To4()
	if ip4 != nil {
		o[0] = unix.AF_INET
		copy(o[1:5], ip4)
	} else {
		o[0] = unix.AF_INET6
		copy(o[1:17], addr.IP.To16())
	}

	o[17] = byte(addr.Port >> 8)
	o[18] = byte(addr.Port)

	return o
}

// Decode reverses Encode, rebuilding a *net.UDPAddr suitable for sending
// a reply datagram.
func Decode(o Opaque) (*net.UDPAddr, liberr.Error) {
	port := int(o[17])<<8 | int(o[18])

	switch o[0] {
	case unix.AF_INET:
		ip := make(net.IP, 4)
		copy(ip, o[1:5])
		return &net.UDPAddr{IP: ip, Port: port}, nil
	case unix.AF_INET6:
		ip := make(net.IP, 16)
		copy(ip, o[1:17])
		return &net.UDPAddr{IP: ip, Port: port}, nil
	default:
		return nil, liberr.InvalidArgument.Error(fmt.Errorf("unrecognized address family tag %d", o[0]))
	}
}
