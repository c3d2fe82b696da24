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

package config

import (
	"fmt"
	"time"

	liberr "github.com/nabbar/udpmesh/errors"
)

// Server is the validated parameter set a server instance is created
// from, mirroring udp_params_t's port/app-id/app-version/payload-size
// fields plus this module's own recv-buffer and idle-timeout additions.
type Server struct {
	Network         string        `mapstructure:"network" json:"network" yaml:"network" toml:"network"`
	Address         string        `mapstructure:"address" json:"address" yaml:"address" toml:"address"`
	AppID           uint16        `mapstructure:"app_id" json:"app_id" yaml:"app_id" toml:"app_id"`
	AppVersion      uint16        `mapstructure:"app_version" json:"app_version" yaml:"app_version" toml:"app_version"`
	MaxPayloadSize  int           `mapstructure:"max_payload_size" json:"max_payload_size" yaml:"max_payload_size" toml:"max_payload_size"`
	RecvBufferSize  int           `mapstructure:"recv_buffer_size" json:"recv_buffer_size" yaml:"recv_buffer_size" toml:"recv_buffer_size"`
	PeerIdleTimeout time.Duration `mapstructure:"peer_idle_timeout" json:"peer_idle_timeout" yaml:"peer_idle_timeout" toml:"peer_idle_timeout"`
}

// Validate fills in zero-valued fields with their defaults and rejects
// out-of-range values, returning InvalidArgument exactly where spec.md §6
// requires initialization to fail rather than clamp silently.
func (s *Server) Validate() liberr.Error {
	if s.Network == "" {
		s.Network = DefaultNetwork
	}

	if s.Address == "" {
		s.Address = fmt.Sprintf(":%d", DefaultPort)
	}

	if s.MaxPayloadSize == 0 {
		s.MaxPayloadSize = DefaultMaxPayloadSize
	} else if s.MaxPayloadSize < MinPayloadSize {
		return liberr.Newf(liberr.InvalidArgument.Uint16(), "max_payload_size %d below minimum %d", s.MaxPayloadSize, MinPayloadSize)
	} else if s.MaxPayloadSize > MaxPayloadSizeLimit {
		return liberr.Newf(liberr.InvalidArgument.Uint16(), "max_payload_size %d above limit %d", s.MaxPayloadSize, MaxPayloadSizeLimit)
	}

	if s.RecvBufferSize <= 0 {
		s.RecvBufferSize = DefaultRecvBufferSize
	}

	if s.PeerIdleTimeout <= 0 {
		s.PeerIdleTimeout = DefaultPeerIdleTimeout
	}

	return nil
}
