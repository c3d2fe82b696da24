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
	"time"

	liberr "github.com/nabbar/udpmesh/errors"
)

// Client is the validated parameter set a client endpoint is created
// from, mirroring udp_client_params_t plus this module's retransmit
// cadence additions.
type Client struct {
	Network            string        `mapstructure:"network" json:"network" yaml:"network" toml:"network"`
	AppID              uint16        `mapstructure:"app_id" json:"app_id" yaml:"app_id" toml:"app_id"`
	AppVersion         uint16        `mapstructure:"app_version" json:"app_version" yaml:"app_version" toml:"app_version"`
	MaxPayloadSize     int           `mapstructure:"max_payload_size" json:"max_payload_size" yaml:"max_payload_size" toml:"max_payload_size"`
	RetransmitInterval time.Duration `mapstructure:"retransmit_interval" json:"retransmit_interval" yaml:"retransmit_interval" toml:"retransmit_interval"`
	MaxConnectAttempts int           `mapstructure:"max_connect_attempts" json:"max_connect_attempts" yaml:"max_connect_attempts" toml:"max_connect_attempts"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout" json:"idle_timeout" yaml:"idle_timeout" toml:"idle_timeout"`
}

// Validate fills in zero-valued fields with their defaults and rejects
// out-of-range values.
func (c *Client) Validate() liberr.Error {
	if c.Network == "" {
		c.Network = DefaultNetwork
	}

	if c.MaxPayloadSize == 0 {
		c.MaxPayloadSize = DefaultMaxPayloadSize
	} else if c.MaxPayloadSize < MinPayloadSize {
		return liberr.Newf(liberr.InvalidArgument.Uint16(), "max_payload_size %d below minimum %d", c.MaxPayloadSize, MinPayloadSize)
	} else if c.MaxPayloadSize > MaxPayloadSizeLimit {
		return liberr.Newf(liberr.InvalidArgument.Uint16(), "max_payload_size %d above limit %d", c.MaxPayloadSize, MaxPayloadSizeLimit)
	}

	if c.RetransmitInterval <= 0 {
		c.RetransmitInterval = DefaultRetransmitInterval
	}

	if c.MaxConnectAttempts <= 0 {
		c.MaxConnectAttempts = DefaultMaxConnectAttempts
	}

	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultPeerIdleTimeout
	}

	return nil
}
