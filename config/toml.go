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

import "github.com/pelletier/go-toml"

// MarshalTOML lets Server be written out verbatim as a starting config
// file, independent of the viper-driven load path.
func (s Server) MarshalTOML() ([]byte, error) {
	type plain Server
	return toml.Marshal(plain(s))
}

// UnmarshalTOML satisfies toml.Unmarshaler for round-tripping a Server
// through a hand-edited TOML file outside of the viper loader. data may
// also be the TOML text itself, as a string or []byte.
func (s *Server) UnmarshalTOML(data interface{}) error {
	type plain Server
	var buf []byte
	switch v := data.(type) {
	case string:
		buf = []byte(v)
	case []byte:
		buf = v
	default:
		b, err := toml.Marshal(data)
		if err != nil {
			return err
		}
		buf = b
	}
	return toml.Unmarshal(buf, (*plain)(s))
}

// MarshalTOML lets Client be written out verbatim as a starting config
// file, independent of the viper-driven load path.
func (c Client) MarshalTOML() ([]byte, error) {
	type plain Client
	return toml.Marshal(plain(c))
}

// UnmarshalTOML satisfies toml.Unmarshaler for round-tripping a Client
// through a hand-edited TOML file outside of the viper loader.
func (c *Client) UnmarshalTOML(data interface{}) error {
	buf, err := toml.Marshal(data)
	if err != nil {
		return err
	}
	type plain Client
	return toml.Unmarshal(buf, (*plain)(c))
}
