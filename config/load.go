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
	"strings"

	"github.com/spf13/viper"

	liberr "github.com/nabbar/udpmesh/errors"
)

// newViper builds a viper instance reading both a config file (TOML, YAML
// or JSON, guessed from the extension) and UDPMESH_-prefixed environment
// variables, the latter taking precedence.
func newViper(path string) (*viper.Viper, liberr.Error) {
	v := viper.New()
	v.SetEnvPrefix("UDPMESH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, liberr.IOError.Error(err)
		}
	}

	return v, nil
}

// LoadServer reads a Server configuration from path (empty reads only
// the environment) and validates it.
func LoadServer(path string) (*Server, liberr.Error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}

	cfg := &Server{}
	if e := v.Unmarshal(cfg); e != nil {
		return nil, liberr.InvalidArgument.Error(e)
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadClient reads a Client configuration from path (empty reads only
// the environment) and validates it.
func LoadClient(path string) (*Client, liberr.Error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}

	cfg := &Client{}
	if e := v.Unmarshal(cfg); e != nil {
		return nil, liberr.InvalidArgument.Error(e)
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
