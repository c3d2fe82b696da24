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

package errors_test

import (
	"testing"

	liberr "github.com/nabbar/udpmesh/errors"
)

func TestCodeValues(t *testing.T) {
	tests := []struct {
		nam string
		cod liberr.CodeError
		exp uint16
	}{
		{"OK", liberr.OK, 0},
		{"OutOfMemory", liberr.OutOfMemory, 1},
		{"SocketError", liberr.SocketError, 2},
		{"IOError", liberr.IOError, 3},
		{"AddressError", liberr.AddressError, 4},
		{"InvalidArgument", liberr.InvalidArgument, 5},
	}

	for _, tc := range tests {
		t.Run(tc.nam, func(t *testing.T) {
			if tc.cod.Uint16() != tc.exp {
				t.Errorf("%s.Uint16() = %d, want %d", tc.nam, tc.cod.Uint16(), tc.exp)
			}
		})
	}
}

func TestCodeMessage(t *testing.T) {
	tests := []struct {
		cod liberr.CodeError
		exp string
	}{
		{liberr.SocketError, "socket error"},
		{liberr.InvalidArgument, "invalid argument"},
		{liberr.AddressError, "address error"},
	}

	for _, tc := range tests {
		if got := tc.cod.Message(); got != tc.exp {
			t.Errorf("%v.Message() = %q, want %q", tc.cod, got, tc.exp)
		}
	}
}

func TestCodeErrorConstruction(t *testing.T) {
	err := liberr.InvalidArgument.Error(nil)

	if err == nil {
		t.Fatal("expected a non-nil Error")
	}

	if !err.IsCode(liberr.InvalidArgument) {
		t.Errorf("expected IsCode(InvalidArgument) to be true")
	}

	if !err.HasCode(liberr.InvalidArgument) {
		t.Errorf("expected HasCode(InvalidArgument) to be true")
	}
}

func TestCodeErrorParentChain(t *testing.T) {
	root := liberr.SocketError.Error(nil)
	wrap := liberr.IOError.Error(nil)
	wrap.Add(root)

	if !wrap.HasCode(liberr.SocketError) {
		t.Errorf("expected parent chain to surface SocketError")
	}

	if !wrap.HasParent() {
		t.Errorf("expected HasParent() to be true once a parent is added")
	}
}
