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

package errors

// The six stable error codes a caller of this module can observe, either as
// a function return or inside an on_error callback's formatted trace. Their
// numeric values are part of the wire-adjacent contract and must never be
// renumbered.
const (
	OK               CodeError = 0
	OutOfMemory      CodeError = 1
	SocketError      CodeError = 2
	IOError          CodeError = 3
	AddressError     CodeError = 4
	InvalidArgument  CodeError = 5
)

func init() {
	RegisterIdFctMessage(OK, func(code CodeError) string {
		switch code {
		case OK:
			return "ok"
		case OutOfMemory:
			return "allocation failed"
		case SocketError:
			return "socket error"
		case IOError:
			return "i/o error"
		case AddressError:
			return "address error"
		case InvalidArgument:
			return "invalid argument"
		default:
			return UnknownMessage
		}
	})
}
