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

package wire

// Command identifies the meaning of a control frame's command field.
type Command uint16

const (
	// CommandConnect opens a client connection handshake.
	CommandConnect Command = 1
	// CommandDisconnect tears down a client connection.
	CommandDisconnect Command = 2
)

// Known reports whether c is a command this module understands. An unknown
// command is a reason to drop the frame silently, not an error.
func (c Command) Known() bool {
	switch c {
	case CommandConnect, CommandDisconnect:
		return true
	default:
		return false
	}
}

func (c Command) String() string {
	switch c {
	case CommandConnect:
		return "connect"
	case CommandDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}
