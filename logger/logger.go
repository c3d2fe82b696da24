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

// Package logger wraps a logrus.Logger with the field conventions the
// server and client packages use: every entry carries at least the
// endpoint kind ("server"/"client"), and WithAddr adds a peer or
// connection address field, so a single log stream can be grepped by
// either. The server and client packages do not call WithAddr themselves.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the leveled, structured logger handed to a server instance or
// client endpoint at construction.
type Logger struct {
	*logrus.Entry
}

// New builds a Logger writing JSON lines to out (os.Stderr if nil) at the
// given level, pre-populated with the "endpoint" field so every line it
// produces is attributable to a server or a client.
func New(endpoint string, lvl logrus.Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}

	base := logrus.New()
	base.SetOutput(out)
	base.SetLevel(lvl)
	base.SetFormatter(&logrus.JSONFormatter{})

	return &Logger{Entry: base.WithField("endpoint", endpoint)}
}

// WithAddr returns a child logger tagging every entry with the given
// peer or connection address.
func (l *Logger) WithAddr(addr string) *Logger {
	return &Logger{Entry: l.Entry.WithField("addr", addr)}
}

// Discard is a Logger that drops everything, for callers that did not
// configure one.
func Discard() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{Entry: logrus.NewEntry(base)}
}
