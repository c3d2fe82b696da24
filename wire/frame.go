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

// Package wire implements the datagram framing shared by the server and
// client endpoints: two frame shapes distinguished by length, both CRC
// protected, both carrying an app-id/app-version suffix used to filter
// traffic from foreign or stale applications before it ever reaches peer
// or connection state.
package wire

import "encoding/binary"

// controlFrameSize is the fixed length of a control frame: crc16(2) +
// command(2) + app_id(2) + app_version(2).
const controlFrameSize = 8

// Control is a decoded control frame.
type Control struct {
	Command    Command
	AppID      uint16
	AppVersion uint16
}

// Data is a decoded data frame. Payload aliases the tail of the buffer
// passed to Decode; callers that retain it past the read buffer's reuse
// must copy it.
type Data struct {
	AppID      uint16
	AppVersion uint16
	Payload    []byte
}

// EncodeControl serializes a control frame, computing its CRC-16 over the
// command/app_id/app_version bytes.
func EncodeControl(cmd Command, appID, appVersion uint16) []byte {
	buf := make([]byte, controlFrameSize)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(cmd))
	binary.LittleEndian.PutUint16(buf[4:6], appID)
	binary.LittleEndian.PutUint16(buf[6:8], appVersion)
	binary.LittleEndian.PutUint16(buf[0:2], CRC16(buf[2:8]))
	return buf
}

// EncodeData serializes a data frame, computing its CRC-32 over the
// app_id/app_version/payload bytes.
func EncodeData(appID, appVersion uint16, payload []byte) []byte {
	buf := make([]byte, 4+2+2+len(payload))
	binary.LittleEndian.PutUint16(buf[4:6], appID)
	binary.LittleEndian.PutUint16(buf[6:8], appVersion)
	copy(buf[8:], payload)
	binary.LittleEndian.PutUint32(buf[0:4], CRC32(buf[4:]))
	return buf
}

// Decode inspects buf and returns either a *Control or a *Data frame.
// maxPayloadSize is the receiving endpoint's configured limit; a data
// frame whose payload would exceed it is dropped. ok is false for every
// malformed, oversize, or CRC-mismatched buffer — §4.1 specifies these as
// silent drops, never errors, since they are expected from adversarial or
// merely noisy traffic.
func Decode(buf []byte, maxPayloadSize int) (frame any, ok bool) {
	switch {
	case len(buf) == controlFrameSize:
		c, ok := decodeControl(buf)
		if !ok {
			return nil, false
		}
		return c, true
	case len(buf) > controlFrameSize && len(buf) <= maxPayloadSize+controlFrameSize:
		d, ok := decodeData(buf)
		if !ok {
			return nil, false
		}
		return d, true
	default:
		return nil, false
	}
}

func decodeControl(buf []byte) (*Control, bool) {
	want := binary.LittleEndian.Uint16(buf[0:2])
	got := CRC16(buf[2:8])
	if want != got {
		return nil, false
	}

	cmd := Command(binary.LittleEndian.Uint16(buf[2:4]))
	if !cmd.Known() {
		return nil, false
	}

	return &Control{
		Command:    cmd,
		AppID:      binary.LittleEndian.Uint16(buf[4:6]),
		AppVersion: binary.LittleEndian.Uint16(buf[6:8]),
	}, true
}

func decodeData(buf []byte) (*Data, bool) {
	want := binary.LittleEndian.Uint32(buf[0:4])
	got := CRC32(buf[4:])
	if want != got {
		return nil, false
	}

	return &Data{
		AppID:      binary.LittleEndian.Uint16(buf[4:6]),
		AppVersion: binary.LittleEndian.Uint16(buf[6:8]),
		Payload:    buf[8:],
	}, true
}

// FilterAccept implements the app-id/app-version admission rule from
// §4.1: the app_id must match exactly; the app_version must be at least
// the local version, unless the sender is a peer already known (known
// non-nil), in which case a lower version is accepted and becomes the
// peer's new recorded remote version. updatedRemoteVersion is only
// meaningful when accept is true.
func FilterAccept(senderAppID, senderAppVersion, localAppID, localAppVersion uint16, known *uint16) (accept bool, updatedRemoteVersion uint16) {
	if senderAppID != localAppID {
		return false, 0
	}

	if senderAppVersion >= localAppVersion {
		return true, senderAppVersion
	}

	if known == nil {
		return false, 0
	}

	return true, senderAppVersion
}

// SendVersion picks the app_version to stamp on an outbound frame: the
// smaller of the local version and any already-known remote version for
// that destination.
func SendVersion(localAppVersion uint16, known *uint16) uint16 {
	if known != nil && *known < localAppVersion {
		return *known
	}
	return localAppVersion
}
