// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package codeview

import "encoding/binary"

// ReadNumeric decodes a numeric leaf from the front of data. A two-byte
// value below LF_NUMERIC is the value itself; otherwise the value selects
// the width of the integer that follows. Signed forms are returned
// sign-extended into the uint64. ok is false if data is too short or the
// selector names a form this library does not carry.
func ReadNumeric(data []byte) (value uint64, n int, ok bool) {
	if len(data) < 2 {
		return 0, 0, false
	}
	selector := LeafKind(binary.LittleEndian.Uint16(data))
	if selector < LF_NUMERIC {
		return uint64(selector), 2, true
	}
	switch selector {
	case LF_CHAR:
		if len(data) < 3 {
			return 0, 0, false
		}
		return uint64(int64(int8(data[2]))), 3, true
	case LF_SHORT:
		if len(data) < 4 {
			return 0, 0, false
		}
		return uint64(int64(int16(binary.LittleEndian.Uint16(data[2:])))), 4, true
	case LF_USHORT:
		if len(data) < 4 {
			return 0, 0, false
		}
		return uint64(binary.LittleEndian.Uint16(data[2:])), 4, true
	case LF_LONG:
		if len(data) < 6 {
			return 0, 0, false
		}
		return uint64(int64(int32(binary.LittleEndian.Uint32(data[2:])))), 6, true
	case LF_ULONG:
		if len(data) < 6 {
			return 0, 0, false
		}
		return uint64(binary.LittleEndian.Uint32(data[2:])), 6, true
	case LF_QUADWORD, LF_UQUADWORD:
		if len(data) < 10 {
			return 0, 0, false
		}
		return binary.LittleEndian.Uint64(data[2:]), 10, true
	}
	return 0, 0, false
}

// AppendNumeric appends the most compact numeric leaf encoding of value.
func AppendNumeric(buf []byte, value uint64) []byte {
	switch {
	case value < uint64(LF_NUMERIC):
		return binary.LittleEndian.AppendUint16(buf, uint16(value))
	case value <= 0xFFFF:
		buf = binary.LittleEndian.AppendUint16(buf, uint16(LF_USHORT))
		return binary.LittleEndian.AppendUint16(buf, uint16(value))
	case value <= 0xFFFFFFFF:
		buf = binary.LittleEndian.AppendUint16(buf, uint16(LF_ULONG))
		return binary.LittleEndian.AppendUint32(buf, uint32(value))
	default:
		buf = binary.LittleEndian.AppendUint16(buf, uint16(LF_UQUADWORD))
		return binary.LittleEndian.AppendUint64(buf, value)
	}
}

// ReadCString decodes a NUL-terminated string from the front of data,
// returning the string and the number of bytes consumed including the
// terminator. ok is false if no terminator is present.
func ReadCString(data []byte) (s string, n int, ok bool) {
	for i, b := range data {
		if b == 0 {
			return string(data[:i]), i + 1, true
		}
	}
	return "", 0, false
}
