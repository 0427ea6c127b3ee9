// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package codeview

import (
	"encoding/binary"

	"github.com/cockroachdb/pdb/internal/base"
	"github.com/pkg/errors"
)

// ErrMalformedRecord indicates a record whose length or shape is impossible
// for the stream that contains it.
var ErrMalformedRecord = base.MarkCorruptionError(errors.New("pdb: malformed codeview record"))

// Reader iterates over the length-prefixed records of a type-info or
// symbol-record stream. Each record is a u16 length, a u16 kind, and a
// length-2 byte body; the length never counts its own two bytes.
type Reader []byte

// MakeReader constructs a Reader positioned at the first record of data.
func MakeReader(data []byte) Reader {
	return Reader(data)
}

// Next returns the next record, if there is one. If the reader has reached
// the end of the stream, Next returns ok=false and a nil error. If the next
// record is illegible, Next returns ok=false and a non-nil error.
func (r *Reader) Next() (kind uint16, body []byte, ok bool, err error) {
	if len(*r) == 0 {
		return 0, nil, false, nil
	}
	if len(*r) < 4 {
		return 0, nil, false, errors.Wrapf(ErrMalformedRecord, "%d trailing bytes", len(*r))
	}
	length := binary.LittleEndian.Uint16(*r)
	kind = binary.LittleEndian.Uint16((*r)[2:])
	if length < 2 {
		return 0, nil, false, errors.Wrapf(ErrMalformedRecord, "record length %d", length)
	}
	if int(length)+2 > len(*r) {
		return 0, nil, false, errors.Wrapf(ErrMalformedRecord,
			"record length %d exceeds %d remaining bytes", length, len(*r)-2)
	}
	body = (*r)[4 : 2+int(length)]
	*r = (*r)[2+int(length):]
	return kind, body, true, nil
}

// Skip discards up to n bytes.
func (r *Reader) Skip(n int) {
	if n > len(*r) {
		n = len(*r)
	}
	*r = (*r)[n:]
}
