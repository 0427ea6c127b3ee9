// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package sym scans CodeView symbol record streams.
//
// A symbol stream is a sequence of {u16 length, u16 kind, body} records,
// each aligned to a 4-byte boundary; the length covers the kind word and
// the body. Scan walks the records and hands each to a visitor. The one
// record family decoded here is S_PUB32, the public symbols the linker
// places at (segment, offset) pairs; the section package half translates
// those pairs to relative virtual addresses.
package sym

import (
	"encoding/binary"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pdb/codeview"
	"github.com/cockroachdb/pdb/msf"
)

// Visitor receives each record of a symbol stream: the kind and the body
// past the kind word. Returning more == false stops the scan cleanly; a
// non-nil error stops it and propagates.
type Visitor func(kind codeview.SymKind, body []byte) (more bool, err error)

// Scan walks the records of a symbol stream in order, invoking visit for
// each. Record starts are kept 4-aligned; pad bytes between records
// belong to no record.
func Scan(stream msf.Stream, visit Visitor) error {
	data, err := msf.ReadAll(stream)
	if err != nil {
		return err
	}
	for off := 0; off < len(data); {
		rest := data[off:]
		if len(rest) < 4 {
			return errors.Wrapf(codeview.ErrMalformedRecord,
				"symbol stream offset %d: %d trailing bytes", off, len(rest))
		}
		length := binary.LittleEndian.Uint16(rest)
		if length < 2 || int(length)+2 > len(rest) {
			return errors.Wrapf(codeview.ErrMalformedRecord,
				"symbol stream offset %d: record length %d exceeds %d remaining bytes",
				off, length, len(rest)-2)
		}
		kind := codeview.SymKind(binary.LittleEndian.Uint16(rest[2:]))
		more, err := visit(kind, rest[4:2+length])
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		off += 2 + int(length)
		if rem := off % 4; rem != 0 {
			off += 4 - rem
		}
	}
	return nil
}

// S_PUB32 flag bits.
const (
	PubIsCode     = 1 << 0
	PubIsFunction = 1 << 1
	PubIsManaged  = 1 << 2
	PubIsMSIL     = 1 << 3
)

// PubSym32 is a decoded S_PUB32 record.
type PubSym32 struct {
	Flags   uint32
	Offset  uint32
	Segment uint16
	Name    string
}

// IsFunction reports whether the linker flagged the symbol as a function
// entry point.
func (p *PubSym32) IsFunction() bool { return p.Flags&PubIsFunction != 0 }

// DecodePubSym32 decodes an S_PUB32 record body.
func DecodePubSym32(body []byte) (PubSym32, error) {
	// u32 flags, u32 offset, u16 segment, name.
	if len(body) < 10 {
		return PubSym32{}, errors.Wrapf(codeview.ErrMalformedRecord,
			"%s: %d byte body", codeview.S_PUB32, len(body))
	}
	p := PubSym32{
		Flags:   binary.LittleEndian.Uint32(body),
		Offset:  binary.LittleEndian.Uint32(body[4:]),
		Segment: binary.LittleEndian.Uint16(body[8:]),
	}
	name, _, ok := codeview.ReadCString(body[10:])
	if !ok {
		return PubSym32{}, errors.Wrapf(codeview.ErrMalformedRecord,
			"%s: name", codeview.S_PUB32)
	}
	p.Name = name
	return p, nil
}

// IsVFTable reports whether a decorated name is a compiler-emitted
// virtual function table. Those mangle as "??_7Class@@6B@", with the
// class path varying and the "@6B" marker fixed.
func IsVFTable(name string) bool {
	return strings.HasPrefix(name, "??_7") && strings.Contains(name, "@6B")
}
