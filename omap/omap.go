// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package omap implements the OMAP address translation tables a PDB
// carries after a binary has been rearranged, for example by a
// post-link optimizer. A table is a run of (source, target) address
// pairs sorted by source; an address translates through the pair whose
// source starts at or below it.
//
// A PDB holds up to two tables, "from source" and "to source", in the
// streams the DBI debug header names.
package omap

import (
	"encoding/binary"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pdb/internal/base"
)

// entrySize is the byte length of a serialized Entry.
const entrySize = 8

// Entry starts a run of addresses at RVA that the rearrangement moved to
// RVATo.
type Entry struct {
	RVA   uint32
	RVATo uint32
}

// Omap is an address translation table, sorted by Entry.RVA.
type Omap []Entry

// DecodeBytes parses a serialized table. The entries are not required to
// be sorted here; IsValid reports whether the table can translate.
func DecodeBytes(data []byte) (Omap, error) {
	if len(data)%entrySize != 0 {
		return nil, base.CorruptionErrorf("pdb: omap stream of %d bytes", errors.Safe(len(data)))
	}
	o := make(Omap, len(data)/entrySize)
	for i := range o {
		o[i] = Entry{
			RVA:   binary.LittleEndian.Uint32(data[i*entrySize:]),
			RVATo: binary.LittleEndian.Uint32(data[i*entrySize+4:]),
		}
	}
	return o, nil
}

// AppendEncoded appends the serialized table to buf and returns the
// extended buffer.
func (o Omap) AppendEncoded(buf []byte) []byte {
	for _, e := range o {
		buf = binary.LittleEndian.AppendUint32(buf, e.RVA)
		buf = binary.LittleEndian.AppendUint32(buf, e.RVATo)
	}
	return buf
}

// IsValid reports whether the source addresses strictly increase, the
// precondition for Translate.
func (o Omap) IsValid() bool {
	for i := 1; i < len(o); i++ {
		if o[i].RVA <= o[i-1].RVA {
			return false
		}
	}
	return true
}

// Translate maps addr through the table: the entry with the greatest
// source address not above addr carries it by the entry's displacement.
// Addresses below the first entry pass through unchanged.
func (o Omap) Translate(addr uint32) uint32 {
	i := sort.Search(len(o), func(i int) bool { return o[i].RVA > addr })
	if i == 0 {
		return addr
	}
	e := o[i-1]
	return e.RVATo + (addr - e.RVA)
}
