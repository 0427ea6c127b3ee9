// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sym

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pdb/internal/base"
)

// SectionHeaderSize is the byte length of one IMAGE_SECTION_HEADER.
const SectionHeaderSize = 40

// Characteristics bits of a section header.
const (
	SectionCode    uint32 = 0x00000020
	SectionExecute uint32 = 0x20000000
	SectionRead    uint32 = 0x40000000
	SectionWrite   uint32 = 0x80000000
)

// SectionHeader mirrors IMAGE_SECTION_HEADER, the PE section layout the
// linker copies into the DBG section-header stream.
type SectionHeader struct {
	Name                 [8]byte
	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLineNumbers uint32
	NumberOfRelocations  uint16
	NumberOfLineNumbers  uint16
	Characteristics      uint32
}

// NameString returns the section name without NUL padding.
func (h *SectionHeader) NameString() string {
	n := 0
	for n < len(h.Name) && h.Name[n] != 0 {
		n++
	}
	return string(h.Name[:n])
}

// IsRead reports whether the loaded section is readable.
func (h *SectionHeader) IsRead() bool { return h.Characteristics&SectionRead != 0 }

// IsWrite reports whether the loaded section is writable.
func (h *SectionHeader) IsWrite() bool { return h.Characteristics&SectionWrite != 0 }

// IsExecute reports whether the loaded section is executable.
func (h *SectionHeader) IsExecute() bool { return h.Characteristics&SectionExecute != 0 }

// SectionTable is the section header array, in image order.
type SectionTable []SectionHeader

// DecodeSectionHeaders parses the packed section header array carried by
// the DBG section-header stream.
func DecodeSectionHeaders(data []byte) (SectionTable, error) {
	if len(data)%SectionHeaderSize != 0 {
		return nil, base.CorruptionErrorf("pdb: section header table of %d bytes",
			errors.Safe(len(data)))
	}
	t := make(SectionTable, len(data)/SectionHeaderSize)
	for i := range t {
		h := &t[i]
		b := data[i*SectionHeaderSize:]
		copy(h.Name[:], b[:8])
		h.VirtualSize = binary.LittleEndian.Uint32(b[8:])
		h.VirtualAddress = binary.LittleEndian.Uint32(b[12:])
		h.SizeOfRawData = binary.LittleEndian.Uint32(b[16:])
		h.PointerToRawData = binary.LittleEndian.Uint32(b[20:])
		h.PointerToRelocations = binary.LittleEndian.Uint32(b[24:])
		h.PointerToLineNumbers = binary.LittleEndian.Uint32(b[28:])
		h.NumberOfRelocations = binary.LittleEndian.Uint16(b[32:])
		h.NumberOfLineNumbers = binary.LittleEndian.Uint16(b[34:])
		h.Characteristics = binary.LittleEndian.Uint32(b[36:])
	}
	return t, nil
}

// ToRVA translates a (segment, offset) pair to a relative virtual
// address. Segments are 1-based, the way symbol records carry them.
func (t SectionTable) ToRVA(segment uint16, offset uint32) (uint32, bool) {
	if segment == 0 || int(segment) > len(t) {
		return 0, false
	}
	return t[segment-1].VirtualAddress + offset, true
}

// FindSection returns the section whose loaded extent contains rva, or
// nil when no section does.
func (t SectionTable) FindSection(rva uint32) *SectionHeader {
	for i := range t {
		h := &t[i]
		if rva >= h.VirtualAddress && rva < h.VirtualAddress+h.VirtualSize {
			return h
		}
	}
	return nil
}
