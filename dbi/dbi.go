// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package dbi reads and patches the DBI stream, stream 3 of a PDB: a
// 64-byte fixed header followed by seven variable-length substreams and,
// last, the debug header naming the streams that hold FPO data, OMAP
// tables, section headers and the like.
//
// The substreams themselves (module info, section contributions, file
// info) are opaque here; the header records their byte sizes, which is
// all that is needed to locate the debug header and to rewrite the
// fields this package mutates.
package dbi

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pdb/internal/base"
	"github.com/cockroachdb/pdb/msf"
)

// HeaderSize is the byte length of the fixed DBI header.
const HeaderSize = 64

// VersionV70 is the DBI version this package reads and writes.
const VersionV70 = 19990903

// ErrUnsupportedVersion indicates a DBI stream version other than V70.
var ErrUnsupportedVersion = errors.New("pdb: unsupported dbi version")

// Machine values the tool prints by name, from the PE machine field.
const (
	MachineX86   = 0x014C
	MachineAMD64 = 0x8664
	MachineARM64 = 0xAA64
)

// MachineName returns a printable name for a PE machine value.
func MachineName(machine uint16) string {
	switch machine {
	case MachineX86:
		return "x86"
	case MachineAMD64:
		return "x64"
	case MachineARM64:
		return "arm64"
	default:
		return fmt.Sprintf("machine 0x%04X", machine)
	}
}

// Header is the fixed DBI header.
type Header struct {
	VersionSignature        int32
	VersionHeader           uint32
	Age                     uint32
	GlobalStreamIndex       uint16
	BuildNumber             uint16
	PublicStreamIndex       uint16
	PdbDllVersion           uint16
	SymRecordStream         uint16
	PdbDllRbld              uint16
	ModInfoSize             uint32
	SectionContributionSize uint32
	SectionMapSize          uint32
	FileInfoSize            uint32
	TypeServerMapSize       uint32
	MFCTypeServerIndex      uint32
	DbgHeaderSize           uint32
	ECSubstreamSize         uint32
	Flags                   uint16
	Machine                 uint16
	Padding                 uint32
}

// DecodeHeader parses the fixed header from the front of the DBI stream.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, base.CorruptionErrorf("pdb: dbi stream of %d bytes", errors.Safe(len(data)))
	}
	h := Header{
		VersionSignature:        int32(binary.LittleEndian.Uint32(data[0:])),
		VersionHeader:           binary.LittleEndian.Uint32(data[4:]),
		Age:                     binary.LittleEndian.Uint32(data[8:]),
		GlobalStreamIndex:       binary.LittleEndian.Uint16(data[12:]),
		BuildNumber:             binary.LittleEndian.Uint16(data[14:]),
		PublicStreamIndex:       binary.LittleEndian.Uint16(data[16:]),
		PdbDllVersion:           binary.LittleEndian.Uint16(data[18:]),
		SymRecordStream:         binary.LittleEndian.Uint16(data[20:]),
		PdbDllRbld:              binary.LittleEndian.Uint16(data[22:]),
		ModInfoSize:             binary.LittleEndian.Uint32(data[24:]),
		SectionContributionSize: binary.LittleEndian.Uint32(data[28:]),
		SectionMapSize:          binary.LittleEndian.Uint32(data[32:]),
		FileInfoSize:            binary.LittleEndian.Uint32(data[36:]),
		TypeServerMapSize:       binary.LittleEndian.Uint32(data[40:]),
		MFCTypeServerIndex:      binary.LittleEndian.Uint32(data[44:]),
		DbgHeaderSize:           binary.LittleEndian.Uint32(data[48:]),
		ECSubstreamSize:         binary.LittleEndian.Uint32(data[52:]),
		Flags:                   binary.LittleEndian.Uint16(data[56:]),
		Machine:                 binary.LittleEndian.Uint16(data[58:]),
		Padding:                 binary.LittleEndian.Uint32(data[60:]),
	}
	if h.VersionHeader != VersionV70 {
		return Header{}, errors.Wrapf(ErrUnsupportedVersion, "version %d", errors.Safe(h.VersionHeader))
	}
	return h, nil
}

// EncodeInto writes the fixed header over the first 64 bytes of data,
// leaving the substreams untouched.
func (h *Header) EncodeInto(data []byte) error {
	if len(data) < HeaderSize {
		return errors.Errorf("pdb: dbi stream of %d bytes cannot hold the header", len(data))
	}
	binary.LittleEndian.PutUint32(data[0:], uint32(h.VersionSignature))
	binary.LittleEndian.PutUint32(data[4:], h.VersionHeader)
	binary.LittleEndian.PutUint32(data[8:], h.Age)
	binary.LittleEndian.PutUint16(data[12:], h.GlobalStreamIndex)
	binary.LittleEndian.PutUint16(data[14:], h.BuildNumber)
	binary.LittleEndian.PutUint16(data[16:], h.PublicStreamIndex)
	binary.LittleEndian.PutUint16(data[18:], h.PdbDllVersion)
	binary.LittleEndian.PutUint16(data[20:], h.SymRecordStream)
	binary.LittleEndian.PutUint16(data[22:], h.PdbDllRbld)
	binary.LittleEndian.PutUint32(data[24:], h.ModInfoSize)
	binary.LittleEndian.PutUint32(data[28:], h.SectionContributionSize)
	binary.LittleEndian.PutUint32(data[32:], h.SectionMapSize)
	binary.LittleEndian.PutUint32(data[36:], h.FileInfoSize)
	binary.LittleEndian.PutUint32(data[40:], h.TypeServerMapSize)
	binary.LittleEndian.PutUint32(data[44:], h.MFCTypeServerIndex)
	binary.LittleEndian.PutUint32(data[48:], h.DbgHeaderSize)
	binary.LittleEndian.PutUint32(data[52:], h.ECSubstreamSize)
	binary.LittleEndian.PutUint16(data[56:], h.Flags)
	binary.LittleEndian.PutUint16(data[58:], h.Machine)
	binary.LittleEndian.PutUint32(data[60:], h.Padding)
	return nil
}

// DbgHeaderOffset returns the byte offset of the debug header within the
// DBI stream. The EC substream precedes the debug header even though the
// header lists its size after DbgHeaderSize; files in the wild lay it
// out this way.
func (h *Header) DbgHeaderOffset() uint32 {
	return HeaderSize + h.ModInfoSize + h.SectionContributionSize + h.SectionMapSize +
		h.FileInfoSize + h.TypeServerMapSize + h.ECSubstreamSize
}

// DbgSlot identifies one entry of the debug header, each a stream id or
// -1 when absent.
type DbgSlot int

const (
	DbgFPO DbgSlot = iota
	DbgException
	DbgFixup
	DbgOmapToSrc
	DbgOmapFromSrc
	DbgSectionHeader
	DbgTokenRidMap
	DbgXdata
	DbgPdata
	DbgNewFPO
	DbgSectionHeaderOrigin

	// NumDbgSlots is the slot count of a full debug header.
	NumDbgSlots
)

var dbgSlotNames = [NumDbgSlots]string{
	DbgFPO:                 "fpo",
	DbgException:           "exception",
	DbgFixup:               "fixup",
	DbgOmapToSrc:           "omap_to_src",
	DbgOmapFromSrc:         "omap_from_src",
	DbgSectionHeader:       "section_header",
	DbgTokenRidMap:         "token_rid_map",
	DbgXdata:               "xdata",
	DbgPdata:               "pdata",
	DbgNewFPO:              "new_fpo",
	DbgSectionHeaderOrigin: "section_header_origin",
}

// String implements fmt.Stringer.
func (s DbgSlot) String() string {
	if s >= 0 && s < NumDbgSlots {
		return dbgSlotNames[s]
	}
	return fmt.Sprintf("dbg_slot_%d", int(s))
}

// DbgStream reads a debug header slot from the DBI stream bytes. A slot
// the header does not cover, or one holding -1, reads as
// msf.InvalidStreamID.
func (h *Header) DbgStream(data []byte, slot DbgSlot) (msf.StreamID, error) {
	if slot < 0 || slot >= NumDbgSlots {
		return msf.InvalidStreamID, errors.Errorf("pdb: no debug header slot %d", int(slot))
	}
	if h.DbgHeaderSize < uint32(slot+1)*2 {
		return msf.InvalidStreamID, nil
	}
	off := uint64(h.DbgHeaderOffset()) + uint64(slot)*2
	if off+2 > uint64(len(data)) {
		return msf.InvalidStreamID, base.CorruptionErrorf(
			"pdb: debug header slot %s at offset %d outside %d byte dbi stream",
			errors.Safe(slot.String()), errors.Safe(off), errors.Safe(len(data)))
	}
	v := int16(binary.LittleEndian.Uint16(data[off:]))
	if v < 0 {
		return msf.InvalidStreamID, nil
	}
	return msf.StreamID(v), nil
}

// SetDbgStream writes a debug header slot in place. Passing
// msf.InvalidStreamID marks the slot absent.
func (h *Header) SetDbgStream(data []byte, slot DbgSlot, id msf.StreamID) error {
	if slot < 0 || slot >= NumDbgSlots {
		return errors.Errorf("pdb: no debug header slot %d", int(slot))
	}
	if h.DbgHeaderSize < uint32(slot+1)*2 {
		return errors.Errorf("pdb: debug header of %d bytes has no %s slot", h.DbgHeaderSize, slot)
	}
	v := int16(-1)
	if id != msf.InvalidStreamID {
		if id < 0 || id > 0x7FFF {
			return errors.Errorf("pdb: stream %s does not fit a debug header slot", id)
		}
		v = int16(id)
	}
	off := uint64(h.DbgHeaderOffset()) + uint64(slot)*2
	if off+2 > uint64(len(data)) {
		return base.CorruptionErrorf(
			"pdb: debug header slot %s at offset %d outside %d byte dbi stream",
			errors.Safe(slot.String()), errors.Safe(off), errors.Safe(len(data)))
	}
	binary.LittleEndian.PutUint16(data[off:], uint16(v))
	return nil
}
