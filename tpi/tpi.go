// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package tpi reads the type information stream of a program database.
//
// The stream is a fixed 56-byte header followed by a concatenation of
// codeview type records. The logical id of the k-th record is
// TypeIndexBegin+k. Ids below 0x1000 are not backed by records; they name
// built-in primitives whose low byte selects the base kind and whose bits
// 8-10 select a pointer mode, so 0x0074 is an int and 0x0674 is a 64-bit
// pointer to one.
//
// Walk indexes the records and materializes a type graph. Nodes reference
// each other by TypeID, never by pointer; the Types repository resolves
// ids, which lets cyclic types (a struct holding a pointer to itself)
// materialize without special handling.
package tpi

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pdb/internal/base"
	"github.com/cockroachdb/redact"
)

// TypeID identifies a type. Ids at or above FirstNonPrimitive index
// records in the stream; ids below it denote primitives.
type TypeID uint32

// FirstNonPrimitive is the lowest id backed by a stream record.
const FirstNonPrimitive TypeID = 0x1000

// String implements fmt.Stringer, rendering the id the way debugger
// tooling prints type indices.
func (id TypeID) String() string {
	return fmt.Sprintf("0x%04x", uint32(id))
}

// SafeFormat implements redact.SafeFormatter.
func (id TypeID) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(id.String()))
}

// Primitive pointer modes, from bits 8-10 of the id. The 16-bit era modes
// between direct and near32 are not listed; ids carrying them materialize
// as wildcards.
const (
	primitiveModeDirect  = 0
	primitiveModeNear32  = 4
	primitiveModeNear64  = 6
	primitiveModeNear128 = 7
)

func primitiveMode(id TypeID) uint32 { return (uint32(id) >> 8) & 7 }
func primitiveKind(id TypeID) TypeID { return id & 0xff }

// Primitive type ids (direct mode), in the cvinfo.h spelling.
const (
	T_NOTYPE  TypeID = 0x0000
	T_VOID    TypeID = 0x0003
	T_HRESULT TypeID = 0x0008

	T_CHAR  TypeID = 0x0010
	T_SHORT TypeID = 0x0011
	T_LONG  TypeID = 0x0012
	T_QUAD  TypeID = 0x0013
	T_OCT   TypeID = 0x0014

	T_UCHAR  TypeID = 0x0020
	T_USHORT TypeID = 0x0021
	T_ULONG  TypeID = 0x0022
	T_UQUAD  TypeID = 0x0023
	T_UOCT   TypeID = 0x0024

	T_BOOL08 TypeID = 0x0030
	T_BOOL16 TypeID = 0x0031
	T_BOOL32 TypeID = 0x0032
	T_BOOL64 TypeID = 0x0033

	T_REAL32  TypeID = 0x0040
	T_REAL64  TypeID = 0x0041
	T_REAL80  TypeID = 0x0042
	T_REAL128 TypeID = 0x0043
	T_REAL48  TypeID = 0x0044
	T_REAL16  TypeID = 0x0046

	T_INT1  TypeID = 0x0068
	T_UINT1 TypeID = 0x0069
	T_RCHAR TypeID = 0x0070
	T_WCHAR TypeID = 0x0071
	T_INT2  TypeID = 0x0072
	T_UINT2 TypeID = 0x0073
	T_INT4  TypeID = 0x0074
	T_UINT4 TypeID = 0x0075
	T_INT8  TypeID = 0x0076
	T_UINT8 TypeID = 0x0077

	T_CHAR16 TypeID = 0x007a
	T_CHAR32 TypeID = 0x007b
	T_CHAR8  TypeID = 0x007c
)

type primitive struct {
	name   string
	size   uint64
	signed bool
}

// primitives maps the direct form of each known primitive to its source
// rendering. The names are the ones the Microsoft toolchain itself uses,
// which keeps them consistent with what decorated names embed.
var primitives = map[TypeID]primitive{
	T_NOTYPE:  {"<no type>", 0, false},
	T_VOID:    {"void", 0, false},
	T_HRESULT: {"HRESULT", 4, false},

	T_CHAR:  {"signed char", 1, true},
	T_SHORT: {"short", 2, true},
	T_LONG:  {"long", 4, true},
	T_QUAD:  {"__int64", 8, true},
	T_OCT:   {"__int128", 16, true},

	T_UCHAR:  {"unsigned char", 1, false},
	T_USHORT: {"unsigned short", 2, false},
	T_ULONG:  {"unsigned long", 4, false},
	T_UQUAD:  {"unsigned __int64", 8, false},
	T_UOCT:   {"unsigned __int128", 16, false},

	T_BOOL08: {"bool", 1, false},
	T_BOOL16: {"__bool16", 2, false},
	T_BOOL32: {"__bool32", 4, false},
	T_BOOL64: {"__bool64", 8, false},

	T_REAL32:  {"float", 4, true},
	T_REAL64:  {"double", 8, true},
	T_REAL80:  {"long double", 10, true},
	T_REAL128: {"__float128", 16, true},
	T_REAL48:  {"__float48", 6, true},
	T_REAL16:  {"__half", 2, true},

	T_INT1:  {"__int8", 1, true},
	T_UINT1: {"unsigned __int8", 1, false},
	T_RCHAR: {"char", 1, true},
	T_WCHAR: {"wchar_t", 2, false},
	T_INT2:  {"__int16", 2, true},
	T_UINT2: {"unsigned __int16", 2, false},
	T_INT4:  {"int", 4, true},
	T_UINT4: {"unsigned", 4, false},
	T_INT8:  {"__int64", 8, true},
	T_UINT8: {"unsigned __int64", 8, false},

	T_CHAR16: {"char16_t", 2, false},
	T_CHAR32: {"char32_t", 4, false},
	T_CHAR8:  {"char8_t", 1, false},
}

// HeaderSize is the byte length of the fixed stream header.
const HeaderSize = 56

// Stream header versions. Only V80 appears in the files the library
// targets; the older values are named so version errors can be traced to
// the producing toolchain.
const (
	VersionV40 = 19950410
	VersionV41 = 19951122
	VersionV50 = 19961031
	VersionV70 = 19990903
	VersionV80 = 20040203
)

// ErrUnsupportedVersion is returned when the stream header carries a
// version other than V80.
var ErrUnsupportedVersion = errors.New("pdb: unsupported type stream version")

// Header is the fixed header at offset 0 of the type stream. The hash
// fields describe an auxiliary stream this library does not consume; they
// are decoded so a caller inspecting the stream sees the whole record.
type Header struct {
	Version         uint32
	HeaderSize      uint32
	TypeIndexBegin  TypeID
	TypeIndexEnd    TypeID
	TypeRecordBytes uint32

	HashStreamIndex    uint16
	HashAuxStreamIndex uint16
	HashKeySize        uint32
	NumHashBuckets     uint32

	HashValueBufferOffset   int32
	HashValueBufferLength   uint32
	IndexOffsetBufferOffset int32
	IndexOffsetBufferLength uint32
	HashAdjBufferOffset     int32
	HashAdjBufferLength     uint32
}

// NumRecords returns the record count the header declares.
func (h *Header) NumRecords() int {
	if h.TypeIndexEnd < h.TypeIndexBegin {
		return 0
	}
	return int(h.TypeIndexEnd - h.TypeIndexBegin)
}

// DecodeHeader parses the fixed header from the front of the type stream.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, base.CorruptionErrorf("pdb: type stream of %d bytes", errors.Safe(len(data)))
	}
	h := Header{
		Version:         binary.LittleEndian.Uint32(data[0:]),
		HeaderSize:      binary.LittleEndian.Uint32(data[4:]),
		TypeIndexBegin:  TypeID(binary.LittleEndian.Uint32(data[8:])),
		TypeIndexEnd:    TypeID(binary.LittleEndian.Uint32(data[12:])),
		TypeRecordBytes: binary.LittleEndian.Uint32(data[16:]),

		HashStreamIndex:    binary.LittleEndian.Uint16(data[20:]),
		HashAuxStreamIndex: binary.LittleEndian.Uint16(data[22:]),
		HashKeySize:        binary.LittleEndian.Uint32(data[24:]),
		NumHashBuckets:     binary.LittleEndian.Uint32(data[28:]),

		HashValueBufferOffset:   int32(binary.LittleEndian.Uint32(data[32:])),
		HashValueBufferLength:   binary.LittleEndian.Uint32(data[36:]),
		IndexOffsetBufferOffset: int32(binary.LittleEndian.Uint32(data[40:])),
		IndexOffsetBufferLength: binary.LittleEndian.Uint32(data[44:]),
		HashAdjBufferOffset:     int32(binary.LittleEndian.Uint32(data[48:])),
		HashAdjBufferLength:     binary.LittleEndian.Uint32(data[52:]),
	}
	if h.Version != VersionV80 {
		return Header{}, errors.Wrapf(ErrUnsupportedVersion, "version %d", errors.Safe(h.Version))
	}
	if h.HeaderSize < HeaderSize {
		return Header{}, base.CorruptionErrorf("pdb: type stream header size %d", errors.Safe(h.HeaderSize))
	}
	if h.TypeIndexBegin < FirstNonPrimitive || h.TypeIndexEnd < h.TypeIndexBegin {
		return Header{}, base.CorruptionErrorf("pdb: type index range [%s, %s)",
			h.TypeIndexBegin, h.TypeIndexEnd)
	}
	return h, nil
}

// EncodeInto writes the 56-byte header over the front of data.
func (h *Header) EncodeInto(data []byte) error {
	if len(data) < HeaderSize {
		return errors.Errorf("pdb: type stream of %d bytes cannot hold the header", len(data))
	}
	binary.LittleEndian.PutUint32(data[0:], h.Version)
	binary.LittleEndian.PutUint32(data[4:], h.HeaderSize)
	binary.LittleEndian.PutUint32(data[8:], uint32(h.TypeIndexBegin))
	binary.LittleEndian.PutUint32(data[12:], uint32(h.TypeIndexEnd))
	binary.LittleEndian.PutUint32(data[16:], h.TypeRecordBytes)
	binary.LittleEndian.PutUint16(data[20:], h.HashStreamIndex)
	binary.LittleEndian.PutUint16(data[22:], h.HashAuxStreamIndex)
	binary.LittleEndian.PutUint32(data[24:], h.HashKeySize)
	binary.LittleEndian.PutUint32(data[28:], h.NumHashBuckets)
	binary.LittleEndian.PutUint32(data[32:], uint32(h.HashValueBufferOffset))
	binary.LittleEndian.PutUint32(data[36:], h.HashValueBufferLength)
	binary.LittleEndian.PutUint32(data[40:], uint32(h.IndexOffsetBufferOffset))
	binary.LittleEndian.PutUint32(data[44:], h.IndexOffsetBufferLength)
	binary.LittleEndian.PutUint32(data[48:], uint32(h.HashAdjBufferOffset))
	binary.LittleEndian.PutUint32(data[52:], h.HashAdjBufferLength)
	return nil
}
