// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package codeview provides the shared framing for CodeView debug records:
// the length-prefixed record reader used by both the type-info and
// symbol-record streams, numeric leaves, and the leaf/symbol kind
// vocabulary. The kind names follow the cvinfo.h spelling, which is how
// every consumer of these streams refers to them.
package codeview

import "fmt"

// LeafKind identifies a type-record leaf (LF_*).
type LeafKind uint16

// Type record leaves. Values are the post-VC7 ("SZ name") era of the
// format; earlier eras store the same shapes under different values and are
// not produced by the toolchains this library targets.
const (
	LF_VTSHAPE LeafKind = 0x000a

	LF_MODIFIER   LeafKind = 0x1001
	LF_POINTER    LeafKind = 0x1002
	LF_PROCEDURE  LeafKind = 0x1008
	LF_MFUNCTION  LeafKind = 0x1009
	LF_ARGLIST    LeafKind = 0x1201
	LF_FIELDLIST  LeafKind = 0x1203
	LF_BITFIELD   LeafKind = 0x1205
	LF_METHODLIST LeafKind = 0x1206

	// Field-list member leaves that kept their pre-SZ values.
	LF_BCLASS   LeafKind = 0x1400
	LF_VBCLASS  LeafKind = 0x1401
	LF_IVBCLASS LeafKind = 0x1402
	LF_INDEX    LeafKind = 0x1404
	LF_VFUNCTAB LeafKind = 0x1409
	LF_VFUNCOFF LeafKind = 0x140c

	LF_ENUMERATE LeafKind = 0x1502
	LF_ARRAY     LeafKind = 0x1503
	LF_CLASS     LeafKind = 0x1504
	LF_STRUCTURE LeafKind = 0x1505
	LF_UNION     LeafKind = 0x1506
	LF_ENUM      LeafKind = 0x1507
	LF_MEMBER    LeafKind = 0x150d
	LF_STMEMBER  LeafKind = 0x150e
	LF_METHOD    LeafKind = 0x150f
	LF_NESTTYPE  LeafKind = 0x1510
	LF_ONEMETHOD LeafKind = 0x1511

	// Numeric leaf markers. A two-byte value below LF_NUMERIC is the value
	// itself; at or above, it selects the width of the value that follows.
	LF_NUMERIC   LeafKind = 0x8000
	LF_CHAR      LeafKind = 0x8000
	LF_SHORT     LeafKind = 0x8001
	LF_USHORT    LeafKind = 0x8002
	LF_LONG      LeafKind = 0x8003
	LF_ULONG     LeafKind = 0x8004
	LF_QUADWORD  LeafKind = 0x8009
	LF_UQUADWORD LeafKind = 0x800a

	// LF_PAD0 through LF_PAD15: alignment filler inside field lists. The low
	// nibble of a pad byte is the distance to the next record.
	LF_PAD0 LeafKind = 0xf0
)

var leafNames = map[LeafKind]string{
	LF_VTSHAPE:    "LF_VTSHAPE",
	LF_MODIFIER:   "LF_MODIFIER",
	LF_POINTER:    "LF_POINTER",
	LF_PROCEDURE:  "LF_PROCEDURE",
	LF_MFUNCTION:  "LF_MFUNCTION",
	LF_ARGLIST:    "LF_ARGLIST",
	LF_FIELDLIST:  "LF_FIELDLIST",
	LF_BITFIELD:   "LF_BITFIELD",
	LF_METHODLIST: "LF_METHODLIST",
	LF_BCLASS:     "LF_BCLASS",
	LF_VBCLASS:    "LF_VBCLASS",
	LF_IVBCLASS:   "LF_IVBCLASS",
	LF_INDEX:      "LF_INDEX",
	LF_VFUNCTAB:   "LF_VFUNCTAB",
	LF_VFUNCOFF:   "LF_VFUNCOFF",
	LF_ENUMERATE:  "LF_ENUMERATE",
	LF_ARRAY:      "LF_ARRAY",
	LF_CLASS:      "LF_CLASS",
	LF_STRUCTURE:  "LF_STRUCTURE",
	LF_UNION:      "LF_UNION",
	LF_ENUM:       "LF_ENUM",
	LF_MEMBER:     "LF_MEMBER",
	LF_STMEMBER:   "LF_STMEMBER",
	LF_METHOD:     "LF_METHOD",
	LF_NESTTYPE:   "LF_NESTTYPE",
	LF_ONEMETHOD:  "LF_ONEMETHOD",
}

// String implements fmt.Stringer.
func (k LeafKind) String() string {
	if s, ok := leafNames[k]; ok {
		return s
	}
	return fmt.Sprintf("LF_%04x", uint16(k))
}

// SymKind identifies a symbol record (S_*).
type SymKind uint16

// Symbol record kinds. Only S_PUB32 is decoded by this library; the rest
// are named so scanners and tools can label what they walk past.
const (
	S_END        SymKind = 0x0006
	S_OBJNAME    SymKind = 0x1101
	S_THUNK32    SymKind = 0x1102
	S_BLOCK32    SymKind = 0x1103
	S_LABEL32    SymKind = 0x1105
	S_REGISTER   SymKind = 0x1106
	S_CONSTANT   SymKind = 0x1107
	S_UDT        SymKind = 0x1108
	S_BPREL32    SymKind = 0x110b
	S_LDATA32    SymKind = 0x110c
	S_GDATA32    SymKind = 0x110d
	S_PUB32      SymKind = 0x110e
	S_LPROC32    SymKind = 0x110f
	S_GPROC32    SymKind = 0x1110
	S_REGREL32   SymKind = 0x1111
	S_LTHREAD32  SymKind = 0x1112
	S_GTHREAD32  SymKind = 0x1113
	S_COMPILE2   SymKind = 0x1116
	S_UNAMESPACE SymKind = 0x1124
	S_PROCREF    SymKind = 0x1125
	S_DATAREF    SymKind = 0x1126
	S_LPROCREF   SymKind = 0x1127
	S_TRAMPOLINE SymKind = 0x112c
	S_SECTION    SymKind = 0x1136
	S_COFFGROUP  SymKind = 0x1137
	S_EXPORT     SymKind = 0x1138
	S_COMPILE3   SymKind = 0x113c
	S_ENVBLOCK   SymKind = 0x113d
	S_LOCAL      SymKind = 0x113e
	S_BUILDINFO  SymKind = 0x114c
)

var symNames = map[SymKind]string{
	S_END:        "S_END",
	S_OBJNAME:    "S_OBJNAME",
	S_THUNK32:    "S_THUNK32",
	S_BLOCK32:    "S_BLOCK32",
	S_LABEL32:    "S_LABEL32",
	S_REGISTER:   "S_REGISTER",
	S_CONSTANT:   "S_CONSTANT",
	S_UDT:        "S_UDT",
	S_BPREL32:    "S_BPREL32",
	S_LDATA32:    "S_LDATA32",
	S_GDATA32:    "S_GDATA32",
	S_PUB32:      "S_PUB32",
	S_LPROC32:    "S_LPROC32",
	S_GPROC32:    "S_GPROC32",
	S_REGREL32:   "S_REGREL32",
	S_LTHREAD32:  "S_LTHREAD32",
	S_GTHREAD32:  "S_GTHREAD32",
	S_COMPILE2:   "S_COMPILE2",
	S_UNAMESPACE: "S_UNAMESPACE",
	S_PROCREF:    "S_PROCREF",
	S_DATAREF:    "S_DATAREF",
	S_LPROCREF:   "S_LPROCREF",
	S_TRAMPOLINE: "S_TRAMPOLINE",
	S_SECTION:    "S_SECTION",
	S_COFFGROUP:  "S_COFFGROUP",
	S_EXPORT:     "S_EXPORT",
	S_COMPILE3:   "S_COMPILE3",
	S_ENVBLOCK:   "S_ENVBLOCK",
	S_LOCAL:      "S_LOCAL",
	S_BUILDINFO:  "S_BUILDINFO",
}

// String implements fmt.Stringer.
func (k SymKind) String() string {
	if s, ok := symNames[k]; ok {
		return s
	}
	return fmt.Sprintf("S_%04x", uint16(k))
}
