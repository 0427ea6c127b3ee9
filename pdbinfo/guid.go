// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pdbinfo

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/redact"
	"github.com/google/uuid"
)

// GUID is a Windows GUID in its on-disk layout: a little-endian u32 and
// two little-endian u16s followed by eight bytes. The textual form prints
// the groups big-endian, so the byte order differs from an RFC 4122 UUID
// in the first three groups.
type GUID [16]byte

// MakeGUID converts an RFC 4122 UUID to the Windows byte order.
func MakeGUID(u uuid.UUID) GUID {
	var g GUID
	g[0], g[1], g[2], g[3] = u[3], u[2], u[1], u[0]
	g[4], g[5] = u[5], u[4]
	g[6], g[7] = u[7], u[6]
	copy(g[8:], u[8:])
	return g
}

// ParseGUID parses a GUID in its usual textual forms, braced or bare.
func ParseGUID(s string) (GUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return GUID{}, err
	}
	return MakeGUID(u), nil
}

// UUID returns the GUID in RFC 4122 byte order.
func (g GUID) UUID() uuid.UUID {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = g[3], g[2], g[1], g[0]
	u[4], u[5] = g[5], g[4]
	u[6], u[7] = g[7], g[6]
	copy(u[8:], g[8:])
	return u
}

// IsZero reports whether every byte of the GUID is zero.
func (g GUID) IsZero() bool {
	return g == GUID{}
}

// String implements fmt.Stringer, printing the braced registry form.
func (g GUID) String() string {
	return fmt.Sprintf("{%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X}",
		binary.LittleEndian.Uint32(g[0:4]),
		binary.LittleEndian.Uint16(g[4:6]),
		binary.LittleEndian.Uint16(g[6:8]),
		g[8], g[9], g[10], g[11], g[12], g[13], g[14], g[15])
}

// SafeFormat implements redact.SafeFormatter.
func (g GUID) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(g.String()))
}
