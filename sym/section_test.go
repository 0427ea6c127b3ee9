// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sym

import (
	"encoding/binary"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pdb/internal/base"
	"github.com/stretchr/testify/require"
)

func sectionHeaderBytes(name string, vsize, va, characteristics uint32) []byte {
	b := make([]byte, SectionHeaderSize)
	copy(b[:8], name)
	binary.LittleEndian.PutUint32(b[8:], vsize)
	binary.LittleEndian.PutUint32(b[12:], va)
	binary.LittleEndian.PutUint32(b[16:], vsize) // raw size, unused here
	binary.LittleEndian.PutUint32(b[36:], characteristics)
	return b
}

func TestDecodeSectionHeaders(t *testing.T) {
	data := sectionHeaderBytes(".text", 0x1800, 0x1000, SectionCode|SectionRead|SectionExecute)
	data = append(data, sectionHeaderBytes(".rdata", 0x400, 0x3000, SectionRead)...)

	tbl, err := DecodeSectionHeaders(data)
	require.NoError(t, err)
	require.Len(t, tbl, 2)
	require.Equal(t, ".text", tbl[0].NameString())
	require.Equal(t, uint32(0x1000), tbl[0].VirtualAddress)
	require.Equal(t, uint32(0x1800), tbl[0].VirtualSize)
	require.True(t, tbl[0].IsExecute())
	require.Equal(t, ".rdata", tbl[1].NameString())
	require.False(t, tbl[1].IsWrite())

	tbl, err = DecodeSectionHeaders(nil)
	require.NoError(t, err)
	require.Empty(t, tbl)

	_, err = DecodeSectionHeaders(data[:SectionHeaderSize+7])
	require.True(t, errors.Is(err, base.ErrCorruption))
}

func TestNameStringFullWidth(t *testing.T) {
	// Section names using all eight bytes carry no terminator.
	var h SectionHeader
	copy(h.Name[:], ".textbss")
	require.Equal(t, ".textbss", h.NameString())
}

func TestToRVA(t *testing.T) {
	tbl := SectionTable{
		{VirtualAddress: 0x1000, VirtualSize: 0x2000},
		{VirtualAddress: 0x3000, VirtualSize: 0x1000},
	}
	rva, ok := tbl.ToRVA(1, 0x10)
	require.True(t, ok)
	require.Equal(t, uint32(0x1010), rva)

	rva, ok = tbl.ToRVA(2, 0)
	require.True(t, ok)
	require.Equal(t, uint32(0x3000), rva)

	_, ok = tbl.ToRVA(0, 0x10)
	require.False(t, ok)
	_, ok = tbl.ToRVA(3, 0x10)
	require.False(t, ok)
	_, ok = SectionTable(nil).ToRVA(1, 0)
	require.False(t, ok)
}

func TestFindSection(t *testing.T) {
	tbl := SectionTable{
		{VirtualAddress: 0x1000, VirtualSize: 0x2000},
		{VirtualAddress: 0x3000, VirtualSize: 0x1000},
	}
	require.Same(t, &tbl[0], tbl.FindSection(0x1000))
	require.Same(t, &tbl[0], tbl.FindSection(0x2fff))
	require.Same(t, &tbl[1], tbl.FindSection(0x3000))
	require.Nil(t, tbl.FindSection(0xfff))
	require.Nil(t, tbl.FindSection(0x4000))
	require.Nil(t, SectionTable(nil).FindSection(0x1000))
}
