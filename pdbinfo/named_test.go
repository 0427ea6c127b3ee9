// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pdbinfo

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/crlib/crstrings"
	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/pdb/msf"
	"github.com/stretchr/testify/require"
)

func TestHashString(t *testing.T) {
	cases := []struct {
		name string
		want uint16
	}{
		{"", 1024},
		{"a", 1089},
		{"ab", 17993},
		{"abc", 17930},
		{"abcd", 35426},
		{"abcde", 35367},
		{"/names", 64545},
		{"/LinkInfo", 2541},
		{"/src/headerblock", 32461},
		{"/UDTSRCLINEUNDONE", 27570},
		{"sourcelink$1", 3306},
		{"/ipm/header", 52906},
		{"/srcsrv", 11280},
		{"/TMCache", 54761},
	}
	for _, c := range cases {
		require.Equal(t, c.want, HashString(c.name), "name %q", c.name)
	}
}

func TestTableCapacity(t *testing.T) {
	cases := map[int]uint32{
		0: 3, 1: 3,
		2: 6, 3: 6,
		4: 10, 5: 10, 6: 10,
		7: 14, 8: 14,
		9: 20, 12: 20,
		13: 28, 18: 28,
		19: 38, 24: 38,
		25: 52,
	}
	for size, want := range cases {
		require.Equal(t, want, tableCapacity(size), "size %d", size)
	}
}

func TestNamedStreamsBasics(t *testing.T) {
	var n NamedStreams
	require.Equal(t, 0, n.Len())
	require.Empty(t, n.Names())
	_, ok := n.Get("/names")
	require.False(t, ok)
	require.False(t, n.Delete("/names"))

	n.Set("/names", 7)
	n.Set("/LinkInfo", 5)
	n.Set("/names", 9) // replace
	require.Equal(t, 2, n.Len())
	id, ok := n.Get("/names")
	require.True(t, ok)
	require.Equal(t, msf.StreamID(9), id)
	require.Equal(t, []string{"/LinkInfo", "/names"}, n.Names())

	require.True(t, n.Delete("/LinkInfo"))
	require.False(t, n.Delete("/LinkInfo"))
	require.Equal(t, 1, n.Len())
}

// Two names, both hashing to bucket 3 of a capacity 6 table. "/LinkInfo"
// inserts first and keeps the bucket; "/names" probes into bucket 4.
func TestEncodeGolden(t *testing.T) {
	var n NamedStreams
	n.Set("/names", 7)
	n.Set("/LinkInfo", 5)

	var want []byte
	want = binary.LittleEndian.AppendUint32(want, 17)
	want = append(want, "/LinkInfo\x00/names\x00"...)
	want = binary.LittleEndian.AppendUint32(want, 2) // size
	want = binary.LittleEndian.AppendUint32(want, 6) // capacity
	want = binary.LittleEndian.AppendUint32(want, 1) // used bit words
	want = binary.LittleEndian.AppendUint32(want, 0x18)
	want = binary.LittleEndian.AppendUint32(want, 0) // deleted bit words
	want = binary.LittleEndian.AppendUint32(want, 0) // "/LinkInfo"
	want = binary.LittleEndian.AppendUint32(want, 5)
	want = binary.LittleEndian.AppendUint32(want, 10) // "/names"
	want = binary.LittleEndian.AppendUint32(want, 7)
	require.Equal(t, want, n.appendEncoded(nil))
}

func TestEncodeDeterministic(t *testing.T) {
	names := []string{"/names", "/LinkInfo", "/src/headerblock", "/TMCache"}
	var a, b NamedStreams
	for i, name := range names {
		a.Set(name, msf.StreamID(i))
	}
	for i := len(names) - 1; i >= 0; i-- {
		b.Set(names[i], msf.StreamID(i))
	}
	require.Equal(t, a.appendEncoded(nil), b.appendEncoded(nil))
}

func TestNamedStreamsDataDriven(t *testing.T) {
	var n NamedStreams
	datadriven.RunTest(t, "testdata/named", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "define":
			n = NamedStreams{}
			if d.Input != "" {
				for _, line := range crstrings.Lines(d.Input) {
					fields := strings.Fields(line)
					if len(fields) != 2 {
						d.Fatalf(t, "expected \"name id\", got %q", line)
					}
					id, err := strconv.ParseUint(fields[1], 0, 32)
					require.NoError(t, err)
					n.Set(fields[0], msf.StreamID(id))
				}
			}
			return fmt.Sprintf("%d names", n.Len())
		case "get":
			var buf bytes.Buffer
			for _, name := range crstrings.Lines(d.Input) {
				if id, ok := n.Get(name); ok {
					fmt.Fprintf(&buf, "%s -> %s\n", name, id)
				} else {
					fmt.Fprintf(&buf, "%s: not present\n", name)
				}
			}
			return buf.String()
		case "delete":
			var buf bytes.Buffer
			for _, name := range crstrings.Lines(d.Input) {
				if n.Delete(name) {
					fmt.Fprintf(&buf, "%s: deleted\n", name)
				} else {
					fmt.Fprintf(&buf, "%s: not present\n", name)
				}
			}
			return buf.String()
		case "roundtrip":
			enc := n.appendEncoded(nil)
			heapLen := binary.LittleEndian.Uint32(enc)
			size := binary.LittleEndian.Uint32(enc[4+heapLen:])
			capacity := binary.LittleEndian.Uint32(enc[8+heapLen:])
			var got NamedStreams
			rest, err := got.decode(enc)
			require.NoError(t, err)
			require.Empty(t, rest)
			var buf bytes.Buffer
			fmt.Fprintf(&buf, "size=%d capacity=%d\n", size, capacity)
			for _, name := range got.Names() {
				id, _ := got.Get(name)
				fmt.Fprintf(&buf, "%s -> %s\n", name, id)
			}
			return buf.String()
		default:
			d.Fatalf(t, "unknown command %q", d.Cmd)
			return ""
		}
	})
}

func TestSevenNames(t *testing.T) {
	names := []string{
		"/names", "/LinkInfo", "/src/headerblock", "/UDTSRCLINEUNDONE",
		"sourcelink$1", "/ipm/header", "/srcsrv",
	}
	var n NamedStreams
	for i, name := range names {
		n.Set(name, msf.StreamID(i+10))
	}

	// Seven entries overload capacity 10 and land on 14, where these
	// names happen to spread over distinct buckets.
	require.Equal(t, uint32(14), tableCapacity(n.Len()))
	seen := map[uint16]string{}
	for _, name := range names {
		b := HashString(name) % 14
		require.NotContains(t, seen, b, "%q and %q share bucket %d", name, seen[b], b)
		seen[b] = name
	}

	enc := n.appendEncoded(nil)
	heapLen := binary.LittleEndian.Uint32(enc)
	require.Equal(t, uint32(7), binary.LittleEndian.Uint32(enc[4+heapLen:]))
	require.Equal(t, uint32(14), binary.LittleEndian.Uint32(enc[8+heapLen:]))

	var got NamedStreams
	rest, err := got.decode(enc)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, n.Names(), got.Names())
	for _, name := range names {
		wantID, _ := n.Get(name)
		gotID, ok := got.Get(name)
		require.True(t, ok)
		require.Equal(t, wantID, gotID)
	}
}
