// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import (
	"io"
	"os"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemFSBasics(t *testing.T) {
	fs := NewMem()

	f, err := fs.Create("dir/a.pdb")
	require.NoError(t, err)
	n, err := f.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	_, err = f.WriteAt([]byte("HE"), 0)
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	g, err := fs.Open("dir/a.pdb")
	require.NoError(t, err)
	buf := make([]byte, 5)
	_, err = io.ReadFull(g, buf)
	require.NoError(t, err)
	require.Equal(t, "HEllo", string(buf))

	// Reads past the end return io.EOF with a short count.
	m, err := g.ReadAt(buf, 3)
	require.Equal(t, io.EOF, err)
	require.Equal(t, 2, m)
	require.NoError(t, g.Close())

	fi, err := fs.Stat("dir/a.pdb")
	require.NoError(t, err)
	require.Equal(t, int64(5), fi.Size())
	require.Equal(t, "a.pdb", fi.Name())

	_, err = fs.Open("dir/missing.pdb")
	require.True(t, os.IsNotExist(err))
}

func TestMemFSWriteAtExtends(t *testing.T) {
	fs := NewMem()
	f, err := fs.Create("x")
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{0xAB}, 10)
	require.NoError(t, err)
	fi, err := f.Stat()
	require.NoError(t, err)
	require.Equal(t, int64(11), fi.Size())

	// The gap reads back as zeroes.
	buf := make([]byte, 11)
	_, err = f.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, byte(0), buf[0])
	require.Equal(t, byte(0xAB), buf[10])
}

func TestMemFSOpenReadOnly(t *testing.T) {
	fs := NewMem()
	f, err := fs.Create("x")
	require.NoError(t, err)
	_, err = f.Write([]byte("data"))
	require.NoError(t, err)

	g, err := fs.Open("x")
	require.NoError(t, err)
	_, err = g.WriteAt([]byte("nope"), 0)
	require.Error(t, err)
}

func TestMemFSRenameListRemove(t *testing.T) {
	fs := NewMem()
	for _, name := range []string{"d/a", "d/b", "e/c"} {
		f, err := fs.Create(name)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}
	require.NoError(t, fs.Rename("d/b", "d/bb"))

	names, err := fs.List("d")
	require.NoError(t, err)
	sort.Strings(names)
	require.Equal(t, []string{"a", "bb"}, names)

	require.NoError(t, fs.Remove("d/a"))
	_, err = fs.Stat("d/a")
	require.True(t, os.IsNotExist(err))
	require.Error(t, fs.Remove("d/a"))
}
