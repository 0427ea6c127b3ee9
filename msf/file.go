// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package msf

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pdb/vfs"
)

// File is an open MSF container: an ordered table of streams, some of
// which may be absent. Streams read from disk stay file-backed until a
// caller asks for a writable copy; streams added or modified in memory
// are materialized on the next Write.
//
// A File is not safe for concurrent mutation.
type File struct {
	fh      vfs.File
	streams []Stream
}

// NewFile returns an empty in-memory container with no streams.
func NewFile() *File {
	return &File{}
}

// Close closes the underlying file handle, if any. Streams backed by the
// file must not be read afterwards.
func (f *File) Close() error {
	if f.fh == nil {
		return nil
	}
	fh := f.fh
	f.fh = nil
	return fh.Close()
}

// NumStreams returns the number of stream slots in the directory,
// counting absent slots.
func (f *File) NumStreams() int {
	return len(f.streams)
}

// Present reports whether id names a stream that exists.
func (f *File) Present(id StreamID) bool {
	return id >= 0 && int(id) < len(f.streams) && f.streams[id] != nil
}

// Stream returns the stream with the given id, or ErrNoStream if the slot
// is out of range or absent.
func (f *File) Stream(id StreamID) (Stream, error) {
	if !f.Present(id) {
		return nil, errors.Wrapf(ErrNoStream, "stream %s", id)
	}
	return f.streams[id], nil
}

// AddStream appends a stream to the directory and returns its id.
func (f *File) AddStream(s Stream) StreamID {
	f.streams = append(f.streams, s)
	return StreamID(len(f.streams) - 1)
}

// ReplaceStream sets the stream in an existing slot. The slot may have
// been absent; passing a nil stream makes it absent.
func (f *File) ReplaceStream(id StreamID, s Stream) error {
	if id < 0 || int(id) >= len(f.streams) {
		return errors.Wrapf(ErrNoStream, "stream %s", id)
	}
	f.streams[id] = s
	return nil
}

// EnsureWritable returns the stream with the given id as a mutable
// in-memory stream, copying a file-backed stream's contents on first use.
// The returned stream is the one the next Write persists.
func (f *File) EnsureWritable(id StreamID) (*ByteStream, error) {
	if !f.Present(id) {
		return nil, errors.Wrapf(ErrNoStream, "stream %s", id)
	}
	if b, ok := f.streams[id].(*ByteStream); ok {
		return b, nil
	}
	data, err := ReadAll(f.streams[id])
	if err != nil {
		return nil, err
	}
	b := NewByteStream(data)
	f.streams[id] = b
	return b, nil
}
