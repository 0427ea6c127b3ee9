// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package pdb reads and mutates Microsoft program database files. A File
// wraps the MSF container with typed accessors for the fixed streams
// (header info, TPI, DBI) and mutators that keep the cross-stream
// bookkeeping consistent: stamping a fresh GUID updates both the header
// info stream and the DBI age, adding a named stream rewrites the named
// stream map, and storing an OMAP table maintains the debug header slot
// that names it.
//
// The package reads lazily: streams stay file-backed until a mutator
// copies them into memory, and Write serializes the container back out
// page by page. File is not safe for concurrent use, but streams handed
// out before a mutation keep reading the bytes they were opened over.
package pdb

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pdb/dbi"
	"github.com/cockroachdb/pdb/internal/base"
	"github.com/cockroachdb/pdb/msf"
	"github.com/cockroachdb/pdb/omap"
	"github.com/cockroachdb/pdb/pdbinfo"
	"github.com/cockroachdb/pdb/sym"
	"github.com/cockroachdb/pdb/vfs"
)

// The MSF stream table opens with four fixed streams. Everything after
// them is either named through the header info stream or referenced by
// an index stored in another stream.
const (
	// StreamPrevDirectory held the previous directory while older tools
	// committed a new one. It is carried but never interpreted.
	StreamPrevDirectory msf.StreamID = 0
	// StreamHeaderInfo holds the version, signature, age, GUID, and the
	// named stream map.
	StreamHeaderInfo msf.StreamID = 1
	// StreamTPI holds the type records.
	StreamTPI msf.StreamID = 2
	// StreamDBI holds the debug info header, its variable substreams,
	// and the debug header naming auxiliary streams.
	StreamDBI msf.StreamID = 3
)

// ErrNoStream is returned when an operation names a stream the file does
// not carry.
var ErrNoStream = msf.ErrNoStream

// Options holds the parameters for opening a File.
type Options struct {
	// Logger records notes about tolerated oddities, such as the type
	// walker's duplicate-name and forward-reference diagnostics. It
	// defaults to DefaultLogger.
	Logger base.Logger
}

// EnsureDefaults fills in unset options.
func (o Options) EnsureDefaults() Options {
	if o.Logger == nil {
		o.Logger = base.DefaultLogger{}
	}
	return o
}

// File is an open program database. The zero value is not usable; call
// Open. File is not safe for concurrent use.
type File struct {
	opts Options
	msf  *msf.File
}

// Open opens the program database at path. The returned File retains a
// handle into fs until Close.
func Open(fs vfs.FS, path string, opts Options) (*File, error) {
	fh, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	m, err := msf.Open(fh)
	if err != nil {
		_ = fh.Close()
		return nil, err
	}
	return &File{opts: opts.EnsureDefaults(), msf: m}, nil
}

// Close releases the underlying file handle. Streams obtained from the
// File must not be read afterwards.
func (f *File) Close() error {
	return f.msf.Close()
}

// NumStreams returns the size of the stream table, counting absent
// slots.
func (f *File) NumStreams() int {
	return f.msf.NumStreams()
}

// Stream returns the stream with the given id, or nil when the id is out
// of range or the slot is absent.
func (f *File) Stream(id msf.StreamID) msf.Stream {
	s, err := f.msf.Stream(id)
	if err != nil {
		return nil
	}
	return s
}

// EnsureWritable returns the stream with the given id as a mutable
// in-memory stream, copying its contents out of the file on first use.
// Mutations through the returned stream are what the next Write
// persists.
func (f *File) EnsureWritable(id msf.StreamID) (*msf.ByteStream, error) {
	return f.msf.EnsureWritable(id)
}

// AddStream appends a stream to the table and returns its id.
func (f *File) AddStream(s msf.Stream) msf.StreamID {
	return f.msf.AddStream(s)
}

// ReplaceStream swaps the stream stored at id. Readers holding the
// previous stream keep reading the bytes it held before the swap.
func (f *File) ReplaceStream(id msf.StreamID, s msf.Stream) error {
	return f.msf.ReplaceStream(id, s)
}

// streamBytes reads the full contents of one stream.
func (f *File) streamBytes(id msf.StreamID) ([]byte, error) {
	s, err := f.msf.Stream(id)
	if err != nil {
		return nil, err
	}
	return msf.ReadAll(s)
}

// Info decodes the header info stream.
func (f *File) Info() (*pdbinfo.Info, error) {
	data, err := f.streamBytes(StreamHeaderInfo)
	if err != nil {
		return nil, err
	}
	return pdbinfo.Decode(data)
}

// DbiHeader decodes the fixed header of the debug info stream.
func (f *File) DbiHeader() (*dbi.Header, error) {
	data, err := f.streamBytes(StreamDBI)
	if err != nil {
		return nil, err
	}
	hdr, err := dbi.DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	return &hdr, nil
}

// SetGuid stamps a fresh identity onto the file: the given GUID, the
// current time as the signature, and age 1 in both the header info
// stream and the debug info header. Debuggers match a PDB to its binary
// by this triple. SetGuid fails without mutating anything when either
// stream is absent or malformed.
func (f *File) SetGuid(g pdbinfo.GUID) error {
	info, err := f.Info()
	if err != nil {
		return errors.Wrap(err, "pdb: set guid")
	}
	dbiBytes, err := f.streamBytes(StreamDBI)
	if err != nil {
		return errors.Wrap(err, "pdb: set guid")
	}
	hdr, err := dbi.DecodeHeader(dbiBytes)
	if err != nil {
		return errors.Wrap(err, "pdb: set guid")
	}

	info.GUID = g
	info.Signature = uint32(time.Now().Unix())
	info.Age = 1
	if err := f.ReplaceStream(StreamHeaderInfo, msf.NewByteStream(info.AppendEncoded(nil))); err != nil {
		return err
	}
	hdr.Age = 1
	if err := hdr.EncodeInto(dbiBytes); err != nil {
		return err
	}
	return f.ReplaceStream(StreamDBI, msf.NewByteStream(dbiBytes))
}

// AddNamedStream appends a stream holding data, records name for it in
// the named stream map, and returns its id. The stream takes ownership
// of data. An existing entry with the same name is repointed at the new
// stream; the old stream stays in the table.
func (f *File) AddNamedStream(name string, data []byte) (msf.StreamID, error) {
	info, err := f.Info()
	if err != nil {
		return msf.InvalidStreamID, errors.Wrapf(err, "pdb: add named stream %q", name)
	}
	id := f.AddStream(msf.NewByteStream(data))
	info.Streams.Set(name, id)
	if err := f.ReplaceStream(StreamHeaderInfo, msf.NewByteStream(info.AppendEncoded(nil))); err != nil {
		return msf.InvalidStreamID, err
	}
	return id, nil
}

// SetOmapStream stores entries as the translation table named by the
// given debug header slot, normally DbgOmapToSrc or DbgOmapFromSrc. A
// slot already naming a stream has that stream replaced; otherwise a
// stream is appended and the slot is updated to name it.
func (f *File) SetOmapStream(slot dbi.DbgSlot, entries omap.Omap) error {
	dbiBytes, err := f.streamBytes(StreamDBI)
	if err != nil {
		return errors.Wrapf(err, "pdb: set %s stream", slot)
	}
	hdr, err := dbi.DecodeHeader(dbiBytes)
	if err != nil {
		return errors.Wrapf(err, "pdb: set %s stream", slot)
	}
	existing, err := hdr.DbgStream(dbiBytes, slot)
	if err != nil {
		return err
	}
	payload := msf.NewByteStream(entries.AppendEncoded(nil))
	if existing != msf.InvalidStreamID {
		if int(existing) < f.NumStreams() {
			return f.ReplaceStream(existing, payload)
		}
		// A stale slot naming a stream beyond the table is treated like
		// an absent one.
		f.opts.Logger.Infof("pdb: %s slot names stream %s beyond the %d entry table", slot, existing, f.NumStreams())
	}
	id := msf.StreamID(f.NumStreams())
	if err := hdr.SetDbgStream(dbiBytes, slot, id); err != nil {
		return err
	}
	f.AddStream(payload)
	return f.ReplaceStream(StreamDBI, msf.NewByteStream(dbiBytes))
}

// SectionHeaders reads the section header table out of the stream the
// debug header's section_header slot names. The table maps the
// section:offset addresses in symbol records to relative virtual
// addresses.
func (f *File) SectionHeaders() (sym.SectionTable, error) {
	dbiBytes, err := f.streamBytes(StreamDBI)
	if err != nil {
		return nil, errors.Wrap(err, "pdb: section headers")
	}
	hdr, err := dbi.DecodeHeader(dbiBytes)
	if err != nil {
		return nil, errors.Wrap(err, "pdb: section headers")
	}
	id, err := hdr.DbgStream(dbiBytes, dbi.DbgSectionHeader)
	if err != nil {
		return nil, err
	}
	if id == msf.InvalidStreamID {
		return nil, errors.Wrap(msf.ErrNoStream, "section headers")
	}
	data, err := f.streamBytes(id)
	if err != nil {
		return nil, err
	}
	return sym.DecodeSectionHeaders(data)
}

// Write serializes the container to a new file at path, creating or
// truncating it. The write is synced before Write returns. The File
// stays open and further mutations remain possible.
func (f *File) Write(fs vfs.FS, path string) error {
	out, err := fs.Create(path)
	if err != nil {
		return err
	}
	if err := f.msf.Write(out); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
