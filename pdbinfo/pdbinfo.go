// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package pdbinfo reads and writes the header info stream, stream 1 of a
// PDB. The stream carries the file's identity (version, signature time,
// age, GUID), the table naming streams that have no fixed slot, and an
// optional run of trailing feature codes.
//
// Layout:
//
//	u32 version, u32 signature, u32 age, 16 byte GUID
//	named stream table (see NamedStreams)
//	u32 zero
//	u32 feature codes...
package pdbinfo

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pdb/internal/base"
)

// VersionVC70 is the header info version this package reads and writes,
// the one every VC7.0+ toolchain emits.
const VersionVC70 = 20000404

const headerSize = 28

// Feature codes some toolchains append after the named stream table.
const (
	FeatureVC110            = 20091201
	FeatureVC140            = 20140508
	FeatureNoTypeMerge      = 0x4D544F4E
	FeatureMinimalDebugInfo = 0x494E494D
)

// ErrUnsupportedVersion indicates a header info stream written by a
// toolchain this package does not understand.
var ErrUnsupportedVersion = errors.New("pdb: unsupported header info version")

// Info is the parsed header info stream.
type Info struct {
	Version uint32
	// Signature is the creation time in seconds since the Unix epoch.
	Signature uint32
	// Age counts the times the file has been written. Consumers match it
	// against the age a binary's debug directory records.
	Age  uint32
	GUID GUID
	// Streams is the named stream table.
	Streams NamedStreams
	// Features holds any trailing feature codes, re-emitted verbatim on
	// encode.
	Features []uint32
}

// Decode parses a header info stream.
func Decode(data []byte) (*Info, error) {
	if len(data) < headerSize {
		return nil, base.CorruptionErrorf("pdb: header info stream of %d bytes", errors.Safe(len(data)))
	}
	info := &Info{
		Version:   binary.LittleEndian.Uint32(data[0:]),
		Signature: binary.LittleEndian.Uint32(data[4:]),
		Age:       binary.LittleEndian.Uint32(data[8:]),
	}
	copy(info.GUID[:], data[12:headerSize])
	if info.Version != VersionVC70 {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", errors.Safe(info.Version))
	}
	rest, err := info.Streams.decode(data[headerSize:])
	if err != nil {
		return nil, err
	}
	// A zero u32 follows the table. Some producers omit it and start the
	// feature codes immediately; no feature code is zero, so presence is
	// unambiguous.
	if len(rest) >= 4 && binary.LittleEndian.Uint32(rest) == 0 {
		rest = rest[4:]
	}
	for len(rest) >= 4 {
		info.Features = append(info.Features, binary.LittleEndian.Uint32(rest))
		rest = rest[4:]
	}
	return info, nil
}

// AppendEncoded appends the serialized stream to buf and returns the
// extended buffer. Encoding the same Info twice yields identical bytes.
func (i *Info) AppendEncoded(buf []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, i.Version)
	buf = binary.LittleEndian.AppendUint32(buf, i.Signature)
	buf = binary.LittleEndian.AppendUint32(buf, i.Age)
	buf = append(buf, i.GUID[:]...)
	buf = i.Streams.appendEncoded(buf)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	for _, code := range i.Features {
		buf = binary.LittleEndian.AppendUint32(buf, code)
	}
	return buf
}
