// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package msf reads and writes the Multi-Stream File container underlying
// PDB files: a page-based file holding a vector of independent byte
// streams behind a two-level page directory.
//
// The layout of a v7 container:
//
//	+--------------------+
//	| superblock         |  page 0: magic, geometry, root directory pages
//	+--------------------+
//	| free page map      |  page 1 (copy A), page 2 (copy B)
//	+--------------------+
//	| data pages         |  stream pages, directory pages, root pages
//	|        ...         |
//	+--------------------+
//
// The superblock names the pages that hold the list of directory pages;
// the directory pages concatenate to the stream table: a stream count,
// per-stream byte lengths, and per-stream page lists. Free page map slots
// recur at page indices congruent to 1 and 2 modulo the page size and are
// never used for data.
package msf

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pdb/internal/base"
	"github.com/cockroachdb/redact"
)

// PageSize is the page size this package reads and writes. MSF v7 permits
// other powers of two in principle; every PDB emitted by the Microsoft
// toolchain uses 1024 and other sizes are rejected.
const PageSize = 1024

// Magic identifies an MSF v7 container. It occupies the first 32 bytes of
// the file.
var Magic = [32]byte{
	'M', 'i', 'c', 'r', 'o', 's', 'o', 'f', 't', ' ',
	'C', '/', 'C', '+', '+', ' ',
	'M', 'S', 'F', ' ', '7', '.', '0', '0',
	'\r', '\n', 0x1a, 'D', 'S', 0, 0, 0,
}

const (
	// superblockSize is the byte length of the superblock: the magic, five
	// u32 fields, and the root directory page array.
	superblockSize = 32 + 5*4 + maxRootPages*4

	// maxRootPages is the size of the superblock's root directory page
	// array, and so the hard limit on directory size.
	maxRootPages = 73

	// invalidStreamLength marks an absent stream in the directory.
	invalidStreamLength = 0xFFFFFFFF
)

// StreamID identifies a stream by its position in the directory.
type StreamID int32

// InvalidStreamID is the id of no stream.
const InvalidStreamID StreamID = -1

// String implements fmt.Stringer.
func (id StreamID) String() string {
	return fmt.Sprintf("%d", int32(id))
}

// SafeFormat implements redact.SafeFormatter.
func (id StreamID) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeInt(int32(id)))
}

// PageIndex identifies a page by its position in the container file.
type PageIndex uint32

// String implements fmt.Stringer.
func (p PageIndex) String() string {
	return fmt.Sprintf("%d", uint32(p))
}

// SafeFormat implements redact.SafeFormatter.
func (p PageIndex) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeUint(uint32(p)))
}

// Errors surfaced by the container layer.
var (
	// ErrBadHeader indicates the superblock magic or fixed fields are not
	// those of an MSF v7 container.
	ErrBadHeader = base.MarkCorruptionError(errors.New("pdb/msf: invalid superblock"))
	// ErrUnsupportedPageSize indicates a well-formed superblock declaring a
	// page size this package does not read.
	ErrUnsupportedPageSize = errors.New("pdb/msf: unsupported page size")
	// ErrTruncatedFile indicates the file ends before a page the directory
	// or superblock references.
	ErrTruncatedFile = base.MarkCorruptionError(errors.New("pdb/msf: truncated file"))
	// ErrBadDirectory indicates a directory page index outside the file.
	ErrBadDirectory = base.MarkCorruptionError(errors.New("pdb/msf: invalid stream directory"))
	// ErrInconsistentLengths indicates the directory byte length does not
	// match the stream table it contains.
	ErrInconsistentLengths = base.MarkCorruptionError(errors.New("pdb/msf: inconsistent directory lengths"))
	// ErrDirectoryTooLarge indicates a directory whose root page list does
	// not fit the superblock array.
	ErrDirectoryTooLarge = errors.New("pdb/msf: stream directory too large")
	// ErrNoStream indicates an absent stream slot.
	ErrNoStream = errors.New("pdb: no such stream")
)

// pagesFor returns the number of pages needed to hold length bytes.
func pagesFor(length uint32) uint32 {
	return (length + PageSize - 1) / PageSize
}

// padToPage returns the number of zero bytes needed to advance offset to
// the next page boundary, which is zero if offset is already on one.
func padToPage(offset uint32) uint32 {
	if rem := offset % PageSize; rem != 0 {
		return PageSize - rem
	}
	return 0
}

// isFreePageMapSlot reports whether a page index is reserved for the free
// page map. Slots recur at indices congruent to 1 and 2 modulo the page
// size for the whole length of the file.
func isFreePageMapSlot(page PageIndex) bool {
	rem := uint32(page) % PageSize
	return rem == 1 || rem == 2
}
