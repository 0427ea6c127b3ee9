// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package msf

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pdb/vfs"
)

// Open reads the superblock and stream directory of an MSF container and
// returns a File whose streams read through the page lists on demand. The
// file handle is retained; Close releases it.
func Open(fh vfs.File) (*File, error) {
	sb := make([]byte, superblockSize)
	if n, err := fh.ReadAt(sb, 0); err != nil {
		if err != io.EOF {
			return nil, errors.Wrap(err, "reading superblock")
		}
		if n < len(Magic) || !bytes.Equal(sb[:len(Magic)], Magic[:]) {
			return nil, errors.Wrap(ErrBadHeader, "bad magic")
		}
		return nil, errors.Wrap(ErrTruncatedFile, "superblock")
	}
	if !bytes.Equal(sb[:len(Magic)], Magic[:]) {
		return nil, errors.Wrap(ErrBadHeader, "bad magic")
	}

	pageSize := binary.LittleEndian.Uint32(sb[32:])
	activeFpm := binary.LittleEndian.Uint32(sb[36:])
	numPages := binary.LittleEndian.Uint32(sb[40:])
	dirSize := binary.LittleEndian.Uint32(sb[44:])

	if pageSize != PageSize {
		return nil, errors.Wrapf(ErrUnsupportedPageSize, "page size %d", errors.Safe(pageSize))
	}
	if activeFpm != 1 && activeFpm != 2 {
		return nil, errors.Wrapf(ErrBadHeader, "active free page map %d", errors.Safe(activeFpm))
	}
	if numPages < 3 {
		return nil, errors.Wrapf(ErrBadHeader, "%d pages", errors.Safe(numPages))
	}
	info, err := fh.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat")
	}
	if info.Size() < int64(numPages)*PageSize {
		return nil, errors.Wrapf(ErrTruncatedFile,
			"%d bytes on disk, superblock declares %d pages", info.Size(), errors.Safe(numPages))
	}
	if dirSize < 4 {
		return nil, errors.Wrapf(ErrInconsistentLengths, "directory of %d bytes", errors.Safe(dirSize))
	}

	// The superblock's root page array names the pages that hold the list
	// of directory pages. Read the roots, then the directory pages they
	// name, and concatenate into the directory bytes.
	dirPageCount := pagesFor(dirSize)
	rootCount := pagesFor(dirPageCount * 4)
	if rootCount > maxRootPages {
		return nil, errors.Wrapf(ErrBadDirectory,
			"directory of %d bytes needs %d root pages", errors.Safe(dirSize), errors.Safe(rootCount))
	}
	r := pageReader{fh: fh, numPages: numPages}
	rootBytes, err := r.readPageList(sb[52:], rootCount, dirPageCount*4)
	if err != nil {
		return nil, err
	}
	dir, err := r.readPageList(rootBytes, dirPageCount, dirSize)
	if err != nil {
		return nil, err
	}

	streams, err := parseDirectory(fh, dir, numPages)
	if err != nil {
		return nil, err
	}
	return &File{fh: fh, streams: streams}, nil
}

// pageReader reads whole pages, validating indices against the page count
// the superblock declared.
type pageReader struct {
	fh       vfs.File
	numPages uint32
}

// readPageList reads count pages whose indices are the leading u32s of
// list, concatenates them, and truncates the result to size bytes.
func (r *pageReader) readPageList(list []byte, count, size uint32) ([]byte, error) {
	buf := make([]byte, 0, count*PageSize)
	for i := uint32(0); i < count; i++ {
		page := PageIndex(binary.LittleEndian.Uint32(list[i*4:]))
		if uint32(page) >= r.numPages {
			return nil, errors.Wrapf(ErrBadDirectory,
				"page %s out of range (%d pages)", page, errors.Safe(r.numPages))
		}
		start := len(buf)
		buf = append(buf, make([]byte, PageSize)...)
		if _, err := r.fh.ReadAt(buf[start:], int64(page)*PageSize); err != nil {
			if err == io.EOF {
				return nil, errors.Wrapf(ErrTruncatedFile, "page %s", page)
			}
			return nil, errors.Wrapf(err, "reading page %s", page)
		}
	}
	return buf[:size], nil
}

// parseDirectory decodes the stream table: a stream count, one byte
// length per stream, then the concatenated page lists of the present
// streams. A length of 0xFFFFFFFF marks an absent stream, which has no
// page list and is kept as a nil slot.
func parseDirectory(fh vfs.File, dir []byte, numPages uint32) ([]Stream, error) {
	count := binary.LittleEndian.Uint32(dir)
	if uint64(4)+uint64(count)*4 > uint64(len(dir)) {
		return nil, errors.Wrapf(ErrInconsistentLengths,
			"%d streams in %d directory bytes", errors.Safe(count), errors.Safe(len(dir)))
	}
	lengths := make([]uint32, count)
	for i := range lengths {
		lengths[i] = binary.LittleEndian.Uint32(dir[4+i*4:])
	}

	off := uint64(4) + uint64(count)*4
	streams := make([]Stream, count)
	for i, length := range lengths {
		if length == invalidStreamLength {
			continue
		}
		pageCount := (uint64(length) + PageSize - 1) / PageSize
		if off+pageCount*4 > uint64(len(dir)) {
			return nil, errors.Wrapf(ErrInconsistentLengths,
				"stream %s of %d bytes overruns directory", StreamID(i), errors.Safe(length))
		}
		pages := make([]PageIndex, pageCount)
		for j := range pages {
			pages[j] = PageIndex(binary.LittleEndian.Uint32(dir[off+uint64(j)*4:]))
			if uint32(pages[j]) >= numPages {
				return nil, errors.Wrapf(ErrBadDirectory,
					"stream %s page %s out of range (%d pages)", StreamID(i), pages[j], errors.Safe(numPages))
			}
		}
		off += pageCount * 4
		streams[i] = &fileStream{f: fh, pages: pages, length: length}
	}
	if off != uint64(len(dir)) {
		return nil, errors.Wrapf(ErrInconsistentLengths,
			"directory is %d bytes, stream table consumes %d", errors.Safe(len(dir)), errors.Safe(off))
	}
	return streams, nil
}
