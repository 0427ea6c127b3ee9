// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package msf

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pdb/internal/bitvec"
	"github.com/cockroachdb/pdb/vfs"
)

// Write serializes the container to out, which must be an empty writable
// file. Stream data pages go out first, then the directory, then the list
// of directory pages, then both free page map copies, and the superblock
// last so that a crash mid-write never leaves a file with a valid header.
// The data is synced before Write returns.
func (f *File) Write(out vfs.File) error {
	w := &pageWriter{out: out, next: 3}

	type streamMeta struct {
		length uint32
		pages  []PageIndex
	}
	metas := make([]streamMeta, len(f.streams))
	for i, s := range f.streams {
		if s == nil {
			metas[i].length = invalidStreamLength
			continue
		}
		data, err := ReadAll(s)
		if err != nil {
			return errors.Wrapf(err, "reading stream %s", StreamID(i))
		}
		pages, err := w.writePages(data)
		if err != nil {
			return errors.Wrapf(err, "stream %s", StreamID(i))
		}
		metas[i] = streamMeta{length: uint32(len(data)), pages: pages}
	}

	// Stream table: count, per-stream lengths, page lists of the present
	// streams.
	dir := binary.LittleEndian.AppendUint32(nil, uint32(len(metas)))
	for _, m := range metas {
		dir = binary.LittleEndian.AppendUint32(dir, m.length)
	}
	for _, m := range metas {
		for _, p := range m.pages {
			dir = binary.LittleEndian.AppendUint32(dir, uint32(p))
		}
	}
	dirSize := uint32(len(dir))
	dirPageCount := pagesFor(dirSize)
	if rootCount := pagesFor(dirPageCount * 4); rootCount > maxRootPages {
		return errors.Wrapf(ErrDirectoryTooLarge,
			"%d byte directory needs %d root pages, superblock holds %d",
			errors.Safe(dirSize), errors.Safe(rootCount), errors.Safe(maxRootPages))
	}
	dirPages, err := w.writePages(dir)
	if err != nil {
		return errors.Wrap(err, "stream directory")
	}
	rootList := make([]byte, 0, len(dirPages)*4)
	for _, p := range dirPages {
		rootList = binary.LittleEndian.AppendUint32(rootList, uint32(p))
	}
	rootPages, err := w.writePages(rootList)
	if err != nil {
		return errors.Wrap(err, "directory page list")
	}

	numPages := uint32(w.next)
	if err := w.writeFreePageMaps(numPages); err != nil {
		return err
	}

	sb := make([]byte, superblockSize)
	copy(sb, Magic[:])
	binary.LittleEndian.PutUint32(sb[32:], PageSize)
	binary.LittleEndian.PutUint32(sb[36:], 1)
	binary.LittleEndian.PutUint32(sb[40:], numPages)
	binary.LittleEndian.PutUint32(sb[44:], dirSize)
	binary.LittleEndian.PutUint32(sb[48:], 0)
	for i, p := range rootPages {
		binary.LittleEndian.PutUint32(sb[52+i*4:], uint32(p))
	}
	if _, err := out.WriteAt(sb, 0); err != nil {
		return errors.Wrap(err, "writing superblock")
	}
	return vfs.SyncData(out)
}

// pageWriter allocates pages in file order, stepping over the indices
// reserved for the free page map.
type pageWriter struct {
	out  vfs.File
	next PageIndex
}

func (w *pageWriter) alloc() PageIndex {
	for isFreePageMapSlot(w.next) {
		w.next++
	}
	p := w.next
	w.next++
	return p
}

// writePages writes data to freshly allocated pages, zero-padding the
// last page, and returns the page indices in stream order.
func (w *pageWriter) writePages(data []byte) ([]PageIndex, error) {
	n := pagesFor(uint32(len(data)))
	pages := make([]PageIndex, 0, n)
	var page [PageSize]byte
	for i := uint32(0); i < n; i++ {
		chunk := data[i*PageSize:]
		if len(chunk) > PageSize {
			chunk = chunk[:PageSize]
		}
		copy(page[:], chunk)
		for j := len(chunk); j < PageSize; j++ {
			page[j] = 0
		}
		p := w.alloc()
		if _, err := w.out.WriteAt(page[:], int64(p)*PageSize); err != nil {
			return nil, errors.Wrapf(err, "writing page %s", p)
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// writeFreePageMaps fills every free page map slot below numPages, both
// copies identically. Slot pair k describes the k-th window of
// PageSize*8 pages: a set bit marks a free page, so pages inside the
// file are cleared and everything beyond it stays set.
func (w *pageWriter) writeFreePageMaps(numPages uint32) error {
	const windowBits = PageSize * 8
	for k := uint32(0); 1+k*PageSize < numPages; k++ {
		fpm := bitvec.NewAllSet(windowBits)
		base := k * windowBits
		for p := base; p < numPages && p < base+windowBits; p++ {
			fpm.Clear(p - base)
		}
		content := make([]byte, 0, PageSize)
		for _, word := range fpm.Words() {
			content = binary.LittleEndian.AppendUint32(content, word)
		}
		for _, slot := range []PageIndex{PageIndex(1 + k*PageSize), PageIndex(2 + k*PageSize)} {
			if _, err := w.out.WriteAt(content, int64(slot)*PageSize); err != nil {
				return errors.Wrapf(err, "writing free page map %s", slot)
			}
		}
	}
	return nil
}
