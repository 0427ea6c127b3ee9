// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package msf

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pdb/vfs"
)

// Stream is a read-only view of one stream's bytes. Implementations are
// safe for concurrent readers.
type Stream interface {
	io.ReaderAt
	// Length returns the stream's byte length.
	Length() uint32
}

// ReadAll returns a stream's complete contents.
func ReadAll(s Stream) ([]byte, error) {
	buf := make([]byte, s.Length())
	if len(buf) == 0 {
		return buf, nil
	}
	n, err := s.ReadAt(buf, 0)
	if err != nil && (err != io.EOF || n != len(buf)) {
		return nil, err
	}
	return buf, nil
}

// Cursor adapts a Stream to sequential reading. The zero value is not
// usable; construct with NewCursor.
type Cursor struct {
	s   Stream
	pos uint32
}

// NewCursor returns a cursor positioned at the start of s.
func NewCursor(s Stream) *Cursor {
	return &Cursor{s: s}
}

// Length returns the underlying stream's byte length.
func (c *Cursor) Length() uint32 { return c.s.Length() }

// Pos returns the current read position.
func (c *Cursor) Pos() uint32 { return c.pos }

// Seek moves the read position to pos.
func (c *Cursor) Seek(pos uint32) error {
	if pos > c.s.Length() {
		return errors.Errorf("pdb/msf: seek to %d beyond stream length %d", pos, c.s.Length())
	}
	c.pos = pos
	return nil
}

// Read implements io.Reader. A read at end-of-stream returns io.EOF; a
// read that ends there returns the bytes read and a nil error.
func (c *Cursor) Read(p []byte) (int, error) {
	if c.pos >= c.s.Length() {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	if rem := c.s.Length() - c.pos; uint32(len(p)) > rem {
		p = p[:rem]
	}
	n, err := c.s.ReadAt(p, int64(c.pos))
	c.pos += uint32(n)
	if err == io.EOF && n == len(p) {
		err = nil
	}
	return n, err
}

// ByteStream is a mutable in-memory stream. Writes beyond the current
// length grow the stream, zero-filling any gap. The zero value is an
// empty stream ready for use.
type ByteStream struct {
	data []byte
}

// NewByteStream returns a stream holding data. The stream takes ownership
// of the slice.
func NewByteStream(data []byte) *ByteStream {
	return &ByteStream{data: data}
}

// Length implements Stream.
func (b *ByteStream) Length() uint32 { return uint32(len(b.data)) }

// Bytes returns the stream's backing slice. The slice is invalidated by
// any subsequent write.
func (b *ByteStream) Bytes() []byte { return b.data }

// ReadAt implements io.ReaderAt.
func (b *ByteStream) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.Errorf("pdb/msf: read at negative offset %d", off)
	}
	if off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt, growing the stream as needed.
func (b *ByteStream) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.Errorf("pdb/msf: write at negative offset %d", off)
	}
	if end := off + int64(len(p)); end > int64(len(b.data)) {
		grown := make([]byte, end)
		copy(grown, b.data)
		b.data = grown
	}
	return copy(b.data[off:], p), nil
}

// Truncate shortens or zero-extends the stream to length n.
func (b *ByteStream) Truncate(n uint32) {
	if n <= uint32(len(b.data)) {
		b.data = b.data[:n]
		return
	}
	grown := make([]byte, n)
	copy(grown, b.data)
	b.data = grown
}

// fileStream reads a stream's bytes through its page list, leaving the
// pages in place in the container file.
type fileStream struct {
	f      vfs.File
	pages  []PageIndex
	length uint32
}

// Length implements Stream.
func (s *fileStream) Length() uint32 { return s.length }

// ReadAt implements io.ReaderAt, translating the contiguous stream offset
// through the page list. Runs of adjacent pages are read in one call.
func (s *fileStream) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.Errorf("pdb/msf: read at negative offset %d", off)
	}
	if off >= int64(s.length) {
		return 0, io.EOF
	}
	clipped := false
	if rem := int64(s.length) - off; int64(len(p)) > rem {
		p = p[:rem]
		clipped = true
	}
	var n int
	for len(p) > 0 {
		pageNum := int(off / PageSize)
		pageOff := off % PageSize

		// Extend the read across physically adjacent pages.
		runEnd := pageNum + 1
		for runEnd < len(s.pages) && s.pages[runEnd] == s.pages[runEnd-1]+1 {
			runEnd++
		}
		runBytes := int64(runEnd-pageNum)*PageSize - pageOff
		want := p
		if int64(len(want)) > runBytes {
			want = want[:runBytes]
		}

		fileOff := int64(s.pages[pageNum])*PageSize + pageOff
		m, err := s.f.ReadAt(want, fileOff)
		n += m
		if err != nil {
			if err == io.EOF {
				err = errors.Wrapf(ErrTruncatedFile, "page %s", s.pages[pageNum])
			}
			return n, err
		}
		off += int64(m)
		p = p[m:]
	}
	if clipped {
		return n, io.EOF
	}
	return n, nil
}
