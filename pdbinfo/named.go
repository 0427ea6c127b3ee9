// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pdbinfo

import (
	"encoding/binary"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pdb/codeview"
	"github.com/cockroachdb/pdb/internal/base"
	"github.com/cockroachdb/pdb/internal/bitvec"
	"github.com/cockroachdb/pdb/msf"
	"github.com/cockroachdb/swiss"
)

// NamedStreams maps stream names like "/names" or "/src/headerblock" to
// stream ids. The serialized form is a closed hash table:
//
//	u32 heap length, the names NUL-terminated and packed
//	u32 size, u32 capacity
//	used bit vector, deleted bit vector
//	size x (u32 name offset, u32 stream id), in bucket order
//
// Names hash with HashString and probe linearly from hash mod capacity.
// The encoder inserts names in ascending byte order into a table sized by
// the fixed growth series, so a given mapping always serializes to the
// same bytes. The zero value is an empty table.
type NamedStreams struct {
	m      swiss.Map[string, msf.StreamID]
	inited bool
}

func (n *NamedStreams) init() {
	if !n.inited {
		n.m.Init(8)
		n.inited = true
	}
}

// Len returns the number of named streams.
func (n *NamedStreams) Len() int {
	if !n.inited {
		return 0
	}
	return n.m.Len()
}

// Get returns the stream id for name.
func (n *NamedStreams) Get(name string) (msf.StreamID, bool) {
	if !n.inited {
		return 0, false
	}
	return n.m.Get(name)
}

// Set maps name to id, replacing any previous mapping.
func (n *NamedStreams) Set(name string, id msf.StreamID) {
	n.init()
	n.m.Put(name, id)
}

// Delete removes name, reporting whether it was present.
func (n *NamedStreams) Delete(name string) bool {
	if !n.inited {
		return false
	}
	if _, ok := n.m.Get(name); !ok {
		return false
	}
	n.m.Delete(name)
	return true
}

// Names returns the stream names in ascending byte order.
func (n *NamedStreams) Names() []string {
	if !n.inited {
		return nil
	}
	names := make([]string, 0, n.m.Len())
	n.m.All(func(name string, _ msf.StreamID) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// HashString returns the 16-bit hash the table buckets names by: the
// bytes folded together as little-endian words, forced to lower case by
// setting bit 5 of every byte, then mixed down.
func HashString(s string) uint16 {
	var acc uint32
	i, n := 0, len(s)
	for ; n-i >= 4; i += 4 {
		acc ^= uint32(s[i]) | uint32(s[i+1])<<8 | uint32(s[i+2])<<16 | uint32(s[i+3])<<24
	}
	if n&2 != 0 {
		acc ^= uint32(s[i]) | uint32(s[i+1])<<8
		i += 2
	}
	if n&1 != 0 {
		acc ^= uint32(s[i])
	}
	acc |= 0x20202020
	acc ^= acc >> 11
	acc ^= acc >> 16
	return uint16(acc)
}

// tableCapacity returns the bucket count for size entries: the smallest
// value of the growth series 3, 6, 10, 14, 20, ... that is at least
// ceil(3*size/2)+1, keeping the table under its load limit.
func tableCapacity(size int) uint32 {
	need := uint32(3*size+1)/2 + 1
	c := uint32(3)
	for c < need {
		c = 2*(2*c/3) + 2
	}
	return c
}

// appendEncoded appends the serialized table to buf.
func (n *NamedStreams) appendEncoded(buf []byte) []byte {
	names := n.Names()
	var heap []byte
	offsets := make([]uint32, len(names))
	for i, name := range names {
		offsets[i] = uint32(len(heap))
		heap = append(heap, name...)
		heap = append(heap, 0)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(heap)))
	buf = append(buf, heap...)

	capacity := tableCapacity(len(names))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(names)))
	buf = binary.LittleEndian.AppendUint32(buf, capacity)

	type slot struct {
		offset uint32
		id     msf.StreamID
	}
	slots := make([]slot, capacity)
	occupied := bitvec.New(capacity)
	for i, name := range names {
		b := uint32(HashString(name)) % capacity
		for occupied.IsSet(b) {
			b = (b + 1) % capacity
		}
		occupied.Set(b)
		id, _ := n.Get(name)
		slots[b] = slot{offset: offsets[i], id: id}
	}
	buf = occupied.AppendEncoded(buf)
	var deleted bitvec.Vector
	buf = deleted.AppendEncoded(buf)
	for b := uint32(0); b < capacity; b++ {
		if occupied.IsSet(b) {
			buf = binary.LittleEndian.AppendUint32(buf, slots[b].offset)
			buf = binary.LittleEndian.AppendUint32(buf, uint32(slots[b].id))
		}
	}
	return buf
}

// decode parses the serialized table from the front of data and returns
// the unconsumed remainder. The bit vectors only matter for probing, so
// the mapping is rebuilt from the (offset, id) slots alone.
func (n *NamedStreams) decode(data []byte) ([]byte, error) {
	r := tableReader{data: data}
	heapLen, err := r.u32("string heap length")
	if err != nil {
		return nil, err
	}
	heap, err := r.bytes(heapLen, "string heap")
	if err != nil {
		return nil, err
	}
	size, err := r.u32("table size")
	if err != nil {
		return nil, err
	}
	capacity, err := r.u32("table capacity")
	if err != nil {
		return nil, err
	}
	if size > capacity {
		return nil, base.CorruptionErrorf("pdb: named stream table size %d exceeds capacity %d",
			errors.Safe(size), errors.Safe(capacity))
	}
	if err := r.bitVector("used bits"); err != nil {
		return nil, err
	}
	if err := r.bitVector("deleted bits"); err != nil {
		return nil, err
	}
	for i := uint32(0); i < size; i++ {
		off, err := r.u32("name offset")
		if err != nil {
			return nil, err
		}
		id, err := r.u32("stream id")
		if err != nil {
			return nil, err
		}
		if off >= uint32(len(heap)) {
			return nil, base.CorruptionErrorf("pdb: name offset %d outside %d byte heap",
				errors.Safe(off), errors.Safe(len(heap)))
		}
		name, _, ok := codeview.ReadCString(heap[off:])
		if !ok {
			return nil, base.CorruptionErrorf("pdb: unterminated name at heap offset %d", errors.Safe(off))
		}
		n.Set(name, msf.StreamID(id))
	}
	return r.data, nil
}

type tableReader struct {
	data []byte
}

func (r *tableReader) u32(what string) (uint32, error) {
	if len(r.data) < 4 {
		return 0, base.CorruptionErrorf("pdb: named stream table truncated reading %s", errors.Safe(what))
	}
	v := binary.LittleEndian.Uint32(r.data)
	r.data = r.data[4:]
	return v, nil
}

func (r *tableReader) bytes(n uint32, what string) ([]byte, error) {
	if uint64(n) > uint64(len(r.data)) {
		return nil, base.CorruptionErrorf("pdb: named stream table truncated reading %s", errors.Safe(what))
	}
	b := r.data[:n]
	r.data = r.data[n:]
	return b, nil
}

func (r *tableReader) bitVector(what string) error {
	_, consumed, ok := bitvec.Decode(r.data)
	if !ok {
		return base.CorruptionErrorf("pdb: named stream table truncated reading %s", errors.Safe(what))
	}
	r.data = r.data[consumed:]
	return nil
}
