// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package bitvec implements the fixed-length bit vector used by the PDB
// container and the named-stream hash table. The serialized form is a u32
// word count followed by that many little-endian u32 words; bit b lives in
// word b/32 under mask 1<<(b%32).
package bitvec

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bitset"
)

// Vector is a bit vector of a fixed number of bits. The zero value is an
// empty vector of zero bits.
type Vector struct {
	bits *bitset.BitSet
	n    uint32
}

// New returns a vector of n bits, all clear.
func New(n uint32) Vector {
	return Vector{bits: bitset.New(uint(n)), n: n}
}

// NewAllSet returns a vector of n bits, all set.
func NewAllSet(n uint32) Vector {
	words := make([]uint64, (n+63)/64)
	for i := range words {
		words[i] = ^uint64(0)
	}
	v := Vector{bits: bitset.From(words), n: n}
	// Mask off the bits beyond n in the final word.
	for i := n; i < uint32(len(words))*64; i++ {
		v.bits.Clear(uint(i))
	}
	return v
}

// NumBits returns the number of bits in the vector.
func (v *Vector) NumBits() uint32 { return v.n }

// Resize grows or shrinks the vector to n bits. Bits below min(old, new)
// are preserved; new bits are clear.
func (v *Vector) Resize(n uint32) {
	resized := bitset.New(uint(n))
	if v.bits != nil {
		limit := v.n
		if n < limit {
			limit = n
		}
		for i, ok := v.bits.NextSet(0); ok && uint32(i) < limit; i, ok = v.bits.NextSet(i + 1) {
			resized.Set(i)
		}
	}
	v.bits = resized
	v.n = n
}

// Set sets bit i. Setting a bit at or beyond NumBits is a no-op.
func (v *Vector) Set(i uint32) {
	if i < v.n {
		v.bits.Set(uint(i))
	}
}

// Clear clears bit i.
func (v *Vector) Clear(i uint32) {
	if i < v.n {
		v.bits.Clear(uint(i))
	}
}

// Toggle inverts bit i.
func (v *Vector) Toggle(i uint32) {
	if i < v.n {
		v.bits.Flip(uint(i))
	}
}

// IsSet reports whether bit i is set. Bits at or beyond NumBits read as
// clear.
func (v *Vector) IsSet(i uint32) bool {
	return i < v.n && v.bits.Test(uint(i))
}

// IsEmpty reports whether no bit is set.
func (v *Vector) IsEmpty() bool {
	return v.bits == nil || v.bits.None()
}

// Count returns the number of set bits.
func (v *Vector) Count() uint32 {
	if v.bits == nil {
		return 0
	}
	return uint32(v.bits.Count())
}

// NumWords returns the number of u32 words the serialized form carries.
func (v *Vector) NumWords() uint32 { return (v.n + 31) / 32 }

// Words returns the vector as little-endian u32 words.
func (v *Vector) Words() []uint32 {
	words := make([]uint32, v.NumWords())
	if v.bits == nil {
		return words
	}
	for i, u := range v.bits.Bytes() {
		if 2*i < len(words) {
			words[2*i] = uint32(u)
		}
		if 2*i+1 < len(words) {
			words[2*i+1] = uint32(u >> 32)
		}
	}
	return words
}

// AppendEncoded appends the serialized form (u32 word count, then the
// words) to buf and returns the extended buffer.
func (v *Vector) AppendEncoded(buf []byte) []byte {
	words := v.Words()
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(words)))
	for _, w := range words {
		buf = binary.LittleEndian.AppendUint32(buf, w)
	}
	return buf
}

// Decode reads a serialized vector from the front of data, returning the
// vector and the number of bytes consumed. ok is false if data is too short
// to hold the declared word count.
func Decode(data []byte) (v Vector, n int, ok bool) {
	if len(data) < 4 {
		return Vector{}, 0, false
	}
	numWords := binary.LittleEndian.Uint32(data)
	end := 4 + int(numWords)*4
	if numWords > uint32(len(data)) || len(data) < end {
		return Vector{}, 0, false
	}
	v = New(numWords * 32)
	for i := uint32(0); i < numWords; i++ {
		word := binary.LittleEndian.Uint32(data[4+i*4:])
		for b := uint32(0); b < 32; b++ {
			if word&(1<<b) != 0 {
				v.Set(i*32 + b)
			}
		}
	}
	return v, end, true
}
