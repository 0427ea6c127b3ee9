// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tpi

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pdb/codeview"
	"github.com/cockroachdb/pdb/internal/base"
	"github.com/cockroachdb/pdb/msf"
	"github.com/stretchr/testify/require"
)

// streamBuilder assembles a type stream image record by record.
type streamBuilder struct {
	recs [][]byte
}

// nextID returns the id the next added record will get.
func (b *streamBuilder) nextID() TypeID {
	return FirstNonPrimitive + TypeID(len(b.recs))
}

// add appends one record, padding its body to 4-byte alignment the way
// the Microsoft writer does, and returns its id.
func (b *streamBuilder) add(leaf codeview.LeafKind, body []byte) TypeID {
	id := b.nextID()
	body = padTo4(body)
	rec := make([]byte, 4, 4+len(body))
	binary.LittleEndian.PutUint16(rec, uint16(2+len(body)))
	binary.LittleEndian.PutUint16(rec[2:], uint16(leaf))
	rec = append(rec, body...)
	b.recs = append(b.recs, rec)
	return id
}

func (b *streamBuilder) build() []byte {
	var recBytes []byte
	for _, r := range b.recs {
		recBytes = append(recBytes, r...)
	}
	h := Header{
		Version:            VersionV80,
		HeaderSize:         HeaderSize,
		TypeIndexBegin:     FirstNonPrimitive,
		TypeIndexEnd:       FirstNonPrimitive + TypeID(len(b.recs)),
		TypeRecordBytes:    uint32(len(recBytes)),
		HashStreamIndex:    0xffff,
		HashAuxStreamIndex: 0xffff,
	}
	out := make([]byte, HeaderSize+len(recBytes))
	if err := h.EncodeInto(out); err != nil {
		panic(err)
	}
	copy(out[HeaderSize:], recBytes)
	return out
}

// padTo4 appends descending pad bytes (0xf3, 0xf2, 0xf1) up to the next
// 4-byte boundary.
func padTo4(body []byte) []byte {
	for len(body)%4 != 0 {
		body = append(body, byte(0xf0|(4-len(body)%4)))
	}
	return body
}

func u16le(v uint16) []byte { return binary.LittleEndian.AppendUint16(nil, v) }
func u32le(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func cstr(s string) []byte { return append([]byte(s), 0) }

func num(v uint64) []byte { return codeview.AppendNumeric(nil, v) }

// fieldListBody concatenates field entries, aligning each to 4 bytes.
func fieldListBody(entries ...[]byte) []byte {
	var body []byte
	for _, e := range entries {
		body = padTo4(append(body, e...))
	}
	return body
}

func memberField(typ TypeID, off uint64, name string) []byte {
	return cat(u16le(uint16(codeview.LF_MEMBER)), u16le(3), u32le(uint32(typ)), num(off), cstr(name))
}

func structBody(count int, prop uint16, fieldList TypeID, size uint64, name string) []byte {
	return cat(u16le(uint16(count)), u16le(prop), u32le(uint32(fieldList)),
		u32le(0), u32le(0), num(size), cstr(name))
}

func pointerBody(content TypeID, kind, mode uint32) []byte {
	return cat(u32le(uint32(content)), u32le(kind|mode<<5))
}

func walkImage(t *testing.T, img []byte) *Types {
	t.Helper()
	types, err := Walk(msf.NewByteStream(img), WalkerOptions{Logger: base.NoopLogger{}})
	require.NoError(t, err)
	return types
}

// captureLogger records walker notes for assertions.
type captureLogger struct {
	notes []string
}

func (l *captureLogger) Infof(format string, args ...interface{}) {
	l.notes = append(l.notes, fmt.Sprintf(format, args...))
}

func (l *captureLogger) Fatalf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

func TestWalkStruct(t *testing.T) {
	var b streamBuilder
	fl := b.add(codeview.LF_FIELDLIST, fieldListBody(
		memberField(T_INT4, 0, "x"),
		memberField(T_INT4, 4, "y"),
	))
	sid := b.add(codeview.LF_STRUCTURE, structBody(2, 0, fl, 8, "S"))
	types := walkImage(t, b.build())

	id, ok := types.ByDecoratedName("struct S")
	require.True(t, ok)
	require.Equal(t, sid, id)

	udt, ok := types.Get(id).(*UDT)
	require.True(t, ok)
	require.Equal(t, "S", udt.Name)
	require.Equal(t, UDTStruct, udt.Kind)
	require.Equal(t, "struct S", udt.DecoratedName())
	require.Equal(t, uint64(8), udt.ByteSize())
	require.False(t, udt.ForwardDeclaration)
	require.Equal(t, []Field{
		{Kind: FieldMember, Name: "x", Type: T_INT4, Offset: 0},
		{Kind: FieldMember, Name: "y", Type: T_INT4, Offset: 4},
	}, udt.Fields)

	basic, ok := types.Get(T_INT4).(*Basic)
	require.True(t, ok)
	require.Equal(t, "int", basic.Name)
	require.Equal(t, uint64(4), basic.Size)
	require.True(t, basic.Signed)

	// The field list record feeds the UDT and stays unmaterialized.
	require.Nil(t, types.Get(fl))
	require.Equal(t, 2, types.NumTypes())
	require.Equal(t, 2, types.NumRecords())
}

func TestWalkRecursiveStruct(t *testing.T) {
	// struct Node { Node *next; int v; }; with the forward reference
	// first, the way compilers emit it.
	var b streamBuilder
	fwd := b.add(codeview.LF_STRUCTURE, structBody(0, propForwardRef, 0, 0, "Node"))
	ptr := b.add(codeview.LF_POINTER, pointerBody(fwd, ptrKindNear32, 0))
	fl := b.add(codeview.LF_FIELDLIST, fieldListBody(
		memberField(ptr, 0, "next"),
		memberField(T_INT4, 4, "v"),
	))
	complete := b.add(codeview.LF_STRUCTURE, structBody(2, 0, fl, 8, "Node"))
	types := walkImage(t, b.build())

	id, ok := types.ByDecoratedName("struct Node")
	require.True(t, ok)
	require.Equal(t, complete, id)

	// Both ids resolve to the single complete node.
	require.Same(t, types.Get(complete), types.Get(fwd))
	udt := types.Get(fwd).(*UDT)
	require.False(t, udt.ForwardDeclaration)
	require.Equal(t, "next", udt.Fields[0].Name)
	require.Equal(t, ptr, udt.Fields[0].Type)

	p := types.Get(ptr).(*Pointer)
	require.Equal(t, fwd, p.Content)
	require.Equal(t, uint64(4), p.Size)

	a, err := types.FindOrCreate(fwd)
	require.NoError(t, err)
	c, err := types.FindOrCreate(complete)
	require.NoError(t, err)
	require.Same(t, c, a)
}

func TestWalkUnresolvedForwardReference(t *testing.T) {
	var b streamBuilder
	fwd := b.add(codeview.LF_STRUCTURE, structBody(0, propForwardRef, 0, 0, "Opaque"))
	logger := &captureLogger{}
	types, err := Walk(msf.NewByteStream(b.build()), WalkerOptions{Logger: logger})
	require.NoError(t, err)

	udt, ok := types.Get(fwd).(*UDT)
	require.True(t, ok)
	require.True(t, udt.ForwardDeclaration)
	require.Equal(t, "Opaque", udt.Name)
	require.Empty(t, udt.Fields)

	_, ok = types.ByDecoratedName("struct Opaque")
	require.False(t, ok)
	require.Len(t, logger.notes, 1)
	require.Contains(t, logger.notes[0], "unresolved forward reference")
	require.Contains(t, logger.notes[0], `"struct Opaque"`)
}

func TestWalkDuplicateDecoratedName(t *testing.T) {
	var b streamBuilder
	fl1 := b.add(codeview.LF_FIELDLIST, fieldListBody(memberField(T_INT4, 0, "a")))
	first := b.add(codeview.LF_STRUCTURE, structBody(1, 0, fl1, 4, "S"))
	fl2 := b.add(codeview.LF_FIELDLIST, fieldListBody(
		memberField(T_INT4, 0, "a"),
		memberField(T_INT4, 4, "b"),
	))
	second := b.add(codeview.LF_STRUCTURE, structBody(2, 0, fl2, 8, "S"))

	logger := &captureLogger{}
	types, err := Walk(msf.NewByteStream(b.build()), WalkerOptions{Logger: logger})
	require.NoError(t, err)

	// The later complete record wins the name; both nodes still exist.
	id, ok := types.ByDecoratedName("struct S")
	require.True(t, ok)
	require.Equal(t, second, id)
	require.Equal(t, uint64(4), types.Get(first).ByteSize())
	require.Equal(t, uint64(8), types.Get(second).ByteSize())
	require.Len(t, logger.notes, 1)
	require.Contains(t, logger.notes[0], "duplicate decorated name")
}

func TestWalkModifierAlias(t *testing.T) {
	var b streamBuilder
	mod := b.add(codeview.LF_MODIFIER, cat(u32le(uint32(T_INT4)), u16le(1)))
	types := walkImage(t, b.build())

	// Modifiers are not materialized eagerly; resolving one yields the
	// underlying node itself.
	require.Nil(t, types.Get(mod))
	typ, err := types.FindOrCreate(mod)
	require.NoError(t, err)
	require.Same(t, types.Get(T_INT4), typ)
	require.Equal(t, "int", typ.(*Basic).Name)

	// The alias is remembered.
	require.Same(t, typ, types.Get(mod))
}

func TestWalkBitfieldMember(t *testing.T) {
	var b streamBuilder
	bf := b.add(codeview.LF_BITFIELD, cat(u32le(uint32(T_ULONG)), []byte{3, 4}))
	fl := b.add(codeview.LF_FIELDLIST, fieldListBody(memberField(bf, 0, "flags")))
	b.add(codeview.LF_STRUCTURE, structBody(1, 0, fl, 4, "F"))
	types := walkImage(t, b.build())

	node, ok := types.Get(bf).(*Bitfield)
	require.True(t, ok)
	require.Equal(t, T_ULONG, node.Underlying)
	require.Equal(t, uint8(3), node.Length)
	require.Equal(t, uint8(4), node.Position)
	require.Equal(t, uint64(4), node.ByteSize())
	require.Equal(t, "0x0022:3@4", node.String())
}

func TestWalkArray(t *testing.T) {
	var b streamBuilder
	arr := b.add(codeview.LF_ARRAY, cat(u32le(uint32(T_INT4)), u32le(uint32(T_ULONG)), num(40), cstr("")))
	fl := b.add(codeview.LF_FIELDLIST, fieldListBody(
		memberField(T_INT4, 0, "lo"),
		memberField(T_INT4, 4, "hi"),
	))
	sid := b.add(codeview.LF_STRUCTURE, structBody(2, 0, fl, 8, "Elem"))
	arr2 := b.add(codeview.LF_ARRAY, cat(u32le(uint32(sid)), u32le(uint32(T_UQUAD)), num(24), cstr("")))
	types := walkImage(t, b.build())

	a := types.Get(arr).(*Array)
	require.Equal(t, uint64(40), a.Length)
	require.Equal(t, uint64(10), a.Count)
	require.Equal(t, T_INT4, a.Element)
	require.Equal(t, T_ULONG, a.Index)

	a2 := types.Get(arr2).(*Array)
	require.Equal(t, uint64(24), a2.Length)
	require.Equal(t, uint64(3), a2.Count)
}

func TestWalkEnum(t *testing.T) {
	var b streamBuilder
	// u16 count, u16 property, u32 underlying, u32 field list, name.
	enum := b.add(codeview.LF_ENUM, cat(u16le(3), u16le(0), u32le(uint32(T_INT4)), u32le(0), cstr("Color")))
	types := walkImage(t, b.build())

	typ, err := types.FindOrCreate(enum)
	require.NoError(t, err)
	basic := typ.(*Basic)
	require.Equal(t, "Color", basic.Name)
	require.Equal(t, uint64(4), basic.Size)
	require.True(t, basic.Signed)
}

func TestWalkPointerFlavors(t *testing.T) {
	var b streamBuilder
	near32 := b.add(codeview.LF_POINTER, pointerBody(T_INT4, ptrKindNear32, 0))
	near64 := b.add(codeview.LF_POINTER, pointerBody(T_INT4, ptrKindNear64, 0))
	ref := b.add(codeview.LF_POINTER, pointerBody(T_INT4, ptrKindNear64, uint32(PtrReference)))
	constPtr := b.add(codeview.LF_POINTER, cat(u32le(uint32(T_RCHAR)), u32le(ptrKindNear64|ptrIsConst|ptrIsVolatile)))
	types := walkImage(t, b.build())

	require.Equal(t, uint64(4), types.Get(near32).ByteSize())
	require.Equal(t, uint64(8), types.Get(near64).ByteSize())

	r := types.Get(ref).(*Pointer)
	require.Equal(t, PtrReference, r.Mode)
	require.Equal(t, uint64(8), r.Size)

	c := types.Get(constPtr).(*Pointer)
	require.True(t, c.IsConst)
	require.True(t, c.IsVolatile)
	require.Equal(t, PtrPlain, c.Mode)
}

func TestWalkMemberPointerSizes(t *testing.T) {
	// One pointer record per representation ordinal, data members through
	// ordinal 4 and function members beyond.
	cases := []struct {
		kind uint32
		pm   uint16
		want uint64
	}{
		{ptrKindNear32, 0, 4},
		{ptrKindNear32, 1, 4},
		{ptrKindNear32, 2, 4},
		{ptrKindNear32, 3, 8},
		{ptrKindNear32, 4, 12},
		{ptrKindNear32, 5, 4},
		{ptrKindNear32, 6, 8},
		{ptrKindNear32, 7, 12},
		{ptrKindNear32, 8, 16},
		{ptrKindNear64, 0, 8},
		{ptrKindNear64, 1, 4},
		{ptrKindNear64, 2, 4},
		{ptrKindNear64, 3, 8},
		{ptrKindNear64, 4, 12},
		{ptrKindNear64, 5, 8},
		{ptrKindNear64, 6, 16},
		{ptrKindNear64, 7, 16},
		{ptrKindNear64, 8, 24},
	}
	var b streamBuilder
	class := b.add(codeview.LF_STRUCTURE, structBody(0, 0, 0, 1, "Host"))
	ids := make([]TypeID, len(cases))
	for i, c := range cases {
		mode := uint32(PtrMember)
		if c.pm == 0 || c.pm >= 5 {
			mode = uint32(PtrMemberFunction)
		}
		ids[i] = b.add(codeview.LF_POINTER, cat(
			u32le(uint32(T_INT4)), u32le(c.kind|mode<<5), u32le(uint32(class)), u16le(c.pm)))
	}
	types := walkImage(t, b.build())
	for i, c := range cases {
		p := types.Get(ids[i]).(*Pointer)
		require.Equal(t, c.want, p.Size, "kind %#x pm %d", c.kind, c.pm)
		require.Equal(t, class, p.Class)
	}
}

func TestWalkFieldListContinuation(t *testing.T) {
	// Long field lists chain through LF_INDEX; the continuation is
	// emitted before the list referring to it.
	var b streamBuilder
	tail := b.add(codeview.LF_FIELDLIST, fieldListBody(
		memberField(T_INT4, 8, "c"),
		memberField(T_INT4, 12, "d"),
	))
	head := b.add(codeview.LF_FIELDLIST, fieldListBody(
		memberField(T_INT4, 0, "a"),
		memberField(T_INT4, 4, "b"),
		cat(u16le(uint16(codeview.LF_INDEX)), u16le(0), u32le(uint32(tail))),
	))
	b.add(codeview.LF_STRUCTURE, structBody(4, 0, head, 16, "Wide"))
	types := walkImage(t, b.build())

	id, ok := types.ByDecoratedName("struct Wide")
	require.True(t, ok)
	udt := types.Get(id).(*UDT)
	var names []string
	for _, f := range udt.Fields {
		names = append(names, f.Name)
	}
	require.Equal(t, []string{"a", "b", "c", "d"}, names)
	require.Equal(t, uint64(12), udt.Fields[3].Offset)
}

func TestWalkMethods(t *testing.T) {
	var b streamBuilder
	fwd := b.add(codeview.LF_STRUCTURE, structBody(0, propForwardRef, 0, 0, "C"))
	args := b.add(codeview.LF_ARGLIST, u32le(0))
	// u32 return, u32 class, u32 this, u8 convention, u8 attributes,
	// u16 argument count, u32 argument list, i32 this-adjust.
	mfunc := b.add(codeview.LF_MFUNCTION, cat(
		u32le(uint32(T_VOID)), u32le(uint32(fwd)), u32le(0),
		[]byte{0x0b, 0}, u16le(0), u32le(uint32(args)), u32le(0)))
	mlist := b.add(codeview.LF_METHODLIST, cat(
		u16le(0x03), u16le(0), u32le(uint32(mfunc)), // public vanilla
		u16le(0x0b), u16le(0), u32le(uint32(mfunc)), // public static
	))
	vfptr := b.add(codeview.LF_POINTER, pointerBody(T_VOID, ptrKindNear32, 0))
	fl := b.add(codeview.LF_FIELDLIST, fieldListBody(
		cat(u16le(uint16(codeview.LF_VFUNCTAB)), u16le(0), u32le(uint32(vfptr))),
		cat(u16le(uint16(codeview.LF_ONEMETHOD)), u16le(0x13), u32le(uint32(mfunc)), u32le(0), cstr("f")),
		cat(u16le(uint16(codeview.LF_METHOD)), u16le(2), u32le(uint32(mlist)), cstr("g")),
	))
	complete := b.add(codeview.LF_STRUCTURE, structBody(3, 0, fl, 8, "C"))
	types := walkImage(t, b.build())

	udt := types.Get(complete).(*UDT)
	require.Same(t, udt, types.Get(fwd))

	require.Len(t, udt.Fields, 1)
	require.Equal(t, FieldVFuncTable, udt.Fields[0].Kind)
	require.Equal(t, vfptr, udt.Fields[0].Type)

	require.Len(t, udt.Methods, 3)
	f := udt.Methods[0]
	require.Equal(t, "f", f.Name)
	require.Equal(t, mfunc, f.Type)
	require.True(t, f.IsVirtual())
	require.Equal(t, int32(0), f.VTableOffset)

	require.Equal(t, "g", udt.Methods[1].Name)
	require.False(t, udt.Methods[1].IsVirtual())
	require.Equal(t, int32(-1), udt.Methods[1].VTableOffset)
	require.True(t, udt.Methods[2].IsStatic())

	fn := types.Get(mfunc).(*Function)
	require.Equal(t, T_VOID, fn.Return)
	require.Equal(t, fwd, fn.Class)
	require.Empty(t, fn.Args)
	require.Equal(t, "thiscall", CallConvName(fn.CallConv))
}

func TestWalkProcedure(t *testing.T) {
	var b streamBuilder
	args := b.add(codeview.LF_ARGLIST, cat(u32le(2), u32le(uint32(T_INT4)), u32le(uint32(T_REAL64))))
	// u32 return, u8 convention, u8 attributes, u16 argument count,
	// u32 argument list.
	proc := b.add(codeview.LF_PROCEDURE, cat(
		u32le(uint32(T_INT4)), []byte{0, 0}, u16le(2), u32le(uint32(args))))
	types := walkImage(t, b.build())

	fn := types.Get(proc).(*Function)
	require.Equal(t, T_INT4, fn.Return)
	require.Equal(t, TypeID(0), fn.Class)
	require.Equal(t, []TypeID{T_INT4, T_REAL64}, fn.Args)
	require.Equal(t, "cdecl", CallConvName(fn.CallConv))
	require.Equal(t, uint64(8), types.Get(T_REAL64).ByteSize())
	// Argument lists feed function nodes and stay unmaterialized.
	require.Nil(t, types.Get(args))
}

func TestWalkPrimitiveModes(t *testing.T) {
	var b streamBuilder
	types := walkImage(t, b.build())

	for _, tc := range []struct {
		id   TypeID
		size uint64
	}{
		{T_INT4 | 0x0400, 4},
		{T_INT4 | 0x0600, 8},
		{T_INT4 | 0x0700, 16},
	} {
		typ, err := types.FindOrCreate(tc.id)
		require.NoError(t, err)
		p := typ.(*Pointer)
		require.Equal(t, tc.size, p.Size)
		require.Equal(t, T_INT4, p.Content)
		require.Equal(t, PtrPlain, p.Mode)
	}
	// Synthesizing a pointer also synthesizes its direct primitive.
	require.Equal(t, "int", types.Get(T_INT4).(*Basic).Name)

	void, err := types.FindOrCreate(T_VOID)
	require.NoError(t, err)
	require.Equal(t, uint64(0), void.ByteSize())

	unknown, err := types.FindOrCreate(0x00ff)
	require.NoError(t, err)
	require.Equal(t, "<primitive 0x00ff>", unknown.(*Basic).Name)
}

func TestWalkWildcardLeaf(t *testing.T) {
	var b streamBuilder
	odd := b.add(codeview.LeafKind(0x1599), []byte{1, 2, 3, 4})
	types := walkImage(t, b.build())

	require.Nil(t, types.Get(odd))
	typ, err := types.FindOrCreate(odd)
	require.NoError(t, err)
	w := typ.(*Wildcard)
	require.Equal(t, codeview.LeafKind(0x1599), w.Leaf)

	leaf, ok := types.Leaf(odd)
	require.True(t, ok)
	require.Equal(t, codeview.LeafKind(0x1599), leaf)
	_, ok = types.Leaf(odd + 1)
	require.False(t, ok)

	_, err = types.FindOrCreate(0x9999)
	require.True(t, errors.Is(err, base.ErrCorruption))
}

func TestWalkStableAcrossRuns(t *testing.T) {
	var b streamBuilder
	fwd := b.add(codeview.LF_STRUCTURE, structBody(0, propForwardRef, 0, 0, "Node"))
	ptr := b.add(codeview.LF_POINTER, pointerBody(fwd, ptrKindNear64, 0))
	fl := b.add(codeview.LF_FIELDLIST, fieldListBody(
		memberField(ptr, 0, "next"),
		memberField(T_UQUAD, 8, "v"),
	))
	b.add(codeview.LF_STRUCTURE, structBody(2, 0, fl, 16, "Node"))
	img := b.build()

	render := func(types *Types) map[TypeID]string {
		out := map[TypeID]string{}
		types.All(func(id TypeID, typ Type) bool {
			out[id] = fmt.Sprintf("%s size=%d", typ, typ.ByteSize())
			return true
		})
		return out
	}
	first := render(walkImage(t, img))
	second := render(walkImage(t, img))
	require.Equal(t, first, second)
	require.NotEmpty(t, first)
}

func TestWalkMalformed(t *testing.T) {
	quiet := WalkerOptions{Logger: base.NoopLogger{}}

	t.Run("short stream", func(t *testing.T) {
		_, err := Walk(msf.NewByteStream(make([]byte, 10)), quiet)
		require.True(t, errors.Is(err, base.ErrCorruption))
	})
	t.Run("bad version", func(t *testing.T) {
		var b streamBuilder
		img := b.build()
		binary.LittleEndian.PutUint32(img[0:], VersionV70)
		_, err := Walk(msf.NewByteStream(img), quiet)
		require.ErrorIs(t, err, ErrUnsupportedVersion)
	})
	t.Run("primitive index begin", func(t *testing.T) {
		var b streamBuilder
		img := b.build()
		binary.LittleEndian.PutUint32(img[8:], 0x500)
		_, err := Walk(msf.NewByteStream(img), quiet)
		require.True(t, errors.Is(err, base.ErrCorruption))
	})
	t.Run("record bytes overrun", func(t *testing.T) {
		var b streamBuilder
		img := b.build()
		binary.LittleEndian.PutUint32(img[16:], 4096)
		_, err := Walk(msf.NewByteStream(img), quiet)
		require.True(t, errors.Is(err, base.ErrCorruption))
	})
	t.Run("record count mismatch", func(t *testing.T) {
		var b streamBuilder
		b.add(codeview.LF_POINTER, pointerBody(T_INT4, ptrKindNear32, 0))
		img := b.build()
		binary.LittleEndian.PutUint32(img[12:], uint32(FirstNonPrimitive)+5)
		_, err := Walk(msf.NewByteStream(img), quiet)
		require.True(t, errors.Is(err, base.ErrCorruption))
	})
	t.Run("truncated record", func(t *testing.T) {
		var b streamBuilder
		b.add(codeview.LF_POINTER, pointerBody(T_INT4, ptrKindNear32, 0))
		img := append(b.build(), 0x99, 0x00)
		binary.LittleEndian.PutUint32(img[12:], uint32(FirstNonPrimitive)+2)
		binary.LittleEndian.PutUint32(img[16:], binary.LittleEndian.Uint32(img[16:])+2)
		_, err := Walk(msf.NewByteStream(img), quiet)
		require.True(t, errors.Is(err, base.ErrCorruption))
		require.ErrorIs(t, err, codeview.ErrMalformedRecord)
	})
	t.Run("short struct body", func(t *testing.T) {
		var b streamBuilder
		b.add(codeview.LF_STRUCTURE, []byte{1, 2, 3, 4})
		_, err := Walk(msf.NewByteStream(b.build()), quiet)
		require.ErrorIs(t, err, codeview.ErrMalformedRecord)
	})
	t.Run("field list wrong leaf", func(t *testing.T) {
		var b streamBuilder
		bogus := b.add(codeview.LF_POINTER, pointerBody(T_INT4, ptrKindNear32, 0))
		b.add(codeview.LF_STRUCTURE, structBody(1, 0, bogus, 4, "S"))
		_, err := Walk(msf.NewByteStream(b.build()), quiet)
		require.ErrorIs(t, err, codeview.ErrMalformedRecord)
		require.ErrorContains(t, err, "field list")
	})
	t.Run("unrecognized field entry", func(t *testing.T) {
		var b streamBuilder
		fl := b.add(codeview.LF_FIELDLIST, cat(u16le(0x1599), u32le(0)))
		b.add(codeview.LF_STRUCTURE, structBody(1, 0, fl, 4, "S"))
		_, err := Walk(msf.NewByteStream(b.build()), quiet)
		require.ErrorIs(t, err, codeview.ErrMalformedRecord)
	})
	t.Run("argument list wrong leaf", func(t *testing.T) {
		var b streamBuilder
		fl := b.add(codeview.LF_FIELDLIST, fieldListBody(memberField(T_INT4, 0, "x")))
		b.add(codeview.LF_PROCEDURE, cat(u32le(uint32(T_INT4)), []byte{0, 0}, u16le(0), u32le(uint32(fl))))
		_, err := Walk(msf.NewByteStream(b.build()), quiet)
		require.ErrorIs(t, err, codeview.ErrMalformedRecord)
		require.ErrorContains(t, err, "argument list")
	})
}
