// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tpi

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pdb/codeview"
	"github.com/cockroachdb/pdb/internal/base"
	"github.com/cockroachdb/pdb/msf"
	"github.com/cockroachdb/swiss"
)

// WalkerOptions tunes Walk.
type WalkerOptions struct {
	// Logger receives notes about oddities the walker tolerates:
	// duplicate decorated names and unresolved forward references.
	Logger base.Logger
}

// EnsureDefaults fills in unset options.
func (o WalkerOptions) EnsureDefaults() WalkerOptions {
	if o.Logger == nil {
		o.Logger = base.DefaultLogger{}
	}
	return o
}

// rawRecord is one indexed stream record.
type rawRecord struct {
	leaf codeview.LeafKind
	body []byte
}

// Types is the repository built by Walk: the indexed records of the
// stream plus every node materialized from them. Ids are stable for the
// life of the repository, so holding a TypeID is always safe where
// holding a node pointer would pin half the graph.
type Types struct {
	hdr     Header
	logger  base.Logger
	records []rawRecord
	// byID holds materialized nodes. A forward reference resolved to a
	// complete record shares the complete record's node, so two ids can
	// map to the same node.
	byID swiss.Map[TypeID, Type]
	// udt maps decorated names ("struct S") to the id of the complete
	// record defining them.
	udt swiss.Map[string, TypeID]
}

// Walk reads the type stream, indexes its records, and materializes the
// graph reachable from the class, struct, union, array, pointer, and
// function records.
func Walk(stream msf.Stream, opts WalkerOptions) (*Types, error) {
	data, err := msf.ReadAll(stream)
	if err != nil {
		return nil, err
	}
	opts = opts.EnsureDefaults()
	hdr, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	if uint64(hdr.HeaderSize)+uint64(hdr.TypeRecordBytes) > uint64(len(data)) {
		return nil, base.CorruptionErrorf("pdb: type stream of %d bytes, header promises %d",
			errors.Safe(len(data)), errors.Safe(uint64(hdr.HeaderSize)+uint64(hdr.TypeRecordBytes)))
	}
	t := &Types{hdr: hdr, logger: opts.Logger}
	// Size hints only; a record is at least four bytes, which bounds the
	// count a legible stream can hold regardless of what the header says.
	hint := hdr.NumRecords()
	if m := int(hdr.TypeRecordBytes / 4); hint > m {
		hint = m
	}
	t.records = make([]rawRecord, 0, hint)
	t.byID.Init(hint)
	t.udt.Init(16)
	queue, err := t.index(data[hdr.HeaderSize : uint64(hdr.HeaderSize)+uint64(hdr.TypeRecordBytes)])
	if err != nil {
		return nil, err
	}
	for _, id := range queue {
		if _, err := t.FindOrCreate(id); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// index is the first pass: split the record bytes, register the decorated
// names of complete UDTs, and collect the ids worth materializing.
func (t *Types) index(data []byte) ([]TypeID, error) {
	var queue []TypeID
	r := codeview.MakeReader(data)
	for {
		kind, body, ok, err := r.Next()
		if err != nil {
			return nil, errors.Wrapf(err, "type stream record %s",
				t.hdr.TypeIndexBegin+TypeID(len(t.records)))
		}
		if !ok {
			break
		}
		id := t.hdr.TypeIndexBegin + TypeID(len(t.records))
		leaf := codeview.LeafKind(kind)
		t.records = append(t.records, rawRecord{leaf: leaf, body: body})
		switch leaf {
		case codeview.LF_CLASS, codeview.LF_STRUCTURE, codeview.LF_UNION:
			u, err := parseUDTBody(leaf, body)
			if err != nil {
				return nil, errors.Wrapf(err, "%s %s", leaf, id)
			}
			if !u.fwdref {
				if prev, ok := t.udt.Get(u.decorated()); ok {
					t.logger.Infof("tpi: duplicate decorated name %q: %s replaces %s",
						u.decorated(), id, prev)
				}
				t.udt.Put(u.decorated(), id)
			}
			queue = append(queue, id)
		case codeview.LF_ARRAY, codeview.LF_POINTER, codeview.LF_PROCEDURE, codeview.LF_MFUNCTION:
			queue = append(queue, id)
		}
	}
	if got, want := len(t.records), t.hdr.NumRecords(); got != want {
		return nil, base.CorruptionErrorf("pdb: type stream holds %d records, header promises %d",
			errors.Safe(got), errors.Safe(want))
	}
	return queue, nil
}

// Header returns the stream header.
func (t *Types) Header() Header { return t.hdr }

// NumRecords returns the number of records the stream carries.
func (t *Types) NumRecords() int { return len(t.records) }

// NumTypes returns the number of materialized nodes, counting a node
// shared between a forward reference and its complete record once per id.
func (t *Types) NumTypes() int { return t.byID.Len() }

// Leaf returns the leaf kind of a stream-backed id.
func (t *Types) Leaf(id TypeID) (codeview.LeafKind, bool) {
	if id < t.hdr.TypeIndexBegin || id >= t.hdr.TypeIndexEnd {
		return 0, false
	}
	return t.records[id-t.hdr.TypeIndexBegin].leaf, true
}

// Get returns the node for id, or nil if the walk never materialized it.
func (t *Types) Get(id TypeID) Type {
	typ, _ := t.byID.Get(id)
	return typ
}

// ByDecoratedName returns the id of the complete record for a decorated
// UDT name such as "struct S".
func (t *Types) ByDecoratedName(name string) (TypeID, bool) {
	return t.udt.Get(name)
}

// All calls fn for every materialized (id, node) pair until fn returns
// false. Iteration order is unspecified.
func (t *Types) All(fn func(id TypeID, typ Type) bool) {
	t.byID.All(fn)
}

func (t *Types) record(id TypeID) (rawRecord, error) {
	if id < t.hdr.TypeIndexBegin || id >= t.hdr.TypeIndexEnd {
		return rawRecord{}, errors.Wrapf(codeview.ErrMalformedRecord,
			"type id %s outside [%s, %s)", id, t.hdr.TypeIndexBegin, t.hdr.TypeIndexEnd)
	}
	return t.records[id-t.hdr.TypeIndexBegin], nil
}

// FindOrCreate returns the node for id, materializing it and everything
// it references on first use. Nodes register themselves before their
// references resolve, so recursive types terminate.
func (t *Types) FindOrCreate(id TypeID) (Type, error) {
	if typ, ok := t.byID.Get(id); ok {
		return typ, nil
	}
	if id < t.hdr.TypeIndexBegin {
		return t.createPrimitive(id), nil
	}
	rec, err := t.record(id)
	if err != nil {
		return nil, err
	}
	switch rec.leaf {
	case codeview.LF_CLASS, codeview.LF_STRUCTURE, codeview.LF_UNION:
		return t.createUDT(id, rec)
	case codeview.LF_POINTER:
		return t.createPointer(id, rec)
	case codeview.LF_ARRAY:
		return t.createArray(id, rec)
	case codeview.LF_PROCEDURE, codeview.LF_MFUNCTION:
		return t.createFunction(id, rec)
	case codeview.LF_MODIFIER:
		return t.createModifier(id, rec)
	case codeview.LF_BITFIELD:
		return t.createBitfield(id, rec)
	case codeview.LF_ENUM:
		return t.createEnum(id, rec)
	default:
		typ := &Wildcard{Leaf: rec.leaf}
		t.byID.Put(id, typ)
		return typ, nil
	}
}

// createPrimitive synthesizes the node for an id below the stream's first
// record. A non-direct mode yields a pointer to the direct primitive.
func (t *Types) createPrimitive(id TypeID) Type {
	direct := primitiveKind(id)
	p, known := primitives[direct]
	var typ Type
	switch mode := primitiveMode(id); {
	case !known:
		typ = &Basic{Name: fmt.Sprintf("<primitive %s>", id)}
	case mode == primitiveModeDirect:
		typ = &Basic{Name: p.name, Size: p.size, Signed: p.signed}
	case mode == primitiveModeNear32:
		typ = &Pointer{Size: 4, Content: direct}
	case mode == primitiveModeNear64:
		typ = &Pointer{Size: 8, Content: direct}
	case mode == primitiveModeNear128:
		typ = &Pointer{Size: 16, Content: direct}
	default:
		// A 16-bit era pointer mode; nothing this library reads emits one.
		typ = &Basic{Name: fmt.Sprintf("<primitive %s>", id)}
	}
	t.byID.Put(id, typ)
	if _, ok := typ.(*Pointer); ok {
		t.createPrimitive(direct)
	}
	return typ
}

// UDT property bits.
const (
	propForwardRef    = 0x0080
	propHasUniqueName = 0x0200
)

// udtBody is the decoded fixed part of a class, struct, or union record.
type udtBody struct {
	kind      UDTKind
	property  uint16
	fieldList TypeID
	size      uint64
	name      string
	unique    string
	fwdref    bool
}

func (u *udtBody) decorated() string { return u.kind.String() + " " + u.name }

// parseUDTBody decodes the body shared by LF_CLASS, LF_STRUCTURE, and
// LF_UNION. Class and struct records carry two type ids (derivation list
// and vtable shape) that union records do not.
func parseUDTBody(leaf codeview.LeafKind, body []byte) (udtBody, error) {
	var u udtBody
	fixed := 8
	switch leaf {
	case codeview.LF_CLASS:
		u.kind = UDTClass
		fixed = 16
	case codeview.LF_STRUCTURE:
		u.kind = UDTStruct
		fixed = 16
	case codeview.LF_UNION:
		u.kind = UDTUnion
	}
	if len(body) < fixed {
		return u, errors.Wrapf(codeview.ErrMalformedRecord, "%d byte body", len(body))
	}
	u.property = binary.LittleEndian.Uint16(body[2:])
	u.fieldList = TypeID(binary.LittleEndian.Uint32(body[4:]))
	u.fwdref = u.property&propForwardRef != 0
	rest := body[fixed:]
	size, n, ok := codeview.ReadNumeric(rest)
	if !ok {
		return u, errors.Wrap(codeview.ErrMalformedRecord, "size leaf")
	}
	u.size = size
	rest = rest[n:]
	name, n, ok := codeview.ReadCString(rest)
	if !ok {
		return u, errors.Wrap(codeview.ErrMalformedRecord, "name")
	}
	u.name = name
	rest = rest[n:]
	if u.property&propHasUniqueName != 0 {
		if unique, _, ok := codeview.ReadCString(rest); ok {
			u.unique = unique
		}
	}
	return u, nil
}

func (t *Types) createUDT(id TypeID, rec rawRecord) (Type, error) {
	u, err := parseUDTBody(rec.leaf, rec.body)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", rec.leaf, id)
	}
	if u.fwdref {
		if complete, ok := t.udt.Get(u.decorated()); ok && complete != id {
			typ, err := t.FindOrCreate(complete)
			if err != nil {
				return nil, err
			}
			t.byID.Put(id, typ)
			return typ, nil
		}
		t.logger.Infof("tpi: unresolved forward reference %q (%s)", u.decorated(), id)
	}
	typ := &UDT{
		Name:               u.name,
		UniqueName:         u.unique,
		Kind:               u.kind,
		Size:               u.size,
		ForwardDeclaration: u.fwdref,
	}
	t.byID.Put(id, typ)
	if u.fieldList != 0 {
		if err := t.parseFieldList(u.fieldList, typ); err != nil {
			return nil, errors.Wrapf(err, "%s %s", rec.leaf, id)
		}
	}
	return typ, nil
}

// LF_POINTER attribute bits.
const (
	ptrKindMask   = 0x1f
	ptrModeShift  = 5
	ptrModeMask   = 7
	ptrIsVolatile = 1 << 9
	ptrIsConst    = 1 << 10

	ptrKindNear32 = 0x0a
	ptrKindNear64 = 0x0c
)

// memberPointerSizes maps a pointer-to-member representation ordinal to
// its byte size, for 32- and 64-bit host pointers. Ordinals 1-4 are data
// members under single, multiple, virtual, and general inheritance;
// 5-8 the same for function members. Ordinal zero predates the field and
// takes the host pointer width.
var memberPointerSizes = [2][9]uint64{
	{4, 4, 4, 8, 12, 4, 8, 12, 16},
	{8, 4, 4, 8, 12, 8, 16, 16, 24},
}

func memberPointerSize(pm uint16, wide bool) (uint64, bool) {
	if int(pm) >= len(memberPointerSizes[0]) {
		return 0, false
	}
	if wide {
		return memberPointerSizes[1][pm], true
	}
	return memberPointerSizes[0][pm], true
}

func (t *Types) createPointer(id TypeID, rec rawRecord) (Type, error) {
	// u32 content type, u32 attributes; member pointers append the u32
	// containing class and their u16 representation ordinal.
	if len(rec.body) < 8 {
		return nil, errors.Wrapf(codeview.ErrMalformedRecord,
			"%s %s: %d byte body", rec.leaf, id, len(rec.body))
	}
	attrs := binary.LittleEndian.Uint32(rec.body[4:])
	kind := attrs & ptrKindMask
	wide := kind == ptrKindNear64
	p := &Pointer{
		Size:       4,
		Mode:       PtrMode((attrs >> ptrModeShift) & ptrModeMask),
		Content:    TypeID(binary.LittleEndian.Uint32(rec.body)),
		IsConst:    attrs&ptrIsConst != 0,
		IsVolatile: attrs&ptrIsVolatile != 0,
	}
	if wide {
		p.Size = 8
	}
	if p.Mode == PtrMember || p.Mode == PtrMemberFunction {
		if len(rec.body) < 14 {
			return nil, errors.Wrapf(codeview.ErrMalformedRecord,
				"%s %s: %d byte member pointer", rec.leaf, id, len(rec.body))
		}
		p.Class = TypeID(binary.LittleEndian.Uint32(rec.body[8:]))
		pm := binary.LittleEndian.Uint16(rec.body[12:])
		size, ok := memberPointerSize(pm, wide)
		if !ok {
			return nil, errors.Wrapf(codeview.ErrMalformedRecord,
				"%s %s: member pointer representation %d", rec.leaf, id, pm)
		}
		p.Size = size
	}
	t.byID.Put(id, p)
	if _, err := t.FindOrCreate(p.Content); err != nil {
		return nil, err
	}
	if p.Class != 0 {
		if _, err := t.FindOrCreate(p.Class); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (t *Types) createArray(id TypeID, rec rawRecord) (Type, error) {
	// u32 element type, u32 index type, numeric byte length, name.
	if len(rec.body) < 8 {
		return nil, errors.Wrapf(codeview.ErrMalformedRecord,
			"%s %s: %d byte body", rec.leaf, id, len(rec.body))
	}
	a := &Array{
		Element: TypeID(binary.LittleEndian.Uint32(rec.body)),
		Index:   TypeID(binary.LittleEndian.Uint32(rec.body[4:])),
	}
	length, _, ok := codeview.ReadNumeric(rec.body[8:])
	if !ok {
		return nil, errors.Wrapf(codeview.ErrMalformedRecord, "%s %s: length leaf", rec.leaf, id)
	}
	a.Length = length
	t.byID.Put(id, a)
	elem, err := t.FindOrCreate(a.Element)
	if err != nil {
		return nil, err
	}
	if es := elem.ByteSize(); es > 0 {
		a.Count = a.Length / es
	}
	if _, err := t.FindOrCreate(a.Index); err != nil {
		return nil, err
	}
	return a, nil
}

func (t *Types) createFunction(id TypeID, rec rawRecord) (Type, error) {
	// LF_PROCEDURE: u32 return, u8 convention, u8 attributes, u16 argument
	// count, u32 argument list. LF_MFUNCTION inserts the u32 class and u32
	// this-pointer ids after the return type and appends the this-adjust.
	f := &Function{}
	var arglist TypeID
	body := rec.body
	if rec.leaf == codeview.LF_MFUNCTION {
		if len(body) < 24 {
			return nil, errors.Wrapf(codeview.ErrMalformedRecord,
				"%s %s: %d byte body", rec.leaf, id, len(body))
		}
		f.Return = TypeID(binary.LittleEndian.Uint32(body))
		f.Class = TypeID(binary.LittleEndian.Uint32(body[4:]))
		f.CallConv = body[12]
		arglist = TypeID(binary.LittleEndian.Uint32(body[16:]))
	} else {
		if len(body) < 12 {
			return nil, errors.Wrapf(codeview.ErrMalformedRecord,
				"%s %s: %d byte body", rec.leaf, id, len(body))
		}
		f.Return = TypeID(binary.LittleEndian.Uint32(body))
		f.CallConv = body[4]
		arglist = TypeID(binary.LittleEndian.Uint32(body[8:]))
	}
	if arglist != 0 {
		al, err := t.record(arglist)
		if err != nil {
			return nil, errors.Wrapf(err, "%s %s argument list", rec.leaf, id)
		}
		if al.leaf != codeview.LF_ARGLIST {
			return nil, errors.Wrapf(codeview.ErrMalformedRecord,
				"%s %s: argument list %s is %s", rec.leaf, id, arglist, al.leaf)
		}
		if len(al.body) < 4 {
			return nil, errors.Wrapf(codeview.ErrMalformedRecord,
				"argument list %s: %d byte body", arglist, len(al.body))
		}
		n := binary.LittleEndian.Uint32(al.body)
		if 4+uint64(n)*4 > uint64(len(al.body)) {
			return nil, errors.Wrapf(codeview.ErrMalformedRecord,
				"argument list %s: %d arguments in %d bytes", arglist, n, len(al.body))
		}
		f.Args = make([]TypeID, n)
		for i := range f.Args {
			f.Args[i] = TypeID(binary.LittleEndian.Uint32(al.body[4+4*i:]))
		}
	}
	t.byID.Put(id, f)
	if _, err := t.FindOrCreate(f.Return); err != nil {
		return nil, err
	}
	if f.Class != 0 {
		if _, err := t.FindOrCreate(f.Class); err != nil {
			return nil, err
		}
	}
	for _, a := range f.Args {
		if _, err := t.FindOrCreate(a); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// createModifier resolves an LF_MODIFIER to its underlying type. The
// const/volatile flags do not produce a distinct node; the id aliases the
// underlying node. A wildcard placeholder registered first keeps a
// malformed modifier cycle from recursing forever.
func (t *Types) createModifier(id TypeID, rec rawRecord) (Type, error) {
	// u32 underlying type, u16 flags.
	if len(rec.body) < 6 {
		return nil, errors.Wrapf(codeview.ErrMalformedRecord,
			"%s %s: %d byte body", rec.leaf, id, len(rec.body))
	}
	under := TypeID(binary.LittleEndian.Uint32(rec.body))
	t.byID.Put(id, &Wildcard{Leaf: rec.leaf})
	typ, err := t.FindOrCreate(under)
	if err != nil {
		return nil, err
	}
	t.byID.Put(id, typ)
	return typ, nil
}

func (t *Types) createBitfield(id TypeID, rec rawRecord) (Type, error) {
	// u32 underlying type, u8 bit length, u8 bit position.
	if len(rec.body) < 6 {
		return nil, errors.Wrapf(codeview.ErrMalformedRecord,
			"%s %s: %d byte body", rec.leaf, id, len(rec.body))
	}
	b := &Bitfield{
		Underlying: TypeID(binary.LittleEndian.Uint32(rec.body)),
		Length:     rec.body[4],
		Position:   rec.body[5],
	}
	t.byID.Put(id, b)
	under, err := t.FindOrCreate(b.Underlying)
	if err != nil {
		return nil, err
	}
	b.Size = under.ByteSize()
	return b, nil
}

// createEnum reduces an enum to a basic type named after it and sized by
// its underlying integral type. Enumerator values stay unmaterialized.
func (t *Types) createEnum(id TypeID, rec rawRecord) (Type, error) {
	// u16 count, u16 property, u32 underlying, u32 field list, name.
	if len(rec.body) < 12 {
		return nil, errors.Wrapf(codeview.ErrMalformedRecord,
			"%s %s: %d byte body", rec.leaf, id, len(rec.body))
	}
	under := TypeID(binary.LittleEndian.Uint32(rec.body[4:]))
	name, _, ok := codeview.ReadCString(rec.body[12:])
	if !ok {
		return nil, errors.Wrapf(codeview.ErrMalformedRecord, "%s %s: name", rec.leaf, id)
	}
	b := &Basic{Name: name}
	t.byID.Put(id, b)
	typ, err := t.FindOrCreate(under)
	if err != nil {
		return nil, err
	}
	b.Size = typ.ByteSize()
	if basic, ok := typ.(*Basic); ok {
		b.Signed = basic.Signed
	}
	return b, nil
}

// parseFieldList decodes the LF_FIELDLIST record at id into udt, chasing
// LF_INDEX continuations.
func (t *Types) parseFieldList(id TypeID, udt *UDT) error {
	for id != 0 {
		rec, err := t.record(id)
		if err != nil {
			return err
		}
		if rec.leaf != codeview.LF_FIELDLIST {
			return errors.Wrapf(codeview.ErrMalformedRecord, "field list %s is %s", id, rec.leaf)
		}
		next, err := t.parseFieldListBody(id, rec.body, udt)
		if err != nil {
			return err
		}
		id = next
	}
	return nil
}

// parseFieldListBody walks one field list record. Entries carry no length
// prefix; each is recognized by its leaf and aligned to 4 bytes with pad
// bytes (0xf0..0xff). The returned id is the continuation list named by a
// trailing LF_INDEX, zero when the list is complete.
func (t *Types) parseFieldListBody(id TypeID, data []byte, udt *UDT) (TypeID, error) {
	for len(data) > 0 {
		if data[0] >= 0xf0 {
			data = data[1:]
			continue
		}
		if len(data) < 2 {
			return 0, errors.Wrapf(codeview.ErrMalformedRecord, "field list %s: trailing byte", id)
		}
		leaf := codeview.LeafKind(binary.LittleEndian.Uint16(data))
		n, next, err := t.parseField(leaf, data[2:], udt)
		if err != nil {
			return 0, errors.Wrapf(err, "field list %s: %s", id, leaf)
		}
		if next != 0 {
			return next, nil
		}
		data = data[2+n:]
	}
	return 0, nil
}

func introducesVirtual(attrs uint16) bool {
	switch (attrs >> 2) & 7 {
	case 4, 6:
		return true
	}
	return false
}

// parseField decodes one field list entry, returning the number of body
// bytes it spans past the leaf. LF_INDEX entries end the current list and
// return the continuation id instead.
func (t *Types) parseField(leaf codeview.LeafKind, data []byte, udt *UDT) (n int, next TypeID, err error) {
	switch leaf {
	case codeview.LF_MEMBER:
		// u16 attributes, u32 type, numeric offset, name. Bitfield members
		// name an LF_BITFIELD record as their type.
		if len(data) < 6 {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "truncated entry")
		}
		typ := TypeID(binary.LittleEndian.Uint32(data[2:]))
		off, m, ok := codeview.ReadNumeric(data[6:])
		if !ok {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "offset leaf")
		}
		name, k, ok := codeview.ReadCString(data[6+m:])
		if !ok {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "name")
		}
		udt.Fields = append(udt.Fields, Field{Kind: FieldMember, Name: name, Type: typ, Offset: off})
		if _, err := t.FindOrCreate(typ); err != nil {
			return 0, 0, err
		}
		return 6 + m + k, 0, nil

	case codeview.LF_STMEMBER:
		// u16 attributes, u32 type, name.
		if len(data) < 6 {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "truncated entry")
		}
		typ := TypeID(binary.LittleEndian.Uint32(data[2:]))
		name, k, ok := codeview.ReadCString(data[6:])
		if !ok {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "name")
		}
		udt.Fields = append(udt.Fields, Field{Kind: FieldStaticMember, Name: name, Type: typ})
		if _, err := t.FindOrCreate(typ); err != nil {
			return 0, 0, err
		}
		return 6 + k, 0, nil

	case codeview.LF_BCLASS:
		// u16 attributes, u32 base type, numeric offset.
		if len(data) < 6 {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "truncated entry")
		}
		typ := TypeID(binary.LittleEndian.Uint32(data[2:]))
		off, m, ok := codeview.ReadNumeric(data[6:])
		if !ok {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "offset leaf")
		}
		udt.Fields = append(udt.Fields, Field{Kind: FieldBaseClass, Type: typ, Offset: off})
		if _, err := t.FindOrCreate(typ); err != nil {
			return 0, 0, err
		}
		return 6 + m, 0, nil

	case codeview.LF_VBCLASS, codeview.LF_IVBCLASS:
		// u16 attributes, u32 base type, u32 vbptr type, numeric vbptr
		// offset, numeric vbtable index.
		if len(data) < 10 {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "truncated entry")
		}
		typ := TypeID(binary.LittleEndian.Uint32(data[2:]))
		off, m1, ok := codeview.ReadNumeric(data[10:])
		if !ok {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "vbptr offset leaf")
		}
		index, m2, ok := codeview.ReadNumeric(data[10+m1:])
		if !ok {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "vbtable index leaf")
		}
		udt.Fields = append(udt.Fields, Field{Kind: FieldVirtualBase, Type: typ, Offset: off, Value: index})
		if _, err := t.FindOrCreate(typ); err != nil {
			return 0, 0, err
		}
		return 10 + m1 + m2, 0, nil

	case codeview.LF_ENUMERATE:
		// u16 attributes, numeric value, name.
		if len(data) < 2 {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "truncated entry")
		}
		value, m, ok := codeview.ReadNumeric(data[2:])
		if !ok {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "value leaf")
		}
		name, k, ok := codeview.ReadCString(data[2+m:])
		if !ok {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "name")
		}
		udt.Fields = append(udt.Fields, Field{Kind: FieldEnumerator, Name: name, Value: value})
		return 2 + m + k, 0, nil

	case codeview.LF_NESTTYPE:
		// u16 padding, u32 type, name.
		if len(data) < 6 {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "truncated entry")
		}
		typ := TypeID(binary.LittleEndian.Uint32(data[2:]))
		name, k, ok := codeview.ReadCString(data[6:])
		if !ok {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "name")
		}
		udt.Fields = append(udt.Fields, Field{Kind: FieldNestedType, Name: name, Type: typ})
		if _, err := t.FindOrCreate(typ); err != nil {
			return 0, 0, err
		}
		return 6 + k, 0, nil

	case codeview.LF_VFUNCTAB:
		// u16 padding, u32 vfptr pointer type.
		if len(data) < 6 {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "truncated entry")
		}
		typ := TypeID(binary.LittleEndian.Uint32(data[2:]))
		udt.Fields = append(udt.Fields, Field{Kind: FieldVFuncTable, Type: typ})
		if _, err := t.FindOrCreate(typ); err != nil {
			return 0, 0, err
		}
		return 6, 0, nil

	case codeview.LF_VFUNCOFF:
		// u16 padding, u32 vfptr pointer type, u32 offset.
		if len(data) < 10 {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "truncated entry")
		}
		typ := TypeID(binary.LittleEndian.Uint32(data[2:]))
		off := binary.LittleEndian.Uint32(data[6:])
		udt.Fields = append(udt.Fields, Field{Kind: FieldVFuncTable, Type: typ, Offset: uint64(off)})
		if _, err := t.FindOrCreate(typ); err != nil {
			return 0, 0, err
		}
		return 10, 0, nil

	case codeview.LF_ONEMETHOD:
		// u16 attributes, u32 type, u32 vtable offset when the method
		// introduces a virtual slot, name.
		if len(data) < 6 {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "truncated entry")
		}
		attrs := binary.LittleEndian.Uint16(data)
		m := Method{Type: TypeID(binary.LittleEndian.Uint32(data[2:])), Attrs: attrs, VTableOffset: -1}
		n := 6
		if introducesVirtual(attrs) {
			if len(data) < 10 {
				return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "vtable offset")
			}
			m.VTableOffset = int32(binary.LittleEndian.Uint32(data[6:]))
			n = 10
		}
		name, k, ok := codeview.ReadCString(data[n:])
		if !ok {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "name")
		}
		m.Name = name
		udt.Methods = append(udt.Methods, m)
		if _, err := t.FindOrCreate(m.Type); err != nil {
			return 0, 0, err
		}
		return n + k, 0, nil

	case codeview.LF_METHOD:
		// u16 overload count, u32 method list, name.
		if len(data) < 6 {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "truncated entry")
		}
		list := TypeID(binary.LittleEndian.Uint32(data[2:]))
		name, k, ok := codeview.ReadCString(data[6:])
		if !ok {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "name")
		}
		if err := t.parseMethodList(list, name, udt); err != nil {
			return 0, 0, err
		}
		return 6 + k, 0, nil

	case codeview.LF_INDEX:
		// u16 padding, u32 continuation list. Always the last entry.
		if len(data) < 6 {
			return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "truncated entry")
		}
		return 6, TypeID(binary.LittleEndian.Uint32(data[2:])), nil

	default:
		// Entries carry no length prefix, so an unrecognized leaf ends the
		// walk of this type.
		return 0, 0, errors.Wrap(codeview.ErrMalformedRecord, "unrecognized entry")
	}
}

// parseMethodList appends one Method per entry of an LF_METHODLIST
// record, all sharing the overloaded name.
func (t *Types) parseMethodList(id TypeID, name string, udt *UDT) error {
	rec, err := t.record(id)
	if err != nil {
		return err
	}
	if rec.leaf != codeview.LF_METHODLIST {
		return errors.Wrapf(codeview.ErrMalformedRecord, "method list %s is %s", id, rec.leaf)
	}
	data := rec.body
	for len(data) > 0 {
		// u16 attributes, u16 padding, u32 type, u32 vtable offset when
		// the method introduces a virtual slot.
		if len(data) < 8 {
			return errors.Wrapf(codeview.ErrMalformedRecord,
				"method list %s: %d trailing bytes", id, len(data))
		}
		m := Method{
			Name:         name,
			Type:         TypeID(binary.LittleEndian.Uint32(data[4:])),
			Attrs:        binary.LittleEndian.Uint16(data),
			VTableOffset: -1,
		}
		data = data[8:]
		if introducesVirtual(m.Attrs) {
			if len(data) < 4 {
				return errors.Wrapf(codeview.ErrMalformedRecord,
					"method list %s: vtable offset", id)
			}
			m.VTableOffset = int32(binary.LittleEndian.Uint32(data))
			data = data[4:]
		}
		udt.Methods = append(udt.Methods, m)
		if _, err := t.FindOrCreate(m.Type); err != nil {
			return err
		}
	}
	return nil
}
