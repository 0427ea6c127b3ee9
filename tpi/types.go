// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tpi

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/pdb/codeview"
)

// Type is a node of the materialized type graph. Nodes name other nodes
// by TypeID; the Types repository resolves ids back to nodes.
type Type interface {
	// ByteSize returns the size in bytes of a value of this type, when
	// the stream records one; zero otherwise.
	ByteSize() uint64
	// String renders a short description for logs and tools.
	String() string
}

var (
	_ Type = (*Basic)(nil)
	_ Type = (*Pointer)(nil)
	_ Type = (*Array)(nil)
	_ Type = (*Function)(nil)
	_ Type = (*UDT)(nil)
	_ Type = (*Bitfield)(nil)
	_ Type = (*Wildcard)(nil)
)

// Basic is a primitive type, or an enum reduced to its underlying
// primitive.
type Basic struct {
	Name   string
	Size   uint64
	Signed bool
}

// ByteSize implements Type.
func (b *Basic) ByteSize() uint64 { return b.Size }

// String implements fmt.Stringer.
func (b *Basic) String() string { return b.Name }

// PtrMode distinguishes the flavors of LF_POINTER records.
type PtrMode uint8

// Pointer modes, in wire order.
const (
	PtrPlain PtrMode = iota
	PtrReference
	PtrMember
	PtrMemberFunction
	PtrRValueReference
)

// Pointer is a pointer, reference, or pointer-to-member type.
type Pointer struct {
	Size    uint64
	Mode    PtrMode
	Content TypeID
	// Class is the containing class for member pointers, zero otherwise.
	Class      TypeID
	IsConst    bool
	IsVolatile bool
}

// ByteSize implements Type.
func (p *Pointer) ByteSize() uint64 { return p.Size }

// String implements fmt.Stringer.
func (p *Pointer) String() string {
	switch p.Mode {
	case PtrReference:
		return fmt.Sprintf("&%s", p.Content)
	case PtrRValueReference:
		return fmt.Sprintf("&&%s", p.Content)
	case PtrMember:
		return fmt.Sprintf("%s %s::*", p.Content, p.Class)
	case PtrMemberFunction:
		return fmt.Sprintf("%s (%s::*)()", p.Content, p.Class)
	default:
		return fmt.Sprintf("*%s", p.Content)
	}
}

// Array is a fixed-length array type. Length is the total byte size as
// recorded in the stream; Count is Length divided by the element size,
// zero when the element size is unknown.
type Array struct {
	Length  uint64
	Element TypeID
	Index   TypeID
	Count   uint64
}

// ByteSize implements Type.
func (a *Array) ByteSize() uint64 { return a.Length }

// String implements fmt.Stringer.
func (a *Array) String() string {
	return fmt.Sprintf("[%d]%s", a.Count, a.Element)
}

// Function is a procedure or member function signature.
type Function struct {
	CallConv uint8
	Return   TypeID
	// Class is the containing class for member functions, zero for free
	// procedures.
	Class TypeID
	Args  []TypeID
}

// ByteSize implements Type. Function types have no storage size.
func (f *Function) ByteSize() uint64 { return 0 }

// String implements fmt.Stringer.
func (f *Function) String() string {
	var sb strings.Builder
	if f.Class != 0 {
		fmt.Fprintf(&sb, "%s::", f.Class)
	}
	sb.WriteString("func(")
	for i, a := range f.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	fmt.Fprintf(&sb, ") %s", f.Return)
	return sb.String()
}

var callConvNames = map[uint8]string{
	0x00: "cdecl",
	0x04: "fastcall",
	0x07: "stdcall",
	0x09: "syscall",
	0x0b: "thiscall",
	0x0d: "generic",
	0x16: "clrcall",
	0x18: "vectorcall",
}

// CallConvName renders a calling convention ordinal.
func CallConvName(cc uint8) string {
	if s, ok := callConvNames[cc]; ok {
		return s
	}
	return fmt.Sprintf("call_%02x", cc)
}

// UDTKind distinguishes classes, structs, and unions.
type UDTKind uint8

const (
	UDTClass UDTKind = iota
	UDTStruct
	UDTUnion
)

// String implements fmt.Stringer.
func (k UDTKind) String() string {
	switch k {
	case UDTClass:
		return "class"
	case UDTUnion:
		return "union"
	default:
		return "struct"
	}
}

// UDT is a class, struct, or union.
type UDT struct {
	Name string
	// UniqueName is the mangled name the record carries when its
	// "has unique name" property is set; empty otherwise.
	UniqueName string
	Kind       UDTKind
	Size       uint64
	Fields     []Field
	Methods    []Method
	// ForwardDeclaration marks a record that declares the type without
	// defining it. It stays set only when no complete record for the same
	// decorated name exists in the stream.
	ForwardDeclaration bool
}

// DecoratedName returns the keyword-qualified name ("struct S") used as
// the type's key in the decorated-name index.
func (u *UDT) DecoratedName() string {
	return u.Kind.String() + " " + u.Name
}

// ByteSize implements Type.
func (u *UDT) ByteSize() uint64 { return u.Size }

// String implements fmt.Stringer.
func (u *UDT) String() string { return u.DecoratedName() }

// FieldKind distinguishes the entries of a UDT field list.
type FieldKind uint8

const (
	FieldMember FieldKind = iota
	FieldBaseClass
	FieldVirtualBase
	FieldStaticMember
	FieldEnumerator
	FieldNestedType
	FieldVFuncTable
)

// String implements fmt.Stringer.
func (k FieldKind) String() string {
	switch k {
	case FieldBaseClass:
		return "base"
	case FieldVirtualBase:
		return "vbase"
	case FieldStaticMember:
		return "static"
	case FieldEnumerator:
		return "enumerator"
	case FieldNestedType:
		return "nested"
	case FieldVFuncTable:
		return "vfptr"
	default:
		return "member"
	}
}

// Field is one entry of a UDT's field list. Offset is the byte offset for
// members and base classes and the vbptr offset for virtual bases; Value
// carries an enumerator's value.
type Field struct {
	Kind   FieldKind
	Name   string
	Type   TypeID
	Offset uint64
	Value  uint64
}

// Method is a member function of a UDT.
type Method struct {
	Name string
	Type TypeID
	// Attrs is the raw member attribute word.
	Attrs uint16
	// VTableOffset is the virtual table offset for methods introducing a
	// new virtual slot, -1 otherwise.
	VTableOffset int32
}

func (m Method) mprop() uint16 { return (m.Attrs >> 2) & 7 }

// IsVirtual reports whether the method is virtual, introduced here or
// inherited.
func (m Method) IsVirtual() bool {
	switch m.mprop() {
	case 1, 4, 5, 6:
		return true
	}
	return false
}

// IsStatic reports whether the method is static.
func (m Method) IsStatic() bool { return m.mprop() == 2 }

// Bitfield is a bitfield within a UDT. Size is the byte size of the
// underlying integral type.
type Bitfield struct {
	Underlying TypeID
	Position   uint8
	Length     uint8
	Size       uint64
}

// ByteSize implements Type.
func (b *Bitfield) ByteSize() uint64 { return b.Size }

// String implements fmt.Stringer.
func (b *Bitfield) String() string {
	return fmt.Sprintf("%s:%d@%d", b.Underlying, b.Length, b.Position)
}

// Wildcard stands in for a leaf the walker does not model. Walking
// continues past it.
type Wildcard struct {
	Leaf codeview.LeafKind
}

// ByteSize implements Type.
func (w *Wildcard) ByteSize() uint64 { return 0 }

// String implements fmt.Stringer.
func (w *Wildcard) String() string { return w.Leaf.String() }
