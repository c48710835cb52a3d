package layout

import (
	"strconv"

	"github.com/wippyai/wire-runtime/internal/abi"
	"go.bytecodealliance.org/wit"
)

// Info is the size and alignment of a value in its containing slot.
type Info struct {
	Size  uint32
	Align uint32
}

// Field is one laid-out struct field.
type Field struct {
	Type   wit.Type
	Name   string
	Slot   Info
	Offset uint32
}

// StructInfo describes the data section of a record or tuple.
type StructInfo struct {
	FieldOffs map[string]uint32
	Fields    []Field
	DataSize  uint32
	Align     uint32
}

// VariantInfo describes a tagged union: discriminant then a shared payload slot.
type VariantInfo struct {
	Cases         []wit.Type
	Names         []string
	Size          uint32
	Align         uint32
	DiscSize      uint32
	PayloadOffset uint32
}

// Calculator computes wire layouts for WIT types. Results for type
// definitions are cached; a Calculator is not safe for concurrent use.
type Calculator struct {
	slots   map[*wit.TypeDef]Info
	structs map[*wit.TypeDef]StructInfo
}

func NewCalculator() *Calculator {
	return &Calculator{
		slots:   make(map[*wit.TypeDef]Info),
		structs: make(map[*wit.TypeDef]StructInfo),
	}
}

// IsPointer reports whether t is stored out of line behind a pointer word
// when it appears as a struct field.
func IsPointer(t wit.Type) bool {
	switch typ := t.(type) {
	case wit.String:
		return true
	case *wit.TypeDef:
		switch kind := typ.Kind.(type) {
		case *wit.List, *wit.Record, *wit.Tuple:
			return true
		case wit.Type:
			return IsPointer(kind)
		}
	}
	return false
}

// Slot returns the in-struct layout of t.
func (c *Calculator) Slot(t wit.Type) Info {
	if IsPointer(t) {
		return Info{Size: PointerSize, Align: PointerSize}
	}
	switch typ := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return Info{Size: 1, Align: 1}
	case wit.U16, wit.S16:
		return Info{Size: 2, Align: 2}
	case wit.U32, wit.S32, wit.F32, wit.Char:
		return Info{Size: 4, Align: 4}
	case wit.U64, wit.S64, wit.F64:
		return Info{Size: 8, Align: 8}
	case *wit.TypeDef:
		return c.slotTypeDef(typ)
	default:
		return Info{Size: 0, Align: 1}
	}
}

func (c *Calculator) slotTypeDef(t *wit.TypeDef) Info {
	if cached, ok := c.slots[t]; ok {
		return cached
	}

	var info Info

	switch kind := t.Kind.(type) {
	case *wit.Variant:
		v := c.Variant(t)
		info = Info{Size: v.Size, Align: v.Align}
	case *wit.Option, *wit.Result:
		v := c.Variant(t)
		info = Info{Size: v.Size, Align: v.Align}
	case *wit.Enum:
		size := abi.DiscriminantSize(len(kind.Cases))
		info = Info{Size: size, Align: size}
	case *wit.Flags:
		info = flagsInfo(len(kind.Flags))
	case wit.Type:
		info = c.Slot(kind)
	default:
		info = Info{Size: 0, Align: 1}
	}

	c.slots[t] = info
	return info
}

// ElementSize returns the stride of t as a list element. Records and tuples
// are stored inline at their data size; everything else uses its slot size.
func (c *Calculator) ElementSize(t wit.Type) uint32 {
	if td, ok := t.(*wit.TypeDef); ok {
		switch kind := td.Kind.(type) {
		case *wit.Record, *wit.Tuple:
			return c.Struct(td).DataSize
		case wit.Type:
			return c.ElementSize(kind)
		}
	}
	return c.Slot(t).Size
}

// Struct lays out a record or tuple type definition. Other kinds yield an
// empty StructInfo.
func (c *Calculator) Struct(t *wit.TypeDef) StructInfo {
	if cached, ok := c.structs[t]; ok {
		return cached
	}

	var fields []Field
	switch kind := t.Kind.(type) {
	case *wit.Record:
		for _, f := range kind.Fields {
			fields = append(fields, Field{Name: f.Name, Type: f.Type})
		}
	case *wit.Tuple:
		for i, typ := range kind.Types {
			fields = append(fields, Field{Name: strconv.Itoa(i), Type: typ})
		}
	case wit.Type:
		if alias, ok := kind.(*wit.TypeDef); ok {
			info := c.Struct(alias)
			c.structs[t] = info
			return info
		}
	}

	info := c.layoutFields(fields)
	c.structs[t] = info
	return info
}

func (c *Calculator) layoutFields(fields []Field) StructInfo {
	info := StructInfo{
		FieldOffs: make(map[string]uint32, len(fields)),
		Fields:    fields,
		Align:     1,
	}
	if len(fields) == 0 {
		return info
	}

	offset := uint32(0)
	for i := range fields {
		slot := c.Slot(fields[i].Type)

		offset = abi.AlignTo(offset, slot.Align)
		fields[i].Slot = slot
		fields[i].Offset = offset
		info.FieldOffs[fields[i].Name] = offset

		if slot.Align > info.Align {
			info.Align = slot.Align
		}

		offset += slot.Size
	}

	info.DataSize = abi.AlignTo(offset, info.Align)
	return info
}

// Variant lays out a variant, option or result type definition.
// Option is treated as variant{none, some(T)}; result as variant{ok(T), err(E)}.
func (c *Calculator) Variant(t *wit.TypeDef) VariantInfo {
	var info VariantInfo
	switch kind := t.Kind.(type) {
	case *wit.Variant:
		for _, cs := range kind.Cases {
			info.Names = append(info.Names, cs.Name)
			info.Cases = append(info.Cases, cs.Type)
		}
	case *wit.Option:
		info.Names = []string{"none", "some"}
		info.Cases = []wit.Type{nil, kind.Type}
	case *wit.Result:
		info.Names = []string{"ok", "err"}
		info.Cases = []wit.Type{kind.OK, kind.Err}
	case wit.Type:
		if alias, ok := kind.(*wit.TypeDef); ok {
			return c.Variant(alias)
		}
		return VariantInfo{Align: 1}
	default:
		return VariantInfo{Align: 1}
	}

	if len(info.Cases) == 0 {
		info.Align = 1
		return info
	}

	info.DiscSize = abi.DiscriminantSize(len(info.Cases))
	info.Align = info.DiscSize
	maxSize := uint32(0)

	for _, cs := range info.Cases {
		if cs == nil {
			continue
		}
		slot := c.Slot(cs)
		if slot.Align > info.Align {
			info.Align = slot.Align
		}
		if slot.Size > maxSize {
			maxSize = slot.Size
		}
	}

	info.PayloadOffset = abi.AlignTo(info.DiscSize, info.Align)
	info.Size = abi.AlignTo(info.PayloadOffset+maxSize, info.Align)
	return info
}

func flagsInfo(numFlags int) Info {
	if numFlags == 0 {
		return Info{Size: 0, Align: 1}
	}

	if numFlags <= 8 {
		return Info{Size: 1, Align: 1}
	} else if numFlags <= 16 {
		return Info{Size: 2, Align: 2}
	} else if numFlags <= 32 {
		return Info{Size: 4, Align: 4}
	} else if numFlags <= 64 {
		return Info{Size: 8, Align: 8}
	}

	// >64 flags: one u32 per 32 flags
	numU32s := (numFlags + 31) / 32
	return Info{Size: uint32(numU32s * 4), Align: 4}
}

// TypeName renders t in WIT syntax for diagnostics.
func TypeName(t wit.Type) string {
	switch v := t.(type) {
	case nil:
		return "_"
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return *v.Name
		}
		switch kind := v.Kind.(type) {
		case *wit.List:
			return "list<" + TypeName(kind.Type) + ">"
		case *wit.Option:
			return "option<" + TypeName(kind.Type) + ">"
		case *wit.Result:
			return "result<" + TypeName(kind.OK) + ", " + TypeName(kind.Err) + ">"
		case *wit.Tuple:
			s := "tuple<"
			for i, typ := range kind.Types {
				if i > 0 {
					s += ", "
				}
				s += TypeName(typ)
			}
			return s + ">"
		case *wit.Record:
			return "record"
		case *wit.Variant:
			return "variant"
		case *wit.Enum:
			return "enum"
		case *wit.Flags:
			return "flags"
		case wit.Type:
			return TypeName(kind)
		}
		return "typedef"
	default:
		return "unknown"
	}
}
