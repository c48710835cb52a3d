package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/wire-runtime/errors"
	"github.com/wippyai/wire-runtime/internal/abi"
	"github.com/wippyai/wire-runtime/layout"
	"github.com/wippyai/wire-runtime/message"
	"go.bytecodealliance.org/wit"
)

// maxPrealloc caps the children reserved up front for a list node.
const maxPrealloc = 1024

// Node is one decoded value. Composite values have Children and no Value.
type Node struct {
	Name     string
	Type     string
	Value    string
	Children []Node
	Segment  uint32
	Offset   uint32
}

// String renders the tree with two-space indentation.
func (n Node) String() string {
	var b strings.Builder
	n.write(&b, 0)
	return b.String()
}

func (n Node) write(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Name)
	b.WriteString(": ")
	b.WriteString(n.Type)
	if n.Value != "" {
		b.WriteString(" = ")
		b.WriteString(n.Value)
	}
	b.WriteByte('\n')
	for _, c := range n.Children {
		c.write(b, depth+1)
	}
}

// Walker decodes messages by WIT type. It caches layouts and is not safe
// for concurrent use.
type Walker struct {
	calc *layout.Calculator
}

func NewWalker() *Walker {
	return &Walker{calc: layout.NewCalculator()}
}

// Calculator returns the layout calculator the walker uses.
func (w *Walker) Calculator() *layout.Calculator { return w.calc }

// Walk decodes the struct r views as t, which must be a record or tuple.
func (w *Walker) Walk(r message.Reader, t wit.Type) (Node, error) {
	td, ok := structDef(t)
	if !ok {
		return Node{}, errors.Unsupported(errors.PhaseSchema,
			fmt.Sprintf("root type %s is not a record or tuple", layout.TypeName(t)))
	}
	return w.walkStruct("root", r, td)
}

// structDef resolves aliases down to a record or tuple definition.
func structDef(t wit.Type) (*wit.TypeDef, bool) {
	td, ok := t.(*wit.TypeDef)
	if !ok {
		return nil, false
	}
	switch kind := td.Kind.(type) {
	case *wit.Record, *wit.Tuple:
		return td, true
	case wit.Type:
		return structDef(kind)
	}
	return nil, false
}

func position(r message.Reader, off uint32) (uint32, uint32) {
	if r.IsNull() {
		return 0, 0
	}
	return r.Segment().ID(), r.Base() + off
}

func (w *Walker) walkStruct(name string, r message.Reader, td *wit.TypeDef) (Node, error) {
	seg, off := position(r, 0)
	n := Node{Name: name, Type: layout.TypeName(td), Segment: seg, Offset: off}
	if r.IsNull() {
		n.Value = "null"
		return n, nil
	}
	info := w.calc.Struct(td)
	n.Children = make([]Node, 0, len(info.Fields))
	for _, f := range info.Fields {
		child, err := w.walkField(f.Name, r, f.Offset, f.Type)
		if err != nil {
			return Node{}, errors.WithPath(err, name)
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

func (w *Walker) walkField(name string, r message.Reader, off uint32, t wit.Type) (Node, error) {
	seg, abs := position(r, off)
	n := Node{Name: name, Type: layout.TypeName(t), Segment: seg, Offset: abs}

	var err error
	switch typ := t.(type) {
	case wit.Bool:
		n.Value, err = render[bool](r, off)
	case wit.U8:
		n.Value, err = render[uint8](r, off)
	case wit.S8:
		n.Value, err = render[int8](r, off)
	case wit.U16:
		n.Value, err = render[uint16](r, off)
	case wit.S16:
		n.Value, err = render[int16](r, off)
	case wit.U32:
		n.Value, err = render[uint32](r, off)
	case wit.S32:
		n.Value, err = render[int32](r, off)
	case wit.U64:
		n.Value, err = render[uint64](r, off)
	case wit.S64:
		n.Value, err = render[int64](r, off)
	case wit.F32:
		n.Value, err = render[float32](r, off)
	case wit.F64:
		n.Value, err = render[float64](r, off)
	case wit.Char:
		var c uint32
		c, err = message.ReadPrimitive[uint32](r, off)
		if err == nil && !abi.ValidateChar(rune(c)) {
			err = errors.New(errors.PhaseSchema, errors.KindInvalidData).
				Type(n.Type).
				Detail("invalid scalar value U+%X", c).
				Value(c).
				Build()
		}
		n.Value = strconv.QuoteRune(rune(c))
	case wit.String:
		var s string
		s, err = r.ReadText(off)
		n.Value = strconv.Quote(s)
	case *wit.TypeDef:
		return w.walkDef(n, r, off, typ)
	default:
		err = errors.New(errors.PhaseSchema, errors.KindUnsupported).
			Type(n.Type).
			Detail("no wire mapping").
			Build()
	}
	if err != nil {
		return Node{}, errors.WithPath(err, name)
	}
	return n, nil
}

func render[T message.Primitive](r message.Reader, off uint32) (string, error) {
	v, err := message.ReadPrimitive[T](r, off)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

func (w *Walker) walkDef(n Node, r message.Reader, off uint32, td *wit.TypeDef) (Node, error) {
	var err error
	switch kind := td.Kind.(type) {
	case *wit.Record, *wit.Tuple:
		sr, err := r.ReadStructField(off)
		if err != nil {
			return Node{}, errors.WithPath(err, n.Name)
		}
		return w.walkStruct(n.Name, sr, td)
	case *wit.List:
		err = w.walkList(&n, r, off, kind.Type)
	case *wit.Variant, *wit.Option, *wit.Result:
		err = w.walkVariant(&n, r, off, td)
	case *wit.Enum:
		var disc uint64
		disc, err = readUint(r, off, abi.DiscriminantSize(len(kind.Cases)))
		if err == nil {
			if disc >= uint64(len(kind.Cases)) {
				err = errors.InvalidDiscriminant(errors.PhaseSchema, nil, uint32(disc), uint32(len(kind.Cases)-1))
			} else {
				n.Value = kind.Cases[disc].Name
			}
		}
	case *wit.Flags:
		err = w.walkFlags(&n, r, off, td, kind)
	case wit.Type:
		alias, aerr := w.walkField(n.Name, r, off, kind)
		if aerr != nil {
			return Node{}, aerr
		}
		alias.Type = n.Type
		return alias, nil
	default:
		err = errors.New(errors.PhaseSchema, errors.KindUnsupported).
			Type(n.Type).
			Detail("no wire mapping").
			Build()
	}
	if err != nil {
		return Node{}, errors.WithPath(err, n.Name)
	}
	return n, nil
}

func (w *Walker) walkList(n *Node, r message.Reader, off uint32, elem wit.Type) error {
	lr, err := r.ReadListField(off)
	if err != nil {
		return err
	}
	size := w.calc.ElementSize(elem)
	if err := lr.Check(size); err != nil {
		return err
	}
	td, inline := structDef(elem)

	n.Value = fmt.Sprintf("[%d]", lr.Len())
	n.Children = make([]Node, 0, min(lr.Len(), maxPrealloc))
	for i := uint32(0); i < lr.Len(); i++ {
		er, err := lr.ReadListElement(i, size)
		if err != nil {
			return err
		}
		name := strconv.FormatUint(uint64(i), 10)
		var child Node
		if inline {
			child, err = w.walkStruct(name, er, td)
		} else {
			child, err = w.walkField(name, er, 0, elem)
		}
		if err != nil {
			return err
		}
		n.Children = append(n.Children, child)
	}
	return nil
}

func (w *Walker) walkVariant(n *Node, r message.Reader, off uint32, td *wit.TypeDef) error {
	info := w.calc.Variant(td)
	disc, err := readUint(r, off, info.DiscSize)
	if err != nil {
		return err
	}
	if disc >= uint64(len(info.Cases)) {
		return errors.InvalidDiscriminant(errors.PhaseSchema, nil, uint32(disc), uint32(len(info.Cases)-1))
	}
	n.Value = info.Names[disc]
	payload := info.Cases[disc]
	if payload == nil {
		return nil
	}
	child, err := w.walkField(info.Names[disc], r, off+info.PayloadOffset, payload)
	if err != nil {
		return err
	}
	n.Children = []Node{child}
	return nil
}

func (w *Walker) walkFlags(n *Node, r message.Reader, off uint32, td *wit.TypeDef, kind *wit.Flags) error {
	size := w.calc.Slot(td).Size
	var set []string
	if size <= 8 {
		bits, err := readUint(r, off, size)
		if err != nil {
			return err
		}
		for i, f := range kind.Flags {
			if bits&(1<<uint(i)) != 0 {
				set = append(set, f.Name)
			}
		}
	} else {
		for word := uint32(0); word*4 < size; word++ {
			bits, err := message.ReadPrimitive[uint32](r, off+word*4)
			if err != nil {
				return err
			}
			for bit := 0; bit < 32; bit++ {
				i := int(word)*32 + bit
				if i < len(kind.Flags) && bits&(1<<uint(bit)) != 0 {
					set = append(set, kind.Flags[i].Name)
				}
			}
		}
	}
	n.Value = "{" + strings.Join(set, ", ") + "}"
	return nil
}

// readUint reads an unsigned value of 0, 1, 2, 4 or 8 bytes.
func readUint(r message.Reader, off, size uint32) (uint64, error) {
	switch size {
	case 0:
		return 0, nil
	case 1:
		v, err := message.ReadPrimitive[uint8](r, off)
		return uint64(v), err
	case 2:
		v, err := message.ReadPrimitive[uint16](r, off)
		return uint64(v), err
	case 4:
		v, err := message.ReadPrimitive[uint32](r, off)
		return uint64(v), err
	default:
		return message.ReadPrimitive[uint64](r, off)
	}
}

// Lookup finds a named type definition in res.
func Lookup(res *wit.Resolve, name string) (*wit.TypeDef, error) {
	if res == nil {
		return nil, errors.InvalidInput(errors.PhaseSchema, "nil resolve")
	}
	for _, td := range res.TypeDefs {
		if td.Name != nil && *td.Name == name {
			return td, nil
		}
	}
	return nil, errors.NotFound(errors.PhaseSchema, "type", name)
}
