package message

// Layout is implemented by generated struct stubs. DataSize is the struct's
// fixed data size and doubles as its stride in a list.
type Layout interface {
	DataSize() uint32
}

func dataSize[L Layout]() uint32 {
	var l L
	return l.DataSize()
}

// StructListBuilder is a ListBuilder whose element size is fixed by L.
type StructListBuilder[L Layout] struct {
	list ListBuilder
}

// NewStructList allocates a list of count L structs at fieldOffset.
func NewStructList[L Layout](b Builder, fieldOffset, count uint32) (StructListBuilder[L], error) {
	l, err := b.NewListField(fieldOffset, dataSize[L](), count)
	if err != nil {
		return StructListBuilder[L]{}, err
	}
	return StructListBuilder[L]{list: l}, nil
}

// At returns a Builder over element i.
func (s StructListBuilder[L]) At(i uint32) (Builder, error) {
	return s.list.ReadListElement(i, dataSize[L]())
}

func (s StructListBuilder[L]) Len() uint32 { return s.list.Len() }

// List returns the untyped list view.
func (s StructListBuilder[L]) List() ListBuilder { return s.list }

// StructListReader is a ListReader whose element size is fixed by L.
type StructListReader[L Layout] struct {
	list ListReader
}

// ReadStructList follows the list pointer at fieldOffset.
func ReadStructList[L Layout](r Reader, fieldOffset uint32) (StructListReader[L], error) {
	l, err := r.ReadListField(fieldOffset)
	if err != nil {
		return StructListReader[L]{}, err
	}
	return StructListReader[L]{list: l}, nil
}

// At returns a Reader over element i.
func (s StructListReader[L]) At(i uint32) (Reader, error) {
	return s.list.ReadListElement(i, dataSize[L]())
}

func (s StructListReader[L]) Len() uint32 { return s.list.Len() }

func (s StructListReader[L]) List() ListReader { return s.list }
