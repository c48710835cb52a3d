package message

import (
	"encoding/binary"
	"math"

	"github.com/wippyai/wire-runtime/internal/abi"
)

// Primitive is the set of fixed-width field types. Sizes are 1, 2, 4 or 8
// bytes; bool occupies one byte.
type Primitive interface {
	bool | int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64
}

// SizeOf returns the encoded width of T.
func SizeOf[T Primitive]() uint32 {
	var zero T
	switch any(zero).(type) {
	case bool, int8, uint8:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	default:
		return 8
	}
}

func putPrimitive[T Primitive](b []byte, v T) {
	switch x := any(v).(type) {
	case bool:
		if x {
			b[0] = 1
		} else {
			b[0] = 0
		}
	case int8:
		b[0] = uint8(x)
	case uint8:
		b[0] = x
	case int16:
		binary.LittleEndian.PutUint16(b, uint16(x))
	case uint16:
		binary.LittleEndian.PutUint16(b, x)
	case int32:
		binary.LittleEndian.PutUint32(b, uint32(x))
	case uint32:
		binary.LittleEndian.PutUint32(b, x)
	case int64:
		binary.LittleEndian.PutUint64(b, uint64(x))
	case uint64:
		binary.LittleEndian.PutUint64(b, x)
	case float32:
		binary.LittleEndian.PutUint32(b, abi.CanonicalizeF32(math.Float32bits(x)))
	case float64:
		binary.LittleEndian.PutUint64(b, abi.CanonicalizeF64(math.Float64bits(x)))
	}
}

func getPrimitive[T Primitive](b []byte) T {
	var zero T
	var v any
	switch any(zero).(type) {
	case bool:
		v = b[0] != 0
	case int8:
		v = int8(b[0])
	case uint8:
		v = b[0]
	case int16:
		v = int16(binary.LittleEndian.Uint16(b))
	case uint16:
		v = binary.LittleEndian.Uint16(b)
	case int32:
		v = int32(binary.LittleEndian.Uint32(b))
	case uint32:
		v = binary.LittleEndian.Uint32(b)
	case int64:
		v = int64(binary.LittleEndian.Uint64(b))
	case uint64:
		v = binary.LittleEndian.Uint64(b)
	case float32:
		v = math.Float32frombits(binary.LittleEndian.Uint32(b))
	case float64:
		v = math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return v.(T)
}

// WritePrimitive writes v at fieldOffset within b's struct.
func WritePrimitive[T Primitive](b Builder, fieldOffset uint32, v T) error {
	n := SizeOf[T]()
	off, err := b.field(fieldOffset, n)
	if err != nil {
		return err
	}
	var buf [8]byte
	putPrimitive(buf[:n], v)
	return b.seg.Write(off, buf[:n])
}

// ReadPrimitive reads the value at fieldOffset, or the zero value if the
// field lies outside the struct the sender encoded.
func ReadPrimitive[T Primitive](r Reader, fieldOffset uint32) (T, error) {
	var zero T
	return ReadPrimitiveOr(r, fieldOffset, zero)
}

// ReadPrimitiveOr is ReadPrimitive with a caller-supplied default.
func ReadPrimitiveOr[T Primitive](r Reader, fieldOffset uint32, def T) (T, error) {
	n := SizeOf[T]()
	off, present, err := r.field(fieldOffset, n)
	if err != nil || !present {
		return def, err
	}
	b, err := r.seg.Read(off, n)
	if err != nil {
		return def, err
	}
	return getPrimitive[T](b), nil
}

// WriteElement writes v as element i of a primitive list.
func WriteElement[T Primitive](l ListBuilder, i uint32, v T) error {
	e, err := l.ReadListElement(i, SizeOf[T]())
	if err != nil {
		return err
	}
	return WritePrimitive(e, 0, v)
}

// ReadElement reads element i of a primitive list.
func ReadElement[T Primitive](l ListReader, i uint32) (T, error) {
	e, err := l.ReadListElement(i, SizeOf[T]())
	if err != nil {
		var zero T
		return zero, err
	}
	return ReadPrimitive[T](e, 0)
}
