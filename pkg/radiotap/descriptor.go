package radiotap

import (
	"encoding/binary"
	"fmt"
)

// FieldDescriptor locates one field inside a radiotap header. Data borrows
// the parsed buffer.
type FieldDescriptor struct {
	Word      int
	Bit       int
	Namespace Namespace
	Offset    int
	Length    int
	Name      string
	Data      []byte
}

// Copy returns a descriptor whose Data no longer aliases the input buffer.
func (f FieldDescriptor) Copy() FieldDescriptor {
	f.Data = append([]byte(nil), f.Data...)
	return f
}

// End is the offset of the first byte after the field.
func (f FieldDescriptor) End() int {
	return f.Offset + f.Length
}

// IsStandard reports whether f is the standard-namespace field bit.
func (f FieldDescriptor) IsStandard(bit int) bool {
	return f.Namespace.Kind == Standard && f.Bit == bit
}

func (f FieldDescriptor) Uint8() (uint8, error) {
	if err := f.expect(1); err != nil {
		return 0, err
	}
	return f.Data[0], nil
}

func (f FieldDescriptor) Int8() (int8, error) {
	v, err := f.Uint8()
	return int8(v), err
}

func (f FieldDescriptor) Uint16() (uint16, error) {
	if err := f.expect(2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(f.Data), nil
}

func (f FieldDescriptor) Uint32() (uint32, error) {
	if err := f.expect(4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(f.Data), nil
}

func (f FieldDescriptor) Uint64() (uint64, error) {
	if err := f.expect(8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(f.Data), nil
}

func (f FieldDescriptor) expect(n int) error {
	if len(f.Data) != n {
		return fmt.Errorf("radiotap: field %s is %d bytes, not %d", f.label(), len(f.Data), n)
	}
	return nil
}

func (f FieldDescriptor) label() string {
	if f.Name != "" {
		return f.Name
	}
	return fmt.Sprintf("%s bit %d", f.Namespace, f.Bit)
}
