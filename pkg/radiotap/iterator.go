package radiotap

import (
	"encoding/binary"
	"fmt"
	"iter"
)

const (
	vendorHeaderLen   = 6
	vendorHeaderAlign = 4
)

var emptyRegistry = NewRegistry()

// Iterator walks the presence bitmap of a Header and yields one
// FieldDescriptor per present field. It is used like bufio.Scanner:
//
//	it := radiotap.NewIterator(h, reg)
//	for it.Next() {
//		f := it.Field()
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	h   Header
	reg *Registry

	word   int
	bit    int
	cursor int
	table  *Table
	ns     Namespace

	field FieldDescriptor
	err   error
	done  bool
}

// NewIterator starts a fresh walk over h. A nil registry only knows the
// standard namespace.
func NewIterator(h Header, reg *Registry) *Iterator {
	if reg == nil {
		reg = emptyRegistry
	}
	return &Iterator{
		h:      h,
		reg:    reg,
		cursor: h.DataOffset(),
		table:  reg.Standard(),
		ns:     Namespace{Kind: Standard},
	}
}

// Next advances to the next field. It returns false when the bitmap is
// exhausted or a decode error stopped the walk.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	for it.word < len(it.h.words) {
		w := it.h.words[it.word]
		for it.bit < BitExtend {
			bit := it.bit
			it.bit++
			if w&(1<<uint(bit)) == 0 {
				continue
			}
			switch bit {
			case BitRadiotapNamespace:
				it.table = it.reg.Standard()
				it.ns = Namespace{Kind: Standard}
			case BitVendorNamespace:
				if emitted := it.vendorNamespace(bit); emitted || it.done {
					return emitted
				}
			default:
				return it.dataField(bit)
			}
		}
		it.word++
		it.bit = 0
	}
	it.done = true
	return false
}

// Field returns the descriptor produced by the last successful Next.
func (it *Iterator) Field() FieldDescriptor {
	return it.field
}

// Err returns the error that stopped the walk, if any.
func (it *Iterator) Err() error {
	return it.err
}

// Offset is the current cursor position.
func (it *Iterator) Offset() int {
	return it.cursor
}

func (it *Iterator) dataField(bit int) bool {
	e, ok := it.table.Lookup(bit)
	if !ok {
		return it.fail(fieldError(ErrUnknownFieldSize, it.cursor, it.word, bit,
			fmt.Sprintf("no layout in namespace %s", it.table.Name())))
	}
	offset := alignUp(it.cursor, e.Align)
	if offset+e.Size > it.h.length {
		return it.fail(fieldError(ErrTruncatedField, offset, it.word, bit,
			fmt.Sprintf("%d bytes past declared length %d", offset+e.Size-it.h.length, it.h.length)))
	}
	it.field = FieldDescriptor{
		Word:      it.word,
		Bit:       bit,
		Namespace: it.ns,
		Offset:    offset,
		Length:    e.Size,
		Name:      e.Name,
		Data:      it.h.data[offset : offset+e.Size : offset+e.Size],
	}
	it.cursor = offset + e.Size
	return true
}

// vendorNamespace consumes the vendor header at the cursor. It reports
// whether a descriptor was emitted for an unregistered namespace.
func (it *Iterator) vendorNamespace(bit int) bool {
	start := alignUp(it.cursor, vendorHeaderAlign)
	if start+vendorHeaderLen > it.h.length {
		it.fail(fieldError(ErrTruncatedField, start, it.word, bit, "vendor namespace header"))
		return false
	}
	var oui OUI
	copy(oui[:], it.h.data[start:start+3])
	subNS := it.h.data[start+3]
	skip := int(binary.LittleEndian.Uint16(it.h.data[start+4 : start+6]))
	it.cursor = start + vendorHeaderLen

	if table, ok := it.reg.LookupVendor(oui, subNS); ok {
		it.table = table
		it.ns = Namespace{Kind: Vendor, OUI: oui, SubNS: subNS}
		return false
	}

	if it.cursor+skip > it.h.length {
		it.fail(fieldError(ErrTruncatedField, it.cursor, it.word, bit,
			fmt.Sprintf("vendor %s/%d skip length %d", oui, subNS, skip)))
		return false
	}
	it.field = FieldDescriptor{
		Word:      it.word,
		Bit:       bit,
		Namespace: Namespace{Kind: Opaque, OUI: oui, SubNS: subNS},
		Offset:    it.cursor,
		Length:    skip,
		Data:      it.h.data[it.cursor : it.cursor+skip : it.cursor+skip],
	}
	it.cursor += skip
	return true
}

func (it *Iterator) fail(err error) bool {
	it.err = err
	it.done = true
	it.field = FieldDescriptor{}
	return false
}

// Fields returns a lazy sequence over the fields of h. The sequence yields a
// zero descriptor with a non-nil error as its last element when decoding
// fails. Ranging over it again restarts from the first field.
func Fields(h Header, reg *Registry) iter.Seq2[FieldDescriptor, error] {
	return func(yield func(FieldDescriptor, error) bool) {
		it := NewIterator(h, reg)
		for it.Next() {
			if !yield(it.Field(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(FieldDescriptor{}, err)
		}
	}
}

// Collect drains Fields. On error the descriptors decoded before the failure
// are returned alongside it.
func Collect(h Header, reg *Registry) ([]FieldDescriptor, error) {
	var out []FieldDescriptor
	for f, err := range Fields(h, reg) {
		if err != nil {
			return out, err
		}
		out = append(out, f)
	}
	return out, nil
}

func alignUp(offset, align int) int {
	if align <= 1 {
		return offset
	}
	if rem := offset % align; rem != 0 {
		return offset + align - rem
	}
	return offset
}
