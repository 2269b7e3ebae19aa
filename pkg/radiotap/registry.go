package radiotap

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
)

// ErrNilTable is returned when a vendor namespace is registered without a
// table.
var ErrNilTable = errors.New("radiotap: nil namespace table")

// VendorKey identifies a vendor namespace.
type VendorKey struct {
	OUI   OUI
	SubNS uint8
}

// Registry holds the namespace tables used while iterating fields. The zero
// value is ready to use and knows only the standard namespace.
//
// It has no internal locking. Register every vendor namespace before decodes
// start; after that the registry may be shared by any number of goroutines.
type Registry struct {
	standard *Table
	vendors  map[VendorKey]*Table
}

func NewRegistry() *Registry {
	return &Registry{
		standard: standardTable,
		vendors:  map[VendorKey]*Table{},
	}
}

func (r *Registry) Standard() *Table {
	if r == nil || r.standard == nil {
		return standardTable
	}
	return r.standard
}

// RegisterVendor adds or replaces the table for (oui, subNS). A nil table is
// rejected with ErrNilTable.
func (r *Registry) RegisterVendor(oui OUI, subNS uint8, table *Table) error {
	if table == nil {
		return fmt.Errorf("%w: vendor %s/%d", ErrNilTable, oui, subNS)
	}
	if r.vendors == nil {
		r.vendors = make(map[VendorKey]*Table)
	}
	r.vendors[VendorKey{OUI: oui, SubNS: subNS}] = table
	return nil
}

func (r *Registry) LookupVendor(oui OUI, subNS uint8) (*Table, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.vendors[VendorKey{OUI: oui, SubNS: subNS}]
	return t, ok && t != nil
}

// Vendors lists the registered keys ordered by OUI then sub-namespace.
func (r *Registry) Vendors() []VendorKey {
	if r == nil {
		return nil
	}
	keys := make([]VendorKey, 0, len(r.vendors))
	for k := range r.vendors {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if c := bytes.Compare(keys[i].OUI[:], keys[j].OUI[:]); c != 0 {
			return c < 0
		}
		return keys[i].SubNS < keys[j].SubNS
	})
	return keys
}
