package radiotap

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Standard namespace field indices.
const (
	FieldTSFT            = 0
	FieldFlags           = 1
	FieldRate            = 2
	FieldChannel         = 3
	FieldFHSS            = 4
	FieldDBMAntSignal    = 5
	FieldDBMAntNoise     = 6
	FieldLockQuality     = 7
	FieldTxAttenuation   = 8
	FieldDBTxAttenuation = 9
	FieldDBMTxPower      = 10
	FieldAntenna         = 11
	FieldDBAntSignal     = 12
	FieldDBAntNoise      = 13
	FieldRxFlags         = 14
	FieldTxFlags         = 15
	FieldRTSRetries      = 16
	FieldDataRetries     = 17
	FieldMCS             = 19
	FieldAMPDUStatus     = 20
	FieldVHT             = 21
	FieldTimestamp       = 22

	// Reserved in every namespace.
	BitRadiotapNamespace = 29
	BitVendorNamespace   = 30
	BitExtend            = 31

	maxDataBit = 28
)

// Entry is the layout of one field. Size 0 means the index is unknown.
type Entry struct {
	Align int
	Size  int
	Name  string
}

// Table maps field indices of one namespace to their layout.
type Table struct {
	name    string
	entries [maxDataBit + 1]Entry
}

// NewTable validates entries and builds an immutable table.
func NewTable(name string, entries map[int]Entry) (*Table, error) {
	t := &Table{name: name}
	for bit, e := range entries {
		if bit < 0 || bit > maxDataBit {
			return nil, fmt.Errorf("namespace %s: bit %d outside 0..%d", name, bit, maxDataBit)
		}
		if e.Size < 0 {
			return nil, fmt.Errorf("namespace %s: bit %d has negative size %d", name, bit, e.Size)
		}
		switch e.Align {
		case 1, 2, 4, 8:
		default:
			if e.Size != 0 {
				return nil, fmt.Errorf("namespace %s: bit %d has invalid alignment %d", name, bit, e.Align)
			}
		}
		t.entries[bit] = e
	}
	return t, nil
}

func mustTable(name string, entries map[int]Entry) *Table {
	t, err := NewTable(name, entries)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// Lookup returns the entry for bit. ok is false for unknown indices.
func (t *Table) Lookup(bit int) (Entry, bool) {
	if t == nil || bit < 0 || bit > maxDataBit {
		return Entry{}, false
	}
	e := t.entries[bit]
	if e.Size == 0 {
		return Entry{}, false
	}
	return e, true
}

// Entries returns the known entries keyed by bit index.
func (t *Table) Entries() map[int]Entry {
	out := make(map[int]Entry)
	if t == nil {
		return out
	}
	for bit, e := range t.entries {
		if e.Size > 0 {
			out[bit] = e
		}
	}
	return out
}

var standardTable = mustTable("radiotap", map[int]Entry{
	FieldTSFT:            {Align: 8, Size: 8, Name: "tsft"},
	FieldFlags:           {Align: 1, Size: 1, Name: "flags"},
	FieldRate:            {Align: 1, Size: 1, Name: "rate"},
	FieldChannel:         {Align: 2, Size: 4, Name: "channel"},
	FieldFHSS:            {Align: 2, Size: 2, Name: "fhss"},
	FieldDBMAntSignal:    {Align: 1, Size: 1, Name: "dbm_antsignal"},
	FieldDBMAntNoise:     {Align: 1, Size: 1, Name: "dbm_antnoise"},
	FieldLockQuality:     {Align: 2, Size: 2, Name: "lock_quality"},
	FieldTxAttenuation:   {Align: 2, Size: 2, Name: "tx_attenuation"},
	FieldDBTxAttenuation: {Align: 2, Size: 2, Name: "db_tx_attenuation"},
	FieldDBMTxPower:      {Align: 1, Size: 1, Name: "dbm_tx_power"},
	FieldAntenna:         {Align: 1, Size: 1, Name: "antenna"},
	FieldDBAntSignal:     {Align: 1, Size: 1, Name: "db_antsignal"},
	FieldDBAntNoise:      {Align: 1, Size: 1, Name: "db_antnoise"},
	FieldRxFlags:         {Align: 2, Size: 2, Name: "rx_flags"},
	FieldTxFlags:         {Align: 2, Size: 2, Name: "tx_flags"},
	FieldRTSRetries:      {Align: 1, Size: 1, Name: "rts_retries"},
	FieldDataRetries:     {Align: 1, Size: 1, Name: "data_retries"},
	FieldMCS:             {Align: 1, Size: 3, Name: "mcs"},
	FieldAMPDUStatus:     {Align: 4, Size: 8, Name: "ampdu_status"},
	FieldVHT:             {Align: 2, Size: 12, Name: "vht"},
	FieldTimestamp:       {Align: 8, Size: 12, Name: "timestamp"},
})

// StandardTable returns the built-in radiotap namespace.
func StandardTable() *Table {
	return standardTable
}

// OUI is the 3-byte organization identifier of a vendor namespace.
type OUI [3]byte

func (o OUI) String() string {
	return fmt.Sprintf("%02x:%02x:%02x", o[0], o[1], o[2])
}

// ParseOUI accepts "00:11:22", "00-11-22" or "001122".
func ParseOUI(s string) (OUI, error) {
	clean := strings.NewReplacer(":", "", "-", "").Replace(strings.TrimSpace(s))
	if len(clean) != 6 {
		return OUI{}, fmt.Errorf("invalid oui %q", s)
	}
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return OUI{}, fmt.Errorf("invalid oui %q: %w", s, err)
	}
	var o OUI
	copy(o[:], raw)
	return o, nil
}

// NamespaceKind says how a descriptor's bytes were interpreted.
type NamespaceKind uint8

const (
	Standard NamespaceKind = iota
	Vendor
	Opaque
)

func (k NamespaceKind) String() string {
	switch k {
	case Standard:
		return "standard"
	case Vendor:
		return "vendor"
	case Opaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Namespace identifies the namespace a field belongs to. OUI and SubNS are
// zero for the standard namespace.
type Namespace struct {
	Kind  NamespaceKind
	OUI   OUI
	SubNS uint8
}

func (n Namespace) String() string {
	if n.Kind == Standard {
		return n.Kind.String()
	}
	return fmt.Sprintf("%s(%s/%d)", n.Kind, n.OUI, n.SubNS)
}
