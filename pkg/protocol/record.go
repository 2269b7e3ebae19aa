package protocol

import (
	"encoding/hex"
	"fmt"
	"time"

	"rtapmon/pkg/radiotap"
)

// Record is the JSON shape shared by the JSONL log and the websocket bridge.
type Record struct {
	TS      string        `json:"ts"`
	Source  string        `json:"source,omitempty"`
	Len     int           `json:"len"`
	Present []string      `json:"present,omitempty"`
	Fields  []FieldRecord `json:"fields"`
	Summary *Summary      `json:"summary,omitempty"`
	Dot11   *Dot11Info    `json:"dot11,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type FieldRecord struct {
	Word   int    `json:"word"`
	Bit    int    `json:"bit"`
	Name   string `json:"name,omitempty"`
	NS     string `json:"ns"`
	OUI    string `json:"oui,omitempty"`
	SubNS  *uint8 `json:"sub_ns,omitempty"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	Hex    string `json:"hex"`
}

// NewRecord flattens c. A zero timestamp is replaced by the current time.
func NewRecord(c Capture) Record {
	ts := c.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	rec := Record{
		TS:     ts.UTC().Format(time.RFC3339Nano),
		Source: c.Source,
		Len:    c.Header.Len(),
		Fields: make([]FieldRecord, 0, len(c.Fields)),
		Dot11:  c.Dot11,
	}
	for i := 0; i < c.Header.WordCount(); i++ {
		rec.Present = append(rec.Present, fmt.Sprintf("0x%08x", c.Header.Word(i)))
	}
	for _, f := range c.Fields {
		rec.Fields = append(rec.Fields, newFieldRecord(f))
	}
	if len(c.Fields) > 0 {
		s := c.Summary
		rec.Summary = &s
	}
	if c.Err != nil {
		rec.Error = c.Err.Error()
	}
	return rec
}

func newFieldRecord(f radiotap.FieldDescriptor) FieldRecord {
	fr := FieldRecord{
		Word:   f.Word,
		Bit:    f.Bit,
		Name:   f.Name,
		NS:     f.Namespace.Kind.String(),
		Offset: f.Offset,
		Length: f.Length,
		Hex:    hex.EncodeToString(f.Data),
	}
	if f.Namespace.Kind != radiotap.Standard {
		sub := f.Namespace.SubNS
		fr.OUI = f.Namespace.OUI.String()
		fr.SubNS = &sub
	}
	return fr
}
