package protocol

import (
	"time"

	"rtapmon/pkg/radiotap"
)

// Decoder turns raw capture buffers into Capture records. Its registry must
// be fully populated before the first Decode call.
type Decoder struct {
	Registry *radiotap.Registry
	// SkipDot11 disables decoding of the 802.11 header after the radiotap
	// header.
	SkipDot11 bool
}

func NewDecoder(reg *radiotap.Registry) *Decoder {
	if reg == nil {
		reg = radiotap.NewRegistry()
	}
	return &Decoder{Registry: reg}
}

// Decode never fails as a call: a malformed header is reported in
// Capture.Err, together with any fields decoded before the failure.
func (d *Decoder) Decode(source string, ts time.Time, raw []byte) Capture {
	c := Capture{
		Source:    source,
		Timestamp: ts,
		Raw:       raw,
	}

	h, err := radiotap.ParseHeader(raw)
	if err != nil {
		c.Err = err
		return c
	}
	c.Header = h

	fields, err := radiotap.Collect(h, d.Registry)
	c.Fields = fields
	c.Summary = Summarize(fields)
	if err != nil {
		c.Err = err
		return c
	}

	if !d.SkipDot11 {
		c.Dot11 = decodeDot11(c.Payload(), c.Summary.HasFCS())
	}
	return c
}
