package protocol

import (
	"time"

	"rtapmon/pkg/radiotap"
)

// Capture is the normalized record flowing through the pipeline.
type Capture struct {
	Source    string
	Timestamp time.Time
	Raw       []byte
	Header    radiotap.Header
	Fields    []radiotap.FieldDescriptor
	Summary   Summary
	Dot11     *Dot11Info
	Err       error
}

// OK reports whether the radiotap header decoded completely.
func (c Capture) OK() bool {
	return c.Err == nil
}

// Payload is the 802.11 frame that follows the radiotap header.
func (c Capture) Payload() []byte {
	if c.Header.Len() == 0 || c.Header.Len() > len(c.Raw) {
		return nil
	}
	return c.Raw[c.Header.Len():]
}

// Summary holds the standard-namespace values a consumer usually wants.
// Pointer fields are nil when the field was not present.
type Summary struct {
	TSFT         *uint64 `json:"tsft,omitempty"`
	Flags        *uint8  `json:"flags,omitempty"`
	Rate         *uint8  `json:"rate,omitempty"`
	ChannelMHz   *uint16 `json:"channel_mhz,omitempty"`
	ChannelFlags *uint16 `json:"channel_flags,omitempty"`
	DBMSignal    *int8   `json:"dbm_signal,omitempty"`
	DBMNoise     *int8   `json:"dbm_noise,omitempty"`
	Antenna      *uint8  `json:"antenna,omitempty"`
	RxFlags      *uint16 `json:"rx_flags,omitempty"`
}

// HasFCS reports whether the frame flags say the 802.11 frame ends in an FCS.
func (s Summary) HasFCS() bool {
	return s.Flags != nil && *s.Flags&radiotap.FlagFCS != 0
}

// RateKbps converts the 500 kb/s rate unit.
func (s Summary) RateKbps() (int, bool) {
	if s.Rate == nil {
		return 0, false
	}
	return int(*s.Rate) * 500, true
}

// Dot11Info is the part of the 802.11 header shown next to the radiotap fields.
type Dot11Info struct {
	Type  string `json:"type"`
	Addr1 string `json:"addr1,omitempty"`
	Addr2 string `json:"addr2,omitempty"`
	Addr3 string `json:"addr3,omitempty"`
}

// Parser decodes a raw capture buffer.
type Parser interface {
	Decode(source string, ts time.Time, raw []byte) Capture
}
