package protocol

import "rtapmon/pkg/radiotap"

// Summarize extracts the common standard-namespace values from fields.
// Fields from vendor or opaque namespaces are ignored.
func Summarize(fields []radiotap.FieldDescriptor) Summary {
	var s Summary
	for _, f := range fields {
		if f.Namespace.Kind != radiotap.Standard {
			continue
		}
		switch f.Bit {
		case radiotap.FieldTSFT:
			if v, err := f.Uint64(); err == nil {
				s.TSFT = &v
			}
		case radiotap.FieldFlags:
			if v, err := f.Uint8(); err == nil {
				s.Flags = &v
			}
		case radiotap.FieldRate:
			if v, err := f.Uint8(); err == nil {
				s.Rate = &v
			}
		case radiotap.FieldChannel:
			if v, err := f.Uint32(); err == nil {
				freq := uint16(v)
				flags := uint16(v >> 16)
				s.ChannelMHz = &freq
				s.ChannelFlags = &flags
			}
		case radiotap.FieldDBMAntSignal:
			if v, err := f.Int8(); err == nil {
				s.DBMSignal = &v
			}
		case radiotap.FieldDBMAntNoise:
			if v, err := f.Int8(); err == nil {
				s.DBMNoise = &v
			}
		case radiotap.FieldAntenna:
			if v, err := f.Uint8(); err == nil {
				s.Antenna = &v
			}
		case radiotap.FieldRxFlags:
			if v, err := f.Uint16(); err == nil {
				s.RxFlags = &v
			}
		}
	}
	return s
}
