package protocol

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const fcsLen = 4

// decodeDot11 summarizes the 802.11 header in payload. layers.Dot11 always
// treats the last four bytes as the FCS, so a placeholder is appended when the
// radiotap flags say the capture has none.
func decodeDot11(payload []byte, hasFCS bool) *Dot11Info {
	if len(payload) == 0 {
		return nil
	}
	if hasFCS {
		if len(payload) <= fcsLen {
			return nil
		}
	} else {
		padded := make([]byte, len(payload)+fcsLen)
		copy(padded, payload)
		payload = padded
	}

	packet := gopacket.NewPacket(payload, layers.LayerTypeDot11, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	layer := packet.Layer(layers.LayerTypeDot11)
	if layer == nil {
		return nil
	}
	dot11, ok := layer.(*layers.Dot11)
	if !ok {
		return nil
	}

	info := &Dot11Info{Type: dot11.Type.String()}
	if len(dot11.Address1) > 0 {
		info.Addr1 = dot11.Address1.String()
	}
	if len(dot11.Address2) > 0 {
		info.Addr2 = dot11.Address2.String()
	}
	if len(dot11.Address3) > 0 {
		info.Addr3 = dot11.Address3.String()
	}
	return info
}
