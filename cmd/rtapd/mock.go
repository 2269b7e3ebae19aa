package main

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"rtapmon/pkg/radiotap"
	"rtapmon/pkg/transport"
)

const (
	mockSignalBaseDBM     = -55.0
	mockSignalAmplitudeDB = 12.0
	mockSignalFreqHz      = 0.2

	// Frames per channel before hopping.
	mockDwellFrames = 50
	// Every nth frame carries an unregistered vendor namespace.
	mockVendorEvery = 10

	mockSource = "mock"
)

var (
	mockChannels = []uint16{2412, 2437, 2462, 5180, 5240}
	mockRates    = []uint8{2, 4, 11, 22, 12, 18, 24, 36, 48, 72, 96, 108}

	mockVendorOUI = radiotap.OUI{0x00, 0x11, 0x22}
	mockBSSID     = []byte{0x02, 0x00, 0x5e, 0x10, 0x00, 0x01}
	broadcastAddr = []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
)

func runMockPublisher(ctx context.Context, out chan<- transport.Frame, hz int) {
	if hz <= 0 {
		hz = 20
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	start := time.Now()
	var seq int64
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			frame := transport.Frame{
				Source:    mockSource,
				Timestamp: now,
				Data:      mockFrame(seq, now.Sub(start)),
			}
			select {
			case out <- frame:
			case <-ctx.Done():
				return
			}
			seq++
		}
	}
}

func mockSignal(elapsed time.Duration) int8 {
	t := elapsed.Seconds()
	return int8(math.Round(mockSignalBaseDBM + mockSignalAmplitudeDB*math.Sin(2.0*math.Pi*mockSignalFreqHz*t)))
}

func mockChannel(seq int64) uint16 {
	return mockChannels[(seq/mockDwellFrames)%int64(len(mockChannels))]
}

// mockFrame builds a radiotap header (tsft, flags, rate, channel, dBm
// signal, antenna and optionally a vendor namespace) followed by an 802.11
// beacon header.
func mockFrame(seq int64, elapsed time.Duration) []byte {
	present := uint32(1<<radiotap.FieldTSFT | 1<<radiotap.FieldFlags | 1<<radiotap.FieldRate |
		1<<radiotap.FieldChannel | 1<<radiotap.FieldDBMAntSignal | 1<<radiotap.FieldAntenna)
	withVendor := seq%mockVendorEvery == 0
	hdrLen := 24
	if withVendor {
		present |= 1 << radiotap.BitVendorNamespace
		hdrLen = 32
	}

	freq := mockChannel(seq)
	chanFlags := radiotap.ChanOFDM | radiotap.Chan2GHz
	if freq >= 5000 {
		chanFlags = radiotap.ChanOFDM | radiotap.Chan5GHz
	}

	buf := make([]byte, hdrLen, hdrLen+24)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(hdrLen))
	binary.LittleEndian.PutUint32(buf[4:8], present)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(elapsed.Microseconds()))
	buf[16] = 0
	buf[17] = mockRates[seq%int64(len(mockRates))]
	binary.LittleEndian.PutUint16(buf[18:20], freq)
	binary.LittleEndian.PutUint16(buf[20:22], chanFlags)
	buf[22] = byte(mockSignal(elapsed))
	buf[23] = uint8(seq % 2)
	if withVendor {
		copy(buf[24:27], mockVendorOUI[:])
		buf[27] = 1
		binary.LittleEndian.PutUint16(buf[28:30], 2)
		binary.LittleEndian.PutUint16(buf[30:32], uint16(seq))
	}

	return append(buf, mockBeaconHeader(seq)...)
}

func mockBeaconHeader(seq int64) []byte {
	hdr := make([]byte, 24)
	hdr[0] = 0x80 // management, beacon
	copy(hdr[4:10], broadcastAddr)
	copy(hdr[10:16], mockBSSID)
	copy(hdr[16:22], mockBSSID)
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(seq%4096)<<4)
	return hdr
}
