package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// ErrLinkType is returned for capture files that do not carry radiotap
// headers.
var ErrLinkType = errors.New("transport: capture link type is not IEEE802.11 radiotap")

var pcapngMagic = []byte{0x0A, 0x0D, 0x0D, 0x0A}

// ReadCapture replays a pcap or pcapng stream into out and returns the number
// of frames delivered. source labels every frame.
func ReadCapture(ctx context.Context, r io.Reader, source string, out chan<- Frame) (int, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return 0, fmt.Errorf("read capture magic: %w", err)
	}

	var (
		linkType layers.LinkType
		next     func() ([]byte, gopacket.CaptureInfo, error)
	)
	if bytes.Equal(magic, pcapngMagic) {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return 0, fmt.Errorf("open pcapng: %w", err)
		}
		linkType = ng.LinkType()
		next = ng.ReadPacketData
	} else {
		pr, err := pcapgo.NewReader(br)
		if err != nil {
			return 0, fmt.Errorf("open pcap: %w", err)
		}
		linkType = pr.LinkType()
		next = pr.ReadPacketData
	}
	if linkType != layers.LinkTypeIEEE80211Radio {
		return 0, fmt.Errorf("%w: %s", ErrLinkType, linkType)
	}

	count := 0
	for {
		if ctx.Err() != nil {
			return count, ctx.Err()
		}
		data, ci, err := next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return count, nil
			}
			return count, fmt.Errorf("read packet %d: %w", count, err)
		}
		frame := Frame{
			Source:    source,
			Timestamp: ci.Timestamp,
			Data:      append([]byte(nil), data...),
		}
		select {
		case out <- frame:
			count++
		case <-ctx.Done():
			return count, ctx.Err()
		}
	}
}
