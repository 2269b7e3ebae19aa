package transport_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtapmon/pkg/transport"
)

func writePcap(t *testing.T, link layers.LinkType, packets ...[]byte) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w := pcapgo.NewWriter(&buf)
	require.NoError(t, w.WriteFileHeader(65535, link))
	base := time.Date(2026, 2, 5, 16, 0, 0, 0, time.UTC)
	for i, p := range packets {
		ci := gopacket.CaptureInfo{
			Timestamp:     base.Add(time.Duration(i) * time.Millisecond),
			CaptureLength: len(p),
			Length:        len(p),
		}
		require.NoError(t, w.WritePacket(ci, p))
	}
	return &buf
}

func TestReadCapturePcap(t *testing.T) {
	first := []byte{0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00}
	second := []byte{0x00, 0x00, 0x09, 0x00, 0x02, 0x00, 0x00, 0x00, 0x10}
	buf := writePcap(t, layers.LinkTypeIEEE80211Radio, first, second)

	out := make(chan transport.Frame, 4)
	n, err := transport.ReadCapture(context.Background(), buf, "file.pcap", out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got := <-out
	assert.Equal(t, first, got.Data)
	assert.Equal(t, "file.pcap", got.Source)
	assert.Equal(t, time.Date(2026, 2, 5, 16, 0, 0, 0, time.UTC), got.Timestamp.UTC())

	got = <-out
	assert.Equal(t, second, got.Data)
}

func TestReadCaptureRejectsOtherLinkTypes(t *testing.T) {
	buf := writePcap(t, layers.LinkTypeEthernet, []byte{0x01})

	out := make(chan transport.Frame, 1)
	_, err := transport.ReadCapture(context.Background(), buf, "eth.pcap", out)
	require.ErrorIs(t, err, transport.ErrLinkType)
}

func TestReadCaptureEmptyInput(t *testing.T) {
	out := make(chan transport.Frame, 1)
	_, err := transport.ReadCapture(context.Background(), bytes.NewReader(nil), "empty", out)
	require.Error(t, err)
}

func TestReadCaptureHonorsCancel(t *testing.T) {
	buf := writePcap(t, layers.LinkTypeIEEE80211Radio, []byte{0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan transport.Frame)
	n, err := transport.ReadCapture(ctx, buf, "cancelled", out)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}
