package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtapmon/pkg/protocol"
	"rtapmon/pkg/radiotap"
)

func TestMockFrameDecodes(t *testing.T) {
	dec := protocol.NewDecoder(nil)

	c := dec.Decode(mockSource, time.Now(), mockFrame(1, 1500*time.Millisecond))
	require.NoError(t, c.Err)
	assert.Equal(t, 24, c.Header.Len())
	require.Len(t, c.Fields, 6)

	s := c.Summary
	require.NotNil(t, s.TSFT)
	assert.Equal(t, uint64(1500000), *s.TSFT)
	require.NotNil(t, s.ChannelMHz)
	assert.Equal(t, uint16(2412), *s.ChannelMHz)
	require.NotNil(t, s.DBMSignal)
	assert.InDelta(t, -55, int(*s.DBMSignal), 12)
	require.NotNil(t, s.Antenna)
	assert.Equal(t, uint8(1), *s.Antenna)

	require.NotNil(t, c.Dot11)
	assert.Equal(t, "MgmtBeacon", c.Dot11.Type)
	assert.Equal(t, "02:00:5e:10:00:01", c.Dot11.Addr2)
}

func TestMockFrameVendorNamespaceIsOpaque(t *testing.T) {
	dec := protocol.NewDecoder(nil)

	c := dec.Decode(mockSource, time.Now(), mockFrame(mockVendorEvery, time.Second))
	require.NoError(t, c.Err)
	assert.Equal(t, 32, c.Header.Len())
	require.Len(t, c.Fields, 7)

	last := c.Fields[6]
	assert.Equal(t, radiotap.Opaque, last.Namespace.Kind)
	assert.Equal(t, mockVendorOUI, last.Namespace.OUI)
	assert.Equal(t, 30, last.Offset)
	assert.Equal(t, 2, last.Length)
}

func TestMockFrameRegisteredVendor(t *testing.T) {
	table, err := radiotap.NewTable("mock", map[int]radiotap.Entry{})
	require.NoError(t, err)
	reg := radiotap.NewRegistry()
	require.NoError(t, reg.RegisterVendor(mockVendorOUI, 1, table))

	c := protocol.NewDecoder(reg).Decode(mockSource, time.Now(), mockFrame(0, 0))
	require.NoError(t, c.Err)
	assert.Len(t, c.Fields, 6)
}

func TestMockChannelHops(t *testing.T) {
	assert.Equal(t, mockChannels[0], mockChannel(0))
	assert.Equal(t, mockChannels[0], mockChannel(mockDwellFrames-1))
	assert.Equal(t, mockChannels[1], mockChannel(mockDwellFrames))
	assert.Equal(t, mockChannels[0], mockChannel(int64(mockDwellFrames*len(mockChannels))))
}

func TestMockSignalStaysInRange(t *testing.T) {
	for ms := 0; ms < 10000; ms += 137 {
		v := mockSignal(time.Duration(ms) * time.Millisecond)
		assert.GreaterOrEqual(t, int(v), int(mockSignalBaseDBM-mockSignalAmplitudeDB))
		assert.LessOrEqual(t, int(v), int(mockSignalBaseDBM+mockSignalAmplitudeDB))
	}
}
