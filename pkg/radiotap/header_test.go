package radiotap_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtapmon/pkg/radiotap"
)

func TestParseHeaderMinimal(t *testing.T) {
	h, err := radiotap.ParseHeader([]byte{0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00})
	require.NoError(t, err)

	assert.Equal(t, uint8(0), h.Version())
	assert.Equal(t, 8, h.Len())
	assert.Equal(t, []uint32{0}, h.Words())
	assert.Equal(t, 8, h.DataOffset())
	assert.Len(t, h.Bytes(), 8)
}

func TestParseHeaderExtendedBitmap(t *testing.T) {
	buf := []byte{
		0x00, 0x00, 0x10, 0x00,
		0x02, 0x00, 0x00, 0x80,
		0x00, 0x00, 0x00, 0x80,
		0x04, 0x00, 0x00, 0x00,
	}
	h, err := radiotap.ParseHeader(buf)
	require.NoError(t, err)

	assert.Equal(t, []uint32{0x80000002, 0x80000000, 0x00000004}, h.Words())
	assert.Equal(t, 3, h.WordCount())
	assert.Equal(t, 16, h.DataOffset())
	assert.Zero(t, h.Word(h.WordCount()-1)&radiotap.PresenceExtend)
	assert.True(t, h.Present(radiotap.FieldFlags))
	assert.False(t, h.Present(radiotap.FieldRate))
}

func TestParseHeaderTrailingBytesAreNotPartOfHeader(t *testing.T) {
	buf := []byte{0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0xAA, 0xBB}
	h, err := radiotap.ParseHeader(buf)
	require.NoError(t, err)
	assert.Len(t, h.Bytes(), 8)
}

func TestParseHeaderWordsIsACopy(t *testing.T) {
	h, err := radiotap.ParseHeader([]byte{0x00, 0x00, 0x08, 0x00, 0x02, 0x00, 0x00, 0x00})
	require.NoError(t, err)

	words := h.Words()
	words[0] = 0xFFFFFFFF
	assert.Equal(t, uint32(2), h.Word(0))
}

func TestParseHeaderErrors(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want error
	}{
		{"empty", nil, radiotap.ErrTruncatedHeader},
		{"short", []byte{0x00, 0x00, 0x08, 0x00}, radiotap.ErrTruncatedHeader},
		{"version", []byte{0x01, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00}, radiotap.ErrUnsupportedVersion},
		{"length too small", []byte{0x00, 0x00, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00}, radiotap.ErrTruncatedHeader},
		{"length past buffer", []byte{0x00, 0x00, 0x20, 0x00, 0x00, 0x00, 0x00, 0x00}, radiotap.ErrTruncatedHeader},
		{"extend without room", []byte{0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0x80}, radiotap.ErrTruncatedBitmap},
		{
			"extend past declared length",
			[]byte{0x00, 0x00, 0x0A, 0x00, 0x00, 0x00, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00},
			radiotap.ErrTruncatedBitmap,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := radiotap.ParseHeader(tt.buf)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.want, radiotap.KindOf(err))

			var decodeErr *radiotap.DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.Equal(t, -1, decodeErr.Bit)
		})
	}
}

func TestHeaderWordOutOfRange(t *testing.T) {
	var zero radiotap.Header
	assert.Zero(t, zero.Word(0))
	assert.Zero(t, zero.WordCount())

	h, err := radiotap.ParseHeader([]byte{0x00, 0x00, 0x08, 0x00, 0x02, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	assert.Zero(t, h.Word(-1))
	assert.Zero(t, h.Word(1))
}

func TestParseHeaderShortBufferIsTruncatedBeforeVersion(t *testing.T) {
	_, err := radiotap.ParseHeader([]byte{0x01, 0x00, 0x08, 0x00})
	assert.ErrorIs(t, err, radiotap.ErrTruncatedHeader)
}
