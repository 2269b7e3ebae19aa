package radiotap

import (
	"encoding/binary"
	"fmt"
)

const (
	// Version is the only radiotap header version in use.
	Version = 0

	prefixLen    = 4
	presenceSize = 4
	minHeaderLen = prefixLen + presenceSize

	// PresenceExtend is set on every presence word that is followed by another.
	PresenceExtend uint32 = 0x80000000
)

// Header is the parsed prefix and presence bitmap of a radiotap buffer.
// It is immutable; copies share the underlying buffer.
type Header struct {
	version uint8
	length  int
	words   []uint32
	data    []byte
}

// ParseHeader reads the fixed prefix and the chained presence words from buf.
func ParseHeader(buf []byte) (Header, error) {
	// Length is checked before version: a buffer shorter than the fixed
	// prefix is truncated whatever its first byte says.
	if len(buf) < minHeaderLen {
		return Header{}, headerError(ErrTruncatedHeader, 0,
			fmt.Sprintf("buffer has %d bytes, need at least %d", len(buf), minHeaderLen))
	}
	if buf[0] != Version {
		return Header{}, headerError(ErrUnsupportedVersion, 0, fmt.Sprintf("version %d", buf[0]))
	}

	length := int(binary.LittleEndian.Uint16(buf[2:4]))
	if length < minHeaderLen || length > len(buf) {
		return Header{}, headerError(ErrTruncatedHeader, 2,
			fmt.Sprintf("declared length %d, buffer length %d", length, len(buf)))
	}

	words := make([]uint32, 0, 1)
	offset := prefixLen
	for {
		if offset+presenceSize > length {
			return Header{}, headerError(ErrTruncatedBitmap, offset,
				fmt.Sprintf("presence word %d runs past declared length %d", len(words), length))
		}
		word := binary.LittleEndian.Uint32(buf[offset : offset+presenceSize])
		words = append(words, word)
		offset += presenceSize
		if word&PresenceExtend == 0 {
			break
		}
	}

	return Header{
		version: buf[0],
		length:  length,
		words:   words,
		data:    buf[:length:length],
	}, nil
}

func (h Header) Version() uint8 {
	return h.version
}

// Len is the declared header length, fields included.
func (h Header) Len() int {
	return h.length
}

// Words returns a copy of the presence words in wire order.
func (h Header) Words() []uint32 {
	return append([]uint32(nil), h.words...)
}

// WordCount is the number of presence words.
func (h Header) WordCount() int {
	return len(h.words)
}

// Word returns presence word i, or 0 when i is out of range.
func (h Header) Word(i int) uint32 {
	if i < 0 || i >= len(h.words) {
		return 0
	}
	return h.words[i]
}

// DataOffset is the offset of the first byte after the presence bitmap.
func (h Header) DataOffset() int {
	return prefixLen + presenceSize*len(h.words)
}

// Bytes returns the header bytes, borrowed from the parsed buffer.
func (h Header) Bytes() []byte {
	return h.data
}

// Present reports whether bit is set in the first presence word.
func (h Header) Present(bit int) bool {
	if len(h.words) == 0 || bit < 0 || bit > 31 {
		return false
	}
	return h.words[0]&(1<<uint(bit)) != 0
}
