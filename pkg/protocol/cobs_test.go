package protocol_test

import (
	"bytes"
	"errors"
	"testing"

	"rtapmon/pkg/protocol"
)

func TestCobsDecodeSimple(t *testing.T) {
	decoded, err := protocol.CobsDecode([]byte{0x03, 0x11, 0x22})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decoded) != 2 || decoded[0] != 0x11 || decoded[1] != 0x22 {
		t.Fatalf("unexpected decode result: %v", decoded)
	}
}

func TestCobsDecodeWithZero(t *testing.T) {
	frame := []byte{0x02, 0x11, 0x02, 0x22}
	decoded, err := protocol.CobsDecode(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x11, 0x00, 0x22}
	if !bytes.Equal(decoded, want) {
		t.Fatalf("unexpected decode result: %v", decoded)
	}
}

func TestCobsDecodeInvalid(t *testing.T) {
	if _, err := protocol.CobsDecode([]byte{0x00, 0x01}); !errors.Is(err, protocol.ErrCOBS) {
		t.Fatalf("expected ErrCOBS for code 0x00, got %v", err)
	}
	if _, err := protocol.CobsDecode([]byte{0x05, 0x01}); !errors.Is(err, protocol.ErrCOBS) {
		t.Fatalf("expected ErrCOBS for truncated frame, got %v", err)
	}
}

func TestCobsEncodeRadiotapBuffer(t *testing.T) {
	// radiotap buffers are full of zero bytes; the delimiter must not appear
	// inside the encoded body.
	payload := []byte{0x00, 0x00, 0x09, 0x00, 0x02, 0x00, 0x00, 0x00, 0x10}
	encoded := protocol.CobsEncode(payload)
	if encoded[len(encoded)-1] != 0x00 {
		t.Fatalf("missing delimiter: %v", encoded)
	}
	body := encoded[:len(encoded)-1]
	if bytes.IndexByte(body, 0x00) >= 0 {
		t.Fatalf("zero byte inside encoded body: %v", body)
	}
	decoded, err := protocol.CobsDecode(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Fatalf("got %v want %v", decoded, payload)
	}
}

func TestCobsEncodeLongRun(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 600)
	encoded := protocol.CobsEncode(payload)
	decoded, err := protocol.CobsDecode(encoded[:len(encoded)-1])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Fatalf("long run mismatch: got %d bytes", len(decoded))
	}
}
