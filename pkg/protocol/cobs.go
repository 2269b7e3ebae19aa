package protocol

import (
	"errors"
	"fmt"
)

// ErrCOBS marks a frame that is not valid COBS.
var ErrCOBS = errors.New("protocol: invalid cobs frame")

// CobsDecode decodes a COBS frame without the trailing 0x00 delimiter.
func CobsDecode(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, nil
	}

	out := make([]byte, 0, len(frame))
	for i := 0; i < len(frame); {
		code := frame[i]
		if code == 0 {
			return nil, fmt.Errorf("%w: code 0x00 at %d", ErrCOBS, i)
		}
		i++

		count := int(code) - 1
		if i+count > len(frame) {
			return nil, fmt.Errorf("%w: block of %d at %d runs past %d bytes", ErrCOBS, count, i, len(frame))
		}

		out = append(out, frame[i:i+count]...)
		i += count

		if code != 0xFF && i < len(frame) {
			out = append(out, 0x00)
		}
	}

	return out, nil
}

// CobsEncode encodes payload and appends the 0x00 delimiter.
func CobsEncode(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+len(payload)/254+2)
	codeIdx := len(out)
	out = append(out, 0)
	code := byte(1)
	for _, b := range payload {
		if b == 0 {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
			continue
		}
		out = append(out, b)
		code++
		if code == 0xFF {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
		}
	}
	out[codeIdx] = code
	return append(out, 0x00)
}
