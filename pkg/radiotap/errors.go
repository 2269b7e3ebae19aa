package radiotap

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedVersion = errors.New("radiotap: unsupported version")
	ErrTruncatedHeader    = errors.New("radiotap: truncated header")
	ErrTruncatedBitmap    = errors.New("radiotap: truncated presence bitmap")
	ErrTruncatedField     = errors.New("radiotap: truncated field")
	ErrUnknownFieldSize   = errors.New("radiotap: unknown field size")
)

// DecodeError records where a decode stopped. Kind is one of the Err*
// sentinels; Word and Bit are -1 when the failure is not tied to a field.
type DecodeError struct {
	Kind   error
	Offset int
	Word   int
	Bit    int
	Detail string
}

func (e *DecodeError) Error() string {
	msg := e.Kind.Error()
	if e.Bit >= 0 {
		msg = fmt.Sprintf("%s (word %d bit %d, offset %d)", msg, e.Word, e.Bit, e.Offset)
	} else {
		msg = fmt.Sprintf("%s (offset %d)", msg, e.Offset)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Kind
}

// KindOf returns the sentinel behind err, or nil if err did not come from
// this package.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrUnsupportedVersion,
		ErrTruncatedHeader,
		ErrTruncatedBitmap,
		ErrTruncatedField,
		ErrUnknownFieldSize,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

func headerError(kind error, offset int, detail string) error {
	return &DecodeError{Kind: kind, Offset: offset, Word: -1, Bit: -1, Detail: detail}
}

func fieldError(kind error, offset, word, bit int, detail string) error {
	return &DecodeError{Kind: kind, Offset: offset, Word: word, Bit: bit, Detail: detail}
}
