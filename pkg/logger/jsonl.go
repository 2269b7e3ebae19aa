package logger

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"rtapmon/pkg/protocol"
)

// JSONLWriter writes one protocol.Record per line.
type JSONLWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONLWriter(w io.Writer) *JSONLWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{enc: enc}
}

func (j *JSONLWriter) Write(c protocol.Capture) error {
	rec := protocol.NewRecord(c)
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(rec)
}

// Consume writes captures from in until ctx is done or in is closed. Write
// errors are passed to onErr when it is not nil.
func (j *JSONLWriter) Consume(ctx context.Context, in <-chan protocol.Capture, onErr func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-in:
			if !ok {
				return
			}
			if err := j.Write(c); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}
