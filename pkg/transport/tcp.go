package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"rtapmon/pkg/protocol"
)

// DefaultMaxFrameSize bounds one encoded frame. It fits a 64 KiB radiotap
// header plus the largest 802.11 MPDU, with room for COBS overhead.
const DefaultMaxFrameSize = 64*1024 + 11454 + 512

// ErrFrameTooLarge is reported when a connection exceeds the frame limit
// without sending a delimiter. The connection is dropped.
var ErrFrameTooLarge = errors.New("transport: frame exceeds maximum size")

// Frame is one raw capture buffer handed to the decoder.
type Frame struct {
	Source    string
	Timestamp time.Time
	Data      []byte
}

// Server accepts sniffer agents that push COBS-framed radiotap buffers, one
// frame per 0x00 delimiter.
type Server struct {
	ln           net.Listener
	out          chan<- Frame
	bufSize      int
	maxFrame     int
	readTimeout  time.Duration
	errorHandler func(error)

	wg     sync.WaitGroup
	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
}

type Option func(*Server)

func WithBufferSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.bufSize = n
		}
	}
}

// WithMaxFrameSize caps the encoded size of a single frame.
func WithMaxFrameSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxFrame = n
		}
	}
}

func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.readTimeout = d
		}
	}
}

func WithErrorHandler(fn func(error)) Option {
	return func(s *Server) {
		if fn != nil {
			s.errorHandler = fn
		}
	}
}

// Listen binds addr and serves connections until ctx is done.
func Listen(ctx context.Context, addr string, out chan<- Frame, opts ...Option) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return Serve(ctx, ln, out, opts...), nil
}

// Serve takes ownership of ln.
func Serve(ctx context.Context, ln net.Listener, out chan<- Frame, opts ...Option) *Server {
	s := &Server{
		ln:       ln,
		out:      out,
		bufSize:  64 * 1024,
		maxFrame: DefaultMaxFrameSize,
		conns:    make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.acceptLoop(ctx)
	go func() {
		<-ctx.Done()
		_ = s.ln.Close()
		s.closeConns()
	}()
	return s
}

func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Wait blocks until the accept loop and every connection handler returned.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.handleError(err)
			continue
		}
		if !s.track(conn) {
			_ = conn.Close()
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			defer conn.Close()
			if err := s.handleConn(ctx, conn); err != nil && ctx.Err() == nil {
				s.handleError(err)
			}
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) error {
	source := conn.RemoteAddr().String()
	reader := bufio.NewReaderSize(conn, s.bufSize)
	var pending []byte
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
		chunk, err := reader.ReadSlice(0x00)
		if len(pending)+len(chunk) > s.maxFrame {
			return fmt.Errorf("%w: %s sent %d bytes without a delimiter", ErrFrameTooLarge, source, len(pending)+len(chunk))
		}
		pending = append(pending, chunk...)
		if err != nil {
			var nerr net.Error
			switch {
			case errors.Is(err, bufio.ErrBufferFull):
				continue
			case errors.As(err, &nerr) && nerr.Timeout():
				continue
			case errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed):
				return nil
			}
			return err
		}

		frame := pending[:len(pending)-1]
		if len(frame) == 0 {
			pending = pending[:0]
			continue
		}
		payload, err := protocol.CobsDecode(frame)
		pending = pending[:0]
		if err != nil {
			s.handleError(err)
			continue
		}
		if len(payload) == 0 {
			continue
		}
		select {
		case s.out <- Frame{Source: source, Timestamp: time.Now(), Data: payload}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// track registers conn unless the server is already shutting down.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for conn := range s.conns {
		_ = conn.Close()
	}
}

func (s *Server) handleError(err error) {
	if s.errorHandler != nil {
		s.errorHandler(err)
	}
}
