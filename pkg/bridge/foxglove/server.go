package foxglove

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"rtapmon/pkg/engine"
	"rtapmon/pkg/protocol"
)

// Server publishes decoded captures to Foxglove Studio over the foxglove
// websocket protocol.
type Server struct {
	cfg     Config
	hub     *engine.Hub
	log     zerolog.Logger
	clients map[*client]struct{}
	mu      sync.RWMutex
}

type client struct {
	conn    *websocket.Conn
	remote  string
	send    chan []byte
	subs    map[uint32]uint64
	dropped atomic.Uint64
	mu      sync.RWMutex
	writeMu sync.Mutex
	once    sync.Once
}

func NewServer(cfg Config, hub *engine.Hub, log zerolog.Logger) *Server {
	return &Server{
		cfg:     cfg.withDefaults(),
		hub:     hub,
		log:     log.With().Str("component", "foxglove").Logger(),
		clients: make(map[*client]struct{}),
	}
}

// Run listens on the configured address until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.WSAddr)
	if err != nil {
		return fmt.Errorf("foxglove listen %s: %w", s.cfg.WSAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve takes ownership of ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)

	httpServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if s.hub != nil {
		sub := s.hub.Subscribe()
		go s.broadcastLoop(ctx, sub)
	}

	s.log.Info().Str("addr", ln.Addr().String()).Str("topic", s.cfg.Topic).Msg("foxglove bridge listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = httpServer.Shutdown(shutdownCtx)
		cancel()
		s.closeClients()
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		Subprotocols: []string{Subprotocol},
		CheckOrigin: func(*http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := newClient(conn, r.RemoteAddr, s.cfg.SendBuf)
	s.addClient(c)
	s.log.Debug().Str("remote", c.remote).Msg("client connected")

	if err := conn.WriteJSON(s.serverInfo()); err != nil {
		c.close()
		s.removeClient(c)
		return
	}
	if err := conn.WriteJSON(s.advertise()); err != nil {
		c.close()
		s.removeClient(c)
		return
	}

	go c.writeLoop()
	c.readLoop(s.cfg.ChannelID)

	c.close()
	s.removeClient(c)
	s.log.Debug().Str("remote", c.remote).Uint64("dropped", c.dropped.Load()).Msg("client disconnected")
}

func (s *Server) serverInfo() ServerInfoMsg {
	return ServerInfoMsg{
		Op:                 OpServerInfo,
		Name:               s.cfg.Name,
		Capabilities:       []string{},
		SupportedEncodings: []string{},
		SessionID:          fmt.Sprintf("%d", time.Now().UTC().UnixNano()),
	}
}

func (s *Server) advertise() AdvertiseMsg {
	return AdvertiseMsg{
		Op: OpAdvertise,
		Channels: []Channel{{
			ID:             s.cfg.ChannelID,
			Topic:          s.cfg.Topic,
			Encoding:       s.cfg.Encoding,
			SchemaName:     s.cfg.SchemaName,
			SchemaEncoding: s.cfg.SchemaEncoding,
			Schema:         s.cfg.Schema,
		}},
	}
}

func (s *Server) broadcastLoop(ctx context.Context, sub <-chan protocol.Capture) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-sub:
			if !ok {
				return
			}
			s.broadcastCapture(c)
		}
	}
}

func (s *Server) broadcastCapture(c protocol.Capture) {
	ts := c.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	payload, err := json.Marshal(protocol.NewRecord(c))
	if err != nil {
		s.log.Warn().Err(err).Msg("encode record")
		return
	}

	logTime := uint64(ts.UnixNano())
	for _, cl := range s.snapshotClients() {
		for _, subID := range cl.subIDsForChannel(s.cfg.ChannelID) {
			cl.trySend(EncodeMessageData(subID, logTime, payload))
		}
	}
}

func (s *Server) addClient(c *client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

func (s *Server) closeClients() {
	for _, c := range s.snapshotClients() {
		c.close()
	}
}

func (s *Server) snapshotClients() []*client {
	s.mu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()
	return clients
}

func newClient(conn *websocket.Conn, remote string, sendBuf int) *client {
	if sendBuf <= 0 {
		sendBuf = DefaultConfig().SendBuf
	}
	return &client{
		conn:   conn,
		remote: remote,
		send:   make(chan []byte, sendBuf),
		subs:   make(map[uint32]uint64),
	}
}

func (c *client) readLoop(channelID uint64) {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var header struct {
			Op string `json:"op"`
		}
		if err := json.Unmarshal(data, &header); err != nil {
			continue
		}

		switch header.Op {
		case OpSubscribe:
			var msg SubscribeMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			for _, sub := range msg.Subscriptions {
				if sub.ChannelID != channelID {
					c.status(StatusWarning, fmt.Sprintf("unknown channel %d", sub.ChannelID))
					continue
				}
				c.addSub(sub.ID, sub.ChannelID)
			}
		case OpUnsubscribe:
			var msg UnsubscribeMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			for _, id := range msg.SubscriptionIDs {
				c.removeSub(id)
			}
		}
	}
}

func (c *client) writeLoop() {
	for msg := range c.send {
		c.writeMu.Lock()
		err := c.conn.WriteMessage(websocket.BinaryMessage, msg)
		c.writeMu.Unlock()
		if err != nil {
			c.close()
			return
		}
	}
}

// trySend drops msg when the client is slow. The recover covers a send racing
// with close.
func (c *client) trySend(msg []byte) {
	defer func() {
		_ = recover()
	}()
	select {
	case c.send <- msg:
	default:
		c.dropped.Add(1)
	}
}

// status writes a text frame directly; writeMu orders it with writeLoop.
func (c *client) status(level uint8, message string) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.WriteJSON(StatusMsg{Op: OpStatus, Level: level, Message: message})
}

func (c *client) addSub(id uint32, channelID uint64) {
	c.mu.Lock()
	c.subs[id] = channelID
	c.mu.Unlock()
}

func (c *client) removeSub(id uint32) {
	c.mu.Lock()
	delete(c.subs, id)
	c.mu.Unlock()
}

func (c *client) subIDsForChannel(channelID uint64) []uint32 {
	c.mu.RLock()
	ids := make([]uint32, 0, len(c.subs))
	for id, ch := range c.subs {
		if ch == channelID {
			ids = append(ids, id)
		}
	}
	c.mu.RUnlock()
	return ids
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
		_ = c.conn.Close()
	})
}
