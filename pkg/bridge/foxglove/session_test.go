package foxglove_test

import (
	"context"
	"encoding/json"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtapmon/pkg/bridge/foxglove"
	"rtapmon/pkg/engine"
	"rtapmon/pkg/protocol"
)

var flagsRateFrame = []byte{
	0x00, 0x00, 0x0A, 0x00,
	0x06, 0x00, 0x00, 0x00,
	0x10, 0x0C,
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	msgType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, msgType)
	require.NoError(t, json.Unmarshal(data, v))
}

func startSession(t *testing.T, ctx context.Context, hub *engine.Hub) (*websocket.Conn, <-chan error) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := foxglove.NewServer(foxglove.DefaultConfig(), hub, zerolog.Nop())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, ln) }()

	dialURL := url.URL{Scheme: "ws", Host: ln.Addr().String(), Path: "/"}
	dialer := websocket.Dialer{Subprotocols: []string{foxglove.Subprotocol}}
	conn, resp, err := dialer.Dial(dialURL.String(), nil)
	require.NoError(t, err)
	assert.Equal(t, foxglove.Subprotocol, resp.Header.Get("Sec-WebSocket-Protocol"))
	t.Cleanup(func() { _ = conn.Close() })
	return conn, errCh
}

func TestSessionWarnsOnUnknownChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, _ := startSession(t, ctx, nil)

	var info foxglove.ServerInfoMsg
	readJSON(t, conn, &info)
	var adv foxglove.AdvertiseMsg
	readJSON(t, conn, &adv)

	require.NoError(t, conn.WriteJSON(foxglove.SubscribeMsg{
		Op:            foxglove.OpSubscribe,
		Subscriptions: []foxglove.Subscription{{ID: 1, ChannelID: 99}},
	}))

	var status foxglove.StatusMsg
	readJSON(t, conn, &status)
	assert.Equal(t, foxglove.OpStatus, status.Op)
	assert.Equal(t, foxglove.StatusWarning, status.Level)
	assert.Contains(t, status.Message, "99")
}

func TestSessionReceivesCaptureRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := engine.NewHub()
	go hub.Run(ctx)

	conn, errCh := startSession(t, ctx, hub)

	var info foxglove.ServerInfoMsg
	readJSON(t, conn, &info)
	assert.Equal(t, foxglove.OpServerInfo, info.Op)
	assert.Equal(t, "rtapmon", info.Name)

	var adv foxglove.AdvertiseMsg
	readJSON(t, conn, &adv)
	require.Len(t, adv.Channels, 1)
	channel := adv.Channels[0]
	assert.Equal(t, "radiotap/frame", channel.Topic)

	require.NoError(t, conn.WriteJSON(foxglove.SubscribeMsg{
		Op:            foxglove.OpSubscribe,
		Subscriptions: []foxglove.Subscription{{ID: 42, ChannelID: channel.ID}},
	}))

	dec := protocol.NewDecoder(nil)
	capture := dec.Decode("sniffer-1", time.Unix(100, 0), flagsRateFrame)

	// The subscribe is applied asynchronously; publish until a frame lands.
	frames := make(chan []byte, 1)
	go func() {
		for {
			_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				close(frames)
				return
			}
			if msgType == websocket.BinaryMessage {
				frames <- data
				return
			}
		}
	}()

	var data []byte
	deadline := time.After(3 * time.Second)
publish:
	for {
		hub.Publish(ctx, capture)
		select {
		case data = <-frames:
			break publish
		case <-deadline:
			t.Fatal("no message data received")
		case <-time.After(25 * time.Millisecond):
		}
	}
	require.NotNil(t, data)

	subID, logTime, payload, err := foxglove.DecodeMessageData(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), subID)
	assert.Equal(t, uint64(time.Unix(100, 0).UnixNano()), logTime)

	var rec protocol.Record
	require.NoError(t, json.Unmarshal(payload, &rec))
	assert.Equal(t, "sniffer-1", rec.Source)
	require.Len(t, rec.Fields, 2)
	assert.Equal(t, "rate", rec.Fields[1].Name)
	assert.Equal(t, "0c", rec.Fields[1].Hex)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(6 * time.Second):
		t.Fatal("server did not stop")
	}
}
