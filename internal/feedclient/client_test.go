package feedclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dexscan/internal/gateway"
	"dexscan/internal/market"
	"dexscan/internal/model"
	"dexscan/internal/rng"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func nextView(t *testing.T, ch <-chan Message, match func(gateway.ViewPayload) bool) gateway.ViewPayload {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case msg := <-ch:
			if msg.Type != "view" {
				continue
			}
			v, err := msg.View()
			require.NoError(t, err)
			if match(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for view")
		}
	}
}

func TestClient_StreamsViewsAndSendsIntents(t *testing.T) {
	store := market.NewStore(market.DefaultCatalog(), rng.New(2024))
	hub := gateway.NewHub(store.Snapshot(), rng.New(1), 0)
	srv := httptest.NewServer(gateway.NewRouter(hub, time.Now()))
	defer srv.Close()

	c, err := New(Config{
		URL:     wsURL(srv),
		Intents: []gateway.IntentMsg{{Type: gateway.MsgSetChain, Value: "SOL"}},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Message, 16)
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, out) }()

	view := nextView(t, out, func(v gateway.ViewPayload) bool { return v.Intent.Chain == model.ChainSOL })
	assert.Len(t, view.Rows, 4)

	require.NoError(t, c.Send(gateway.IntentMsg{Type: gateway.MsgSetSearch, Value: "zzzz"}))
	view = nextView(t, out, func(v gateway.ViewPayload) bool { return v.Intent.Search == "zzzz" })
	assert.Empty(t, view.Rows)

	hub.Broadcaster.Broadcast(store.Tick())
	nextView(t, out, func(gateway.ViewPayload) bool { return true })
	assert.EqualValues(t, 1, c.LastTick())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestClient_SendWhileDisconnected(t *testing.T) {
	c, err := New(Config{URL: "ws://127.0.0.1:1/ws"})
	require.NoError(t, err)
	err = c.Send(gateway.IntentMsg{Type: gateway.MsgClearSelection})
	assert.True(t, errors.Is(err, ErrNotConnected))
}

func TestClient_ReconnectResumesFromLastTick(t *testing.T) {
	var conns int32
	resumed := make(chan string, 1)
	replayed := make(chan string, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var intent gateway.IntentMsg
		if err := conn.ReadJSON(&intent); err != nil {
			return
		}
		if atomic.AddInt32(&conns, 1) == 1 {
			// First connection: one tick, then drop.
			conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"tick","seq":5,"tick":5,"ts":"","data":{}}`))
			return
		}
		resumed <- r.URL.Query().Get("last_seq")
		replayed <- intent.Value
		conn.ReadMessage()
	}))
	defer srv.Close()

	c, err := New(Config{
		URL:            wsURL(srv),
		Intents:        []gateway.IntentMsg{{Type: gateway.MsgSetSearch, Value: "pepe"}},
		ReconnectDelay: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	var reconnects int32
	c.OnReconnect = func() { atomic.AddInt32(&reconnects, 1) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan Message, 4)
	go c.Start(ctx, out)

	select {
	case msg := <-out:
		assert.Equal(t, "tick", msg.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no tick received")
	}

	select {
	case last := <-resumed:
		assert.Equal(t, "5", last)
	case <-time.After(2 * time.Second):
		t.Fatal("client did not reconnect")
	}
	assert.Equal(t, "pepe", <-replayed)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&reconnects), int32(1))
}
