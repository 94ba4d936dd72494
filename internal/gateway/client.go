package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dexscan/internal/logger"
	"dexscan/internal/model"
	"dexscan/internal/session"
)

// Client represents a single WebSocket viewer and its session.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	hub     *Hub
	session *session.Coordinator
	ctx     context.Context

	// viewMu serializes view derivation so seq order matches send order.
	viewMu sync.Mutex
	seq    int64
}

// Session returns the viewer's coordinator.
func (c *Client) Session() *session.Coordinator { return c.session }

// trySend queues msg unless the client is gone or its buffer is full.
// Sends happen under the hub read lock so RemoveClient cannot close send
// concurrently.
func (c *Client) trySend(msg []byte) bool {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.clients[c] {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		if c.hub.Hooks.OnDrop != nil {
			c.hub.Hooks.OnDrop()
		}
		return false
	}
}

// pushView derives the session's current view and queues it.
func (c *Client) pushView() {
	c.viewMu.Lock()
	defer c.viewMu.Unlock()

	payload := BuildView(c.session, c.hub.Hooks.OnDerive)
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("view marshal failed", append(logger.LogWithSession(c.ctx), slog.Any("err", err))...)
		return
	}
	c.seq++
	c.trySend(buildEnvelope("view", c.seq, c.session.Seq(), time.Now().UTC(), data))
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c)
		c.conn.Close()
		log.Printf("[gateway] ws client disconnected session=%s", logger.SessionID(c.ctx))
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg IntentMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("", "invalid message: "+err.Error())
			continue
		}

		if msg.Type == "" && msg.Ping > 0 {
			pong, _ := json.Marshal(map[string]interface{}{
				"type":      "pong",
				"ping":      msg.Ping,
				"server_ts": time.Now().UnixMilli(),
			})
			c.trySend(pong)
			continue
		}

		if err := c.applyIntent(msg); err != nil {
			slog.Debug("intent rejected", append(logger.LogWithSession(c.ctx),
				slog.String("type", msg.Type), slog.String("err", err.Error()))...)
			c.sendError(msg.ReqID, err.Error())
			continue
		}
		if c.hub.Hooks.OnIntent != nil {
			c.hub.Hooks.OnIntent(msg.Type)
		}
		c.pushView()
	}
}

// applyIntent maps one client message onto the session.
func (c *Client) applyIntent(msg IntentMsg) error {
	s := c.session
	switch strings.ToUpper(msg.Type) {
	case MsgSetSearch:
		s.SetSearch(msg.Value)
		return nil
	case MsgSetChain:
		return s.SetChain(model.Chain(msg.Value))
	case MsgSetSort:
		f, err := model.ParseSortField(msg.Value)
		if err != nil {
			return err
		}
		return s.SetSort(f)
	case MsgSetOrder:
		o, err := model.ParseSortOrder(msg.Value)
		if err != nil {
			return err
		}
		return s.SetOrder(o)
	case MsgSelect:
		return s.SelectToken(msg.Value)
	case MsgClearSelection:
		s.ClearSelection()
		return nil
	case MsgSetTimeframe:
		return s.SetTimeframe(model.Timeframe(msg.Value))
	}
	return fmt.Errorf("unknown message type %q", msg.Type)
}

func (c *Client) sendError(reqID, errMsg string) {
	data, err := json.Marshal(ErrorResponse{Type: "ERROR", ReqID: reqID, Error: errMsg})
	if err != nil {
		return
	}
	c.trySend(data)
}
