// Package feedclient is a WebSocket consumer of the screener gateway. It
// decodes envelopes into a channel, forwards intents, and reconnects with
// exponential backoff, replaying its intents and asking for missed ticks on
// every new connection.
//
// Wire format of inbound messages:
//
//	{"type":"view","seq":3,"tick":41,"ts":"...","data":{...}}
//	{"type":"ERROR","reqId":"1","error":"..."}
package feedclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dexscan/internal/gateway"
)

// ErrNotConnected is returned by Send while no connection is up.
var ErrNotConnected = errors.New("feedclient: not connected")

// Config holds configuration for the feed client.
type Config struct {
	// URL of the gateway WebSocket, e.g. "ws://localhost:8080/ws".
	URL string

	// Intents are sent, in order, right after every (re)connect.
	Intents []gateway.IntentMsg

	// ReconnectDelay is the initial delay before reconnection attempts.
	// Defaults to 2 seconds if zero.
	ReconnectDelay time.Duration

	// MaxReconnectDelay caps the exponential backoff. Defaults to 30s.
	MaxReconnectDelay time.Duration
}

func (c *Config) defaults() {
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = 2 * time.Second
	}
	if c.MaxReconnectDelay == 0 {
		c.MaxReconnectDelay = 30 * time.Second
	}
}

// Message is one decoded server message.
type Message struct {
	Type  string          `json:"type"`
	Seq   int64           `json:"seq"`
	Tick  int64           `json:"tick"`
	TS    string          `json:"ts"`
	Data  json.RawMessage `json:"data"`
	ReqID string          `json:"reqId,omitempty"`
	Error string          `json:"error,omitempty"`
}

// View decodes the data of a "view" message.
func (m Message) View() (gateway.ViewPayload, error) {
	var v gateway.ViewPayload
	if m.Type != "view" {
		return v, fmt.Errorf("feedclient: %q message has no view", m.Type)
	}
	err := json.Unmarshal(m.Data, &v)
	return v, err
}

// Client streams gateway messages. Send may be called from any goroutine.
type Client struct {
	cfg Config

	mu       sync.Mutex
	conn     *websocket.Conn
	lastTick int64

	// Optional hook, called each time a reconnection happens.
	OnReconnect func()
}

// New creates a Client. Returns an error if the URL is unparseable.
func New(cfg Config) (*Client, error) {
	cfg.defaults()
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, err
	}
	return &Client{cfg: cfg}, nil
}

// LastTick returns the newest store seq seen on any message.
func (c *Client) LastTick() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTick
}

// Send writes one intent on the current connection.
func (c *Client) Send(msg gateway.IntentMsg) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(msg)
}

// Start connects and streams messages into out. Blocks until ctx is
// cancelled. Reconnects automatically on disconnect.
func (c *Client) Start(ctx context.Context, out chan<- Message) error {
	delay := c.cfg.ReconnectDelay

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		connected, err := c.runOnce(ctx, out)
		if err == nil {
			return nil
		}
		if connected {
			delay = c.cfg.ReconnectDelay
		}

		log.Printf("[feedclient] disconnected (%v), reconnecting in %s...", err, delay)
		if c.OnReconnect != nil {
			c.OnReconnect()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		delay *= 2
		if delay > c.cfg.MaxReconnectDelay {
			delay = c.cfg.MaxReconnectDelay
		}
	}
}

// dialURL appends last_seq so the gateway replays ticks missed while away.
func (c *Client) dialURL() string {
	last := c.LastTick()
	if last <= 0 {
		return c.cfg.URL
	}
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return c.cfg.URL
	}
	q := u.Query()
	q.Set("last_seq", strconv.FormatInt(last, 10))
	u.RawQuery = q.Encode()
	return u.String()
}

// runOnce makes a single connection attempt and reads until disconnect or
// ctx cancel. connected reports whether the dial succeeded.
func (c *Client) runOnce(ctx context.Context, out chan<- Message) (connected bool, err error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.dialURL(), nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	log.Printf("[feedclient] connected to %s", c.cfg.URL)

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}()

	for _, intent := range c.cfg.Intents {
		if err := c.Send(intent); err != nil {
			return true, fmt.Errorf("replay intent %s: %w", intent.Type, err)
		}
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"))
			c.mu.Unlock()
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				return true, nil
			default:
			}
			return true, err
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("[feedclient] parse error: %v (raw: %.120s)", err, raw)
			continue
		}
		if msg.Type == "" {
			continue
		}

		c.mu.Lock()
		if msg.Tick > c.lastTick {
			c.lastTick = msg.Tick
		}
		c.mu.Unlock()

		select {
		case out <- msg:
		case <-ctx.Done():
			return true, nil
		}
	}
}
