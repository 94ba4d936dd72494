// Package redis republishes store snapshots on a Redis Pub/Sub channel so
// processes outside the screener can follow the simulated feed. Nothing is
// stored: there is no SET, no stream and no TTL.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"dexscan/internal/model"
)

// DefaultChannel is the Pub/Sub channel snapshots are published on.
const DefaultChannel = "pub:tokens:tick"

// Config configures the Redis connection.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
	Channel  string
}

// Publisher sends every snapshot it is given to one Pub/Sub channel.
type Publisher struct {
	client  *goredis.Client
	channel string

	// OnPublish is called after every PUBLISH with its latency and error (for metrics).
	OnPublish func(d time.Duration, err error)
}

// Dial connects to Redis and pings the server.
func Dial(cfg Config) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return client, nil
}

// NewPublisher publishes on channel through client. An empty channel
// selects DefaultChannel.
func NewPublisher(client *goredis.Client, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{client: client, channel: channel}
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// Channel returns the Pub/Sub channel name.
func (p *Publisher) Channel() string { return p.channel }

// Publish sends snap as JSON.
func (p *Publisher) Publish(ctx context.Context, snap model.Snapshot) error {
	start := time.Now()
	err := p.client.Publish(ctx, p.channel, snap.JSON()).Err()
	if p.OnPublish != nil {
		p.OnPublish(time.Since(start), err)
	}
	if err != nil {
		return fmt.Errorf("redis publish seq=%d: %w", snap.Seq, err)
	}
	return nil
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
