package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	goredis "github.com/go-redis/redis/v8"

	"dexscan/internal/model"
)

// Subscribe listens on channel and forwards decoded snapshots to out until
// ctx is cancelled. Messages that fail to decode are skipped; a full out
// drops the snapshot. The subscription is confirmed before Subscribe starts
// forwarding, so a nil error return means ctx ended.
func Subscribe(ctx context.Context, client *goredis.Client, channel string, out chan<- model.Snapshot) error {
	if channel == "" {
		channel = DefaultChannel
	}
	pubsub := client.Subscribe(ctx, channel)
	defer pubsub.Close()

	// Wait for confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", channel, err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var snap model.Snapshot
			if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
				log.Printf("[redis-sub] skipping undecodable message on %s: %v", msg.Channel, err)
				continue
			}
			select {
			case out <- snap:
			default:
			}
		}
	}
}
