package redis

import (
	"context"
	"fmt"
	"time"

	"care-relay-be/pkg/events"

	goredis "github.com/redis/go-redis/v9"
)

// Publisher fans events out on a Redis pub/sub channel.
type Publisher struct {
	rdb     *goredis.Client
	channel string
}

var _ events.Sink = (*Publisher)(nil)

// NewPublisher accepts a redis:// URL or a bare host:port.
func NewPublisher(url, channel string) (*Publisher, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		opt = &goredis.Options{Addr: url}
	}
	rdb := goredis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Publisher{rdb: rdb, channel: channel}, nil
}

func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	data, err := events.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event to channel %s: %w", p.channel, err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.rdb != nil {
		_ = p.rdb.Close()
	}
}
