package live

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "etech:changes:"

// RedisFeed fans change signals out to every server instance through Redis
// pub/sub. Local subscribers are served by the embedded Hub once the message
// comes back from Redis.
type RedisFeed struct {
	*Hub
	client *redis.Client
	log    *zap.Logger
}

func NewRedisFeed(client *redis.Client, log *zap.Logger) *RedisFeed {
	return &RedisFeed{Hub: NewHub(), client: client, log: log}
}

func (f *RedisFeed) Notify(ctx context.Context, c Collection) {
	if err := f.client.Publish(ctx, channelPrefix+string(c), "changed").Err(); err != nil {
		f.log.Warn("change publish failed, notifying locally", zap.String("collection", string(c)), zap.Error(err))
		f.Hub.Notify(ctx, c)
	}
}

// Run relays Redis messages to local subscribers until ctx is done.
func (f *RedisFeed) Run(ctx context.Context) error {
	ps := f.client.PSubscribe(ctx, channelPrefix+"*")
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return err
	}
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			f.Hub.Notify(ctx, Collection(strings.TrimPrefix(msg.Channel, channelPrefix)))
		}
	}
}
