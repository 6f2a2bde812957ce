package protocol

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannel is the pub/sub channel used when none is configured.
const DefaultRedisChannel = "revgraph:intents"

// redisPublishTimeout bounds a single publish so a slow server cannot stall
// the event loop.
const redisPublishTimeout = 250 * time.Millisecond

// RedisSink mirrors emitted lines to a Redis pub/sub channel. Each payload is
// prefixed with the viewer session id so subscribers can tell viewers apart:
//
//	<session> run:single:default:r1,r2
type RedisSink struct {
	client  *redis.Client
	channel string
	session string
}

// NewRedisSink creates a sink publishing to channel on the server at addr.
// The connection is established lazily on the first publish.
func NewRedisSink(addr, channel, session string) *RedisSink {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisSink{
		client:  redis.NewClient(&redis.Options{Addr: addr}),
		channel: channel,
		session: session,
	}
}

// Channel returns the channel the sink publishes to.
func (s *RedisSink) Channel() string { return s.channel }

// Payload returns the published form of line.
func (s *RedisSink) Payload(line string) string {
	if s.session == "" {
		return line
	}
	return s.session + " " + line
}

// Publish sends line to the channel.
func (s *RedisSink) Publish(ctx context.Context, line string) error {
	ctx, cancel := context.WithTimeout(ctx, redisPublishTimeout)
	defer cancel()
	return s.client.Publish(ctx, s.channel, s.Payload(line)).Err()
}

// Close releases the client connection pool.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
