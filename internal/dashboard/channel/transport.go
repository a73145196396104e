package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"golang-news-dashboard/internal/dashboard/dto"

	"github.com/redis/go-redis/v9"
)

// FrameKind classifies what a Stream produced.
type FrameKind int

const (
	FrameEvent FrameKind = iota
	FrameConnected
	FrameDisconnected
	FrameMalformed
)

// Frame is one item read from a Stream.
type Frame struct {
	Kind  FrameKind
	Event Event
	Err   error
}

// Transport opens push-channel streams.
type Transport interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream yields frames until closed. Transient connection failures are
// reported as FrameDisconnected frames; Next returns an error only when the
// stream cannot continue. Close may be called concurrently with Next.
type Stream interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// DecodeEnvelope turns a raw push payload into an Event.
func DecodeEnvelope(payload []byte, receivedAt time.Time) (Event, error) {
	var env dto.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Event{}, fmt.Errorf("invalid envelope: %w", err)
	}
	if env.Event == "" {
		return Event{}, errors.New("envelope without event name")
	}
	ev := Event{Name: env.Event, Data: env.Data, ReceivedAt: receivedAt}
	if env.Timestamp != nil {
		ev.Timestamp = *env.Timestamp
	}
	return ev, nil
}

// RedisTransport subscribes to a redis pub/sub channel carrying JSON
// envelopes. go-redis reconnects and resubscribes by itself.
type RedisTransport struct {
	client         *redis.Client
	channel        string
	healthInterval time.Duration
}

// NewRedisTransport creates a transport on the given redis channel.
func NewRedisTransport(client *redis.Client, channel string, healthInterval time.Duration) *RedisTransport {
	if healthInterval <= 0 {
		healthInterval = 30 * time.Second
	}
	return &RedisTransport{client: client, channel: channel, healthInterval: healthInterval}
}

// Open subscribes and waits for the subscription confirmation.
func (t *RedisTransport) Open(ctx context.Context) (Stream, error) {
	ps := t.client.Subscribe(ctx, t.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", t.channel, err)
	}
	return &redisStream{pubsub: ps, healthInterval: t.healthInterval, pendingConnected: true}, nil
}

type redisStream struct {
	pubsub           *redis.PubSub
	healthInterval   time.Duration
	pendingConnected bool
}

func (s *redisStream) Next(ctx context.Context) (Frame, error) {
	if s.pendingConnected {
		s.pendingConnected = false
		return Frame{Kind: FrameConnected}, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}

		msg, err := s.pubsub.ReceiveTimeout(ctx, s.healthInterval)
		if err != nil {
			if ctx.Err() != nil {
				return Frame{}, ctx.Err()
			}
			if errors.Is(err, redis.ErrClosed) {
				return Frame{}, ErrClosed
			}
			if isTimeout(err) {
				if perr := s.pubsub.Ping(ctx); perr == nil {
					continue
				} else {
					err = perr
				}
			}
			return Frame{Kind: FrameDisconnected, Err: err}, nil
		}

		switch m := msg.(type) {
		case *redis.Subscription:
			if m.Kind == "subscribe" {
				return Frame{Kind: FrameConnected}, nil
			}
		case *redis.Message:
			ev, err := DecodeEnvelope([]byte(m.Payload), time.Now())
			if err != nil {
				return Frame{Kind: FrameMalformed, Err: err}, nil
			}
			return Frame{Kind: FrameEvent, Event: ev}, nil
		case *redis.Pong:
		}
	}
}

func (s *redisStream) Close() error {
	return s.pubsub.Close()
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
