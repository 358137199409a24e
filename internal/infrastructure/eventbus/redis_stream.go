package eventbus

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/esports-fantasy/internal/usecase"
)

const (
	DefaultStream = "esports.matches.ingested"
	defaultMaxLen = 10000
)

type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamPublisher appends match-ingested events to a capped Redis stream.
type RedisStreamPublisher struct {
	client streamAdder
	stream string
	maxLen int64
}

var _ usecase.EventPublisher = (*RedisStreamPublisher)(nil)

func NewRedisStreamPublisher(client streamAdder, stream string) *RedisStreamPublisher {
	stream = strings.TrimSpace(stream)
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStreamPublisher{
		client: client,
		stream: stream,
		maxLen: defaultMaxLen,
	}
}

func (p *RedisStreamPublisher) PublishMatchIngested(ctx context.Context, event usecase.MatchIngestedEvent) error {
	data, err := sonic.MarshalString(event)
	if err != nil {
		return fmt.Errorf("marshal match ingested event: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"type":        "match.ingested",
			"external_id": event.ExternalID,
			"match_id":    strconv.FormatInt(event.MatchID, 10),
			"data":        data,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd stream=%s external_id=%s: %w", p.stream, event.ExternalID, err)
	}
	return nil
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}
