package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sheikh-saqib/wallet-ledger-service/internal/config"
	kafkaevents "github.com/sheikh-saqib/wallet-ledger-service/internal/events/kafka"
	redisevents "github.com/sheikh-saqib/wallet-ledger-service/internal/events/redis"
	interfaces "github.com/sheikh-saqib/wallet-ledger-service/internal/interfaces"
)

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, topic string, event any) error { return nil }

func (NoopPublisher) Close() error { return nil }

// Publisher is an EventPublisher that owns a connection.
type Publisher interface {
	interfaces.EventPublisher
	Close() error
}

// NewPublisher selects the event backend named by cfg.EventsDriver.
func NewPublisher(cfg config.Config) (Publisher, error) {
	switch cfg.EventsDriver {
	case config.EventsNone, "":
		return NoopPublisher{}, nil
	case config.EventsKafka:
		return kafkaevents.NewPublisher(cfg.KafkaBrokers), nil
	case config.EventsRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		return redisevents.NewPublisher(rdb), nil
	default:
		return nil, fmt.Errorf("unsupported events driver %q", cfg.EventsDriver)
	}
}

var (
	_ Publisher = NoopPublisher{}
	_ Publisher = (*kafkaevents.Publisher)(nil)
	_ Publisher = (*redisevents.Publisher)(nil)
)
