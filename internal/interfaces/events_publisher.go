package interfaces

import "context"

//go:generate mockgen -destination=mocks/mock_events_publisher.go -package=mocks -source=events_publisher.go EventPublisher
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event any) error
}
