package service

import (
	"context"

	"care-relay-be/internal/pkg/logger"
	"care-relay-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IPublisherService puts relay events on the in-process bus. Publishing is
// best effort and never reports failure to the caller.
type IPublisherService interface {
	Publish(ctx context.Context, event events.Event)
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
	logger    logger.ILogger
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel, log logger.ILogger) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
		logger:    log,
	}
}

func (ps *publisherService) Publish(ctx context.Context, event events.Event) {
	payload, err := events.Marshal(event)
	if err != nil {
		ps.logger.Error("PublisherService", "Failed to marshal event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := ps.pubSub.Publish(ps.topicName, msg); err != nil {
		ps.logger.Warn("PublisherService", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, events.Event) {}
