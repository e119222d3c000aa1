package service

import (
	"context"
	"time"

	"care-relay-be/internal/pkg/logger"
	"care-relay-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const sinkPublishTimeout = 5 * time.Second

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the relay topic into the audit log and, when one is
// configured, an external sink.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	audit     logger.ILogger
	sink      events.Sink
}

func NewConsumerService(pubSub *gochannel.GoChannel, topicName string, audit logger.ILogger, sink events.Sink) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		audit:     audit,
		sink:      sink,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	// Events are best effort; never redeliver.
	defer msg.Ack()

	evt, err := events.Unmarshal(msg.Payload)
	if err != nil {
		cs.audit.Error("RelayAudit", "Failed to unmarshal event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	details := make(map[string]interface{}, len(evt.Data)+2)
	for k, v := range evt.Data {
		details[k] = v
	}
	details["event_id"] = evt.ID
	details["occurred_at"] = evt.OccurredAt
	cs.audit.Info("RelayAudit", evt.Type, details)

	if cs.sink == nil {
		return
	}
	sinkCtx, cancel := context.WithTimeout(ctx, sinkPublishTimeout)
	defer cancel()
	if err := cs.sink.Publish(sinkCtx, evt); err != nil {
		cs.audit.Warn("RelayAudit", "Failed to forward event to sink", map[string]interface{}{
			"event_id": evt.ID,
			"type":     evt.Type,
			"error":    err.Error(),
		})
	}
}
