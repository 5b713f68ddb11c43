// Package notify publishes delivery events for downstream consumers such as
// push-notification workers. Publishing is best-effort: a broker failure is
// logged and never propagated to the originating request.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/messagely/apiserver/types"
	"go.uber.org/zap"
)

const (
	// ChannelMessageCreated carries events for newly sent messages.
	ChannelMessageCreated = "message.created"

	// ChannelMessageRead carries events for first-time read receipts.
	ChannelMessageRead = "message.read"
)

// Broker is the subset of the event bus the publisher needs.
type Broker interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// MessageCreatedEvent is the payload published when a message is sent.
type MessageCreatedEvent struct {
	ID           int64     `json:"id"`
	FromUsername string    `json:"from_username"`
	ToUsername   string    `json:"to_username"`
	SentAt       time.Time `json:"sent_at"`
}

// MessageReadEvent is the payload published when a message is first read.
type MessageReadEvent struct {
	ID     int64     `json:"id"`
	ReadAt time.Time `json:"read_at"`
}

// Publisher emits delivery events onto the broker.
type Publisher struct {
	broker Broker
	logger *zap.SugaredLogger
}

// NewPublisher constructs a Publisher over the given broker.
func NewPublisher(broker Broker, logger *zap.SugaredLogger) *Publisher {
	return &Publisher{broker: broker, logger: logger}
}

// MessageCreated publishes a message.created event.
func (p *Publisher) MessageCreated(ctx context.Context, msg types.Message) {
	p.publish(ctx, ChannelMessageCreated, MessageCreatedEvent{
		ID:           msg.ID,
		FromUsername: msg.FromUser.Username,
		ToUsername:   msg.ToUser.Username,
		SentAt:       msg.SentAt,
	}, map[string]string{"to_username": msg.ToUser.Username})
}

// MessageRead publishes a message.read event.
func (p *Publisher) MessageRead(ctx context.Context, receipt types.ReadReceipt) {
	p.publish(ctx, ChannelMessageRead, MessageReadEvent{
		ID:     receipt.ID,
		ReadAt: receipt.ReadAt,
	}, nil)
}

func (p *Publisher) publish(ctx context.Context, channel string, payload any, attrs map[string]string) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Errorw("failed to encode event", "channel", channel, "error", err)
		return
	}
	if _, err := p.broker.Publish(ctx, channel, data, attrs); err != nil {
		p.logger.Errorw("failed to publish event", "channel", channel, "error", err)
	}
}
