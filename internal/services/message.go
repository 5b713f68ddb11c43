package services

import (
	"context"

	"github.com/messagely/apiserver/types"
)

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, from, to, body string) (types.Message, error)
	Get(ctx context.Context, id int64) (types.Message, error)
	MarkRead(ctx context.Context, id int64) (types.ReadReceipt, error)
	MessagesFrom(ctx context.Context, username string) ([]types.Message, error)
	MessagesTo(ctx context.Context, username string) ([]types.Message, error)
}

// MessageEvents receives delivery events for downstream consumers. Publishing
// is best-effort; implementations must not fail the originating request.
type MessageEvents interface {
	MessageCreated(ctx context.Context, msg types.Message)
	MessageRead(ctx context.Context, receipt types.ReadReceipt)
}

// MessageService encapsulates message use-cases and enforces the visibility
// policy on every caller-facing operation.
type MessageService struct {
	repo   MessageRepository
	events MessageEvents
}

// NewMessageService constructs a MessageService. events may be nil when no
// broker is configured.
func NewMessageService(repo MessageRepository, events MessageEvents) *MessageService {
	return &MessageService{repo: repo, events: events}
}

// Send creates a message from the caller to the named recipient.
func (s *MessageService) Send(ctx context.Context, from, to, body string) (types.Message, error) {
	msg, err := s.repo.Create(ctx, from, to, body)
	if err != nil {
		return types.Message{}, err
	}
	if s.events != nil {
		s.events.MessageCreated(ctx, msg)
	}
	return msg, nil
}

// Get returns the message detail if the caller is its sender or recipient.
func (s *MessageService) Get(ctx context.Context, caller string, id int64) (types.Message, error) {
	msg, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Message{}, err
	}
	if !CanRead(caller, msg) {
		return types.Message{}, ErrForbidden
	}
	return msg, nil
}

// MarkRead sets the message's read timestamp if the caller is its recipient.
// The first read timestamp is preserved on repeated calls.
func (s *MessageService) MarkRead(ctx context.Context, caller string, id int64) (types.ReadReceipt, error) {
	msg, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.ReadReceipt{}, err
	}
	if !CanMarkRead(caller, msg) {
		return types.ReadReceipt{}, ErrForbidden
	}

	receipt, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return types.ReadReceipt{}, err
	}
	if s.events != nil && msg.ReadAt == nil {
		s.events.MessageRead(ctx, receipt)
	}
	return receipt, nil
}

// MessagesFrom returns all messages the user has sent.
func (s *MessageService) MessagesFrom(ctx context.Context, username string) ([]types.Message, error) {
	return s.repo.MessagesFrom(ctx, username)
}

// MessagesTo returns all messages the user has received.
func (s *MessageService) MessagesTo(ctx context.Context, username string) ([]types.Message, error) {
	return s.repo.MessagesTo(ctx, username)
}
