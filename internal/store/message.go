package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/messagely/apiserver/types"
)

// MessageRepository handles persistence for messages.
type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new message with sent_at assigned by the database and
// read_at null. The returned message carries only usernames in the user
// summaries; Get resolves the full profiles.
func (r *MessageRepository) Create(ctx context.Context, from, to, body string) (types.Message, error) {
	const query = `
		INSERT INTO messages (from_username, to_username, body, sent_at)
		VALUES ($1, $2, $3, current_timestamp)
		RETURNING id, sent_at`
	msg := types.Message{
		FromUser: types.UserSummary{Username: from},
		ToUser:   types.UserSummary{Username: to},
		Body:     body,
	}
	err := r.db.QueryRowContext(ctx, query, from, to, body).Scan(&msg.ID, &msg.SentAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return types.Message{}, ErrNotFound
		}
		return types.Message{}, err
	}
	return msg, nil
}

// Get returns a message with both participant profiles resolved.
func (r *MessageRepository) Get(ctx context.Context, id int64) (types.Message, error) {
	const query = `
		SELECT m.id, m.body, m.sent_at, m.read_at,
			f.username, f.first_name, f.last_name, f.phone,
			t.username, t.first_name, t.last_name, t.phone
		FROM messages m
		JOIN users f ON m.from_username = f.username
		JOIN users t ON m.to_username = t.username
		WHERE m.id = $1`
	var msg types.Message
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID,
		&msg.Body,
		&msg.SentAt,
		&msg.ReadAt,
		&msg.FromUser.Username,
		&msg.FromUser.FirstName,
		&msg.FromUser.LastName,
		&msg.FromUser.Phone,
		&msg.ToUser.Username,
		&msg.ToUser.FirstName,
		&msg.ToUser.LastName,
		&msg.ToUser.Phone,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Message{}, ErrNotFound
		}
		return types.Message{}, err
	}
	return msg, nil
}

// MarkRead sets read_at to the current time if the message is still unread.
// Repeated calls keep the first-read timestamp.
func (r *MessageRepository) MarkRead(ctx context.Context, id int64) (types.ReadReceipt, error) {
	const update = `
		UPDATE messages
		SET read_at = current_timestamp
		WHERE id = $1 AND read_at IS NULL
		RETURNING id, read_at`
	var receipt types.ReadReceipt
	err := r.db.QueryRowContext(ctx, update, id).Scan(&receipt.ID, &receipt.ReadAt)
	if err == nil {
		return receipt, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return types.ReadReceipt{}, err
	}

	// Already read or absent.
	const query = `SELECT id, read_at FROM messages WHERE id = $1 AND read_at IS NOT NULL`
	err = r.db.QueryRowContext(ctx, query, id).Scan(&receipt.ID, &receipt.ReadAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.ReadReceipt{}, ErrNotFound
		}
		return types.ReadReceipt{}, err
	}
	return receipt, nil
}

// MessagesFrom returns all messages sent by the user, recipient profile
// resolved, ordered by sent_at then id.
func (r *MessageRepository) MessagesFrom(ctx context.Context, username string) ([]types.Message, error) {
	const query = `
		SELECT m.id, m.body, m.sent_at, m.read_at,
			u.username, u.first_name, u.last_name, u.phone
		FROM messages m
		JOIN users u ON m.to_username = u.username
		WHERE m.from_username = $1
		ORDER BY m.sent_at, m.id`
	return r.queryMessages(ctx, query, username, func(msg *types.Message) *types.UserSummary {
		msg.FromUser.Username = username
		return &msg.ToUser
	})
}

// MessagesTo returns all messages received by the user, sender profile
// resolved, ordered by sent_at then id.
func (r *MessageRepository) MessagesTo(ctx context.Context, username string) ([]types.Message, error) {
	const query = `
		SELECT m.id, m.body, m.sent_at, m.read_at,
			u.username, u.first_name, u.last_name, u.phone
		FROM messages m
		JOIN users u ON m.from_username = u.username
		WHERE m.to_username = $1
		ORDER BY m.sent_at, m.id`
	return r.queryMessages(ctx, query, username, func(msg *types.Message) *types.UserSummary {
		msg.ToUser.Username = username
		return &msg.FromUser
	})
}

func (r *MessageRepository) queryMessages(
	ctx context.Context,
	query, username string,
	counterpart func(*types.Message) *types.UserSummary,
) ([]types.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]types.Message, 0)
	for rows.Next() {
		var msg types.Message
		other := counterpart(&msg)
		if err := rows.Scan(
			&msg.ID,
			&msg.Body,
			&msg.SentAt,
			&msg.ReadAt,
			&other.Username,
			&other.FirstName,
			&other.LastName,
			&other.Phone,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
