package types

import "time"

// Message represents a direct message between two users.
type Message struct {
	// ID is the unique identifier of the message, assigned at creation.
	ID int64 `json:"id" db:"id"`

	// FromUser is the profile summary of the sender.
	FromUser UserSummary `json:"from_user"`

	// ToUser is the profile summary of the recipient.
	ToUser UserSummary `json:"to_user"`

	// Body is the message text.
	Body string `json:"body" db:"body"`

	// SentAt is the timestamp at which the message was sent. Immutable.
	SentAt time.Time `json:"sent_at" db:"sent_at"`

	// ReadAt is nil until the recipient marks the message as read.
	// Once set it never changes again.
	ReadAt *time.Time `json:"read_at" db:"read_at"`
}

// ReadReceipt is the result of marking a message as read.
type ReadReceipt struct {
	ID     int64     `json:"id" db:"id"`
	ReadAt time.Time `json:"read_at" db:"read_at"`
}
