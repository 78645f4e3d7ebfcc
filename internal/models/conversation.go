package models

import "time"

// Conversation is the container for an ordered message history and a
// recipient set. A non-group conversation belongs to exactly one Friend
// record and always has two recipients; a group conversation stands on
// its own and keeps at least two recipients while it exists.
type Conversation struct {
	ID        string    `db:"id" json:"id"`
	Title     *string   `db:"title" json:"title,omitempty"`
	IsGroup   bool      `db:"is_group" json:"is_group"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Recipient is a user's membership record inside a conversation,
// including the read-receipt marker.
type Recipient struct {
	ID                string  `db:"id" json:"id"`
	ConversationID    string  `db:"conversation_id" json:"conversation_id"`
	UserID            string  `db:"user_id" json:"user_id"`
	LastSeenMessageID *string `db:"last_seen_message_id" json:"last_seen_message_id,omitempty"`
}
