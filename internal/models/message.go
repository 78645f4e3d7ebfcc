package models

import "time"

// Message is a single entry in a conversation. SenderID is nil for
// system messages generated by the service itself (group created,
// renamed, membership changed).
type Message struct {
	ID                string     `db:"id" json:"id"`
	ConversationID    string     `db:"conversation_id" json:"conversation_id"`
	SenderID          *string    `db:"sender_id" json:"sender_id,omitempty"`
	Content           string     `db:"content" json:"content"`
	IsReferenceToFile bool       `db:"is_file_ref" json:"is_reference_to_file"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	EditedAt          *time.Time `db:"edited_at" json:"edited_at,omitempty"`
}

// SentBy reports whether the message was authored by the given user.
// System messages have no author and match nobody.
func (m Message) SentBy(userID string) bool {
	return m.SenderID != nil && *m.SenderID == userID
}
