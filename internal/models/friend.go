package models

import "time"

// Friend links two users symmetrically. The pair is stored in canonical
// order (Person1ID < Person2ID) so a pair can exist at most once.
type Friend struct {
	ID             string `db:"id" json:"id"`
	Person1ID      string `db:"person1_id" json:"person1_id"`
	Person2ID      string `db:"person2_id" json:"person2_id"`
	ConversationID string `db:"conversation_id" json:"conversation_id"`
}

// OtherOf returns the other party of the pair.
func (f Friend) OtherOf(userID string) string {
	if f.Person1ID == userID {
		return f.Person2ID
	}
	return f.Person1ID
}

// FriendRequest is a pending one-directional proposal to become friends.
// It is deleted on accept or decline, never updated in place.
type FriendRequest struct {
	ID          string    `db:"id" json:"id"`
	SenderID    string    `db:"sender_id" json:"sender_id"`
	RecipientID string    `db:"recipient_id" json:"recipient_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
