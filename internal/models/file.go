package models

import "time"

// FileMeta describes an attachment uploaded into a conversation. The
// binary payload lives in the blob store under the file id; only the
// metadata needed for membership checks is kept relationally.
type FileMeta struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	FileName       string    `db:"file_name" json:"file_name"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ImageMeta describes an avatar, keyed by the owning user id or group
// conversation id. At most one exists per owner; re-uploads overwrite.
type ImageMeta struct {
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	FileName  string    `db:"file_name" json:"file_name"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
