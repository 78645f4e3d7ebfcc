package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository owns message rows. Deletion is hard: a removed
// message leaves no tombstone.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg models.Message) (models.Message, error)
	GetMessage(ctx context.Context, messageID string) (models.Message, error)
	UpdateContent(ctx context.Context, messageID, content string, editedAt time.Time) error
	DeleteMessage(ctx context.Context, messageID string) error
	// ListPage returns up to limit messages, newest first, after
	// skipping the `skip` most recent ones.
	ListPage(ctx context.Context, conversationID string, skip, limit int) ([]models.Message, error)
	CountMessages(ctx context.Context, conversationID string) (int, error)
	LastMessage(ctx context.Context, conversationID string) (models.Message, error)
}

// MessageRepo is the sqlx-backed implementation.
type MessageRepo struct {
	db *sqlx.DB
}

func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, conversation_id, sender_id, content, is_file_ref, created_at, edited_at`

func (r *MessageRepo) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	var created models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, content, is_file_ref, created_at)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING `+messageColumns,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.IsReferenceToFile, msg.CreatedAt).
		StructScan(&created)
	return created, err
}

func (r *MessageRepo) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

func (r *MessageRepo) UpdateContent(ctx context.Context, messageID, content string, editedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET content=$1, edited_at=$2 WHERE id=$3`, content, editedAt, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepo) DeleteMessage(ctx context.Context, messageID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepo) ListPage(ctx context.Context, conversationID string, skip, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE conversation_id=$1
         ORDER BY created_at DESC, id DESC
         OFFSET $2 LIMIT $3`, conversationID, skip, limit)
	return msgs, err
}

func (r *MessageRepo) CountMessages(ctx context.Context, conversationID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages WHERE conversation_id=$1`, conversationID)
	return count, err
}

func (r *MessageRepo) LastMessage(ctx context.Context, conversationID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages
         WHERE conversation_id=$1
         ORDER BY created_at DESC, id DESC
         LIMIT 1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}
