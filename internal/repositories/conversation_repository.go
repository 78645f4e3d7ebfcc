package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrRecipientNotFound    = errors.New("recipient not found")
)

// ConversationRepository owns conversations and their recipient sets.
// Multi-row mutations (group creation, membership changes, cascades)
// run inside a single transaction so a conversation is never observable
// half-written.
type ConversationRepository interface {
	GetConversation(ctx context.Context, id string) (models.Conversation, error)
	ListRecipients(ctx context.Context, conversationID string) ([]models.Recipient, error)
	RecipientUserIDs(ctx context.Context, conversationID string) ([]string, error)
	GetRecipient(ctx context.Context, conversationID, userID string) (models.Recipient, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]models.Conversation, error)

	CreateGroup(ctx context.Context, title string, memberIDs []string, systemMessage models.Message) (models.Conversation, error)
	Rename(ctx context.Context, conversationID, title string) error
	AddRecipient(ctx context.Context, conversationID, userID string) (models.Recipient, error)
	// RemoveRecipient removes the membership row and, when that empties
	// the conversation, cascades the whole conversation away in the same
	// transaction. It reports the dissolution and the ids of any files
	// whose blobs should be reclaimed.
	RemoveRecipient(ctx context.Context, conversationID, userID string) (dissolved bool, fileIDs []string, err error)
	// DeleteConversation removes the conversation, its messages,
	// recipients, file metadata and any friend link in one transaction,
	// returning the orphaned file ids.
	DeleteConversation(ctx context.Context, conversationID string) (fileIDs []string, err error)

	SetLastSeen(ctx context.Context, recipientID, messageID string) error
}

// ConversationRepo is the sqlx-backed implementation.
type ConversationRepo struct {
	db *sqlx.DB
}

func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) GetConversation(ctx context.Context, id string) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT id, title, is_group, created_at FROM conversations WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

func (r *ConversationRepo) ListRecipients(ctx context.Context, conversationID string) ([]models.Recipient, error) {
	var list []models.Recipient
	err := r.db.SelectContext(ctx, &list,
		`SELECT id, conversation_id, user_id, last_seen_message_id FROM recipients WHERE conversation_id=$1 ORDER BY id`, conversationID)
	return list, err
}

func (r *ConversationRepo) RecipientUserIDs(ctx context.Context, conversationID string) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids,
		`SELECT user_id FROM recipients WHERE conversation_id=$1 ORDER BY id`, conversationID)
	return ids, err
}

func (r *ConversationRepo) GetRecipient(ctx context.Context, conversationID, userID string) (models.Recipient, error) {
	var rec models.Recipient
	err := r.db.GetContext(ctx, &rec,
		`SELECT id, conversation_id, user_id, last_seen_message_id FROM recipients WHERE conversation_id=$1 AND user_id=$2`,
		conversationID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Recipient{}, ErrRecipientNotFound
	}
	return rec, err
}

func (r *ConversationRepo) ListGroupsForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	var list []models.Conversation
	err := r.db.SelectContext(ctx, &list,
		`SELECT c.id, c.title, c.is_group, c.created_at FROM conversations c
         JOIN recipients r ON r.conversation_id = c.id
         WHERE r.user_id=$1 AND c.is_group = TRUE
         ORDER BY c.created_at DESC`, userID)
	return list, err
}

// CreateGroup persists the conversation, one recipient per member and
// the creation system message atomically.
func (r *ConversationRepo) CreateGroup(ctx context.Context, title string, memberIDs []string, systemMessage models.Message) (models.Conversation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer tx.Rollback()

	var conv models.Conversation
	if err := tx.QueryRowxContext(ctx,
		`INSERT INTO conversations (id, title, is_group) VALUES ($1, $2, TRUE)
         RETURNING id, title, is_group, created_at`,
		uuid.NewString(), title).StructScan(&conv); err != nil {
		return models.Conversation{}, err
	}

	for _, memberID := range memberIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipients (id, conversation_id, user_id) VALUES ($1, $2, $3)`,
			uuid.NewString(), conv.ID, memberID); err != nil {
			return models.Conversation{}, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, content, is_file_ref, created_at)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		systemMessage.ID, conv.ID, systemMessage.SenderID, systemMessage.Content,
		systemMessage.IsReferenceToFile, systemMessage.CreatedAt); err != nil {
		return models.Conversation{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

func (r *ConversationRepo) Rename(ctx context.Context, conversationID, title string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE conversations SET title=$1 WHERE id=$2`, title, conversationID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrConversationNotFound
	}
	return nil
}

func (r *ConversationRepo) AddRecipient(ctx context.Context, conversationID, userID string) (models.Recipient, error) {
	var rec models.Recipient
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO recipients (id, conversation_id, user_id) VALUES ($1, $2, $3)
         RETURNING id, conversation_id, user_id, last_seen_message_id`,
		uuid.NewString(), conversationID, userID).StructScan(&rec)
	return rec, err
}

func (r *ConversationRepo) RemoveRecipient(ctx context.Context, conversationID, userID string) (bool, []string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM recipients WHERE conversation_id=$1 AND user_id=$2`, conversationID, userID)
	if err != nil {
		return false, nil, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, nil, err
	}
	if count == 0 {
		return false, nil, ErrRecipientNotFound
	}

	var remaining int
	if err := tx.GetContext(ctx, &remaining,
		`SELECT COUNT(*) FROM recipients WHERE conversation_id=$1`, conversationID); err != nil {
		return false, nil, err
	}

	// A group with no recipients has no addressable fan-out target and
	// must not linger.
	if remaining > 0 {
		return false, nil, tx.Commit()
	}

	fileIDs, err := deleteConversationTx(ctx, tx, conversationID)
	if err != nil {
		return false, nil, err
	}
	return true, fileIDs, tx.Commit()
}

func (r *ConversationRepo) DeleteConversation(ctx context.Context, conversationID string) ([]string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	fileIDs, err := deleteConversationTx(ctx, tx, conversationID)
	if err != nil {
		return nil, err
	}
	return fileIDs, tx.Commit()
}

// deleteConversationTx performs the explicit cascade: messages,
// recipients, file metadata, friend link, then the conversation row.
func deleteConversationTx(ctx context.Context, tx *sqlx.Tx, conversationID string) ([]string, error) {
	var fileIDs []string
	if err := tx.SelectContext(ctx, &fileIDs,
		`SELECT id FROM files WHERE conversation_id=$1`, conversationID); err != nil {
		return nil, err
	}

	statements := []string{
		`DELETE FROM messages WHERE conversation_id=$1`,
		`DELETE FROM recipients WHERE conversation_id=$1`,
		`DELETE FROM files WHERE conversation_id=$1`,
		`DELETE FROM friends WHERE conversation_id=$1`,
		`DELETE FROM images WHERE owner_id=$1`,
		`DELETE FROM conversations WHERE id=$1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, conversationID); err != nil {
			return nil, err
		}
	}
	return fileIDs, nil
}

func (r *ConversationRepo) SetLastSeen(ctx context.Context, recipientID, messageID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recipients SET last_seen_message_id=$1 WHERE id=$2`, messageID, recipientID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrRecipientNotFound
	}
	return nil
}
