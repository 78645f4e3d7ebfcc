package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var (
	ErrFileNotFound  = errors.New("file not found")
	ErrImageNotFound = errors.New("image not found")
)

// FileRepository owns attachment and avatar metadata. Payloads live in
// the blob store under the same ids.
type FileRepository interface {
	// CreateAttachment writes the file metadata and its companion
	// file-reference message in one transaction.
	CreateAttachment(ctx context.Context, meta models.FileMeta, msg models.Message) (models.Message, error)
	GetFile(ctx context.Context, fileID string) (models.FileMeta, error)

	UpsertImage(ctx context.Context, ownerID, fileName string) error
	GetImage(ctx context.Context, ownerID string) (models.ImageMeta, error)
}

// FileRepo is the sqlx-backed implementation.
type FileRepo struct {
	db *sqlx.DB
}

func NewFileRepo(db *sqlx.DB) *FileRepo {
	return &FileRepo{db: db}
}

func (r *FileRepo) CreateAttachment(ctx context.Context, meta models.FileMeta, msg models.Message) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO files (id, conversation_id, file_name) VALUES ($1, $2, $3)`,
		meta.ID, meta.ConversationID, meta.FileName); err != nil {
		return models.Message{}, err
	}

	var created models.Message
	if err := tx.QueryRowxContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, content, is_file_ref, created_at)
         VALUES ($1, $2, $3, $4, TRUE, $5)
         RETURNING `+messageColumns,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.CreatedAt).StructScan(&created); err != nil {
		return models.Message{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return created, nil
}

func (r *FileRepo) GetFile(ctx context.Context, fileID string) (models.FileMeta, error) {
	var meta models.FileMeta
	err := r.db.GetContext(ctx, &meta,
		`SELECT id, conversation_id, file_name, created_at FROM files WHERE id=$1`, fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FileMeta{}, ErrFileNotFound
	}
	return meta, err
}

// UpsertImage is an idempotent replace-or-create keyed by the owner.
func (r *FileRepo) UpsertImage(ctx context.Context, ownerID, fileName string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO images (owner_id, file_name, updated_at) VALUES ($1, $2, NOW())
         ON CONFLICT (owner_id) DO UPDATE SET file_name = EXCLUDED.file_name, updated_at = NOW()`,
		ownerID, fileName)
	return err
}

func (r *FileRepo) GetImage(ctx context.Context, ownerID string) (models.ImageMeta, error) {
	var meta models.ImageMeta
	err := r.db.GetContext(ctx, &meta,
		`SELECT owner_id, file_name, updated_at FROM images WHERE owner_id=$1`, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ImageMeta{}, ErrImageNotFound
	}
	return meta, err
}
