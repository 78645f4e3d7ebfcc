package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// Directory is the identity-lookup collaborator. The auth service owns
// account storage; the messenger only resolves ids and handles to
// display data.
type Directory interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByHandle(ctx context.Context, username string) (models.User, error)
	BulkByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

// SQLDirectory reads the replicated users table.
type SQLDirectory struct {
	db *sqlx.DB
}

func NewSQLDirectory(db *sqlx.DB) *SQLDirectory {
	return &SQLDirectory{db: db}
}

func (d *SQLDirectory) FindByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := d.db.GetContext(ctx, &user, `SELECT id, username, display_name FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

func (d *SQLDirectory) FindByHandle(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := d.db.GetContext(ctx, &user, `SELECT id, username, display_name FROM users WHERE username=$1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

func (d *SQLDirectory) BulkByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	query, args, err := sqlx.In(`SELECT id, username, display_name FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	query = d.db.Rebind(query)

	var list []models.User
	err = d.db.SelectContext(ctx, &list, query, args...)
	return list, err
}
