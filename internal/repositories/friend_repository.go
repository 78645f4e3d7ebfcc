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
	ErrFriendNotFound  = errors.New("friend not found")
	ErrRequestNotFound = errors.New("friend request not found")
)

// FriendRepository owns friend links and pending requests. Pairs are
// canonicalized (smaller id first) so "A,B" and "B,A" are the same row.
type FriendRepository interface {
	AreFriends(ctx context.Context, userID, otherID string) (bool, error)
	GetFriendByPair(ctx context.Context, userID, otherID string) (models.Friend, error)
	ListFriends(ctx context.Context, userID string) ([]models.Friend, error)

	HasPendingRequest(ctx context.Context, userID, otherID string) (bool, error)
	CreateRequest(ctx context.Context, senderID, recipientID string) (models.FriendRequest, error)
	GetRequest(ctx context.Context, requestID string) (models.FriendRequest, error)
	ListRequests(ctx context.Context, userID string) ([]models.FriendRequest, error)
	DeleteRequest(ctx context.Context, requestID string) error

	// AcceptRequest deletes the request and creates the friend link plus
	// its fresh two-party conversation in one transaction.
	AcceptRequest(ctx context.Context, requestID, person1ID, person2ID string) (models.Friend, models.Conversation, error)
}

func canonicalPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// FriendRepo is the sqlx-backed implementation.
type FriendRepo struct {
	db *sqlx.DB
}

func NewFriendRepo(db *sqlx.DB) *FriendRepo {
	return &FriendRepo{db: db}
}

func (r *FriendRepo) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	p1, p2 := canonicalPair(userID, otherID)
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM friends WHERE person1_id=$1 AND person2_id=$2)`, p1, p2)
	return exists, err
}

func (r *FriendRepo) GetFriendByPair(ctx context.Context, userID, otherID string) (models.Friend, error) {
	p1, p2 := canonicalPair(userID, otherID)
	var friend models.Friend
	err := r.db.GetContext(ctx, &friend,
		`SELECT id, person1_id, person2_id, conversation_id FROM friends WHERE person1_id=$1 AND person2_id=$2`, p1, p2)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Friend{}, ErrFriendNotFound
	}
	return friend, err
}

func (r *FriendRepo) ListFriends(ctx context.Context, userID string) ([]models.Friend, error) {
	var list []models.Friend
	err := r.db.SelectContext(ctx, &list,
		`SELECT id, person1_id, person2_id, conversation_id FROM friends
         WHERE person1_id=$1 OR person2_id=$1`, userID)
	return list, err
}

// HasPendingRequest matches in either direction: an opposing pending
// request counts as a duplicate too.
func (r *FriendRepo) HasPendingRequest(ctx context.Context, userID, otherID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM friend_requests
          WHERE (sender_id=$1 AND recipient_id=$2) OR (sender_id=$2 AND recipient_id=$1))`,
		userID, otherID)
	return exists, err
}

func (r *FriendRepo) CreateRequest(ctx context.Context, senderID, recipientID string) (models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO friend_requests (id, sender_id, recipient_id) VALUES ($1, $2, $3)
         RETURNING id, sender_id, recipient_id, created_at`,
		uuid.NewString(), senderID, recipientID).StructScan(&req)
	return req, err
}

func (r *FriendRepo) GetRequest(ctx context.Context, requestID string) (models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.GetContext(ctx, &req,
		`SELECT id, sender_id, recipient_id, created_at FROM friend_requests WHERE id=$1`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FriendRequest{}, ErrRequestNotFound
	}
	return req, err
}

func (r *FriendRepo) ListRequests(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	var list []models.FriendRequest
	err := r.db.SelectContext(ctx, &list,
		`SELECT id, sender_id, recipient_id, created_at FROM friend_requests
         WHERE sender_id=$1 OR recipient_id=$1
         ORDER BY created_at`, userID)
	return list, err
}

func (r *FriendRepo) DeleteRequest(ctx context.Context, requestID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM friend_requests WHERE id=$1`, requestID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *FriendRepo) AcceptRequest(ctx context.Context, requestID, person1ID, person2ID string) (models.Friend, models.Conversation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Friend{}, models.Conversation{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM friend_requests WHERE id=$1`, requestID)
	if err != nil {
		return models.Friend{}, models.Conversation{}, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return models.Friend{}, models.Conversation{}, err
	}
	if count == 0 {
		return models.Friend{}, models.Conversation{}, ErrRequestNotFound
	}

	var conv models.Conversation
	if err := tx.QueryRowxContext(ctx,
		`INSERT INTO conversations (id, is_group) VALUES ($1, FALSE)
         RETURNING id, title, is_group, created_at`, uuid.NewString()).StructScan(&conv); err != nil {
		return models.Friend{}, models.Conversation{}, err
	}

	for _, userID := range []string{person1ID, person2ID} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipients (id, conversation_id, user_id) VALUES ($1, $2, $3)`,
			uuid.NewString(), conv.ID, userID); err != nil {
			return models.Friend{}, models.Conversation{}, err
		}
	}

	p1, p2 := canonicalPair(person1ID, person2ID)
	var friend models.Friend
	if err := tx.QueryRowxContext(ctx,
		`INSERT INTO friends (id, person1_id, person2_id, conversation_id) VALUES ($1, $2, $3, $4)
         RETURNING id, person1_id, person2_id, conversation_id`,
		uuid.NewString(), p1, p2, conv.ID).StructScan(&friend); err != nil {
		return models.Friend{}, models.Conversation{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Friend{}, models.Conversation{}, err
	}
	return friend, conv, nil
}
