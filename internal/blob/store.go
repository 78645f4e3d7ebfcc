package blob

import (
	"context"
	"errors"
)

var ErrObjectNotFound = errors.New("object not found")

// Object is a named binary payload.
type Object struct {
	FileName string
	Data     []byte
}

// Store is the binary-payload collaborator: attachments and avatars are
// kept here keyed by entity id, while relational metadata stays in the
// database.
type Store interface {
	Put(ctx context.Context, key, fileName string, data []byte) error
	Get(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
	Close() error
}
