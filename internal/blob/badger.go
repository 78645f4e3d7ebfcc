package blob

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore persists blobs in an embedded BadgerDB. Values are framed
// as a 4-byte big-endian filename length, the filename, then the raw
// payload.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) the blob database at path.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	database, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	return &BadgerStore{db: database}, nil
}

func (s *BadgerStore) Put(ctx context.Context, key, fileName string, data []byte) error {
	value := encodeObject(fileName, data)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (s *BadgerStore) Get(ctx context.Context, key string) (Object, error) {
	var obj Object
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			decoded, err := decodeObject(v)
			if err != nil {
				return err
			}
			obj = decoded
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Object{}, ErrObjectNotFound
	}
	return obj, err
}

func (s *BadgerStore) Delete(ctx context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func encodeObject(fileName string, data []byte) []byte {
	buf := make([]byte, 4+len(fileName)+len(data))
	binary.BigEndian.PutUint32(buf, uint32(len(fileName)))
	copy(buf[4:], fileName)
	copy(buf[4+len(fileName):], data)
	return buf
}

func decodeObject(value []byte) (Object, error) {
	if len(value) < 4 {
		return Object{}, errors.New("corrupt blob value")
	}
	nameLen := int(binary.BigEndian.Uint32(value))
	if len(value) < 4+nameLen {
		return Object{}, errors.New("corrupt blob value")
	}
	name := string(value[4 : 4+nameLen])
	data := make([]byte, len(value)-4-nameLen)
	copy(data, value[4+nameLen:])
	return Object{FileName: name, Data: data}, nil
}
