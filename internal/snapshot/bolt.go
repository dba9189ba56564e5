package snapshot

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"
)

// BoltStore keeps the blob under one key of a BoltDB bucket.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
	key    []byte
}

func OpenBoltStore(path, bucket, key string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0666, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}

	s := &BoltStore{db: db, bucket: []byte(bucket), key: []byte(key)}
	if err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return s, nil
}

func (s *BoltStore) Load(ctx context.Context) (data []byte, err error) {
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	if err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get(s.key)
		if v == nil {
			return ErrNotExist
		}
		// v is only valid inside the transaction
		data = append([]byte(nil), v...)
		return nil
	}); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *BoltStore) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(s.key, data)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
