package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/ncw/swift"
)

const blobContentType = "application/octet-stream"

// SwiftStore keeps the blob as one object in an OpenStack Swift container.
type SwiftStore struct {
	conn      *swift.Connection
	container string
	object    string
}

func OpenSwiftStore(authURL, user, key, container, object string) (*SwiftStore, error) {
	conn := &swift.Connection{
		UserName: user,
		ApiKey:   key,
		AuthUrl:  authURL,
	}
	if err := conn.Authenticate(); err != nil {
		return nil, fmt.Errorf("swift auth %s: %w", authURL, err)
	}
	if err := conn.ContainerCreate(container, nil); err != nil {
		return nil, fmt.Errorf("create container %s: %w", container, err)
	}
	return &SwiftStore{conn: conn, container: container, object: object}, nil
}

func (s *SwiftStore) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.conn.ObjectGetBytes(s.container, s.object)
	if errors.Is(err, swift.ObjectNotFound) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s/%s: %w", s.container, s.object, err)
	}
	return data, nil
}

func (s *SwiftStore) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.conn.ObjectPutBytes(s.container, s.object, data, blobContentType); err != nil {
		return fmt.Errorf("save snapshot %s/%s: %w", s.container, s.object, err)
	}
	return nil
}

func (s *SwiftStore) Close() error {
	return nil
}
