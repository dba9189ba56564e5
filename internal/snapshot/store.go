// Package snapshot persists encoded volumes between runs.
package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/Alexander-D-Karpov/blockfs/internal/config"
	"github.com/Alexander-D-Karpov/blockfs/internal/crypto"
)

var ErrNotExist = errors.New("snapshot does not exist")

type Store interface {
	// Load returns the stored blob, or ErrNotExist when nothing was saved.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Close() error
}

// Open builds the store selected by cfg.Backend, sealed when an encryption
// key is configured.
func Open(ctx context.Context, cfg config.SnapshotConfig) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Backend {
	case config.BackendFile, "":
		store = NewFileStore(cfg.Path)
	case config.BackendBolt:
		store, err = OpenBoltStore(cfg.Path, cfg.Bucket, cfg.Name)
	case config.BackendPostgres:
		store, err = OpenPostgresStore(ctx, cfg.PostgresURL, cfg.Name)
	case config.BackendSwift:
		store, err = OpenSwiftStore(cfg.SwiftAuthURL, cfg.SwiftUser, cfg.SwiftKey, cfg.SwiftContainer, cfg.Name)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.EncryptKey == "" {
		return store, nil
	}

	sealer, err := crypto.NewPassphraseSealer(cfg.EncryptKey, cfg.Name)
	if err != nil {
		store.Close()
		return nil, err
	}
	return NewSealedStore(store, sealer), nil
}
