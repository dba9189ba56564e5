package snapshot

import (
	"context"
	"fmt"

	"github.com/Alexander-D-Karpov/blockfs/internal/crypto"
)

// SealedStore encrypts blobs before they reach the inner store.
type SealedStore struct {
	inner  Store
	sealer *crypto.Sealer
}

func NewSealedStore(inner Store, sealer *crypto.Sealer) *SealedStore {
	return &SealedStore{inner: inner, sealer: sealer}
}

func (s *SealedStore) Load(ctx context.Context) ([]byte, error) {
	sealed, err := s.inner.Load(ctx)
	if err != nil {
		return nil, err
	}
	data, err := s.sealer.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("unseal snapshot: %w", err)
	}
	return data, nil
}

func (s *SealedStore) Save(ctx context.Context, data []byte) error {
	sealed, err := s.sealer.Seal(data)
	if err != nil {
		return fmt.Errorf("seal snapshot: %w", err)
	}
	return s.inner.Save(ctx, sealed)
}

func (s *SealedStore) Close() error {
	return s.inner.Close()
}
