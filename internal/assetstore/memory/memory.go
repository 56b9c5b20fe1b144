package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/threadline/catalog-service/internal/assetstore"
)

// Store implements assetstore.Store with an in-memory map. It keeps
// metadata only and exists for tests and local development.
type Store struct {
	mu      sync.RWMutex
	assets  map[string]string // assetID -> URL
	baseURL string
}

// New creates a new in-memory asset store.
func New(baseURL string) *Store {
	return &Store{
		assets:  make(map[string]string),
		baseURL: baseURL,
	}
}

// Upload records the asset and fabricates a URL under the base URL.
func (s *Store) Upload(_ context.Context, input *assetstore.UploadInput) (*assetstore.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	url := fmt.Sprintf("%s/%s/%s", s.baseURL, input.Folder, id)
	s.assets[id] = url

	return &assetstore.Asset{AssetID: id, URL: url}, nil
}

// Delete removes the asset. Unknown IDs are ignored.
func (s *Store) Delete(_ context.Context, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.assets, assetID)
	return nil
}

// Len returns the number of stored assets, for test assertions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets)
}
