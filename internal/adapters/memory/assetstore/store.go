package assetstore

import (
	"context"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/assetstore"
)

// Blob is a stored object as seen by tests and the dev server.
type Blob struct {
	ContentType string
	Data        []byte
}

// Store is an in-memory implementation of assetstore.Store.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	baseURL string
	m       map[string]Blob
}

// NewStore returns a store whose URLs are baseURL joined with the asset path.
func NewStore(baseURL string) *Store {
	return &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		m:       make(map[string]Blob),
	}
}

func (s *Store) Put(ctx context.Context, obj assetstore.Object) (string, error) {
	_ = ctx
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[obj.Key] = Blob{ContentType: obj.ContentType, Data: data}
	return obj.Key, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, path)
	return nil
}

func (s *Store) URL(ctx context.Context, path string) (string, error) {
	_ = ctx
	s.mu.RLock()
	_, ok := s.m[path]
	s.mu.RUnlock()
	if !ok {
		return "", assetstore.ErrNotFound
	}
	return s.baseURL + "/" + url.PathEscape(path), nil
}

// Get returns the stored blob for path.
func (s *Store) Get(path string) (Blob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.m[path]
	return b, ok
}

// Len reports how many assets are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
