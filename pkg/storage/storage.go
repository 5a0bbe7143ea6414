// Package storage keeps exported layout documents by key.
//
// The API server saves every layout it builds so that clients can fetch it
// again with GET /layouts/{key}. [MemoryStore] serves single-process use
// and tests; [MongoStore] persists documents in MongoDB, with the layout
// stored as BSON through the tags on [io.Layout].
package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/matzehuels/pcellkit/pkg/errors"
	pio "github.com/matzehuels/pcellkit/pkg/io"
)

// Document is a stored layout.
type Document struct {
	Key       string     `json:"key" bson:"_id"`
	Layout    pio.Layout `json:"layout" bson:"layout"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
}

// Store persists layout documents.
type Store interface {
	// Save inserts or replaces the document under doc.Key.
	Save(ctx context.Context, doc Document) error

	// Load returns the document for key, or a NOT_FOUND error.
	Load(ctx context.Context, key string) (Document, error)

	// List returns all keys, sorted.
	List(ctx context.Context) ([]string, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close(ctx context.Context) error
}

// MemoryStore is an in-process [Store].
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

func (s *MemoryStore) Save(ctx context.Context, doc Document) error {
	if doc.Key == "" {
		return errors.New(errors.ErrCodeInvalidInput, "document has no key")
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.Key] = doc
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, key string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key]
	if !ok {
		return Document{}, errors.New(errors.ErrCodeNotFound, "layout %s not found", key)
	}
	return doc, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.docs))
	for k := range s.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, key)
	return nil
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
