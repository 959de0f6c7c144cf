package store

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync"

	"github.com/go-training/oauth-callback/pkg/core"
)

var (
	// ErrRecordNotFound is returned when no authorization record exists for an identity.
	ErrRecordNotFound = errors.New("authorization record not found")
	// ErrNilRecord is returned when attempting to save a nil record.
	ErrNilRecord = errors.New("authorization record cannot be nil")
	// ErrEmptyUserID is returned when the identity id is empty.
	ErrEmptyUserID = errors.New("user ID cannot be empty")
	// ErrNotConfigured is returned when a backend's required settings are absent.
	ErrNotConfigured = errors.New("store is not configured")
	// ErrInvalidCredentials is returned when the service account blob cannot be parsed.
	ErrInvalidCredentials = errors.New("invalid store credentials")
)

func validate(userID string, rec *core.AuthorizationRecord) error {
	if strings.TrimSpace(userID) == "" {
		return ErrEmptyUserID
	}
	if rec == nil {
		return ErrNilRecord
	}
	return nil
}

// MemoryStore implements the core.Store interface using an in-memory map.
// Each identity maps to a field set, so writes merge like a document store would.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

// NewMemoryStore creates a new instance of MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string]any),
	}
}

// UpsertAuthorization merges rec into the document stored for userID.
func (m *MemoryStore) UpsertAuthorization(ctx context.Context, userID string, rec *core.AuthorizationRecord) error {
	if err := validate(userID, rec); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, exists := m.docs[userID]
	if !exists {
		doc = make(map[string]any)
		m.docs[userID] = doc
	}
	maps.Copy(doc, rec.Fields())
	return nil
}

// GetAuthorization returns the record stored for userID.
// It returns ErrRecordNotFound if none exists.
func (m *MemoryStore) GetAuthorization(ctx context.Context, userID string) (*core.AuthorizationRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyUserID
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, exists := m.docs[userID]
	if !exists {
		return nil, ErrRecordNotFound
	}
	return core.RecordFromFields(doc)
}

// Len returns the number of stored documents.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}
