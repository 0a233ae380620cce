package asset

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory Uploader for tests and local runs. UploadErr
// and DestroyErr, when set, are returned instead of doing the work. Calls
// records every operation in order ("upload:<folder>", "destroy:<id>").
type MemoryStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	next       int
	Calls      []string
	UploadErr  error
	DestroyErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string][]byte{}}
}

func (m *MemoryStore) Upload(_ context.Context, folder string, data []byte) (Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "upload:"+folder)
	if m.UploadErr != nil {
		return Asset{}, m.UploadErr
	}
	if len(data) == 0 {
		return Asset{}, ErrEmptyPayload
	}

	m.next++
	id := fmt.Sprintf("%s/%d", folder, m.next)
	m.objects[id] = append([]byte(nil), data...)
	return Asset{URL: "https://assets.test/" + id, PublicID: id}, nil
}

func (m *MemoryStore) Destroy(_ context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "destroy:"+publicID)
	if m.DestroyErr != nil {
		return m.DestroyErr
	}
	delete(m.objects, publicID)
	return nil
}

// Has reports whether an object with publicID is currently stored.
func (m *MemoryStore) Has(publicID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[publicID]
	return ok
}

// CallLog returns a copy of Calls.
func (m *MemoryStore) CallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Calls...)
}
