package contact

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("contact not found")

type Repository interface {
	// List returns every contact, newest first.
	List(ctx context.Context) ([]Contact, error)
	Create(ctx context.Context, c Contact) (Contact, error)
	Delete(ctx context.Context, id string) (Contact, error)
}

type InMemoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Contact
}

func NewInMemoryRepository(seed []Contact) *InMemoryRepository {
	r := &InMemoryRepository{storage: make(map[string]Contact, len(seed))}
	for _, c := range seed {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		r.storage[c.ID] = c
	}
	return r
}

func (r *InMemoryRepository) List(context.Context) ([]Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Contact, 0, len(r.storage))
	for _, c := range r.storage {
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *InMemoryRepository) Create(_ context.Context, c Contact) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Fields = withoutReserved(c.Fields)
	r.storage[c.ID] = c
	return c, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id string) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.storage[id]
	if !ok {
		return Contact{}, ErrNotFound
	}
	delete(r.storage, id)
	return c, nil
}
