package project

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("project not found")
	ErrMissingFields = errors.New("title, description and liveUrl are required")
)

type Repository interface {
	// List returns every project, newest first.
	List(ctx context.Context) ([]Project, error)
	GetByID(ctx context.Context, id string) (Project, error)
	Create(ctx context.Context, p Project) (Project, error)
	// Save overwrites the stored fields of p.ID.
	Save(ctx context.Context, p Project) (Project, error)
	Delete(ctx context.Context, id string) (Project, error)
}

// InMemoryRepository is a simple in-memory implementation useful for tests and
// local runs without a database.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Project
}

func NewInMemoryRepository(seed []Project) *InMemoryRepository {
	r := &InMemoryRepository{storage: make(map[string]Project, len(seed))}
	for _, p := range seed {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		r.storage[p.ID] = clone(p)
	}
	return r
}

func (r *InMemoryRepository) List(context.Context) ([]Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Project, 0, len(r.storage))
	for _, p := range r.storage {
		out = append(out, clone(p))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.storage[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	return clone(p), nil
}

func (r *InMemoryRepository) Create(_ context.Context, p Project) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	r.storage[p.ID] = clone(p)
	return p, nil
}

func (r *InMemoryRepository) Save(_ context.Context, p Project) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.storage[p.ID]
	if !ok {
		return Project{}, ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.CreatedBy = existing.CreatedBy
	r.storage[p.ID] = clone(p)
	return p, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id string) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.storage[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	delete(r.storage, id)
	return p, nil
}

func clone(p Project) Project {
	if p.TechStack != nil {
		p.TechStack = append([]string{}, p.TechStack...)
	}
	return p
}
