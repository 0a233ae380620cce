package contact

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create stores whatever fields the caller submitted.
func (s *Service) Create(ctx context.Context, fields map[string]any) (Contact, error) {
	now := s.now().UTC()
	return s.repo.Create(ctx, Contact{
		ID:        uuid.NewString(),
		Fields:    withoutReserved(fields),
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *Service) List(ctx context.Context) ([]Contact, error) {
	return s.repo.List(ctx)
}

// Delete removes the contact and returns it, or nil when there was nothing
// to remove.
func (s *Service) Delete(ctx context.Context, id string) (*Contact, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}
