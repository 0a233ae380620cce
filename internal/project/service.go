package project

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wichananm65/portfolio-backend/internal/asset"
	"github.com/wichananm65/portfolio-backend/internal/logging"
)

type Service struct {
	repo     Repository
	uploader asset.Uploader
	log      logging.Logger
	now      func() time.Time
}

func NewService(repo Repository, uploader asset.Uploader, log logging.Logger) *Service {
	return &Service{repo: repo, uploader: uploader, log: log, now: time.Now}
}

// Draft is the input of Create. TechStack and Image are optional.
type Draft struct {
	Title       string
	Description string
	LiveURL     string
	GithubURL   string
	TechStack   []string
	Image       []byte
	CreatedBy   string
}

func (s *Service) Create(ctx context.Context, d Draft) (Project, error) {
	if d.Title == "" || d.Description == "" || d.LiveURL == "" {
		return Project{}, ErrMissingFields
	}

	var image asset.Asset
	if len(d.Image) > 0 {
		uploaded, err := s.uploader.Upload(ctx, asset.FolderProjects, d.Image)
		if err != nil {
			return Project{}, fmt.Errorf("upload project image: %w", err)
		}
		image = uploaded
	}

	now := s.now().UTC()
	return s.repo.Create(ctx, Project{
		ID:            uuid.NewString(),
		Title:         d.Title,
		Description:   d.Description,
		TechStack:     tags(d.TechStack),
		LiveURL:       d.LiveURL,
		GithubURL:     d.GithubURL,
		Image:         image.URL,
		ImagePublicID: image.PublicID,
		CreatedBy:     d.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (s *Service) List(ctx context.Context) ([]Project, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id string) (Project, error) {
	return s.repo.GetByID(ctx, id)
}

// Update merges patch into the project. When image is supplied the previous
// asset is destroyed before the new one is uploaded; if that upload fails the
// stored project loses its image and the error is returned.
func (s *Service) Update(ctx context.Context, id string, patch Patch, image []byte) (Project, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Project{}, err
	}

	updated := patch.Apply(existing)

	if len(image) > 0 {
		if existing.ImagePublicID != "" {
			if err := s.uploader.Destroy(ctx, existing.ImagePublicID); err != nil {
				return Project{}, fmt.Errorf("destroy project image: %w", err)
			}
		}

		uploaded, err := s.uploader.Upload(ctx, asset.FolderProjects, image)
		if err != nil {
			if existing.ImagePublicID != "" {
				// Saves the stored record, not the merge: this request's text changes are dropped with the image.
				s.dropImage(ctx, existing)
			}
			return Project{}, fmt.Errorf("upload project image: %w", err)
		}
		updated.Image = uploaded.URL
		updated.ImagePublicID = uploaded.PublicID
	}

	updated.UpdatedAt = s.now().UTC()
	return s.repo.Save(ctx, updated)
}

// dropImage stores p without the image whose asset is already gone.
func (s *Service) dropImage(ctx context.Context, p Project) {
	p.Image = ""
	p.ImagePublicID = ""
	p.UpdatedAt = s.now().UTC()
	if _, err := s.repo.Save(ctx, p); err != nil {
		s.log.Error(ctx, "clear destroyed project image", "project_id", p.ID, "error", err)
	}
}

// Delete removes the project and its image asset.
func (s *Service) Delete(ctx context.Context, id string) (Project, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Project{}, err
	}

	if existing.ImagePublicID != "" {
		if err := s.uploader.Destroy(ctx, existing.ImagePublicID); err != nil {
			return Project{}, fmt.Errorf("destroy project image: %w", err)
		}
	}
	return s.repo.Delete(ctx, id)
}
