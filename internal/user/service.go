package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wichananm65/portfolio-backend/internal/asset"
	"github.com/wichananm65/portfolio-backend/internal/auth"
)

// PasswordCost is the bcrypt work factor for stored passwords.
const PasswordCost = 10

type Service struct {
	repo     Repository
	uploader asset.Uploader
	tokens   *auth.TokenService
	now      func() time.Time
}

func NewService(repo Repository, uploader asset.Uploader, tokens *auth.TokenService) *Service {
	return &Service{repo: repo, uploader: uploader, tokens: tokens, now: time.Now}
}

// Registration is the input of Register. Image is optional.
type Registration struct {
	FirstName string
	LastName  string
	DOB       string
	Email     string
	Password  string
	Image     []byte
}

func (r Registration) missingFields() bool {
	return r.FirstName == "" || r.LastName == "" || r.DOB == "" || r.Email == "" || r.Password == ""
}

// Register creates the account and returns it with a fresh token. The image,
// if any, is uploaded before the record is written so a failed upload leaves
// nothing behind.
func (s *Service) Register(ctx context.Context, in Registration) (User, string, error) {
	if in.missingFields() {
		return User{}, "", ErrMissingFields
	}

	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return User{}, "", ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, "", err
	}

	var image asset.Asset
	if len(in.Image) > 0 {
		uploaded, err := s.uploader.Upload(ctx, asset.FolderUsers, in.Image)
		if err != nil {
			return User{}, "", fmt.Errorf("upload avatar: %w", err)
		}
		image = uploaded
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), PasswordCost)
	if err != nil {
		return User{}, "", fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, User{
		ID:            uuid.NewString(),
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		DOB:           in.DOB,
		Email:         in.Email,
		Password:      string(hashed),
		Image:         image.URL,
		ImagePublicID: image.PublicID,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return User{}, "", err
	}

	token, err := s.tokens.Issue(created.ID)
	if err != nil {
		return User{}, "", err
	}
	return created, token, nil
}

// Login checks the credentials. Unknown email and wrong password both fail
// with ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (User, string, error) {
	if email == "" || password == "" {
		return User{}, "", ErrMissingFields
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, "", ErrInvalidCredentials
		}
		return User{}, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// UpdateProfile merges patch into the user's own record. A supplied password
// is hashed first and a supplied image is uploaded first. The previous avatar
// is not removed from the asset host.
func (s *Service) UpdateProfile(ctx context.Context, id string, patch Patch, image []byte) (User, error) {
	if patch.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), PasswordCost)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		h := string(hashed)
		patch.Password = &h
	}

	if len(image) > 0 {
		uploaded, err := s.uploader.Upload(ctx, asset.FolderUsers, image)
		if err != nil {
			return User{}, fmt.Errorf("upload avatar: %w", err)
		}
		patch.Image = &uploaded.URL
		patch.ImagePublicID = &uploaded.PublicID
	}

	if patch.Empty() {
		return User{}, ErrNothingToUpdate
	}

	return s.repo.Update(ctx, id, patch, s.now().UTC())
}
