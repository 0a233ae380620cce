package user

import (
	"time"

	"github.com/wichananm65/portfolio-backend/internal/auth"
)

// User is the stored identity record. Password holds the bcrypt hash and is
// never serialized.
type User struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	DOB           string    `json:"dob"`
	Email         string    `json:"email"`
	Password      string    `json:"-"`
	Image         string    `json:"image"`
	ImagePublicID string    `json:"imagePublicId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Patch lists the fields of a profile update. A nil field is left untouched.
// Password carries the hash once it reaches the repository.
type Patch struct {
	FirstName     *string
	LastName      *string
	Email         *string
	DOB           *string
	Password      *string
	Image         *string
	ImagePublicID *string
}

func (p Patch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.DOB == nil &&
		p.Password == nil && p.Image == nil && p.ImagePublicID == nil
}

// Apply merges the supplied fields into u.
func (p Patch) Apply(u User) User {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&u.FirstName, p.FirstName)
	set(&u.LastName, p.LastName)
	set(&u.Email, p.Email)
	set(&u.DOB, p.DOB)
	set(&u.Password, p.Password)
	set(&u.Image, p.Image)
	set(&u.ImagePublicID, p.ImagePublicID)
	return u
}

// PublicView is what registration, login and the profile endpoint return.
type PublicView struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	DOB       string `json:"dob"`
	Email     string `json:"email"`
	Image     string `json:"image"`
	Role      string `json:"role"`
}

func (u User) Public(adminEmail string) PublicView {
	return PublicView{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		DOB:       u.DOB,
		Email:     u.Email,
		Image:     u.Image,
		Role:      auth.RoleFor(u.Email, adminEmail),
	}
}

// ListedView is one entry of the admin user listing.
type ListedView struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	DOB       string `json:"dob"`
	Image     string `json:"image"`
}

func (u User) Listed() ListedView {
	return ListedView{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		DOB:       u.DOB,
		Image:     u.Image,
	}
}

// ProfileView is the authenticated user's own record plus the derived role.
type ProfileView struct {
	User
	Role string `json:"role"`
}

func (u User) Profile(adminEmail string) ProfileView {
	return ProfileView{User: u, Role: auth.RoleFor(u.Email, adminEmail)}
}
