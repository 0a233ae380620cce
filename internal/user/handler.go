package user

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/portfolio-backend/internal/asset"
	"github.com/wichananm65/portfolio-backend/internal/logging"
)

type Handler struct {
	service *Service
	guard   *Guard
	log     logging.Logger
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type registerRequest struct {
	FirstName string `json:"firstName" form:"firstName"`
	LastName  string `json:"lastName" form:"lastName"`
	DOB       string `json:"dob" form:"dob"`
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
}

// profileUpdateRequest holds the updatable fields. An empty value means the
// field was not supplied.
type profileUpdateRequest struct {
	FirstName string `json:"firstName" form:"firstName"`
	LastName  string `json:"lastName" form:"lastName"`
	Email     string `json:"email" form:"email"`
	DOB       string `json:"dob" form:"dob"`
	Password  string `json:"password" form:"password"`
}

func (r profileUpdateRequest) patch() Patch {
	opt := func(v string) *string {
		if v == "" {
			return nil
		}
		return &v
	}
	return Patch{
		FirstName: opt(r.FirstName),
		LastName:  opt(r.LastName),
		Email:     opt(r.Email),
		DOB:       opt(r.DOB),
		Password:  opt(r.Password),
	}
}

func NewHandler(service *Service, guard *Guard, log logging.Logger) *Handler {
	return &Handler{service: service, guard: guard, log: log}
}

func (h *Handler) RegisterPublicRoutes(router fiber.Router) {
	router.Post("/register", h.register)
	router.Post("/login", h.login)
}

func (h *Handler) RegisterProtectedRoutes(router fiber.Router) {
	authenticated := h.guard.Authenticate()
	router.Get("/profile", authenticated, h.getProfile)
	router.Put("/update", authenticated, h.updateProfile)
	router.Get("/all", authenticated, h.guard.RequireAdmin(), h.getUsers)
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(registerRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "All fields are required"})
	}

	image, err := asset.FormImage(c, "image")
	if err != nil {
		return h.fail(c, err, "Registration failed")
	}

	created, token, err := h.service.Register(c.UserContext(), Registration{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		DOB:       payload.DOB,
		Email:     payload.Email,
		Password:  payload.Password,
		Image:     image,
	})
	if err != nil {
		return h.fail(c, err, "Registration failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"token":   token,
		"user":    created.Public(h.guard.AdminEmail()),
	})
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "All fields are required"})
	}

	u, token, err := h.service.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return h.fail(c, err, "Login failed")
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    u.Public(h.guard.AdminEmail()),
	})
}

func (h *Handler) getProfile(c *fiber.Ctx) error {
	u, ok := CurrentUser(c)
	if !ok {
		return unauthorized(c)
	}
	return c.JSON(fiber.Map{"user": u.Profile(h.guard.AdminEmail())})
}

func (h *Handler) updateProfile(c *fiber.Ctx) error {
	u, ok := CurrentUser(c)
	if !ok {
		return unauthorized(c)
	}

	payload := new(profileUpdateRequest)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(payload); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
		}
	}

	image, err := asset.FormImage(c, "image")
	if err != nil {
		return h.fail(c, err, "Update failed")
	}

	updated, err := h.service.UpdateProfile(c.UserContext(), u.ID, payload.patch(), image)
	if err != nil {
		return h.fail(c, err, "Update failed")
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    updated,
	})
}

func (h *Handler) getUsers(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Failed to load users")
	}

	response := make([]ListedView, 0, len(users))
	for _, u := range users {
		response = append(response, u.Listed())
	}
	return c.JSON(fiber.Map{"users": response})
}

// fail maps service errors onto status codes. Anything unrecognised is
// logged and reported with the generic fallback message.
func (h *Handler) fail(c *fiber.Ctx, err error, fallback string) error {
	status, message := fiber.StatusInternalServerError, fallback
	switch {
	case errors.Is(err, ErrMissingFields):
		status, message = fiber.StatusBadRequest, "All fields are required"
	case errors.Is(err, asset.ErrInvalidForm):
		status, message = fiber.StatusBadRequest, "Invalid request body"
	case errors.Is(err, ErrEmailExists):
		status, message = fiber.StatusBadRequest, "User already exists"
	case errors.Is(err, ErrInvalidCredentials):
		status, message = fiber.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, ErrNothingToUpdate):
		status, message = fiber.StatusBadRequest, "Nothing to update"
	case errors.Is(err, ErrNotFound):
		status, message = fiber.StatusNotFound, "User not found"
	default:
		h.log.Error(c.UserContext(), fallback, "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"message": message})
}
