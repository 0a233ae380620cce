package project

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/portfolio-backend/internal/asset"
	"github.com/wichananm65/portfolio-backend/internal/logging"
	"github.com/wichananm65/portfolio-backend/internal/user"
)

type Handler struct {
	service *Service
	guard   *user.Guard
	log     logging.Logger
}

// projectRequest holds the text fields of a create or update request. Empty
// strings mean the field was not supplied.
type projectRequest struct {
	Title        string
	Description  string
	LiveURL      string
	GithubURL    string
	TechStack    []string
	HasTechStack bool
}

func (r projectRequest) patch() Patch {
	opt := func(v string) *string {
		if v == "" {
			return nil
		}
		return &v
	}
	p := Patch{
		Title:       opt(r.Title),
		Description: opt(r.Description),
		LiveURL:     opt(r.LiveURL),
		GithubURL:   opt(r.GithubURL),
	}
	if r.HasTechStack {
		stack := r.TechStack
		p.TechStack = &stack
	}
	return p
}

func NewHandler(service *Service, guard *user.Guard, log logging.Logger) *Handler {
	return &Handler{service: service, guard: guard, log: log}
}

func (h *Handler) RegisterPublicRoutes(router fiber.Router) {
	router.Get("/all", h.getProjects)
	router.Get("/:id", h.getProject)
}

func (h *Handler) RegisterProtectedRoutes(router fiber.Router) {
	admin := []fiber.Handler{h.guard.Authenticate(), h.guard.RequireAdmin()}
	router.Post("/create", append(admin, h.createProject)...)
	router.Put("/:id", append(admin, h.updateProject)...)
	router.Delete("/:id", append(admin, h.deleteProject)...)
}

func (h *Handler) getProjects(c *fiber.Ctx) error {
	projects, err := h.service.List(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Failed to load projects")
	}
	return c.JSON(fiber.Map{"projects": projects})
}

func (h *Handler) getProject(c *fiber.Ctx) error {
	p, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err, "Failed to load project")
	}
	return c.JSON(fiber.Map{"project": p})
}

func (h *Handler) createProject(c *fiber.Ctx) error {
	req, err := parseProjectRequest(c)
	if err != nil {
		return h.fail(c, err, "Project creation failed")
	}

	image, err := asset.FormImage(c, "image")
	if err != nil {
		return h.fail(c, err, "Project creation failed")
	}

	var createdBy string
	if u, ok := user.CurrentUser(c); ok {
		createdBy = u.ID
	}

	created, err := h.service.Create(c.UserContext(), Draft{
		Title:       req.Title,
		Description: req.Description,
		LiveURL:     req.LiveURL,
		GithubURL:   req.GithubURL,
		TechStack:   req.TechStack,
		Image:       image,
		CreatedBy:   createdBy,
	})
	if err != nil {
		return h.fail(c, err, "Project creation failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Project created successfully",
		"project": created,
	})
}

func (h *Handler) updateProject(c *fiber.Ctx) error {
	req, err := parseProjectRequest(c)
	if err != nil {
		return h.fail(c, err, "Project update failed")
	}

	image, err := asset.FormImage(c, "image")
	if err != nil {
		return h.fail(c, err, "Project update failed")
	}

	updated, err := h.service.Update(c.UserContext(), c.Params("id"), req.patch(), image)
	if err != nil {
		return h.fail(c, err, "Project update failed")
	}

	return c.JSON(fiber.Map{
		"message": "Project updated successfully",
		"project": updated,
	})
}

func (h *Handler) deleteProject(c *fiber.Ctx) error {
	deleted, err := h.service.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err, "Project deletion failed")
	}
	return c.JSON(fiber.Map{
		"message": "Project deleted",
		"project": deleted,
	})
}

// parseProjectRequest reads a JSON body, or form values for multipart and
// urlencoded requests.
func parseProjectRequest(c *fiber.Ctx) (projectRequest, error) {
	ct := c.Get(fiber.HeaderContentType)
	if strings.HasPrefix(ct, fiber.MIMEApplicationJSON) {
		var body struct {
			Title       string          `json:"title"`
			Description string          `json:"description"`
			LiveURL     string          `json:"liveUrl"`
			GithubURL   string          `json:"githubUrl"`
			TechStack   json.RawMessage `json:"techStack"`
		}
		if len(c.Body()) > 0 {
			if err := json.Unmarshal(c.Body(), &body); err != nil {
				return projectRequest{}, errInvalidBody
			}
		}
		stack, err := decodeTechStack(body.TechStack)
		if err != nil {
			return projectRequest{}, err
		}
		return projectRequest{
			Title:        body.Title,
			Description:  body.Description,
			LiveURL:      body.LiveURL,
			GithubURL:    body.GithubURL,
			TechStack:    stack,
			HasTechStack: stack != nil,
		}, nil
	}

	stack, err := ParseTechStack(c.FormValue("techStack"))
	if err != nil {
		return projectRequest{}, err
	}
	return projectRequest{
		Title:        c.FormValue("title"),
		Description:  c.FormValue("description"),
		LiveURL:      c.FormValue("liveUrl"),
		GithubURL:    c.FormValue("githubUrl"),
		TechStack:    stack,
		HasTechStack: stack != nil,
	}, nil
}

var errInvalidBody = errors.New("invalid request body")

func (h *Handler) fail(c *fiber.Ctx, err error, fallback string) error {
	status, message := fiber.StatusInternalServerError, fallback
	switch {
	case errors.Is(err, errInvalidBody), errors.Is(err, asset.ErrInvalidForm):
		status, message = fiber.StatusBadRequest, "Invalid request body"
	case errors.Is(err, ErrInvalidTechStack):
		status, message = fiber.StatusBadRequest, "techStack must be a JSON array of strings"
	case errors.Is(err, ErrMissingFields):
		status, message = fiber.StatusBadRequest, "Title, description and liveUrl are required"
	case errors.Is(err, ErrNotFound):
		status, message = fiber.StatusNotFound, "Project not found"
	default:
		h.log.Error(c.UserContext(), fallback, "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"message": message})
}
