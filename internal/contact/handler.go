package contact

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/portfolio-backend/internal/logging"
)

var errInvalidBody = errors.New("invalid request body")

type Handler struct {
	service *Service
	log     logging.Logger
}

func NewHandler(service *Service, log logging.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterPublicRoutes(router fiber.Router) {
	router.Post("/create", h.createContact)
	router.Get("/all", h.getContacts)
	router.Delete("/:id", h.deleteContact)
}

func (h *Handler) createContact(c *fiber.Ctx) error {
	fields, err := parseFields(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	created, err := h.service.Create(c.UserContext(), fields)
	if err != nil {
		return h.fail(c, err, "Contact creation failed")
	}
	return c.JSON(fiber.Map{"message": "Contact created", "contact": created})
}

func (h *Handler) getContacts(c *fiber.Ctx) error {
	contacts, err := h.service.List(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Failed to load contacts")
	}
	return c.JSON(fiber.Map{"contacts": contacts})
}

func (h *Handler) deleteContact(c *fiber.Ctx) error {
	deleted, err := h.service.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err, "Contact deletion failed")
	}
	return c.JSON(fiber.Map{"message": "Contact deleted", "contact": deleted})
}

func (h *Handler) fail(c *fiber.Ctx, err error, fallback string) error {
	h.log.Error(c.UserContext(), fallback, "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": fallback})
}

// parseFields collects the submitted document from a JSON object, a
// urlencoded form or the value parts of a multipart form. Repeated form keys
// become lists.
func parseFields(c *fiber.Ctx) (map[string]any, error) {
	fields := map[string]any{}
	contentType := c.Get(fiber.HeaderContentType)

	switch {
	case strings.HasPrefix(contentType, fiber.MIMEApplicationJSON):
		body := bytes.TrimSpace(c.Body())
		if len(body) == 0 {
			return fields, nil
		}
		if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
			return nil, errInvalidBody
		}
	case strings.HasPrefix(contentType, fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return nil, errInvalidBody
		}
		for key, values := range form.Value {
			addFormValue(fields, key, values...)
		}
	case strings.HasPrefix(contentType, fiber.MIMEApplicationForm):
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			addFormValue(fields, string(key), string(value))
		})
	}
	return fields, nil
}

func addFormValue(fields map[string]any, key string, values ...string) {
	for _, v := range values {
		switch prev := fields[key].(type) {
		case nil:
			fields[key] = v
		case string:
			fields[key] = []string{prev, v}
		case []string:
			fields[key] = append(prev, v)
		}
	}
}
