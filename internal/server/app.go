// Package server assembles the HTTP application.
package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/wichananm65/portfolio-backend/internal/asset"
	"github.com/wichananm65/portfolio-backend/internal/auth"
	"github.com/wichananm65/portfolio-backend/internal/contact"
	"github.com/wichananm65/portfolio-backend/internal/logging"
	"github.com/wichananm65/portfolio-backend/internal/project"
	"github.com/wichananm65/portfolio-backend/internal/user"
)

type Deps struct {
	Logger           logging.Logger
	Users            user.Repository
	Projects         project.Repository
	Contacts         contact.Repository
	Assets           asset.Uploader
	Tokens           *auth.TokenService
	AdminEmail       string
	CORSAllowOrigins string
	BodyLimit        int
}

func New(d Deps) *fiber.App {
	log := d.Logger
	if log == nil {
		log = logging.Nop{}
	}

	app := fiber.New(fiber.Config{
		AppName:      "portfolio-backend",
		BodyLimit:    d.BodyLimit,
		ErrorHandler: errorHandler(log),
	})
	app.Use(recover.New())
	setupCORS(app, d.CORSAllowOrigins)
	app.Use(requestLogger(log))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("server is online")
	})

	guard := user.NewGuard(d.Users, d.Tokens, d.AdminEmail, log)

	userHandler := user.NewHandler(user.NewService(d.Users, d.Assets, d.Tokens), guard, log)
	users := app.Group("/users")
	userHandler.RegisterPublicRoutes(users)
	userHandler.RegisterProtectedRoutes(users)

	projectHandler := project.NewHandler(project.NewService(d.Projects, d.Assets, log), guard, log)
	projects := app.Group("/projects")
	projectHandler.RegisterPublicRoutes(projects)
	projectHandler.RegisterProtectedRoutes(projects)

	contactHandler := contact.NewHandler(contact.NewService(d.Contacts), log)
	contactHandler.RegisterPublicRoutes(app.Group("/contact"))

	return app
}

func setupCORS(app *fiber.App, origins string) {
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

// requestLogger records one line per request once the handler chain is done.
func requestLogger(log logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		log.Info(c.UserContext(), "request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start).String(),
		)
		return err
	}
}

// errorHandler turns anything that escaped a handler into a JSON body.
func errorHandler(log logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
		}
		log.Error(c.UserContext(), "unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}
}
