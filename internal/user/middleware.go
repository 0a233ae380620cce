package user

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/wichananm65/portfolio-backend/internal/auth"
	"github.com/wichananm65/portfolio-backend/internal/logging"
)

const (
	tokenLocal = "token"
	userLocal  = "user"
)

// Guard resolves bearer tokens to live user records and gates admin routes.
type Guard struct {
	repo       Repository
	tokens     *auth.TokenService
	adminEmail string
	log        logging.Logger
}

func NewGuard(repo Repository, tokens *auth.TokenService, adminEmail string, log logging.Logger) *Guard {
	return &Guard{repo: repo, tokens: tokens, adminEmail: adminEmail, log: log}
}

func (g *Guard) AdminEmail() string {
	return g.adminEmail
}

// Authenticate requires "Authorization: Bearer <token>". The token must be
// valid and must name an existing user, which is then stored on the request.
func (g *Guard) Authenticate() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:    g.tokens.SigningKey(),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		Claims:        &auth.Claims{},
		ContextKey:    tokenLocal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			g.log.Debug(c.UserContext(), "bearer token rejected", "path", c.Path(), "error", err)
			return unauthorized(c)
		},
		SuccessHandler: g.resolve,
	})
}

func (g *Guard) resolve(c *fiber.Ctx) error {
	tok, _ := c.Locals(tokenLocal).(*jwt.Token)
	id, err := g.tokens.Subject(tok)
	if err != nil {
		return unauthorized(c)
	}

	u, err := g.repo.GetByID(c.UserContext(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			g.log.Error(c.UserContext(), "resolve token user", "user_id", id, "error", err)
		}
		return unauthorized(c)
	}

	c.Locals(userLocal, u)
	return c.Next()
}

// RequireAdmin must run after Authenticate.
func (g *Guard) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, ok := CurrentUser(c)
		if !ok {
			return unauthorized(c)
		}
		if !auth.IsAdmin(u.Email, g.adminEmail) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Admin only"})
		}
		return c.Next()
	}
}

// CurrentUser returns the user attached by Authenticate.
func CurrentUser(c *fiber.Ctx) (User, bool) {
	u, ok := c.Locals(userLocal).(User)
	return u, ok
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
}
