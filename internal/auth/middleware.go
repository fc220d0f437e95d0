package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/luizxsoto/checkout-api-sub000/internal/apperr"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// Principal is the authenticated caller.
type Principal struct {
	ID   string
	Role string
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the caller's Principal on the context.
func AuthMiddleware(issuer *Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return apperr.Unauthorized("Missing auth token")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperr.Unauthorized("Invalid auth header format")
		}

		principal, err := issuer.Verify(parts[1])
		if err != nil {
			return apperr.Unauthorized("Invalid or expired token")
		}

		c.Locals("user", principal)
		return c.Next()
	}
}

// RequireRole lets the request through only for the given roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return apperr.Unauthorized("Missing auth token")
		}
		for _, r := range roles {
			if user.Role == r {
				return c.Next()
			}
		}
		return apperr.Forbidden("You don't have permission to access this resource")
	}
}

// GetUser extracts the Principal from a Fiber context.
func GetUser(c *fiber.Ctx) *Principal {
	user, _ := c.Locals("user").(*Principal)
	return user
}
