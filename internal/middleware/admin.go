package middleware

import (
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/convo-ai/convo_ai/internal/auth"
)

const adminTokenLocal = "admin_token"

// AdminOnly requires a Bearer HS256 token carrying role=admin. An empty
// secret leaves the group open; config validation forbids that outside development.
func AdminOnly(secret string) fiber.Handler {
	if secret == "" {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return jwtware.New(jwtware.Config{
		SigningKey:    []byte(secret),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		ContextKey:    adminTokenLocal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or missing admin token")
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals(adminTokenLocal).(*jwt.Token)
			if !ok {
				return fiber.NewError(fiber.StatusUnauthorized, "invalid or missing admin token")
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || claims[auth.ClaimRole] != auth.RoleAdmin {
				return fiber.NewError(fiber.StatusForbidden, "admin role required")
			}
			return c.Next()
		},
	})
}
