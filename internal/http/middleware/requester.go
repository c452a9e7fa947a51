package middleware

import (
	"github.com/gofiber/fiber/v2"

	"digisewa/internal/model"
)

const (
	// Identity headers set by the upstream gateway after authentication.
	// This service trusts them as-is; session design is out of scope here.
	UserIDHeader     = "X-User-ID"
	UserRoleHeader   = "X-User-Role"
	DepartmentHeader = "X-User-Department"

	// RequesterLocalKey is the key the parsed identity is stored under.
	RequesterLocalKey = "requester"
)

// Requester parses the gateway identity headers into a model.Requester and
// stores it in context locals. Missing headers produce an empty requester,
// which the access gate denies; handlers never read the headers directly.
func Requester() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := model.Role(c.Get(UserRoleHeader))
		if role == "" {
			role = model.RoleCitizen
		}
		c.Locals(RequesterLocalKey, model.Requester{
			ID:         c.Get(UserIDHeader),
			Role:       role,
			Department: c.Get(DepartmentHeader),
		})
		return c.Next()
	}
}

// RequesterFromCtx returns the identity stored by the Requester middleware.
func RequesterFromCtx(c *fiber.Ctx) model.Requester {
	if v, ok := c.Locals(RequesterLocalKey).(model.Requester); ok {
		return v
	}
	return model.Requester{}
}
