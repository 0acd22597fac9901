package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RequirePerson ensures a resolved person is attached to the request.
func RequirePerson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Person == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}
