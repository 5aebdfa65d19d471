package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/soluspay/authgate/session"
)

// GetSession returns the authenticated user from the decrypted session.
// GET /api/auth/session
//
// Stateless read: always 200, anonymous is {"user": null}, and the cookie is
// not refreshed.
func (s *Service) GetSession(c *fiber.Ctx) error {
	sess := session.FromCtx(c)
	return c.Status(http.StatusOK).JSON(fiber.Map{"user": sess.User()})
}

// Logout destroys the session unconditionally.
// POST /api/auth/logout (other methods are rejected with 405 by the router)
func (s *Service) Logout(c *fiber.Ctx) error {
	session.FromCtx(c).Destroy()
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true})
}
