package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/soluspay/authgate/apperr"
)

func jsonUnmarshal(body []byte, dst interface{}) error {
	if len(body) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(body, dst)
}

func respondError(c *fiber.Ctx, err error) error {
	return c.Status(apperr.Status(err)).JSON(apperr.Payload(err))
}

// classifyUpstream maps transport failures onto the error taxonomy before
// they reach a response. Timeouts are distinguished so operators can tell a
// slow provider from a broken one.
func classifyUpstream(err error) error {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		os.IsTimeout(err),
		errors.As(err, &ne) && ne.Timeout():
		return apperr.Wrap(err, apperr.ErrUpstreamTimeout, "")
	default:
		return apperr.Wrap(err, apperr.ErrUpstream, "")
	}
}

// redirectError sends the browser back to the app's error page with a coarse
// error kind only; the cause stays in the server log.
func (s *Service) redirectError(c *fiber.Ctx, kind string) error {
	target := s.Config.ErrorRedirectPath + "?error=" + url.QueryEscape(kind)
	return c.Redirect(target, fiber.StatusFound)
}

func (s *Service) redirectSuccess(c *fiber.Ctx, provider string) error {
	target := s.Config.SuccessRedirectPath + "?oauth_success=true&provider=" + url.QueryEscape(provider)
	return c.Redirect(target, fiber.StatusFound)
}
