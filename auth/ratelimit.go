package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/soluspay/authgate/apperr"
	"github.com/soluspay/authgate/fields"
)

const loginRateKeyPrefix = "authgate:login_rate:"

// LoginRateLimiter counts initiations per client IP in redis. A redis outage
// degrades to no limiting rather than locking everyone out.
func (s *Service) LoginRateLimiter() fiber.Handler {
	limit := int64(s.Config.LoginRateLimit)
	return func(c *fiber.Ctx) error {
		if s.Redis == nil || limit <= 0 {
			return c.Next()
		}
		ctx := c.UserContext()
		key := loginRateKeyPrefix + c.IP()
		count, err := s.Redis.Incr(ctx, key).Result()
		if err != nil {
			s.Logger.WithError(err).Warn("login rate limiter unavailable")
			return c.Next()
		}
		if count == 1 {
			s.Redis.Expire(ctx, key, time.Minute)
		}
		if count > limit {
			fields.CountLogin(c.Query("provider"), "rate_limited")
			return respondError(c, apperr.ErrRateLimited)
		}
		return c.Next()
	}
}
