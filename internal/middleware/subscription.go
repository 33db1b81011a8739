package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"vidstream_backend/internal/service"
	"vidstream_backend/pkg/utils/jwt"
)

// RequireActiveSubscription içerik uçlarının önündeki erişim kapısıdır.
// Kullanılabilir abonelik yoksa reddeder; süresi geçmiş aktif kayıt okuma
// anında expire edilir. Çözümlenen abonelik downstream handler'lar için
// c.Locals("subscription") ile yayınlanır (kalite/çözünürlük yetkisi).
func RequireActiveSubscription(subs *service.SubscriptionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)

		sub, err := subs.CheckAccess(claims.UserID)
		if err != nil {
			if errors.Is(err, service.ErrNoActiveSubscription) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "An active subscription is required to access this content",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not verify subscription",
			})
		}

		c.Locals("subscription", sub)
		return c.Next()
	}
}
