package http

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/shopper-invoicing/internal/application/dto"
	"github.com/jhoicas/shopper-invoicing/internal/domain"
)

// SatelliteAuthMiddleware valida "Authorization: Bearer <base64(password)>" contra el secreto
// configurado. Si el secreto es un hash bcrypt se compara con bcrypt; si no, en tiempo constante.
func SatelliteAuthMiddleware(password string) fiber.Handler {
	hashed := isBcryptHash(password)
	return func(c *fiber.Ctx) error {
		parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return unauthorizedSatellite(c)
		}
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(parts[1]))
		if err != nil || len(decoded) == 0 {
			return unauthorizedSatellite(c)
		}
		if hashed {
			if bcrypt.CompareHashAndPassword([]byte(password), decoded) != nil {
				return unauthorizedSatellite(c)
			}
		} else if subtle.ConstantTimeCompare([]byte(password), decoded) != 1 {
			return unauthorizedSatellite(c)
		}
		return c.Next()
	}
}

func unauthorizedSatellite(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(
		dto.NewErrorResponse(domain.CodeUnauthorizedSatellite, domain.ErrUnauthorizedSatellite.Error()),
	)
}

func isBcryptHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}
