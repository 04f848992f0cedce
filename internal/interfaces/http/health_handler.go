package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/shopper-invoicing/internal/application/dto"
	"github.com/jhoicas/shopper-invoicing/internal/application/invoicing"
)

// HealthHandler salud del proceso y del proveedor externo.
type HealthHandler struct {
	uc *invoicing.HealthUseCase
}

// NewHealthHandler construye el handler.
func NewHealthHandler(uc *invoicing.HealthUseCase) *HealthHandler {
	return &HealthHandler{uc: uc}
}

// Healthz el proceso está vivo. No consulta al proveedor.
// GET /healthz
func (h *HealthHandler) Healthz(c *fiber.Ctx) error {
	return c.JSON(dto.EmptyObject{})
}

// ExternalHealth 200 si el proveedor responde sano, 503 en cualquier otro caso.
// GET /external_health
func (h *HealthHandler) ExternalHealth(c *fiber.Ctx) error {
	if h.uc.ExternalServiceIsHealthy(c.UserContext()) {
		return c.JSON(dto.EmptyObject{})
	}
	return c.Status(fiber.StatusServiceUnavailable).JSON(dto.EmptyObject{})
}
