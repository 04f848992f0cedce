package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/shopper-invoicing/internal/application/invoicing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StartProcess      *invoicing.StartProcessUseCase
	Health            *invoicing.HealthUseCase
	SatellitePassword string // vacío desactiva la autenticación del satélite
	EchoResult        bool
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	healthHandler := NewHealthHandler(deps.Health)
	app.Get("/healthz", healthHandler.Healthz)
	app.Get("/external_health", healthHandler.ExternalHealth)

	// Rutas del satélite (protegidas si hay SATELLITE_PASSWORD)
	var guards []fiber.Handler
	if deps.SatellitePassword != "" {
		guards = append(guards, SatelliteAuthMiddleware(deps.SatellitePassword))
	}
	group := app.Group("/invoicing", guards...)
	invoicingHandler := NewInvoicingHandler(deps.StartProcess, deps.EchoResult)
	group.Post("/process/start", invoicingHandler.Start)
}
