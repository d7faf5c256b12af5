package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/loboISC/arrendamiento-sub002/internal/application/facturacion"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Facturacion *facturacion.Service
	JWTSecret   string
}

// Router registra las rutas de la API de facturación.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Todo el módulo de facturación requiere Bearer Token.
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	facturas := protected.Group("/facturas")
	handler := NewFacturaHandler(deps.Facturacion)
	facturas.Post("/", handler.Timbrar)
	facturas.Get("/:uuid", handler.GetByUUID)
	facturas.Post("/:uuid/cancelar", handler.Cancelar)
	facturas.Get("/:uuid/xml", handler.XML)
	facturas.Get("/:uuid/pdf", handler.PDF)
}
