package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/loboISC/arrendamiento-sub002/internal/application/dto"
	"github.com/loboISC/arrendamiento-sub002/internal/application/facturacion"
	"github.com/loboISC/arrendamiento-sub002/internal/domain"
	domcfdi "github.com/loboISC/arrendamiento-sub002/internal/domain/cfdi"
)

// FacturaHandler maneja las peticiones HTTP de facturación (protegido).
type FacturaHandler struct {
	svc *facturacion.Service
}

func NewFacturaHandler(svc *facturacion.Service) *FacturaHandler {
	return &FacturaHandler{svc: svc}
}

// Timbrar valida el borrador recibido y lo timbra con el PAC.
// POST /api/facturas
func (h *FacturaHandler) Timbrar(c *fiber.Ctx) error {
	var in dto.TimbrarFacturaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	borrador, err := in.ToBorrador()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	factura, err := h.svc.TimbrarBorrador(c.Context(), borrador)
	if err != nil {
		return responderErrorTimbrado(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FacturaFromEntity(factura))
}

// GetByUUID devuelve la factura por su folio fiscal.
// GET /api/facturas/:uuid
func (h *FacturaHandler) GetByUUID(c *fiber.Ctx) error {
	factura, err := h.svc.ObtenerPorUUID(c.Context(), c.Params("uuid"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.FacturaFromEntity(factura))
}

// Cancelar solicita la cancelación ante el SAT.
// POST /api/facturas/:uuid/cancelar
func (h *FacturaHandler) Cancelar(c *fiber.Ctx) error {
	var in dto.CancelarFacturaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	factura, err := h.svc.Cancelar(c.Context(), c.Params("uuid"), in.Motivo, in.FolioSustitucion)
	if err != nil {
		return responderErrorTimbrado(c, err)
	}
	return c.JSON(dto.FacturaFromEntity(factura))
}

// XML sirve el CFDI timbrado tal cual se persistió.
// GET /api/facturas/:uuid/xml
func (h *FacturaHandler) XML(c *fiber.Ctx) error {
	factura, err := h.svc.ObtenerPorUUID(c.Context(), c.Params("uuid"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if len(factura.XML) == 0 {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NOT_STAMPED", Message: "la factura no tiene XML timbrado"})
	}
	c.Set(fiber.HeaderContentType, "application/xml; charset=utf-8")
	return c.Send(factura.XML)
}

// PDF sirve la representación impresa; si no existe, la genera desde el XML.
// GET /api/facturas/:uuid/pdf
func (h *FacturaHandler) PDF(c *fiber.Ctx) error {
	factura, err := h.svc.ObtenerPorUUID(c.Context(), c.Params("uuid"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	pdf := factura.PDF
	if len(pdf) == 0 {
		if pdf, err = h.svc.RegenerarPDF(c.Context(), factura.ID); err != nil {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "RENDER_FAILED", Message: err.Error()})
		}
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.Send(pdf)
}

// responderErrorTimbrado mapea la taxonomía de errores del dominio a HTTP.
// Los rechazos del PAC llevan sus mensajes verbatim en Details.
func responderErrorTimbrado(c *fiber.Ctx, err error) error {
	var rechazo *domain.RechazoPACError
	switch {
	case errors.As(err, &rechazo):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:    "PAC_REJECTED",
			Message: "el PAC rechazó el comprobante",
			Details: rechazo.Mensajes,
		})
	case errors.Is(err, domcfdi.ErrBorradorInvalido), errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrTimbradoEnCurso):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "STAMPING_IN_PROGRESS", Message: err.Error()})
	case errors.Is(err, domain.ErrTransicionInvalida), errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: err.Error()})
	case errors.Is(err, domain.ErrPACNoDisponible):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "PAC_UNAVAILABLE", Message: "el PAC no está disponible; reintente con el mismo folio"})
	case errors.Is(err, domain.ErrCredencialNoDisponible), errors.Is(err, domain.ErrCredencialInvalida), errors.Is(err, domain.ErrFalloSellado):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "CSD", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
