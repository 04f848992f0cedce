package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/shopper-invoicing/internal/application/dto"
	"github.com/jhoicas/shopper-invoicing/internal/application/invoicing"
	"github.com/jhoicas/shopper-invoicing/internal/domain"
)

// InvoicingHandler maneja el inicio de procesos de facturación.
type InvoicingHandler struct {
	uc         *invoicing.StartProcessUseCase
	echoResult bool
}

// NewInvoicingHandler construye el handler.
func NewInvoicingHandler(uc *invoicing.StartProcessUseCase, echoResult bool) *InvoicingHandler {
	return &InvoicingHandler{uc: uc, echoResult: echoResult}
}

// Start interpreta el lote, lo delega al proveedor y emite la notificación.
// POST /invoicing/process/start
func (h *InvoicingHandler) Start(c *fiber.Ctx) error {
	reqs, err := dto.ParseInvoicingProcessRequests(c.Body())
	if err != nil {
		return writeError(c, err)
	}
	external, err := h.uc.Start(c.UserContext(), reqs)
	if err != nil {
		return writeError(c, err)
	}
	if h.echoResult {
		return c.JSON(dto.Response{Data: dto.StartInvoicingResultDTO{
			ExternalInvoices: dto.NewExternalInvoiceDataDTOs(external),
		}})
	}
	return c.JSON(dto.Response{Data: dto.EmptyObject{}})
}

// writeError traduce errores de aplicación al sobre {"error_details":[...]}.
func writeError(c *fiber.Ctx, err error) error {
	var malformed *domain.MalformedRequestError
	if errors.As(err, &malformed) {
		details := make([]dto.ErrorDetail, 0, len(malformed.Violations))
		for _, v := range malformed.Violations {
			details = append(details, dto.ErrorDetail{Code: domain.CodeMalformedRequest, Message: v.String()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{ErrorDetails: details})
	}
	if pe, ok := domain.AsProviderError(err); ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.NewErrorResponse(pe.Code, pe.Message))
	}
	if errors.Is(err, domain.ErrUnauthorizedSatellite) {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.NewErrorResponse(domain.CodeUnauthorizedSatellite, err.Error()))
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.NewErrorResponse(domain.CodeInternal, "error interno"))
}
