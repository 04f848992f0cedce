package ports

import (
	"context"

	"github.com/jhoicas/shopper-invoicing/internal/domain/entity"
)

// InvoiceDocument datos necesarios para representar una factura emitida.
type InvoiceDocument struct {
	Request     entity.InvoicingProcessRequest
	Company     entity.CompanyFiscalData
	DocumentKey string
}

// InvoicePDFGenerator genera la representación gráfica (PDF) de una factura.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, doc InvoiceDocument) ([]byte, error)
}
