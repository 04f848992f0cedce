package ports

import (
	"context"

	"github.com/jhoicas/shopper-invoicing/internal/domain/entity"
)

// InvoicingAdapter define el puerto de salida hacia el proveedor externo de facturación.
// Cada integración concreta (sandbox, REST, ...) implementa las tres operaciones; la
// selección ocurre al arrancar el proceso según la configuración.
type InvoicingAdapter interface {
	// StartInvoicingProcess procesa el lote completo o falla con *domain.ProviderError.
	// Devuelve exactamente un ExternalInvoiceData por solicitud, en el mismo orden.
	// No hay éxito parcial.
	StartInvoicingProcess(ctx context.Context, requests []entity.InvoicingProcessRequest) ([]entity.ExternalInvoiceData, error)

	// EmitNotification avisa al proveedor (o al receptor) del resultado.
	// Su fallo no deshace lo ya devuelto por StartInvoicingProcess.
	EmitNotification(ctx context.Context, invoices []entity.ExternalInvoiceData) error

	// ExternalServiceIsHealthy nunca falla: cualquier problema interno se traduce en false.
	ExternalServiceIsHealthy(ctx context.Context) bool
}
