package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExternalInvoiceData resultado de un proceso en el proveedor externo.
// ProviderData es opaco para esta capa y se transporta sin interpretar.
type ExternalInvoiceData struct {
	UUID              uuid.UUID
	CreatedAt         time.Time
	ProcessStatus     ProcessStatus
	ProviderData      map[string]any
	CompanyFiscalData CompanyFiscalData
}
