// Package portstest reúne dobles de prueba y la batería de contrato del InvoicingAdapter.
package portstest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/shopper-invoicing/internal/domain/entity"
)

// FakeAdapter adaptador en memoria configurable para pruebas de handlers y casos de uso.
type FakeAdapter struct {
	StartErr      error
	NotifyErr     error
	Healthy       bool
	PanicOnHealth bool

	mu            sync.Mutex
	StartCalls    [][]entity.InvoicingProcessRequest
	NotifiedCalls [][]entity.ExternalInvoiceData
}

// StartInvoicingProcess devuelve un ExternalInvoiceData aprobado por solicitud, en orden.
func (f *FakeAdapter) StartInvoicingProcess(_ context.Context, reqs []entity.InvoicingProcessRequest) ([]entity.ExternalInvoiceData, error) {
	f.mu.Lock()
	f.StartCalls = append(f.StartCalls, reqs)
	f.mu.Unlock()
	if f.StartErr != nil {
		return nil, f.StartErr
	}
	out := make([]entity.ExternalInvoiceData, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, entity.ExternalInvoiceData{
			UUID:          uuid.New(),
			CreatedAt:     time.Now().UTC(),
			ProcessStatus: entity.ProcessStatusApproved,
			ProviderData:  map[string]any{"process_uuid": r.Process.UUID.String()},
			CompanyFiscalData: entity.CompanyFiscalData{Identity: entity.Identity{
				FullName: "Fake Provider SA",
			}},
		})
	}
	return out, nil
}

// EmitNotification registra la llamada y devuelve NotifyErr.
func (f *FakeAdapter) EmitNotification(_ context.Context, invoices []entity.ExternalInvoiceData) error {
	f.mu.Lock()
	f.NotifiedCalls = append(f.NotifiedCalls, invoices)
	f.mu.Unlock()
	return f.NotifyErr
}

// ExternalServiceIsHealthy devuelve Healthy o entra en panic si así se configuró.
func (f *FakeAdapter) ExternalServiceIsHealthy(_ context.Context) bool {
	if f.PanicOnHealth {
		panic("fake: health explotó")
	}
	return f.Healthy
}

// Notified devuelve una copia de las notificaciones recibidas.
func (f *FakeAdapter) Notified() [][]entity.ExternalInvoiceData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]entity.ExternalInvoiceData(nil), f.NotifiedCalls...)
}
