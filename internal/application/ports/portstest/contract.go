package portstest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/shopper-invoicing/internal/application/ports"
	"github.com/jhoicas/shopper-invoicing/internal/domain/entity"
)

// NewRequest construye una solicitud válida y completa; seq varía los montos.
func NewRequest(seq int) entity.InvoicingProcessRequest {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	user := uuid.New()
	amount := entity.AmountE5(int64(seq+1) * 10_000_000)
	tax := entity.TaxInformation{
		Type: "transferred", Description: "IVA", Code: "002", FactorType: "Tasa",
		Factor:          decimal.RequireFromString("0.16"),
		TaxableAmountE5: amount,
		TaxAmountE5:     amount * 16 / 100,
	}
	return entity.InvoicingProcessRequest{
		Process: entity.InvoicingProcess{
			UUID:          uuid.New(),
			CreatedAt:     now,
			UpdatedAt:     now,
			UserUUID:      user,
			Requester:     fmt.Sprintf("requester-%d", seq),
			ProcessStatus: entity.ProcessStatusPending,
		},
		Invoice: entity.Invoice{
			UUID:          uuid.New(),
			CreatedAt:     now,
			UserUUID:      user,
			GrossAmountE5: amount + tax.TaxAmountE5,
			Lines: []entity.InvoiceLine{{
				Description:   fmt.Sprintf("Pedido %d", seq),
				Unit:          "E48",
				Quantity:      decimal.NewFromInt(1),
				AmountE5:      amount,
				TotalAmountE5: amount,
				Taxes:         []entity.TaxInformation{tax},
			}},
			Taxes: []entity.TaxInformation{tax},
			PartnerFiscalData: entity.PartnerFiscalData{Identity: entity.Identity{
				FullName:             fmt.Sprintf("Cliente %d", seq),
				FormOfIdentification: []entity.KeyValueField{{Name: "rfc", Value: "XAXX010101000"}},
				ExtraFields:          []entity.KeyValueField{{Name: "email", Value: fmt.Sprintf("cliente%d@example.com", seq)}},
			}},
		},
	}
}

// NewBatch construye n solicitudes distintas.
func NewBatch(n int) []entity.InvoicingProcessRequest {
	out := make([]entity.InvoicingProcessRequest, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, NewRequest(i))
	}
	return out
}

// RunAdapterContract verifica las garantías que toda integración debe cumplir:
// una salida por entrada en el mismo orden, notificación sobre el resultado y
// ExternalServiceIsHealthy sin panics ni bloqueos ante un contexto cancelado.
func RunAdapterContract(t *testing.T, adapter ports.InvoicingAdapter) {
	t.Helper()

	t.Run("lote preserva longitud y orden", func(t *testing.T) {
		batch := NewBatch(3)
		out, err := adapter.StartInvoicingProcess(context.Background(), batch)
		require.NoError(t, err)
		require.Len(t, out, len(batch))
		seen := make(map[uuid.UUID]bool, len(out))
		for _, e := range out {
			assert.NotEqual(t, uuid.Nil, e.UUID)
			assert.False(t, seen[e.UUID], "cada resultado tiene su propio uuid")
			seen[e.UUID] = true
		}
		if processUUIDs, ok := processUUIDsOf(out); ok {
			for i, r := range batch {
				assert.Equal(t, r.Process.UUID.String(), processUUIDs[i], "resultado %d fuera de orden", i)
			}
		}
	})

	t.Run("lote vacío", func(t *testing.T) {
		out, err := adapter.StartInvoicingProcess(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("notificación del resultado", func(t *testing.T) {
		out, err := adapter.StartInvoicingProcess(context.Background(), NewBatch(1))
		require.NoError(t, err)
		assert.NoError(t, adapter.EmitNotification(context.Background(), out))
	})

	t.Run("health con contexto cancelado no entra en panic", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NotPanics(t, func() { _ = adapter.ExternalServiceIsHealthy(ctx) })
	})
}

// processUUIDsOf usa provider_data.process_uuid cuando el adaptador lo expone para verificar el orden.
func processUUIDsOf(out []entity.ExternalInvoiceData) ([]string, bool) {
	ids := make([]string, 0, len(out))
	for _, e := range out {
		v, ok := e.ProviderData["process_uuid"].(string)
		if !ok {
			return nil, false
		}
		ids = append(ids, v)
	}
	return ids, true
}
