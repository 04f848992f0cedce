package ubl_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/shopper-invoicing/internal/application/ports/portstest"
	"github.com/jhoicas/shopper-invoicing/internal/domain/entity"
	"github.com/jhoicas/shopper-invoicing/internal/infrastructure/ubl"
)

func TestValidateInvoice_Coherente(t *testing.T) {
	assert.NoError(t, ubl.ValidateInvoice(portstest.NewRequest(3).Invoice))
}

func TestValidateInvoice_Incoherencias(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(inv *entity.Invoice)
	}{
		{"sin líneas", func(inv *entity.Invoice) { inv.Lines = nil }},
		{"cantidad cero", func(inv *entity.Invoice) { inv.Lines[0].Quantity = decimal.Zero }},
		{"monto de línea negativo", func(inv *entity.Invoice) { inv.Lines[0].TotalAmountE5 = -1 }},
		{"bruto negativo", func(inv *entity.Invoice) { inv.GrossAmountE5 = -1 }},
		{"bruto sin impuestos", func(inv *entity.Invoice) { inv.GrossAmountE5 = inv.NetAmountE5() }},
		{"impuestos sumados dos veces", func(inv *entity.Invoice) {
			inv.GrossAmountE5 = inv.NetAmountE5() + 2*inv.TotalTaxesE5()
		}},
		{"cabecera distinta de líneas", func(inv *entity.Invoice) {
			inv.Taxes = []entity.TaxInformation{inv.Taxes[0], inv.Taxes[0]}
		}},
		{"tasa mal calculada", func(inv *entity.Invoice) {
			tax := inv.Lines[0].Taxes[0]
			tax.TaxAmountE5 += 5_000
			inv.Lines[0].Taxes = []entity.TaxInformation{tax}
			inv.Taxes = []entity.TaxInformation{tax}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := portstest.NewRequest(0).Invoice
			tt.mutate(&inv)
			assert.ErrorIs(t, ubl.ValidateInvoice(inv), ubl.ErrInvalidInvoice)
		})
	}
}

func TestValidateInvoice_ToleraRedondeo(t *testing.T) {
	inv := portstest.NewRequest(0).Invoice
	tax := inv.Lines[0].Taxes[0]
	tax.TaxAmountE5 += 1_000
	inv.Lines[0].Taxes = []entity.TaxInformation{tax}
	inv.Taxes = []entity.TaxInformation{tax}
	assert.NoError(t, ubl.ValidateInvoice(inv))
}

func TestValidateInvoice_CuotaNoSeRecalcula(t *testing.T) {
	inv := portstest.NewRequest(0).Invoice
	tax := inv.Lines[0].Taxes[0]
	tax.FactorType = "Cuota"
	tax.TaxAmountE5 = 123
	inv.Lines[0].Taxes = []entity.TaxInformation{tax}
	inv.Taxes = []entity.TaxInformation{tax}
	inv.GrossAmountE5 = inv.NetAmountE5() + 123
	assert.NoError(t, ubl.ValidateInvoice(inv))
}
