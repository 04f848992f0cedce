package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice factura asociada a un proceso de facturación. Los montos están en punto fijo e5.
// GrossAmountE5 es el total a pagar, impuestos incluidos.
type Invoice struct {
	UUID              uuid.UUID
	CreatedAt         time.Time
	UserUUID          uuid.UUID
	GrossAmountE5     AmountE5
	Lines             []InvoiceLine
	Taxes             []TaxInformation
	PartnerFiscalData PartnerFiscalData
}

// InvoiceLine línea de detalle de la factura.
type InvoiceLine struct {
	Description   string
	Unit          string
	Quantity      decimal.Decimal
	AmountE5      AmountE5
	TotalAmountE5 AmountE5
	Taxes         []TaxInformation
}

// TaxInformation impuesto aplicado a la factura o a una línea.
type TaxInformation struct {
	Type            string
	Description     string
	Code            string
	FactorType      string          // Tasa, Cuota, Exento...
	Factor          decimal.Decimal // 0.16, 0.19...
	TaxableAmountE5 AmountE5
	TaxAmountE5     AmountE5
}

// NetAmountE5 importe antes de impuestos: suma de los totales de línea.
func (i Invoice) NetAmountE5() AmountE5 {
	var total AmountE5
	for _, l := range i.Lines {
		total += l.TotalAmountE5
	}
	return total
}

// TotalTaxesE5 suma los impuestos de la cabecera.
func (i Invoice) TotalTaxesE5() AmountE5 {
	var total AmountE5
	for _, t := range i.Taxes {
		total += t.TaxAmountE5
	}
	return total
}
