package ubl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/shopper-invoicing/internal/domain/entity"
)

// ErrInvalidInvoice agrupa errores de coherencia de una factura antes de emitirla.
var ErrInvalidInvoice = errors.New("factura incoherente")

// taxTolerance diferencia máxima admitida por redondeo en importes declarados frente a calculados (0.01).
const taxTolerance = entity.AmountE5(1_000)

// ValidateInvoice comprueba que la factura pueda emitirse:
// al menos una línea, cantidades positivas, montos no negativos, impuestos "Tasa"
// coherentes con base × factor, bruto igual a neto + impuestos y, si las líneas traen
// impuestos, que su suma coincida con la cabecera.
func ValidateInvoice(inv entity.Invoice) error {
	var errs []error

	if len(inv.Lines) == 0 {
		errs = append(errs, errors.New("la factura debe tener al menos una línea"))
	}
	if inv.GrossAmountE5 < 0 {
		errs = append(errs, fmt.Errorf("monto bruto negativo (%s)", inv.GrossAmountE5))
	}

	var lineTaxes entity.AmountE5
	lineHasTaxes := false
	for i, l := range inv.Lines {
		if !l.Quantity.IsPositive() {
			errs = append(errs, fmt.Errorf("línea %d: cantidad %s debe ser positiva", i, l.Quantity))
		}
		if l.AmountE5 < 0 || l.TotalAmountE5 < 0 {
			errs = append(errs, fmt.Errorf("línea %d: montos negativos", i))
		}
		for j, t := range l.Taxes {
			lineHasTaxes = true
			lineTaxes += t.TaxAmountE5
			if err := validateTax(t); err != nil {
				errs = append(errs, fmt.Errorf("línea %d, impuesto %d: %w", i, j, err))
			}
		}
	}
	for j, t := range inv.Taxes {
		if err := validateTax(t); err != nil {
			errs = append(errs, fmt.Errorf("impuesto %d: %w", j, err))
		}
	}

	// Impuestos de cabecera coherentes con las líneas.
	if lineHasTaxes && lineTaxes != inv.TotalTaxesE5() {
		errs = append(errs, fmt.Errorf("impuestos de cabecera (%s) no coinciden con la suma por línea (%s)",
			inv.TotalTaxesE5(), lineTaxes))
	}

	// El bruto es el total a pagar: neto de las líneas más impuestos de cabecera.
	if len(inv.Lines) > 0 {
		expected := inv.NetAmountE5() + inv.TotalTaxesE5()
		if diff := abs(inv.GrossAmountE5 - expected); diff > taxTolerance {
			errs = append(errs, fmt.Errorf("monto bruto (%s) no coincide con neto + impuestos (%s)",
				inv.GrossAmountE5, expected))
		}
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidInvoice}, errs...)...)
	}
	return nil
}

func validateTax(t entity.TaxInformation) error {
	if t.TaxableAmountE5 < 0 || t.TaxAmountE5 < 0 {
		return errors.New("montos negativos")
	}
	if !strings.EqualFold(t.FactorType, "Tasa") {
		return nil
	}
	expected := entity.AmountE5(decimal.NewFromInt(t.TaxableAmountE5.Int64()).Mul(t.Factor).Round(0).IntPart())
	if abs(expected-t.TaxAmountE5) > taxTolerance {
		return fmt.Errorf("%s %s: impuesto %s no corresponde a base %s × %s",
			t.Description, t.Code, t.TaxAmountE5, t.TaxableAmountE5, t.Factor)
	}
	return nil
}

func abs(a entity.AmountE5) entity.AmountE5 {
	if a < 0 {
		return -a
	}
	return a
}
