package ubl

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/jhoicas/shopper-invoicing/internal/domain/entity"
)

var nonAlnum = regexp.MustCompile(`[^0-9A-Za-z]`)

func onlyAlnum(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToUpper(s), "")
}

// DocumentKey calcula la clave única del documento (SHA-384, hex).
// Cadena sin separadores: invoice_uuid + fecha (YYYY-MM-DD) + neto + impuestos + bruto
// + identificación del emisor + identificación del receptor + process_uuid.
// Los montos van en unidades con cinco decimales.
func DocumentKey(req entity.InvoicingProcessRequest, company entity.CompanyFiscalData) (string, error) {
	inv := req.Invoice
	issuer := onlyAlnum(company.PrimaryIdentification().Value)
	if issuer == "" {
		return "", fmt.Errorf("ubl: el emisor no tiene identificación para la clave del documento")
	}
	receiver := onlyAlnum(inv.PartnerFiscalData.PrimaryIdentification().Value)
	if receiver == "" {
		return "", fmt.Errorf("ubl: el receptor no tiene identificación para la clave del documento")
	}
	chain := inv.UUID.String() +
		inv.CreatedAt.UTC().Format("2006-01-02") +
		inv.NetAmountE5().String() +
		inv.TotalTaxesE5().String() +
		inv.GrossAmountE5.String() +
		issuer +
		receiver +
		req.Process.UUID.String()
	sum := sha512.Sum384([]byte(chain))
	return hex.EncodeToString(sum[:]), nil
}
