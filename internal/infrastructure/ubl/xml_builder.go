package ubl

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/jhoicas/shopper-invoicing/internal/domain/entity"
)

// Namespaces UBL 2.1.
const (
	NsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NsCac     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NsCbc     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	NsExt     = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"

	// InvoiceElementID atributo Id del nodo raíz, referenciable desde una firma.
	InvoiceElementID = "invoice-id"
	// DefaultCurrency moneda usada cuando no se configura otra.
	DefaultCurrency = "MXN"
)

// XMLBuilder construye la representación UBL 2.1 de una factura.
type XMLBuilder struct {
	currency string
}

// NewXMLBuilder crea el builder. currency vacío usa DefaultCurrency.
func NewXMLBuilder(currency string) *XMLBuilder {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &XMLBuilder{currency: currency}
}

// Build genera el XML del documento. documentKey va en cbc:UUID; puede ir vacío.
func (b *XMLBuilder) Build(req entity.InvoicingProcessRequest, company entity.CompanyFiscalData, documentKey string) ([]byte, error) {
	inv := req.Invoice
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Invoice")
	root.CreateAttr("xmlns", NsInvoice)
	root.CreateAttr("xmlns:cac", NsCac)
	root.CreateAttr("xmlns:cbc", NsCbc)
	root.CreateAttr("xmlns:ext", NsExt)
	root.CreateAttr("Id", InvoiceElementID)

	// ext:UBLExtensions primero: un ExtensionContent vacío reservado para firma
	ext := root.CreateElement("ext:UBLExtensions").CreateElement("ext:UBLExtension")
	ext.CreateElement("ext:ExtensionContent")

	cbc(root, "UBLVersionID", "2.1")
	cbc(root, "CustomizationID", "shopper-invoicing")
	cbc(root, "ID", inv.UUID.String())
	if documentKey != "" {
		el := cbc(root, "UUID", documentKey)
		el.CreateAttr("schemeName", "SHA-384")
	}
	cbc(root, "IssueDate", inv.CreatedAt.UTC().Format("2006-01-02"))
	cbc(root, "IssueTime", inv.CreatedAt.UTC().Format("15:04:05Z"))
	cbc(root, "DocumentCurrencyCode", b.currency)
	cbc(root, "LineCountNumeric", strconv.Itoa(len(inv.Lines)))

	// Referencia al proceso que originó la factura
	ref := root.CreateElement("cac:AdditionalDocumentReference")
	cbc(ref, "ID", req.Process.UUID.String())
	cbc(ref, "DocumentType", "invoicing_process")
	cbc(ref, "DocumentStatusCode", string(req.Process.ProcessStatus))

	party(root.CreateElement("cac:AccountingSupplierParty"), company.Identity)
	party(root.CreateElement("cac:AccountingCustomerParty"), inv.PartnerFiscalData.Identity)

	if len(inv.Taxes) > 0 {
		b.taxTotal(root, inv.TotalTaxesE5(), inv.Taxes)
	}

	mt := root.CreateElement("cac:LegalMonetaryTotal")
	b.amount(mt, "LineExtensionAmount", inv.NetAmountE5())
	b.amount(mt, "TaxExclusiveAmount", inv.NetAmountE5())
	b.amount(mt, "TaxInclusiveAmount", inv.GrossAmountE5)
	b.amount(mt, "PayableAmount", inv.GrossAmountE5)

	for i, line := range inv.Lines {
		b.invoiceLine(root, i+1, line)
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("ubl: serializar XML: %w", err)
	}
	return out, nil
}

func cbc(parent *etree.Element, local, value string) *etree.Element {
	el := parent.CreateElement("cbc:" + local)
	el.SetText(value)
	return el
}

func (b *XMLBuilder) amount(parent *etree.Element, local string, v entity.AmountE5) {
	el := cbc(parent, local, v.String())
	el.CreateAttr("currencyID", b.currency)
}

// party escribe la identidad: nombre, identificaciones (una por entrada) y campos extra como contactos.
func party(parent *etree.Element, id entity.Identity) {
	p := parent.CreateElement("cac:Party")
	for _, f := range id.FormOfIdentification {
		pid := cbc(p.CreateElement("cac:PartyIdentification"), "ID", f.Value)
		pid.CreateAttr("schemeName", f.Name)
	}
	cbc(p.CreateElement("cac:PartyName"), "Name", id.FullName)
	if len(id.ExtraFields) == 0 {
		return
	}
	contact := p.CreateElement("cac:Contact")
	for _, f := range id.ExtraFields {
		if f.Name == "email" {
			cbc(contact, "ElectronicMail", f.Value)
			continue
		}
		note := cbc(contact, "Note", f.Value)
		note.CreateAttr("name", f.Name)
	}
}

func (b *XMLBuilder) taxTotal(parent *etree.Element, total entity.AmountE5, taxes []entity.TaxInformation) {
	tt := parent.CreateElement("cac:TaxTotal")
	b.amount(tt, "TaxAmount", total)
	for _, t := range taxes {
		sub := tt.CreateElement("cac:TaxSubtotal")
		b.amount(sub, "TaxableAmount", t.TaxableAmountE5)
		b.amount(sub, "TaxAmount", t.TaxAmountE5)
		cat := sub.CreateElement("cac:TaxCategory")
		cbc(cat, "Percent", t.Factor.Shift(2).String())
		cbc(cat, "TaxExemptionReason", t.FactorType)
		scheme := cat.CreateElement("cac:TaxScheme")
		cbc(scheme, "ID", t.Code)
		cbc(scheme, "Name", t.Description)
		cbc(scheme, "TaxTypeCode", t.Type)
	}
}

func (b *XMLBuilder) invoiceLine(parent *etree.Element, n int, line entity.InvoiceLine) {
	il := parent.CreateElement("cac:InvoiceLine")
	cbc(il, "ID", strconv.Itoa(n))
	q := cbc(il, "InvoicedQuantity", line.Quantity.String())
	q.CreateAttr("unitCode", line.Unit)
	b.amount(il, "LineExtensionAmount", line.TotalAmountE5)
	if len(line.Taxes) > 0 {
		var total entity.AmountE5
		for _, t := range line.Taxes {
			total += t.TaxAmountE5
		}
		b.taxTotal(il, total, line.Taxes)
	}
	cbc(il.CreateElement("cac:Item"), "Description", line.Description)
	b.amount(il.CreateElement("cac:Price"), "PriceAmount", line.AmountE5)
}
