package dto

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/jhoicas/shopper-invoicing/internal/domain/entity"
)

// TimestampLayout formato con el que se serializan las marcas de tiempo.
const TimestampLayout = time.RFC3339Nano

// KeyValueFieldDTO par nombre/valor.
type KeyValueFieldDTO struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// IdentityDTO identidad fiscal (receptor o emisor).
type IdentityDTO struct {
	FullName             string             `json:"full_name"`
	FormOfIdentification []KeyValueFieldDTO `json:"form_of_identification"`
	ExtraFields          []KeyValueFieldDTO `json:"extra_fields"`
}

// TaxInformationDTO impuesto. Montos e5 y factor viajan como números JSON.
type TaxInformationDTO struct {
	Type            string      `json:"type"`
	Description     string      `json:"description"`
	Code            string      `json:"code"`
	FactorType      string      `json:"factor_type"`
	Factor          json.Number `json:"factor"`
	TaxableAmountE5 json.Number `json:"taxable_amount_e5"`
	TaxAmountE5     json.Number `json:"tax_amount_e5"`
}

// InvoiceLineDTO línea de factura.
type InvoiceLineDTO struct {
	Description   string              `json:"description"`
	Unit          string              `json:"unit"`
	Quantity      json.Number         `json:"quantity"`
	AmountE5      json.Number         `json:"amount_e5"`
	TotalAmountE5 json.Number         `json:"total_amount_e5"`
	Taxes         []TaxInformationDTO `json:"taxes"`
}

// InvoiceDTO factura.
type InvoiceDTO struct {
	UUID              string              `json:"uuid"`
	CreatedAt         string              `json:"created_at"`
	UserUUID          string              `json:"user_uuid"`
	GrossAmountE5     json.Number         `json:"gross_amount_e5"`
	Lines             []InvoiceLineDTO    `json:"lines"`
	Taxes             []TaxInformationDTO `json:"taxes"`
	PartnerFiscalData IdentityDTO         `json:"partner_fiscal_data"`
}

// InvoicingProcessDTO proceso de facturación.
type InvoicingProcessDTO struct {
	UUID          string `json:"uuid"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
	UserUUID      string `json:"user_uuid"`
	Requester     string `json:"requester"`
	ProcessStatus string `json:"process_status"`
}

// InvoicingProcessRequestDTO elemento del body de POST /invoicing/process/start.
type InvoicingProcessRequestDTO struct {
	Process InvoicingProcessDTO `json:"process"`
	Invoice InvoiceDTO          `json:"invoice"`
}

// ExternalInvoiceDataDTO resultado del proveedor.
type ExternalInvoiceDataDTO struct {
	UUID              string         `json:"uuid"`
	CreatedAt         string         `json:"created_at"`
	ProcessStatus     string         `json:"process_status"`
	ProviderData      map[string]any `json:"provider_data"`
	CompanyFiscalData IdentityDTO    `json:"company_fiscal_data"`
}

// StartInvoicingResultDTO data de la respuesta cuando se devuelve el resultado del proveedor.
type StartInvoicingResultDTO struct {
	ExternalInvoices []ExternalInvoiceDataDTO `json:"external_invoices"`
}

// ── entity → DTO ─────────────────────────────────────────────────────────────

// NewInvoicingProcessRequestDTOs convierte un lote de entidades a su forma de transporte.
func NewInvoicingProcessRequestDTOs(reqs []entity.InvoicingProcessRequest) []InvoicingProcessRequestDTO {
	out := make([]InvoicingProcessRequestDTO, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, NewInvoicingProcessRequestDTO(r))
	}
	return out
}

// NewInvoicingProcessRequestDTO convierte una solicitud.
func NewInvoicingProcessRequestDTO(r entity.InvoicingProcessRequest) InvoicingProcessRequestDTO {
	p := r.Process
	inv := r.Invoice
	lines := make([]InvoiceLineDTO, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lines = append(lines, InvoiceLineDTO{
			Description:   l.Description,
			Unit:          l.Unit,
			Quantity:      json.Number(l.Quantity.String()),
			AmountE5:      amountNumber(l.AmountE5),
			TotalAmountE5: amountNumber(l.TotalAmountE5),
			Taxes:         taxDTOs(l.Taxes),
		})
	}
	return InvoicingProcessRequestDTO{
		Process: InvoicingProcessDTO{
			UUID:          p.UUID.String(),
			CreatedAt:     p.CreatedAt.Format(TimestampLayout),
			UpdatedAt:     p.UpdatedAt.Format(TimestampLayout),
			UserUUID:      p.UserUUID.String(),
			Requester:     p.Requester,
			ProcessStatus: string(p.ProcessStatus),
		},
		Invoice: InvoiceDTO{
			UUID:              inv.UUID.String(),
			CreatedAt:         inv.CreatedAt.Format(TimestampLayout),
			UserUUID:          inv.UserUUID.String(),
			GrossAmountE5:     amountNumber(inv.GrossAmountE5),
			Lines:             lines,
			Taxes:             taxDTOs(inv.Taxes),
			PartnerFiscalData: identityDTO(inv.PartnerFiscalData.Identity),
		},
	}
}

// NewExternalInvoiceDataDTOs convierte el resultado del proveedor a su forma de transporte.
func NewExternalInvoiceDataDTOs(items []entity.ExternalInvoiceData) []ExternalInvoiceDataDTO {
	out := make([]ExternalInvoiceDataDTO, 0, len(items))
	for _, e := range items {
		providerData := e.ProviderData
		if providerData == nil {
			providerData = map[string]any{}
		}
		out = append(out, ExternalInvoiceDataDTO{
			UUID:              e.UUID.String(),
			CreatedAt:         e.CreatedAt.Format(TimestampLayout),
			ProcessStatus:     string(e.ProcessStatus),
			ProviderData:      providerData,
			CompanyFiscalData: identityDTO(e.CompanyFiscalData.Identity),
		})
	}
	return out
}

func amountNumber(a entity.AmountE5) json.Number {
	return json.Number(strconv.FormatInt(a.Int64(), 10))
}

func taxDTOs(taxes []entity.TaxInformation) []TaxInformationDTO {
	out := make([]TaxInformationDTO, 0, len(taxes))
	for _, t := range taxes {
		out = append(out, TaxInformationDTO{
			Type:            t.Type,
			Description:     t.Description,
			Code:            t.Code,
			FactorType:      t.FactorType,
			Factor:          json.Number(t.Factor.String()),
			TaxableAmountE5: amountNumber(t.TaxableAmountE5),
			TaxAmountE5:     amountNumber(t.TaxAmountE5),
		})
	}
	return out
}

func identityDTO(id entity.Identity) IdentityDTO {
	return IdentityDTO{
		FullName:             id.FullName,
		FormOfIdentification: keyValueDTOs(id.FormOfIdentification),
		ExtraFields:          keyValueDTOs(id.ExtraFields),
	}
}

func keyValueDTOs(fields []entity.KeyValueField) []KeyValueFieldDTO {
	out := make([]KeyValueFieldDTO, 0, len(fields))
	for _, f := range fields {
		out = append(out, KeyValueFieldDTO{Name: f.Name, Value: f.Value})
	}
	return out
}
