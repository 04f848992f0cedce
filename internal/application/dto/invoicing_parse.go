package dto

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/shopper-invoicing/internal/domain"
	"github.com/jhoicas/shopper-invoicing/internal/domain/entity"
)

//go:embed schema/invoicing_process_request.json
var invoicingRequestSchemaJSON []byte

const invoicingRequestSchemaURL = "invoicing_process_request.json"

var invoicingRequestSchema = mustCompileSchema(invoicingRequestSchemaURL, invoicingRequestSchemaJSON)

func mustCompileSchema(url string, raw []byte) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("dto: agregar schema %s: %v", url, err))
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("dto: compilar schema %s: %v", url, err))
	}
	return schema
}

// timestampLayouts formatos aceptados al leer fechas. Sin zona horaria se asume UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseInvoicingProcessRequests interpreta el body de POST /invoicing/process/start.
//
// Primero valida la estructura contra el JSON Schema embebido y después convierte
// identificadores, fechas, montos e5 y decimales. Cualquier problema devuelve
// *domain.MalformedRequestError con la ruta (JSON Pointer) de cada campo inválido.
func ParseInvoicingProcessRequests(body []byte) ([]entity.InvoicingProcessRequest, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, domain.NewMalformedRequest("", "body vacío")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, domain.NewMalformedRequest("", "JSON inválido: "+err.Error())
	}
	if dec.More() {
		return nil, domain.NewMalformedRequest("", "JSON inválido: contenido adicional después del documento")
	}
	if err := invoicingRequestSchema.Validate(doc); err != nil {
		return nil, schemaViolations(err)
	}

	var dtos []InvoicingProcessRequestDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, domain.NewMalformedRequest("", err.Error())
	}
	return InvoicingProcessRequestsFromDTOs(dtos)
}

// InvoicingProcessRequestsFromDTOs convierte DTOs ya decodificados en entidades.
func InvoicingProcessRequestsFromDTOs(dtos []InvoicingProcessRequestDTO) ([]entity.InvoicingProcessRequest, error) {
	c := &converter{}
	out := make([]entity.InvoicingProcessRequest, 0, len(dtos))
	for i, d := range dtos {
		base := "/" + strconv.Itoa(i)
		out = append(out, entity.InvoicingProcessRequest{
			Process: c.process(base+"/process", d.Process),
			Invoice: c.invoice(base+"/invoice", d.Invoice),
		})
	}
	if err := c.err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ExternalInvoiceDataFromDTOs convierte la respuesta de un proveedor en entidades.
func ExternalInvoiceDataFromDTOs(dtos []ExternalInvoiceDataDTO) ([]entity.ExternalInvoiceData, error) {
	c := &converter{}
	out := make([]entity.ExternalInvoiceData, 0, len(dtos))
	for i, d := range dtos {
		base := "/" + strconv.Itoa(i)
		out = append(out, entity.ExternalInvoiceData{
			UUID:              c.uuid(base+"/uuid", d.UUID),
			CreatedAt:         c.timestamp(base+"/created_at", d.CreatedAt),
			ProcessStatus:     entity.ProcessStatus(d.ProcessStatus),
			ProviderData:      d.ProviderData,
			CompanyFiscalData: entity.CompanyFiscalData{Identity: c.identity(d.CompanyFiscalData)},
		})
	}
	if err := c.err(); err != nil {
		return nil, err
	}
	return out, nil
}

// schemaViolations aplana el árbol de errores del schema quedándose con las hojas.
func schemaViolations(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return domain.NewMalformedRequest("", err.Error())
	}
	var violations []domain.Violation
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			violations = append(violations, domain.Violation{Path: e.InstanceLocation, Reason: e.Message})
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)
	sort.SliceStable(violations, func(i, j int) bool { return pointerLess(violations[i].Path, violations[j].Path) })
	return &domain.MalformedRequestError{Violations: violations}
}

// pointerLess ordena JSON Pointers segmento a segmento; los índices se comparan como números
// para que /2 quede antes que /10.
func pointerLess(a, b string) bool {
	as, bs := strings.Split(a, "/"), strings.Split(b, "/")
	for k := 0; k < len(as) && k < len(bs); k++ {
		if as[k] == bs[k] {
			continue
		}
		ai, aErr := strconv.Atoi(as[k])
		bi, bErr := strconv.Atoi(bs[k])
		if aErr == nil && bErr == nil {
			return ai < bi
		}
		return as[k] < bs[k]
	}
	return len(as) < len(bs)
}

// converter acumula violaciones mientras convierte campos con ruta conocida.
type converter struct {
	violations []domain.Violation
}

func (c *converter) fail(path, reason string) {
	c.violations = append(c.violations, domain.Violation{Path: path, Reason: reason})
}

func (c *converter) err() error {
	if len(c.violations) == 0 {
		return nil
	}
	return &domain.MalformedRequestError{Violations: c.violations}
}

func (c *converter) uuid(path, s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		c.fail(path, "UUID inválido")
	}
	return id
}

func (c *converter) timestamp(path, s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	c.fail(path, fmt.Sprintf("fecha %q no reconocida", s))
	return time.Time{}
}

func (c *converter) amount(path string, n json.Number) entity.AmountE5 {
	a, err := entity.ParseAmountE5(n.String())
	if err != nil {
		c.fail(path, err.Error())
	}
	return a
}

func (c *converter) decimal(path string, n json.Number) decimal.Decimal {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		c.fail(path, fmt.Sprintf("decimal %q inválido", n.String()))
	}
	return d
}

func (c *converter) process(path string, d InvoicingProcessDTO) entity.InvoicingProcess {
	return entity.InvoicingProcess{
		UUID:          c.uuid(path+"/uuid", d.UUID),
		CreatedAt:     c.timestamp(path+"/created_at", d.CreatedAt),
		UpdatedAt:     c.timestamp(path+"/updated_at", d.UpdatedAt),
		UserUUID:      c.uuid(path+"/user_uuid", d.UserUUID),
		Requester:     d.Requester,
		ProcessStatus: entity.ProcessStatus(d.ProcessStatus),
	}
}

func (c *converter) invoice(path string, d InvoiceDTO) entity.Invoice {
	lines := make([]entity.InvoiceLine, 0, len(d.Lines))
	for i, l := range d.Lines {
		lp := path + "/lines/" + strconv.Itoa(i)
		lines = append(lines, entity.InvoiceLine{
			Description:   l.Description,
			Unit:          l.Unit,
			Quantity:      c.decimal(lp+"/quantity", l.Quantity),
			AmountE5:      c.amount(lp+"/amount_e5", l.AmountE5),
			TotalAmountE5: c.amount(lp+"/total_amount_e5", l.TotalAmountE5),
			Taxes:         c.taxes(lp+"/taxes", l.Taxes),
		})
	}
	return entity.Invoice{
		UUID:              c.uuid(path+"/uuid", d.UUID),
		CreatedAt:         c.timestamp(path+"/created_at", d.CreatedAt),
		UserUUID:          c.uuid(path+"/user_uuid", d.UserUUID),
		GrossAmountE5:     c.amount(path+"/gross_amount_e5", d.GrossAmountE5),
		Lines:             lines,
		Taxes:             c.taxes(path+"/taxes", d.Taxes),
		PartnerFiscalData: entity.PartnerFiscalData{Identity: c.identity(d.PartnerFiscalData)},
	}
}

func (c *converter) taxes(path string, in []TaxInformationDTO) []entity.TaxInformation {
	out := make([]entity.TaxInformation, 0, len(in))
	for i, t := range in {
		tp := path + "/" + strconv.Itoa(i)
		out = append(out, entity.TaxInformation{
			Type:            t.Type,
			Description:     t.Description,
			Code:            t.Code,
			FactorType:      t.FactorType,
			Factor:          c.decimal(tp+"/factor", t.Factor),
			TaxableAmountE5: c.amount(tp+"/taxable_amount_e5", t.TaxableAmountE5),
			TaxAmountE5:     c.amount(tp+"/tax_amount_e5", t.TaxAmountE5),
		})
	}
	return out
}

func (c *converter) identity(d IdentityDTO) entity.Identity {
	return entity.Identity{
		FullName:             d.FullName,
		FormOfIdentification: keyValues(d.FormOfIdentification),
		ExtraFields:          keyValues(d.ExtraFields),
	}
}

func keyValues(in []KeyValueFieldDTO) []entity.KeyValueField {
	out := make([]entity.KeyValueField, 0, len(in))
	for _, f := range in {
		out = append(out, entity.KeyValueField{Name: f.Name, Value: f.Value})
	}
	return out
}
