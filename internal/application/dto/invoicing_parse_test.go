package dto_test

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/shopper-invoicing/internal/application/dto"
	"github.com/jhoicas/shopper-invoicing/internal/domain"
	"github.com/jhoicas/shopper-invoicing/internal/domain/entity"
)

const validBody = `[
  {
    "process": {
      "uuid": "6f1c1a52-7f43-4c1e-9d6b-2f5f0e9a8b01",
      "created_at": "2024-03-01T10:00:00Z",
      "updated_at": "2024-03-01T10:05:00Z",
      "user_uuid": "0b7d3c2a-1e4f-4a5b-8c9d-0e1f2a3b4c5d",
      "requester": "shopper-app",
      "process_status": "pending"
    },
    "invoice": {
      "uuid": "9a8b7c6d-5e4f-4a3b-9c2d-1e0f9a8b7c6d",
      "created_at": "2024-03-01 10:00:00",
      "user_uuid": "0b7d3c2a-1e4f-4a5b-8c9d-0e1f2a3b4c5d",
      "gross_amount_e5": 11600000,
      "lines": [
        {
          "description": "Servicio de entrega",
          "unit": "E48",
          "quantity": 2,
          "amount_e5": 5000000,
          "total_amount_e5": 10000000,
          "taxes": [
            {"type": "transferred", "description": "IVA", "code": "002", "factor_type": "Tasa", "factor": 0.16, "taxable_amount_e5": 10000000, "tax_amount_e5": 1600000}
          ]
        }
      ],
      "taxes": [
        {"type": "transferred", "description": "IVA", "code": "002", "factor_type": "Tasa", "factor": 0.16, "taxable_amount_e5": 10000000, "tax_amount_e5": 1600000}
      ],
      "partner_fiscal_data": {
        "full_name": "Juana Pérez",
        "form_of_identification": [{"name": "rfc", "value": "PEJJ800101AAA"}],
        "extra_fields": [
          {"name": "email", "value": "juana@example.com"},
          {"name": "tax_regime", "value": "605"},
          {"name": "email", "value": "facturas@example.com"}
        ]
      }
    }
  }
]`

func TestParseInvoicingProcessRequests_Valido(t *testing.T) {
	reqs, err := dto.ParseInvoicingProcessRequests([]byte(validBody))
	require.NoError(t, err)
	require.Len(t, reqs, 1)

	p := reqs[0].Process
	assert.Equal(t, uuid.MustParse("6f1c1a52-7f43-4c1e-9d6b-2f5f0e9a8b01"), p.UUID)
	assert.Equal(t, uuid.MustParse("0b7d3c2a-1e4f-4a5b-8c9d-0e1f2a3b4c5d"), p.UserUUID, "user_uuid se lee de process.user_uuid")
	assert.Equal(t, entity.ProcessStatusPending, p.ProcessStatus)
	assert.True(t, p.CreatedAt.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))

	inv := reqs[0].Invoice
	assert.Equal(t, entity.AmountE5(11600000), inv.GrossAmountE5)
	assert.True(t, inv.CreatedAt.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)), "fecha sin zona se asume UTC")
	require.Len(t, inv.Lines, 1)
	assert.True(t, decimal.NewFromInt(2).Equal(inv.Lines[0].Quantity))
	assert.True(t, decimal.RequireFromString("0.16").Equal(inv.Lines[0].Taxes[0].Factor))

	extra := inv.PartnerFiscalData.ExtraFields
	require.Len(t, extra, 3, "los nombres repetidos se conservan")
	assert.Equal(t, "email", extra[0].Name)
	assert.Equal(t, "tax_regime", extra[1].Name)
	assert.Equal(t, "facturas@example.com", extra[2].Value)
	assert.Equal(t, "juana@example.com", inv.PartnerFiscalData.Email())
}

func TestParseInvoicingProcessRequests_MontoGrandeSinPerdida(t *testing.T) {
	// 2^53 + 1 no es representable en float64.
	body := strings.Replace(validBody, `"gross_amount_e5": 11600000`, `"gross_amount_e5": 9007199254740993`, 1)
	reqs, err := dto.ParseInvoicingProcessRequests([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), reqs[0].Invoice.GrossAmountE5.Int64())
}

func TestParseInvoicingProcessRequests_FaltaInvoice(t *testing.T) {
	body := `[{"process": {"uuid": "6f1c1a52-7f43-4c1e-9d6b-2f5f0e9a8b01", "created_at": "2024-03-01T10:00:00Z",
		"updated_at": "2024-03-01T10:00:00Z", "user_uuid": "0b7d3c2a-1e4f-4a5b-8c9d-0e1f2a3b4c5d",
		"requester": "x", "process_status": "pending"}}]`

	_, err := dto.ParseInvoicingProcessRequests([]byte(body))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedRequest))

	var mre *domain.MalformedRequestError
	require.ErrorAs(t, err, &mre)
	require.NotEmpty(t, mre.Violations)
	assert.Equal(t, "/0", mre.Violations[0].Path)
	assert.Contains(t, mre.Violations[0].Reason, "invoice")
}

func TestParseInvoicingProcessRequests_ViolacionesEnOrdenDelLote(t *testing.T) {
	item := `{"process": {"uuid": "6f1c1a52-7f43-4c1e-9d6b-2f5f0e9a8b01", "created_at": "2024-03-01T10:00:00Z",
		"updated_at": "2024-03-01T10:00:00Z", "user_uuid": "0b7d3c2a-1e4f-4a5b-8c9d-0e1f2a3b4c5d",
		"requester": "x", "process_status": "pending"}}`
	items := make([]string, 12)
	want := make([]string, 12)
	for i := range items {
		items[i] = item
		want[i] = "/" + strconv.Itoa(i)
	}

	_, err := dto.ParseInvoicingProcessRequests([]byte("[" + strings.Join(items, ",") + "]"))
	var mre *domain.MalformedRequestError
	require.ErrorAs(t, err, &mre)

	paths := make([]string, 0, len(mre.Violations))
	for _, v := range mre.Violations {
		paths = append(paths, v.Path)
	}
	assert.Equal(t, want, paths, "/2 va antes que /10")
}

func TestParseInvoicingProcessRequests_TiposIncorrectos(t *testing.T) {
	cases := []struct {
		name string
		from string
		to   string
		path string
	}{
		{"uuid no válido", `"uuid": "9a8b7c6d-5e4f-4a3b-9c2d-1e0f9a8b7c6d"`, `"uuid": "no-es-uuid"`, "/0/invoice/uuid"},
		{"monto como string", `"gross_amount_e5": 11600000`, `"gross_amount_e5": "11600000"`, "/0/invoice/gross_amount_e5"},
		{"monto con decimales", `"gross_amount_e5": 11600000`, `"gross_amount_e5": 116000.5`, "/0/invoice/gross_amount_e5"},
		{"fecha ilegible", `"created_at": "2024-03-01 10:00:00"`, `"created_at": "ayer"`, "/0/invoice/created_at"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := strings.Replace(validBody, tc.from, tc.to, 1)
			require.NotEqual(t, validBody, body)

			_, err := dto.ParseInvoicingProcessRequests([]byte(body))
			var mre *domain.MalformedRequestError
			require.ErrorAs(t, err, &mre)

			paths := make([]string, 0, len(mre.Violations))
			for _, v := range mre.Violations {
				paths = append(paths, v.Path)
			}
			assert.Contains(t, paths, tc.path)
		})
	}
}

func TestParseInvoicingProcessRequests_JSONInvalido(t *testing.T) {
	for _, body := range []string{"", "{", `{"process": {}}`, "[] []"} {
		_, err := dto.ParseInvoicingProcessRequests([]byte(body))
		assert.ErrorIs(t, err, domain.ErrMalformedRequest, "body %q", body)
	}
}

func TestParseInvoicingProcessRequests_LoteVacio(t *testing.T) {
	reqs, err := dto.ParseInvoicingProcessRequests([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestInvoicingProcessRequest_IdaYVuelta(t *testing.T) {
	created := time.Date(2024, 5, 10, 8, 30, 15, 123000000, time.UTC)
	tax := entity.TaxInformation{
		Type: "transferred", Description: "IVA", Code: "002", FactorType: "Tasa",
		Factor:          decimal.RequireFromString("0.16"),
		TaxableAmountE5: 10000000,
		TaxAmountE5:     1600000,
	}
	original := []entity.InvoicingProcessRequest{{
		Process: entity.InvoicingProcess{
			UUID:          uuid.New(),
			CreatedAt:     created,
			UpdatedAt:     created.Add(time.Minute),
			UserUUID:      uuid.New(),
			Requester:     "shopper-app",
			ProcessStatus: entity.ProcessStatusApproved,
		},
		Invoice: entity.Invoice{
			UUID:          uuid.New(),
			CreatedAt:     created,
			UserUUID:      uuid.New(),
			GrossAmountE5: 11600000,
			Lines: []entity.InvoiceLine{{
				Description: "Caja", Unit: "H87",
				Quantity:      decimal.RequireFromString("1.5"),
				AmountE5:      6666667,
				TotalAmountE5: 10000000,
				Taxes:         []entity.TaxInformation{tax},
			}},
			Taxes: []entity.TaxInformation{tax},
			PartnerFiscalData: entity.PartnerFiscalData{Identity: entity.Identity{
				FullName:             "ACME SA de CV",
				FormOfIdentification: []entity.KeyValueField{{Name: "rfc", Value: "AAA010101AAA"}},
				ExtraFields: []entity.KeyValueField{
					{Name: "zip", Value: "01000"},
					{Name: "zip", Value: "01001"},
				},
			}},
		},
	}}

	raw, err := json.Marshal(dto.NewInvoicingProcessRequestDTOs(original))
	require.NoError(t, err)

	parsed, err := dto.ParseInvoicingProcessRequests(raw)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestExternalInvoiceDataFromDTOs_UUIDInvalido(t *testing.T) {
	_, err := dto.ExternalInvoiceDataFromDTOs([]dto.ExternalInvoiceDataDTO{{UUID: "x", CreatedAt: "2024-01-01T00:00:00Z"}})
	var mre *domain.MalformedRequestError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, "/0/uuid", mre.Violations[0].Path)
}
