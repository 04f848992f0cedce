package provider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/shopper-invoicing/internal/application/dto"
	"github.com/jhoicas/shopper-invoicing/internal/application/ports/portstest"
	"github.com/jhoicas/shopper-invoicing/internal/domain"
	"github.com/jhoicas/shopper-invoicing/internal/infrastructure/provider"
	pkgjwt "github.com/jhoicas/shopper-invoicing/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testService   = "shopper-invoicing"
)

// upstream proveedor falso: valida el JWT y aprueba cada solicitud en orden.
type upstream struct {
	mu            sync.Mutex
	notifications []dto.ExternalInvoiceDataDTO
	// override permite forzar una respuesta concreta para /invoicing/processes.
	override func(w http.ResponseWriter, reqs []dto.InvoicingProcessRequestDTO)
	healthy  bool
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	auth := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	claims, err := pkgjwt.Parse(testJWTSecret, auth)
	if err != nil || claims.Service != testService {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(dto.NewErrorResponse("INVALID_TOKEN", "token inválido"))
		return
	}
	switch r.URL.Path {
	case "/invoicing/processes":
		var reqs []dto.InvoicingProcessRequestDTO
		if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if u.override != nil {
			u.override(w, reqs)
			return
		}
		out := make([]dto.ExternalInvoiceDataDTO, 0, len(reqs))
		for _, req := range reqs {
			out = append(out, externalDTO(req.Process.UUID))
		}
		_ = json.NewEncoder(w).Encode(dto.Response{Data: dto.StartInvoicingResultDTO{ExternalInvoices: out}})
	case "/invoicing/notifications":
		var body struct {
			ExternalInvoices []dto.ExternalInvoiceDataDTO `json:"external_invoices"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		u.mu.Lock()
		u.notifications = append(u.notifications, body.ExternalInvoices...)
		u.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	case "/health":
		if !u.healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func externalDTO(processUUID string) dto.ExternalInvoiceDataDTO {
	return dto.ExternalInvoiceDataDTO{
		UUID:          uuid.NewString(),
		CreatedAt:     time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC).Format(dto.TimestampLayout),
		ProcessStatus: "approved",
		ProviderData:  map[string]any{"process_uuid": processUUID, "folio": "A-1"},
		CompanyFiscalData: dto.IdentityDTO{
			FullName:             "Proveedor REST SA",
			FormOfIdentification: []dto.KeyValueFieldDTO{{Name: "rfc", Value: "EKU9003173C9"}},
			ExtraFields:          []dto.KeyValueFieldDTO{},
		},
	}
}

func newREST(t *testing.T, u *upstream) (*provider.REST, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(u)
	t.Cleanup(srv.Close)
	return provider.NewREST(provider.RESTConfig{
		BaseURL:       srv.URL + "/",
		JWTSecret:     testJWTSecret,
		JWTIssuer:     "test",
		JWTExpMinutes: 5,
		ServiceName:   testService,
		Timeout:       2 * time.Second,
	}, zerolog.Nop()), srv
}

func TestREST_Contrato(t *testing.T) {
	adapter, _ := newREST(t, &upstream{healthy: true})
	portstest.RunAdapterContract(t, adapter)
}

func TestREST_StartYNotifica(t *testing.T) {
	u := &upstream{}
	adapter, _ := newREST(t, u)
	batch := portstest.NewBatch(2)

	out, err := adapter.StartInvoicingProcess(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "A-1", out[0].ProviderData["folio"])
	assert.Equal(t, "Proveedor REST SA", out[0].CompanyFiscalData.FullName)

	require.NoError(t, adapter.EmitNotification(context.Background(), out))
	u.mu.Lock()
	defer u.mu.Unlock()
	require.Len(t, u.notifications, 2)
	assert.Equal(t, out[1].UUID.String(), u.notifications[1].UUID)
}

func TestREST_ErrorDetailsDelProveedor(t *testing.T) {
	u := &upstream{override: func(w http.ResponseWriter, _ []dto.InvoicingProcessRequestDTO) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(dto.NewErrorResponse("INVALID_RFC", "RFC del receptor inválido"))
	}}
	adapter, _ := newREST(t, u)

	_, err := adapter.StartInvoicingProcess(context.Background(), portstest.NewBatch(1))
	pe, ok := domain.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_RFC", pe.Code)
	assert.Equal(t, "RFC del receptor inválido", pe.Message)
}

func TestREST_VariosErrorDetails(t *testing.T) {
	u := &upstream{override: func(w http.ResponseWriter, _ []dto.InvoicingProcessRequestDTO) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_details":[{"code":"A","message":"uno"},{"code":"B","message":"dos"}]}`))
	}}
	adapter, _ := newREST(t, u)

	_, err := adapter.StartInvoicingProcess(context.Background(), portstest.NewBatch(1))
	pe, ok := domain.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, "A", pe.Code)
	assert.JSONEq(t, `[{"code":"A","message":"uno"},{"code":"B","message":"dos"}]`, pe.Message)
}

func TestREST_RespuestaNoJSON(t *testing.T) {
	u := &upstream{override: func(w http.ResponseWriter, _ []dto.InvoicingProcessRequestDTO) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>\n"))
	}}
	adapter, _ := newREST(t, u)

	_, err := adapter.StartInvoicingProcess(context.Background(), portstest.NewBatch(1))
	pe, ok := domain.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, "UPSTREAM_502", pe.Code)
	assert.Equal(t, "<html>bad gateway</html>", pe.Message)
}

func TestREST_LongitudDistinta(t *testing.T) {
	u := &upstream{override: func(w http.ResponseWriter, reqs []dto.InvoicingProcessRequestDTO) {
		_ = json.NewEncoder(w).Encode(dto.Response{Data: dto.StartInvoicingResultDTO{
			ExternalInvoices: []dto.ExternalInvoiceDataDTO{externalDTO(reqs[0].Process.UUID)},
		}})
	}}
	adapter, _ := newREST(t, u)

	_, err := adapter.StartInvoicingProcess(context.Background(), portstest.NewBatch(3))
	require.ErrorIs(t, err, domain.ErrProviderContract)
	pe, ok := domain.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeProviderContract, pe.Code)
}

func TestREST_ResultadoInvalido(t *testing.T) {
	u := &upstream{override: func(w http.ResponseWriter, reqs []dto.InvoicingProcessRequestDTO) {
		bad := externalDTO(reqs[0].Process.UUID)
		bad.UUID = "no-es-uuid"
		_ = json.NewEncoder(w).Encode(dto.Response{Data: dto.StartInvoicingResultDTO{
			ExternalInvoices: []dto.ExternalInvoiceDataDTO{bad},
		}})
	}}
	adapter, _ := newREST(t, u)

	_, err := adapter.StartInvoicingProcess(context.Background(), portstest.NewBatch(1))
	assert.ErrorIs(t, err, domain.ErrProviderContract)
}

func TestREST_TokenInvalido(t *testing.T) {
	srv := httptest.NewServer(&upstream{})
	defer srv.Close()
	adapter := provider.NewREST(provider.RESTConfig{
		BaseURL: srv.URL, JWTSecret: "otro-secret", JWTExpMinutes: 5,
		ServiceName: testService, Timeout: time.Second,
	}, zerolog.Nop())

	_, err := adapter.StartInvoicingProcess(context.Background(), portstest.NewBatch(1))
	pe, ok := domain.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_TOKEN", pe.Code)
}

func TestREST_ProveedorCaido(t *testing.T) {
	adapter, srv := newREST(t, &upstream{healthy: true})
	srv.Close()

	_, err := adapter.StartInvoicingProcess(context.Background(), portstest.NewBatch(1))
	pe, ok := domain.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, provider.CodeUpstreamUnavailable, pe.Code)
	assert.False(t, adapter.ExternalServiceIsHealthy(context.Background()))
}

func TestREST_Health(t *testing.T) {
	healthy, _ := newREST(t, &upstream{healthy: true})
	assert.True(t, healthy.ExternalServiceIsHealthy(context.Background()))

	unhealthy, _ := newREST(t, &upstream{healthy: false})
	assert.False(t, unhealthy.ExternalServiceIsHealthy(context.Background()))
}
