package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/shopper-invoicing/internal/application/dto"
	"github.com/jhoicas/shopper-invoicing/internal/application/ports"
	"github.com/jhoicas/shopper-invoicing/internal/domain"
	"github.com/jhoicas/shopper-invoicing/internal/domain/entity"
	pkgjwt "github.com/jhoicas/shopper-invoicing/pkg/jwt"
)

// Rutas del proveedor REST.
const (
	pathProcesses     = "/invoicing/processes"
	pathNotifications = "/invoicing/notifications"
	pathHealth        = "/health"

	// CodeUpstreamUnavailable el proveedor no respondió (red, timeout, DNS).
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"

	maxResponseBytes = 4 << 20
)

// RESTConfig parámetros del cliente REST.
type RESTConfig struct {
	BaseURL       string
	JWTSecret     string
	JWTIssuer     string
	JWTExpMinutes int
	ServiceName   string
	Timeout       time.Duration
}

// REST adaptador hacia un proveedor externo que expone la API JSON de facturación.
// Cada llamada se autentica con un JWT de servicio de vida corta.
type REST struct {
	cfg        RESTConfig
	httpClient *http.Client
	log        zerolog.Logger
}

var _ ports.InvoicingAdapter = (*REST)(nil)

// NewREST construye el adaptador.
func NewREST(cfg RESTConfig, log zerolog.Logger) *REST {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &REST{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

type notificationRequest struct {
	ExternalInvoices []dto.ExternalInvoiceDataDTO `json:"external_invoices"`
}

type processesResponse struct {
	Data *dto.StartInvoicingResultDTO `json:"data"`
}

// StartInvoicingProcess envía el lote y valida que la respuesta tenga un resultado por solicitud.
func (r *REST) StartInvoicingProcess(ctx context.Context, reqs []entity.InvoicingProcessRequest) ([]entity.ExternalInvoiceData, error) {
	if len(reqs) == 0 {
		return []entity.ExternalInvoiceData{}, nil
	}
	body, err := r.do(ctx, http.MethodPost, pathProcesses, dto.NewInvoicingProcessRequestDTOs(reqs))
	if err != nil {
		return nil, err
	}

	var resp processesResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Data == nil {
		return nil, contractViolation("respuesta sin data.external_invoices: %s", truncate(body))
	}
	out, err := dto.ExternalInvoiceDataFromDTOs(resp.Data.ExternalInvoices)
	if err != nil {
		return nil, contractViolation("resultado inválido: %v", err)
	}
	if len(out) != len(reqs) {
		return nil, contractViolation("se enviaron %d solicitudes y se recibieron %d resultados", len(reqs), len(out))
	}
	return out, nil
}

// EmitNotification reenvía los resultados al endpoint de notificaciones del proveedor.
func (r *REST) EmitNotification(ctx context.Context, invoices []entity.ExternalInvoiceData) error {
	if len(invoices) == 0 {
		return nil
	}
	_, err := r.do(ctx, http.MethodPost, pathNotifications, notificationRequest{
		ExternalInvoices: dto.NewExternalInvoiceDataDTOs(invoices),
	})
	return err
}

// ExternalServiceIsHealthy consulta GET /health; cualquier fallo se traduce en false.
func (r *REST) ExternalServiceIsHealthy(ctx context.Context) (healthy bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Msg("rest: panic consultando health")
			healthy = false
		}
	}()
	if _, err := r.do(ctx, http.MethodGet, pathHealth, nil); err != nil {
		r.log.Debug().Err(err).Msg("rest: proveedor no saludable")
		return false
	}
	return true
}

// do ejecuta la llamada y devuelve el cuerpo de una respuesta 2xx.
// Las respuestas de error se convierten en *domain.ProviderError.
func (r *REST) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("rest: serializar payload: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("rest: construir petición: %w", err)
	}
	token, err := pkgjwt.Generate(r.cfg.JWTSecret, r.cfg.ServiceName, r.cfg.JWTIssuer, r.cfg.JWTExpMinutes)
	if err != nil {
		return nil, fmt.Errorf("rest: generar token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Code: CodeUpstreamUnavailable, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &domain.ProviderError{Code: CodeUpstreamUnavailable, Message: err.Error(), Err: err}
	}
	r.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("rest: respuesta del proveedor")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, upstreamError(resp.StatusCode, body)
	}
	return body, nil
}

// upstreamError interpreta {"error_details":[...]}; si el cuerpo no tiene esa forma
// devuelve UPSTREAM_<status> con el cuerpo como mensaje.
func upstreamError(status int, body []byte) error {
	var er dto.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && len(er.ErrorDetails) > 0 && er.ErrorDetails[0].Code != "" {
		first := er.ErrorDetails[0]
		if len(er.ErrorDetails) == 1 {
			return domain.NewProviderError(first.Code, first.Message)
		}
		// Varios detalles: el mensaje conserva todos como JSON para el log estructurado
		raw, _ := json.Marshal(er.ErrorDetails)
		return domain.NewProviderError(first.Code, string(raw))
	}
	return domain.NewProviderError(fmt.Sprintf("UPSTREAM_%d", status), truncate(body))
}

func contractViolation(format string, args ...any) error {
	return &domain.ProviderError{
		Code:    domain.CodeProviderContract,
		Message: fmt.Sprintf(format, args...),
		Err:     domain.ErrProviderContract,
	}
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	const limit = 1024
	if len(s) > limit {
		return s[:limit] + "…"
	}
	return s
}
