package invoicing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/shopper-invoicing/internal/application/ports"
	"github.com/jhoicas/shopper-invoicing/internal/domain"
	"github.com/jhoicas/shopper-invoicing/internal/domain/entity"
)

// NotificationPolicy decide qué ocurre si EmitNotification falla después de un inicio exitoso.
type NotificationPolicy string

const (
	// NotificationFatal responde con el error del proveedor (HTTP 400).
	NotificationFatal NotificationPolicy = "fatal"
	// NotificationLenient registra el fallo y responde éxito con el resultado del inicio.
	NotificationLenient NotificationPolicy = "lenient"
)

// ParseNotificationPolicy interpreta el valor de configuración; vacío equivale a fatal.
func ParseNotificationPolicy(s string) (NotificationPolicy, error) {
	switch NotificationPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", NotificationFatal:
		return NotificationFatal, nil
	case NotificationLenient:
		return NotificationLenient, nil
	default:
		return "", fmt.Errorf("invoicing: política de notificación desconocida %q", s)
	}
}

// StartProcessConfig parámetros del caso de uso.
type StartProcessConfig struct {
	ProviderName       string
	NotificationPolicy NotificationPolicy
}

// StartProcessUseCase delega el lote al adaptador y luego emite la notificación.
type StartProcessUseCase struct {
	adapter ports.InvoicingAdapter
	cfg     StartProcessConfig
	log     zerolog.Logger
}

// NewStartProcessUseCase construye el caso de uso.
func NewStartProcessUseCase(adapter ports.InvoicingAdapter, cfg StartProcessConfig, log zerolog.Logger) *StartProcessUseCase {
	if cfg.NotificationPolicy == "" {
		cfg.NotificationPolicy = NotificationFatal
	}
	return &StartProcessUseCase{adapter: adapter, cfg: cfg, log: log}
}

// Start ejecuta start_invoicing_process y emit_notification sobre el lote ya interpretado.
// Los errores del proveedor se devuelven como *domain.ProviderError (ya registrados en el log).
func (uc *StartProcessUseCase) Start(ctx context.Context, reqs []entity.InvoicingProcessRequest) ([]entity.ExternalInvoiceData, error) {
	external, err := uc.adapter.StartInvoicingProcess(ctx, reqs)
	if err != nil {
		uc.logFailure("start_invoicing_process", err)
		return nil, err
	}

	if err := uc.adapter.EmitNotification(ctx, external); err != nil {
		if uc.cfg.NotificationPolicy == NotificationLenient {
			uc.logProvider(uc.log.Warn(), err).
				Str("operation", "emit_notification").
				Msg("notificación fallida; el proceso de facturación ya fue aceptado")
			return external, nil
		}
		uc.logFailure("emit_notification", err)
		return nil, err
	}

	uc.log.Debug().
		Str("provider", uc.cfg.ProviderName).
		Int("invoices", len(external)).
		Msg("proceso de facturación iniciado")
	return external, nil
}

func (uc *StartProcessUseCase) logFailure(operation string, err error) {
	ev := uc.log.Info()
	if _, ok := domain.AsProviderError(err); !ok {
		ev = uc.log.Error()
	}
	uc.logProvider(ev, err).
		Str("operation", operation).
		Msgf("Shopper invoicing integration (%s) request error", operation)
}

// logProvider agrega provider y detail. Si el mensaje del proveedor es JSON se registra estructurado.
func (uc *StartProcessUseCase) logProvider(ev *zerolog.Event, err error) *zerolog.Event {
	ev = ev.Str("provider", uc.cfg.ProviderName)
	pe, ok := domain.AsProviderError(err)
	if !ok {
		return ev.Err(err)
	}
	ev = ev.Str("code", pe.Code)
	msg := strings.TrimSpace(pe.Message)
	if msg == "" {
		return ev
	}
	if json.Valid([]byte(msg)) {
		return ev.RawJSON("detail", []byte(msg))
	}
	return ev.Str("detail", msg)
}
