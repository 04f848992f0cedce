package invoicing

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/shopper-invoicing/internal/application/ports"
)

// HealthUseCase consulta la salud del proveedor externo sin dejar escapar fallos.
type HealthUseCase struct {
	adapter ports.InvoicingAdapter
	timeout time.Duration
	log     zerolog.Logger
}

// NewHealthUseCase construye el caso de uso. timeout <= 0 deja la espera a cargo del adaptador.
func NewHealthUseCase(adapter ports.InvoicingAdapter, timeout time.Duration, log zerolog.Logger) *HealthUseCase {
	return &HealthUseCase{adapter: adapter, timeout: timeout, log: log}
}

// ExternalServiceIsHealthy devuelve false ante panic, timeout o respuesta negativa.
func (uc *HealthUseCase) ExternalServiceIsHealthy(ctx context.Context) bool {
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	result := make(chan bool, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				uc.log.Error().Interface("panic", r).Msg("external_service_is_healthy: panic en el adaptador")
				result <- false
			}
		}()
		result <- uc.adapter.ExternalServiceIsHealthy(ctx)
	}()

	select {
	case healthy := <-result:
		return healthy
	case <-ctx.Done():
		uc.log.Warn().Err(ctx.Err()).Msg("external_service_is_healthy: sin respuesta del adaptador")
		return false
	}
}
