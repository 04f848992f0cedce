// Package notify entrega correos en segundo plano: en una goroutine desacoplada
// de la petición o encolados en Redis con asynq. En ambos casos la entrega es
// "best effort" y como máximo una vez.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/shopper-invoicing/internal/application/ports"
)

// ErrDispatcherClosed el despachador ya no acepta correos.
var ErrDispatcherClosed = errors.New("notify: despachador cerrado")

// AsyncDispatcher envía cada correo en su propia goroutine.
// Dispatch retorna en cuanto el trabajo queda programado; el resultado del envío solo se registra.
type AsyncDispatcher struct {
	sender  ports.EmailSender
	timeout time.Duration
	log     zerolog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var _ ports.EmailDispatcher = (*AsyncDispatcher)(nil)

// NewAsyncDispatcher construye el despachador. timeout acota cada envío individual.
func NewAsyncDispatcher(sender ports.EmailSender, timeout time.Duration, log zerolog.Logger) *AsyncDispatcher {
	return &AsyncDispatcher{sender: sender, timeout: timeout, log: log}
}

// Dispatch copia el mensaje y lo envía en segundo plano. El envío no depende de la
// cancelación de ctx (la petición HTTP puede terminar antes), solo de sus valores.
func (d *AsyncDispatcher) Dispatch(ctx context.Context, msg ports.EmailMessage) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.wg.Add(1)
	d.mu.Unlock()

	msg = msg.Clone()
	sendCtx := context.WithoutCancel(ctx)
	go func() {
		defer d.wg.Done()
		d.send(sendCtx, msg)
	}()
	return nil
}

func (d *AsyncDispatcher) send(ctx context.Context, msg ports.EmailMessage) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Str("panic", fmt.Sprint(r)).Strs("to", msg.To).Msg("Pánico enviando correo")
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	if err := d.sender.Send(ctx, msg); err != nil {
		d.log.Error().Err(err).Strs("to", msg.To).Str("subject", msg.Subject).Msg("Error enviando correo")
		return
	}
	d.log.Info().Strs("to", msg.To).Dur("latency", time.Since(start)).Msg("Correo enviado")
}

// Close deja de aceptar correos y espera los envíos en curso hasta que ctx venza.
func (d *AsyncDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notify: envíos pendientes al cerrar: %w", ctx.Err())
	}
}
