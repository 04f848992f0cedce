package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/jhoicas/shopper-invoicing/internal/application/ports"
)

const (
	// QueueDefault cola de los trabajos en segundo plano.
	QueueDefault = "default"
	// TaskTypeSendEmail tipo de tarea para el envío de correos.
	TaskTypeSendEmail = "mail:send"
)

// NewSendEmailTask construye la tarea. MaxRetry(0): una tarea fallida no se reintenta.
func NewSendEmailTask(msg ports.EmailMessage) (*asynq.Task, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("notify: serializar correo: %w", err)
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.MaxRetry(0), asynq.Queue(QueueDefault)), nil
}

// NewSendEmailHandler procesa tareas TaskTypeSendEmail con el sender indicado.
func NewSendEmailHandler(sender ports.EmailSender, timeout time.Duration, log zerolog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var msg ports.EmailMessage
		if err := json.Unmarshal(t.Payload(), &msg); err != nil {
			log.Error().Err(err).Str("task", t.Type()).Msg("Payload de correo inválido")
			return fmt.Errorf("notify: payload inválido: %v: %w", err, asynq.SkipRetry)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := sender.Send(ctx, msg); err != nil {
			log.Error().Err(err).Strs("to", msg.To).Str("subject", msg.Subject).Msg("Error enviando correo")
			return fmt.Errorf("notify: %v: %w", err, asynq.SkipRetry)
		}
		log.Info().Strs("to", msg.To).Msg("Correo enviado")
		return nil
	}
}
