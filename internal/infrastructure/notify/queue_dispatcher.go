package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/jhoicas/shopper-invoicing/internal/application/ports"
)

// QueueDispatcher encola los correos en Redis; un Worker los envía.
type QueueDispatcher struct {
	client *asynq.Client
}

var _ ports.EmailDispatcher = (*QueueDispatcher)(nil)

// NewQueueDispatcher construye el cliente asynq.
func NewQueueDispatcher(redisOpts asynq.RedisClientOpt) *QueueDispatcher {
	return &QueueDispatcher{client: asynq.NewClient(redisOpts)}
}

// Dispatch encola el correo. El error solo refleja el encolado.
func (q *QueueDispatcher) Dispatch(ctx context.Context, msg ports.EmailMessage) error {
	task, err := NewSendEmailTask(msg)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("notify: encolar correo: %w", err)
	}
	return nil
}

// Close libera la conexión con Redis.
func (q *QueueDispatcher) Close() error {
	return q.client.Close()
}

// Worker envuelve el servidor asynq que consume las tareas de correo.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    zerolog.Logger
}

// WorkerConfig dependencias del worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Sender      ports.EmailSender
	SendTimeout time.Duration
	Concurrency int
	Logger      zerolog.Logger
}

// NewWorker construye el worker con el handler de correo registrado.
func NewWorker(cfg WorkerConfig) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueDefault: 1},
		Logger:      asynqLogger{log: cfg.Logger},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeSendEmail, NewSendEmailHandler(cfg.Sender, cfg.SendTimeout, cfg.Logger))
	return &Worker{server: srv, mux: mux, log: cfg.Logger}
}

// Run procesa tareas hasta que ctx se cancele. Las señales del proceso las gestiona
// quien llama; por eso se usa Start y no Server.Run.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("notify: worker no configurado")
	}
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("notify: iniciar worker: %w", err)
	}
	w.log.Info().Str("queue", QueueDefault).Msg("Worker de correo iniciado")
	<-ctx.Done()
	w.server.Shutdown()
	return nil
}

// asynqLogger adapta zerolog a asynq.Logger.
type asynqLogger struct {
	log zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Fatal().Msg(fmt.Sprint(args...)) }
