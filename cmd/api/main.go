package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/hibiken/asynq"

	"github.com/jhoicas/shopper-invoicing/internal/application/invoicing"
	"github.com/jhoicas/shopper-invoicing/internal/application/ports"
	"github.com/jhoicas/shopper-invoicing/internal/infrastructure/mail"
	"github.com/jhoicas/shopper-invoicing/internal/infrastructure/notify"
	"github.com/jhoicas/shopper-invoicing/internal/infrastructure/provider"
	httpRouter "github.com/jhoicas/shopper-invoicing/internal/interfaces/http"
	"github.com/jhoicas/shopper-invoicing/pkg/config"
	"github.com/jhoicas/shopper-invoicing/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Env:       cfg.App.Env,
		Level:     cfg.App.LogLevel,
		SentryDSN: cfg.Sentry.DSN,
		Release:   cfg.App.Name,
	})
	if err != nil {
		panic("iniciar logger: " + err.Error())
	}
	defer log.Flush(2 * time.Second)

	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("provider", cfg.Provider.Name).
		Msg("iniciando aplicación")

	// Correo: SMTP si hay servidor configurado; si no, solo se registra en el log
	var sender ports.EmailSender
	if cfg.Mail.Enabled() {
		sender = mail.NewSMTPSender(mail.SMTPConfig{
			Server:        cfg.Mail.Server,
			Port:          cfg.Mail.Port,
			Username:      cfg.Mail.Username,
			Password:      cfg.Mail.Password,
			UseTLS:        cfg.Mail.UseTLS,
			UseSSL:        cfg.Mail.UseSSL,
			Debug:         cfg.Mail.Debug,
			DefaultSender: cfg.Mail.DefaultSender,
		}, log.Zerolog())
	} else {
		log.Warn().Msg("MAIL_SERVER vacío: los correos solo se registran en el log")
		sender = mail.NewLogSender(log.Zerolog())
	}

	// Despacho: cola asynq si hay Redis; si no, goroutine desacoplada por envío
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	workerDone := make(chan struct{})

	var dispatcher ports.EmailDispatcher
	var closeDispatcher func(context.Context) error
	if cfg.Queue.Enabled() {
		redisOpts := asynq.RedisClientOpt{
			Addr:     cfg.Queue.RedisAddr,
			Password: cfg.Queue.RedisPassword,
			DB:       cfg.Queue.RedisDB,
		}
		queue := notify.NewQueueDispatcher(redisOpts)
		dispatcher = queue
		closeDispatcher = func(context.Context) error { return queue.Close() }

		worker := notify.NewWorker(notify.WorkerConfig{
			RedisOpts:   redisOpts,
			Sender:      sender,
			SendTimeout: cfg.Mail.SendTimeout,
			Logger:      log.Zerolog(),
		})
		go func() {
			defer close(workerDone)
			if err := worker.Run(workerCtx); err != nil {
				log.Error().Err(err).Msg("worker de correo finalizado")
			}
		}()
	} else {
		async := notify.NewAsyncDispatcher(sender, cfg.Mail.SendTimeout, log.Zerolog())
		dispatcher = async
		closeDispatcher = async.Close
		close(workerDone)
	}

	adapter, providerName, err := provider.New(provider.Options{
		Provider:    cfg.Provider,
		Company:     cfg.Company,
		Mail:        cfg.Mail,
		ServiceName: cfg.App.Name,
		Dispatcher:  dispatcher,
		Logger:      log.Zerolog(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("construir adaptador del proveedor")
	}

	policy, err := invoicing.ParseNotificationPolicy(cfg.Invoicing.NotificationFailurePolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("política de notificación")
	}
	startUC := invoicing.NewStartProcessUseCase(adapter, invoicing.StartProcessConfig{
		ProviderName:       providerName,
		NotificationPolicy: policy,
	}, log.Zerolog())
	healthUC := invoicing.NewHealthUseCase(adapter, cfg.Invoicing.HealthTimeout, log.Zerolog())

	app := httpRouter.NewApp(httpRouter.AppConfig{
		Name:         cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		Logger:       log.Zerolog(),
	})

	// Swagger UI en local: http://localhost:<port>/docs
	if cfg.App.DocsEnabled {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.App.DocsFile,
			Path:     "docs",
			Title:    "Shopper Invoicing API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		StartProcess:      startUC,
		Health:            healthUC,
		SatellitePassword: cfg.Satellite.Password,
		EchoResult:        cfg.Invoicing.EchoResult,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := closeDispatcher(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("correos pendientes sin entregar al apagar")
	}
	stopWorker()
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("el worker de correo no terminó a tiempo")
	}

	log.Info().Msg("aplicación detenida")
}
