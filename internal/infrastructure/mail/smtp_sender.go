package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/jhoicas/shopper-invoicing/internal/application/ports"
)

// SMTPConfig parámetros de conexión al servidor de correo.
type SMTPConfig struct {
	Server        string
	Port          int
	Username      string
	Password      string
	UseTLS        bool // STARTTLS con verificación del certificado
	UseSSL        bool // TLS implícito (puerto 465)
	Debug         bool
	DefaultSender string
}

// dialer abstrae gomail.Dialer para poder sustituirlo en tests.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender implementa ports.EmailSender con gomail.
type SMTPSender struct {
	dialer        dialer
	defaultSender string
	debug         bool
	log           zerolog.Logger
}

var _ ports.EmailSender = (*SMTPSender)(nil)

// NewSMTPSender construye el sender a partir de la configuración.
func NewSMTPSender(cfg SMTPConfig, log zerolog.Logger) *SMTPSender {
	d := gomail.NewDialer(cfg.Server, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.UseSSL
	if cfg.UseTLS || cfg.UseSSL {
		d.TLSConfig = &tls.Config{ServerName: cfg.Server, MinVersion: tls.VersionTLS12}
	}
	return &SMTPSender{dialer: d, defaultSender: cfg.DefaultSender, debug: cfg.Debug, log: log}
}

// Send construye el mensaje MIME y lo entrega. Respeta la cancelación del contexto;
// si el contexto vence durante la entrega, la conexión SMTP termina por su cuenta.
func (s *SMTPSender) Send(ctx context.Context, msg ports.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := s.buildMessage(msg)
	if err != nil {
		return err
	}
	if s.debug {
		s.log.Debug().
			Strs("to", msg.To).
			Str("subject", msg.Subject).
			Int("attachments", len(msg.Attachments)).
			Msg("Enviando correo")
	}

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("mail: enviar a %v: %w", msg.To, err)
		}
		return nil
	}
}

func (s *SMTPSender) buildMessage(msg ports.EmailMessage) (*gomail.Message, error) {
	from := msg.From
	if from == "" {
		from = s.defaultSender
	}
	if from == "" {
		return nil, errors.New("mail: remitente vacío (MAIL_DEFAULT_SENDER)")
	}
	if len(msg.To) == 0 {
		return nil, errors.New("mail: sin destinatarios")
	}
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)
	for _, a := range msg.Attachments {
		content := a.Content
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}))
		}
		m.Attach(a.Filename, settings...)
	}
	return m, nil
}

// LogSender implementa ports.EmailSender sin servidor: solo registra el correo.
// Se usa cuando MAIL_SERVER no está configurado.
type LogSender struct {
	log zerolog.Logger
}

// NewLogSender construye el sender de solo log.
func NewLogSender(log zerolog.Logger) *LogSender { return &LogSender{log: log} }

// Send registra el correo en lugar de enviarlo.
func (s *LogSender) Send(ctx context.Context, msg ports.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.Info().
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Int("attachments", len(msg.Attachments)).
		Msg("Correo no enviado: MAIL_SERVER sin configurar")
	return nil
}
