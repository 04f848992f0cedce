package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/shopper-invoicing/internal/application/ports"
	"github.com/jhoicas/shopper-invoicing/internal/domain"
	"github.com/jhoicas/shopper-invoicing/internal/domain/entity"
	"github.com/jhoicas/shopper-invoicing/internal/infrastructure/mail"
	"github.com/jhoicas/shopper-invoicing/internal/infrastructure/pdf"
	"github.com/jhoicas/shopper-invoicing/internal/infrastructure/ubl"
)

// Códigos propios del sandbox.
const (
	CodeInvalidInvoice = "INVALID_INVOICE"
	CodeUnknownInvoice = "UNKNOWN_INVOICE"
)

const (
	// documentWorkers máximo de facturas cuyos documentos se generan a la vez.
	documentWorkers = 4
	// maxClockSkew adelanto tolerado del reloj del cliente respecto al del sandbox.
	maxClockSkew     = 5 * time.Minute
	defaultRetainFor = time.Hour
)

// SandboxConfig parámetros del adaptador sandbox.
type SandboxConfig struct {
	Company          entity.CompanyFiscalData
	DefaultSender    string
	DefaultRecipient string
	Currency         string
	Now              func() time.Time // por defecto time.Now
	RetainFor        time.Duration    // vida de una factura aprobada sin notificar; por defecto 1h
}

// issuedInvoice lo que el sandbox recuerda de cada factura aprobada para poder notificarla.
type issuedInvoice struct {
	request     entity.InvoicingProcessRequest
	documentKey string
	xml         []byte
	approvedAt  time.Time
}

// Sandbox proveedor en memoria: aprueba cada solicitud válida, genera su XML y clave
// de documento, y al notificar envía por correo el PDF y el paquete ZIP.
type Sandbox struct {
	cfg        SandboxConfig
	pdf        ports.InvoicePDFGenerator
	xml        *ubl.XMLBuilder
	renderer   *mail.Renderer
	dispatcher ports.EmailDispatcher
	log        zerolog.Logger

	mu     sync.Mutex
	issued map[uuid.UUID]issuedInvoice
}

var _ ports.InvoicingAdapter = (*Sandbox)(nil)

// NewSandbox construye el adaptador sandbox.
func NewSandbox(cfg SandboxConfig, pdfGen ports.InvoicePDFGenerator, renderer *mail.Renderer, dispatcher ports.EmailDispatcher, log zerolog.Logger) *Sandbox {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.RetainFor <= 0 {
		cfg.RetainFor = defaultRetainFor
	}
	return &Sandbox{
		cfg:        cfg,
		pdf:        pdfGen,
		xml:        ubl.NewXMLBuilder(cfg.Currency),
		renderer:   renderer,
		dispatcher: dispatcher,
		log:        log,
		issued:     make(map[uuid.UUID]issuedInvoice),
	}
}

// StartInvoicingProcess aprueba el lote completo o ninguna solicitud.
func (s *Sandbox) StartInvoicingProcess(ctx context.Context, reqs []entity.InvoicingProcessRequest) ([]entity.ExternalInvoiceData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.cfg.Now().UTC()
	out := make([]entity.ExternalInvoiceData, 0, len(reqs))
	pending := make(map[uuid.UUID]issuedInvoice, len(reqs))

	for i, req := range reqs {
		if err := req.Process.TransitionTo(entity.ProcessStatusApproved, transitionTime(req.Process, now)); err != nil {
			return nil, &domain.ProviderError{
				Code:    CodeInvalidInvoice,
				Message: fmt.Sprintf("solicitud %d: %v", i, err),
				Err:     err,
			}
		}
		if err := ubl.ValidateInvoice(req.Invoice); err != nil {
			return nil, &domain.ProviderError{Code: CodeInvalidInvoice, Message: fmt.Sprintf("solicitud %d: %v", i, err), Err: err}
		}
		key, err := ubl.DocumentKey(req, s.cfg.Company)
		if err != nil {
			return nil, &domain.ProviderError{Code: CodeInvalidInvoice, Message: fmt.Sprintf("solicitud %d: %v", i, err), Err: err}
		}
		xmlDoc, err := s.xml.Build(req, s.cfg.Company, key)
		if err != nil {
			return nil, fmt.Errorf("sandbox: solicitud %d: %w", i, err)
		}
		digest, err := ubl.Digest(xmlDoc)
		if err != nil {
			return nil, fmt.Errorf("sandbox: solicitud %d: %w", i, err)
		}

		id := uuid.New()
		pending[id] = issuedInvoice{request: req, documentKey: key, xml: xmlDoc, approvedAt: now}
		out = append(out, entity.ExternalInvoiceData{
			UUID:          id,
			CreatedAt:     now,
			ProcessStatus: req.Process.ProcessStatus,
			ProviderData: map[string]any{
				"process_uuid": req.Process.UUID.String(),
				"invoice_uuid": req.Invoice.UUID.String(),
				"document_key": key,
				"xml_digest":   digest,
			},
			CompanyFiscalData: s.cfg.Company,
		})
	}

	s.mu.Lock()
	// Las facturas que nadie notificó a tiempo se descartan
	for id, inv := range s.issued {
		if now.Sub(inv.approvedAt) > s.cfg.RetainFor {
			delete(s.issued, id)
		}
	}
	for id, inv := range pending {
		s.issued[id] = inv
	}
	s.mu.Unlock()
	return out, nil
}

// transitionTime instante de aprobación. Si el reloj del cliente va ligeramente adelantado
// (created_at posterior a now dentro de maxClockSkew) se aprueba en created_at.
func transitionTime(p entity.InvoicingProcess, now time.Time) time.Time {
	if ahead := p.CreatedAt.Sub(now); ahead > 0 && ahead <= maxClockSkew {
		return p.CreatedAt
	}
	return now
}

// EmitNotification genera los documentos de todas las facturas y después entrega
// los correos al despachador. Un fallo al generar documentos no envía ningún correo.
func (s *Sandbox) EmitNotification(ctx context.Context, invoices []entity.ExternalInvoiceData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	type job struct {
		ext    entity.ExternalInvoiceData
		issued issuedInvoice
		to     string
	}
	jobs := make([]job, 0, len(invoices))
	for _, ext := range invoices {
		s.mu.Lock()
		issued, ok := s.issued[ext.UUID]
		s.mu.Unlock()
		if !ok {
			return domain.NewProviderError(CodeUnknownInvoice, fmt.Sprintf("factura externa %s desconocida", ext.UUID))
		}

		to := issued.request.Invoice.PartnerFiscalData.Email()
		if to == "" {
			to = s.cfg.DefaultRecipient
		}
		if to == "" {
			s.log.Warn().
				Str("external_uuid", ext.UUID.String()).
				Msg("Notificación omitida: el receptor no tiene email y MAIL_DEFAULT_RECIPIENT está vacío")
			s.forget(ext.UUID)
			continue
		}
		jobs = append(jobs, job{ext: ext, issued: issued, to: to})
	}

	// Los documentos se generan en paralelo; el orden de los correos sigue el del lote.
	messages := make([]ports.EmailMessage, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(documentWorkers)
	for i, j := range jobs {
		g.Go(func() error {
			msg, err := s.buildMessage(gctx, j.ext, j.issued, j.to)
			if err != nil {
				return err
			}
			messages[i] = msg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Entregada al despachador, la factura ya no se vuelve a notificar
	for i, msg := range messages {
		if err := s.dispatcher.Dispatch(ctx, msg); err != nil {
			return &domain.ProviderError{Code: domain.CodeSendEmail, Message: err.Error(), Err: err}
		}
		s.forget(jobs[i].ext.UUID)
	}
	return nil
}

func (s *Sandbox) forget(id uuid.UUID) {
	s.mu.Lock()
	delete(s.issued, id)
	s.mu.Unlock()
}

func (s *Sandbox) buildMessage(ctx context.Context, ext entity.ExternalInvoiceData, issued issuedInvoice, to string) (ports.EmailMessage, error) {
	req := issued.request
	pdfBytes, err := s.pdf.GenerateInvoicePDF(ctx, ports.InvoiceDocument{
		Request:     req,
		Company:     s.cfg.Company,
		DocumentKey: issued.documentKey,
	})
	if err != nil {
		return ports.EmailMessage{}, &domain.ProviderError{Code: domain.CodePDFGeneration, Message: err.Error(), Err: err}
	}

	xmlName, pdfName, zipName := ubl.Filenames(s.cfg.Company.PrimaryIdentification().Value, req.Invoice.UUID.String())
	zipBytes, err := ubl.Bundle(ext.CreatedAt,
		ubl.BundleFile{Name: xmlName, Content: issued.xml},
		ubl.BundleFile{Name: pdfName, Content: pdfBytes},
	)
	if err != nil {
		return ports.EmailMessage{}, &domain.ProviderError{Code: domain.CodePDFGeneration, Message: err.Error(), Err: err}
	}

	subject := fmt.Sprintf("Factura %s - %s", req.Invoice.UUID, s.cfg.Company.FullName)
	body, err := s.renderer.InvoiceNotification(mail.InvoiceNotificationData{
		Subject:     subject,
		CompanyName: s.cfg.Company.FullName,
		PartnerName: req.Invoice.PartnerFiscalData.FullName,
		InvoiceUUID: req.Invoice.UUID.String(),
		ProcessUUID: req.Process.UUID.String(),
		Status:      string(ext.ProcessStatus),
		Total:       pdf.FormatMoney(req.Invoice.GrossAmountE5),
		DocumentKey: issued.documentKey,
		IssuedAt:    req.Invoice.CreatedAt,
	})
	if err != nil {
		return ports.EmailMessage{}, &domain.ProviderError{Code: domain.CodeSendEmail, Message: err.Error(), Err: err}
	}

	return ports.EmailMessage{
		From:     s.cfg.DefaultSender,
		To:       []string{to},
		Subject:  subject,
		HTMLBody: body,
		Attachments: []ports.EmailAttachment{
			{Filename: pdfName, ContentType: "application/pdf", Content: pdfBytes},
			{Filename: zipName, ContentType: "application/zip", Content: zipBytes},
		},
	}, nil
}

// ExternalServiceIsHealthy el sandbox siempre está disponible mientras el contexto siga vivo.
func (s *Sandbox) ExternalServiceIsHealthy(ctx context.Context) bool {
	return ctx.Err() == nil
}
