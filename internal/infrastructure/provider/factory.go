// Package provider contiene las integraciones con proveedores externos de facturación
// y la fábrica que elige una al arrancar según PROVIDER_NAME.
package provider

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/shopper-invoicing/internal/application/ports"
	"github.com/jhoicas/shopper-invoicing/internal/domain/entity"
	"github.com/jhoicas/shopper-invoicing/internal/infrastructure/mail"
	"github.com/jhoicas/shopper-invoicing/internal/infrastructure/pdf"
	"github.com/jhoicas/shopper-invoicing/pkg/config"
)

// Nombres de los adaptadores disponibles.
const (
	NameSandbox = "sandbox"
	NameREST    = "rest"
)

// Options dependencias para construir el adaptador configurado.
type Options struct {
	Provider    config.ProviderConfig
	Company     config.CompanyConfig
	Mail        config.MailConfig
	ServiceName string
	Dispatcher  ports.EmailDispatcher // solo sandbox
	Logger      zerolog.Logger
}

// New devuelve el adaptador seleccionado y su nombre (para los logs).
func New(opts Options) (ports.InvoicingAdapter, string, error) {
	log := opts.Logger.With().Str("provider", opts.Provider.Name).Logger()
	switch opts.Provider.Name {
	case NameSandbox:
		if opts.Dispatcher == nil {
			return nil, "", fmt.Errorf("provider: el sandbox requiere un despachador de correo")
		}
		renderer, err := mail.NewRenderer()
		if err != nil {
			return nil, "", err
		}
		sandbox := NewSandbox(SandboxConfig{
			Company:          CompanyFiscalData(opts.Company),
			DefaultSender:    opts.Mail.DefaultSender,
			DefaultRecipient: opts.Mail.DefaultRecipient,
		}, pdf.NewMarotoPDFGenerator(), renderer, opts.Dispatcher, log)
		return sandbox, NameSandbox, nil
	case NameREST:
		if opts.Provider.BaseURL == "" || opts.Provider.JWTSecret == "" {
			return nil, "", fmt.Errorf("provider: rest requiere PROVIDER_BASE_URL y PROVIDER_JWT_SECRET")
		}
		return NewREST(RESTConfig{
			BaseURL:       opts.Provider.BaseURL,
			JWTSecret:     opts.Provider.JWTSecret,
			JWTIssuer:     opts.Provider.JWTIssuer,
			JWTExpMinutes: opts.Provider.JWTExpMinutes,
			ServiceName:   opts.ServiceName,
			Timeout:       opts.Provider.Timeout,
		}, log), NameREST, nil
	default:
		return nil, "", fmt.Errorf("provider: adaptador desconocido %q", opts.Provider.Name)
	}
}

// CompanyFiscalData identidad fiscal del emisor a partir de la configuración.
func CompanyFiscalData(c config.CompanyConfig) entity.CompanyFiscalData {
	id := entity.Identity{FullName: c.FullName, FormOfIdentification: []entity.KeyValueField{}, ExtraFields: []entity.KeyValueField{}}
	if c.TaxID != "" {
		id.FormOfIdentification = append(id.FormOfIdentification, entity.KeyValueField{Name: c.TaxIDType, Value: c.TaxID})
	}
	return entity.CompanyFiscalData{Identity: id}
}
