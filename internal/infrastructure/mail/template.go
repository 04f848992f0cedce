package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

// InvoiceNotificationData valores del correo de notificación de una factura.
type InvoiceNotificationData struct {
	Subject     string
	CompanyName string
	PartnerName string
	InvoiceUUID string
	ProcessUUID string
	Status      string
	Total       string
	DocumentKey string
	IssuedAt    time.Time
}

// Renderer plantillas HTML de correo, parseadas una sola vez.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parsea las plantillas embebidas.
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("02/01/2006 15:04 MST")
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("mail: parsear plantillas: %w", err)
	}
	return &Renderer{templates: tpl}, nil
}

// InvoiceNotification genera el cuerpo HTML del aviso de factura.
func (r *Renderer) InvoiceNotification(data InvoiceNotificationData) (string, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, "invoice_notification", data); err != nil {
		return "", fmt.Errorf("mail: renderizar notificación: %w", err)
	}
	return buf.String(), nil
}
