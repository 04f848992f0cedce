package ports

import "context"

// EmailAttachment archivo adjunto de un correo.
type EmailAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

// EmailMessage mensaje listo para enviar. Es un valor inmutable una vez entregado al despachador.
type EmailMessage struct {
	From        string            `json:"from,omitempty"`
	To          []string          `json:"to"`
	Subject     string            `json:"subject"`
	HTMLBody    string            `json:"html_body"`
	Attachments []EmailAttachment `json:"attachments,omitempty"`
}

// Clone copia profunda del mensaje: el receptor no comparte memoria con quien lo construyó.
func (m EmailMessage) Clone() EmailMessage {
	out := m
	out.To = append([]string(nil), m.To...)
	if m.Attachments != nil {
		out.Attachments = make([]EmailAttachment, len(m.Attachments))
		for i, a := range m.Attachments {
			a.Content = append([]byte(nil), a.Content...)
			out.Attachments[i] = a
		}
	}
	return out
}

// EmailSender entrega un correo de forma síncrona (SMTP u otro transporte).
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailDispatcher entrega un correo en segundo plano ("fire-and-forget").
// El error solo refleja la entrega al trabajador, nunca el envío real.
type EmailDispatcher interface {
	Dispatch(ctx context.Context, msg EmailMessage) error
}
