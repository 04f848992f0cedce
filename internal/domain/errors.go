package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrMalformedRequest      = errors.New("solicitud mal formada")
	ErrUnauthorizedSatellite = errors.New("satélite no autorizado")
	ErrProviderContract      = errors.New("el proveedor violó el contrato del adaptador")
	ErrInvalidTransition     = errors.New("transición de estado inválida")
)

// Códigos de error expuestos en ErrorDetail.Code.
const (
	CodeMalformedRequest      = "MALFORMED_REQUEST"
	CodeUnauthorizedSatellite = "SATELLITE_UNAUTHORIZED_ERROR"
	CodeProviderContract      = "PROVIDER_CONTRACT_VIOLATION"
	CodePDFGeneration         = "PDF_GENERATION_ERROR"
	CodeSendEmail             = "SEND_EMAIL_ERROR"
	CodeInternal              = "INTERNAL"
)

// Violation un campo concreto que no pudo interpretarse.
// Path es un JSON Pointer relativo al cuerpo recibido (ej: /0/invoice/lines/1/amount_e5).
type Violation struct {
	Path   string
	Reason string
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Reason
	}
	return v.Path + ": " + v.Reason
}

// MalformedRequestError agrupa todas las violaciones encontradas al interpretar un payload.
type MalformedRequestError struct {
	Violations []Violation
}

// NewMalformedRequest construye el error con una única violación.
func NewMalformedRequest(path, reason string) *MalformedRequestError {
	return &MalformedRequestError{Violations: []Violation{{Path: path, Reason: reason}}}
}

func (e *MalformedRequestError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("%s: %s", ErrMalformedRequest.Error(), strings.Join(parts, "; "))
}

// Is permite errors.Is(err, ErrMalformedRequest).
func (e *MalformedRequestError) Is(target error) bool {
	return target == ErrMalformedRequest
}

// ProviderError falla reportada por un adaptador de proveedor externo.
// Message puede ser texto plano o un documento JSON devuelto por el proveedor.
type ProviderError struct {
	Code    string
	Message string
	Err     error
}

// NewProviderError construye un ProviderError sin causa subyacente.
func NewProviderError(code, message string) *ProviderError {
	return &ProviderError{Code: code, Message: message}
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("proveedor [%s]: %s", e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// AsProviderError extrae el ProviderError de la cadena, si existe.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
