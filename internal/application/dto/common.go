package dto

// ErrorDetail un error individual con código legible por máquina.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse cuerpo de error HTTP. Es una lista para admitir varios errores a la vez.
type ErrorResponse struct {
	ErrorDetails []ErrorDetail `json:"error_details"`
}

// NewErrorResponse respuesta con un único error.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{ErrorDetails: []ErrorDetail{{Code: code, Message: message}}}
}

// Response sobre genérico de éxito; la forma de Data depende del endpoint.
type Response struct {
	Data any `json:"data"`
}

// EmptyObject se serializa como {}.
type EmptyObject struct{}
