package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/shopper-invoicing/internal/domain"
)

// ProcessStatus estado del ciclo de vida de un proceso de facturación.
type ProcessStatus string

// Estados conocidos. Los proveedores pueden reportar otros; se conservan tal cual.
const (
	ProcessStatusPending  ProcessStatus = "pending"
	ProcessStatusApproved ProcessStatus = "approved"
	ProcessStatusRejected ProcessStatus = "rejected"
)

// Known indica si el estado es uno de los definidos por el sistema.
func (s ProcessStatus) Known() bool {
	switch s {
	case ProcessStatusPending, ProcessStatusApproved, ProcessStatusRejected:
		return true
	}
	return false
}

// Terminal indica si desde este estado ya no hay transiciones posibles.
func (s ProcessStatus) Terminal() bool {
	return s == ProcessStatusApproved || s == ProcessStatusRejected
}

// InvoicingProcess proceso de facturación solicitado por un usuario.
// UUID y CreatedAt no cambian; UpdatedAt solo cambia vía TransitionTo.
type InvoicingProcess struct {
	UUID          uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
	UserUUID      uuid.UUID
	Requester     string
	ProcessStatus ProcessStatus
}

// TransitionTo mueve el proceso al estado indicado y actualiza UpdatedAt.
// pending → approved | rejected; los estados terminales son definitivos.
// Pasar al mismo estado no modifica nada.
func (p *InvoicingProcess) TransitionTo(next ProcessStatus, at time.Time) error {
	if p.ProcessStatus == next {
		return nil
	}
	if p.ProcessStatus.Terminal() {
		return fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, p.ProcessStatus, next)
	}
	if !next.Known() {
		return fmt.Errorf("%w: estado desconocido %q", domain.ErrInvalidTransition, next)
	}
	if at.Before(p.CreatedAt) {
		return fmt.Errorf("%w: fecha %s anterior a la creación", domain.ErrInvalidTransition, at.Format(time.RFC3339))
	}
	p.ProcessStatus = next
	p.UpdatedAt = at
	return nil
}

// InvoicingProcessRequest unidad de trabajo enviada al adaptador: un proceso y su factura.
type InvoicingProcessRequest struct {
	Process InvoicingProcess
	Invoice Invoice
}
