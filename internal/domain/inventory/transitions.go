package inventory

import (
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// TransferEvent evento que dispara una transición del traslado.
type TransferEvent string

const (
	EventSubmit   TransferEvent = "submit"
	EventApprove  TransferEvent = "approve"
	EventReject   TransferEvent = "reject"
	EventSend     TransferEvent = "send"
	EventDispatch TransferEvent = "dispatch"
	EventReceive  TransferEvent = "receive"
	EventCancel   TransferEvent = "cancel"
	EventEdit     TransferEvent = "edit" // agregar líneas; no cambia el estado
	EventUnlabel  TransferEvent = "unlabel"
)

type transferEdge struct {
	from  entity.TransferStatus
	event TransferEvent
}

// transferTable estado × evento → siguiente estado.
// receive no aparece: su destino depende de las discrepancias (ver ReceiveOutcome).
var transferTable = map[transferEdge]entity.TransferStatus{
	{entity.TransferDraft, EventEdit}:              entity.TransferDraft,
	{entity.TransferDraft, EventUnlabel}:           entity.TransferDraft,
	{entity.TransferApproved, EventUnlabel}:        entity.TransferApproved,
	{entity.TransferDraft, EventSubmit}:            entity.TransferPendingApproval,
	{entity.TransferDraft, EventSend}:              entity.TransferSent,
	{entity.TransferDraft, EventCancel}:            entity.TransferCancelled,
	{entity.TransferPendingApproval, EventApprove}: entity.TransferApproved,
	{entity.TransferPendingApproval, EventReject}:  entity.TransferCancelled,
	{entity.TransferPendingApproval, EventCancel}:  entity.TransferCancelled,
	{entity.TransferApproved, EventSend}:           entity.TransferSent,
	{entity.TransferApproved, EventCancel}:         entity.TransferCancelled,
	{entity.TransferSent, EventDispatch}:           entity.TransferInTransit,
}

var receivable = map[entity.TransferStatus]bool{
	entity.TransferSent:      true,
	entity.TransferInTransit: true,
}

// NextTransferStatus valida la transición y devuelve el nuevo estado.
// Un traslado que requiere aprobación no puede enviarse desde draft.
func NextTransferStatus(t *entity.Transfer, ev TransferEvent) (entity.TransferStatus, error) {
	if ev == EventSubmit && !t.RequiresApproval {
		return "", fmt.Errorf("%w: el traslado %s no requiere aprobación", domain.ErrInvalidState, t.Number)
	}
	if ev == EventSend && t.Status == entity.TransferDraft && t.RequiresApproval {
		return "", fmt.Errorf("%w: el traslado %s requiere aprobación antes de enviarse", domain.ErrInvalidState, t.Number)
	}
	next, ok := transferTable[transferEdge{t.Status, ev}]
	if !ok {
		return "", fmt.Errorf("%w: evento %s no permitido en estado %s", domain.ErrInvalidState, ev, t.Status)
	}
	return next, nil
}

// ReceiveOutcome estado final de una recepción según haya o no discrepancias.
func ReceiveOutcome(t *entity.Transfer, hasMismatch bool) (entity.TransferStatus, error) {
	if !receivable[t.Status] {
		return "", fmt.Errorf("%w: evento %s no permitido en estado %s", domain.ErrInvalidState, EventReceive, t.Status)
	}
	if hasMismatch {
		return entity.TransferPartiallyReceived, nil
	}
	return entity.TransferReceived, nil
}

// IsTransferOpen true mientras la mercancía está fuera del origen y sin recibir.
func IsTransferOpen(s entity.TransferStatus) bool {
	return receivable[s]
}

// AcceptanceEvent evento del ciclo de aceptación de un registro de stock.
type AcceptanceEvent string

const (
	EventAccept   AcceptanceEvent = "accept"
	EventEscalate AcceptanceEvent = "escalate"
	EventResolve  AcceptanceEvent = "resolve"
)

type acceptanceEdge struct {
	from  entity.AcceptanceStatus
	event AcceptanceEvent
}

var acceptanceTable = map[acceptanceEdge]entity.AcceptanceStatus{
	{entity.AcceptancePending, EventAccept}:    entity.AcceptanceAccepted,
	{entity.AcceptancePending, EventEscalate}:  entity.AcceptanceEscalated,
	{entity.AcceptanceEscalated, EventResolve}: entity.AcceptanceResolved,
	{entity.AcceptanceResolved, EventAccept}:   entity.AcceptanceAccepted,
}

// NextAcceptanceStatus valida la transición de aceptación.
func NextAcceptanceStatus(from entity.AcceptanceStatus, ev AcceptanceEvent) (entity.AcceptanceStatus, error) {
	next, ok := acceptanceTable[acceptanceEdge{from, ev}]
	if !ok {
		return "", fmt.Errorf("%w: %s no permitido en estado de aceptación %s", domain.ErrInvalidState, ev, from)
	}
	return next, nil
}
