package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

func TestNextTransferStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   entity.TransferStatus
		approval bool
		event    TransferEvent
		want     entity.TransferStatus
		wantErr  bool
	}{
		{"envío directo sin aprobación", entity.TransferDraft, false, EventSend, entity.TransferSent, false},
		{"envío directo con aprobación pendiente", entity.TransferDraft, true, EventSend, "", true},
		{"submit sin requerir aprobación", entity.TransferDraft, false, EventSubmit, "", true},
		{"submit con aprobación", entity.TransferDraft, true, EventSubmit, entity.TransferPendingApproval, false},
		{"aprobar", entity.TransferPendingApproval, true, EventApprove, entity.TransferApproved, false},
		{"rechazar", entity.TransferPendingApproval, true, EventReject, entity.TransferCancelled, false},
		{"enviar aprobado", entity.TransferApproved, true, EventSend, entity.TransferSent, false},
		{"despachar", entity.TransferSent, false, EventDispatch, entity.TransferInTransit, false},
		{"cancelar borrador", entity.TransferDraft, false, EventCancel, entity.TransferCancelled, false},
		{"cancelar enviado", entity.TransferSent, false, EventCancel, "", true},
		{"editar enviado", entity.TransferSent, false, EventEdit, "", true},
		{"reenviar recibido", entity.TransferReceived, false, EventSend, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &entity.Transfer{Number: "TRF-TEST", Status: tt.status, RequiresApproval: tt.approval}
			got, err := NextTransferStatus(tr, tt.event)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidState)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReceiveOutcome(t *testing.T) {
	sent := &entity.Transfer{Status: entity.TransferSent}
	got, err := ReceiveOutcome(sent, false)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferReceived, got)

	inTransit := &entity.Transfer{Status: entity.TransferInTransit}
	got, err = ReceiveOutcome(inTransit, true)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferPartiallyReceived, got)

	_, err = ReceiveOutcome(&entity.Transfer{Status: entity.TransferDraft}, false)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestNextAcceptanceStatus(t *testing.T) {
	next, err := NextAcceptanceStatus(entity.AcceptancePending, EventAccept)
	require.NoError(t, err)
	assert.Equal(t, entity.AcceptanceAccepted, next)

	_, err = NextAcceptanceStatus(entity.AcceptanceAccepted, EventAccept)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "no se puede aceptar dos veces")

	next, err = NextAcceptanceStatus(entity.AcceptanceEscalated, EventResolve)
	require.NoError(t, err)
	assert.Equal(t, entity.AcceptanceResolved, next)

	_, err = NextAcceptanceStatus(entity.AcceptanceEscalated, EventAccept)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCostCalculator(t *testing.T) {
	// 10 a 100 + 10 a 200 = 150
	got := CostCalculator(10, decimalFromInt(100), 10, decimalFromInt(200))
	assert.True(t, got.Equal(decimalFromInt(150)), "costo promedio esperado 150, obtuvo %s", got)
	assert.True(t, CostCalculator(0, decimalFromInt(0), 0, decimalFromInt(5)).IsZero())
}

func decimalFromInt(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
