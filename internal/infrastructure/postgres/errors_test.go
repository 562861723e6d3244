package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventario-ledger/internal/domain"
)

func TestInsertError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"clave única repetida", &pgconn.PgError{Code: "23505"}, domain.ErrDuplicate},
		{"clave única envuelta", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"}), domain.ErrDuplicate},
		{"fallo de serialización", &pgconn.PgError{Code: "40001"}, domain.ErrConflict},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, domain.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := insertError(tt.err, "insert stock record", "stock de p1 en t1")
			assert.ErrorIs(t, got, tt.want)
			assert.Contains(t, got.Error(), "stock de p1 en t1")
		})
	}
}

func TestInsertErrorSinCodigoSeEnvuelve(t *testing.T) {
	base := &pgconn.PgError{Code: "23503"}
	got := insertError(base, "insert reservation", "reserva r1")
	assert.ErrorIs(t, got, base)
	assert.NotErrorIs(t, got, domain.ErrDuplicate)
	assert.Equal(t, "insert reservation: "+base.Error(), got.Error())

	plain := errors.New("connection reset")
	assert.ErrorIs(t, insertError(plain, "insert transfer", "traslado X"), plain)
}

func TestSchemaEmbebido(t *testing.T) {
	for _, table := range []string{"stock_records", "stock_movements", "reservations", "transfers", "transfer_items", "stock_counts", "escalations"} {
		assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table)
	}
}
