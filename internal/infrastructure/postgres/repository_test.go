package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/pkg/config"
)

// fakeQuerier registra las sentencias y devuelve respuestas programadas.
type fakeQuerier struct {
	sql      []string
	args     [][]any
	execTag  pgconn.CommandTag
	execErr  error
	rowValue []any
	rowErr   error
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args)
	return f.execTag, f.execErr
}

func (f *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("no soportado")
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args)
	return fakeRow{values: f.rowValue, err: f.rowErr}
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int:
			*p = r.values[i].(int)
		case *string:
			*p = r.values[i].(string)
		}
	}
	return nil
}

func TestNumberAllocator_FormateaAnioYSecuencia(t *testing.T) {
	q := &fakeQuerier{rowValue: []any{7}}
	n, err := NewInvoiceNumberAllocator(q).Next(context.Background(), "c-1", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2025-0007", n)
	assert.Contains(t, q.sql[0], "ON CONFLICT (contractor_id, year)")
	assert.Equal(t, []any{"c-1", 2025}, q.args[0])
}

func TestUpdateLifecycle_CompareAndSetSobreElEstado(t *testing.T) {
	q := &fakeQuerier{execTag: pgconn.NewCommandTag("UPDATE 0")}
	inv := &entity.Invoice{ID: "inv-1", Status: entity.InvoiceStatusPaid}

	ok, err := NewInvoiceRepository(q).UpdateLifecycle(context.Background(), inv, entity.InvoiceStatusSent)
	require.NoError(t, err)
	assert.False(t, ok, "0 filas afectadas: otro actor cambió el estado antes")
	assert.Contains(t, q.sql[0], "WHERE id = $1 AND status = $7")
	assert.Equal(t, "SENT", q.args[0][6])

	q.execTag = pgconn.NewCommandTag("UPDATE 1")
	ok, err = NewInvoiceRepository(q).UpdateLifecycle(context.Background(), inv, entity.InvoiceStatusSent)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInvoiceCreate_OcurrenciaDuplicadaEsAlreadyGenerated(t *testing.T) {
	q := &fakeQuerier{execErr: &pgconn.PgError{Code: "23505", ConstraintName: recurringIssueConstraint}}
	rid := "sched-1"
	inv := &entity.Invoice{
		ContractorID: "c-1", ClientID: "cl-1", RecurringInvoiceID: &rid,
		InvoiceNumber: "2024-0001", Status: entity.InvoiceStatusDraft,
		IssueDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	err := NewInvoiceRepository(q).Create(context.Background(), inv)
	assert.ErrorIs(t, err, domain.ErrAlreadyGenerated)

	q.execErr = &pgconn.PgError{Code: "23505", ConstraintName: "invoices_number_key"}
	err = NewInvoiceRepository(q).Create(context.Background(), inv)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestUpdateDraft_FacturaEmitidaEstaBloqueada(t *testing.T) {
	q := &fakeQuerier{execTag: pgconn.NewCommandTag("UPDATE 0")}
	repo := NewInvoiceRepository(stubGetByID{fakeQuerier: q, found: true})
	err := repo.UpdateDraft(context.Background(), &entity.Invoice{ID: "inv-1"})
	assert.ErrorIs(t, err, domain.ErrInvoiceLocked)

	repo = NewInvoiceRepository(stubGetByID{fakeQuerier: q, found: false})
	err = repo.UpdateDraft(context.Background(), &entity.Invoice{ID: "inv-1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// stubGetByID responde a GetByID con una factura en SENT o con ErrNoRows.
type stubGetByID struct {
	*fakeQuerier
	found bool
}

func (s stubGetByID) QueryRow(context.Context, string, ...any) pgx.Row {
	if !s.found {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return sentInvoiceRow{}
}

type sentInvoiceRow struct{}

func (sentInvoiceRow) Scan(dest ...any) error {
	*(dest[5].(*string)) = "SENT"
	return nil
}

func TestViolatedConstraint_SoloParaUnicidad(t *testing.T) {
	assert.Equal(t, "x_key", violatedConstraint(&pgconn.PgError{Code: "23505", ConstraintName: "x_key"}))
	assert.Empty(t, violatedConstraint(&pgconn.PgError{Code: "23503", ConstraintName: "fk"}))
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(errors.New("timeout")))
}

func TestConfigurePool_AplicaLimitesYTimeout(t *testing.T) {
	cfg := config.DBConfig{Host: "db", Port: 5432, User: "zzp", DBName: "facturen", SSLMode: "disable", MaxConns: 7, StatementTimeout: 5 * time.Second}
	pc, err := pgxpool.ParseConfig(cfg.ConnectionString())
	require.NoError(t, err)

	configurePool(pc, cfg)

	assert.Equal(t, int32(7), pc.MaxConns)
	assert.Equal(t, "5000", pc.ConnConfig.RuntimeParams["statement_timeout"])
	assert.NotNil(t, pc.AfterConnect)
}
