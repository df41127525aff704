package store_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/patio/internal/ledger"
	"github.com/MrJamesThe3rd/patio/internal/ledger/store"
)

var movementColumns = []string{
	"id", "kind", "amount", "method", "description", "ticket_ref", "plate", "material", "weight_kg",
	"customer_id", "payment_id", "status", "operator_id", "created_at",
}

func newStore(t *testing.T) (*store.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	return store.New(db), mock
}

func pendingRow(rows *sqlmock.Rows, id, customerID uuid.UUID, amount string, at time.Time) *sqlmock.Rows {
	return rows.AddRow(
		id.String(), "SALE", amount, "ON_ACCOUNT", "Fiado", nil, "ABC1D23", "cobre", 12.5,
		customerID.String(), nil, "PENDING", nil, at,
	)
}

func TestStore_CreateMovement(t *testing.T) {
	s, mock := newStore(t)

	id := uuid.New()
	at := time.Date(2025, 8, 11, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO cash_movements .* RETURNING id, created_at`).
		WithArgs(
			ledger.KindSale, sqlmock.AnyArg(), ledger.MethodCash, "Venda balcão",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), nil,
			nil, nil, ledger.StatusPaid, nil,
		).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(id.String(), at))

	m := &ledger.Movement{
		Kind:        ledger.KindSale,
		Amount:      decimal.RequireFromString("100.00"),
		Method:      ledger.MethodCash,
		Description: "Venda balcão",
		Status:      ledger.StatusPaid,
	}

	require.NoError(t, s.CreateMovement(context.Background(), m))
	assert.Equal(t, id, m.ID)
	assert.True(t, at.Equal(m.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetMovement(t *testing.T) {
	s, mock := newStore(t)

	id, customerID := uuid.New(), uuid.New()
	at := time.Date(2025, 8, 11, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM cash_movements WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnRows(pendingRow(sqlmock.NewRows(movementColumns), id, customerID, "70.00", at))

	m, err := s.GetMovement(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, id, m.ID)
	assert.Equal(t, ledger.KindSale, m.Kind)
	assert.Equal(t, ledger.MethodOnAccount, m.Method)
	assert.Equal(t, ledger.StatusPending, m.Status)
	assert.Equal(t, "70.00", m.Amount.StringFixed(2))
	assert.Equal(t, "ABC1D23", m.Plate)
	assert.Empty(t, m.TicketRef)
	require.NotNil(t, m.CustomerID)
	assert.Equal(t, customerID, *m.CustomerID)
	require.NotNil(t, m.WeightKg)
	assert.InDelta(t, 12.5, *m.WeightKg, 0.0001)
	assert.Nil(t, m.PaymentID)
	assert.Nil(t, m.OperatorID)
}

func TestStore_GetMovement_NotFound(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectQuery(`SELECT .* FROM cash_movements WHERE id = \$1`).
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetMovement(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestStore_ListMovements(t *testing.T) {
	customerID := uuid.New()

	tests := []struct {
		name   string
		filter ledger.ListFilter
		query  string
		args   []driver.Value
	}{
		{
			name:   "no filter",
			filter: ledger.ListFilter{},
			query:  `SELECT .* FROM cash_movements WHERE TRUE ORDER BY created_at DESC$`,
		},
		{
			name:   "search and limit",
			filter: ledger.ListFilter{Query: "cobre", Limit: 200},
			query:  `WHERE TRUE AND \(description ILIKE \$1 OR ticket_ref ILIKE \$1\) ORDER BY created_at DESC LIMIT \$2`,
			args:   []driver.Value{"%cobre%", 200},
		},
		{
			name:   "customer only",
			filter: ledger.ListFilter{CustomerID: &customerID, Limit: 10},
			query:  `WHERE TRUE AND customer_id = \$1 ORDER BY created_at DESC LIMIT \$2`,
			args:   []driver.Value{customerID.String(), 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newStore(t)

			expect := mock.ExpectQuery(tt.query)
			if len(tt.args) > 0 {
				expect = expect.WithArgs(tt.args...)
			}

			expect.WillReturnRows(pendingRow(sqlmock.NewRows(movementColumns), uuid.New(), customerID, "10.00", time.Now()))

			got, err := s.ListMovements(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Len(t, got, 1)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_PendingSales(t *testing.T) {
	s, mock := newStore(t)

	customerID := uuid.New()
	base := time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(movementColumns)
	pendingRow(rows, uuid.New(), customerID, "100.00", base)
	pendingRow(rows, uuid.New(), customerID, "50.00", base.Add(time.Hour))

	mock.ExpectQuery(`FROM cash_movements WHERE customer_id = \$1 AND kind = \$2 AND status = \$3 ORDER BY created_at ASC`).
		WithArgs(customerID.String(), "SALE", "PENDING").
		WillReturnRows(rows)

	got, err := s.PendingSales(context.Background(), customerID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "150.00", ledger.Total(got).StringFixed(2))
}

func TestStore_SettledHistory(t *testing.T) {
	s, mock := newStore(t)

	customerID := uuid.New()

	mock.ExpectQuery(`OR kind = \$5\) ORDER BY created_at DESC LIMIT \$6`).
		WithArgs(customerID.String(), "SALE", "ON_ACCOUNT", "PAID", "PAYMENT", int64(20)).
		WillReturnRows(sqlmock.NewRows(movementColumns))

	got, err := s.SettledHistory(context.Background(), customerID, 20)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_MovementsBetween_ScanError(t *testing.T) {
	s, mock := newStore(t)

	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Second)

	mock.ExpectQuery(`WHERE created_at >= \$1 AND created_at <= \$2`).
		WithArgs(start, end).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("not-a-uuid"))

	_, err := s.MovementsBetween(context.Background(), start, end)
	assert.ErrorContains(t, err, "scanning movement")
}

func TestStore_Settlement(t *testing.T) {
	s, mock := newStore(t)

	customerID, paymentID := uuid.New(), uuid.New()
	a, b := uuid.New(), uuid.New()
	at := time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(movementColumns)
	pendingRow(rows, a, customerID, "100.00", at)
	pendingRow(rows, b, customerID, "75.00", at.Add(time.Minute))

	mock.ExpectBegin()
	mock.ExpectQuery(`AND id IN \(\$4, \$5\) ORDER BY created_at ASC FOR UPDATE`).
		WithArgs(customerID.String(), "SALE", "PENDING", a.String(), b.String()).
		WillReturnRows(rows)
	mock.ExpectQuery(`INSERT INTO cash_movements`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(paymentID.String(), at))
	mock.ExpectExec(`UPDATE cash_movements SET status = \$1, payment_id = \$2 WHERE status = \$3 AND payment_id IS NULL AND id IN \(\$4, \$5\)`).
		WithArgs("PAID", paymentID.String(), "PENDING", a.String(), b.String()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	ctx := context.Background()

	tx, err := s.BeginSettlement(ctx)
	require.NoError(t, err)

	locked, err := tx.LockPending(ctx, customerID, []uuid.UUID{a, b})
	require.NoError(t, err)
	require.Len(t, locked, 2)

	payment := &ledger.Movement{
		Kind:       ledger.KindPayment,
		Amount:     ledger.Total(locked),
		Method:     ledger.MethodPix,
		CustomerID: &customerID,
		Status:     ledger.StatusPaid,
	}
	require.NoError(t, tx.CreateMovement(ctx, payment))
	assert.Equal(t, paymentID, payment.ID)

	require.NoError(t, tx.MarkPaid(ctx, payment.ID, []uuid.UUID{a, b}))
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_MarkPaid_RaceLost(t *testing.T) {
	s, mock := newStore(t)

	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE cash_movements`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	ctx := context.Background()

	tx, err := s.BeginSettlement(ctx)
	require.NoError(t, err)

	err = tx.MarkPaid(ctx, uuid.New(), []uuid.UUID{id})
	assert.ErrorContains(t, err, "updated 0 of 1 rows")

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_BeginSettlement_Error(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, err := s.BeginSettlement(context.Background())
	assert.ErrorContains(t, err, "beginning settlement tx")
}

func TestStore_LockPending_Empty(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectBegin()

	tx, err := s.BeginSettlement(context.Background())
	require.NoError(t, err)

	got, err := tx.LockPending(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
