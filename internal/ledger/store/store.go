package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/patio/internal/ledger"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const selectMovementColumns = `
	id, kind, amount, method, description, ticket_ref, plate, material, weight_kg,
	customer_id, payment_id, status, operator_id, created_at
`

// scanMovement reads a movement row in selectMovementColumns order.
func scanMovement(s scanner) (*ledger.Movement, error) {
	var m ledger.Movement

	var kind, method, status string

	var ticketRef, plate, material sql.NullString

	if err := s.Scan(
		&m.ID, &kind, &m.Amount, &method, &m.Description, &ticketRef, &plate, &material, &m.WeightKg,
		&m.CustomerID, &m.PaymentID, &status, &m.OperatorID, &m.CreatedAt,
	); err != nil {
		return nil, err
	}

	m.Kind = ledger.Kind(kind)
	m.Method = ledger.Method(method)
	m.Status = ledger.Status(status)
	m.TicketRef = ticketRef.String
	m.Plate = plate.String
	m.Material = material.String

	return &m, nil
}

func scanMovements(rows *sql.Rows) ([]*ledger.Movement, error) {
	defer rows.Close()

	var movements []*ledger.Movement

	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning movement: %w", err)
		}

		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating movement rows: %w", err)
	}

	return movements, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// placeholders returns "$from, $from+1, ..." for n arguments.
func placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", from+i)
	}

	return strings.Join(ps, ", ")
}

func insertMovement(ctx context.Context, q querier, m *ledger.Movement) error {
	query := `
		INSERT INTO cash_movements (kind, amount, method, description, ticket_ref, plate, material, weight_kg,
			customer_id, payment_id, status, operator_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		RETURNING id, created_at
	`

	err := q.QueryRowContext(ctx, query,
		m.Kind,
		m.Amount,
		m.Method,
		m.Description,
		nullString(m.TicketRef),
		nullString(m.Plate),
		nullString(m.Material),
		m.WeightKg,
		m.CustomerID,
		m.PaymentID,
		m.Status,
		m.OperatorID,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating movement: %w", err)
	}

	return nil
}

func (s *Store) CreateMovement(ctx context.Context, m *ledger.Movement) error {
	return insertMovement(ctx, s.db, m)
}

func (s *Store) GetMovement(ctx context.Context, id uuid.UUID) (*ledger.Movement, error) {
	query := `SELECT ` + selectMovementColumns + ` FROM cash_movements WHERE id = $1`

	m, err := scanMovement(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting movement: %w", err)
	}

	return m, nil
}

func (s *Store) ListMovements(ctx context.Context, filter ledger.ListFilter) ([]*ledger.Movement, error) {
	query := `SELECT ` + selectMovementColumns + ` FROM cash_movements WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.Query != "" {
		query += fmt.Sprintf(" AND (description ILIKE $%d OR ticket_ref ILIKE $%d)", argIdx, argIdx)

		args = append(args, "%"+filter.Query+"%")
		argIdx++
	}

	if filter.CustomerID != nil {
		query += fmt.Sprintf(" AND customer_id = $%d", argIdx)

		args = append(args, *filter.CustomerID)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)

		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing movements: %w", err)
	}

	return scanMovements(rows)
}

func (s *Store) PendingSales(ctx context.Context, customerID uuid.UUID) ([]*ledger.Movement, error) {
	query := `SELECT ` + selectMovementColumns + `
		FROM cash_movements
		WHERE customer_id = $1 AND kind = $2 AND status = $3
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, customerID, ledger.KindSale, ledger.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("listing pending sales: %w", err)
	}

	return scanMovements(rows)
}

// SettledHistory returns the latest settled on-account sales and payments of a customer.
func (s *Store) SettledHistory(ctx context.Context, customerID uuid.UUID, limit int) ([]*ledger.Movement, error) {
	query := `SELECT ` + selectMovementColumns + `
		FROM cash_movements
		WHERE customer_id = $1
			AND ((kind = $2 AND method = $3 AND status = $4) OR kind = $5)
		ORDER BY created_at DESC
		LIMIT $6`

	rows, err := s.db.QueryContext(ctx, query,
		customerID,
		ledger.KindSale,
		ledger.MethodOnAccount,
		ledger.StatusPaid,
		ledger.KindPayment,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing settled history: %w", err)
	}

	return scanMovements(rows)
}

func (s *Store) MovementsBetween(ctx context.Context, start, end time.Time) ([]*ledger.Movement, error) {
	query := `SELECT ` + selectMovementColumns + `
		FROM cash_movements
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("listing movements in range: %w", err)
	}

	return scanMovements(rows)
}

type settleTx struct {
	tx *sql.Tx
}

func (s *Store) BeginSettlement(ctx context.Context) (ledger.SettleTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning settlement tx: %w", err)
	}

	return &settleTx{tx: dbTx}, nil
}

func (stx *settleTx) Commit() error   { return stx.tx.Commit() }
func (stx *settleTx) Rollback() error { return stx.tx.Rollback() }

// LockPending re-reads the selected rows with FOR UPDATE so a concurrent settlement of
// the same sales waits for this transaction and then finds them PAID.
func (stx *settleTx) LockPending(ctx context.Context, customerID uuid.UUID, ids []uuid.UUID) ([]*ledger.Movement, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := []any{customerID, ledger.KindSale, ledger.StatusPending}
	for _, id := range ids {
		args = append(args, id)
	}

	query := `SELECT ` + selectMovementColumns + `
		FROM cash_movements
		WHERE customer_id = $1 AND kind = $2 AND status = $3
			AND id IN (` + placeholders(4, len(ids)) + `)
		ORDER BY created_at ASC
		FOR UPDATE`

	rows, err := stx.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("locking pending sales: %w", err)
	}

	return scanMovements(rows)
}

func (stx *settleTx) CreateMovement(ctx context.Context, m *ledger.Movement) error {
	return insertMovement(ctx, stx.tx, m)
}

// MarkPaid links the sales to the payment. Rows that are no longer pending are left alone.
func (stx *settleTx) MarkPaid(ctx context.Context, paymentID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	args := []any{ledger.StatusPaid, paymentID, ledger.StatusPending}
	for _, id := range ids {
		args = append(args, id)
	}

	query := `
		UPDATE cash_movements
		SET status = $1, payment_id = $2
		WHERE status = $3 AND payment_id IS NULL AND id IN (` + placeholders(4, len(ids)) + `)`

	res, err := stx.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("marking sales paid: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("counting updated sales: %w", err)
	}

	if int(n) != len(ids) {
		return fmt.Errorf("marking sales paid: updated %d of %d rows", n, len(ids))
	}

	return nil
}
