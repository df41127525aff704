package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger
type Repository interface {
	CreateMovement(ctx context.Context, m *Movement) error
	GetMovement(ctx context.Context, id uuid.UUID) (*Movement, error)
	ListMovements(ctx context.Context, filter ListFilter) ([]*Movement, error)

	PendingSales(ctx context.Context, customerID uuid.UUID) ([]*Movement, error)
	SettledHistory(ctx context.Context, customerID uuid.UUID, limit int) ([]*Movement, error)
	MovementsBetween(ctx context.Context, start, end time.Time) ([]*Movement, error)

	BeginSettlement(ctx context.Context) (SettleTx, error)
}

// SettleTx is a storage transaction scoped to one settlement.
type SettleTx interface {
	// LockPending returns the pending on-account sales of the customer among ids,
	// locking them until the transaction ends.
	LockPending(ctx context.Context, customerID uuid.UUID, ids []uuid.UUID) ([]*Movement, error)
	CreateMovement(ctx context.Context, m *Movement) error
	MarkPaid(ctx context.Context, paymentID uuid.UUID, ids []uuid.UUID) error
	Commit() error
	Rollback() error
}

const (
	DefaultHistoryLimit = 20
	DefaultListLimit    = 200
)

type Options struct {
	HistoryLimit int
	ListLimit    int
	// StrictSelection fails a settlement when any requested id is not a pending
	// sale of the customer, instead of settling the ones that are.
	StrictSelection bool
	Observer        Observer
}

type Service struct {
	repo Repository
	opts Options
}

func NewService(repo Repository, opts Options) *Service {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}

	if opts.ListLimit <= 0 {
		opts.ListLimit = DefaultListLimit
	}

	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}

	return &Service{repo: repo, opts: opts}
}

type RecordParams struct {
	Kind        Kind
	Amount      decimal.Decimal
	Method      Method
	Description string
	TicketRef   string
	Plate       string
	Material    string
	WeightKg    *float64
	CustomerID  *uuid.UUID
	OperatorID  *uuid.UUID
}

type ListFilter struct {
	Query      string
	CustomerID *uuid.UUID
	Limit      int
}

func (p RecordParams) validate() error {
	if !p.Kind.Valid() {
		return ErrInvalidKind
	}

	if p.Kind == KindPayment {
		return ErrPaymentKind
	}

	if !p.Method.Valid() {
		return ErrInvalidMethod
	}

	// Amounts are stored with 2 places, so anything that rounds to zero is rejected here.
	if !p.Amount.Round(2).IsPositive() {
		return ErrAmountNotPositive
	}

	if strings.TrimSpace(p.Description) == "" {
		return ErrMissingDescription
	}

	if p.Method == MethodOnAccount {
		if p.Kind != KindSale {
			return ErrOnAccountKind
		}

		if p.CustomerID == nil {
			return ErrOnAccountCustomer
		}
	}

	return nil
}

// Record stores a new till movement. On-account sales start PENDING, everything else PAID.
func (s *Service) Record(ctx context.Context, params RecordParams) (*Movement, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	m := &Movement{
		Kind:        params.Kind,
		Amount:      params.Amount.Round(2),
		Method:      params.Method,
		Description: strings.TrimSpace(params.Description),
		TicketRef:   strings.TrimSpace(params.TicketRef),
		Plate:       strings.ToUpper(strings.TrimSpace(params.Plate)),
		Material:    strings.TrimSpace(params.Material),
		WeightKg:    params.WeightKg,
		CustomerID:  params.CustomerID,
		OperatorID:  params.OperatorID,
		Status:      StatusPaid,
	}
	if m.OnAccount() {
		m.Status = StatusPending
	}

	if err := s.repo.CreateMovement(ctx, m); err != nil {
		return nil, &StorageError{Op: "record movement", Err: err}
	}

	s.opts.Observer.MovementRecorded(m)

	return m, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Movement, error) {
	return s.repo.GetMovement(ctx, id)
}

// List returns movements newest first, optionally matching a search query.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Movement, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	if filter.Limit <= 0 || filter.Limit > s.opts.ListLimit {
		filter.Limit = s.opts.ListLimit
	}

	return s.repo.ListMovements(ctx, filter)
}

// Statement computes the running account of a customer from its movements.
func (s *Service) Statement(ctx context.Context, customerID uuid.UUID) (*Statement, error) {
	pending, err := s.repo.PendingSales(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("loading pending sales: %w", err)
	}

	history, err := s.repo.SettledHistory(ctx, customerID, s.opts.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	return &Statement{
		CustomerID: customerID,
		Pending:    pending,
		History:    history,
		TotalDue:   Total(pending),
	}, nil
}

type SettleParams struct {
	CustomerID  uuid.UUID
	MovementIDs []uuid.UUID
	Method      Method
	OperatorID  *uuid.UUID
}

// Settle consolidates the selected pending sales of a customer into one PAYMENT and marks
// them paid. The payment and every status change commit together or not at all.
func (s *Service) Settle(ctx context.Context, params SettleParams) (*Settlement, error) {
	ids := uniqueIDs(params.MovementIDs)
	if len(ids) == 0 {
		return nil, s.rejected(ErrNothingSelected)
	}

	if params.Method == "" {
		return nil, s.rejected(ErrMissingMethod)
	}

	if params.Method == MethodOnAccount || !params.Method.Valid() {
		return nil, s.rejected(ErrInvalidSettleMethod)
	}

	stx, err := s.repo.BeginSettlement(ctx)
	if err != nil {
		return nil, s.failed(&StorageError{Op: "begin settlement", Err: err})
	}
	defer stx.Rollback()

	pending, err := stx.LockPending(ctx, params.CustomerID, ids)
	if err != nil {
		return nil, s.failed(&StorageError{Op: "lock pending sales", Err: err})
	}

	skipped := missingIDs(ids, pending)
	if len(pending) == 0 {
		return nil, s.rejected(ErrNoValidPending)
	}

	if s.opts.StrictSelection && len(skipped) > 0 {
		return nil, s.rejected(ErrStaleSelection)
	}

	customerID := params.CustomerID
	payment := &Movement{
		Kind:        KindPayment,
		Amount:      Total(pending),
		Method:      params.Method,
		Description: fmt.Sprintf("Pagamento de %d pesagem(ns)", len(pending)),
		CustomerID:  &customerID,
		OperatorID:  params.OperatorID,
		Status:      StatusPaid,
	}
	if err := stx.CreateMovement(ctx, payment); err != nil {
		return nil, s.failed(&StorageError{Op: "create payment", Err: err})
	}

	settledIDs := make([]uuid.UUID, len(pending))
	for i, m := range pending {
		settledIDs[i] = m.ID
	}

	if err := stx.MarkPaid(ctx, payment.ID, settledIDs); err != nil {
		return nil, s.failed(&StorageError{Op: "mark sales paid", Err: err})
	}

	if err := stx.Commit(); err != nil {
		return nil, s.failed(&StorageError{Op: "commit settlement", Err: err})
	}

	for _, m := range pending {
		m.Status = StatusPaid
		m.PaymentID = &payment.ID
	}

	result := &Settlement{
		Payment:   payment,
		Settled:   pending,
		Requested: len(ids),
		Skipped:   skipped,
	}
	s.opts.Observer.Settled(result)

	return result, nil
}

func (s *Service) rejected(err *ValidationError) error {
	s.opts.Observer.SettlementRejected(err)
	return err
}

func (s *Service) failed(err *StorageError) error {
	s.opts.Observer.SettlementFailed(err)
	return err
}

// Total sums the amounts of the given movements.
func Total(movements []*Movement) decimal.Decimal {
	total := decimal.Zero
	for _, m := range movements {
		total = total.Add(m.Amount)
	}

	return total
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))

	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}

		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}

func missingIDs(requested []uuid.UUID, found []*Movement) []uuid.UUID {
	got := make(map[uuid.UUID]struct{}, len(found))
	for _, m := range found {
		got[m.ID] = struct{}{}
	}

	var missing []uuid.UUID

	for _, id := range requested {
		if _, ok := got[id]; !ok {
			missing = append(missing, id)
		}
	}

	return missing
}
