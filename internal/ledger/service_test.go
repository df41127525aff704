package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/patio/internal/ledger"
)

func pendingSale(customerID uuid.UUID, amount string) *ledger.Movement {
	return &ledger.Movement{
		ID:         uuid.New(),
		Kind:       ledger.KindSale,
		Amount:     decimal.RequireFromString(amount),
		Method:     ledger.MethodOnAccount,
		CustomerID: &customerID,
		Status:     ledger.StatusPending,
		CreatedAt:  time.Date(2025, 8, 11, 9, 0, 0, 0, time.UTC),
	}
}

func idsOf(ms ...*ledger.Movement) []uuid.UUID {
	ids := make([]uuid.UUID, len(ms))
	for i, m := range ms {
		ids[i] = m.ID
	}

	return ids
}

func TestService_Record(t *testing.T) {
	customerID := uuid.New()

	type testCase struct {
		name       string
		params     ledger.RecordParams
		setupMock  func(m *ledger.MockRepository)
		wantErr    error
		wantStatus ledger.Status
	}

	tests := []testCase{
		{
			name: "CashSalePaid",
			params: ledger.RecordParams{
				Kind:        ledger.KindSale,
				Amount:      decimal.RequireFromString("120.50"),
				Method:      ledger.MethodCash,
				Description: "Sucata de cobre",
				Plate:       "abc1d23",
			},
			setupMock: func(m *ledger.MockRepository) {
				m.EXPECT().
					CreateMovement(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, mv *ledger.Movement) error {
						assert.Equal(t, "ABC1D23", mv.Plate)
						mv.ID = uuid.New()
						return nil
					})
			},
			wantStatus: ledger.StatusPaid,
		},
		{
			name: "OnAccountSalePending",
			params: ledger.RecordParams{
				Kind:        ledger.KindSale,
				Amount:      decimal.RequireFromString("80"),
				Method:      ledger.MethodOnAccount,
				Description: "Pesagem 42",
				CustomerID:  &customerID,
			},
			setupMock: func(m *ledger.MockRepository) {
				m.EXPECT().CreateMovement(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantStatus: ledger.StatusPending,
		},
		{
			name: "WithdrawalPaid",
			params: ledger.RecordParams{
				Kind:        ledger.KindWithdrawal,
				Amount:      decimal.RequireFromString("500"),
				Method:      ledger.MethodCash,
				Description: "Sangria para o cofre",
			},
			setupMock: func(m *ledger.MockRepository) {
				m.EXPECT().CreateMovement(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantStatus: ledger.StatusPaid,
		},
		{
			name: "OnAccountWithoutCustomer",
			params: ledger.RecordParams{
				Kind:        ledger.KindSale,
				Amount:      decimal.RequireFromString("80"),
				Method:      ledger.MethodOnAccount,
				Description: "Pesagem",
			},
			wantErr: ledger.ErrOnAccountCustomer,
		},
		{
			name: "OnAccountWithdrawal",
			params: ledger.RecordParams{
				Kind:        ledger.KindWithdrawal,
				Amount:      decimal.RequireFromString("80"),
				Method:      ledger.MethodOnAccount,
				Description: "Sangria",
				CustomerID:  &customerID,
			},
			wantErr: ledger.ErrOnAccountKind,
		},
		{
			name: "ZeroAmount",
			params: ledger.RecordParams{
				Kind:        ledger.KindSale,
				Amount:      decimal.Zero,
				Method:      ledger.MethodPix,
				Description: "Pesagem",
			},
			wantErr: ledger.ErrAmountNotPositive,
		},
		{
			name: "AmountRoundsToZero",
			params: ledger.RecordParams{
				Kind:        ledger.KindSale,
				Amount:      decimal.RequireFromString("0.004"),
				Method:      ledger.MethodCash,
				Description: "Pesagem",
			},
			wantErr: ledger.ErrAmountNotPositive,
		},
		{
			name: "AmountRoundsUpToCent",
			params: ledger.RecordParams{
				Kind:        ledger.KindSale,
				Amount:      decimal.RequireFromString("0.005"),
				Method:      ledger.MethodCash,
				Description: "Pesagem",
			},
			setupMock: func(m *ledger.MockRepository) {
				m.EXPECT().
					CreateMovement(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, mv *ledger.Movement) error {
						assert.Equal(t, "0.01", mv.Amount.StringFixed(2))
						return nil
					})
			},
			wantStatus: ledger.StatusPaid,
		},
		{
			name: "PaymentKindRejected",
			params: ledger.RecordParams{
				Kind:        ledger.KindPayment,
				Amount:      decimal.RequireFromString("10"),
				Method:      ledger.MethodPix,
				Description: "Pagamento",
			},
			wantErr: ledger.ErrPaymentKind,
		},
		{
			name: "MissingDescription",
			params: ledger.RecordParams{
				Kind:   ledger.KindExpense,
				Amount: decimal.RequireFromString("10"),
				Method: ledger.MethodCash,
			},
			wantErr: ledger.ErrMissingDescription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := ledger.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := ledger.NewService(repo, ledger.Options{})
			got, err := svc.Record(context.Background(), tt.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, ledger.IsValidation(err))
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
		})
	}
}

func TestService_Record_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	repo.EXPECT().CreateMovement(gomock.Any(), gomock.Any()).Return(errors.New("db error"))

	svc := ledger.NewService(repo, ledger.Options{})
	_, err := svc.Record(context.Background(), ledger.RecordParams{
		Kind:        ledger.KindSale,
		Amount:      decimal.RequireFromString("10"),
		Method:      ledger.MethodCash,
		Description: "Pesagem",
	})

	var se *ledger.StorageError
	require.ErrorAs(t, err, &se)
	assert.False(t, ledger.IsValidation(err))
}

func TestService_Settle_Validation(t *testing.T) {
	customerID := uuid.New()

	tests := []struct {
		name    string
		params  ledger.SettleParams
		wantErr error
	}{
		{
			name:    "NothingSelected",
			params:  ledger.SettleParams{CustomerID: customerID, Method: ledger.MethodPix},
			wantErr: ledger.ErrNothingSelected,
		},
		{
			name:    "MissingMethod",
			params:  ledger.SettleParams{CustomerID: customerID, MovementIDs: []uuid.UUID{uuid.New()}},
			wantErr: ledger.ErrMissingMethod,
		},
		{
			name: "OnAccountMethod",
			params: ledger.SettleParams{
				CustomerID:  customerID,
				MovementIDs: []uuid.UUID{uuid.New()},
				Method:      ledger.MethodOnAccount,
			},
			wantErr: ledger.ErrInvalidSettleMethod,
		},
		{
			name: "UnknownMethod",
			params: ledger.SettleParams{
				CustomerID:  customerID,
				MovementIDs: []uuid.UUID{uuid.New()},
				Method:      ledger.Method("CHEQUE"),
			},
			wantErr: ledger.ErrInvalidSettleMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// No expectations: nothing may touch storage.
			repo := ledger.NewMockRepository(ctrl)
			svc := ledger.NewService(repo, ledger.Options{})

			got, err := svc.Settle(context.Background(), tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, got)
		})
	}
}

func TestService_Settle_NoValidPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	stx := ledger.NewMockSettleTx(ctrl)
	svc := ledger.NewService(repo, ledger.Options{})

	customerID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	repo.EXPECT().BeginSettlement(gomock.Any()).Return(stx, nil)
	stx.EXPECT().LockPending(gomock.Any(), customerID, ids).Return(nil, nil)
	stx.EXPECT().Rollback().Return(nil)

	got, err := svc.Settle(context.Background(), ledger.SettleParams{
		CustomerID:  customerID,
		MovementIDs: ids,
		Method:      ledger.MethodCash,
	})
	assert.ErrorIs(t, err, ledger.ErrNoValidPending)
	assert.Nil(t, got)
}

func TestService_Settle_AllPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	stx := ledger.NewMockSettleTx(ctrl)
	svc := ledger.NewService(repo, ledger.Options{})

	customerID := uuid.New()
	s1 := pendingSale(customerID, "100.00")
	s2 := pendingSale(customerID, "50.00")
	s3 := pendingSale(customerID, "25.00")
	ids := idsOf(s1, s2, s3)
	paymentID := uuid.New()

	repo.EXPECT().BeginSettlement(gomock.Any()).Return(stx, nil)
	stx.EXPECT().LockPending(gomock.Any(), customerID, ids).Return([]*ledger.Movement{s1, s2, s3}, nil)
	stx.EXPECT().
		CreateMovement(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, mv *ledger.Movement) error {
			assert.Equal(t, ledger.KindPayment, mv.Kind)
			assert.Equal(t, ledger.StatusPaid, mv.Status)
			assert.Equal(t, ledger.MethodPix, mv.Method)
			assert.Equal(t, "175.00", mv.Amount.StringFixed(2))
			require.NotNil(t, mv.CustomerID)
			assert.Equal(t, customerID, *mv.CustomerID)
			assert.Equal(t, "Pagamento de 3 pesagem(ns)", mv.Description)
			mv.ID = paymentID
			return nil
		})
	stx.EXPECT().MarkPaid(gomock.Any(), paymentID, ids).Return(nil)
	stx.EXPECT().Commit().Return(nil)
	stx.EXPECT().Rollback().Return(nil)

	got, err := svc.Settle(context.Background(), ledger.SettleParams{
		CustomerID:  customerID,
		MovementIDs: ids,
		Method:      ledger.MethodPix,
	})
	require.NoError(t, err)
	assert.Equal(t, paymentID, got.Payment.ID)
	assert.Equal(t, 3, got.Requested)
	assert.Empty(t, got.Skipped)
	require.Len(t, got.Settled, 3)

	for _, m := range got.Settled {
		assert.Equal(t, ledger.StatusPaid, m.Status)
		require.NotNil(t, m.PaymentID)
		assert.Equal(t, paymentID, *m.PaymentID)
	}
}

func TestService_Settle_StaleSelectionDropped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	stx := ledger.NewMockSettleTx(ctrl)
	svc := ledger.NewService(repo, ledger.Options{})

	customerID := uuid.New()
	remaining := pendingSale(customerID, "25.00")
	gone1, gone2 := uuid.New(), uuid.New()
	ids := []uuid.UUID{gone1, remaining.ID, gone2}

	repo.EXPECT().BeginSettlement(gomock.Any()).Return(stx, nil)
	stx.EXPECT().LockPending(gomock.Any(), customerID, ids).Return([]*ledger.Movement{remaining}, nil)
	stx.EXPECT().
		CreateMovement(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, mv *ledger.Movement) error {
			assert.Equal(t, "25.00", mv.Amount.StringFixed(2))
			mv.ID = uuid.New()
			return nil
		})
	stx.EXPECT().MarkPaid(gomock.Any(), gomock.Any(), []uuid.UUID{remaining.ID}).Return(nil)
	stx.EXPECT().Commit().Return(nil)
	stx.EXPECT().Rollback().Return(nil)

	got, err := svc.Settle(context.Background(), ledger.SettleParams{
		CustomerID:  customerID,
		MovementIDs: ids,
		Method:      ledger.MethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Requested)
	assert.ElementsMatch(t, []uuid.UUID{gone1, gone2}, got.Skipped)
	assert.Len(t, got.Settled, 1)
}

func TestService_Settle_StrictSelection(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	stx := ledger.NewMockSettleTx(ctrl)
	svc := ledger.NewService(repo, ledger.Options{StrictSelection: true})

	customerID := uuid.New()
	remaining := pendingSale(customerID, "25.00")
	ids := []uuid.UUID{remaining.ID, uuid.New()}

	repo.EXPECT().BeginSettlement(gomock.Any()).Return(stx, nil)
	stx.EXPECT().LockPending(gomock.Any(), customerID, ids).Return([]*ledger.Movement{remaining}, nil)
	stx.EXPECT().Rollback().Return(nil)

	got, err := svc.Settle(context.Background(), ledger.SettleParams{
		CustomerID:  customerID,
		MovementIDs: ids,
		Method:      ledger.MethodCard,
	})
	assert.ErrorIs(t, err, ledger.ErrStaleSelection)
	assert.Nil(t, got)
}

func TestService_Settle_DuplicateIDs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	stx := ledger.NewMockSettleTx(ctrl)
	svc := ledger.NewService(repo, ledger.Options{})

	customerID := uuid.New()
	sale := pendingSale(customerID, "40.00")

	repo.EXPECT().BeginSettlement(gomock.Any()).Return(stx, nil)
	stx.EXPECT().LockPending(gomock.Any(), customerID, []uuid.UUID{sale.ID}).Return([]*ledger.Movement{sale}, nil)
	stx.EXPECT().CreateMovement(gomock.Any(), gomock.Any()).Return(nil)
	stx.EXPECT().MarkPaid(gomock.Any(), gomock.Any(), []uuid.UUID{sale.ID}).Return(nil)
	stx.EXPECT().Commit().Return(nil)
	stx.EXPECT().Rollback().Return(nil)

	got, err := svc.Settle(context.Background(), ledger.SettleParams{
		CustomerID:  customerID,
		MovementIDs: []uuid.UUID{sale.ID, sale.ID},
		Method:      ledger.MethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Requested)
	assert.Equal(t, "40.00", got.Payment.Amount.StringFixed(2))
}

func TestService_Settle_StorageFailures(t *testing.T) {
	customerID := uuid.New()
	sale := pendingSale(customerID, "10.00")

	type testCase struct {
		name      string
		setupMock func(repo *ledger.MockRepository, stx *ledger.MockSettleTx)
	}

	tests := []testCase{
		{
			name: "BeginFails",
			setupMock: func(repo *ledger.MockRepository, _ *ledger.MockSettleTx) {
				repo.EXPECT().BeginSettlement(gomock.Any()).Return(nil, errors.New("conn refused"))
			},
		},
		{
			name: "LockFails",
			setupMock: func(repo *ledger.MockRepository, stx *ledger.MockSettleTx) {
				repo.EXPECT().BeginSettlement(gomock.Any()).Return(stx, nil)
				stx.EXPECT().LockPending(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("deadlock"))
				stx.EXPECT().Rollback().Return(nil)
			},
		},
		{
			name: "MarkPaidFails",
			setupMock: func(repo *ledger.MockRepository, stx *ledger.MockSettleTx) {
				repo.EXPECT().BeginSettlement(gomock.Any()).Return(stx, nil)
				stx.EXPECT().LockPending(gomock.Any(), gomock.Any(), gomock.Any()).Return([]*ledger.Movement{sale}, nil)
				stx.EXPECT().CreateMovement(gomock.Any(), gomock.Any()).Return(nil)
				stx.EXPECT().MarkPaid(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("update failed"))
				stx.EXPECT().Rollback().Return(nil)
			},
		},
		{
			name: "CommitFails",
			setupMock: func(repo *ledger.MockRepository, stx *ledger.MockSettleTx) {
				repo.EXPECT().BeginSettlement(gomock.Any()).Return(stx, nil)
				stx.EXPECT().LockPending(gomock.Any(), gomock.Any(), gomock.Any()).Return([]*ledger.Movement{sale}, nil)
				stx.EXPECT().CreateMovement(gomock.Any(), gomock.Any()).Return(nil)
				stx.EXPECT().MarkPaid(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				stx.EXPECT().Commit().Return(errors.New("serialization failure"))
				stx.EXPECT().Rollback().Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := ledger.NewMockRepository(ctrl)
			stx := ledger.NewMockSettleTx(ctrl)
			tt.setupMock(repo, stx)

			svc := ledger.NewService(repo, ledger.Options{})
			got, err := svc.Settle(context.Background(), ledger.SettleParams{
				CustomerID:  customerID,
				MovementIDs: []uuid.UUID{sale.ID},
				Method:      ledger.MethodCash,
			})

			var se *ledger.StorageError
			require.ErrorAs(t, err, &se)
			assert.Nil(t, got)
			assert.Equal(t, ledger.StatusPending, sale.Status)
		})
	}
}

func TestService_Statement(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	svc := ledger.NewService(repo, ledger.Options{HistoryLimit: 5})

	customerID := uuid.New()
	pending := []*ledger.Movement{
		pendingSale(customerID, "100.00"),
		pendingSale(customerID, "50.00"),
		pendingSale(customerID, "25.00"),
	}

	repo.EXPECT().PendingSales(gomock.Any(), customerID).Return(pending, nil)
	repo.EXPECT().SettledHistory(gomock.Any(), customerID, 5).Return(nil, nil)

	got, err := svc.Statement(context.Background(), customerID)
	require.NoError(t, err)
	assert.Equal(t, customerID, got.CustomerID)
	assert.Len(t, got.Pending, 3)
	assert.Equal(t, "175.00", got.TotalDue.StringFixed(2))
}

func TestService_Statement_DefaultHistoryLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	svc := ledger.NewService(repo, ledger.Options{})

	customerID := uuid.New()

	repo.EXPECT().PendingSales(gomock.Any(), customerID).Return(nil, nil)
	repo.EXPECT().SettledHistory(gomock.Any(), customerID, ledger.DefaultHistoryLimit).Return(nil, nil)

	got, err := svc.Statement(context.Background(), customerID)
	require.NoError(t, err)
	assert.True(t, got.TotalDue.IsZero())
}

func TestService_List_ClampsLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	svc := ledger.NewService(repo, ledger.Options{ListLimit: 50})

	repo.EXPECT().
		ListMovements(gomock.Any(), ledger.ListFilter{Query: "ticket", Limit: 50}).
		Return([]*ledger.Movement{{ID: uuid.New()}}, nil)

	got, err := svc.List(context.Background(), ledger.ListFilter{Query: "  ticket ", Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

type recordingObserver struct {
	recorded int
	settled  []*ledger.Settlement
	rejected []error
	failures int
}

func (o *recordingObserver) MovementRecorded(*ledger.Movement)     { o.recorded++ }
func (o *recordingObserver) Settled(s *ledger.Settlement)          { o.settled = append(o.settled, s) }
func (o *recordingObserver) SettlementFailed(*ledger.StorageError) { o.failures++ }

func (o *recordingObserver) SettlementRejected(err *ledger.ValidationError) {
	o.rejected = append(o.rejected, err)
}

func TestService_Observer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	obs := &recordingObserver{}
	svc := ledger.NewService(repo, ledger.Options{Observer: obs})

	_, err := svc.Settle(context.Background(), ledger.SettleParams{Method: ledger.MethodPix})
	require.Error(t, err)

	repo.EXPECT().CreateMovement(gomock.Any(), gomock.Any()).Return(nil)
	_, err = svc.Record(context.Background(), ledger.RecordParams{
		Kind:        ledger.KindSale,
		Amount:      decimal.RequireFromString("1"),
		Method:      ledger.MethodCash,
		Description: "Pesagem",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, obs.recorded)
	assert.Len(t, obs.rejected, 1)
	assert.Empty(t, obs.settled)
	assert.Zero(t, obs.failures)
}
