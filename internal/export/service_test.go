package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/patio/internal/export"
	"github.com/MrJamesThe3rd/patio/internal/ledger"
)

var (
	start = time.Date(2025, 8, 11, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2025, 8, 11, 23, 59, 59, 0, time.UTC)
)

func periodMovements() []*ledger.Movement {
	customerID := uuid.New()

	return []*ledger.Movement{
		{
			ID: uuid.New(), Kind: ledger.KindSale, Method: ledger.MethodCash,
			Amount: decimal.RequireFromString("1500"), Description: "Sucata; ferro",
			Status: ledger.StatusPaid, CreatedAt: start.Add(9 * time.Hour),
		},
		{
			ID: uuid.New(), Kind: ledger.KindSale, Method: ledger.MethodOnAccount,
			Amount: decimal.RequireFromString("70"), Description: "Fiado", WeightKg: new(12.5),
			CustomerID: &customerID, Status: ledger.StatusPending, CreatedAt: start.Add(10 * time.Hour),
		},
		{
			ID: uuid.New(), Kind: ledger.KindExpense, Method: ledger.MethodCash,
			Amount: decimal.RequireFromString("12.5"), Description: "Café",
			Status: ledger.StatusPaid, CreatedAt: start.Add(11 * time.Hour),
		},
	}
}

func newService(t *testing.T) (*export.Service, *ledger.MockRepository) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := ledger.NewMockRepository(ctrl)

	return export.NewService(ledger.NewService(repo, ledger.Options{})), repo
}

func TestService_Period(t *testing.T) {
	svc, repo := newService(t)

	movements := periodMovements()
	repo.EXPECT().MovementsBetween(gomock.Any(), start, end).Return(movements, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.Period(context.Background(), start, end, &buf))

	r := csv.NewReader(&buf)
	r.Comma = ';'

	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "data", rows[0][0])
	assert.Equal(t, []string{"SALE", "CASH", "1500.00", "Sucata; ferro"}, rows[1][1:5])
	assert.Equal(t, "12.5", rows[2][8])
	assert.Equal(t, movements[1].CustomerID.String(), rows[2][9])
	assert.Equal(t, "PENDING", rows[2][10])
	assert.Equal(t, "EXPENSE", rows[3][1])
}

func TestService_Period_InvalidRange(t *testing.T) {
	svc, _ := newService(t)

	err := svc.Period(context.Background(), end, start, &bytes.Buffer{})
	assert.ErrorIs(t, err, ledger.ErrInvalidRange)
}

func TestService_SaveFile(t *testing.T) {
	svc, repo := newService(t)

	repo.EXPECT().MovementsBetween(gomock.Any(), start, end).Return(periodMovements(), nil)

	dir := filepath.Join(t.TempDir(), "export")

	path, err := svc.SaveFile(context.Background(), start, end, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "caixa_20250811_20250811.csv"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(content), "\n"))
}

func TestGenerateSummary(t *testing.T) {
	sum := ledger.Summarize(start, end, periodMovements())

	got := export.GenerateSummary(sum)

	assert.Contains(t, got, "Resumo do caixa 11/08/2025 00:00 a 11/08/2025 23:59")
	assert.Contains(t, got, "R$ 1.500,00")
	assert.Contains(t, got, "(não entra no caixa)")
	assert.Contains(t, got, "R$ 12,50")
	assert.Contains(t, got, "Saldo final R$ 1.487,50")
}

func TestService_SaveFile_RemovesPartialFile(t *testing.T) {
	svc, repo := newService(t)

	repo.EXPECT().MovementsBetween(gomock.Any(), start, end).Return(nil, errors.New("connection reset"))

	dir := t.TempDir()

	path, err := svc.SaveFile(context.Background(), start, end, dir)
	assert.ErrorContains(t, err, "connection reset")
	assert.Empty(t, path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
