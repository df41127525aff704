package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/patio/internal/ledger"
	"github.com/MrJamesThe3rd/patio/internal/money"
)

var header = []string{
	"data", "tipo", "metodo", "valor", "descricao", "ticket", "placa", "material", "peso_kg", "cliente", "status",
}

// Service exports till movements for bookkeeping.
type Service struct {
	ledger *ledger.Service
}

func NewService(ledgerService *ledger.Service) *Service {
	return &Service{ledger: ledgerService}
}

// Period writes every movement created within [start, end] as a `;`-separated CSV.
func (s *Service) Period(ctx context.Context, start, end time.Time, w io.Writer) error {
	sum, err := s.ledger.Summary(ctx, start, end)
	if err != nil {
		return fmt.Errorf("loading period: %w", err)
	}

	return WriteCSV(w, sum.Movements)
}

// SaveFile writes the period CSV into dir and returns the file path. A file that could
// not be written completely is removed.
func (s *Service) SaveFile(ctx context.Context, start, end time.Time, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	// Format: caixa_YYYYMMDD_YYYYMMDD.csv
	path := filepath.Join(dir, fmt.Sprintf("caixa_%s_%s.csv", start.Format("20060102"), end.Format("20060102")))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}

	if err := s.Period(ctx, start, end, f); err != nil {
		f.Close()
		os.Remove(path)

		return "", err
	}

	if err := f.Close(); err != nil {
		os.Remove(path)

		return "", fmt.Errorf("closing file: %w", err)
	}

	return path, nil
}

func WriteCSV(w io.Writer, movements []*ledger.Movement) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, m := range movements {
		weight := ""
		if m.WeightKg != nil {
			weight = strconv.FormatFloat(*m.WeightKg, 'f', -1, 64)
		}

		customer := ""
		if m.CustomerID != nil {
			customer = m.CustomerID.String()
		}

		record := []string{
			m.CreatedAt.Format(time.RFC3339),
			string(m.Kind),
			string(m.Method),
			m.Amount.StringFixed(2),
			m.Description,
			m.TicketRef,
			m.Plate,
			m.Material,
			weight,
			customer,
			string(m.Status),
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing movement %s: %w", m.ID, err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	return nil
}

// GenerateSummary renders the till reconciliation as a text block.
func GenerateSummary(sum *ledger.Summary) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Resumo do caixa %s a %s\n\n",
		sum.Start.Format("02/01/2006 15:04"), sum.End.Format("02/01/2006 15:04"))

	sb.WriteString("Entradas\n")

	for _, m := range ledger.TillMethods {
		fmt.Fprintf(&sb, "  %-10s %15s\n", m.Label(), money.Format(sum.Inflow[m]))
	}

	if onAccount, ok := sum.Inflow[ledger.MethodOnAccount]; ok {
		fmt.Fprintf(&sb, "  %-10s %15s  (não entra no caixa)\n", ledger.MethodOnAccount.Label(), money.Format(onAccount))
	}

	fmt.Fprintf(&sb, "  %-10s %15s\n\n", "Total", money.Format(sum.TotalIn))

	sb.WriteString("Saídas\n")

	for _, k := range []ledger.Kind{ledger.KindWithdrawal, ledger.KindExpense} {
		fmt.Fprintf(&sb, "  %-10s %15s\n", k.Label(), money.Format(sum.Outflow[k]))
	}

	fmt.Fprintf(&sb, "  %-10s %15s\n\n", "Total", money.Format(sum.TotalOut))
	fmt.Fprintf(&sb, "Saldo final %s\n", money.Format(sum.Balance))

	return sb.String()
}
