package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Summary reconciles the till over a closed time range.
type Summary struct {
	Start     time.Time
	End       time.Time
	Inflow    map[Method]decimal.Decimal
	Outflow   map[Kind]decimal.Decimal
	TotalIn   decimal.Decimal
	TotalOut  decimal.Decimal
	Balance   decimal.Decimal
	Movements []*Movement
}

// Summary aggregates every movement created within [start, end].
func (s *Service) Summary(ctx context.Context, start, end time.Time) (*Summary, error) {
	if end.Before(start) {
		return nil, ErrInvalidRange
	}

	movements, err := s.repo.MovementsBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("loading movements: %w", err)
	}

	return Summarize(start, end, movements), nil
}

// Summarize partitions movements into inflows per method and outflows per kind.
// On-account sales show up under Inflow[ON_ACCOUNT] but are not part of TotalIn.
func Summarize(start, end time.Time, movements []*Movement) *Summary {
	sum := &Summary{
		Start:     start,
		End:       end,
		Inflow:    make(map[Method]decimal.Decimal),
		Outflow:   make(map[Kind]decimal.Decimal),
		TotalIn:   decimal.Zero,
		TotalOut:  decimal.Zero,
		Movements: movements,
	}

	for _, m := range movements {
		switch {
		case m.Kind == KindSale || m.Kind == KindPayment:
			sum.Inflow[m.Method] = sum.Inflow[m.Method].Add(m.Amount)
			if m.Method != MethodOnAccount {
				sum.TotalIn = sum.TotalIn.Add(m.Amount)
			}
		case m.Kind.Outflow():
			sum.Outflow[m.Kind] = sum.Outflow[m.Kind].Add(m.Amount)
			sum.TotalOut = sum.TotalOut.Add(m.Amount)
		}
	}

	sum.Balance = sum.TotalIn.Sub(sum.TotalOut)

	return sum
}

// CashBalance is the running till balance of a listing: money received minus money
// taken out. On-account sales are ignored until settled.
func CashBalance(movements []*Movement) decimal.Decimal {
	balance := decimal.Zero

	for _, m := range movements {
		switch {
		case m.Kind.Outflow():
			balance = balance.Sub(m.Amount)
		case m.OnAccount():
		case m.Kind == KindSale || m.Kind == KindPayment:
			balance = balance.Add(m.Amount)
		}
	}

	return balance
}
