package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind represents the type of a till movement.
type Kind string

const (
	KindSale       Kind = "SALE"
	KindWithdrawal Kind = "WITHDRAWAL" // cash moved to the safe
	KindExpense    Kind = "EXPENSE"    // cash taken out to pay an expense
	KindPayment    Kind = "PAYMENT"
)

func (k Kind) Valid() bool {
	switch k {
	case KindSale, KindWithdrawal, KindExpense, KindPayment:
		return true
	}

	return false
}

var kindLabels = map[Kind]string{
	KindSale:       "Venda",
	KindWithdrawal: "Sangria",
	KindExpense:    "Despesa",
	KindPayment:    "Pagamento",
}

// Label is the name shown to operators.
func (k Kind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}

	return string(k)
}

// Outflow reports whether the kind takes money out of the till.
func (k Kind) Outflow() bool {
	return k == KindWithdrawal || k == KindExpense
}

// Method is how a movement was paid.
type Method string

const (
	MethodCash      Method = "CASH"
	MethodPix       Method = "PIX"
	MethodCard      Method = "CARD"
	MethodOnAccount Method = "ON_ACCOUNT"
)

// TillMethods are the methods that put money in the till.
var TillMethods = []Method{MethodCash, MethodPix, MethodCard}

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodPix, MethodCard, MethodOnAccount:
		return true
	}

	return false
}

var methodLabels = map[Method]string{
	MethodCash:      "Dinheiro",
	MethodPix:       "PIX",
	MethodCard:      "Cartão",
	MethodOnAccount: "Fiado",
}

func (m Method) Label() string {
	if l, ok := methodLabels[m]; ok {
		return l
	}

	return string(m)
}

// Status represents the settlement state of a movement. PAID is terminal.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
)

// Movement is a single monetary event on the till.
type Movement struct {
	ID          uuid.UUID
	Kind        Kind
	Amount      decimal.Decimal
	Method      Method
	Description string
	TicketRef   string
	Plate       string
	Material    string
	WeightKg    *float64
	CustomerID  *uuid.UUID
	PaymentID   *uuid.UUID // PAYMENT that settled this sale
	Status      Status
	OperatorID  *uuid.UUID
	CreatedAt   time.Time
}

// OnAccount reports whether the movement is a sale deferred to a customer's account.
func (m *Movement) OnAccount() bool {
	return m.Kind == KindSale && m.Method == MethodOnAccount
}

// Statement is the running-account view of one customer.
type Statement struct {
	CustomerID uuid.UUID
	Pending    []*Movement // oldest first
	History    []*Movement // newest first, never PENDING
	TotalDue   decimal.Decimal
}

// Settlement is the outcome of consolidating pending sales into a payment.
type Settlement struct {
	Payment   *Movement
	Settled   []*Movement
	Requested int
	Skipped   []uuid.UUID
}
