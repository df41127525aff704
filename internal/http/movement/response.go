package movement

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/patio/internal/ledger"
)

type Response struct {
	ID          uuid.UUID     `json:"id"`
	Kind        ledger.Kind   `json:"kind"`
	Amount      string        `json:"amount"`
	Method      ledger.Method `json:"method"`
	Description string        `json:"description"`
	TicketRef   string        `json:"ticket_ref,omitempty"`
	Plate       string        `json:"plate,omitempty"`
	Material    string        `json:"material,omitempty"`
	WeightKg    *float64      `json:"weight_kg,omitempty"`
	CustomerID  *uuid.UUID    `json:"customer_id,omitempty"`
	PaymentID   *uuid.UUID    `json:"payment_id,omitempty"`
	Status      ledger.Status `json:"status"`
	OperatorID  *uuid.UUID    `json:"operator_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

type listResponse struct {
	Movements   []Response `json:"movements"`
	CashBalance string     `json:"cash_balance"`
}

func ToResponse(m *ledger.Movement) Response {
	return Response{
		ID:          m.ID,
		Kind:        m.Kind,
		Amount:      m.Amount.StringFixed(2),
		Method:      m.Method,
		Description: m.Description,
		TicketRef:   m.TicketRef,
		Plate:       m.Plate,
		Material:    m.Material,
		WeightKg:    m.WeightKg,
		CustomerID:  m.CustomerID,
		PaymentID:   m.PaymentID,
		Status:      m.Status,
		OperatorID:  m.OperatorID,
		CreatedAt:   m.CreatedAt,
	}
}

func ToResponseList(movements []*ledger.Movement) []Response {
	resp := make([]Response, 0, len(movements))
	for _, m := range movements {
		resp = append(resp, ToResponse(m))
	}

	return resp
}
