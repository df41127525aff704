package customer

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/patio/internal/customer"
	"github.com/MrJamesThe3rd/patio/internal/http/movement"
	"github.com/MrJamesThe3rd/patio/internal/ledger"
)

type customerResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Document  *string   `json:"document"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	City      string    `json:"city,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type statementResponse struct {
	Customer customerResponse    `json:"customer"`
	Pending  []movement.Response `json:"pending"`
	History  []movement.Response `json:"history"`
	TotalDue string              `json:"total_due"`
}

type settlementResponse struct {
	Payment   movement.Response `json:"payment"`
	Settled   []uuid.UUID       `json:"settled"`
	Requested int               `json:"requested"`
	Skipped   []uuid.UUID       `json:"skipped"`
}

type importResponse struct {
	Imported  int                `json:"imported"`
	Customers []customerResponse `json:"customers"`
}

func toResponse(c *customer.Customer) customerResponse {
	return customerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Document:  c.Document,
		Phone:     c.Phone,
		Email:     c.Email,
		City:      c.City,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toResponseList(customers []*customer.Customer) []customerResponse {
	resp := make([]customerResponse, 0, len(customers))
	for _, c := range customers {
		resp = append(resp, toResponse(c))
	}

	return resp
}

func toSettlementResponse(s *ledger.Settlement) settlementResponse {
	settled := make([]uuid.UUID, 0, len(s.Settled))
	for _, m := range s.Settled {
		settled = append(settled, m.ID)
	}

	skipped := s.Skipped
	if skipped == nil {
		skipped = []uuid.UUID{}
	}

	return settlementResponse{
		Payment:   movement.ToResponse(s.Payment),
		Settled:   settled,
		Requested: s.Requested,
		Skipped:   skipped,
	}
}
