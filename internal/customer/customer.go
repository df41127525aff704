package customer

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("customer not found")
	ErrNameRequired = errors.New("customer name is required")
)

// Customer is a yard client that may buy on account.
type Customer struct {
	ID        uuid.UUID
	Name      string
	Document  *string // CPF or CNPJ, not unique
	Phone     string
	Email     string
	City      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
