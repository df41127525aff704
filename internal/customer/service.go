package customer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=customer
type Repository interface {
	CreateCustomer(ctx context.Context, c *Customer) error
	UpdateCustomer(ctx context.Context, c *Customer) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error)
	ListCustomers(ctx context.Context, filter ListFilter) ([]*Customer, error)

	BeginImport(ctx context.Context) (ImportTx, error)
}

// ImportTx is a storage transaction scoped to one customer import.
type ImportTx interface {
	CreateCustomer(ctx context.Context, c *Customer) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Name     string
	Document string
	Phone    string
	Email    string
	City     string
}

// UpdateParams holds the fields to change. Nil fields are left as they are.
type UpdateParams struct {
	Name     *string
	Document *string
	Phone    *string
	Email    *string
	City     *string
	Active   *bool
}

type ListFilter struct {
	Query      string
	ActiveOnly bool
}

func (p CreateParams) build() (*Customer, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	return &Customer{
		Name:     name,
		Document: document(p.Document),
		Phone:    strings.TrimSpace(p.Phone),
		Email:    strings.TrimSpace(p.Email),
		City:     strings.TrimSpace(p.City),
		Active:   true,
	}, nil
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Customer, error) {
	c, err := params.build()
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("creating customer: %w", err)
	}

	return c, nil
}

// CreateMany creates every customer of an import in one transaction. Rows without a name
// are skipped. On error nothing is stored, so the same file can be imported again.
func (s *Service) CreateMany(ctx context.Context, params []CreateParams) ([]*Customer, error) {
	customers := make([]*Customer, 0, len(params))

	for _, p := range params {
		c, err := p.build()
		if err != nil {
			continue
		}

		customers = append(customers, c)
	}

	if len(customers) == 0 {
		return customers, nil
	}

	itx, err := s.repo.BeginImport(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning import: %w", err)
	}
	defer itx.Rollback()

	for i, c := range customers {
		if err := itx.CreateCustomer(ctx, c); err != nil {
			return nil, fmt.Errorf("importing customer %d of %d (%s): %w", i+1, len(customers), c.Name, err)
		}
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}

	return customers, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Customer, error) {
	c, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return nil, ErrNameRequired
		}

		c.Name = name
	}

	if params.Document != nil {
		c.Document = document(*params.Document)
	}

	if params.Phone != nil {
		c.Phone = strings.TrimSpace(*params.Phone)
	}

	if params.Email != nil {
		c.Email = strings.TrimSpace(*params.Email)
	}

	if params.City != nil {
		c.City = strings.TrimSpace(*params.City)
	}

	if params.Active != nil {
		c.Active = *params.Active
	}

	if err := s.repo.UpdateCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("updating customer: %w", err)
	}

	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Customer, error) {
	filter.Query = strings.TrimSpace(filter.Query)

	return s.repo.ListCustomers(ctx, filter)
}

// document returns nil for a blank document so it is stored as NULL.
func document(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	return &raw
}
