package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	ActionRecord         = "record"
	ActionSettle         = "settle"
	ActionCustomerCreate = "customer.create"
	ActionCustomerUpdate = "customer.update"
	ActionCustomerImport = "customer.import"
)

// Entry is one audited operator action.
type Entry struct {
	ID        uuid.UUID
	Actor     *uuid.UUID
	Action    string
	Entity    string
	EntityID  *uuid.UUID
	Payload   any
	CreatedAt time.Time
}

//go:generate mockgen -source=audit.go -destination=repository_mock.go -package=audit
type Repository interface {
	InsertEntry(ctx context.Context, e *Entry, payload []byte) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Log stores e with its payload serialised as JSON. A nil payload is stored as NULL.
func (s *Service) Log(ctx context.Context, e Entry) error {
	var payload []byte

	if e.Payload != nil {
		b, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("encoding audit payload: %w", err)
		}

		payload = b
	}

	if err := s.repo.InsertEntry(ctx, &e, payload); err != nil {
		return fmt.Errorf("writing audit entry: %w", err)
	}

	return nil
}

// Record is Log for callers that must not fail because of the audit trail. Errors are logged.
func (s *Service) Record(ctx context.Context, e Entry) {
	if err := s.Log(ctx, e); err != nil {
		slog.WarnContext(ctx, "audit entry dropped", "action", e.Action, "entity", e.Entity, "error", err)
	}
}
