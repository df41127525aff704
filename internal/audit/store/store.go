package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MrJamesThe3rd/patio/internal/audit"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InsertEntry(ctx context.Context, e *audit.Entry, payload []byte) error {
	query := `
		INSERT INTO audit_log (actor_id, action, entity, entity_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`

	var p any
	if payload != nil {
		p = string(payload)
	}

	err := s.db.QueryRowContext(ctx, query, e.Actor, e.Action, e.Entity, e.EntityID, p).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	return nil
}
