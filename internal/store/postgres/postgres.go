// Package postgres implements the store contracts on PostgreSQL via lib/pq.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"expense-approvals/internal/common/database"
	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/models"
	"expense-approvals/internal/store"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate applies the embedded schema. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return apperrors.NewStorageError("migrate schema", err)
	}
	return nil
}

// SeedCatalog inserts the fixed roles and status catalog, leaving existing rows untouched.
func (s *Store) SeedCatalog(ctx context.Context) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, role := range models.AllRoles {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, string(role)); err != nil {
				return apperrors.NewStorageError("seed role", err)
			}
		}
		for _, st := range models.StatusCatalog() {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO statuses (id, name, description, level, is_terminal, color_code)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (id) DO NOTHING`,
				int(st.ID), st.Name, st.Description, st.Level, st.IsTerminal, st.ColorCode); err != nil {
				return apperrors.NewStorageError("seed status", err)
			}
		}
		return nil
	})
}

// AddUser creates a user row.
func (s *Store) AddUser(ctx context.Context, u models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email) VALUES ($1, $2, $3)`, u.ID, u.Name, u.Email)
	if err != nil {
		return apperrors.NewStorageError("insert user", err)
	}
	return nil
}

// AssignRole grants role to the user. Granting an already held role is a no-op.
func (s *Store) AssignRole(ctx context.Context, userID string, role models.Role) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = $2
		ON CONFLICT DO NOTHING`, userID, string(role))
	if err != nil {
		return apperrors.NewStorageError("assign role", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		exists, err := s.userExists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NewNotFoundError("user", userID)
		}
	}
	return nil
}

func (s *Store) userExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return false, apperrors.NewStorageError("check user", err)
	}
	return exists, nil
}

// notFoundOr maps sql.ErrNoRows to NotFound and everything else to a storage error.
func notFoundOr(err error, entity, id, operation string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFoundError(entity, id)
	}
	return apperrors.NewStorageError(operation, err)
}

// marshalJSON encodes a JSONB column value; a nil map is stored as NULL.
func marshalJSON(v map[string]interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal jsonb: %w", err)
	}
	return b, nil
}

func unmarshalJSON(b []byte) (map[string]interface{}, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("unmarshal jsonb: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}
