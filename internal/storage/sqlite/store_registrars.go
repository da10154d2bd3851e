package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sundayfest/housegate/internal/storage"
)

// GetRegistrar returns one registrar by id.
func (s *Store) GetRegistrar(ctx context.Context, registrarID string) (storage.Registrar, error) {
	if err := ctx.Err(); err != nil {
		return storage.Registrar{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Registrar{}, fmt.Errorf("storage is not configured")
	}
	registrarID = strings.TrimSpace(registrarID)
	if registrarID == "" {
		return storage.Registrar{}, fmt.Errorf("registrar id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, name, email, is_active, created_at, updated_at
		   FROM registrars WHERE id = ?`,
		registrarID,
	)

	var reg storage.Registrar
	var isActive int
	var createdAt int64
	var updatedAt int64
	if err := row.Scan(&reg.ID, &reg.Name, &reg.Email, &isActive, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Registrar{}, storage.ErrNotFound
		}
		return storage.Registrar{}, fmt.Errorf("get registrar: %w", err)
	}
	reg.IsActive = isActive != 0
	reg.CreatedAt = fromMillis(createdAt)
	reg.UpdatedAt = fromMillis(updatedAt)
	return reg, nil
}

// PutRegistrar upserts a registrar record. Registrars originate in the auth
// collaborator; the core only mirrors them for the registered_by reference.
func (s *Store) PutRegistrar(ctx context.Context, registrar storage.Registrar) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(registrar.ID) == "" {
		return fmt.Errorf("registrar id is required")
	}
	if strings.TrimSpace(registrar.Email) == "" {
		return fmt.Errorf("registrar email is required")
	}

	isActive := 0
	if registrar.IsActive {
		isActive = 1
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO registrars (id, name, email, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name,
		   email = excluded.email,
		   is_active = excluded.is_active,
		   updated_at = excluded.updated_at`,
		registrar.ID,
		registrar.Name,
		registrar.Email,
		isActive,
		toMillis(registrar.CreatedAt),
		toMillis(registrar.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put registrar: %w", err)
	}
	return nil
}
