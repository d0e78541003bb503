package postgres

import (
	"context"
	"time"

	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/models"
)

const deviceColumns = `id, token, owner_user_id, platform, metadata, is_active, last_used, created_at`

func scanDevice(row rowScanner) (*models.DeviceEndpoint, error) {
	var d models.DeviceEndpoint
	var platform string
	var metadata []byte
	if err := row.Scan(&d.ID, &d.Token, &d.OwnerUserID, &platform, &metadata,
		&d.IsActive, &d.LastUsed, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.Platform = models.Platform(platform)
	m, err := unmarshalJSON(metadata)
	if err != nil {
		return nil, err
	}
	d.Metadata = m
	return &d, nil
}

// UpsertDevice keys on token: a re-registered token keeps its id, moves to
// the new owner and is reactivated.
func (s *Store) UpsertDevice(ctx context.Context, d *models.DeviceEndpoint) (*models.DeviceEndpoint, error) {
	metadata, err := marshalJSON(d.Metadata)
	if err != nil {
		return nil, apperrors.NewStorageError("upsert device", err)
	}
	out, err := scanDevice(s.db.QueryRowContext(ctx, `
		INSERT INTO device_endpoints (`+deviceColumns+`)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7)
		ON CONFLICT (token) DO UPDATE SET
			owner_user_id = EXCLUDED.owner_user_id,
			platform      = EXCLUDED.platform,
			metadata      = EXCLUDED.metadata,
			is_active     = TRUE,
			last_used     = EXCLUDED.last_used
		RETURNING `+deviceColumns,
		d.ID, d.Token, d.OwnerUserID, string(d.Platform), metadata, d.LastUsed, d.CreatedAt,
	))
	if err != nil {
		return nil, apperrors.NewStorageError("upsert device", err)
	}
	return out, nil
}

func (s *Store) GetDevice(ctx context.Context, id string) (*models.DeviceEndpoint, error) {
	d, err := scanDevice(s.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM device_endpoints WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "device", id, "select device")
	}
	return d, nil
}

func (s *Store) ListDevices(ctx context.Context, userID string) ([]models.DeviceEndpoint, error) {
	return s.listDevices(ctx, `
		SELECT `+deviceColumns+` FROM device_endpoints
		WHERE owner_user_id = $1
		ORDER BY last_used DESC, token`, userID)
}

func (s *Store) ListActiveDevices(ctx context.Context, userID string) ([]models.DeviceEndpoint, error) {
	return s.listDevices(ctx, `
		SELECT `+deviceColumns+` FROM device_endpoints
		WHERE owner_user_id = $1 AND is_active = TRUE
		ORDER BY last_used DESC, token`, userID)
}

func (s *Store) listDevices(ctx context.Context, query, userID string) ([]models.DeviceEndpoint, error) {
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.NewStorageError("list devices", err)
	}
	defer rows.Close()

	var out []models.DeviceEndpoint
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, apperrors.NewStorageError("list devices", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("list devices", err)
	}
	return out, nil
}

func (s *Store) DeactivateDevice(ctx context.Context, token, ownerUserID string) error {
	return s.updateDevice(ctx, "deactivate device", token,
		`UPDATE device_endpoints SET is_active = FALSE WHERE token = $1 AND owner_user_id = $2`, token, ownerUserID)
}

func (s *Store) TouchDevice(ctx context.Context, token string, at time.Time) error {
	return s.updateDevice(ctx, "touch device", token,
		`UPDATE device_endpoints SET last_used = $2 WHERE token = $1`, token, at)
}

func (s *Store) updateDevice(ctx context.Context, operation, token, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewStorageError(operation, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewStorageError(operation, err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError("device", token)
	}
	return nil
}
