package postgres

import (
	"context"
	"database/sql"

	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/models"
)

const notificationColumns = `id, title, body, type, icon, is_read, claim_id,
	recipient_id, sender_id, payload, created_at`

func scanNotification(row rowScanner) (*models.Notification, error) {
	var n models.Notification
	var typ string
	var sender sql.NullString
	var payload []byte
	if err := row.Scan(&n.ID, &n.Title, &n.Body, &typ, &n.Icon, &n.IsRead, &n.ClaimID,
		&n.RecipientID, &sender, &payload, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Type = models.NotificationType(typ)
	if sender.Valid {
		id := sender.String
		n.SenderID = &id
	}
	p, err := unmarshalJSON(payload)
	if err != nil {
		return nil, err
	}
	n.Payload = p
	return &n, nil
}

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	payload, err := marshalJSON(n.Payload)
	if err != nil {
		return apperrors.NewStorageError("insert notification", err)
	}
	var sender sql.NullString
	if n.SenderID != nil {
		sender = sql.NullString{String: *n.SenderID, Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		n.ID, n.Title, n.Body, string(n.Type), n.Icon, n.IsRead, n.ClaimID,
		n.RecipientID, sender, payload, n.CreatedAt,
	)
	if err != nil {
		return apperrors.NewStorageError("insert notification", err)
	}
	return nil
}

func (s *Store) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	n, err := scanNotification(s.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "notification", id, "select notification")
	}
	return n, nil
}

func (s *Store) ListNotifications(ctx context.Context, recipientID string, limit, offset int) ([]models.Notification, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1`, recipientID).Scan(&total); err != nil {
		return nil, 0, apperrors.NewStorageError("count notifications", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`, recipientID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.NewStorageError("list notifications", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, apperrors.NewStorageError("list notifications", err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewStorageError("list notifications", err)
	}
	return out, total, nil
}

func (s *Store) MarkRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewStorageError("mark notification read", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewStorageError("mark notification read", err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError("notification", id)
	}
	return nil
}

func (s *Store) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND is_read = FALSE`, recipientID)
	if err != nil {
		return 0, apperrors.NewStorageError("mark all read", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.NewStorageError("mark all read", err)
	}
	return n, nil
}

func (s *Store) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`, recipientID).Scan(&n); err != nil {
		return 0, apperrors.NewStorageError("count unread", err)
	}
	return n, nil
}
