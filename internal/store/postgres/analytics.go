package postgres

import (
	"context"
	"database/sql"

	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/models"
)

func (s *Store) Summary(ctx context.Context) (*models.ClaimSummary, error) {
	var out models.ClaimSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(amount), 0),
		       COUNT(*) FILTER (WHERE status_id = $1),
		       COUNT(*) FILTER (WHERE status_id = $2)
		FROM claims`, int(models.StatusPending), int(models.StatusFullyApproved),
	).Scan(&out.TotalClaims, &out.TotalAmount, &out.Pending, &out.FullyApproved)
	if err != nil {
		return nil, apperrors.NewStorageError("summarize claims", err)
	}
	return &out, nil
}

func (s *Store) ClaimsByCategory(ctx context.Context) ([]models.CategoryTotal, error) {
	const operation = "group claims by category"
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*), SUM(amount)
		FROM claims
		GROUP BY category
		ORDER BY category`)
	if err != nil {
		return nil, apperrors.NewStorageError(operation, err)
	}
	defer rows.Close()

	var out []models.CategoryTotal
	for rows.Next() {
		var ct models.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Count, &ct.Total); err != nil {
			return nil, apperrors.NewStorageError(operation, err)
		}
		out = append(out, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError(operation, err)
	}
	return out, nil
}

func (s *Store) ClaimsByStatus(ctx context.Context) ([]models.StatusCount, error) {
	const operation = "group claims by status"
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.color_code, COUNT(c.id)
		FROM statuses s
		LEFT JOIN claims c ON c.status_id = s.id
		GROUP BY s.id, s.name, s.color_code
		ORDER BY s.id`)
	if err != nil {
		return nil, apperrors.NewStorageError(operation, err)
	}
	defer rows.Close()

	var out []models.StatusCount
	for rows.Next() {
		var (
			sc    models.StatusCount
			id    int
			color sql.NullString
		)
		if err := rows.Scan(&id, &sc.Name, &color, &sc.Count); err != nil {
			return nil, apperrors.NewStorageError(operation, err)
		}
		sc.StatusID = models.StatusID(id)
		sc.ColorCode = color.String
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError(operation, err)
	}
	return out, nil
}

func (s *Store) ApprovalTimes(ctx context.Context) ([]models.ApprovalTime, error) {
	const operation = "average approval times"
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.claim_id, AVG(EXTRACT(EPOCH FROM (a.action_timestamp - c.created_at)) / 60)
		FROM approval_records a
		JOIN claims c ON c.id = a.claim_id
		GROUP BY a.claim_id
		ORDER BY a.claim_id`)
	if err != nil {
		return nil, apperrors.NewStorageError(operation, err)
	}
	defer rows.Close()

	var out []models.ApprovalTime
	for rows.Next() {
		var at models.ApprovalTime
		if err := rows.Scan(&at.ClaimID, &at.AverageMinutes); err != nil {
			return nil, apperrors.NewStorageError(operation, err)
		}
		out = append(out, at)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError(operation, err)
	}
	return out, nil
}

// TopSpenders ranks every user by the total they have claimed. Users
// without claims rank last with a zero total.
func (s *Store) TopSpenders(ctx context.Context, limit int) ([]models.Spender, error) {
	const operation = "rank spenders"
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.name, COALESCE(SUM(c.amount), 0) AS total
		FROM users u
		LEFT JOIN claims c ON c.requester_id = u.id
		GROUP BY u.id, u.name
		ORDER BY total DESC, u.id
		LIMIT $1`, limit)
	if err != nil {
		return nil, apperrors.NewStorageError(operation, err)
	}
	defer rows.Close()

	var out []models.Spender
	for rows.Next() {
		var sp models.Spender
		if err := rows.Scan(&sp.UserID, &sp.Name, &sp.Total); err != nil {
			return nil, apperrors.NewStorageError(operation, err)
		}
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError(operation, err)
	}
	return out, nil
}
