package postgres

import (
	"context"
	"database/sql"

	"expense-approvals/internal/common/database"
	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/models"
	"expense-approvals/internal/store"
)

const claimColumns = `id, title, amount, description, category, receipt_ref,
	status_id, current_level, requester_id, created_at, updated_at`

func scanClaim(row rowScanner) (*models.Claim, error) {
	var c models.Claim
	var status int
	if err := row.Scan(&c.ID, &c.Title, &c.Amount, &c.Description, &c.Category, &c.ReceiptRef,
		&status, &c.CurrentLevel, &c.RequesterID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.StatusID = models.StatusID(status)
	return &c, nil
}

func (s *Store) CreateClaim(ctx context.Context, c *models.Claim) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO claims (`+claimColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.Title, c.Amount, c.Description, c.Category, c.ReceiptRef,
		int(c.StatusID), c.CurrentLevel, c.RequesterID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewStorageError("insert claim", err)
	}
	return nil
}

func (s *Store) GetClaim(ctx context.Context, id string) (*models.Claim, error) {
	c, err := scanClaim(s.db.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "claim", id, "select claim")
	}
	return c, nil
}

func (s *Store) ListClaimsAt(ctx context.Context, status models.StatusID, level int) ([]models.Claim, error) {
	return s.listClaims(ctx, "list pending claims", `
		SELECT `+claimColumns+` FROM claims
		WHERE status_id = $1 AND current_level = $2
		ORDER BY created_at DESC, id`, int(status), level)
}

func (s *Store) ListClaimsByRequester(ctx context.Context, requesterID string) ([]models.Claim, error) {
	return s.listClaims(ctx, "list requester claims", `
		SELECT `+claimColumns+` FROM claims
		WHERE requester_id = $1
		ORDER BY created_at DESC, id`, requesterID)
}

func (s *Store) listClaims(ctx context.Context, operation, query string, args ...interface{}) ([]models.Claim, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError(operation, err)
	}
	defer rows.Close()

	var out []models.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, apperrors.NewStorageError(operation, err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError(operation, err)
	}
	return out, nil
}

func (s *Store) ListApprovals(ctx context.Context, claimID string) ([]models.ApprovalRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, claim_id, approver_id, decision, remarks, action_timestamp, approval_level, approver_role
		FROM approval_records
		WHERE claim_id = $1
		ORDER BY approval_level ASC`, claimID)
	if err != nil {
		return nil, apperrors.NewStorageError("list approvals", err)
	}
	defer rows.Close()

	var out []models.ApprovalRecord
	for rows.Next() {
		var r models.ApprovalRecord
		var decision, role string
		if err := rows.Scan(&r.ID, &r.ClaimID, &r.ApproverID, &decision, &r.Remarks,
			&r.ActionTimestamp, &r.ApprovalLevel, &role); err != nil {
			return nil, apperrors.NewStorageError("list approvals", err)
		}
		r.Decision = models.Decision(decision)
		r.ApproverRole = models.Role(role)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("list approvals", err)
	}
	return out, nil
}

// Transition locks the claim row with SELECT ... FOR UPDATE so concurrent
// deciders on the same claim queue behind each other; other claims proceed.
func (s *Store) Transition(ctx context.Context, claimID string, fn store.TransitionFunc) (*models.Claim, error) {
	var updated *models.Claim
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		claim, err := scanClaim(tx.QueryRowContext(ctx,
			`SELECT `+claimColumns+` FROM claims WHERE id = $1 FOR UPDATE`, claimID))
		if err != nil {
			return notFoundOr(err, "claim", claimID, "lock claim")
		}

		record, err := fn(claim)
		if err != nil {
			return err
		}

		if record != nil {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO approval_records
					(id, claim_id, approver_id, decision, remarks, action_timestamp, approval_level, approver_role)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				record.ID, record.ClaimID, record.ApproverID, string(record.Decision), record.Remarks,
				record.ActionTimestamp, record.ApprovalLevel, string(record.ApproverRole),
			); err != nil {
				return apperrors.NewStorageError("insert approval record", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE claims SET status_id = $1, current_level = $2, updated_at = $3
			WHERE id = $4`,
			int(claim.StatusID), claim.CurrentLevel, claim.UpdatedAt, claim.ID,
		); err != nil {
			return apperrors.NewStorageError("update claim", err)
		}

		updated = claim
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
