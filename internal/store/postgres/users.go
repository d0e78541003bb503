package postgres

import (
	"context"

	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/models"
)

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email FROM users WHERE id = $1`, id).Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		return nil, notFoundOr(err, "user", id, "select user")
	}
	return &u, nil
}

func (s *Store) RolesOf(ctx context.Context, userID string) ([]models.Role, error) {
	exists, err := s.userExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NewNotFoundError("user", userID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name`, userID)
	if err != nil {
		return nil, apperrors.NewStorageError("list roles", err)
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.NewStorageError("list roles", err)
		}
		roles = append(roles, models.Role(name))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("list roles", err)
	}
	return roles, nil
}

func (s *Store) UsersWithRole(ctx context.Context, role models.Role) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.email FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		JOIN roles r ON r.id = ur.role_id
		WHERE r.name = $1
		ORDER BY u.id`, string(role))
	if err != nil {
		return nil, apperrors.NewStorageError("list users with role", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, apperrors.NewStorageError("list users with role", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("list users with role", err)
	}
	return users, nil
}
