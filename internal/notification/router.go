// Package notification turns claim transitions into persisted, delivered
// notifications and owns the recipient-facing inbox and device registry.
package notification

import (
	"context"

	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/models"
	"expense-approvals/internal/roles"
	"expense-approvals/internal/store"
)

// Router computes who hears about a transition.
type Router struct {
	users store.UserStore
}

func NewRouter(users store.UserStore) *Router {
	return &Router{users: users}
}

// RecipientsFor expects claim in its post-transition state. An empty result
// is not an error.
func (r *Router) RecipientsFor(ctx context.Context, claim models.Claim, kind models.NotificationType) ([]models.User, error) {
	switch kind {
	case models.NotificationSubmitted:
		return r.users.UsersWithRole(ctx, models.RoleManager)

	case models.NotificationApproved:
		// CurrentLevel already names the next approver's level.
		role, ok := roles.RoleForLevel(claim.CurrentLevel)
		if !ok {
			return nil, nil
		}
		return r.users.UsersWithRole(ctx, role)

	case models.NotificationFullyApproved, models.NotificationRejected:
		requester, err := r.users.GetUser(ctx, claim.RequesterID)
		if apperrors.Is(err, apperrors.ErrCodeNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []models.User{*requester}, nil
	}
	return nil, apperrors.NewValidationError("unknown notification type " + string(kind))
}
