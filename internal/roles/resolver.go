// Package roles resolves the functional roles a user holds and maps
// approver roles onto approval levels.
package roles

import (
	"context"

	"expense-approvals/internal/common/logger"
	"expense-approvals/internal/models"
	"expense-approvals/internal/store"
)

// approverPrecedence orders approver roles by the level they own. When a
// user holds several, the lowest eligible level wins.
var approverPrecedence = []models.Role{models.RoleManager, models.RoleAccountant, models.RoleAdmin}

var levelOf = map[models.Role]int{
	models.RoleManager:    models.LevelManager,
	models.RoleAccountant: models.LevelAccountant,
	models.RoleAdmin:      models.LevelAdmin,
}

type Resolver struct {
	users  store.UserStore
	logger logger.Logger
}

func NewResolver(users store.UserStore, log logger.Logger) *Resolver {
	return &Resolver{users: users, logger: logger.ForComponent(log, "role_resolver")}
}

// RolesOf returns the roles currently held by userID. Unknown users fail
// with NOT_FOUND.
func (r *Resolver) RolesOf(ctx context.Context, userID string) (models.RoleSet, error) {
	held, err := r.users.RolesOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.NewRoleSet(held...), nil
}

// Resolve returns the user record together with its role set.
func (r *Resolver) Resolve(ctx context.Context, userID string) (*models.User, models.RoleSet, error) {
	user, err := r.users.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	set, err := r.RolesOf(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, set, nil
}

// ApproverRole picks the single approver role used for a decision.
func ApproverRole(set models.RoleSet) (models.Role, bool) {
	for _, role := range approverPrecedence {
		if set.Has(role) {
			return role, true
		}
	}
	return "", false
}

// LevelFor returns the approval level owned by role.
func LevelFor(role models.Role) (int, bool) {
	level, ok := levelOf[role]
	return level, ok
}

// RoleForLevel returns the approver role owning level.
func RoleForLevel(level int) (models.Role, bool) {
	for role, l := range levelOf {
		if l == level {
			return role, true
		}
	}
	return "", false
}
