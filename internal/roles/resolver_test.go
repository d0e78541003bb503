package roles

import (
	"context"
	"testing"

	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/common/logger"
	"expense-approvals/internal/models"
	"expense-approvals/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolesOf(t *testing.T) {
	s := memory.New()
	s.AddUser(models.User{ID: "u-1", Name: "Dana"}, models.RoleEmployee, models.RoleManager)
	s.AddUser(models.User{ID: "u-2", Name: "Eli"})

	r := NewResolver(s, logger.NewTestLogger(t))

	set, err := r.RolesOf(context.Background(), "u-1")
	require.NoError(t, err)
	assert.True(t, set.Has(models.RoleManager))
	assert.True(t, set.Has(models.RoleEmployee))
	assert.False(t, set.Has(models.RoleAdmin))

	set, err = r.RolesOf(context.Background(), "u-2")
	require.NoError(t, err)
	assert.Empty(t, set)

	_, err = r.RolesOf(context.Background(), "ghost")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
}

func TestResolve_ReturnsUser(t *testing.T) {
	s := memory.New()
	s.AddUser(models.User{ID: "u-1", Name: "Dana"}, models.RoleAdmin)

	user, set, err := NewResolver(s, logger.NewTestLogger(t)).Resolve(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Dana", user.Name)
	assert.True(t, set.Has(models.RoleAdmin))
}

func TestApproverRole_Precedence(t *testing.T) {
	tests := []struct {
		name   string
		roles  []models.Role
		want   models.Role
		wantOK bool
	}{
		{name: "employee only", roles: []models.Role{models.RoleEmployee}},
		{name: "manager", roles: []models.Role{models.RoleManager}, want: models.RoleManager, wantOK: true},
		{name: "manager and admin", roles: []models.Role{models.RoleAdmin, models.RoleManager}, want: models.RoleManager, wantOK: true},
		{name: "accountant and admin", roles: []models.Role{models.RoleAdmin, models.RoleAccountant}, want: models.RoleAccountant, wantOK: true},
		{name: "admin", roles: []models.Role{models.RoleEmployee, models.RoleAdmin}, want: models.RoleAdmin, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ApproverRole(models.NewRoleSet(tt.roles...))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelMapping(t *testing.T) {
	for _, role := range []models.Role{models.RoleManager, models.RoleAccountant, models.RoleAdmin} {
		level, ok := LevelFor(role)
		require.True(t, ok)
		back, ok := RoleForLevel(level)
		require.True(t, ok)
		assert.Equal(t, role, back)
	}

	_, ok := LevelFor(models.RoleEmployee)
	assert.False(t, ok)
	_, ok = RoleForLevel(models.LevelTerminal)
	assert.False(t, ok)
}
