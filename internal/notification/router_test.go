package notification

import (
	"context"
	"testing"

	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/models"
	"expense-approvals/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUsers(s *memory.Store) {
	s.AddUser(models.User{ID: "emp-1", Name: "Erin", Email: "erin@example.com"}, models.RoleEmployee)
	s.AddUser(models.User{ID: "mgr-1", Name: "Morgan"}, models.RoleManager)
	s.AddUser(models.User{ID: "mgr-2", Name: "Max"}, models.RoleManager)
	s.AddUser(models.User{ID: "acc-1", Name: "Avery"}, models.RoleAccountant)
	s.AddUser(models.User{ID: "acc-2", Name: "Ari"}, models.RoleAccountant)
	s.AddUser(models.User{ID: "adm-1", Name: "Ada"}, models.RoleAdmin)
}

func ids(users []models.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}

func TestRecipientsFor(t *testing.T) {
	s := memory.New()
	seedUsers(s)
	r := NewRouter(s)

	tests := []struct {
		name  string
		kind  models.NotificationType
		level int
		want  []string
	}{
		{name: "submitted goes to managers", kind: models.NotificationSubmitted, level: models.LevelManager, want: []string{"mgr-1", "mgr-2"}},
		{name: "approved at 1 goes to accountants", kind: models.NotificationApproved, level: models.LevelAccountant, want: []string{"acc-1", "acc-2"}},
		{name: "approved at 2 goes to admins", kind: models.NotificationApproved, level: models.LevelAdmin, want: []string{"adm-1"}},
		{name: "rejected goes to requester", kind: models.NotificationRejected, level: models.LevelTerminal, want: []string{"emp-1"}},
		{name: "fully approved goes to requester", kind: models.NotificationFullyApproved, level: models.LevelTerminal, want: []string{"emp-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claim := models.Claim{ID: "c-1", RequesterID: "emp-1", CurrentLevel: tt.level}
			got, err := r.RecipientsFor(context.Background(), claim, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestRecipientsFor_EmptyIsNotAnError(t *testing.T) {
	s := memory.New()
	s.AddUser(models.User{ID: "emp-1"}, models.RoleEmployee)
	r := NewRouter(s)

	got, err := r.RecipientsFor(context.Background(), models.Claim{RequesterID: "emp-1", CurrentLevel: 1}, models.NotificationSubmitted)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = r.RecipientsFor(context.Background(), models.Claim{RequesterID: "gone"}, models.NotificationRejected)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = r.RecipientsFor(context.Background(), models.Claim{}, models.NotificationType("BOGUS"))
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
}
