package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"expense-approvals/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var analyticsEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func addClaim(t *testing.T, s *Store, id, requester, category, amount string, status models.StatusID) {
	t.Helper()
	level := models.LevelManager
	if status.IsTerminal() {
		level = models.LevelTerminal
	}
	require.NoError(t, s.CreateClaim(context.Background(), &models.Claim{
		ID: id, Title: id, Amount: decimal.RequireFromString(amount), Category: category,
		StatusID: status, CurrentLevel: level, RequesterID: requester, CreatedAt: analyticsEpoch,
	}))
}

func decide(t *testing.T, s *Store, claimID string, level int, after time.Duration) {
	t.Helper()
	_, err := s.Transition(context.Background(), claimID, func(c *models.Claim) (*models.ApprovalRecord, error) {
		return &models.ApprovalRecord{
			ID: fmt.Sprintf("%s-r%d", claimID, level), ClaimID: claimID, ApproverID: "mgr-1",
			Decision: models.DecisionApproved, ActionTimestamp: analyticsEpoch.Add(after), ApprovalLevel: level,
		}, nil
	})
	require.NoError(t, err)
}

func analyticsFixture(t *testing.T) *Store {
	t.Helper()
	s := New()
	s.AddUser(models.User{ID: "emp-1", Name: "Erin"}, models.RoleEmployee)
	s.AddUser(models.User{ID: "emp-2", Name: "Bo"}, models.RoleEmployee)
	s.AddUser(models.User{ID: "emp-3", Name: "Idle"}, models.RoleEmployee)
	addClaim(t, s, "c-1", "emp-1", "travel", "500.00", models.StatusPending)
	addClaim(t, s, "c-2", "emp-1", "meals", "30.25", models.StatusFullyApproved)
	addClaim(t, s, "c-3", "emp-2", "meals", "900.00", models.StatusRejected)
	return s
}

func TestSummary(t *testing.T) {
	s := analyticsFixture(t)
	sum, err := s.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.TotalClaims)
	assert.Equal(t, "1430.25", sum.TotalAmount.StringFixed(2))
	assert.Equal(t, 1, sum.Pending)
	assert.Equal(t, 1, sum.FullyApproved)
}

func TestSummary_Empty(t *testing.T) {
	sum, err := New().Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.TotalClaims)
	assert.True(t, sum.TotalAmount.IsZero())
}

func TestClaimsByCategory(t *testing.T) {
	got, err := analyticsFixture(t).ClaimsByCategory(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "meals", got[0].Category)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, "930.25", got[0].Total.StringFixed(2))
	assert.Equal(t, "travel", got[1].Category)
	assert.Equal(t, 1, got[1].Count)
}

func TestClaimsByStatus_CoversCatalog(t *testing.T) {
	got, err := analyticsFixture(t).ClaimsByStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, got, len(models.StatusCatalog()))

	counts := map[models.StatusID]int{}
	for _, sc := range got {
		counts[sc.StatusID] = sc.Count
		assert.NotEmpty(t, sc.ColorCode)
	}
	assert.Equal(t, 1, counts[models.StatusPending])
	assert.Equal(t, 0, counts[models.StatusManagerApproved])
	assert.Equal(t, 1, counts[models.StatusRejected])
}

func TestApprovalTimes_AveragesEveryDecision(t *testing.T) {
	s := analyticsFixture(t)
	decide(t, s, "c-2", 1, 30*time.Minute)
	decide(t, s, "c-2", 2, 90*time.Minute)
	decide(t, s, "c-3", 1, 24*time.Hour)

	got, err := s.ApprovalTimes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.ApprovalTime{
		{ClaimID: "c-2", AverageMinutes: 60},
		{ClaimID: "c-3", AverageMinutes: 1440},
	}, got)
}

func TestTopSpenders(t *testing.T) {
	s := analyticsFixture(t)

	got, err := s.TopSpenders(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "emp-2", got[0].UserID)
	assert.Equal(t, "emp-1", got[1].UserID)
	assert.Equal(t, "530.25", got[1].Total.StringFixed(2))
	assert.Equal(t, "emp-3", got[2].UserID)
	assert.True(t, got[2].Total.IsZero())

	got, err = s.TopSpenders(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bo", got[0].Name)
}
