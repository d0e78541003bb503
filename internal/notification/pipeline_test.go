package notification

import (
	"context"
	"testing"

	"expense-approvals/internal/approval"
	"expense-approvals/internal/common/logger"
	"expense-approvals/internal/models"
	"expense-approvals/internal/roles"
	"expense-approvals/internal/store/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncEmitter dispatches inline so assertions can follow each call.
type syncEmitter struct {
	d *Dispatcher
}

func (e syncEmitter) Emit(ctx context.Context, ev models.TransitionEvent) error {
	return e.d.HandleEvent(ctx, ev)
}

func byRecipient(all []models.Notification, kind models.NotificationType) map[string]int {
	out := map[string]int{}
	for _, n := range all {
		if n.Type == kind {
			out[n.RecipientID]++
		}
	}
	return out
}

func TestPipeline_FanOutFollowsTheChain(t *testing.T) {
	s := memory.New()
	seedUsers(s)
	log := logger.NewTestLogger(t)
	d := newDispatcher(t, s, s)
	svc := approval.NewService(s, roles.NewResolver(s, log), syncEmitter{d: d}, log)
	ctx := context.Background()

	claim, err := svc.Submit(ctx, "emp-1", approval.SubmitInput{
		Title:  "Conference",
		Amount: decimal.RequireFromString("500.00"),
	})
	require.NoError(t, err)

	submitted := byRecipient(s.Notifications(), models.NotificationSubmitted)
	assert.Equal(t, map[string]int{"mgr-1": 1, "mgr-2": 1}, submitted)
	for _, n := range s.Notifications() {
		assert.Contains(t, n.Body, "500")
		assert.Contains(t, n.Body, "Conference")
	}

	_, err = svc.Decide(ctx, approval.DecideInput{ClaimID: claim.ID, CallerID: "mgr-1", Decision: models.DecisionApproved})
	require.NoError(t, err)
	approved := byRecipient(s.Notifications(), models.NotificationApproved)
	assert.Equal(t, map[string]int{"acc-1": 1, "acc-2": 1}, approved)

	_, err = svc.Decide(ctx, approval.DecideInput{ClaimID: claim.ID, CallerID: "acc-1", Decision: models.DecisionApproved})
	require.NoError(t, err)
	approved = byRecipient(s.Notifications(), models.NotificationApproved)
	assert.Equal(t, map[string]int{"acc-1": 1, "acc-2": 1, "adm-1": 1}, approved)
	assert.NotContains(t, approved, "mgr-1")
	assert.NotContains(t, approved, "mgr-2")

	_, err = svc.Decide(ctx, approval.DecideInput{ClaimID: claim.ID, CallerID: "adm-1", Decision: models.DecisionApproved})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"emp-1": 1}, byRecipient(s.Notifications(), models.NotificationFullyApproved))
}
