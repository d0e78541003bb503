package notification

import (
	"testing"

	"expense-approvals/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCompose(t *testing.T) {
	claim := models.Claim{ID: "c-9", Title: "Conference", Amount: decimal.RequireFromString("500")}

	tests := []struct {
		name      string
		kind      models.NotificationType
		level     int
		wantTitle string
		wantBody  string
		wantIcon  string
	}{
		{
			name: "submitted", kind: models.NotificationSubmitted, level: models.LevelManager,
			wantTitle: "💰 New Expense Submitted",
			wantBody:  "Conference - $500.00 requires your approval",
			wantIcon:  "/icons/expense-submitted.png",
		},
		{
			name: "approved to accountant", kind: models.NotificationApproved, level: models.LevelAccountant,
			wantTitle: "✅ Expense Approved",
			wantBody:  "Conference approved by Morgan. Pending Accountant approval.",
			wantIcon:  "/icons/expense-approved.png",
		},
		{
			name: "approved to admin", kind: models.NotificationApproved, level: models.LevelAdmin,
			wantTitle: "✅ Expense Approved",
			wantBody:  "Conference approved by Morgan. Pending Admin approval.",
			wantIcon:  "/icons/expense-approved.png",
		},
		{
			name: "rejected", kind: models.NotificationRejected, level: models.LevelTerminal,
			wantTitle: "❌ Expense Rejected",
			wantBody:  `Your expense "Conference" has been rejected by Morgan`,
			wantIcon:  "/icons/expense-rejected.png",
		},
		{
			name: "fully approved", kind: models.NotificationFullyApproved, level: models.LevelTerminal,
			wantTitle: "🎉 Expense Fully Approved",
			wantBody:  `Congratulations! Your expense "Conference" - $500.00 has been fully approved`,
			wantIcon:  "/icons/expense-fully-approved.png",
		},
		{
			name: "unknown", kind: models.NotificationType("OTHER"),
			wantTitle: "Expense Update",
			wantBody:  `Your expense "Conference" has been updated`,
			wantIcon:  "/icons/default.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := claim
			c.CurrentLevel = tt.level
			got := Compose(tt.kind, c, "Morgan")
			assert.Equal(t, tt.wantTitle, got.Title)
			assert.Equal(t, tt.wantBody, got.Body)
			assert.Equal(t, tt.wantIcon, got.Icon)
			assert.Equal(t, got, Compose(tt.kind, c, "Morgan"))
		})
	}
}

func TestStyleOf(t *testing.T) {
	assert.Equal(t, "#DC143C", StyleOf(models.NotificationRejected).Color)
	assert.Equal(t, "🎉", StyleOf(models.NotificationFullyApproved).Glyph)
	assert.Equal(t, "default", StyleOf("nope").Glyph)
}

func TestPayload(t *testing.T) {
	p := Payload(models.Claim{ID: "c-1", Title: "Hotel"})
	assert.Equal(t, "/expenses/c-1", p["click_action"])
	assert.Equal(t, "c-1", p["claim_id"])
	assert.Equal(t, "Hotel", p["claim_title"])
}
