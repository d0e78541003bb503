// internal/models/claim.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Level values of Claim.CurrentLevel.
const (
	LevelTerminal   = 0
	LevelManager    = 1
	LevelAccountant = 2
	LevelAdmin      = 3
)

// Claim is an expense submission moving through the approval chain.
// StatusID and CurrentLevel only change together.
type Claim struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	ReceiptRef   string          `json:"receiptRef,omitempty"`
	StatusID     StatusID        `json:"statusId"`
	CurrentLevel int             `json:"currentLevel"`
	RequesterID  string          `json:"requesterId"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// ClaimDetail is a claim together with its audit trail ordered by approval level.
type ClaimDetail struct {
	Claim
	Status    Status           `json:"status"`
	Approvals []ApprovalRecord `json:"approvals"`
}
