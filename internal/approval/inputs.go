package approval

import (
	"strings"

	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/common/validation"
	"expense-approvals/internal/models"

	"github.com/shopspring/decimal"
)

var submitSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"title":       {"type": "string", "minLength": 1, "maxLength": 200, "pattern": "\\S"},
		"amount":      {"type": "string", "pattern": "^[0-9]{1,12}(\\.[0-9]{1,2})?$"},
		"description": {"type": "string", "maxLength": 2000},
		"category":    {"type": "string", "maxLength": 100},
		"receiptRef":  {"type": "string", "maxLength": 500}
	},
	"required": ["title", "amount"]
}`)

// SubmitInput carries the requester-supplied claim fields.
type SubmitInput struct {
	Title       string          `json:"title"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	ReceiptRef  string          `json:"receiptRef,omitempty"`
}

func (in SubmitInput) validate() error {
	if err := submitSchema.Check(in); err != nil {
		return err
	}
	if !in.Amount.IsPositive() {
		return apperrors.NewValidationError("amount: must be a positive number")
	}
	return nil
}

type DecideInput struct {
	ClaimID  string
	CallerID string
	Decision models.Decision
	Remarks  string
}

func (in DecideInput) validate() error {
	if strings.TrimSpace(in.ClaimID) == "" {
		return apperrors.NewValidationError("claimId: is required")
	}
	if strings.TrimSpace(in.CallerID) == "" {
		return apperrors.NewValidationError("callerId: is required")
	}
	if !in.Decision.Valid() {
		return apperrors.NewValidationError("decision: must be APPROVED or REJECTED")
	}
	return nil
}
