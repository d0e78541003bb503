// internal/models/approval.go
package models

import "time"

type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

func (d Decision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// ApprovalRecord is an append-only audit entry. It is never updated or deleted.
type ApprovalRecord struct {
	ID              string    `json:"id"`
	ClaimID         string    `json:"claimId"`
	ApproverID      string    `json:"approverId"`
	Decision        Decision  `json:"decision"`
	Remarks         string    `json:"remarks"`
	ActionTimestamp time.Time `json:"actionTimestamp"`
	ApprovalLevel   int       `json:"approvalLevel"`
	ApproverRole    Role      `json:"approverRole"`
}
