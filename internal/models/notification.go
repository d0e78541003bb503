// internal/models/notification.go
package models

import "time"

// NotificationType is one of the four transition kinds.
type NotificationType string

const (
	NotificationSubmitted     NotificationType = "SUBMITTED"
	NotificationApproved      NotificationType = "APPROVED"
	NotificationFullyApproved NotificationType = "FULLY_APPROVED"
	NotificationRejected      NotificationType = "REJECTED"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationSubmitted, NotificationApproved, NotificationFullyApproved, NotificationRejected:
		return true
	}
	return false
}

// Notification is created once per recipient per transition; only IsRead mutates.
type Notification struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Body        string                 `json:"body"`
	Type        NotificationType       `json:"type"`
	Icon        string                 `json:"icon"`
	IsRead      bool                   `json:"isRead"`
	ClaimID     string                 `json:"claimId"`
	RecipientID string                 `json:"recipientId"`
	SenderID    *string                `json:"senderId,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// TransitionEvent is emitted after a successful submit or decide.
type TransitionEvent struct {
	Claim      Claim            `json:"claim"`
	Type       NotificationType `json:"type"`
	ActorName  string           `json:"actorName"`
	ActorID    string           `json:"actorId"`
	OccurredAt time.Time        `json:"occurredAt"`
}
