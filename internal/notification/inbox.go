package notification

import (
	"context"

	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/models"
	"expense-approvals/internal/store"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

type Page struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int                   `json:"total"`
	Limit         int                   `json:"limit"`
	Offset        int                   `json:"offset"`
}

// Inbox serves a recipient's stored notifications.
type Inbox struct {
	notifications store.NotificationStore
}

func NewInbox(notifications store.NotificationStore) *Inbox {
	return &Inbox{notifications: notifications}
}

// List returns a newest-first page. limit <= 0 selects DefaultPageSize.
func (i *Inbox) List(ctx context.Context, userID string, limit, offset int) (Page, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		return Page{}, apperrors.NewValidationError("offset: must not be negative")
	}

	items, total, err := i.notifications.ListNotifications(ctx, userID, limit, offset)
	if err != nil {
		return Page{}, err
	}
	if items == nil {
		items = []models.Notification{}
	}
	return Page{Notifications: items, Total: total, Limit: limit, Offset: offset}, nil
}

// MarkRead flips isRead on a notification owned by userID.
func (i *Inbox) MarkRead(ctx context.Context, notificationID, userID string) error {
	n, err := i.notifications.GetNotification(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.RecipientID != userID {
		return apperrors.NewPermissionDeniedError("notification " + notificationID + " belongs to another user")
	}
	if n.IsRead {
		return nil
	}
	return i.notifications.MarkRead(ctx, notificationID)
}

// MarkAllRead returns how many notifications changed.
func (i *Inbox) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return i.notifications.MarkAllRead(ctx, userID)
}

func (i *Inbox) UnreadCount(ctx context.Context, userID string) (int, error) {
	return i.notifications.CountUnread(ctx, userID)
}
