package notification

import (
	"context"
	"fmt"
	"testing"
	"time"

	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/models"
	"expense-approvals/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedInbox(t *testing.T, s *memory.Store, recipient string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, s.CreateNotification(context.Background(), &models.Notification{
			ID:          fmt.Sprintf("%s-%d", recipient, i),
			RecipientID: recipient,
			Type:        models.NotificationSubmitted,
			CreatedAt:   fixedNow.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func TestInbox_List(t *testing.T) {
	s := memory.New()
	seedInbox(t, s, "u-1", 60)
	inbox := NewInbox(s)

	page, err := inbox.List(context.Background(), "u-1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, page.Limit)
	assert.Equal(t, 60, page.Total)
	assert.Len(t, page.Notifications, DefaultPageSize)
	assert.Equal(t, "u-1-59", page.Notifications[0].ID)

	page, err = inbox.List(context.Background(), "u-1", 50, 50)
	require.NoError(t, err)
	assert.Len(t, page.Notifications, 10)

	page, err = inbox.List(context.Background(), "nobody", 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, page.Notifications)
	assert.Zero(t, page.Total)

	_, err = inbox.List(context.Background(), "u-1", 10, -1)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
}

func TestInbox_MarkRead(t *testing.T) {
	s := memory.New()
	seedInbox(t, s, "u-1", 2)
	inbox := NewInbox(s)
	ctx := context.Background()

	err := inbox.MarkRead(ctx, "u-1-0", "u-2")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodePermissionDenied))

	err = inbox.MarkRead(ctx, "missing", "u-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))

	require.NoError(t, inbox.MarkRead(ctx, "u-1-0", "u-1"))
	require.NoError(t, inbox.MarkRead(ctx, "u-1-0", "u-1"))

	unread, err := inbox.UnreadCount(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}

func TestInbox_MarkAllRead(t *testing.T) {
	s := memory.New()
	seedInbox(t, s, "u-1", 3)
	seedInbox(t, s, "u-2", 1)
	inbox := NewInbox(s)
	ctx := context.Background()

	n, err := inbox.MarkAllRead(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = inbox.MarkAllRead(ctx, "u-1")
	require.NoError(t, err)
	assert.Zero(t, n)

	unread, err := inbox.UnreadCount(ctx, "u-2")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}
