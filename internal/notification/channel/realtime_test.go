package channel

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	apperrors "expense-approvals/internal/common/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMessage() Message {
	return Message{
		Title:       "✅ Expense Approved",
		Body:        "Conference approved by Morgan. Pending Accountant approval.",
		Icon:        "/icons/expense-approved.png",
		Type:        "APPROVED",
		ClaimID:     "c-1",
		ClickAction: "/expenses/c-1",
		Timestamp:   time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
	}
}

func TestRealtime_DeliversToSubscriber(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	rt := NewRealtime(client, "notifications:")
	ctx := context.Background()

	sub := client.Subscribe(ctx, rt.ChannelFor("u-1"))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	delivered, err := rt.SendToUser(ctx, "u-1", sampleMessage())
	require.NoError(t, err)
	assert.True(t, delivered)

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, "notifications:user_u-1", msg.Channel)
		var env realtimeEnvelope
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &env))
		assert.Equal(t, "new_notification", env.Event)
		assert.Equal(t, "c-1", env.Data.ClaimID)
		assert.Equal(t, "/expenses/c-1", env.Data.ClickAction)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestRealtime_OfflineUserIsNotAnError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	delivered, err := NewRealtime(client, "notifications:").SendToUser(context.Background(), "nobody", sampleMessage())
	require.NoError(t, err)
	assert.False(t, delivered)
}

func TestRealtime_PublishErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	rt := NewRealtime(client, "notifications:")
	msg := sampleMessage()
	payload, err := encodeRealtime(msg)
	require.NoError(t, err)

	mock.ExpectPublish("notifications:user_u-1", payload).SetVal(2)
	delivered, err := rt.SendToUser(context.Background(), "u-1", msg)
	require.NoError(t, err)
	assert.True(t, delivered)

	mock.ExpectPublish("notifications:user_u-1", payload).SetErr(errors.New("connection refused"))
	_, err = rt.SendToUser(context.Background(), "u-1", msg)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotificationSendFailed))

	assert.NoError(t, mock.ExpectationsWereMet())
}
