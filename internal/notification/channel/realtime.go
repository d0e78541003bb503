package channel

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "expense-approvals/internal/common/errors"

	"github.com/redis/go-redis/v9"
)

const realtimeEvent = "new_notification"

// Realtime publishes notifications on a per-user Redis channel. Socket
// gateways subscribe to the channels of the sessions they hold.
type Realtime struct {
	client redis.Cmdable
	prefix string
}

func NewRealtime(client redis.Cmdable, prefix string) *Realtime {
	return &Realtime{client: client, prefix: prefix}
}

// ChannelFor returns the Pub/Sub channel of userID.
func (r *Realtime) ChannelFor(userID string) string {
	return r.prefix + "user_" + userID
}

// SendToUser reports whether any subscriber received msg. No subscriber
// (the user is offline) is not an error.
func (r *Realtime) SendToUser(ctx context.Context, userID string, msg Message) (bool, error) {
	payload, err := encodeRealtime(msg)
	if err != nil {
		return false, apperrors.NewNotificationSendFailedError("realtime", err)
	}
	receivers, err := r.client.Publish(ctx, r.ChannelFor(userID), payload).Result()
	if err != nil {
		return false, apperrors.NewNotificationSendFailedError("realtime", err)
	}
	return receivers > 0, nil
}

type realtimeEnvelope struct {
	Event string  `json:"event"`
	Data  Message `json:"data"`
}

func encodeRealtime(msg Message) ([]byte, error) {
	b, err := json.Marshal(realtimeEnvelope{Event: realtimeEvent, Data: msg})
	if err != nil {
		return nil, fmt.Errorf("encode realtime message: %w", err)
	}
	return b, nil
}
