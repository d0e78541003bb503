package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/common/logger"
	"expense-approvals/internal/common/validation"
	"expense-approvals/internal/models"
	"expense-approvals/internal/notification/channel"
	"expense-approvals/internal/store"

	"github.com/google/uuid"
)

var registerSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"token":    {"type": "string", "minLength": 1, "maxLength": 4096},
		"platform": {"type": "string", "enum": ["web", "android", "ios"]},
		"metadata": {"type": ["object", "null"]}
	},
	"required": ["token", "platform"]
}`)

var testSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"title": {"type": "string", "minLength": 1, "pattern": "\\S"},
		"body":  {"type": "string", "minLength": 1, "pattern": "\\S"}
	},
	"required": ["title", "body"]
}`)

var errPushDisabled = errors.New("device push is disabled")

type RegisterDeviceInput struct {
	Token    string                 `json:"token"`
	Platform models.Platform        `json:"platform"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// TestResult counts the outcome of a test push.
type TestResult struct {
	Delivered   int `json:"delivered"`
	Failed      int `json:"failed"`
	Deactivated int `json:"deactivated"`
}

// Registry owns device endpoints.
type Registry struct {
	devices     store.DeviceStore
	push        PushGateway
	sendTimeout time.Duration
	logger      logger.Logger
	now         func() time.Time
	newID       func() string
}

func NewRegistry(devices store.DeviceStore, push PushGateway, sendTimeout time.Duration, log logger.Logger) *Registry {
	if sendTimeout <= 0 {
		sendTimeout = 5 * time.Second
	}
	return &Registry{
		devices:     devices,
		push:        push,
		sendTimeout: sendTimeout,
		logger:      logger.ForComponent(log, "device_registry"),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

// RegisterDevice upserts by token. A known token is reactivated and moved
// to userID.
func (r *Registry) RegisterDevice(ctx context.Context, userID string, in RegisterDeviceInput) (*models.DeviceEndpoint, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.NewValidationError("userId: is required")
	}
	if err := registerSchema.Check(in); err != nil {
		return nil, err
	}

	now := r.now()
	device, err := r.devices.UpsertDevice(ctx, &models.DeviceEndpoint{
		ID:          r.newID(),
		Token:       in.Token,
		OwnerUserID: userID,
		Platform:    in.Platform,
		Metadata:    in.Metadata,
		IsActive:    true,
		LastUsed:    now,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Device registered", map[string]interface{}{
		"device_id": device.ID,
		"user_id":   userID,
		"platform":  string(device.Platform),
	})
	return device, nil
}

// ListDevices returns every endpoint of userID, most recently used first.
func (r *Registry) ListDevices(ctx context.Context, userID string) ([]models.DeviceEndpoint, error) {
	return r.devices.ListDevices(ctx, userID)
}

// RemoveDevice deactivates deviceID. Devices owned by someone else are
// reported as NOT_FOUND.
func (r *Registry) RemoveDevice(ctx context.Context, deviceID, userID string) error {
	device, err := r.devices.GetDevice(ctx, deviceID)
	if err != nil {
		return err
	}
	if device.OwnerUserID != userID {
		return apperrors.NewNotFoundError("device", deviceID)
	}
	if err := r.devices.DeactivateDevice(ctx, device.Token, device.OwnerUserID); err != nil {
		return err
	}
	r.logger.Info("Device removed", map[string]interface{}{"device_id": deviceID, "user_id": userID})
	return nil
}

// SendTest pushes an ad-hoc message to the user's active devices without
// persisting a notification.
func (r *Registry) SendTest(ctx context.Context, userID, title, body string) (TestResult, error) {
	if err := testSchema.Check(map[string]interface{}{"title": title, "body": body}); err != nil {
		return TestResult{}, err
	}
	if r.push == nil {
		return TestResult{}, apperrors.NewNotificationSendFailedError("push", errPushDisabled)
	}

	devices, err := r.devices.ListActiveDevices(ctx, userID)
	if err != nil {
		return TestResult{}, err
	}

	msg := channel.Message{
		Title:       title,
		Body:        body,
		Icon:        "/icons/test.png",
		Type:        "test",
		ClickAction: "/dashboard",
		Timestamp:   r.now(),
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		res TestResult
	)
	for _, device := range devices {
		device := device
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, deactivated := deliverToDevice(ctx, r.push, r.devices, r.sendTimeout, r.now, r.logger, device, msg)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case ok:
				res.Delivered++
			case deactivated:
				res.Failed++
				res.Deactivated++
			default:
				res.Failed++
			}
		}()
	}
	wg.Wait()
	return res, nil
}
