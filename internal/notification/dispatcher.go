package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/common/logger"
	"expense-approvals/internal/common/metrics"
	"expense-approvals/internal/models"
	"expense-approvals/internal/notification/channel"
	"expense-approvals/internal/store"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RealtimeChannel reaches a user's live sessions. delivered is false when
// the user has none.
type RealtimeChannel interface {
	SendToUser(ctx context.Context, userID string, msg channel.Message) (delivered bool, err error)
}

// PushGateway delivers to one registered device.
type PushGateway interface {
	Send(ctx context.Context, device models.DeviceEndpoint, msg channel.Message) error
}

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type Config struct {
	// MaxConcurrency bounds recipients processed at once.
	MaxConcurrency int
	// SendTimeout bounds every individual channel send.
	SendTimeout time.Duration
}

// Result aggregates the outcome of one dispatch.
type Result struct {
	Recipients         int `json:"recipients"`
	Persisted          int `json:"persisted"`
	PersistFailed      int `json:"persistFailed"`
	RealtimeDelivered  int `json:"realtimeDelivered"`
	RealtimeOffline    int `json:"realtimeOffline"`
	RealtimeFailed     int `json:"realtimeFailed"`
	DevicesDelivered   int `json:"devicesDelivered"`
	DevicesFailed      int `json:"devicesFailed"`
	DevicesDeactivated int `json:"devicesDeactivated"`
	DeviceLookupFailed int `json:"deviceLookupFailed"`
	EmailsSent         int `json:"emailsSent"`
	EmailsFailed       int `json:"emailsFailed"`
}

type Dispatcher struct {
	router        *Router
	notifications store.NotificationStore
	devices       store.DeviceStore
	realtime      RealtimeChannel
	push          PushGateway
	email         EmailSender
	cfg           Config
	logger        logger.Logger
	now           func() time.Time
	newID         func() string
}

type DispatcherOption func(*Dispatcher)

// WithRealtime enables live-session delivery.
func WithRealtime(rt RealtimeChannel) DispatcherOption {
	return func(d *Dispatcher) { d.realtime = rt }
}

// WithPush enables device delivery.
func WithPush(p PushGateway) DispatcherOption {
	return func(d *Dispatcher) { d.push = p }
}

// WithEmail enables e-mail for terminal outcomes.
func WithEmail(e EmailSender) DispatcherOption {
	return func(d *Dispatcher) { d.email = e }
}

func WithDispatcherClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

func NewDispatcher(router *Router, notifications store.NotificationStore, devices store.DeviceStore, cfg Config, log logger.Logger, opts ...DispatcherOption) *Dispatcher {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 8
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Second
	}
	d := &Dispatcher{
		router:        router,
		notifications: notifications,
		devices:       devices,
		cfg:           cfg,
		logger:        logger.ForComponent(log, "notification_dispatcher"),
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HandleEvent adapts Dispatch to the event bus handler signature.
func (d *Dispatcher) HandleEvent(ctx context.Context, event models.TransitionEvent) error {
	_, err := d.Dispatch(ctx, event.Claim, event.Type, event.ActorName, event.ActorID)
	return err
}

// Dispatch fans one transition out to every recipient. Partial failures are
// counted in Result; the error is non-nil only when nothing could be
// persisted at all.
func (d *Dispatcher) Dispatch(ctx context.Context, claim models.Claim, kind models.NotificationType, actorName, actorID string) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.DispatchDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}()

	log := d.logger.WithFields(map[string]interface{}{
		"claim_id":   claim.ID,
		"event_type": string(kind),
	})

	recipients, err := d.router.RecipientsFor(ctx, claim, kind)
	if err != nil {
		log.WithError(err).Error("Failed to resolve recipients", nil)
		return Result{}, err
	}
	if len(recipients) == 0 {
		log.Debug("No recipients for transition", nil)
		return Result{}, nil
	}

	content := Compose(kind, claim, actorName)
	msg := toMessage(kind, claim, content)
	msg.Timestamp = d.now()

	var sender *string
	if actorID != "" {
		id := actorID
		sender = &id
	}

	t := &tally{res: Result{Recipients: len(recipients)}}
	var g errgroup.Group
	g.SetLimit(d.cfg.MaxConcurrency)
	for _, recipient := range recipients {
		recipient := recipient
		g.Go(func() error {
			d.deliver(ctx, log, t, recipient, claim, kind, content, msg, sender)
			return nil
		})
	}
	_ = g.Wait()

	res := t.snapshot()
	fields := map[string]interface{}{
		"recipients":           res.Recipients,
		"persisted":            res.Persisted,
		"persist_failed":       res.PersistFailed,
		"realtime_delivered":   res.RealtimeDelivered,
		"realtime_offline":     res.RealtimeOffline,
		"realtime_failed":      res.RealtimeFailed,
		"devices_delivered":    res.DevicesDelivered,
		"devices_failed":       res.DevicesFailed,
		"devices_deactivated":  res.DevicesDeactivated,
		"device_lookup_failed": res.DeviceLookupFailed,
		"emails_sent":          res.EmailsSent,
		"emails_failed":        res.EmailsFailed,
	}

	if res.Persisted == 0 {
		log.Error("Dispatch failed for every recipient", fields)
		return res, apperrors.NewStorageError("persist notifications", t.lastErr)
	}
	log.Info("Dispatch completed", fields)
	return res, nil
}

func (d *Dispatcher) deliver(ctx context.Context, log logger.Logger, t *tally, recipient models.User,
	claim models.Claim, kind models.NotificationType, content Content, msg channel.Message, sender *string) {

	log = log.With(map[string]interface{}{"recipient_id": recipient.ID})

	record := &models.Notification{
		ID:          d.newID(),
		Title:       content.Title,
		Body:        content.Body,
		Type:        kind,
		Icon:        content.Style.Glyph,
		ClaimID:     claim.ID,
		RecipientID: recipient.ID,
		SenderID:    sender,
		Payload:     Payload(claim),
		CreatedAt:   d.now(),
	}
	if err := d.notifications.CreateNotification(ctx, record); err != nil {
		metrics.NotificationsDispatched.WithLabelValues(string(kind), "persist_failed").Inc()
		log.WithError(err).Error("Failed to persist notification", nil)
		t.add(func(r *Result) { r.PersistFailed++ }, err)
		return
	}
	metrics.NotificationsDispatched.WithLabelValues(string(kind), "persisted").Inc()
	t.add(func(r *Result) { r.Persisted++ }, nil)

	var wg sync.WaitGroup
	if d.realtime != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.sendRealtime(ctx, log, t, recipient.ID, msg)
		}()
	}
	if d.push != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.sendDevices(ctx, log, t, recipient.ID, msg)
		}()
	}
	if d.email != nil && recipient.Email != "" &&
		(kind == models.NotificationFullyApproved || kind == models.NotificationRejected) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.sendEmail(ctx, log, t, recipient.Email, content)
		}()
	}
	wg.Wait()
}

func (d *Dispatcher) sendRealtime(ctx context.Context, log logger.Logger, t *tally, userID string, msg channel.Message) {
	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	delivered, err := d.realtime.SendToUser(sendCtx, userID, msg)
	switch {
	case err != nil:
		metrics.ChannelDeliveries.WithLabelValues("realtime", "failed").Inc()
		log.WithError(err).Warn("Realtime delivery failed", nil)
		t.add(func(r *Result) { r.RealtimeFailed++ }, nil)
	case delivered:
		metrics.ChannelDeliveries.WithLabelValues("realtime", "delivered").Inc()
		t.add(func(r *Result) { r.RealtimeDelivered++ }, nil)
	default:
		metrics.ChannelDeliveries.WithLabelValues("realtime", "offline").Inc()
		t.add(func(r *Result) { r.RealtimeOffline++ }, nil)
	}
}

func (d *Dispatcher) sendDevices(ctx context.Context, log logger.Logger, t *tally, userID string, msg channel.Message) {
	devices, err := d.devices.ListActiveDevices(ctx, userID)
	if err != nil {
		metrics.ChannelDeliveries.WithLabelValues("push", "lookup_failed").Inc()
		log.WithError(err).Warn("Failed to list devices", nil)
		t.add(func(r *Result) { r.DeviceLookupFailed++ }, nil)
		return
	}

	var wg sync.WaitGroup
	for _, device := range devices {
		device := device
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, deactivated := deliverToDevice(ctx, d.push, d.devices, d.cfg.SendTimeout, d.now, log, device, msg)
			t.add(func(r *Result) {
				if ok {
					r.DevicesDelivered++
					return
				}
				r.DevicesFailed++
				if deactivated {
					r.DevicesDeactivated++
				}
			}, nil)
		}()
	}
	wg.Wait()
}

// deliverToDevice sends to one endpoint under its own timeout. A failed
// endpoint is deactivated unless the failure is a missing platform
// application. A successful one has lastUsed refreshed.
func deliverToDevice(ctx context.Context, push PushGateway, devices store.DeviceStore, timeout time.Duration,
	now func() time.Time, log logger.Logger, device models.DeviceEndpoint, msg channel.Message) (ok, deactivated bool) {

	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	err := push.Send(sendCtx, device, msg)
	cancel()

	fields := map[string]interface{}{"device_id": device.ID, "platform": string(device.Platform)}
	if err == nil {
		metrics.ChannelDeliveries.WithLabelValues("push", "delivered").Inc()
		if terr := devices.TouchDevice(ctx, device.Token, now()); terr != nil {
			log.WithError(terr).Warn("Failed to refresh device last_used", fields)
		}
		return true, false
	}

	metrics.ChannelDeliveries.WithLabelValues("push", "failed").Inc()
	if errors.Is(err, channel.ErrNoPlatformApplication) {
		log.WithError(err).Warn("Device platform not configured for push", fields)
		return false, false
	}

	log.WithError(err).Warn("Device delivery failed, deactivating endpoint", fields)
	if derr := devices.DeactivateDevice(ctx, device.Token, device.OwnerUserID); derr != nil {
		if apperrors.Is(derr, apperrors.ErrCodeNotFound) {
			// Token re-registered to another owner since it was listed.
			log.Info("Device changed owner, leaving it active", fields)
			return false, false
		}
		log.WithError(derr).Error("Failed to deactivate device", fields)
		return false, false
	}
	metrics.DevicesDeactivated.Inc()
	return false, true
}

func (d *Dispatcher) sendEmail(ctx context.Context, log logger.Logger, t *tally, to string, content Content) {
	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	if err := d.email.SendEmail(sendCtx, to, content.Title, content.Body); err != nil {
		metrics.ChannelDeliveries.WithLabelValues("email", "failed").Inc()
		log.WithError(err).Warn("E-mail delivery failed", nil)
		t.add(func(r *Result) { r.EmailsFailed++ }, nil)
		return
	}
	metrics.ChannelDeliveries.WithLabelValues("email", "delivered").Inc()
	t.add(func(r *Result) { r.EmailsSent++ }, nil)
}

type tally struct {
	mu      sync.Mutex
	res     Result
	lastErr error
}

func (t *tally) add(fn func(*Result), err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.res)
	if err != nil {
		t.lastErr = err
	}
}

func (t *tally) snapshot() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.res
}
