// Package app assembles the expense approval service from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"expense-approvals/internal/analytics"
	"expense-approvals/internal/approval"
	"expense-approvals/internal/common/aws"
	"expense-approvals/internal/common/config"
	"expense-approvals/internal/common/database"
	"expense-approvals/internal/common/logger"
	"expense-approvals/internal/common/observability"
	"expense-approvals/internal/events"
	"expense-approvals/internal/notification"
	"expense-approvals/internal/notification/channel"
	"expense-approvals/internal/roles"
	"expense-approvals/internal/store/postgres"
)

// App holds every wired component. Close releases them in reverse order.
type App struct {
	Config *config.Config
	Logger logger.Logger

	Postgres *database.PostgresClient
	Redis    *database.RedisClient
	Store    *postgres.Store
	Obs      *observability.Observability

	Resolver   *roles.Resolver
	Claims     *approval.Service
	Dispatcher *notification.Dispatcher
	Bus        *events.Bus
	Registry   *notification.Registry
	Inbox      *notification.Inbox
	Analytics  *analytics.Service
}

// New connects to Postgres (and Redis when realtime delivery is enabled),
// builds the configured delivery channels and wires the approval pipeline.
// The event bus is not started.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, obs *observability.Observability) (*App, error) {
	a := &App{Config: cfg, Logger: log, Obs: obs}

	err := RetryWithBackoff(ctx, func() error {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		a.Postgres = pg
		return nil
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	log.Info("PostgreSQL connected successfully", nil)
	a.Store = postgres.New(a.Postgres.DB)

	var opts []notification.DispatcherOption
	var push notification.PushGateway

	if cfg.Notifications.Realtime.Enabled {
		err := RetryWithBackoff(ctx, func() error {
			rc, err := database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := rc.Ping(ctx); err != nil {
				rc.Close()
				return err
			}
			a.Redis = rc
			return nil
		}, 10, 2*time.Second, log, "Redis connection")
		if err != nil {
			a.Close()
			return nil, err
		}
		log.Info("Redis connected successfully", nil)
		opts = append(opts, notification.WithRealtime(
			channel.NewRealtime(a.Redis.Client, cfg.Notifications.Realtime.ChannelPrefix)))
	}

	if cfg.Notifications.Push.Enabled || cfg.Notifications.Email.Enabled {
		awsCfg, err := aws.LoadConfig(ctx, cfg.AWS.Region)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		if cfg.Notifications.Push.Enabled {
			sns := channel.NewSNSPush(aws.NewSNSClient(awsCfg), cfg.Notifications.Push.PlatformApplications)
			push = sns
			opts = append(opts, notification.WithPush(sns))
		}
		if cfg.Notifications.Email.Enabled {
			opts = append(opts, notification.WithEmail(
				channel.NewSESEmail(aws.NewSESClient(awsCfg), cfg.Notifications.Email.FromEmail)))
		}
	}

	d := cfg.Notifications.Dispatch
	sendTimeout := config.GetDuration(d.SendTimeout)

	a.Resolver = roles.NewResolver(a.Store, log)
	a.Dispatcher = notification.NewDispatcher(notification.NewRouter(a.Store), a.Store, a.Store,
		notification.Config{MaxConcurrency: d.MaxConcurrency, SendTimeout: sendTimeout}, log, opts...)
	a.Bus = events.NewBus(events.Config{Workers: d.Workers, QueueSize: d.QueueSize}, a.Dispatcher.HandleEvent, log, obs)
	a.Claims = approval.NewService(a.Store, a.Resolver, a.Bus, log)
	a.Registry = notification.NewRegistry(a.Store, push, sendTimeout, log)
	a.Inbox = notification.NewInbox(a.Store)
	a.Analytics = analytics.NewService(a.Store, a.Resolver, log)

	log.Info("Application wired", map[string]interface{}{
		"realtime": cfg.Notifications.Realtime.Enabled,
		"push":     cfg.Notifications.Push.Enabled,
		"email":    cfg.Notifications.Email.Enabled,
		"workers":  d.Workers,
	})
	return a, nil
}

// Start launches the event bus workers.
func (a *App) Start(ctx context.Context) {
	a.Bus.Start(ctx)
}

// Ready reports whether every backing connection answers.
func (a *App) Ready(ctx context.Context) error {
	if err := a.Postgres.Ping(ctx); err != nil {
		return err
	}
	if a.Redis != nil {
		return a.Redis.Ping(ctx)
	}
	return nil
}

// Shutdown drains pending transition events for at most the configured
// drain timeout, then closes connections.
func (a *App) Shutdown(ctx context.Context) error {
	drainCtx, cancel := context.WithTimeout(ctx, config.GetDuration(a.Config.Notifications.Dispatch.DrainTimeout))
	defer cancel()

	var err error
	if a.Bus != nil {
		if err = a.Bus.Stop(drainCtx); err != nil {
			a.Logger.WithError(err).Warn("Event bus did not drain in time", nil)
		}
	}
	a.Close()
	return err
}

// Close releases connections without draining.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.WithError(err).Warn("Error closing Redis", nil)
		}
	}
	if a.Postgres != nil {
		if err := a.Postgres.Close(); err != nil {
			a.Logger.WithError(err).Warn("Error closing PostgreSQL", nil)
		}
	}
}

// maxBackoff caps the doubling delay between attempts.
var maxBackoff = 30 * time.Second

// RetryWithBackoff attempts to execute a function with exponential backoff.
// It stops waiting as soon as ctx is done.
func RetryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.WithError(err).Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s aborted after %d attempts: %w", operationName, i+1, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
			if delay > maxBackoff {
				delay = maxBackoff
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
