// Package store declares the persistence contracts consumed by the approval
// workflow and the notification pipeline.
package store

import (
	"context"
	"time"

	"expense-approvals/internal/models"
)

// TransitionFunc inspects the locked claim, mutates its status and level in
// place and returns the approval record to append. Returning an error aborts
// the transition without writing anything.
type TransitionFunc func(claim *models.Claim) (*models.ApprovalRecord, error)

type ClaimStore interface {
	CreateClaim(ctx context.Context, claim *models.Claim) error
	GetClaim(ctx context.Context, id string) (*models.Claim, error)
	ListClaimsAt(ctx context.Context, status models.StatusID, level int) ([]models.Claim, error)
	ListClaimsByRequester(ctx context.Context, requesterID string) ([]models.Claim, error)
	ListApprovals(ctx context.Context, claimID string) ([]models.ApprovalRecord, error)

	// Transition runs fn under a claim-scoped lock and persists the claim
	// update together with the returned record as one atomic unit.
	Transition(ctx context.Context, claimID string, fn TransitionFunc) (*models.Claim, error)
}

type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	RolesOf(ctx context.Context, userID string) ([]models.Role, error)
	UsersWithRole(ctx context.Context, role models.Role) ([]models.User, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id string) (*models.Notification, error)
	ListNotifications(ctx context.Context, recipientID string, limit, offset int) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
}

type DeviceStore interface {
	// UpsertDevice inserts or refreshes the endpoint keyed by token.
	UpsertDevice(ctx context.Context, d *models.DeviceEndpoint) (*models.DeviceEndpoint, error)
	GetDevice(ctx context.Context, id string) (*models.DeviceEndpoint, error)
	ListDevices(ctx context.Context, userID string) ([]models.DeviceEndpoint, error)
	ListActiveDevices(ctx context.Context, userID string) ([]models.DeviceEndpoint, error)
	// DeactivateDevice only matches while token is still owned by ownerUserID.
	DeactivateDevice(ctx context.Context, token, ownerUserID string) error
	TouchDevice(ctx context.Context, token string, at time.Time) error
}

// AnalyticsStore aggregates over claims and approval records. Results are
// read without locking and may trail concurrent transitions.
type AnalyticsStore interface {
	Summary(ctx context.Context) (*models.ClaimSummary, error)
	ClaimsByCategory(ctx context.Context) ([]models.CategoryTotal, error)
	// ClaimsByStatus lists every catalog status, including those with no claims.
	ClaimsByStatus(ctx context.Context) ([]models.StatusCount, error)
	// ApprovalTimes averages over every decision recorded against a claim.
	ApprovalTimes(ctx context.Context) ([]models.ApprovalTime, error)
	TopSpenders(ctx context.Context, limit int) ([]models.Spender, error)
}

// Store bundles every contract.
type Store interface {
	ClaimStore
	UserStore
	NotificationStore
	DeviceStore
	AnalyticsStore
}
