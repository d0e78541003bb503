// Package memory provides an in-process Store used for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/models"
	"expense-approvals/internal/store"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Store struct {
	mu sync.RWMutex

	users     map[string]models.User
	userRoles map[string][]models.Role

	claims    map[string]models.Claim
	approvals map[string][]models.ApprovalRecord

	notifications []models.Notification

	devices map[string]models.DeviceEndpoint // keyed by token

	locksMu    sync.Mutex
	claimLocks map[string]*sync.Mutex
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:      make(map[string]models.User),
		userRoles:  make(map[string][]models.Role),
		claims:     make(map[string]models.Claim),
		approvals:  make(map[string][]models.ApprovalRecord),
		devices:    make(map[string]models.DeviceEndpoint),
		claimLocks: make(map[string]*sync.Mutex),
	}
}

// AddUser registers a user with the given roles, replacing any previous roles.
func (s *Store) AddUser(u models.User, roles ...models.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	s.userRoles[u.ID] = append([]models.Role(nil), roles...)
}

// -----------------------------------------------------------------------------
// Users
// -----------------------------------------------------------------------------

func (s *Store) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("user", id)
	}
	return &u, nil
}

func (s *Store) RolesOf(_ context.Context, userID string) ([]models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.users[userID]; !ok {
		return nil, apperrors.NewNotFoundError("user", userID)
	}
	return append([]models.Role(nil), s.userRoles[userID]...), nil
}

func (s *Store) UsersWithRole(_ context.Context, role models.Role) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.User
	for id, roles := range s.userRoles {
		for _, r := range roles {
			if r == role {
				out = append(out, s.users[id])
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// -----------------------------------------------------------------------------
// Claims
// -----------------------------------------------------------------------------

func (s *Store) CreateClaim(_ context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[claim.ID] = *claim
	return nil
}

func (s *Store) GetClaim(_ context.Context, id string) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.claims[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("claim", id)
	}
	return &c, nil
}

func (s *Store) ListClaimsAt(_ context.Context, status models.StatusID, level int) ([]models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Claim
	for _, c := range s.claims {
		if c.StatusID == status && c.CurrentLevel == level {
			out = append(out, c)
		}
	}
	sortClaims(out)
	return out, nil
}

func (s *Store) ListClaimsByRequester(_ context.Context, requesterID string) ([]models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Claim
	for _, c := range s.claims {
		if c.RequesterID == requesterID {
			out = append(out, c)
		}
	}
	sortClaims(out)
	return out, nil
}

// sortClaims orders newest first.
func sortClaims(claims []models.Claim) {
	sort.Slice(claims, func(i, j int) bool {
		if claims[i].CreatedAt.Equal(claims[j].CreatedAt) {
			return claims[i].ID < claims[j].ID
		}
		return claims[i].CreatedAt.After(claims[j].CreatedAt)
	})
}

func (s *Store) ListApprovals(_ context.Context, claimID string) ([]models.ApprovalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.ApprovalRecord(nil), s.approvals[claimID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ApprovalLevel < out[j].ApprovalLevel })
	return out, nil
}

func (s *Store) claimLock(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.claimLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.claimLocks[id] = l
	}
	return l
}

// Transition serializes callers per claim; claims never block each other.
func (s *Store) Transition(ctx context.Context, claimID string, fn store.TransitionFunc) (*models.Claim, error) {
	lock := s.claimLock(claimID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, err := s.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	working := *current
	record, err := fn(&working)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[claimID] = working
	if record != nil {
		s.approvals[claimID] = append(s.approvals[claimID], *record)
	}
	return &working, nil
}

// -----------------------------------------------------------------------------
// Notifications
// -----------------------------------------------------------------------------

func (s *Store) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *Store) GetNotification(_ context.Context, id string) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.notifications {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, apperrors.NewNotFoundError("notification", id)
}

func (s *Store) ListNotifications(_ context.Context, recipientID string, limit, offset int) ([]models.Notification, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var mine []models.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].RecipientID == recipientID {
			mine = append(mine, s.notifications[i])
		}
	}
	sort.SliceStable(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })

	total := len(mine)
	if offset >= total {
		return nil, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return mine[offset:end], total, nil
}

func (s *Store) MarkRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].IsRead = true
			return nil
		}
	}
	return apperrors.NewNotFoundError("notification", id)
}

func (s *Store) MarkAllRead(_ context.Context, recipientID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.notifications {
		if s.notifications[i].RecipientID == recipientID && !s.notifications[i].IsRead {
			s.notifications[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (s *Store) CountUnread(_ context.Context, recipientID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, notif := range s.notifications {
		if notif.RecipientID == recipientID && !notif.IsRead {
			n++
		}
	}
	return n, nil
}

// Notifications returns every stored notification in insertion order.
func (s *Store) Notifications() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Notification(nil), s.notifications...)
}

// -----------------------------------------------------------------------------
// Devices
// -----------------------------------------------------------------------------

func (s *Store) UpsertDevice(_ context.Context, d *models.DeviceEndpoint) (*models.DeviceEndpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.devices[d.Token]; ok {
		existing.OwnerUserID = d.OwnerUserID
		existing.Platform = d.Platform
		existing.Metadata = d.Metadata
		existing.IsActive = true
		existing.LastUsed = d.LastUsed
		s.devices[d.Token] = existing
		return &existing, nil
	}
	stored := *d
	stored.IsActive = true
	s.devices[d.Token] = stored
	return &stored, nil
}

func (s *Store) GetDevice(_ context.Context, id string) (*models.DeviceEndpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.devices {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, apperrors.NewNotFoundError("device", id)
}

func (s *Store) ListDevices(_ context.Context, userID string) ([]models.DeviceEndpoint, error) {
	return s.listDevices(userID, false), nil
}

func (s *Store) ListActiveDevices(_ context.Context, userID string) ([]models.DeviceEndpoint, error) {
	return s.listDevices(userID, true), nil
}

func (s *Store) listDevices(userID string, activeOnly bool) []models.DeviceEndpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.DeviceEndpoint
	for _, d := range s.devices {
		if d.OwnerUserID != userID || (activeOnly && !d.IsActive) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastUsed.Equal(out[j].LastUsed) {
			return out[i].Token < out[j].Token
		}
		return out[i].LastUsed.After(out[j].LastUsed)
	})
	return out
}

func (s *Store) DeactivateDevice(_ context.Context, token, ownerUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[token]
	if !ok || d.OwnerUserID != ownerUserID {
		return apperrors.NewNotFoundError("device", token)
	}
	d.IsActive = false
	s.devices[token] = d
	return nil
}

func (s *Store) TouchDevice(_ context.Context, token string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[token]
	if !ok {
		return apperrors.NewNotFoundError("device", token)
	}
	d.LastUsed = at
	s.devices[token] = d
	return nil
}

// Device returns the endpoint for token, if present.
func (s *Store) Device(token string) (models.DeviceEndpoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[token]
	return d, ok
}
