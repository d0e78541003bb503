// Package approval owns the expense claim lifecycle: submission, the
// three-level decision chain and the audit trail.
package approval

import (
	"context"
	"strconv"
	"strings"
	"time"

	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/common/logger"
	"expense-approvals/internal/common/metrics"
	"expense-approvals/internal/models"
	"expense-approvals/internal/roles"
	"expense-approvals/internal/store"

	"github.com/google/uuid"
)

// Emitter receives a transition event once the transition has committed.
type Emitter interface {
	Emit(ctx context.Context, event models.TransitionEvent) error
}

type Service struct {
	claims  store.ClaimStore
	roles   *roles.Resolver
	emitter Emitter
	logger  logger.Logger
	now     func() time.Time
	newID   func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(claims store.ClaimStore, resolver *roles.Resolver, emitter Emitter, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		claims:  claims,
		roles:   resolver,
		emitter: emitter,
		logger:  logger.ForComponent(log, "approval_service"),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit creates a claim in PENDING at level 1 owned by requesterID.
func (s *Service) Submit(ctx context.Context, requesterID string, in SubmitInput) (*models.Claim, error) {
	if strings.TrimSpace(requesterID) == "" {
		return nil, apperrors.NewValidationError("requesterId: is required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	requester, _, err := s.roles.Resolve(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	claim := &models.Claim{
		ID:           s.newID(),
		Title:        strings.TrimSpace(in.Title),
		Amount:       in.Amount,
		Description:  in.Description,
		Category:     in.Category,
		ReceiptRef:   in.ReceiptRef,
		StatusID:     models.StatusPending,
		CurrentLevel: models.LevelManager,
		RequesterID:  requesterID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.claims.CreateClaim(ctx, claim); err != nil {
		return nil, err
	}

	metrics.ClaimsSubmitted.Inc()
	s.logger.Info("Claim submitted", map[string]interface{}{
		"claim_id":     claim.ID,
		"requester_id": requesterID,
		"amount":       claim.Amount.StringFixed(2),
	})

	s.emit(ctx, *claim, models.NotificationSubmitted, requester)
	return claim, nil
}

// ListPendingFor returns the claims waiting at the caller's approval level.
func (s *Service) ListPendingFor(ctx context.Context, userID string) ([]models.Claim, error) {
	set, err := s.roles.RolesOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	role, ok := roles.ApproverRole(set)
	if !ok {
		return nil, apperrors.NewPermissionDeniedError("user " + userID + " holds no approver role")
	}
	level, _ := roles.LevelFor(role)
	st, _ := stepFor(level)
	return s.claims.ListClaimsAt(ctx, st.validStatus, level)
}

// ListMine returns the requester's own claims, newest first.
func (s *Service) ListMine(ctx context.Context, requesterID string) ([]models.Claim, error) {
	if strings.TrimSpace(requesterID) == "" {
		return nil, apperrors.NewValidationError("requesterId: is required")
	}
	return s.claims.ListClaimsByRequester(ctx, requesterID)
}

// Decide applies an approve or reject decision at the caller's level. The
// audit record and the status update commit together under the claim lock.
func (s *Service) Decide(ctx context.Context, in DecideInput) (*models.Claim, error) {
	claim, err := s.decide(ctx, in)
	if err != nil {
		metrics.ClaimDecisionsRejected.WithLabelValues(apperrors.GetErrorCategory(apperrors.CodeOf(err))).Inc()
		s.logger.Warn("Decision refused", map[string]interface{}{
			"claim_id":   in.ClaimID,
			"caller_id":  in.CallerID,
			"decision":   string(in.Decision),
			"error_code": string(apperrors.CodeOf(err)),
		})
		return nil, err
	}
	return claim, nil
}

func (s *Service) decide(ctx context.Context, in DecideInput) (*models.Claim, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	caller, set, err := s.roles.Resolve(ctx, in.CallerID)
	if err != nil {
		return nil, err
	}
	role, ok := roles.ApproverRole(set)
	if !ok {
		return nil, apperrors.NewPermissionDeniedError("user " + in.CallerID + " holds no approver role")
	}
	level, _ := roles.LevelFor(role)
	st, _ := stepFor(level)

	var kind models.NotificationType
	updated, err := s.claims.Transition(ctx, in.ClaimID, func(claim *models.Claim) (*models.ApprovalRecord, error) {
		if err := st.guard(claim); err != nil {
			return nil, err
		}

		now := s.now()
		record := &models.ApprovalRecord{
			ID:              s.newID(),
			ClaimID:         claim.ID,
			ApproverID:      caller.ID,
			Decision:        in.Decision,
			Remarks:         in.Remarks,
			ActionTimestamp: now,
			ApprovalLevel:   st.level,
			ApproverRole:    role,
		}

		var nextStatus models.StatusID
		var nextLevel int
		nextStatus, nextLevel, kind = st.next(in.Decision)
		claim.StatusID = nextStatus
		claim.CurrentLevel = nextLevel
		claim.UpdatedAt = now
		return record, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ClaimTransitions.WithLabelValues(strconv.Itoa(st.level), updated.StatusID.String()).Inc()
	s.logger.Info("Claim decided", map[string]interface{}{
		"claim_id":    updated.ID,
		"approver_id": caller.ID,
		"role":        string(role),
		"decision":    string(in.Decision),
		"level":       st.level,
		"status":      updated.StatusID.String(),
	})

	s.emit(ctx, *updated, kind, caller)
	return updated, nil
}

// GetClaim returns the claim with its status entry and audit trail ordered
// by approval level.
func (s *Service) GetClaim(ctx context.Context, claimID string) (*models.ClaimDetail, error) {
	claim, err := s.claims.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	records, err := s.claims.ListApprovals(ctx, claimID)
	if err != nil {
		return nil, err
	}
	status, _ := models.LookupStatus(claim.StatusID)
	if records == nil {
		records = []models.ApprovalRecord{}
	}
	return &models.ClaimDetail{Claim: *claim, Status: status, Approvals: records}, nil
}

// emit never fails the caller. The transition has already committed.
func (s *Service) emit(ctx context.Context, claim models.Claim, kind models.NotificationType, actor *models.User) {
	if s.emitter == nil {
		return
	}
	event := models.TransitionEvent{
		Claim:      claim,
		Type:       kind,
		ActorName:  actor.Name,
		ActorID:    actor.ID,
		OccurredAt: s.now(),
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.WithError(err).Warn("Transition event not emitted", map[string]interface{}{
			"claim_id":   claim.ID,
			"event_type": string(kind),
			"error_code": string(apperrors.CodeOf(err)),
		})
	}
}
