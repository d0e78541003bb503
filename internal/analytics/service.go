// Package analytics reports aggregate figures over claims and decisions.
// Every report is restricted to ADMIN callers.
package analytics

import (
	"context"

	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/common/logger"
	"expense-approvals/internal/models"
	"expense-approvals/internal/roles"
	"expense-approvals/internal/store"

	"golang.org/x/sync/errgroup"
)

// TopSpendersLimit is the size of the spender ranking.
const TopSpendersLimit = 10

// Report bundles every figure in one response.
type Report struct {
	Summary       *models.ClaimSummary   `json:"summary"`
	ByCategory    []models.CategoryTotal `json:"byCategory"`
	ByStatus      []models.StatusCount   `json:"byStatus"`
	ApprovalTimes []models.ApprovalTime  `json:"approvalTimes"`
	TopSpenders   []models.Spender       `json:"topSpenders"`
}

type Service struct {
	store  store.AnalyticsStore
	roles  *roles.Resolver
	logger logger.Logger
}

func NewService(s store.AnalyticsStore, resolver *roles.Resolver, log logger.Logger) *Service {
	return &Service{store: s, roles: resolver, logger: logger.ForComponent(log, "analytics_service")}
}

func (s *Service) authorize(ctx context.Context, callerID string) error {
	set, err := s.roles.RolesOf(ctx, callerID)
	if err != nil {
		return err
	}
	if !set.Has(models.RoleAdmin) {
		s.logger.Warn("Analytics refused", map[string]interface{}{"caller_id": callerID})
		return apperrors.NewPermissionDeniedError("user " + callerID + " is not an admin")
	}
	return nil
}

func (s *Service) Summary(ctx context.Context, callerID string) (*models.ClaimSummary, error) {
	if err := s.authorize(ctx, callerID); err != nil {
		return nil, err
	}
	return s.store.Summary(ctx)
}

func (s *Service) ByCategory(ctx context.Context, callerID string) ([]models.CategoryTotal, error) {
	if err := s.authorize(ctx, callerID); err != nil {
		return nil, err
	}
	return s.store.ClaimsByCategory(ctx)
}

func (s *Service) ByStatus(ctx context.Context, callerID string) ([]models.StatusCount, error) {
	if err := s.authorize(ctx, callerID); err != nil {
		return nil, err
	}
	return s.store.ClaimsByStatus(ctx)
}

// ApprovalTimes returns per-claim averages with a readable rendering.
func (s *Service) ApprovalTimes(ctx context.Context, callerID string) ([]models.ApprovalTime, error) {
	if err := s.authorize(ctx, callerID); err != nil {
		return nil, err
	}
	return s.approvalTimes(ctx)
}

func (s *Service) approvalTimes(ctx context.Context) ([]models.ApprovalTime, error) {
	times, err := s.store.ApprovalTimes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range times {
		times[i].Average = HumanDuration(times[i].AverageMinutes)
	}
	return times, nil
}

func (s *Service) TopSpenders(ctx context.Context, callerID string) ([]models.Spender, error) {
	if err := s.authorize(ctx, callerID); err != nil {
		return nil, err
	}
	return s.store.TopSpenders(ctx, TopSpendersLimit)
}

// Report runs every query concurrently. The first failure cancels the rest.
func (s *Service) Report(ctx context.Context, callerID string) (*Report, error) {
	if err := s.authorize(ctx, callerID); err != nil {
		return nil, err
	}

	var r Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		r.Summary, err = s.store.Summary(gctx)
		return err
	})
	g.Go(func() (err error) {
		r.ByCategory, err = s.store.ClaimsByCategory(gctx)
		return err
	})
	g.Go(func() (err error) {
		r.ByStatus, err = s.store.ClaimsByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		r.ApprovalTimes, err = s.approvalTimes(gctx)
		return err
	})
	g.Go(func() (err error) {
		r.TopSpenders, err = s.store.TopSpenders(gctx, TopSpendersLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.WithError(err).Error("Analytics report failed", map[string]interface{}{"caller_id": callerID})
		return nil, err
	}

	s.logger.Info("Analytics report built", map[string]interface{}{
		"caller_id":  callerID,
		"claims":     r.Summary.TotalClaims,
		"categories": len(r.ByCategory),
		"spenders":   len(r.TopSpenders),
	})
	return &r, nil
}
