package memory

import (
	"context"
	"sort"

	"expense-approvals/internal/models"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Analytics
// -----------------------------------------------------------------------------

func (s *Store) Summary(_ context.Context) (*models.ClaimSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := models.ClaimSummary{TotalAmount: decimal.Zero}
	for _, c := range s.claims {
		out.TotalClaims++
		out.TotalAmount = out.TotalAmount.Add(c.Amount)
		switch c.StatusID {
		case models.StatusPending:
			out.Pending++
		case models.StatusFullyApproved:
			out.FullyApproved++
		}
	}
	return &out, nil
}

func (s *Store) ClaimsByCategory(_ context.Context) ([]models.CategoryTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byCategory := make(map[string]*models.CategoryTotal)
	for _, c := range s.claims {
		ct, ok := byCategory[c.Category]
		if !ok {
			ct = &models.CategoryTotal{Category: c.Category, Total: decimal.Zero}
			byCategory[c.Category] = ct
		}
		ct.Count++
		ct.Total = ct.Total.Add(c.Amount)
	}
	out := make([]models.CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (s *Store) ClaimsByStatus(_ context.Context) ([]models.StatusCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.StatusID]int)
	for _, c := range s.claims {
		counts[c.StatusID]++
	}
	catalog := models.StatusCatalog()
	out := make([]models.StatusCount, 0, len(catalog))
	for _, st := range catalog {
		out = append(out, models.StatusCount{StatusID: st.ID, Name: st.Name, ColorCode: st.ColorCode, Count: counts[st.ID]})
	}
	return out, nil
}

func (s *Store) ApprovalTimes(_ context.Context) ([]models.ApprovalTime, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ApprovalTime
	for claimID, records := range s.approvals {
		claim, ok := s.claims[claimID]
		if !ok || len(records) == 0 {
			continue
		}
		var total float64
		for _, r := range records {
			total += r.ActionTimestamp.Sub(claim.CreatedAt).Minutes()
		}
		out = append(out, models.ApprovalTime{ClaimID: claimID, AverageMinutes: total / float64(len(records))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClaimID < out[j].ClaimID })
	return out, nil
}

func (s *Store) TopSpenders(_ context.Context, limit int) ([]models.Spender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := make(map[string]decimal.Decimal, len(s.users))
	for _, c := range s.claims {
		totals[c.RequesterID] = totals[c.RequesterID].Add(c.Amount)
	}
	out := make([]models.Spender, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, models.Spender{UserID: u.ID, Name: u.Name, Total: totals[u.ID]})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Total.Cmp(out[j].Total); cmp != 0 {
			return cmp > 0
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
