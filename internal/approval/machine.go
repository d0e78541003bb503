package approval

import (
	"strconv"

	apperrors "expense-approvals/internal/common/errors"
	"expense-approvals/internal/models"
)

// step is one row of the approval chain.
type step struct {
	level          int
	role           models.Role
	validStatus    models.StatusID
	approvedStatus models.StatusID
	nextLevel      int
}

var chain = map[int]step{
	models.LevelManager: {
		level:          models.LevelManager,
		role:           models.RoleManager,
		validStatus:    models.StatusPending,
		approvedStatus: models.StatusManagerApproved,
		nextLevel:      models.LevelAccountant,
	},
	models.LevelAccountant: {
		level:          models.LevelAccountant,
		role:           models.RoleAccountant,
		validStatus:    models.StatusManagerApproved,
		approvedStatus: models.StatusAccountantApproved,
		nextLevel:      models.LevelAdmin,
	},
	models.LevelAdmin: {
		level:          models.LevelAdmin,
		role:           models.RoleAdmin,
		validStatus:    models.StatusAccountantApproved,
		approvedStatus: models.StatusFullyApproved,
		nextLevel:      models.LevelTerminal,
	},
}

func stepFor(level int) (step, bool) {
	s, ok := chain[level]
	return s, ok
}

// guard checks that claim sits exactly at this step. Terminal claims are
// reported as INVALID_STATE whatever level the caller expected.
func (s step) guard(claim *models.Claim) error {
	if claim.StatusID.IsTerminal() || claim.CurrentLevel == models.LevelTerminal {
		return apperrors.NewInvalidStateError("claim " + claim.ID + " is already " + claim.StatusID.String())
	}
	if claim.CurrentLevel != s.level {
		return apperrors.NewSequenceError(s.level, claim.CurrentLevel)
	}
	if claim.StatusID != s.validStatus {
		return apperrors.NewInvalidStateError("claim " + claim.ID + " is " + claim.StatusID.String() +
			" but level " + strconv.Itoa(s.level) + " requires " + s.validStatus.String())
	}
	return nil
}

// next returns the status, level and notification kind reached by decision.
func (s step) next(decision models.Decision) (models.StatusID, int, models.NotificationType) {
	if decision == models.DecisionRejected {
		return models.StatusRejected, models.LevelTerminal, models.NotificationRejected
	}
	if s.nextLevel == models.LevelTerminal {
		return s.approvedStatus, models.LevelTerminal, models.NotificationFullyApproved
	}
	return s.approvedStatus, s.nextLevel, models.NotificationApproved
}

// Consistent reports whether the claim's status and level denote a single
// point of the approval chain.
func Consistent(claim models.Claim) bool {
	if claim.CurrentLevel == models.LevelTerminal {
		return claim.StatusID.IsTerminal()
	}
	s, ok := stepFor(claim.CurrentLevel)
	return ok && claim.StatusID == s.validStatus
}
