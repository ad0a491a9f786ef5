package services

import (
	"duobudget/internal/budget"
	"duobudget/internal/logger"
	"duobudget/internal/models"
)

// RolloverOutcome is the result of closing one child's month.
type RolloverOutcome struct {
	UserID   uint
	Rollover *Rollover
	Err      error
}

// RolloverChildren rolls from into the following month for one child, or for
// every active child when userID is nil. A failing child is reported in its
// outcome and does not stop the others; only listing children can fail the
// whole run.
func RolloverChildren(users UserServicer, budgets ChildBudgetServicer, userID *uint, from budget.Period) ([]RolloverOutcome, error) {
	var ids []uint
	if userID != nil {
		ids = []uint{*userID}
	} else {
		role := models.RoleChild
		children, err := users.ListUsers(&role)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			ids = append(ids, child.ID)
		}
	}

	log := logger.Get()
	outcomes := make([]RolloverOutcome, 0, len(ids))
	for _, id := range ids {
		rollover, err := budgets.RolloverCarryover(id, from)
		if err != nil {
			log.Warnw("carryover rollover failed", "user_id", id, "from", from.String(), "error", err)
			outcomes = append(outcomes, RolloverOutcome{UserID: id, Err: err})
			continue
		}
		log.Infow("carryover rolled over",
			"user_id", id, "from", from.String(), "to", rollover.To.String(), "amount", rollover.Amount.String())
		outcomes = append(outcomes, RolloverOutcome{UserID: id, Rollover: rollover})
	}
	return outcomes, nil
}
