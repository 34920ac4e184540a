package order

import (
	"fmt"
	"time"

	"github.com/appetiteclub/ordering/internal/core"
	"github.com/appetiteclub/ordering/pkg/enums/orderstatus"
)

// CanTransition allows a move to the immediate forward successor, or to
// cancelled from any non-terminal status.
func CanTransition(from, to orderstatus.Status) bool {
	if from.IsTerminal() {
		return false
	}
	if to == orderstatus.Statuses.Cancelled {
		return true
	}
	next, ok := from.Next()
	return ok && next == to
}

// Transition moves o to status to and stamps the timestamp that belongs to
// the new status. Serving an order that was confirmed computes its actual
// preparation minutes; without a confirmation time they stay unset.
func Transition(o *Order, to orderstatus.Status, now time.Time) error {
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("order %s from %s to %s: %w", o.ID, o.Status, to, core.ErrInvalidTransition)
	}

	at := now
	switch to {
	case orderstatus.Statuses.Confirmed:
		o.ConfirmedAt = &at
	case orderstatus.Statuses.Ready:
		o.ReadyAt = &at
	case orderstatus.Statuses.Served:
		o.ServedAt = &at
		o.ActualPrepMinutes = nil
		if o.ConfirmedAt != nil {
			minutes := int(at.Sub(*o.ConfirmedAt) / time.Minute)
			if minutes < 0 {
				minutes = 0
			}
			o.ActualPrepMinutes = &minutes
		}
	case orderstatus.Statuses.Cancelled:
		o.CancelledAt = &at
	}

	o.Status = to
	o.BeforeUpdate(now)
	return nil
}
