package order

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/ordering/internal/core"
	"github.com/appetiteclub/ordering/pkg/enums/orderstatus"
)

var t0 = time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)

func TestTransitionMatrix(t *testing.T) {
	st := orderstatus.Statuses
	legal := map[orderstatus.Status][]orderstatus.Status{
		st.Pending:   {st.Confirmed, st.Cancelled},
		st.Confirmed: {st.Preparing, st.Cancelled},
		st.Preparing: {st.Ready, st.Cancelled},
		st.Ready:     {st.Served, st.Cancelled},
		st.Served:    {},
		st.Cancelled: {},
	}

	isLegal := func(from, to orderstatus.Status) bool {
		for _, s := range legal[from] {
			if s == to {
				return true
			}
		}
		return false
	}

	for _, from := range orderstatus.All {
		for _, to := range orderstatus.All {
			t.Run(from.Name+"To"+to.Label(), func(t *testing.T) {
				o := &Order{ID: uuid.New(), Status: from}
				err := Transition(o, to, t0)

				if isLegal(from, to) {
					if err != nil {
						t.Fatalf("Transition(%s, %s) error = %v", from, to, err)
					}
					if o.Status != to {
						t.Errorf("Status = %s, want %s", o.Status, to)
					}
					return
				}

				if !errors.Is(err, core.ErrInvalidTransition) {
					t.Fatalf("Transition(%s, %s) error = %v, want invalid transition", from, to, err)
				}
				if o.Status != from {
					t.Errorf("Status changed to %s on a rejected transition", o.Status)
				}
			})
		}
	}
}

func TestTransitionTimestamps(t *testing.T) {
	o := &Order{ID: uuid.New(), Status: orderstatus.Statuses.Pending, CreatedAt: t0}

	steps := []struct {
		to    orderstatus.Status
		at    time.Time
		check func(t *testing.T, o *Order, at time.Time)
	}{
		{
			to: orderstatus.Statuses.Confirmed, at: t0.Add(time.Minute),
			check: func(t *testing.T, o *Order, at time.Time) {
				if o.ConfirmedAt == nil || !o.ConfirmedAt.Equal(at) {
					t.Errorf("ConfirmedAt = %v, want %v", o.ConfirmedAt, at)
				}
			},
		},
		{
			to: orderstatus.Statuses.Preparing, at: t0.Add(3 * time.Minute),
			check: func(t *testing.T, o *Order, at time.Time) {
				if o.ReadyAt != nil || o.ServedAt != nil {
					t.Error("preparing must not stamp ready or served")
				}
			},
		},
		{
			to: orderstatus.Statuses.Ready, at: t0.Add(15 * time.Minute),
			check: func(t *testing.T, o *Order, at time.Time) {
				if o.ReadyAt == nil || !o.ReadyAt.Equal(at) {
					t.Errorf("ReadyAt = %v, want %v", o.ReadyAt, at)
				}
			},
		},
		{
			to: orderstatus.Statuses.Served, at: t0.Add(19*time.Minute + 59*time.Second),
			check: func(t *testing.T, o *Order, at time.Time) {
				if o.ServedAt == nil || !o.ServedAt.Equal(at) {
					t.Errorf("ServedAt = %v, want %v", o.ServedAt, at)
				}
				if o.ActualPrepMinutes == nil || *o.ActualPrepMinutes != 18 {
					t.Errorf("ActualPrepMinutes = %v, want 18 (floored)", o.ActualPrepMinutes)
				}
			},
		},
	}

	for _, step := range steps {
		if err := Transition(o, step.to, step.at); err != nil {
			t.Fatalf("Transition(%s) error = %v", step.to, err)
		}
		step.check(t, o, step.at)
		if !o.UpdatedAt.Equal(step.at) {
			t.Errorf("UpdatedAt = %v, want %v", o.UpdatedAt, step.at)
		}
	}

	if o.CancelledAt != nil {
		t.Error("CancelledAt must stay unset")
	}
}

func TestTransitionServedEighteenMinutesAfterConfirmation(t *testing.T) {
	confirmedAt := t0
	o := &Order{ID: uuid.New(), Status: orderstatus.Statuses.Ready, ConfirmedAt: &confirmedAt}

	if err := Transition(o, orderstatus.Statuses.Served, t0.Add(18*time.Minute)); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if o.ActualPrepMinutes == nil || *o.ActualPrepMinutes != 18 {
		t.Errorf("ActualPrepMinutes = %v, want 18", o.ActualPrepMinutes)
	}
}

func TestTransitionServedWithoutConfirmation(t *testing.T) {
	o := &Order{ID: uuid.New(), Status: orderstatus.Statuses.Ready}

	if err := Transition(o, orderstatus.Statuses.Served, t0); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if o.ActualPrepMinutes != nil {
		t.Errorf("ActualPrepMinutes = %d, want unset", *o.ActualPrepMinutes)
	}
	if o.ServedAt == nil {
		t.Error("ServedAt should be stamped")
	}
}

func TestTransitionCancelled(t *testing.T) {
	confirmedAt := t0
	o := &Order{ID: uuid.New(), Status: orderstatus.Statuses.Preparing, ConfirmedAt: &confirmedAt}

	if err := Transition(o, orderstatus.Statuses.Cancelled, t0.Add(30*time.Minute)); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if o.ActualPrepMinutes != nil {
		t.Error("cancelling must not compute preparation minutes")
	}
	if o.CancelledAt == nil {
		t.Error("CancelledAt should be stamped")
	}
}

func TestTransitionPendingToReadyFails(t *testing.T) {
	o := &Order{ID: uuid.New(), Status: orderstatus.Statuses.Pending}

	err := Transition(o, orderstatus.Statuses.Ready, t0)
	if !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("error = %v, want invalid transition", err)
	}
	if o.ReadyAt != nil {
		t.Error("ReadyAt must not be stamped on a rejected transition")
	}
}
