package order

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/ordering/pkg/enums/orderstatus"
)

func TestFilterMatch(t *testing.T) {
	tableID := uuid.New()
	created := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	o := &Order{
		ID:        uuid.New(),
		TableID:   tableID,
		Status:    orderstatus.Statuses.Preparing,
		CreatedAt: created,
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"zeroValueMatchesAll", Filter{}, true},
		{"statusIn", Filter{}.With(StatusIn{Statuses: orderstatus.Active}), true},
		{"statusNotIn", Filter{}.With(StatusIn{Statuses: []orderstatus.Status{orderstatus.Statuses.Served}}), false},
		{"emptyStatusList", Filter{}.With(StatusIn{}), false},
		{"tableIs", Filter{}.With(TableIs{TableID: tableID}), true},
		{"otherTable", Filter{}.With(TableIs{TableID: uuid.New()}), false},
		{"createdSinceInclusive", Filter{}.With(CreatedSince{Time: created}), true},
		{"createdSinceLater", Filter{}.With(CreatedSince{Time: created.Add(time.Second)}), false},
		{"createdBeforeExclusive", Filter{}.With(CreatedBefore{Time: created}), false},
		{"createdBeforeLater", Filter{}.With(CreatedBefore{Time: created.Add(time.Hour)}), true},
		{
			"conjunction",
			Filter{}.With(TableIs{TableID: tableID}).With(StatusIn{Statuses: []orderstatus.Status{orderstatus.Statuses.Pending}}),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(o); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterWithDoesNotAlias(t *testing.T) {
	base := Filter{}.With(TableIs{TableID: uuid.New()})
	a := base.With(StatusIn{})
	b := base.With(CreatedSince{})

	if len(base.Predicates) != 1 {
		t.Fatalf("base filter grew to %d predicates", len(base.Predicates))
	}
	if _, ok := a.Predicates[1].(StatusIn); !ok {
		t.Errorf("a.Predicates[1] = %T, want StatusIn", a.Predicates[1])
	}
	if _, ok := b.Predicates[1].(CreatedSince); !ok {
		t.Errorf("b.Predicates[1] = %T, want CreatedSince", b.Predicates[1])
	}
}

func TestQuerySettingsNormalize(t *testing.T) {
	q := DefaultQuerySettings()

	tests := []struct {
		name string
		in   Page
		want Page
	}{
		{"defaults", Page{}, Page{Number: 1, Limit: 20}},
		{"keepsValid", Page{Number: 3, Limit: 10}, Page{Number: 3, Limit: 10}},
		{"capsLimit", Page{Number: 1, Limit: 500}, Page{Number: 1, Limit: 100}},
		{"negativePage", Page{Number: -2, Limit: 5}, Page{Number: 1, Limit: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := q.Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPageOffset(t *testing.T) {
	tests := []struct {
		page Page
		want int
	}{
		{Page{Number: 1, Limit: 20}, 0},
		{Page{Number: 2, Limit: 20}, 20},
		{Page{Number: 4, Limit: 5}, 15},
		{Page{Number: 0, Limit: 5}, 0},
	}

	for _, tt := range tests {
		if got := tt.page.Offset(); got != tt.want {
			t.Errorf("%+v.Offset() = %d, want %d", tt.page, got, tt.want)
		}
	}
}
