package order

import (
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"

	"github.com/appetiteclub/ordering/internal/core"
	"github.com/appetiteclub/ordering/pkg/enums/orderstatus"
)

// Predicate is one typed condition of an order listing. Stores translate
// each predicate into their own query language.
type Predicate interface {
	Match(o *Order) bool
}

type StatusIn struct {
	Statuses []orderstatus.Status
}

func (p StatusIn) Match(o *Order) bool {
	for _, s := range p.Statuses {
		if o.Status == s {
			return true
		}
	}
	return false
}

type TableIs struct {
	TableID uuid.UUID
}

func (p TableIs) Match(o *Order) bool {
	return o.TableID == p.TableID
}

type CreatedSince struct {
	Time time.Time
}

func (p CreatedSince) Match(o *Order) bool {
	return !o.CreatedAt.Before(p.Time)
}

type CreatedBefore struct {
	Time time.Time
}

func (p CreatedBefore) Match(o *Order) bool {
	return o.CreatedAt.Before(p.Time)
}

// Filter is a conjunction of predicates. The zero value matches everything.
type Filter struct {
	Predicates []Predicate
}

func (f Filter) With(p Predicate) Filter {
	preds := make([]Predicate, 0, len(f.Predicates)+1)
	preds = append(preds, f.Predicates...)
	preds = append(preds, p)
	return Filter{Predicates: preds}
}

func (f Filter) Match(o *Order) bool {
	for _, p := range f.Predicates {
		if !p.Match(o) {
			return false
		}
	}
	return true
}

// Page is 1-indexed.
type Page struct {
	Number int
	Limit  int
}

func (p Page) Offset() int {
	if p.Number <= 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit
}

type QuerySettings struct {
	DefaultLimit int
	MaxLimit     int
}

func DefaultQuerySettings() QuerySettings {
	return QuerySettings{DefaultLimit: 20, MaxLimit: 100}
}

func QuerySettingsFromConfig(config *aqm.Config) QuerySettings {
	def := DefaultQuerySettings()
	return QuerySettings{
		DefaultLimit: core.IntOrDef(config, "query.default_limit", def.DefaultLimit),
		MaxLimit:     core.IntOrDef(config, "query.max_limit", def.MaxLimit),
	}
}

// Normalize fills defaults and caps the limit.
func (q QuerySettings) Normalize(p Page) Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit <= 0 {
		p.Limit = q.DefaultLimit
	}
	if q.MaxLimit > 0 && p.Limit > q.MaxLimit {
		p.Limit = q.MaxLimit
	}
	return p
}
