package orderstatus

import (
	"fmt"
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	parts := strings.Split(s.Name, "_")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

func (s Status) String() string {
	return s.Name
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.Name), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	found := ByName(string(text))
	if found == nil {
		return fmt.Errorf("unknown order status %q", string(text))
	}
	*s = *found
	return nil
}

func (s Status) IsZero() bool {
	return s.Name == ""
}

// IsTerminal reports whether no further transition can leave this status.
func (s Status) IsTerminal() bool {
	return s == Statuses.Served || s == Statuses.Cancelled
}

// IsActive reports whether an order in this status counts against kitchen load.
func (s Status) IsActive() bool {
	return s == Statuses.Pending || s == Statuses.Confirmed || s == Statuses.Preparing
}

type Enum struct {
	Pending   Status
	Confirmed Status
	Preparing Status
	Ready     Status
	Served    Status
	Cancelled Status
}

var Statuses = Enum{
	Pending:   Status{Name: "pending"},
	Confirmed: Status{Name: "confirmed"},
	Preparing: Status{Name: "preparing"},
	Ready:     Status{Name: "ready"},
	Served:    Status{Name: "served"},
	Cancelled: Status{Name: "cancelled"},
}

var All = []Status{
	Statuses.Pending,
	Statuses.Confirmed,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.Served,
	Statuses.Cancelled,
}

// Forward is the fulfilment chain, in order.
var Forward = []Status{
	Statuses.Pending,
	Statuses.Confirmed,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.Served,
}

var Active = []Status{
	Statuses.Pending,
	Statuses.Confirmed,
	Statuses.Preparing,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}

// Next returns the immediate successor in the forward chain.
func (s Status) Next() (Status, bool) {
	for i, f := range Forward {
		if f == s && i+1 < len(Forward) {
			return Forward[i+1], true
		}
	}
	return Status{}, false
}

func Names(statuses []Status) []string {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.Name)
	}
	return names
}
