package order

import (
	"fmt"
	"strings"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"

	"github.com/appetiteclub/ordering/internal/core"
)

type ItemRequest struct {
	MenuItemID uuid.UUID  `json:"menu_item_id"`
	VariantID  uuid.UUID  `json:"variant_id"`
	Quantity   int        `json:"quantity"`
	SpiceLevel SpiceLevel `json:"spice_level,omitempty"`
	Note       string     `json:"note,omitempty"`
}

type CreateOrderRequest struct {
	TableID    uuid.UUID     `json:"table_id"`
	CustomerID string        `json:"customer_id"`
	Items      []ItemRequest `json:"items"`
	Note       string        `json:"note,omitempty"`
}

type TransitionRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// Settings holds the order-creation limits.
type Settings struct {
	MaxItems      int
	MaxQuantity   int
	MaxNoteLength int
	NumberRetries int
	SyncRecompute bool
}

func DefaultSettings() Settings {
	return Settings{
		MaxItems:      20,
		MaxQuantity:   50,
		MaxNoteLength: 500,
		NumberRetries: 5,
	}
}

func SettingsFromConfig(config *aqm.Config) Settings {
	def := DefaultSettings()
	return Settings{
		MaxItems:      core.IntOrDef(config, "order.max_items", def.MaxItems),
		MaxQuantity:   core.IntOrDef(config, "order.max_quantity", def.MaxQuantity),
		MaxNoteLength: core.IntOrDef(config, "order.max_note_length", def.MaxNoteLength),
		NumberRetries: core.IntOrDef(config, "order.number.retries", def.NumberRetries),
		SyncRecompute: core.StringOrDef(config, "kitchen.recompute.mode", "async") == "sync",
	}
}

// Validate reports every problem of the request at once.
func (req CreateOrderRequest) Validate(s Settings) error {
	v := &core.ValidationError{}

	if req.TableID == uuid.Nil {
		v.Add("table_id", "table_id is required")
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		v.Add("customer_id", "customer_id is required")
	}
	if len(req.Note) > s.MaxNoteLength {
		v.Add("note", fmt.Sprintf("note must be at most %d characters", s.MaxNoteLength))
	}

	switch {
	case len(req.Items) == 0:
		v.Add("items", "at least one item is required")
	case len(req.Items) > s.MaxItems:
		v.Add("items", fmt.Sprintf("at most %d items are allowed per order", s.MaxItems))
	}

	for i, it := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		if it.MenuItemID == uuid.Nil {
			v.Add(field+".menu_item_id", "menu_item_id is required")
		}
		if it.VariantID == uuid.Nil {
			v.Add(field+".variant_id", "variant_id is required")
		}
		if it.Quantity < 1 || it.Quantity > s.MaxQuantity {
			v.Add(field+".quantity", fmt.Sprintf("quantity must be between 1 and %d", s.MaxQuantity))
		}
		if !it.SpiceLevel.Valid() {
			v.Add(field+".spice_level", fmt.Sprintf("unknown spice level %q", it.SpiceLevel))
		}
		if len(it.Note) > s.MaxNoteLength {
			v.Add(field+".note", fmt.Sprintf("note must be at most %d characters", s.MaxNoteLength))
		}
	}

	return v.OrNil()
}
