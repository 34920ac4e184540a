package customers

import (
	"context"
	"time"

	"github.com/appetiteclub/ordering/internal/core"
)

// Customer is identified by an opaque external id, such as a messaging
// platform user id.
type Customer struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type Repo interface {
	Get(ctx context.Context, id string) (*Customer, error)
}

func EnsureActive(ctx context.Context, repo Repo, id string) (*Customer, error) {
	c, err := repo.Get(ctx, id)
	if err != nil {
		return nil, core.Storage("cannot load customer", err)
	}
	if !c.IsActive {
		return nil, core.NotFound("customer", id)
	}
	return c, nil
}
