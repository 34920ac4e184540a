package customers

import (
	"context"
	"errors"
	"testing"

	"github.com/appetiteclub/ordering/internal/core"
)

type mockRepo struct {
	customers map[string]*Customer
	err       error
}

func (m *mockRepo) Get(ctx context.Context, id string) (*Customer, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.customers[id]
	if !ok {
		return nil, core.NotFound("customer", id)
	}
	return c, nil
}

func TestEnsureActive(t *testing.T) {
	repo := &mockRepo{customers: map[string]*Customer{
		"tg:1": {ID: "tg:1", DisplayName: "Ana", IsActive: true},
		"tg:2": {ID: "tg:2", DisplayName: "Ben", IsActive: false},
	}}

	tests := []struct {
		name    string
		id      string
		err     error
		wantErr error
	}{
		{name: "active", id: "tg:1"},
		{name: "inactive", id: "tg:2", wantErr: core.ErrNotFound},
		{name: "unknown", id: "tg:3", wantErr: core.ErrNotFound},
		{name: "storageFailure", id: "tg:1", err: errors.New("timeout"), wantErr: core.ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo.err = tt.err

			c, err := EnsureActive(context.Background(), repo, tt.id)
			if tt.wantErr == nil {
				if err != nil || c == nil || c.ID != tt.id {
					t.Errorf("EnsureActive() = %v, %v", c, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("EnsureActive() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
