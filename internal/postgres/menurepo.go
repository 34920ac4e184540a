package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/ordering/internal/core"
	"github.com/appetiteclub/ordering/internal/menu"
)

type RestaurantRepo struct{ s *Store }
type CategoryRepo struct{ s *Store }
type MenuItemRepo struct{ s *Store }
type VariantRepo struct{ s *Store }

func (r *RestaurantRepo) Get(ctx context.Context, id uuid.UUID) (*menu.Restaurant, error) {
	var rest menu.Restaurant
	err := r.s.q(ctx).QueryRow(ctx, `
		SELECT id, name, is_active, created_at, updated_at
		FROM restaurants WHERE id = $1`, id).
		Scan(&rest.ID, &rest.Name, &rest.IsActive, &rest.CreatedAt, &rest.UpdatedAt)
	if err != nil {
		return nil, notFoundOr(err, "restaurant", id, "cannot get restaurant")
	}
	return &rest, nil
}

func (r *RestaurantRepo) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.s.q(ctx).Query(ctx, `SELECT id FROM restaurants WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, core.Storage("cannot list restaurants", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, core.Storage("cannot scan restaurants", err)
	}
	return ids, nil
}

func (r *CategoryRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]menu.Category, error) {
	rows, err := r.s.q(ctx).Query(ctx, `
		SELECT id, restaurant_id, name, sort_order, is_active
		FROM categories WHERE restaurant_id = $1
		ORDER BY sort_order, id`, restaurantID)
	if err != nil {
		return nil, core.Storage("cannot list categories", err)
	}
	defer rows.Close()

	var out []menu.Category
	for rows.Next() {
		var c menu.Category
		if err := rows.Scan(&c.ID, &c.RestaurantID, &c.Name, &c.SortOrder, &c.IsActive); err != nil {
			return nil, core.Storage("cannot scan category", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Storage("cannot list categories", err)
	}
	return out, nil
}

const menuItemColumns = `id, restaurant_id, category_id, name, description, prep_time_minutes,
	sort_order, is_available, is_active, created_at, updated_at`

func scanMenuItem(row pgx.Row) (*menu.MenuItem, error) {
	var m menu.MenuItem
	err := row.Scan(&m.ID, &m.RestaurantID, &m.CategoryID, &m.Name, &m.Description, &m.PrepTimeMinutes,
		&m.SortOrder, &m.IsAvailable, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MenuItemRepo) Get(ctx context.Context, id uuid.UUID) (*menu.MenuItem, error) {
	m, err := scanMenuItem(r.s.q(ctx).QueryRow(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "menu item", id, "cannot get menu item")
	}
	return m, nil
}

func (r *MenuItemRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*menu.MenuItem, error) {
	m, err := scanMenuItem(r.s.q(ctx).QueryRow(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFoundOr(err, "menu item", id, "cannot lock menu item")
	}
	return m, nil
}

func (r *MenuItemRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]menu.MenuItem, error) {
	rows, err := r.s.q(ctx).Query(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE restaurant_id = $1 ORDER BY sort_order, id`, restaurantID)
	if err != nil {
		return nil, core.Storage("cannot list menu items", err)
	}
	defer rows.Close()

	var out []menu.MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, core.Storage("cannot scan menu item", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Storage("cannot list menu items", err)
	}
	return out, nil
}

func (r *MenuItemRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	tag, err := r.s.q(ctx).Exec(ctx,
		`UPDATE menu_items SET is_available = $2, updated_at = now() WHERE id = $1`, id, available)
	if err != nil {
		return core.Storage("cannot update menu item availability", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound("menu item", id)
	}
	return nil
}

const variantColumns = `id, menu_item_id, label, price, sort_order, is_available, is_default, created_at, updated_at`

func scanVariant(row pgx.Row) (*menu.Variant, error) {
	var (
		v     menu.Variant
		price pgtype.Numeric
	)
	err := row.Scan(&v.ID, &v.MenuItemID, &v.Label, &price, &v.SortOrder, &v.IsAvailable, &v.IsDefault,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.Price = fromNumeric(price)
	return &v, nil
}

func (r *VariantRepo) Get(ctx context.Context, id uuid.UUID) (*menu.Variant, error) {
	v, err := scanVariant(r.s.q(ctx).QueryRow(ctx,
		`SELECT `+variantColumns+` FROM menu_item_variants WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "variant", id, "cannot get variant")
	}
	return v, nil
}

func (r *VariantRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*menu.Variant, error) {
	v, err := scanVariant(r.s.q(ctx).QueryRow(ctx,
		`SELECT `+variantColumns+` FROM menu_item_variants WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFoundOr(err, "variant", id, "cannot lock variant")
	}
	return v, nil
}

func (r *VariantRepo) ListByMenuItems(ctx context.Context, menuItemIDs []uuid.UUID) ([]menu.Variant, error) {
	if len(menuItemIDs) == 0 {
		return nil, nil
	}
	rows, err := r.s.q(ctx).Query(ctx,
		`SELECT `+variantColumns+` FROM menu_item_variants
		WHERE menu_item_id = ANY($1::uuid[]) ORDER BY menu_item_id, sort_order, price`, uuidStrings(menuItemIDs))
	if err != nil {
		return nil, core.Storage("cannot list variants", err)
	}
	defer rows.Close()

	var out []menu.Variant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, core.Storage("cannot scan variant", err)
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Storage("cannot list variants", err)
	}
	return out, nil
}

func (r *VariantRepo) ClearDefault(ctx context.Context, menuItemID uuid.UUID) error {
	_, err := r.s.q(ctx).Exec(ctx, `
		UPDATE menu_item_variants SET is_default = false, updated_at = now()
		WHERE menu_item_id = $1 AND is_default`, menuItemID)
	if err != nil {
		return core.Storage("cannot clear default variant", err)
	}
	return nil
}

// SetDefault relies on the partial unique index: a concurrent default on
// the same item surfaces as core.ErrConflict.
func (r *VariantRepo) SetDefault(ctx context.Context, id uuid.UUID) error {
	tag, err := r.s.q(ctx).Exec(ctx,
		`UPDATE menu_item_variants SET is_default = true, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return core.Storage("cannot set default variant", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound("variant", id)
	}
	return nil
}

func (r *VariantRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	tag, err := r.s.q(ctx).Exec(ctx,
		`UPDATE menu_item_variants SET is_available = $2, updated_at = now() WHERE id = $1`, id, available)
	if err != nil {
		return core.Storage("cannot update variant availability", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound("variant", id)
	}
	return nil
}

func (r *VariantRepo) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error {
	tag, err := r.s.q(ctx).Exec(ctx,
		`UPDATE menu_item_variants SET price = $2, updated_at = now() WHERE id = $1`, id, toNumeric(price))
	if err != nil {
		return core.Storage("cannot update variant price", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound("variant", id)
	}
	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
