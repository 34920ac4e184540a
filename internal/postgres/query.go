package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/appetiteclub/ordering/internal/order"
)

// sqlBuilder collects WHERE conditions with positional arguments.
type sqlBuilder struct {
	where []string
	args  []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *sqlBuilder) cond(format string, v any) {
	b.where = append(b.where, fmt.Sprintf(format, b.arg(v)))
}

// orderListQuery translates typed predicates into a parameterised query.
// Values never reach the SQL text.
func orderListQuery(restaurantID uuid.UUID, filter order.Filter, page order.Page) (string, []any, error) {
	b := &sqlBuilder{}
	b.cond("restaurant_id = %s", restaurantID)

	for _, p := range filter.Predicates {
		switch p := p.(type) {
		case order.StatusIn:
			if len(p.Statuses) == 0 {
				b.where = append(b.where, "FALSE")
				continue
			}
			names := make([]string, len(p.Statuses))
			for i, s := range p.Statuses {
				names[i] = s.Code()
			}
			b.cond("status = ANY(%s::text[])", names)
		case order.TableIs:
			b.cond("table_id = %s", p.TableID)
		case order.CreatedSince:
			b.cond("created_at >= %s", p.Time)
		case order.CreatedBefore:
			b.cond("created_at < %s", p.Time)
		default:
			return "", nil, fmt.Errorf("unsupported order predicate %T", p)
		}
	}

	sql := "SELECT " + orderColumns + " FROM orders WHERE " + strings.Join(b.where, " AND ") +
		" ORDER BY created_at DESC, id"
	if page.Limit > 0 {
		sql += " LIMIT " + b.arg(page.Limit) + " OFFSET " + b.arg(page.Offset())
	}
	return sql, b.args, nil
}
