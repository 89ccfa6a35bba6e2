package model

import (
	"fmt"

	"github.com/Masterminds/squirrel"

	"TabQueryAPI/internal/filter"
)

// BuildRelatedQuery selects the rows of m whose column col holds one of ids.
// Used to load relation tails; rows come in the model's default order.
func (m *Model) BuildRelatedQuery(col string, ids []any) (squirrel.SelectBuilder, error) {
	sb := squirrel.SelectBuilder{}.PlaceholderFormat(squirrel.Dollar)
	sb = sb.Column("main.*").From(fmt.Sprintf("%s AS main", m.Table))

	c, err := column("main", col)
	if err != nil {
		return sb, err
	}
	sb = sb.Where(squirrel.Eq{c: sqlValue(ids)})

	if g := m.Generator(); g != nil {
		opts, err := g.Generate(filter.Request{})
		if err != nil {
			return sb, err
		}
		orderBy, err := m.buildOrderClauses(opts.OrderBy)
		if err != nil {
			return sb, err
		}
		if len(orderBy) > 0 {
			sb = sb.OrderBy(orderBy...)
		}
	}
	return sb, nil
}

// KeyColumns returns the owner column and the related column that link
// rows of the relation.
func (r *ModelRelation) KeyColumns() (ownerCol, relatedCol string) {
	if r.Type == BelongsTo {
		return r.FK, r.PK
	}
	return r.PK, r.FK
}
