package model

import (
	"fmt"

	"github.com/Masterminds/squirrel"

	"TabQueryAPI/internal/filter"
)

// BuildCountQuery counts the rows matching where; pagination, cursor and
// order do not apply.
func (m *Model) BuildCountQuery(opts *filter.FindOptions) (squirrel.SelectBuilder, error) {
	sb := squirrel.SelectBuilder{}.PlaceholderFormat(squirrel.Dollar)
	sb = sb.Column("COUNT(*)").From(fmt.Sprintf("%s AS main", m.Table))

	wherePart, err := m.buildWhereClause(opts.Where)
	if err != nil {
		return sb, err
	}
	if wherePart != nil {
		sb = sb.Where(wherePart)
	}
	return sb, nil
}
