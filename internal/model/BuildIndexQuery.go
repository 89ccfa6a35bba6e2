package model

import (
	"fmt"

	"github.com/Masterminds/squirrel"

	"TabQueryAPI/internal/filter"
)

// BuildIndexQuery строит SELECT-запрос для /index эндпоинта
func (m *Model) BuildIndexQuery(opts *filter.FindOptions) (squirrel.SelectBuilder, error) {
	sb := squirrel.SelectBuilder{}.PlaceholderFormat(squirrel.Dollar)

	// 1. SELECT
	columns, err := m.selectColumns(opts.Select)
	if err != nil {
		return sb, err
	}
	sb = sb.Columns(columns...)

	// 2. FROM
	sb = sb.From(fmt.Sprintf("%s AS main", m.Table))

	// 3. WHERE
	wherePart, err := m.buildWhereClause(opts.Where)
	if err != nil {
		return sb, err
	}
	if wherePart != nil {
		sb = sb.Where(wherePart)
	}

	// 4. cursor
	cursorPart, err := m.buildCursorClause(opts.Cursor, opts.OrderBy)
	if err != nil {
		return sb, err
	}
	if cursorPart != nil {
		sb = sb.Where(cursorPart)
	}

	// 5. ORDER BY
	orderBy, err := m.buildOrderClauses(opts.OrderBy)
	if err != nil {
		return sb, err
	}
	if len(orderBy) > 0 {
		sb = sb.OrderBy(orderBy...)
	}

	// 6. пагинация
	if opts.Skip > 0 {
		sb = sb.Offset(uint64(opts.Skip))
	}
	if limit := m.EffectiveLimit(opts.Take); limit > 0 {
		sb = sb.Limit(uint64(limit))
	}
	return sb, nil
}

// DefaultMaxLimit caps models without max_limit. 0 disables the cap.
var DefaultMaxLimit int

// EffectiveLimit applies max_limit to the requested take. 0 means no LIMIT;
// a zero or missing take counts as not limited.
func (m *Model) EffectiveLimit(take *int) int {
	limit := 0
	if take != nil && *take > 0 {
		limit = *take
	}
	maxLimit := m.MaxLimit
	if maxLimit == 0 {
		maxLimit = DefaultMaxLimit
	}
	if maxLimit > 0 && (limit == 0 || limit > maxLimit) {
		limit = maxLimit
	}
	return limit
}

// selectColumns takes the top level non-relation leaves of select; without
// any, every column of the table is returned.
func (m *Model) selectColumns(sel *filter.Tree) ([]string, error) {
	if sel == nil {
		return []string{"main.*"}, nil
	}
	var cols []string
	for _, key := range sel.Keys() {
		child, _ := sel.Child(key)
		if !child.IsLeaf() || m.GetRelation(key) != nil {
			continue
		}
		col, err := column("main", key)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		return []string{"main.*"}, nil
	}
	return cols, nil
}

// buildCursorClause starts the page at the cursor row: >= for ascending,
// <= for descending order of the cursor column.
func (m *Model) buildCursorClause(cursor *filter.Tree, orderBy []*filter.Tree) (squirrel.Sqlizer, error) {
	if cursor == nil || cursor.Len() == 0 {
		return nil, nil
	}
	var (
		path []string
		node = cursor
	)
	for !node.IsLeaf() {
		keys := node.Keys()
		if len(keys) != 1 {
			return nil, unsupported("cursor must reference exactly one field")
		}
		path = append(path, keys[0])
		node, _ = node.Child(keys[0])
	}
	if len(path) != 1 {
		return nil, unsupported("cursor on relation field %v is not supported", path)
	}
	if m.GetRelation(path[0]) != nil {
		return nil, unsupported("cursor field %s is a relation", path[0])
	}
	col, err := column("main", path[0])
	if err != nil {
		return nil, err
	}
	value := sqlValue(filter.NumericIfPossible(node.Value()))
	if cursorDirection(orderBy, path) == filter.Desc {
		return squirrel.LtOrEq{col: value}, nil
	}
	return squirrel.GtOrEq{col: value}, nil
}
