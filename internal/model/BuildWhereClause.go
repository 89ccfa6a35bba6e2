package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/Masterminds/squirrel"

	"TabQueryAPI/internal/filter"
)

// ErrUnsupportedQuery marks find options the SQL layer cannot render
// (unknown columns syntax, to-many ordering, misplaced list operators).
var ErrUnsupportedQuery = errors.New("unsupported query")

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// list operators of has_many relations
const (
	relSome  = "some"
	relEvery = "every"
	relNone  = "none"
	relIs    = "is"
	relIsNot = "isNot"
)

type whereScope struct {
	seq int
}

// nextAlias returns a fresh alias for an EXISTS subquery.
func (s *whereScope) nextAlias() string {
	s.seq++
	return fmt.Sprintf("r%d", s.seq)
}

func unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedQuery, fmt.Sprintf(format, args...))
}

// column validates name and qualifies it with alias.
func column(alias, name string) (string, error) {
	if !identRe.MatchString(name) {
		return "", unsupported("invalid column name %q", name)
	}
	return alias + "." + name, nil
}

// buildWhereClause renders a where tree against the "main" alias.
// Relation keys become EXISTS subqueries, column keys operator predicates.
func (m *Model) buildWhereClause(where *filter.Tree) (squirrel.Sqlizer, error) {
	if where == nil || where.Len() == 0 {
		return nil, nil
	}
	return m.whereNode(where, "main", &whereScope{})
}

func (m *Model) whereNode(node *filter.Tree, alias string, scope *whereScope) (squirrel.Sqlizer, error) {
	if node.IsLeaf() {
		return nil, unsupported("expected an object in where clause, got %v", node.Value())
	}
	var exprs squirrel.And
	for _, key := range node.Keys() {
		child, _ := node.Child(key)
		if rel := m.GetRelation(key); rel != nil {
			expr, err := m.relationPredicate(key, rel, child, alias, scope)
			if err != nil {
				return nil, err
			}
			if expr != nil {
				exprs = append(exprs, expr)
			}
			continue
		}
		col, err := column(alias, key)
		if err != nil {
			return nil, err
		}
		if child.IsLeaf() {
			return nil, unsupported("%s needs an operator object", key)
		}
		expr, err := columnPredicate(col, child)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	if len(exprs) == 0 {
		return nil, nil
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return exprs, nil
}

// relationPredicate maps a relation node onto EXISTS subqueries.
// has_many nodes take some/every/none, to-one nodes take is/isNot.
func (m *Model) relationPredicate(name string, rel *ModelRelation, node *filter.Tree, ownerAlias string, scope *whereScope) (squirrel.Sqlizer, error) {
	if node.IsLeaf() {
		return nil, unsupported("relation %s needs a filter object", name)
	}
	target := rel.GetModelRef()
	var exprs squirrel.And

	// fields placed directly under the relation match like "some" / "is"
	direct := filter.NewTree()
	for _, key := range node.Keys() {
		inner, _ := node.Child(key)
		var (
			expr squirrel.Sqlizer
			err  error
		)
		switch {
		case rel.IsToMany() && key == relSome, !rel.IsToMany() && key == relIs:
			expr, err = m.exists(rel, target, inner, ownerAlias, scope, false, false)
		case rel.IsToMany() && key == relNone, !rel.IsToMany() && key == relIsNot:
			expr, err = m.exists(rel, target, inner, ownerAlias, scope, true, false)
		case rel.IsToMany() && key == relEvery:
			expr, err = m.exists(rel, target, inner, ownerAlias, scope, true, true)
		default:
			direct.Attach(key, inner)
			continue
		}
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	if direct.Len() > 0 {
		expr, err := m.exists(rel, target, direct, ownerAlias, scope, false, false)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}

	switch len(exprs) {
	case 0:
		return nil, nil
	case 1:
		return exprs[0], nil
	}
	return exprs, nil
}

// exists renders [NOT] EXISTS (SELECT 1 FROM target WHERE join AND [NOT] inner).
// every is "no related row fails the filter".
func (m *Model) exists(rel *ModelRelation, target *Model, inner *filter.Tree, ownerAlias string, scope *whereScope, negate, negateInner bool) (squirrel.Sqlizer, error) {
	alias := scope.nextAlias()
	sub := squirrel.Select("1").From(fmt.Sprintf("%s AS %s", target.Table, alias)).Where(joinCondition(rel, ownerAlias, alias))

	if inner != nil && !inner.IsLeaf() && inner.Len() > 0 {
		cond, err := target.whereNode(inner, alias, scope)
		if err != nil {
			return nil, err
		}
		if cond != nil {
			if negateInner {
				sql, args, err := cond.ToSql()
				if err != nil {
					return nil, err
				}
				cond = squirrel.Expr("NOT ("+sql+")", args...)
			}
			sub = sub.Where(cond)
		}
	} else if inner != nil && inner.IsLeaf() && inner.Value() != nil {
		return nil, unsupported("relation filter needs an object, got %v", inner.Value())
	}

	sql, args, err := sub.ToSql()
	if err != nil {
		return nil, err
	}
	if negate {
		return squirrel.Expr("NOT EXISTS ("+sql+")", args...), nil
	}
	return squirrel.Expr("EXISTS ("+sql+")", args...), nil
}

// joinCondition links a related row to its owner.
func joinCondition(rel *ModelRelation, ownerAlias, alias string) string {
	if rel.Type == BelongsTo {
		return fmt.Sprintf("%s.%s = %s.%s", alias, rel.PK, ownerAlias, rel.FK)
	}
	return fmt.Sprintf("%s.%s = %s.%s", alias, rel.FK, ownerAlias, rel.PK)
}

// columnPredicate renders one operator object of a column.
func columnPredicate(col string, ops *filter.Tree) (squirrel.Sqlizer, error) {
	insensitive := false
	if mode, ok := ops.Child(filter.KeyMode); ok && mode.IsLeaf() {
		insensitive = mode.Value() == filter.ModeInsensitive
	}

	var exprs squirrel.And
	for _, key := range ops.Keys() {
		if key == filter.KeyMode {
			continue
		}
		node, _ := ops.Child(key)
		if !node.IsLeaf() {
			return nil, unsupported("%s.%s must hold a value", col, key)
		}
		expr, err := operatorPredicate(col, key, sqlValue(node.Value()), insensitive)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return exprs, nil
}

func operatorPredicate(col, key string, v any, insensitive bool) (squirrel.Sqlizer, error) {
	switch key {
	case filter.KeyEquals:
		if s, ok := v.(string); ok && insensitive {
			return squirrel.Expr("LOWER("+col+") = LOWER(?)", s), nil
		}
		return squirrel.Eq{col: v}, nil
	case filter.KeyNot:
		return squirrel.NotEq{col: v}, nil
	case filter.KeyLt:
		return squirrel.Lt{col: v}, nil
	case filter.KeyLte:
		return squirrel.LtOrEq{col: v}, nil
	case filter.KeyGt:
		return squirrel.Gt{col: v}, nil
	case filter.KeyGte:
		return squirrel.GtOrEq{col: v}, nil
	case filter.KeyContains, filter.KeyStartsWith, filter.KeyEndsWith:
		s, ok := v.(string)
		if !ok {
			return nil, unsupported("%s of %s needs a string", key, col)
		}
		pattern := likePattern(key, s)
		if insensitive {
			return squirrel.ILike{col: pattern}, nil
		}
		return squirrel.Like{col: pattern}, nil
	case filter.KeySearch:
		return squirrel.Expr("to_tsvector('simple', "+col+"::text) @@ plainto_tsquery('simple', ?)", fmt.Sprint(v)), nil
	case filter.KeyIn:
		return squirrel.Eq{col: v}, nil
	case filter.KeyNotIn:
		return squirrel.NotEq{col: v}, nil
	case filter.KeyHas:
		return squirrel.Expr("?::text = ANY("+col+"::text[])", textValue(v)), nil
	case filter.KeyHasSome:
		return squirrel.Expr(col+"::text[] && ?::text[]", textArray(v)), nil
	case filter.KeyHasEvery:
		return squirrel.Expr(col+"::text[] @> ?::text[]", textArray(v)), nil
	case filter.KeyArrayContains:
		doc, err := jsonValue(v)
		if err != nil {
			return nil, err
		}
		return squirrel.Expr(col+"::jsonb @> ?::jsonb", doc), nil
	case filter.KeyArrayStartsWith, filter.KeyArrayEndsWith:
		doc, err := jsonValue(v)
		if err != nil {
			return nil, err
		}
		idx := "0"
		if key == filter.KeyArrayEndsWith {
			idx = "-1"
		}
		return squirrel.Expr("("+col+"::jsonb -> "+idx+") = ?::jsonb", doc), nil
	}
	return nil, unsupported("operator %s is not supported", key)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(key, s string) string {
	s = likeEscaper.Replace(s)
	switch key {
	case filter.KeyStartsWith:
		return s + "%"
	case filter.KeyEndsWith:
		return "%" + s
	}
	return "%" + s + "%"
}

// sqlValue turns whole floats into int64 so they bind to integer columns.
func sqlValue(v any) any {
	switch x := v.(type) {
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = sqlValue(item)
		}
		return out
	}
	return v
}

func textValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func textArray(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{textValue(v)}
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = textValue(item)
	}
	return out
}

func jsonValue(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
