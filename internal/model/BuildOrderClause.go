package model

import (
	"fmt"
	"strings"

	"TabQueryAPI/internal/filter"
)

type orderTerm struct {
	expr string
	dir  filter.Direction
}

// buildOrderClauses renders orderBy rows as ORDER BY expressions. To-one
// relations become scalar subqueries; to-many relations cannot be ordered by.
func (m *Model) buildOrderClauses(rows []*filter.Tree) ([]string, error) {
	seq := 0
	var out []string
	for _, row := range rows {
		terms, err := m.orderTerms(row, "main", &seq)
		if err != nil {
			return nil, err
		}
		for _, t := range terms {
			out = append(out, fmt.Sprintf("%s %s", t.expr, strings.ToUpper(string(t.dir))))
		}
	}
	return out, nil
}

func (m *Model) orderTerms(node *filter.Tree, alias string, seq *int) ([]orderTerm, error) {
	var terms []orderTerm
	for _, key := range node.Keys() {
		child, _ := node.Child(key)

		if rel := m.GetRelation(key); rel != nil {
			if rel.IsToMany() {
				return nil, unsupported("cannot order by to-many relation %s", key)
			}
			if child.IsLeaf() {
				return nil, unsupported("order by relation %s needs a field", key)
			}
			*seq++
			sub := fmt.Sprintf("o%d", *seq)
			target := rel.GetModelRef()
			inner, err := target.orderTerms(child, sub, seq)
			if err != nil {
				return nil, err
			}
			for _, t := range inner {
				terms = append(terms, orderTerm{
					expr: fmt.Sprintf("(SELECT %s FROM %s AS %s WHERE %s LIMIT 1)", t.expr, target.Table, sub, joinCondition(rel, alias, sub)),
					dir:  t.dir,
				})
			}
			continue
		}

		col, err := column(alias, key)
		if err != nil {
			return nil, err
		}
		if !child.IsLeaf() {
			return nil, unsupported("%s is not a relation", key)
		}
		dir := filter.Direction(strings.ToLower(fmt.Sprint(child.Value())))
		if !dir.Valid() {
			return nil, unsupported("order direction %v of %s must be asc or desc", child.Value(), key)
		}
		terms = append(terms, orderTerm{expr: col, dir: dir})
	}
	return terms, nil
}

// cursorDirection returns the direction the request orders path by, asc
// when it is not ordered by it.
func cursorDirection(rows []*filter.Tree, path []string) filter.Direction {
	for _, row := range rows {
		if node, ok := row.Lookup(path...); ok && node.IsLeaf() {
			if dir := filter.Direction(strings.ToLower(fmt.Sprint(node.Value()))); dir.Valid() {
				return dir
			}
		}
	}
	return filter.Asc
}
