package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"TabQueryAPI/internal/db"
	"TabQueryAPI/internal/filter"
	"TabQueryAPI/internal/logger"
	"TabQueryAPI/internal/model"
)

// tail is one relation to load for a set of rows.
type tail struct {
	name  string
	rel   *model.ModelRelation
	shape *filter.Tree // nested select or include of the relation, nil for all columns
	prune bool         // shape is a select tree
	ids   []any
}

// Главный резолвер: основная выборка и хвосты связей из select / include
func Resolve(ctx context.Context, m *model.Model, opts *filter.FindOptions) ([]map[string]any, error) {
	query := *opts
	shape := opts.Include
	if opts.Select != nil {
		shape = opts.Select
		query.Select = withKeyColumns(m, opts.Select)
	}

	// 1) главный SELECT
	sb, err := m.BuildIndexQuery(&query)
	if err != nil {
		return nil, err
	}
	items, err := fetch(ctx, sb)
	if err != nil {
		return nil, err
	}

	// 2) хвосты
	if err := loadTails(ctx, m, items, shape); err != nil {
		logger.Error("resolver_tail_error", map[string]any{
			"model": m.Name,
			"error": err.Error(),
		})
		return nil, err
	}
	if opts.Select != nil {
		prune(items, opts.Select)
	}
	return items, nil
}

// ErrNoDatabase is returned when the pool is not initialized.
var ErrNoDatabase = errors.New("database is not configured")

func fetch(ctx context.Context, sb squirrel.SelectBuilder) ([]map[string]any, error) {
	if db.Pool == nil {
		return nil, ErrNoDatabase
	}
	sqlStr, args, err := sb.ToSql()
	if err != nil {
		return nil, err
	}
	logger.Debug("sql", map[string]any{
		"sql":  sqlStr,
		"args": args,
	})
	rows, err := db.Pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []map[string]any{}
	}
	return items, nil
}

// loadTails loads every relation of shape for items. Queries run in
// parallel; items are only touched after all of them returned.
func loadTails(ctx context.Context, m *model.Model, items []map[string]any, shape *filter.Tree) error {
	tails := collectTails(m, items, shape)
	if len(tails) == 0 {
		return nil
	}

	grouped := make([]map[string][]map[string]any, len(tails))
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		rerr error
	)
	for i, t := range tails {
		if len(t.ids) == 0 {
			continue
		}
		wg.Add(1)
		go func(i int, t tail) {
			defer wg.Done()
			g, err := loadTail(ctx, t)
			if err != nil {
				mu.Lock()
				if rerr == nil {
					rerr = fmt.Errorf("tail '%s': %w", t.name, err)
				}
				mu.Unlock()
				return
			}
			grouped[i] = g
		}(i, t)
	}
	wg.Wait()
	if rerr != nil {
		return rerr
	}

	for i, t := range tails {
		attach(items, t, grouped[i])
	}
	return nil
}

// collectTails picks the relation keys of shape and the distinct owner
// key values of items for each of them.
func collectTails(m *model.Model, items []map[string]any, shape *filter.Tree) []tail {
	if shape == nil || len(items) == 0 {
		return nil
	}
	var tails []tail
	for _, key := range shape.Keys() {
		rel := m.GetRelation(key)
		if rel == nil {
			continue
		}
		node, _ := shape.Child(key)
		t := tail{name: key, rel: rel}
		t.shape, t.prune = nestedShape(node)

		ownerCol, _ := rel.KeyColumns()
		seen := map[string]struct{}{}
		for _, it := range items {
			v, ok := it[ownerCol]
			if !ok || v == nil {
				continue
			}
			k := groupKey(v)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			t.ids = append(t.ids, v)
		}
		tails = append(tails, t)
	}
	return tails
}

// nestedShape reads the relation node: true loads every column,
// {select: ...} limits columns, {include: ...} loads deeper relations.
func nestedShape(node *filter.Tree) (*filter.Tree, bool) {
	if node == nil || node.IsLeaf() {
		return nil, false
	}
	if sel, ok := node.Child("select"); ok && !sel.IsLeaf() {
		return sel, true
	}
	if inc, ok := node.Child("include"); ok && !inc.IsLeaf() {
		return inc, false
	}
	return nil, false
}

func loadTail(ctx context.Context, t tail) (map[string][]map[string]any, error) {
	target := t.rel.GetModelRef()
	_, relatedCol := t.rel.KeyColumns()

	sb, err := target.BuildRelatedQuery(relatedCol, t.ids)
	if err != nil {
		return nil, err
	}
	children, err := fetch(ctx, sb)
	if err != nil {
		return nil, err
	}
	if err := loadTails(ctx, target, children, t.shape); err != nil {
		return nil, err
	}

	// сгруппируем дочерние по ключу связи
	g := make(map[string][]map[string]any)
	for _, row := range children {
		k := groupKey(row[relatedCol])
		g[k] = append(g[k], row)
	}
	if t.prune {
		prune(children, t.shape)
	}
	return g, nil
}

// attach stores the grouped rows under the relation name: a list for
// has_many, the first row or nil for to-one relations.
func attach(items []map[string]any, t tail, g map[string][]map[string]any) {
	ownerCol, _ := t.rel.KeyColumns()
	for _, it := range items {
		var rows []map[string]any
		if v, ok := it[ownerCol]; ok && v != nil {
			rows = g[groupKey(v)]
		}
		if t.rel.IsToMany() {
			if rows == nil {
				rows = []map[string]any{}
			}
			it[t.name] = rows
			continue
		}
		if len(rows) == 0 {
			it[t.name] = nil
			continue
		}
		it[t.name] = rows[0]
	}
}

// withKeyColumns adds the owner key columns relations need to sel, so
// tails can be matched even when the client did not select them.
func withKeyColumns(m *model.Model, sel *filter.Tree) *filter.Tree {
	out := sel.Clone()
	hasColumn := false
	for _, key := range sel.Keys() {
		if node, _ := sel.Child(key); node.IsLeaf() && m.GetRelation(key) == nil {
			hasColumn = true
		}
	}
	if !hasColumn {
		// only relations selected: keep the full row, prune drops it later
		return out
	}
	for _, key := range sel.Keys() {
		rel := m.GetRelation(key)
		if rel == nil {
			continue
		}
		ownerCol, _ := rel.KeyColumns()
		if _, ok := out.Child(ownerCol); !ok {
			out.Set([]string{ownerCol}, true)
		}
	}
	return out
}

// prune keeps only the keys of sel in every row.
func prune(items []map[string]any, sel *filter.Tree) {
	keep := map[string]bool{}
	for _, k := range sel.Keys() {
		keep[k] = true
	}
	for _, it := range items {
		for k := range it {
			if !keep[k] {
				delete(it, k)
			}
		}
	}
}

// groupKey normalizes key values; int4 and int8 columns must match.
func groupKey(v any) string {
	return fmt.Sprint(v)
}
