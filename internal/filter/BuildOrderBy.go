package filter

// buildOrderBy builds one single-path row per entry, then appends default
// rows whose top level key is not ordered yet.
func (g *Generator) buildOrderBy(order []SingleOrder) ([]*Tree, error) {
	rows := make([]*Tree, 0, len(order)+len(g.defaultOrder))
	for _, o := range order {
		path, virtual, err := g.mapper.Resolve(o.Field, UsageOrder)
		if err != nil {
			return nil, err
		}
		if virtual {
			continue
		}
		row := NewTree()
		row.Set(SplitPath(path), string(o.Dir))
		rows = append(rows, row)
	}

	present := map[string]bool{}
	for _, row := range rows {
		for _, k := range row.keys {
			present[k] = true
		}
	}
	for _, def := range g.defaultOrder {
		clash := false
		for k := range def {
			if present[k] {
				clash = true
				break
			}
		}
		if clash {
			continue
		}
		// TreeFromMap materializes a fresh copy, the configured row is never shared
		rows = append(rows, TreeFromMap(def))
	}
	return rows, nil
}
