package filter

// buildWhere builds the predicate tree. Entries sharing a path prefix share
// the intermediate nodes; operators on the same leaf are merged.
func (g *Generator) buildWhere(filters []SingleFilter) (*Tree, error) {
	where := NewTree()
	for _, f := range filters {
		path, virtual, err := g.mapper.Resolve(f.Field, UsageFilter)
		if err != nil {
			return nil, err
		}
		if virtual {
			continue
		}
		pred, err := buildPredicate(f.Type, f.Value)
		if err != nil {
			return nil, err
		}
		node := where.descend(SplitPath(path))
		node.put(pred.Key, leaf(pred.Value))
		if pred.Insensitive {
			node.put(KeyMode, leaf(ModeInsensitive))
		}
	}
	return where, nil
}
