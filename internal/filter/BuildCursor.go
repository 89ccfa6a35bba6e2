package filter

// buildCursor places the verbatim cursor value at the storage path of its
// field. Virtual fields drop the cursor.
func (g *Generator) buildCursor(c *Cursor) (*Tree, error) {
	if c == nil {
		return nil, nil
	}
	path, virtual, err := g.mapper.Resolve(c.Field, UsageCursor)
	if err != nil {
		return nil, err
	}
	if virtual {
		return nil, nil
	}
	t := NewTree()
	t.Set(SplitPath(path), c.Value)
	return t, nil
}
