package filter

import "strings"

const (
	segmentSelect  = "select"
	segmentInclude = "include"
)

// buildSelectInclude returns the select and include trees. A request select
// wins over the configured default includes; nil means "default shape".
func (g *Generator) buildSelectInclude(selectFields []string) (sel, inc *Tree) {
	if selectFields == nil && len(g.defaultInclude) == 0 {
		return nil, nil
	}
	if selectFields == nil {
		return nil, nestedFieldTree(g.defaultInclude, segmentInclude)
	}
	return nestedFieldTree(selectFields, segmentSelect), nil
}

// nestedFieldTree turns "roles.permissions" into roles.<segment>.permissions = true.
func nestedFieldTree(paths []string, segment string) *Tree {
	t := NewTree()
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts := SplitPath(p)
		expanded := make([]string, 0, len(parts)*2-1)
		for i, part := range parts {
			if i > 0 {
				expanded = append(expanded, segment)
			}
			expanded = append(expanded, part)
		}
		t.Set(expanded, true)
	}
	return t
}
