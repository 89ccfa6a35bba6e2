package filter

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Tree is one level of a nested query-option structure (where, orderBy rows,
// select/include, cursor). A node holds either ordered children or a
// terminal value. Children keep insertion order so the JSON form and any SQL
// rendered from it are deterministic.
type Tree struct {
	keys     []string
	children map[string]*Tree
	value    any
	terminal bool
}

// NewTree returns an empty node.
func NewTree() *Tree {
	return &Tree{children: map[string]*Tree{}}
}

func leaf(v any) *Tree {
	return &Tree{value: v, terminal: true}
}

// IsLeaf reports whether the node carries a terminal value.
func (t *Tree) IsLeaf() bool { return t != nil && t.terminal }

// Value returns the terminal value of a leaf.
func (t *Tree) Value() any {
	if t == nil {
		return nil
	}
	return t.value
}

// Keys returns child keys in insertion order.
func (t *Tree) Keys() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Len returns the number of children.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Child returns the direct child stored under key.
func (t *Tree) Child(key string) (*Tree, bool) {
	if t == nil || t.terminal {
		return nil, false
	}
	c, ok := t.children[key]
	return c, ok
}

// Lookup follows a path of keys.
func (t *Tree) Lookup(path ...string) (*Tree, bool) {
	cur := t
	for _, k := range path {
		next, ok := cur.Child(k)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func (t *Tree) put(key string, c *Tree) {
	if t.terminal {
		// a terminal is replaced by a node when something descends into it
		t.terminal = false
		t.value = nil
	}
	if t.children == nil {
		t.children = map[string]*Tree{}
	}
	if _, ok := t.children[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.children[key] = c
}

// descend walks path, creating intermediate nodes on demand.
func (t *Tree) descend(path []string) *Tree {
	cur := t
	for _, k := range path {
		next, ok := cur.Child(k)
		if !ok || next.terminal {
			next = NewTree()
			cur.put(k, next)
		}
		cur = next
	}
	return cur
}

// Set stores v as a terminal at path. Existing keys keep their position.
func (t *Tree) Set(path []string, v any) {
	if len(path) == 0 {
		return
	}
	parent := t.descend(path[:len(path)-1])
	parent.put(path[len(path)-1], leaf(v))
}

// Attach stores sub as the child key, replacing any previous child.
func (t *Tree) Attach(key string, sub *Tree) {
	t.put(key, sub)
}

// Clone returns a deep copy.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	if t.terminal {
		return leaf(cloneValue(t.value))
	}
	out := NewTree()
	for _, k := range t.keys {
		out.put(k, t.children[k].Clone())
	}
	return out
}

func cloneValue(v any) any {
	if s, ok := v.([]any); ok {
		out := make([]any, len(s))
		copy(out, s)
		return out
	}
	return v
}

// Map converts the tree to plain nested maps.
func (t *Tree) Map() map[string]any {
	if t == nil {
		return nil
	}
	out := make(map[string]any, len(t.keys))
	for _, k := range t.keys {
		c := t.children[k]
		if c.terminal {
			out[k] = c.value
		} else {
			out[k] = c.Map()
		}
	}
	return out
}

// TreeFromMap builds a tree from plain nested maps. Keys of each level are
// sorted since map order is undefined.
func TreeFromMap(m map[string]any) *Tree {
	t := NewTree()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := m[k].(type) {
		case map[string]any:
			t.put(k, TreeFromMap(v))
		default:
			t.put(k, leaf(v))
		}
	}
	return t
}

// MarshalJSON encodes children in insertion order.
func (t *Tree) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}
	if t.terminal {
		return json.Marshal(t.value)
	}
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		val, err := t.children[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		b.Write(val)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}
