package filter

import (
	"fmt"
	"strings"
)

// Usage tells the mapper which part of the request references a field.
// It only changes the rejection message.
type Usage int

const (
	UsageFilter Usage = iota
	UsageOrder
	UsageCursor
)

func (u Usage) rejection() string {
	switch u {
	case UsageOrder:
		return "is not sortable"
	case UsageCursor:
		return "is not orderable"
	default:
		return "is not filterable"
	}
}

// FieldMapper resolves client field names to storage paths.
type FieldMapper struct {
	mapping  Mapping
	allowAll bool
}

// NewFieldMapper copies mapping. With allowAll every undeclared top level
// name passes through as its own storage path; dotted names must be declared.
func NewFieldMapper(mapping Mapping, allowAll bool) *FieldMapper {
	m := make(Mapping, len(mapping))
	for k, v := range mapping {
		m[k] = v
	}
	return &FieldMapper{mapping: m, allowAll: allowAll}
}

// Resolve returns the storage path for name. virtual is true for
// '!'-prefixed targets, which callers must skip silently.
func (fm *FieldMapper) Resolve(name string, usage Usage) (path string, virtual bool, err error) {
	path, ok := fm.mapping[name]
	if !ok {
		if !fm.allowAll || strings.Contains(name, ".") {
			return "", false, newError(ErrFieldNotAllowed, fmt.Sprintf("%s %s", name, usage.rejection()))
		}
		path = name
	}
	if IsVirtual(path) {
		return path, true, nil
	}
	return path, false, nil
}

// IsVirtual reports whether a mapping target is a virtual marker.
func IsVirtual(path string) bool {
	return strings.HasPrefix(path, "!")
}

// SplitPath splits a storage path into its segments.
func SplitPath(path string) []string {
	return strings.Split(path, ".")
}
