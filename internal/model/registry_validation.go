package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"TabQueryAPI/internal/filter"
)

// ValidateAllModels checks that every configured path can be rendered:
// mapping targets, default order rows and default includes. All problems
// of all models are reported at once.
func ValidateAllModels() error {
	var result *multierror.Error

	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := validateModel(Registry[name]); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func validateModel(m *Model) error {
	var result *multierror.Error

	if m.MaxLimit < 0 {
		result = multierror.Append(result, fmt.Errorf("model '%s': max_limit must not be negative", m.Name))
	}

	fields := make([]string, 0, len(m.Fields))
	for name := range m.Fields {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	for _, name := range fields {
		target := m.Fields[name]
		if filter.IsVirtual(target) {
			continue
		}
		if strings.TrimSpace(target) == "" {
			result = multierror.Append(result, fmt.Errorf("model '%s': field '%s' has an empty storage path", m.Name, name))
			continue
		}
		if err := m.checkPath(filter.SplitPath(target), true); err != nil {
			result = multierror.Append(result, fmt.Errorf("model '%s': field '%s': %w", m.Name, name, err))
		}
	}

	for i, row := range m.DefaultOrder {
		if err := m.checkOrderRow(row); err != nil {
			result = multierror.Append(result, fmt.Errorf("model '%s': default_order[%d]: %w", m.Name, i, err))
		}
	}

	for _, inc := range m.DefaultInclude {
		if err := m.checkPath(filter.SplitPath(inc), false); err != nil {
			result = multierror.Append(result, fmt.Errorf("model '%s': default_include '%s': %w", m.Name, inc, err))
		}
	}
	return result.ErrorOrNil()
}

// checkPath walks relation segments. With column set the last segment
// must be a column (anything that is not a relation), otherwise it must be
// a relation itself.
func (m *Model) checkPath(segments []string, column bool) error {
	cur := m
	var via *ModelRelation
	for i, seg := range segments {
		if seg == "" {
			return fmt.Errorf("empty path segment")
		}
		last := i == len(segments)-1
		if via != nil && !last && isListOperator(via, seg) {
			continue
		}
		rel := cur.GetRelation(seg)
		if last && column {
			if rel != nil {
				return fmt.Errorf("'%s' is a relation, not a column", seg)
			}
			return nil
		}
		if rel == nil {
			return fmt.Errorf("unknown relation '%s' in model '%s'", seg, cur.Name)
		}
		cur = rel.GetModelRef()
		via = rel
	}
	return nil
}

// isListOperator reports whether seg is a relation filter keyword
// (some/every/none on has_many, is/isNot on to-one relations).
func isListOperator(rel *ModelRelation, seg string) bool {
	if rel.IsToMany() {
		return seg == relSome || seg == relEvery || seg == relNone
	}
	return seg == relIs || seg == relIsNot
}

// order rows may only traverse to-one relations
func (m *Model) checkOrderRow(row map[string]any) error {
	for key, v := range row {
		nested, ok := v.(map[string]any)
		if !ok {
			if m.GetRelation(key) != nil {
				return fmt.Errorf("'%s' is a relation, not a column", key)
			}
			continue
		}
		rel := m.GetRelation(key)
		if rel == nil {
			return fmt.Errorf("unknown relation '%s' in model '%s'", key, m.Name)
		}
		if rel.IsToMany() {
			return fmt.Errorf("cannot order by to-many relation '%s'", key)
		}
		if err := rel.GetModelRef().checkOrderRow(nested); err != nil {
			return fmt.Errorf("%s.%w", key, err)
		}
	}
	return nil
}
