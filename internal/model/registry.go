package model

import (
	"fmt"

	"TabQueryAPI/internal/filter"
)

var Registry = map[string]*Model{}

func InitRegistry(dir string) error {
	if err := LoadModelsFromDir(dir); err != nil {
		return fmt.Errorf("load error: %w", err)
	}
	if err := LinkModelRelations(); err != nil {
		return fmt.Errorf("link error: %w", err)
	}
	if err := ValidateAllModels(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if err := BuildGenerators(); err != nil {
		return fmt.Errorf("generator error: %w", err)
	}
	return nil
}

// ResetRegistry drops every loaded model.
func ResetRegistry() {
	Registry = map[string]*Model{}
}

// Lookup returns the model registered under name.
func Lookup(name string) (*Model, bool) {
	m, ok := Registry[name]
	return m, ok
}

// BuildGenerators creates the find-options generator of every model.
func BuildGenerators() error {
	for name, m := range Registry {
		g, err := filter.NewGenerator(m.GeneratorConfig())
		if err != nil {
			return fmt.Errorf("model '%s': %w", name, err)
		}
		m._Generator = g
	}
	return nil
}

// GeneratorConfig returns the part of the model the generator consumes.
func (m *Model) GeneratorConfig() filter.Config {
	return filter.Config{
		Mapping:        m.Fields,
		AllowAllFields: m.AllowAllFields,
		DefaultOrder:   m.DefaultOrder,
		DefaultInclude: m.DefaultInclude,
	}
}
