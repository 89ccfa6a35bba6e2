package model

import "TabQueryAPI/internal/filter"

// Relation types.
const (
	BelongsTo = "belongs_to"
	HasOne    = "has_one"
	HasMany   = "has_many"
)

// Model describes one filterable resource loaded from YAML.
type Model struct {
	Name        string   `yaml:"-"` // file name without extension
	Table       string   `yaml:"table"`
	PrimaryKeys []string `yaml:"primary_keys"` // optional, defaults to ["id"]
	// Fields maps client field names to storage paths ("email: user.email",
	// "fullName: '!fullName'" for virtual fields).
	Fields         filter.Mapping            `yaml:"fields"`
	AllowAllFields bool                      `yaml:"allow_all_fields"`
	Relations      map[string]*ModelRelation `yaml:"relations"`
	DefaultOrder   []map[string]any          `yaml:"default_order"`
	DefaultInclude []string                  `yaml:"default_include"`
	MaxLimit       int                       `yaml:"max_limit"` // 0 = no cap

	// runtime, not serialized
	_Generator *filter.Generator `yaml:"-"`
}

// ModelRelation describes a relation usable in storage paths.
type ModelRelation struct {
	Type  string `yaml:"type"`  // belongs_to, has_one, has_many
	Model string `yaml:"model"` // target model name
	FK    string `yaml:"fk"`    // belongs_to: column of this model; has_*: column of the target
	PK    string `yaml:"pk"`    // belongs_to: column of the target; has_*: column of this model

	_ModelRef *Model `yaml:"-"`
}

// GetPrimaryKeys returns the primary key columns, ["id"] when not configured.
func (m *Model) GetPrimaryKeys() []string {
	if len(m.PrimaryKeys) > 0 {
		return m.PrimaryKeys
	}
	return []string{"id"}
}

// Generator returns the find-options generator built from the model config.
func (m *Model) Generator() *filter.Generator {
	return m._Generator
}

// GetRelation returns the relation stored under name.
func (m *Model) GetRelation(name string) *ModelRelation {
	if m == nil || m.Relations == nil {
		return nil
	}
	return m.Relations[name]
}

// GetModelRef returns the linked target model.
func (r *ModelRelation) GetModelRef() *Model {
	return r._ModelRef
}

// SetModelRef links the target model (called by the registry after loading).
func (r *ModelRelation) SetModelRef(model *Model) {
	r._ModelRef = model
}

// IsToMany reports whether the relation yields several rows per owner.
func (r *ModelRelation) IsToMany() bool {
	return r.Type == HasMany
}
