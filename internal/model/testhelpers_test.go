package model

import (
	"testing"

	"TabQueryAPI/internal/filter"
)

const personYAML = `
table: people
fields:
  id: id
  name: name
  email: email
  tags: tags
  settings: settings
  role: roles.name
  company: company.name
  country: company.country.code
  fullName: '!fullName'
relations:
  roles:
    type: has_many
    model: role
  company:
    type: belongs_to
    model: company
default_order:
  - id: asc
max_limit: 50
`

const roleYAML = `
table: roles
fields:
  name: name
`

const companyYAML = `
table: companies
fields:
  name: name
relations:
  country:
    type: belongs_to
    model: country
`

const countryYAML = `
table: countries
allow_all_fields: true
`

// loadModels replaces the registry with the given documents.
func loadModels(t *testing.T, docs map[string]string) {
	t.Helper()
	ResetRegistry()
	t.Cleanup(ResetRegistry)
	for name, doc := range docs {
		m, err := ParseModel(name, []byte(doc))
		if err != nil {
			t.Fatalf("ParseModel(%s): %v", name, err)
		}
		Registry[name] = m
	}
	if err := LinkModelRelations(); err != nil {
		t.Fatalf("LinkModelRelations: %v", err)
	}
	if err := ValidateAllModels(); err != nil {
		t.Fatalf("ValidateAllModels: %v", err)
	}
	if err := BuildGenerators(); err != nil {
		t.Fatalf("BuildGenerators: %v", err)
	}
}

func loadPeople(t *testing.T) *Model {
	t.Helper()
	loadModels(t, map[string]string{
		"person":  personYAML,
		"role":    roleYAML,
		"company": companyYAML,
		"country": countryYAML,
	})
	return Registry["person"]
}

func generate(t *testing.T, m *Model, req filter.Request) *filter.FindOptions {
	t.Helper()
	opts, err := m.Generator().Generate(req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return opts
}

func intp(v int) *int { return &v }
