package itests

import (
	"testing"

	"TabQueryAPI/internal/model"
)

// Registry уже загружен в TestMain, здесь сверяем связи тестовых моделей
func Test_Registry_Sanity(t *testing.T) {
	person := model.Registry["person"]
	if person == nil {
		t.Fatalf("person model missing in registry")
	}
	if rel := person.Relations["roles"]; rel == nil || rel.FK != "person_id" || rel.GetModelRef() != model.Registry["role"] {
		t.Fatalf("person.roles must link role via person_id, got: %#v", rel)
	}
	if rel := person.Relations["company"]; rel == nil || rel.FK != "company_id" || rel.PK != "id" {
		t.Fatalf("person.company must be belongs_to via company_id, got: %#v", rel)
	}
	company := model.Registry["company"]
	if company == nil || company.Generator() == nil {
		t.Fatalf("company model not ready")
	}
	if company.Relations["people"].FK != "company_id" {
		t.Fatalf("company.people fk = %q", company.Relations["people"].FK)
	}
}
