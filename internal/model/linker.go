package model

import (
	"fmt"

	"github.com/iancoleman/strcase"
)

func LinkModelRelations() error {
	for modelName, model := range Registry {
		if model.Table == "" {
			model.Table = strcase.ToSnake(modelName)
		}
		for relName, rel := range model.Relations {
			if rel == nil {
				return fmt.Errorf("relation '%s.%s' is empty", modelName, relName)
			}
			targetModel, ok := Registry[rel.Model]
			if !ok {
				return fmt.Errorf("invalid relation: model '%s' not found in '%s.%s'", rel.Model, modelName, relName)
			}
			rel._ModelRef = targetModel

			// FK по умолчанию, если не задан
			if rel.FK == "" {
				switch rel.Type {
				case BelongsTo:
					// FK в текущей модели, указывает на связанную
					rel.FK = strcase.ToSnake(relName) + "_id"
				case HasOne, HasMany:
					// FK в связанной модели, указывает на текущую
					rel.FK = strcase.ToSnake(modelName) + "_id"
				}
			}
			if rel.PK == "" {
				rel.PK = "id"
			}

			if rel.Type != HasMany && rel.Type != HasOne && rel.Type != BelongsTo {
				return fmt.Errorf("relation '%s.%s' must have valid Type (has_many, has_one, belongs_to), got '%s'", modelName, relName, rel.Type)
			}
		}
	}
	return nil
}
