package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

var allowedModelKeys = map[string]bool{
	"table":            true,
	"primary_keys":     true,
	"fields":           true,
	"allow_all_fields": true,
	"relations":        true,
	"default_order":    true,
	"default_include":  true,
	"max_limit":        true,
}

var allowedRelationKeys = map[string]bool{
	"type":  true,
	"model": true,
	"fk":    true,
	"pk":    true,
}

var allowedRelationTypes = map[string]bool{
	BelongsTo: true,
	HasOne:    true,
	HasMany:   true,
}

func validateYAMLNode(node *yaml.Node, context string) error {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			if err := validateYAMLNode(child, "model"); err != nil {
				return err
			}
		}

	case yaml.MappingNode:
		var allowedKeys map[string]bool
		switch context {
		case "model":
			allowedKeys = allowedModelKeys
		case "relation":
			allowedKeys = allowedRelationKeys
		default:
			allowedKeys = nil // free form: fields, relations map, order rows
		}

		for i := 0; i < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			valNode := node.Content[i+1]
			key := keyNode.Value

			if allowedKeys != nil && !allowedKeys[key] {
				return fmt.Errorf("unknown key '%s' in %s (line %d)", key, context, keyNode.Line)
			}
			if context == "relation" && key == "type" && !allowedRelationTypes[valNode.Value] {
				return fmt.Errorf("unknown relation type '%s' (line %d)", valNode.Value, valNode.Line)
			}
			if context == "fields" && valNode.Kind != yaml.ScalarNode {
				return fmt.Errorf("field '%s' must map to a storage path (line %d)", key, valNode.Line)
			}

			nextContext := ""
			switch {
			case context == "model" && key == "relations":
				nextContext = "relations-map"
			case context == "relations-map":
				nextContext = "relation"
			case context == "model" && key == "fields":
				nextContext = "fields"
			case context == "model" && key == "default_order":
				nextContext = "order-rows"
			default:
				nextContext = context + "." + key
			}

			if err := validateYAMLNode(valNode, nextContext); err != nil {
				return err
			}
		}

	case yaml.SequenceNode:
		for _, item := range node.Content {
			if context == "order-rows" && item.Kind != yaml.MappingNode {
				return fmt.Errorf("default_order entries must be mappings (line %d)", item.Line)
			}
			if err := validateYAMLNode(item, context+"[]"); err != nil {
				return err
			}
		}

	case yaml.ScalarNode:
		// scalars are checked through their mapping key above
	}

	return nil
}
