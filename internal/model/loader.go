package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"TabQueryAPI/internal/logger"
)

// LoadModelsFromDir reads every *.yml / *.yaml file of dir into Registry.
func LoadModelsFromDir(dir string) error {
	var files []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matched, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return err
		}
		files = append(files, matched...)
	}

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		model, err := ParseModel(name, data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		Registry[name] = model
		logger.Info("model_loaded", map[string]any{
			"model":     name,
			"table":     model.Table,
			"fields":    len(model.Fields),
			"relations": len(model.Relations),
		})
	}
	return nil
}

// ParseModel decodes one model document. Unknown keys are rejected before
// decoding so typos do not silently disable a field.
func ParseModel(name string, data []byte) (*Model, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	// пустой файл: модель без полей, таблица по имени файла
	if len(root.Content) == 0 {
		return &Model{Name: name}, nil
	}
	if root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("model document must be a mapping")
	}
	if err := validateYAMLNode(root.Content[0], "model"); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	var model Model
	if err := root.Decode(&model); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}
	model.Name = name
	return &model, nil
}
