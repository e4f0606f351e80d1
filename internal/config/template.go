package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"exercisehub/internal/model"
	"exercisehub/internal/settings"
)

//go:embed default_settings.yaml
var defaultTemplate []byte

type templateFile struct {
	Settings model.Settings `yaml:"settings"`
}

// LoadTemplate reads the settings template at path, or the embedded
// default when path is empty. Every default must pass its own constraints.
func LoadTemplate(path string, v *settings.Validator) (settings.Template, error) {
	data := defaultTemplate
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return settings.Template{}, fmt.Errorf("read settings template: %w", err)
		}
		data = b
	}
	return ParseTemplate(data, v)
}

// ParseTemplate decodes a YAML settings template
func ParseTemplate(data []byte, v *settings.Validator) (settings.Template, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return settings.Template{}, fmt.Errorf("decode settings template: %w", err)
	}
	if len(file.Settings) == 0 {
		return settings.Template{}, fmt.Errorf("settings template is empty")
	}

	seen := make(map[string]bool, len(file.Settings))
	for _, s := range file.Settings {
		if s.Key == "" || seen[s.Key] {
			return settings.Template{}, fmt.Errorf("settings template: empty or duplicate key %q", s.Key)
		}
		seen[s.Key] = true
	}

	template := settings.NewTemplate(file.Settings)
	if v != nil {
		if err := v.ValidateAll(template.Settings()); err != nil {
			return settings.Template{}, fmt.Errorf("settings template: %w", err)
		}
	}
	return template, nil
}
