package provider

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ImportFile is the YAML document accepted by `lmbridge provider import`.
type ImportFile struct {
	Providers []ImportEntry `yaml:"providers"`
}

// ImportEntry describes one LM Bridge definition to seed.
type ImportEntry struct {
	Name     string         `yaml:"name"`
	Enable   bool           `yaml:"enable"`
	Settings BridgeSettings `yaml:"settings"`
}

// ParseImport decodes an import document into definitions ready to be added.
// Unknown keys are rejected so typos do not silently drop settings.
func ParseImport(data []byte) ([]*Definition, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var file ImportFile
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse provider import: %w", err)
	}

	defs := make([]*Definition, 0, len(file.Providers))
	for i, entry := range file.Providers {
		settings := entry.Settings
		settings.ExcludeMediaFormats = NormalizeTokens(settings.ExcludeMediaFormats)
		settings.KeepOnlyFormats = NormalizeTokens(settings.KeepOnlyFormats)
		settings.Prefer = ParseMediaPreference(string(settings.Prefer))
		name := entry.Name
		if name == "" {
			name = DisplayName
		}
		def := &Definition{
			Name:           name,
			Implementation: ImplementationName,
			Enable:         entry.Enable,
			Settings:       &settings,
		}
		if err := Validate(def).Err(); err != nil {
			return nil, fmt.Errorf("provider %d: %w", i+1, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}
