package releasefilter

import (
	"encoding/json"
	"fmt"

	"lmbridge/internal/provider"
)

// Payload is the body accepted by the bridge's release filter endpoint. Field
// order is fixed so the JSON encoding doubles as a canonical form.
type Payload struct {
	Enabled             bool     `json:"enabled"`
	ExcludeMediaFormats []string `json:"excludeMediaFormats"`
	IncludeMediaFormats []string `json:"includeMediaFormats"`
	KeepOnlyMediaCount  *int     `json:"keepOnlyMediaCount,omitempty"`
	Prefer              *string  `json:"prefer,omitempty"`
	LidarrVersion       string   `json:"lidarrVersion"`
	PluginVersion       *string  `json:"pluginVersion"`
}

// Build derives the payload for def. ok is false when def is not an LM Bridge
// definition.
func Build(def *provider.Definition, hostVersion, pluginVersion string) (Payload, bool) {
	settings, ok := def.Bridge()
	if !ok {
		return Payload{}, false
	}

	exclude := provider.NormalizeTokens(settings.ExcludeMediaFormats)
	include := provider.NormalizeTokens(settings.KeepOnlyFormats)
	if len(include) > 0 {
		exclude = []string{}
	}
	if !def.Enable {
		exclude = []string{}
		include = []string{}
	}

	payload := Payload{
		Enabled:             def.Enable,
		ExcludeMediaFormats: exclude,
		IncludeMediaFormats: include,
		LidarrVersion:       hostVersion,
	}
	if limit := settings.EffectiveMediaCount(); def.Enable && limit > 0 {
		prefer := string(settings.Prefer)
		if prefer == "" {
			prefer = string(provider.PreferDigital)
		}
		payload.KeepOnlyMediaCount = &limit
		payload.Prefer = &prefer
	}
	if pluginVersion != "" {
		version := pluginVersion
		payload.PluginVersion = &version
	}
	return payload, true
}

// Canonical returns the serialized form used both as request body and as the
// debounce token.
func (p Payload) Canonical() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode release filter payload: %w", err)
	}
	return string(data), nil
}
