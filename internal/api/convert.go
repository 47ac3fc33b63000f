package api

import (
	"encoding/json"
	"strings"

	"lmbridge/internal/provider"
	"lmbridge/internal/services"
	"lmbridge/internal/store"
)

// RefreshAlbumCommandName is the host command name for album refreshes.
const RefreshAlbumCommandName = "RefreshAlbum"

// FromDefinition converts a definition into its DTO.
func FromDefinition(def *provider.Definition) (Provider, error) {
	if def == nil {
		return Provider{}, nil
	}
	settings, err := provider.EncodeSettings(def.Settings)
	if err != nil {
		return Provider{}, err
	}
	return Provider{
		ID:             def.ID,
		Name:           def.Name,
		Implementation: def.Implementation,
		Enable:         def.Enable,
		Settings:       json.RawMessage(settings),
	}, nil
}

// FromDefinitions converts a slice of definitions.
func FromDefinitions(defs []*provider.Definition) ([]Provider, error) {
	out := make([]Provider, 0, len(defs))
	for _, def := range defs {
		dto, err := FromDefinition(def)
		if err != nil {
			return nil, err
		}
		out = append(out, dto)
	}
	return out, nil
}

// NewDefinition builds a definition from a create request. The implementation
// defaults to the LM Bridge override and missing bridge settings use defaults.
func NewDefinition(req ProviderRequest) (*provider.Definition, error) {
	implementation := strings.TrimSpace(req.Implementation)
	if implementation == "" {
		implementation = provider.ImplementationName
	}
	def := &provider.Definition{
		Name:           strings.TrimSpace(req.Name),
		Implementation: implementation,
	}
	if req.Enable != nil {
		def.Enable = *req.Enable
	}
	settings, err := decodeRequestSettings(implementation, req.Settings)
	if err != nil {
		return nil, err
	}
	def.Settings = settings
	return def, nil
}

// ApplyRequest merges an update request into an existing definition.
func ApplyRequest(def *provider.Definition, req ProviderRequest) error {
	if impl := strings.TrimSpace(req.Implementation); impl != "" && impl != def.Implementation {
		return services.Wrap(services.ErrValidation, "api", "update provider", "implementation cannot be changed", nil)
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		def.Name = name
	}
	if req.Enable != nil {
		def.Enable = *req.Enable
	}
	if len(req.Settings) > 0 {
		settings, err := decodeRequestSettings(def.Implementation, req.Settings)
		if err != nil {
			return err
		}
		def.Settings = settings
	}
	return nil
}

func decodeRequestSettings(implementation string, raw json.RawMessage) (provider.Settings, error) {
	if len(raw) == 0 && implementation == provider.ImplementationName {
		return provider.NewBridgeSettings(), nil
	}
	settings, err := provider.DecodeSettings(implementation, raw)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "api", "decode settings", "", err)
	}
	return settings, nil
}

// FromCommand converts a stored refresh command into its DTO.
func FromCommand(cmd store.RefreshCommand) Command {
	out := Command{
		ID:      cmd.ID,
		Name:    RefreshAlbumCommandName,
		AlbumID: cmd.AlbumID,
		Status:  string(cmd.Status),
	}
	if !cmd.CreatedAt.IsZero() {
		out.CreatedAt = cmd.CreatedAt.Format(dateTimeFormat)
	}
	if !cmd.CompletedAt.IsZero() {
		out.CompletedAt = cmd.CompletedAt.Format(dateTimeFormat)
	}
	return out
}

// SourceURL returns the bridge URL carried in the provider's settings, or ""
// for nil providers and foreign implementations.
func (p *Provider) SourceURL() string {
	if p == nil || p.Implementation != provider.ImplementationName {
		return ""
	}
	settings, err := provider.DecodeSettings(p.Implementation, p.Settings)
	if err != nil {
		return ""
	}
	bridge, ok := settings.(*provider.BridgeSettings)
	if !ok {
		return ""
	}
	return bridge.TrimmedSourceURL()
}
