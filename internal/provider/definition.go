package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// ImplementationName identifies definitions owned by the LM Bridge override.
	ImplementationName = "MetadataSourceOverride"
	// DisplayName is the canonical name shown for the override in the host UI.
	DisplayName = "LM Bridge Settings"
	// DefaultSourceURL is the well-known address of a local LM Bridge instance.
	DefaultSourceURL = "http://127.0.0.1:5001"
	// MaxMediaCount is the upper bound applied to KeepOnlyMediaCount.
	MaxMediaCount = 999
)

// MediaPreference selects which releases survive when a media count limit applies.
type MediaPreference string

const (
	PreferDigital MediaPreference = "digital"
	PreferAnalog  MediaPreference = "analog"
)

// ParseMediaPreference accepts the wire names as well as the host's numeric
// enum values (0 digital, 1 analog). A blank value means digital. Anything
// else is returned lower-cased so Validate can reject it.
func ParseMediaPreference(value string) MediaPreference {
	switch normalized := strings.ToLower(strings.TrimSpace(value)); normalized {
	case "", "digital", "0":
		return PreferDigital
	case "analog", "1":
		return PreferAnalog
	default:
		return MediaPreference(normalized)
	}
}

// Settings is the implementation-specific configuration attached to a Definition.
type Settings interface {
	Implementation() string
}

// BridgeSettings configures the LM Bridge metadata source override.
type BridgeSettings struct {
	SourceURL           string          `json:"metadataSource" yaml:"metadata_source"`
	ExcludeMediaFormats []string        `json:"excludeMediaFormats,omitempty" yaml:"exclude_media_formats"`
	KeepOnlyFormats     []string        `json:"keepOnlyFormats,omitempty" yaml:"keep_only_formats"`
	KeepOnlyMediaCount  *int            `json:"keepOnlyMediaCount,omitempty" yaml:"keep_only_media_count"`
	Prefer              MediaPreference `json:"prefer,omitempty" yaml:"prefer"`
	ForceRescanReleases bool            `json:"forceRescanReleases,omitempty" yaml:"force_rescan_releases"`
}

// Implementation reports the definition implementation these settings belong to.
func (s *BridgeSettings) Implementation() string { return ImplementationName }

// NewBridgeSettings returns settings populated with the host defaults.
func NewBridgeSettings() *BridgeSettings {
	return &BridgeSettings{SourceURL: DefaultSourceURL, Prefer: PreferDigital}
}

// TrimmedSourceURL returns the source URL without surrounding whitespace.
func (s *BridgeSettings) TrimmedSourceURL() string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(s.SourceURL)
}

// IsDefaultSource reports whether the URL is blank or still the well-known default.
func (s *BridgeSettings) IsDefaultSource() bool {
	url := s.TrimmedSourceURL()
	return url == "" || strings.EqualFold(url, DefaultSourceURL)
}

// EffectiveMediaCount returns KeepOnlyMediaCount clamped to [0, MaxMediaCount];
// zero means no limit.
func (s *BridgeSettings) EffectiveMediaCount() int {
	if s == nil || s.KeepOnlyMediaCount == nil {
		return 0
	}
	return min(max(*s.KeepOnlyMediaCount, 0), MaxMediaCount)
}

// OpaqueSettings carries settings for implementations lmbridge does not manage.
type OpaqueSettings struct {
	Kind string
	Raw  json.RawMessage
}

// Implementation reports the foreign implementation name.
func (s *OpaqueSettings) Implementation() string { return s.Kind }

// Definition is one host-managed metadata provider record.
type Definition struct {
	ID             int64
	Name           string
	Implementation string
	Enable         bool
	Settings       Settings
}

// Bridge returns the LM Bridge settings when the definition belongs to this
// implementation and carries the matching settings variant.
func (d *Definition) Bridge() (*BridgeSettings, bool) {
	if d == nil || d.Implementation != ImplementationName {
		return nil, false
	}
	settings, ok := d.Settings.(*BridgeSettings)
	if !ok || settings == nil {
		return nil, false
	}
	return settings, true
}

// EncodeSettings serializes settings for storage.
func EncodeSettings(settings Settings) ([]byte, error) {
	switch s := settings.(type) {
	case nil:
		return []byte("{}"), nil
	case *OpaqueSettings:
		if len(s.Raw) == 0 {
			return []byte("{}"), nil
		}
		return s.Raw, nil
	default:
		data, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("encode settings: %w", err)
		}
		return data, nil
	}
}

// DecodeSettings builds the settings variant for an implementation.
func DecodeSettings(implementation string, raw []byte) (Settings, error) {
	if implementation != ImplementationName {
		return &OpaqueSettings{Kind: implementation, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
	settings := &BridgeSettings{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, settings); err != nil {
			return nil, fmt.Errorf("decode %s settings: %w", implementation, err)
		}
	}
	if settings.Prefer == "" {
		settings.Prefer = PreferDigital
	}
	return settings, nil
}

// Clone returns a deep copy so callers can mutate without affecting the source.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	out := *d
	switch s := d.Settings.(type) {
	case *BridgeSettings:
		cp := *s
		cp.ExcludeMediaFormats = append([]string(nil), s.ExcludeMediaFormats...)
		cp.KeepOnlyFormats = append([]string(nil), s.KeepOnlyFormats...)
		if s.KeepOnlyMediaCount != nil {
			count := *s.KeepOnlyMediaCount
			cp.KeepOnlyMediaCount = &count
		}
		out.Settings = &cp
	case *OpaqueSettings:
		cp := *s
		cp.Raw = append(json.RawMessage(nil), s.Raw...)
		out.Settings = &cp
	}
	return &out
}
