package provider

import (
	"fmt"
	"net/url"
	"strings"

	"lmbridge/internal/services"
)

// ValidationResult separates blocking errors from advisory warnings. Warnings
// never prevent a definition from being saved.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether no blocking errors were found.
func (r ValidationResult) Valid() bool { return len(r.Errors) == 0 }

// Err converts blocking errors into a validation-marked error.
func (r ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	return services.Wrap(services.ErrValidation, "provider", "validate", strings.Join(r.Errors, "; "), nil)
}

// Validate checks a definition the way the host settings form does.
func Validate(def *Definition) ValidationResult {
	var result ValidationResult
	if def == nil {
		result.Errors = append(result.Errors, "definition is required")
		return result
	}
	settings, ok := def.Bridge()
	if !ok {
		return result
	}

	source := settings.TrimmedSourceURL()
	switch {
	case source == "":
		result.Errors = append(result.Errors, "Metadata Source URL is required.")
	case !isHTTPURL(source):
		result.Errors = append(result.Errors, "Metadata Source must be a valid HTTP or HTTPS URL.")
	}

	if settings.KeepOnlyMediaCount != nil {
		if count := *settings.KeepOnlyMediaCount; count < 0 || count > MaxMediaCount {
			result.Errors = append(result.Errors, fmt.Sprintf("Keep only media count must be between 0 and %d.", MaxMediaCount))
		}
	}

	switch settings.Prefer {
	case "", PreferDigital, PreferAnalog:
	default:
		result.Errors = append(result.Errors, fmt.Sprintf("Prefer must be %q or %q.", PreferDigital, PreferAnalog))
	}

	if len(NormalizeTokens(settings.ExcludeMediaFormats)) > 0 && len(NormalizeTokens(settings.KeepOnlyFormats)) > 0 {
		result.Warnings = append(result.Warnings, "Keep only formats is set; exclude media formats will be ignored.")
	}
	return result
}

func isHTTPURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	return (scheme == "http" || scheme == "https") && parsed.Host != ""
}
