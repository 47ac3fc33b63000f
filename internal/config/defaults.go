package config

const (
	defaultConfigPath     = "~/.config/lmbridge/config.toml"
	defaultStateDir       = "~/.local/share/lmbridge"
	defaultLogDir         = "~/.local/share/lmbridge/logs"
	defaultAPIBind        = "127.0.0.1:7489"
	defaultRequestTimeout = 10
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultHostVersion    = "unknown"

	// AutoEnableMarkerFile is the file name of the first-run auto-enable marker.
	AutoEnableMarkerFile = ".lmbridge.autoenable"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Bridge: Bridge{
			RequestTimeout: defaultRequestTimeout,
		},
		Host: Host{
			Version: defaultHostVersion,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
