package config

// Embedded API token injected at build time via ldflags.
// It serves as a default and can be overridden by environment
// variables, the config file or the settings store.
//
// Build with:
//   go build -ldflags "-X 'github.com/filmlink/filmlink/internal/config.EmbeddedTMDBToken=xxx'"
var EmbeddedTMDBToken string
