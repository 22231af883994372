package session

import "github.com/dmaia/echochat/internal/config"

const DefaultStoreName = "default"

// Resolve determines the active profile-store name using precedence:
// 1. flagOverride (--store flag)
// 2. config.toml default_store
// 3. "default"
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultStore != "" {
		return cfg.DefaultStore
	}
	return DefaultStoreName
}
