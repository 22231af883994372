package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.echod/config.toml.
type Config struct {
	DefaultStore string `toml:"default_store"`

	// EngineURL is the websocket address of the chat engine core.
	EngineURL string `toml:"engine_url"`

	// PollWaitMs is how long a single event poll blocks before retrying.
	PollWaitMs int `toml:"poll_wait_ms"`

	// AutoReceiveMaxSize is the largest inbound file (bytes) accepted
	// automatically when the privacy preference allows it.
	AutoReceiveMaxSize int64 `toml:"auto_receive_max_size"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		DefaultStore:       "default",
		EngineURL:          "ws://127.0.0.1:5225",
		PollWaitMs:         250,
		AutoReceiveMaxSize: 236700,
	}
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
