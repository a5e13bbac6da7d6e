package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	REPLAYGAIN_TRACK = "track"
	REPLAYGAIN_ALBUM = "album"
)

// Config is the small settings object persisted next to the media data.
type Config struct {
	VideoEnabled   bool   `json:"video_enabled"`
	ReplayGainMode string `json:"replaygain_mode"`
}

func defaultConfig() Config {
	return Config{VideoEnabled: false, ReplayGainMode: REPLAYGAIN_TRACK}
}

// normalized repairs values an older or hand-edited file may carry.
func (c Config) normalized() Config {
	if c.ReplayGainMode != REPLAYGAIN_ALBUM {
		c.ReplayGainMode = REPLAYGAIN_TRACK
	}
	return c
}

// ConfigStore loads and saves Config as JSON.
type ConfigStore struct {
	path string
}

func NewConfigStore(path string) *ConfigStore {
	return &ConfigStore{path: path}
}

// Load returns the stored config. A missing or unparsable file is replaced
// with the defaults, which are written back immediately.
func (s *ConfigStore) Load() Config {
	data, err := os.ReadFile(s.path)
	if err == nil {
		var cfg Config
		if err = json.Unmarshal(data, &cfg); err == nil {
			return cfg.normalized()
		}
	}

	logger.Warn().Err(err).Str("path", s.path).Msg("Config missing or corrupt, restoring defaults")
	cfg := defaultConfig()
	if err := s.Save(cfg); err != nil {
		logger.Error().Err(err).Str("path", s.path).Msg("Failed to persist default config")
	}
	return cfg
}

// Save writes the config file.
func (s *ConfigStore) Save(cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg.normalized(), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}
	return nil
}
