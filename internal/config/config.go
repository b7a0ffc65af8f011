// Package config loads and saves the application's AppConfig.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"gopad/internal/model"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

const appDirName = "gopad"

// Dir returns the application's config directory, typically
// $HOME/.config/gopad.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", appDirName), nil
}

// Path returns the full path to config.json.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads AppConfig from disk, returning default values if no config
// file exists yet.
func Load() (*model.AppConfig, error) {
	path, err := Path()
	if err != nil {
		return model.DefaultAppConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultAppConfig(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := model.DefaultAppConfig()
	if err := jsonAPI.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to disk, creating the config directory if necessary.
func Save(cfg *model.AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir %s: %w", dir, err)
	}

	path, err := Path()
	if err != nil {
		return err
	}

	data, err := jsonAPI.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
