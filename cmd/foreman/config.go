package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/metalagman/foreman/internal/config"
	"github.com/spf13/viper"
)

func loadConfig(repoRoot string) (config.Config, error) {
	path := viper.GetString("config")
	if path == "" {
		path = filepath.Join(".foreman", "config.json")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(repoRoot, path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := config.Validate(raw); err != nil {
		return config.Config{}, err
	}

	viper.SetConfigFile(path)
	viper.SetConfigType("json")
	if err := viper.ReadInConfig(); err != nil {
		return config.Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg config.Config
	if err := viper.Unmarshal(&cfg, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())); err != nil {
		return config.Config{}, fmt.Errorf("parse config: %w", err)
	}
	if _, _, err := cfg.ResolveRoles(); err != nil {
		return config.Config{}, err
	}
	if cfg.Budgets.MaxRetries <= 0 {
		return config.Config{}, fmt.Errorf("budgets.max_retries must be > 0")
	}
	return cfg, nil
}
