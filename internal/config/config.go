// Package config provides configuration loading and management for foreman.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Models    map[string]ModelConfig `json:"models"              mapstructure:"models"`
	Roles     RoleRefs               `json:"roles"               mapstructure:"roles"`
	Knowledge KnowledgeConfig        `json:"knowledge,omitempty" mapstructure:"knowledge"`
	Budgets   Budgets                `json:"budgets"             mapstructure:"budgets"`
	Store     StoreConfig            `json:"store,omitempty"     mapstructure:"store"`
	SelfTests bool                   `json:"self_tests,omitempty" mapstructure:"self_tests"`
}

// ModelConfig describes one model endpoint. Timeout takes a duration string
// such as "120s".
type ModelConfig struct {
	Model     string        `json:"model"                 mapstructure:"model"`
	APIKeyEnv string        `json:"api_key_env,omitempty" mapstructure:"api_key_env"`
	Timeout   time.Duration `json:"timeout,omitempty"     mapstructure:"timeout"`
}

// RoleRefs maps the two roles to named model configs.
type RoleRefs struct {
	Planning       string `json:"planning"       mapstructure:"planning"`
	Implementation string `json:"implementation" mapstructure:"implementation"`
}

// KnowledgeConfig configures the local retrieval index.
type KnowledgeConfig struct {
	Manifest string  `json:"manifest,omitempty"  mapstructure:"manifest"`
	TopK     int     `json:"top_k,omitempty"     mapstructure:"top_k"`
	MinScore float64 `json:"min_score,omitempty" mapstructure:"min_score"`
}

// Budgets defines run limits.
type Budgets struct {
	MaxRetries  int `json:"max_retries"           mapstructure:"max_retries"`
	Parallelism int `json:"parallelism,omitempty" mapstructure:"parallelism"`
}

// StoreConfig configures run persistence.
type StoreConfig struct {
	Path string `json:"path,omitempty" mapstructure:"path"`
}

// ResolveRoles returns the model configs for the planning and implementation
// roles. Both references must name a defined model.
func (c Config) ResolveRoles() (planning, implementation ModelConfig, err error) {
	planning, ok := c.Models[c.Roles.Planning]
	if !ok {
		return ModelConfig{}, ModelConfig{}, fmt.Errorf("roles.planning references undefined model %q", c.Roles.Planning)
	}
	implementation, ok = c.Models[c.Roles.Implementation]
	if !ok {
		return ModelConfig{}, ModelConfig{}, fmt.Errorf("roles.implementation references undefined model %q", c.Roles.Implementation)
	}
	return planning, implementation, nil
}
