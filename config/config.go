// Package config loads the bridge settings from the process environment.
//
// Configuration is read exactly once at startup and treated as immutable
// afterwards. Business logic never reads the environment directly; it
// receives a *Config through its constructor.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Config holds every setting the bridge needs for one process lifetime.
type Config struct {
	// AuthToken authenticates requests against the LOX24 API.
	AuthToken string `env:"LOX24_AUTH_TOKEN,required"`

	// SenderID is the default originator shown to recipients. Client
	// metadata may override it per message.
	SenderID string `env:"LOX24_SENDER_ID,required"`

	// KeyID names the KMS generator key used to unwrap Cognito
	// ciphertexts. Accepts a key ID, key ARN, alias name or alias ARN.
	KeyID string `env:"KMS_KEY_ID,required"`

	// KeyARN is the full key ARN decryption results must match.
	KeyARN string `env:"KMS_KEY_ARN,required"`

	// GatewayHost is the LOX24 API host, without a scheme.
	GatewayHost string `env:"LOX24_API_HOST,default=api.lox24.eu"`

	// ServiceCode selects the LOX24 delivery route.
	ServiceCode string `env:"LOX24_SERVICE_CODE,default=direct"`

	// LogDebug enables debug-level logging.
	LogDebug bool `env:"LOG_DEBUG,default=false"`
}

// Load reads the configuration from environment variables. Any missing
// required value is a fatal startup condition, never a per-request error.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads the configuration from the provided lookuper. Tests use
// this with a map lookuper to stay hermetic.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &cfg, lookuper); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// EnvironmentMap renders the configuration back into the environment
// variables a deployed function needs. The provisioning CLI passes this as
// the function environment, so the variable names stay defined in one place.
func (c *Config) EnvironmentMap() map[string]string {
	env := map[string]string{
		"LOX24_AUTH_TOKEN":   c.AuthToken,
		"LOX24_SENDER_ID":    c.SenderID,
		"KMS_KEY_ID":         c.KeyID,
		"KMS_KEY_ARN":        c.KeyARN,
		"LOX24_API_HOST":     c.GatewayHost,
		"LOX24_SERVICE_CODE": c.ServiceCode,
	}
	if c.LogDebug {
		env["LOG_DEBUG"] = "true"
	}
	return env
}

// Validate reports every blank required value at once, so a misconfigured
// deployment fails with a single complete error.
func (c *Config) Validate() error {
	checks := []struct {
		name  string
		value string
	}{
		{"LOX24_AUTH_TOKEN", c.AuthToken},
		{"LOX24_SENDER_ID", c.SenderID},
		{"KMS_KEY_ID", c.KeyID},
		{"KMS_KEY_ARN", c.KeyARN},
		{"LOX24_API_HOST", c.GatewayHost},
	}

	var errs []error
	for _, check := range checks {
		if strings.TrimSpace(check.value) == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", check.name))
		}
	}

	return errors.Join(errs...)
}
