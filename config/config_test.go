package config

import (
	"context"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullEnv() map[string]string {
	return map[string]string{
		"LOX24_AUTH_TOKEN": "token-123",
		"LOX24_SENDER_ID":  "ACME",
		"KMS_KEY_ID":       "alias/cognito-sms",
		"KMS_KEY_ARN":      "arn:aws:kms:eu-central-1:123456789012:key/abcd-1234",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(fullEnv()))
	require.NoError(t, err)

	assert.Equal(t, "token-123", cfg.AuthToken)
	assert.Equal(t, "ACME", cfg.SenderID)
	assert.Equal(t, "api.lox24.eu", cfg.GatewayHost)
	assert.Equal(t, "direct", cfg.ServiceCode)
	assert.False(t, cfg.LogDebug)
}

func TestLoadOverrides(t *testing.T) {
	env := fullEnv()
	env["LOX24_API_HOST"] = "staging.lox24.eu"
	env["LOX24_SERVICE_CODE"] = "economy"
	env["LOG_DEBUG"] = "true"

	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(env))
	require.NoError(t, err)

	assert.Equal(t, "staging.lox24.eu", cfg.GatewayHost)
	assert.Equal(t, "economy", cfg.ServiceCode)
	assert.True(t, cfg.LogDebug)
}

func TestLoadMissingRequired(t *testing.T) {
	for _, name := range []string{"LOX24_AUTH_TOKEN", "LOX24_SENDER_ID", "KMS_KEY_ID", "KMS_KEY_ARN"} {
		t.Run(name, func(t *testing.T) {
			env := fullEnv()
			delete(env, name)

			_, err := LoadWith(context.Background(), envconfig.MapLookuper(env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestEnvironmentMapRoundTrips(t *testing.T) {
	env := fullEnv()
	env["LOG_DEBUG"] = "true"

	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(env))
	require.NoError(t, err)

	rendered := cfg.EnvironmentMap()

	reloaded, err := LoadWith(context.Background(), envconfig.MapLookuper(rendered))
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)
}

func TestValidateRejectsBlankValues(t *testing.T) {
	env := fullEnv()
	env["LOX24_AUTH_TOKEN"] = "   "
	env["LOX24_SENDER_ID"] = " "

	_, err := LoadWith(context.Background(), envconfig.MapLookuper(env))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOX24_AUTH_TOKEN")
	assert.Contains(t, err.Error(), "LOX24_SENDER_ID")
}
