package configuration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationDefaults(t *testing.T) {
	// init() has already run; the publish worker knobs must never be zero.
	require.NotNil(t, &C)
	assert.Greater(t, C.App.Port, 0)
	assert.Greater(t, C.Publish.IntervalMinutes, 0)
	assert.Greater(t, C.Publish.RefreshMarginMinutes, 0)
	assert.Greater(t, C.Publish.CallTimeoutSeconds, 0)
	assert.Greater(t, C.Publish.BatchSize, 0)
	assert.NotEmpty(t, C.Gateway.CredentialParam)
}

func TestGetConfigValue(t *testing.T) {
	t.Run("env wins over config", func(t *testing.T) {
		t.Setenv("TEST_CONFIG_KEY", "from-env")
		assert.Equal(t, "from-env", getConfigValue("from-config", "TEST_CONFIG_KEY", "fallback"))
	})

	t.Run("config value when env unset", func(t *testing.T) {
		assert.Equal(t, "from-config", getConfigValue("from-config", "TEST_CONFIG_KEY_UNSET", "fallback"))
	})

	t.Run("placeholder values are ignored", func(t *testing.T) {
		assert.Equal(t, "fallback", getConfigValue("YOUR_CLIENT_ID", "TEST_CONFIG_KEY_UNSET", "fallback"))
	})

	t.Run("default when nothing set", func(t *testing.T) {
		assert.Equal(t, "fallback", getConfigValue("", "TEST_CONFIG_KEY_UNSET", "fallback"))
	})
}
