package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.test/api")
	t.Setenv("COOKIE_NAME", "token")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("REDIRECT_DELAY_MS", "250")
	t.Setenv("BLOGAPI_PAGE_SIZE", "10")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://api.test/api", cfg.APIBaseURL)
	assert.Equal(t, "token", cfg.CookieName)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.Equal(t, 250*time.Millisecond, cfg.RedirectDelay)
	assert.Equal(t, 10, cfg.BlogAPIPageSize)
	assert.True(t, cfg.Production)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("COOKIE_NAME", "")
	t.Setenv("MAX_UPLOAD_BYTES", "not-a-number")
	t.Setenv("BLOGAPI_PORT", "")
	t.Setenv("BLOGAPI_PUBLIC_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:4000/api", cfg.APIBaseURL)
	assert.Equal(t, "jwt", cfg.CookieName)
	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.MaxUploadBytes)
	assert.Equal(t, "http://localhost:4000/api", cfg.BlogAPIPublicURL)
}

func TestLoadConfig_RejectsNonPositive(t *testing.T) {
	for _, k := range []string{"MAX_UPLOAD_BYTES", "REQUEST_TIMEOUT_MS", "BLOGAPI_PAGE_SIZE", "JWT_EXPIRES_HOURS"} {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, "0")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), k)
		})
	}

	t.Setenv("REDIRECT_DELAY_MS", "-1")
	_, err := Load()
	assert.ErrorContains(t, err, "REDIRECT_DELAY_MS")
}
